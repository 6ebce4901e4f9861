package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

// Parameters is an insertion-ordered set of named protocol parameters. Values
// are whatever JSON decoding produced (string, bool, json.Number, []any,
// map[string]any) or plain strings for form-encoded requests.
//
// The zero value is ready to use. Parameters is not safe for concurrent use.
type Parameters struct {
	names  []string
	values map[string]any
}

// Set stores value under name, keeping the original position if the name was
// already present.
func (p *Parameters) Set(name string, value any) {
	if p.values == nil {
		p.values = make(map[string]any)
	}
	if _, ok := p.values[name]; !ok {
		p.names = append(p.names, name)
	}
	p.values[name] = value
}

// Get returns the raw value stored under name.
func (p *Parameters) Get(name string) (any, bool) {
	v, ok := p.values[name]
	return v, ok
}

// Has reports whether name is present.
func (p *Parameters) Has(name string) bool {
	_, ok := p.values[name]
	return ok
}

// String returns the parameter as a string. Numbers and booleans are
// formatted; other types yield "".
func (p *Parameters) String(name string) string {
	switch v := p.values[name].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Bool returns the parameter as a boolean. The string forms "true" and
// "false" are accepted since some servers emit them.
func (p *Parameters) Bool(name string) (value bool, ok bool) {
	switch v := p.values[name].(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(v)
		return b, err == nil
	}
	return false, false
}

// Delete removes name.
func (p *Parameters) Delete(name string) {
	if _, ok := p.values[name]; !ok {
		return
	}
	delete(p.values, name)
	for i, n := range p.names {
		if n == name {
			p.names = append(p.names[:i], p.names[i+1:]...)
			break
		}
	}
}

// Names returns parameter names in insertion order.
func (p *Parameters) Names() []string { return append([]string(nil), p.names...) }

// Len returns the number of parameters.
func (p *Parameters) Len() int { return len(p.names) }

// Map returns a shallow copy of the parameters as a map.
func (p *Parameters) Map() map[string]any {
	out := make(map[string]any, len(p.names))
	for _, n := range p.names {
		out[n] = p.values[n]
	}
	return out
}

// Values encodes the parameters for a query string or form body. Values that
// are not scalars are JSON encoded.
func (p *Parameters) Values() url.Values {
	out := make(url.Values, len(p.names))
	for _, n := range p.names {
		switch v := p.values[n].(type) {
		case string:
			out.Set(n, v)
		case []string:
			for _, s := range v {
				out.Add(n, s)
			}
		case json.Number:
			out.Set(n, v.String())
		case bool:
			out.Set(n, strconv.FormatBool(v))
		case nil:
		default:
			b, err := json.Marshal(v)
			if err == nil {
				out.Set(n, string(b))
			}
		}
	}
	return out
}

// Decode unmarshals the parameters into ref by round-tripping through JSON.
func (p *Parameters) Decode(ref any) error {
	b, err := p.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(b, ref)
}

// MarshalJSON encodes the parameters as a JSON object, preserving order.
func (p Parameters) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, n := range p.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(n)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(p.values[n])
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", n, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ErrNotAnObject is returned when a payload is valid JSON but not an object.
var ErrNotAnObject = errors.New("protocol: payload is not a JSON object")

// ParseParameters decodes a JSON object into ordered Parameters. Numbers are
// kept as json.Number to avoid precision loss on large timestamps.
func ParseParameters(body []byte) (Parameters, error) {
	var p Parameters
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return p, fmt.Errorf("protocol: invalid JSON: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return p, ErrNotAnObject
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return p, fmt.Errorf("protocol: invalid JSON: %w", err)
		}
		name, ok := tok.(string)
		if !ok {
			return p, fmt.Errorf("protocol: invalid JSON: unexpected token %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return p, fmt.Errorf("protocol: invalid value for %q: %w", name, err)
		}
		p.Set(name, v)
	}
	if _, err := dec.Token(); err != nil {
		return p, fmt.Errorf("protocol: invalid JSON: %w", err)
	}
	if dec.More() {
		return p, errors.New("protocol: trailing data after JSON object")
	}
	return p, nil
}
