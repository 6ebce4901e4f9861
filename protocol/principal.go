package protocol

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Principal is the verified identity extracted from a token, either by local
// validation or by introspection.
type Principal struct {
	Subject   string
	Issuer    string
	Audiences []string
	Scopes    []string
	ClientID  string
	ExpiresAt time.Time
	IssuedAt  time.Time

	claims map[string]any
}

// NewPrincipal builds a Principal from a claim set. The map is copied.
func NewPrincipal(claims map[string]any) *Principal {
	c := make(map[string]any, len(claims))
	for k, v := range claims {
		c[k] = v
	}
	p := &Principal{claims: c}
	p.Subject, _ = c["sub"].(string)
	p.Issuer, _ = c["iss"].(string)
	p.ClientID, _ = c["client_id"].(string)
	p.Audiences = stringList(c["aud"])
	if s, ok := c["scope"].(string); ok {
		p.Scopes = strings.Fields(s)
	}
	p.ExpiresAt = numericDate(c["exp"])
	p.IssuedAt = numericDate(c["iat"])
	return p
}

// UserID returns the subject.
func (p *Principal) UserID() string { return p.Subject }

// Claim returns a single raw claim.
func (p *Principal) Claim(name string) (any, bool) {
	v, ok := p.claims[name]
	return v, ok
}

// Claims unmarshals the full claim set into ref.
func (p *Principal) Claims(ref any) error {
	b, err := json.Marshal(p.claims)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, ref)
}

// HasScope reports whether scope was granted.
func (p *Principal) HasScope(scope string) bool {
	for _, s := range p.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// HasAudience reports whether any of wants appears in the audience claim.
func (p *Principal) HasAudience(wants ...string) bool {
	for _, a := range p.Audiences {
		for _, w := range wants {
			if a == w {
				return true
			}
		}
	}
	return false
}

func stringList(v any) []string {
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func numericDate(v any) time.Time {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int64:
		f = float64(t)
	case int:
		f = float64(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return time.Time{}
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return time.Time{}
		}
		f = n
	default:
		return time.Time{}
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9))
}
