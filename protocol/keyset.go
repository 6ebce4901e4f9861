package protocol

import (
	"encoding/json"

	jose "github.com/go-jose/go-jose/v4"
)

// KeySet is a JSON Web Key Set holding the signing keys of an authorization
// server.
type KeySet struct {
	jose.JSONWebKeySet
}

// NewKeySet wraps keys in a KeySet.
func NewKeySet(keys ...jose.JSONWebKey) *KeySet {
	return &KeySet{JSONWebKeySet: jose.JSONWebKeySet{Keys: append([]jose.JSONWebKey(nil), keys...)}}
}

// Len returns the number of keys.
func (s *KeySet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Keys)
}

// JSON encodes the set as {"keys":[...]}.
func (s *KeySet) JSON() (json.RawMessage, error) {
	return json.Marshal(s.JSONWebKeySet)
}
