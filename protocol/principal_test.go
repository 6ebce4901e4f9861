package protocol

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"strconv"
	"testing"
	"time"

	jose "github.com/go-jose/go-jose/v4"
)

func TestNewPrincipal(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	p := NewPrincipal(map[string]any{
		"sub":       "user-1",
		"iss":       "https://issuer.example",
		"aud":       []any{"api", "other"},
		"scope":     "read write",
		"client_id": "client",
		"exp":       json.Number(strconv.FormatInt(exp.Unix(), 10)),
		"iat":       float64(exp.Add(-time.Hour).Unix()),
		"tenant":    "acme",
	})

	if p.UserID() != "user-1" || p.Issuer != "https://issuer.example" || p.ClientID != "client" {
		t.Fatalf("principal: %+v", p)
	}
	if !p.HasAudience("nope", "api") || p.HasAudience("nope") {
		t.Fatalf("audiences: %v", p.Audiences)
	}
	if !p.HasScope("write") || p.HasScope("admin") {
		t.Fatalf("scopes: %v", p.Scopes)
	}
	if !p.ExpiresAt.Equal(exp) {
		t.Fatalf("exp: got %v want %v", p.ExpiresAt, exp)
	}
	if p.IssuedAt.IsZero() {
		t.Fatal("iat not parsed")
	}

	var out struct {
		Tenant string `json:"tenant"`
	}
	if err := p.Claims(&out); err != nil || out.Tenant != "acme" {
		t.Fatalf("claims: %v %+v", err, out)
	}
}

func TestNewPrincipal_CopiesClaims(t *testing.T) {
	claims := map[string]any{"sub": "a", "aud": "single"}
	p := NewPrincipal(claims)
	claims["sub"] = "b"
	if v, _ := p.Claim("sub"); v != "a" {
		t.Fatalf("claims were not copied: %v", v)
	}
	if len(p.Audiences) != 1 || p.Audiences[0] != "single" {
		t.Fatalf("string audience: %v", p.Audiences)
	}
}

func TestKeySet_JSON(t *testing.T) {
	pk, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("gen key: %v", err)
	}
	ks := NewKeySet(jose.JSONWebKey{Key: &pk.PublicKey, KeyID: "k1", Algorithm: "ES256", Use: "sig"})
	if ks.Len() != 1 {
		t.Fatalf("len: %d", ks.Len())
	}
	raw, err := ks.JSON()
	if err != nil {
		t.Fatalf("json: %v", err)
	}
	var back jose.JSONWebKeySet
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(back.Key("k1")) != 1 {
		t.Fatalf("key k1 not found in %s", raw)
	}

	var nilSet *KeySet
	if nilSet.Len() != 0 {
		t.Fatal("nil key set should have no keys")
	}
}
