package jwtauth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"

	"github.com/ggoodman/oidc-validation-go/pipeline"
	"github.com/ggoodman/oidc-validation-go/protocol"
)

const testIssuer = "https://issuer.example.com"

func genRSA(t *testing.T) (*rsa.PrivateKey, string, *protocol.KeySet) {
	t.Helper()
	pk, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("gen key: %v", err)
	}
	kid := "test-key"
	jwk := jose.JSONWebKey{Key: &pk.PublicKey, KeyID: kid, Algorithm: "RS256", Use: "sig"}
	return pk, kid, protocol.NewKeySet(jwk)
}

func signToken(t *testing.T, pk *rsa.PrivateKey, kid string, headerTyp string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = kid
	if headerTyp != "" {
		tok.Header["typ"] = headerTyp
	}
	s, err := tok.SignedString(pk)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func baseParams(keys *protocol.KeySet, aud string) pipeline.ValidationParameters {
	return pipeline.ValidationParameters{
		Issuer:      testIssuer,
		Audiences:   []string{aud},
		AllowedAlgs: []string{"RS256"},
		Keys:        keys,
	}
}

func baseClaims(aud any) jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss":   testIssuer,
		"sub":   "user-123",
		"aud":   aud,
		"exp":   now.Add(time.Hour).Unix(),
		"iat":   now.Unix(),
		"scope": "api:read api:write",
	}
}

func TestValidator_HappyPath(t *testing.T) {
	pk, kid, keys := genRSA(t)
	aud := "https://api.example.com"
	tok := signToken(t, pk, kid, "at+jwt", baseClaims(aud))

	p, err := New().Validate(context.Background(), tok, baseParams(keys, aud))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if p.UserID() != "user-123" {
		t.Fatalf("want sub user-123, got %s", p.UserID())
	}
	if !p.HasScope("api:write") {
		t.Fatalf("expected api:write in %v", p.Scopes)
	}

	var out struct {
		Scope string `json:"scope"`
	}
	if err := p.Claims(&out); err != nil {
		t.Fatalf("claims: %v", err)
	}
	if out.Scope != "api:read api:write" {
		t.Fatalf("scope roundtrip mismatch: %q", out.Scope)
	}
}

func TestValidator_NoKeys(t *testing.T) {
	pk, kid, _ := genRSA(t)
	tok := signToken(t, pk, kid, "", baseClaims("aud"))

	_, err := New().Validate(context.Background(), tok, baseParams(nil, "aud"))
	if !errors.Is(err, ErrNoSigningKeys) {
		t.Fatalf("want ErrNoSigningKeys, got %v", err)
	}
}

func TestValidator_WrongKey(t *testing.T) {
	pk, kid, _ := genRSA(t)
	_, _, otherKeys := genRSA(t)
	tok := signToken(t, pk, kid, "", baseClaims("aud"))

	_, err := New().Validate(context.Background(), tok, baseParams(otherKeys, "aud"))
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
}

func TestValidator_AudienceArray(t *testing.T) {
	pk, kid, keys := genRSA(t)
	aud := "https://api.example.com"
	tok := signToken(t, pk, kid, "", baseClaims([]string{"https://other", aud}))

	if _, err := New().Validate(context.Background(), tok, baseParams(keys, aud)); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidator_AdditionalAudiences(t *testing.T) {
	pk, kid, keys := genRSA(t)
	primary := "https://api.example.com"
	extra := "http://localhost:8080"
	params := baseParams(keys, primary)
	params.Audiences = []string{primary, extra}
	v := New()

	tok := signToken(t, pk, kid, "", baseClaims(extra))
	if _, err := v.Validate(context.Background(), tok, params); err != nil {
		t.Fatalf("validate (extra audience) failed: %v", err)
	}

	// Negative: unknown audience
	tok2 := signToken(t, pk, kid, "", baseClaims("https://unknown"))
	if _, err := v.Validate(context.Background(), tok2, params); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized for unknown audience, got %v", err)
	}
}

func TestValidator_Typ(t *testing.T) {
	pk, kid, keys := genRSA(t)
	aud := "aud"
	params := baseParams(keys, aud)
	params.ValidTypes = []string{"at+jwt", "application/at+jwt"}
	v := New()

	if _, err := v.Validate(context.Background(), signToken(t, pk, kid, "at+jwt", baseClaims(aud)), params); err != nil {
		t.Fatalf("validate: %v", err)
	}
	_, err := v.Validate(context.Background(), signToken(t, pk, kid, "JWT", baseClaims(aud)), params)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
}

func TestValidator_IssuerMismatch(t *testing.T) {
	pk, kid, keys := genRSA(t)
	claims := baseClaims("aud")
	claims["iss"] = "https://evil.example.com"
	tok := signToken(t, pk, kid, "", claims)

	_, err := New().Validate(context.Background(), tok, baseParams(keys, "aud"))
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
}

func TestValidator_Expired(t *testing.T) {
	pk, kid, keys := genRSA(t)
	claims := baseClaims("aud")
	claims["exp"] = time.Now().Add(-time.Hour).Unix()
	tok := signToken(t, pk, kid, "", claims)

	_, err := New().Validate(context.Background(), tok, baseParams(keys, "aud"))
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
}

func TestValidator_DisallowedAlg(t *testing.T) {
	pk, kid, keys := genRSA(t)
	tok := signToken(t, pk, kid, "", baseClaims("aud"))
	params := baseParams(keys, "aud")
	params.AllowedAlgs = []string{"ES256"}

	_, err := New().Validate(context.Background(), tok, params)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
}

func TestValidator_MissingSub(t *testing.T) {
	pk, kid, keys := genRSA(t)
	claims := baseClaims("aud")
	delete(claims, "sub")
	tok := signToken(t, pk, kid, "", claims)

	_, err := New().Validate(context.Background(), tok, baseParams(keys, "aud"))
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
}

func TestValidator_ReusesParsedKeySet(t *testing.T) {
	pk, kid, keys := genRSA(t)
	v := New()
	for i := 0; i < 3; i++ {
		tok := signToken(t, pk, kid, "", baseClaims("aud"))
		if _, err := v.Validate(context.Background(), tok, baseParams(keys, "aud")); err != nil {
			t.Fatalf("validate #%d: %v", i, err)
		}
	}
	if n := v.keyfuncs.Len(); n != 1 {
		t.Fatalf("want 1 cached key set, got %d", n)
	}
}

func TestValidator_ReusesEqualKeySets(t *testing.T) {
	pk, kid, keys := genRSA(t)
	v := New()
	for i := 0; i < 3; i++ {
		decoded := protocol.NewKeySet(keys.Keys...)
		tok := signToken(t, pk, kid, "", baseClaims("aud"))
		if _, err := v.Validate(context.Background(), tok, baseParams(decoded, "aud")); err != nil {
			t.Fatalf("validate #%d: %v", i, err)
		}
	}
	if n := v.keyfuncs.Len(); n != 1 {
		t.Fatalf("equal key sets should share one keyfunc, got %d", n)
	}
}

func TestValidator_IssuedInFuture(t *testing.T) {
	pk, kid, keys := genRSA(t)
	claims := baseClaims("aud")
	claims["iat"] = time.Now().Add(time.Hour).Unix()
	tok := signToken(t, pk, kid, "", claims)

	_, err := New().Validate(context.Background(), tok, baseParams(keys, "aud"))
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
}
