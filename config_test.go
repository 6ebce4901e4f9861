package validation

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/ggoodman/oidc-validation-go/storage/memory"
	"github.com/ggoodman/oidc-validation-go/storage/redis"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("VALIDATION_ISSUER", "https://issuer.example")
	t.Setenv("VALIDATION_AUDIENCES", "api;admin")
	t.Setenv("VALIDATION_REQUIRED_SCOPES", "read")
	t.Setenv("VALIDATION_LEEWAY", "30s")
	t.Setenv("VALIDATION_TYPED_TOKENS", "true")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Issuer != "https://issuer.example" || cfg.Leeway != 30*time.Second || !cfg.TypedTokens {
		t.Fatalf("config: %+v", cfg)
	}
	if len(cfg.Audiences) != 2 || cfg.Audiences[1] != "admin" {
		t.Fatalf("audiences: %v", cfg.Audiences)
	}
	if len(cfg.AllowedAlgs) != 1 || cfg.AllowedAlgs[0] != "RS256" {
		t.Fatalf("default algs: %v", cfg.AllowedAlgs)
	}
	if cfg.CacheTTL != time.Hour || cfg.CacheSize != 256 || cfg.HTTPTimeout != 10*time.Second {
		t.Fatalf("defaults: ttl=%v size=%d timeout=%v", cfg.CacheTTL, cfg.CacheSize, cfg.HTTPTimeout)
	}
	if cfg.RedisKeyPrefix != "oidc:cache:" {
		t.Fatalf("redis prefix: %q", cfg.RedisKeyPrefix)
	}
}

func TestConfig_Options(t *testing.T) {
	cfg := Config{
		Issuer:         "https://issuer.example",
		Audiences:      []string{"api"},
		ClientID:       "rs",
		ClientSecret:   "secret",
		AllowedAlgs:    []string{"RS256", "ES256"},
		Leeway:         5 * time.Second,
		RequiredScopes: []string{"read"},
		TypedTokens:    true,
		HTTPTimeout:    time.Second,
	}
	s, err := NewServiceFromConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer s.Close()

	o := s.opts
	if o.Issuer != cfg.Issuer || o.ClientID != "rs" || o.Leeway != 5*time.Second || !o.RequireTypedTokens {
		t.Fatalf("options: %+v", o)
	}
	if len(o.AllowedAlgs) != 2 || len(o.RequiredScopes) != 1 || o.ScopeModeAny {
		t.Fatalf("algs=%v scopes=%v", o.AllowedAlgs, o.RequiredScopes)
	}
	if _, ok := o.Cache.(*memory.Storage); !ok {
		t.Fatalf("cache: %T", o.Cache)
	}
}

func TestNewServiceFromConfig_NoCache(t *testing.T) {
	s, err := NewServiceFromConfig(context.Background(), Config{CacheTTL: 0})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer s.Close()
	if s.opts.Cache != nil {
		t.Fatalf("cache should be disabled, got %T", s.opts.Cache)
	}
}

func TestNewServiceFromConfig_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	p := newTestIDP(t)

	cfg := Config{
		Issuer:         p.issuer(),
		Audiences:      []string{"api"},
		CacheTTL:       time.Minute,
		RedisAddr:      mr.Addr(),
		RedisKeyPrefix: "test:",
	}
	s, err := NewServiceFromConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer s.Close()

	if _, ok := s.opts.Cache.(*redis.Storage); !ok {
		t.Fatalf("cache: %T", s.opts.Cache)
	}

	tok := p.sign(t, nil)
	for i := 0; i < 3; i++ {
		if _, err := s.ValidateAccessToken(context.Background(), tok); err != nil {
			t.Fatalf("validate %d: %v", i, err)
		}
	}
	if p.discoveryHits.Load() != 1 || p.jwksHits.Load() != 1 {
		t.Fatalf("hits: discovery=%d jwks=%d", p.discoveryHits.Load(), p.jwksHits.Load())
	}

	keys := mr.Keys()
	sort.Strings(keys)
	want := []string{
		"test:ns:configuration:" + p.issuer() + "/.well-known/openid-configuration",
		"test:ns:jwks:" + p.issuer() + "/keys",
	}
	if len(keys) != 2 || keys[0] != want[0] || keys[1] != want[1] {
		t.Fatalf("redis keys: %v", keys)
	}
	if ttl := mr.TTL(keys[0]); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("ttl: %v", ttl)
	}
}

func TestNewServiceFromConfig_RedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewServiceFromConfig(context.Background(), Config{CacheTTL: time.Minute, RedisAddr: addr})
	if err == nil {
		t.Fatal("expected an error when redis is unreachable")
	}
}

func TestNewServiceFromConfig_InvalidIssuer(t *testing.T) {
	if _, err := NewServiceFromConfig(context.Background(), Config{Issuer: "issuer.example", CacheTTL: time.Minute, CacheSize: 8}); err == nil {
		t.Fatal("expected an error for a relative issuer")
	}
}
