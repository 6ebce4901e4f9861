package validation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/joeshaw/envdecode"
	goredis "github.com/redis/go-redis/v9"

	"github.com/ggoodman/oidc-validation-go/storage/memory"
	"github.com/ggoodman/oidc-validation-go/storage/redis"
	"github.com/ggoodman/oidc-validation-go/transport/httptransport"
)

// Config is the environment driven configuration of a Service. Lists are
// separated by semicolons.
type Config struct {
	// Issuer of accepted tokens. ENV: VALIDATION_ISSUER
	Issuer string `env:"VALIDATION_ISSUER"`
	// MetadataAddress overrides discovery. ENV: VALIDATION_METADATA_ADDRESS
	MetadataAddress string `env:"VALIDATION_METADATA_ADDRESS"`
	// Audiences accepted in "aud". ENV: VALIDATION_AUDIENCES
	Audiences []string `env:"VALIDATION_AUDIENCES"`

	ClientID         string `env:"VALIDATION_CLIENT_ID"`
	ClientSecret     string `env:"VALIDATION_CLIENT_SECRET"`
	IntrospectionURL string `env:"VALIDATION_INTROSPECTION_URL"`

	AllowedAlgs    []string      `env:"VALIDATION_ALLOWED_ALGS,default=RS256"`
	Leeway         time.Duration `env:"VALIDATION_LEEWAY,default=60s"`
	RequiredScopes []string      `env:"VALIDATION_REQUIRED_SCOPES"`
	TypedTokens    bool          `env:"VALIDATION_TYPED_TOKENS,default=false"`

	HTTPTimeout       time.Duration `env:"VALIDATION_HTTP_TIMEOUT,default=10s"`
	AllowInsecureHTTP bool          `env:"VALIDATION_ALLOW_INSECURE_HTTP,default=false"`

	// CacheTTL bounds how long discovery documents are reused. Zero disables
	// the cache. ENV: VALIDATION_CACHE_TTL
	CacheTTL  time.Duration `env:"VALIDATION_CACHE_TTL,default=1h"`
	CacheSize int           `env:"VALIDATION_CACHE_SIZE,default=256"`
	// RedisAddr like "localhost:6379" selects the Redis cache instead of the
	// in-memory one. ENV: VALIDATION_REDIS_ADDR
	RedisAddr      string `env:"VALIDATION_REDIS_ADDR"`
	RedisKeyPrefix string `env:"VALIDATION_REDIS_KEY_PREFIX,default=oidc:cache:"`
}

// LoadConfigFromEnv decodes a Config from the environment. Defaults are
// provided via struct tags.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("validation: decode environment: %w", err)
	}
	return cfg, nil
}

// Options converts cfg into service options, excluding the cache.
func (cfg Config) Options() []Option {
	opts := []Option{
		WithIssuer(cfg.Issuer),
		WithMetadataAddress(cfg.MetadataAddress),
		WithAudiences(cfg.Audiences...),
		WithClientCredentials(cfg.ClientID, cfg.ClientSecret),
		WithIntrospectionFallback(cfg.IntrospectionURL),
		WithLeeway(cfg.Leeway),
		WithTransport(httptransport.New(
			httptransport.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		)),
	}
	if len(cfg.AllowedAlgs) > 0 {
		opts = append(opts, WithAllowedAlgs(cfg.AllowedAlgs...))
	}
	if len(cfg.RequiredScopes) > 0 {
		opts = append(opts, WithRequiredScopes(cfg.RequiredScopes...))
	}
	if cfg.TypedTokens {
		opts = append(opts, WithTypedTokens())
	}
	if cfg.AllowInsecureHTTP {
		opts = append(opts, WithInsecureHTTP())
	}
	return opts
}

// NewServiceFromConfig builds a Service from cfg, creating the document cache
// it describes. Extra options are applied last. Close the Service to release
// the cache.
func NewServiceFromConfig(ctx context.Context, cfg Config, extra ...Option) (*Service, error) {
	sc := &serviceConfig{}
	for _, opt := range cfg.Options() {
		opt(sc)
	}

	if cfg.CacheTTL > 0 {
		switch {
		case cfg.RedisAddr != "":
			cl := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
			if err := cl.Ping(ctx).Err(); err != nil {
				_ = cl.Close()
				return nil, fmt.Errorf("validation: redis ping failed: %w", err)
			}
			st, err := redis.New(redis.Config{Client: cl, KeyPrefix: cfg.RedisKeyPrefix})
			if err != nil {
				_ = cl.Close()
				return nil, err
			}
			WithCache(st, cfg.CacheTTL)(sc)
			sc.closers = append(sc.closers, st.Close)
		case cfg.CacheSize > 0:
			st, err := memory.New(cfg.CacheSize)
			if err != nil {
				return nil, err
			}
			WithCache(st, cfg.CacheTTL)(sc)
			sc.closers = append(sc.closers, st.Close)
		}
	}

	for _, opt := range extra {
		opt(sc)
	}
	s, err := newService(sc)
	if err != nil {
		for _, c := range sc.closers {
			_ = c()
		}
		return nil, err
	}
	return s, nil
}

// NewServiceFromEnv is LoadConfigFromEnv followed by NewServiceFromConfig.
func NewServiceFromEnv(ctx context.Context, extra ...Option) (*Service, error) {
	cfg, err := LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return NewServiceFromConfig(ctx, cfg, extra...)
}
