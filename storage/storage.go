// Package storage defines the cache used to keep discovery documents
// (configuration metadata and key sets) between operations.
package storage

import (
	"context"
	"time"
)

// Storage is a namespaced key/value store with optional expiry.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Get retrieves the item stored under key in the selected namespace.
	// It returns a nil item, not an error, when the key is absent or expired.
	Get(ctx context.Context, key string, opts ...Option) (*StorageItem, error)

	// Set stores data under key in the selected namespace.
	Set(ctx context.Context, key string, data []byte, opts ...Option) error

	// Delete removes the key given with WithKey, or the whole namespace when
	// no key is given.
	Delete(ctx context.Context, opts ...Option) error

	// Close releases the backend.
	Close() error
}

// StorageItem represents a stored piece of data with metadata
type StorageItem struct {
	Data      []byte     // The stored data
	CreatedAt time.Time  // When the item was created
	ExpiresAt *time.Time // When the item expires (nil = no expiration)
}

// IsExpired checks if the item has expired
func (si *StorageItem) IsExpired() bool {
	return si.ExpiresAt != nil && time.Now().After(*si.ExpiresAt)
}

// Option configures storage operations
type Option func(*Options)

// Options contains configuration for storage operations
type Options struct {
	Namespace string         // "" selects the global namespace
	Key       *string        // Optional: specific key (for Delete operations)
	TTL       *time.Duration // Optional: time-to-live for the data
}

// Apply folds opts into an Options value.
func Apply(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithNamespace selects a namespace such as "configuration" or "jwks".
func WithNamespace(ns string) Option {
	return func(opts *Options) {
		opts.Namespace = ns
	}
}

// WithKey specifies a specific key for Delete operations
// If not provided, Delete removes the entire namespace
func WithKey(key string) Option {
	return func(opts *Options) {
		opts.Key = &key
	}
}

// WithTTL sets a time-to-live for the stored data. Non-positive values mean
// no expiry.
func WithTTL(ttl time.Duration) Option {
	return func(opts *Options) {
		if ttl <= 0 {
			opts.TTL = nil
			return
		}
		opts.TTL = &ttl
	}
}

