// Package cacheinfra adapts sturdyc to the cache.CacheService contract.
package cacheinfra

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/viccon/sturdyc"

	"github.com/buzzbrief/buzzbrief/apperr"
)

// Config holds the sturdyc client settings the article cache uses.
type Config struct {
	// Capacity is the maximum number of cached entries. Must be > 0.
	Capacity int

	// NumShards controls concurrent-access sharding. Must be > 0.
	NumShards int

	// TTL is the default time-to-live for entries. Must be > 0.
	TTL time.Duration

	// EvictionPercentage is the share of entries evicted when the cache is
	// full, 1-100.
	EvictionPercentage int

	// MissingRecordStorage remembers keys that yielded no result, so
	// repeated lookups of a nonexistent article do not all hit the store.
	MissingRecordStorage bool

	// EvictionInterval overrides how often expired entries are collected.
	// Zero keeps the sturdyc default.
	EvictionInterval time.Duration
}

// DefaultConfig returns settings sized for a single-process article feed.
func DefaultConfig() Config {
	return Config{
		Capacity:             10000,
		NumShards:            64,
		TTL:                  time.Minute,
		EvictionPercentage:   10,
		MissingRecordStorage: true,
	}
}

// ConfigError reports an invalid configuration field.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}
	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}
	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}
	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}
	return nil
}

func (c Config) options() []sturdyc.Option {
	var opts []sturdyc.Option
	if c.MissingRecordStorage {
		opts = append(opts, sturdyc.WithMissingRecordStorage())
	}
	if c.EvictionInterval > 0 {
		opts = append(opts, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}
	return opts
}

// sturdycService wraps a sturdyc client behind cache.CacheService.
type sturdycService struct {
	client *sturdyc.Client[any]
}

// NewSturdycService validates the configuration and builds the adapter.
func NewSturdycService(cfg Config) (*sturdycService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client := sturdyc.New[any](cfg.Capacity, cfg.NumShards, cfg.TTL, cfg.EvictionPercentage, cfg.options()...)
	return &sturdycService{client: client}, nil
}

// GetOrFetch returns the cached value for key, running fetchFn on a miss.
// fetchFn must have signature func(context.Context) (T, error); the typed
// result is erased to any for sturdyc and restored by cache.GetOrFetch.
//
// Not-found results are translated to sturdyc's missing-record sentinel on
// the way in and back to apperr.ErrNotFound on the way out, so with
// MissingRecordStorage enabled a nonexistent key is remembered and repeated
// lookups do not all reach the store.
func (s *sturdycService) GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error) {
	if err := validateFetchFn(fetchFn); err != nil {
		return nil, err
	}
	result, err := s.client.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		result, err := callFetchFn(ctx, fetchFn)
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, sturdyc.ErrNotFound
		}
		return result, err
	})
	if errors.Is(err, sturdyc.ErrNotFound) || errors.Is(err, sturdyc.ErrMissingRecord) {
		return nil, fmt.Errorf("%w: %s", apperr.ErrNotFound, key)
	}
	return result, err
}

// Delete removes one entry so the next read fetches fresh data.
func (s *sturdycService) Delete(ctx context.Context, key string) error {
	s.client.Delete(key)
	return nil
}

// DeleteByPrefix removes every entry whose key starts with prefix.
func (s *sturdycService) DeleteByPrefix(ctx context.Context, prefix string) error {
	for _, key := range s.client.ScanKeys() {
		if strings.HasPrefix(key, prefix) {
			s.client.Delete(key)
		}
	}
	return nil
}

func validateFetchFn(fetchFn any) error {
	if fetchFn == nil {
		return &ConfigError{Field: "fetchFn", Message: "cannot be nil"}
	}
	t := reflect.TypeOf(fetchFn)
	if t.Kind() != reflect.Func || t.NumIn() != 1 || t.NumOut() != 2 {
		return &ConfigError{Field: "fetchFn", Message: "must have signature func(context.Context) (T, error)"}
	}
	ctxType := reflect.TypeOf((*context.Context)(nil)).Elem()
	errType := reflect.TypeOf((*error)(nil)).Elem()
	if !t.In(0).Implements(ctxType) {
		return &ConfigError{Field: "fetchFn", Message: "first parameter must be context.Context"}
	}
	if !t.Out(1).Implements(errType) {
		return &ConfigError{Field: "fetchFn", Message: "second return value must be error"}
	}
	return nil
}

// callFetchFn invokes a pre-validated func(context.Context) (T, error) and
// erases its result type.
func callFetchFn(ctx context.Context, fetchFn any) (any, error) {
	if fn, ok := fetchFn.(func(context.Context) (any, error)); ok {
		return fn(ctx)
	}

	results := reflect.ValueOf(fetchFn).Call([]reflect.Value{reflect.ValueOf(ctx)})

	var result any
	if v := results[0]; v.IsValid() && v.CanInterface() {
		result = v.Interface()
	}
	var err error
	if v := results[1]; v.IsValid() && !v.IsNil() {
		err = v.Interface().(error)
	}
	return result, err
}
