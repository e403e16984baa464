package cache

import (
	"errors"
	"time"

	"github.com/basewatch/goapi/base/ctx"
	"github.com/basewatch/goapi/service/cache/provider"
)

var (
	ErrNotFound = errors.New("Cache not found")
)

type OneTimeGetter func() (interface{}, error)

type Serializer func(interface{}) ([]byte, error)

type Deserializer func([]byte, interface{}) error

// Service is a high order cache with memoization, negative caching, and
// in-flight coalescing of concurrent lookups for the same key.
type Service interface {
	// GetByFunc returns the cached value for key, or runs getter exactly
	// once across concurrent callers and caches its result. A getter
	// returning domain.ErrNotFound is cached with the shorter NotFoundTtl
	// so freshly indexed entities are found on the next attempt.
	GetByFunc(c ctx.Ctx, key string, container interface{}, getter OneTimeGetter) error
	Get(c ctx.Ctx, key string, container interface{}) error
	Set(c ctx.Ctx, key string, value interface{}) error
	Del(c ctx.Ctx, key string) error
}

type ServiceConfig struct {
	Ttl time.Duration
	// NotFoundTtl bounds negative-result caching; defaults to Ttl when zero.
	// A negative value disables negative caching so callers with their own
	// retry schedule see every miss.
	NotFoundTtl time.Duration
	Pfx         string
	Cache       provider.Provider
	Serialize   Serializer
	Deserialize Deserializer
}
