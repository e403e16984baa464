package cache

import (
	"encoding/json"
	"errors"
	"reflect"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/basewatch/goapi/base/ctx"
	"github.com/basewatch/goapi/domain"
	"github.com/basewatch/goapi/domain/keys"
	"github.com/basewatch/goapi/service/cache/provider"
)

// notFoundSentinel marks a negatively cached key.
var notFoundSentinel = []byte{0x00}

type impl struct {
	ttl         time.Duration
	notFoundTtl time.Duration
	pfx         string
	cache       provider.Provider
	serialize   Serializer
	deserialize Deserializer
	group       singleflight.Group
}

func New(config ServiceConfig) Service {
	if config.Serialize == nil {
		config.Serialize = json.Marshal
	}
	if config.Deserialize == nil {
		config.Deserialize = json.Unmarshal
	}
	if config.NotFoundTtl == 0 {
		config.NotFoundTtl = config.Ttl
	}
	return &impl{
		ttl:         config.Ttl,
		notFoundTtl: config.NotFoundTtl,
		pfx:         config.Pfx,
		cache:       config.Cache,
		serialize:   config.Serialize,
		deserialize: config.Deserialize,
	}
}

func (im *impl) GetByFunc(c ctx.Ctx, key string, container interface{}, getter OneTimeGetter) error {
	err := im.Get(c, key, container)
	if err == nil {
		// hit cache, early return
		return nil
	}
	if err != ErrNotFound {
		// domain.ErrNotFound (negative hit) or a provider error
		return err
	}

	// no cache; concurrent callers for the same key coalesce onto one getter
	val, err, _ := im.group.Do(key, func() (interface{}, error) {
		val, err := getter()
		if errors.Is(err, domain.ErrNotFound) {
			if im.notFoundTtl > 0 {
				if serr := im.setRaw(c, key, notFoundSentinel, im.notFoundTtl); serr != nil {
					c.WithField("err", serr).WithField("key", key).Error("negative Set failed")
				}
			}
			return nil, domain.ErrNotFound
		}
		if err != nil {
			c.WithField("err", err).WithField("key", key).Error("GetByFunc getter failed")
			return nil, err
		}
		if serr := im.Set(c, key, val); serr != nil {
			c.WithField("err", serr).WithField("key", key).Error("Set failed")
		}
		return val, nil
	})
	if err != nil {
		return err
	}

	reflect.ValueOf(container).Elem().Set(reflect.ValueOf(val).Elem())
	return nil
}

func (im *impl) Get(c ctx.Ctx, key string, container interface{}) error {
	key = keys.CacheKey(im.pfx, key)

	val, _, err := im.cache.Get(c, key)
	if err == provider.ErrNotFound {
		return ErrNotFound
	} else if err != nil {
		c.WithField("err", err).WithField("key", key).Error("cache.Get failed")
		return err
	}

	if len(val) == len(notFoundSentinel) && val[0] == notFoundSentinel[0] {
		return domain.ErrNotFound
	}

	if err := im.deserialize(val, container); err != nil {
		c.WithField("err", err).WithField("key", key).Error("deserialize failed")
		return err
	}
	return nil
}

func (im *impl) Set(c ctx.Ctx, key string, value interface{}) error {
	val, err := im.serialize(value)
	if err != nil {
		c.WithField("err", err).WithField("key", key).Error("serialize failed")
		return err
	}
	return im.setRaw(c, key, val, im.ttl)
}

func (im *impl) setRaw(c ctx.Ctx, key string, val []byte, ttl time.Duration) error {
	key = keys.CacheKey(im.pfx, key)
	if err := im.cache.Set(c, key, val, ttl); err != nil {
		c.WithField("err", err).WithField("key", key).Error("cache.Set failed")
		return err
	}
	return nil
}

func (im *impl) Del(c ctx.Ctx, key string) error {
	key = keys.CacheKey(im.pfx, key)
	if err := im.cache.Del(c, key); err != nil {
		c.WithField("err", err).WithField("key", key).Error("cache.Del failed")
		return err
	}
	return nil
}
