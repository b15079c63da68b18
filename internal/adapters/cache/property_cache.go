package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"listing-service/internal/contextkeys"
	"listing-service/internal/core/domain"
	"listing-service/internal/core/port"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/google/uuid"
	"github.com/karlseguin/ccache/v3"
)

const keyPrefix = "property:"

// cachedProperty - представление записи в memcached. Ключи изображений
// сохраняются, так как из кэша запись может попасть в сценарий обновления.
type cachedProperty struct {
	domain.Property
	ImageKeys []string `json:"image_keys"`
}

// PropertyCache - двухуровневый кэш: локальный ccache и необязательный memcached.
type PropertyCache struct {
	local    *ccache.Cache[*domain.Property]
	remote   *memcache.Client
	localTTL time.Duration
	ttl      time.Duration
}

type Config struct {
	MaxSize       int64
	LocalTTL      time.Duration
	TTL           time.Duration
	MemcacheHosts []string // пусто - только локальный кэш
}

func NewPropertyCache(cfg Config) *PropertyCache {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 1000
	}
	if cfg.LocalTTL <= 0 {
		cfg.LocalTTL = 30 * time.Second
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}

	c := &PropertyCache{
		local:    ccache.New(ccache.Configure[*domain.Property]().MaxSize(cfg.MaxSize)),
		localTTL: cfg.LocalTTL,
		ttl:      cfg.TTL,
	}
	if len(cfg.MemcacheHosts) > 0 {
		c.remote = memcache.New(cfg.MemcacheHosts...)
	}
	return c
}

func (c *PropertyCache) Get(ctx context.Context, id uuid.UUID) (*domain.Property, bool) {
	key := keyPrefix + id.String()
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{"component": "PropertyCache", "key": key})

	if item := c.local.Get(key); item != nil && !item.Expired() {
		out := item.Value().Clone()
		return &out, true
	}

	if c.remote == nil {
		return nil, false
	}
	item, err := c.remote.Get(key)
	if err != nil {
		if !errors.Is(err, memcache.ErrCacheMiss) {
			logger.Warn("Memcached get failed", port.Fields{"error": err.Error()})
		}
		return nil, false
	}

	var cached cachedProperty
	if err := json.Unmarshal(item.Value, &cached); err != nil {
		logger.Warn("Failed to decode cached property", port.Fields{"error": err.Error()})
		return nil, false
	}
	p := cached.restore()
	c.local.Set(key, &p, c.localTTL)

	out := p.Clone()
	return &out, true
}

func (c *PropertyCache) Set(ctx context.Context, property *domain.Property) {
	if property == nil {
		return
	}
	key := keyPrefix + property.ID.String()
	stored := property.Clone()
	c.local.Set(key, &stored, c.localTTL)

	if c.remote == nil {
		return
	}
	body, err := json.Marshal(newCachedProperty(stored))
	if err != nil {
		return
	}
	if err := c.remote.Set(&memcache.Item{Key: key, Value: body, Expiration: int32(c.ttl.Seconds())}); err != nil {
		contextkeys.LoggerFromContext(ctx).Warn("Memcached set failed", port.Fields{
			"component": "PropertyCache",
			"key":       key,
			"error":     err.Error(),
		})
	}
}

func (c *PropertyCache) Invalidate(ctx context.Context, id uuid.UUID) {
	key := keyPrefix + id.String()
	c.local.Delete(key)
	if c.remote == nil {
		return
	}
	if err := c.remote.Delete(key); err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		contextkeys.LoggerFromContext(ctx).Warn("Memcached delete failed", port.Fields{
			"component": "PropertyCache",
			"key":       key,
			"error":     err.Error(),
		})
	}
}

// Close останавливает фоновые горутины ccache.
func (c *PropertyCache) Close() {
	c.local.Stop()
}

func newCachedProperty(p domain.Property) cachedProperty {
	keys := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		keys = append(keys, img.Key)
	}
	return cachedProperty{Property: p, ImageKeys: keys}
}

func (c cachedProperty) restore() domain.Property {
	p := c.Property
	for i := range p.Images {
		if i < len(c.ImageKeys) {
			p.Images[i].Key = c.ImageKeys[i]
		}
	}
	return p
}
