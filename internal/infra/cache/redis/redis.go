package redisx

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/EgorLis/my-records/internal/domain"
	"github.com/redis/go-redis/v9"
)

var _ domain.Cache = (*Cache)(nil)

// Cache: domain.Cache поверх Redis. Все ключи получают общий префикс,
// чтобы несколько инсталляций могли делить один Redis.
type Cache struct {
	rdb    redis.UniversalClient
	prefix string
	logger *log.Logger
}

type Config struct {
	Addr        string
	DB          int
	Password    string
	Prefix      string        // по умолчанию "records:"
	DialTimeout time.Duration // по умолчанию 2s
}

func New(cfg Config, logger *log.Logger) *Cache {
	if cfg.Prefix == "" {
		cfg.Prefix = "records:"
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 2 * time.Second
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		DB:          cfg.DB,
		Password:    cfg.Password,
		DialTimeout: cfg.DialTimeout,
	})
	return newWithClient(rdb, cfg.Prefix, logger)
}

func newWithClient(rdb redis.UniversalClient, prefix string, logger *log.Logger) *Cache {
	return &Cache{rdb: rdb, prefix: prefix, logger: logger}
}

func (c *Cache) Ping(ctx context.Context) error {
	err := c.rdb.Ping(ctx).Err()
	if err != nil {
		c.logger.Printf("PING failed: %v", err)
	} else {
		c.logger.Println("PING ok")
	}
	return err
}

func (c *Cache) Close() {
	if c.rdb == nil {
		c.logger.Println("nothing to close")
		return
	}

	if err := c.rdb.Close(); err != nil {
		c.logger.Printf("error while closing: %v", err)
		return
	}

	c.logger.Println("closed")
}

// Get: промах: (nil, nil)
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.logger.Printf("GET %q: miss", key)
		return nil, nil
	}
	if err != nil {
		c.logger.Printf("GET %q: error: %v", key, err)
		return nil, err
	}
	c.logger.Printf("GET %q: hit (%d bytes)", key, len(b))
	return b, nil
}

func (c *Cache) Set(ctx context.Context, key string, val []byte, ttlSeconds int) error {
	var ttl time.Duration
	if ttlSeconds > 0 {
		ttl = time.Duration(ttlSeconds) * time.Second
	}
	err := c.rdb.Set(ctx, c.prefix+key, val, ttl).Err()
	if err != nil {
		c.logger.Printf("SET %q failed: %v", key, err)
	} else {
		c.logger.Printf("SET %q ok (ttl=%s)", key, ttl)
	}
	return err
}

func (c *Cache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	n, err := c.rdb.Del(ctx, full...).Result()
	if err != nil {
		c.logger.Printf("DEL %v failed: %v", keys, err)
	} else {
		c.logger.Printf("DEL %v: deleted=%d", keys, n)
	}
	return err
}
