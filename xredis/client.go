// Package xredis caches scan results in redis.
package xredis

import (
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string        `json:",optional"`
	Password string        `json:",optional"`
	DB       int           `json:",optional"`
	Prefix   string        `json:",default=spellkit"`
	TTL      time.Duration `json:",default=24h"`
}

func (c Config) Enabled() bool {
	return c.Addr != ""
}

// NewClient returns a traced client for cfg.
func NewClient(cfg Config) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	rdb.AddHook(TracingHook{})
	return rdb
}
