package xredis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gomod.pri/spellkit/collector"
	"gomod.pri/spellkit/xerror"
)

// ResultCache stores scan results as JSON under "<prefix>:scan:<id>".
type ResultCache struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewResultCache(rdb redis.UniversalClient, prefix string, ttl time.Duration) *ResultCache {
	return &ResultCache{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (c *ResultCache) key(scanID string) string {
	if c.prefix == "" {
		return "scan:" + scanID
	}
	return c.prefix + ":scan:" + scanID
}

func (c *ResultCache) Put(ctx context.Context, r *collector.Result) error {
	if r == nil || r.ScanID == "" {
		return xerror.New(xerror.CodeInvalidParams, errors.New("result has no scan id"))
	}

	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key(r.ScanID), data, c.ttl).Err()
}

// Get returns a CodeDataNotExist error when the scan is unknown or expired.
func (c *ResultCache) Get(ctx context.Context, scanID string) (*collector.Result, error) {
	data, err := c.rdb.Get(ctx, c.key(scanID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, xerror.New(xerror.CodeDataNotExist, fmt.Errorf("scan %s not cached", scanID))
	}
	if err != nil {
		return nil, err
	}

	var r collector.Result
	if err = json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
