package xredis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gomod.pri/spellkit/collector"
	"gomod.pri/spellkit/xerror"
)

func TestResultCache_Key(t *testing.T) {
	assert.Equal(t, "spellkit:scan:42", NewResultCache(nil, "spellkit", time.Minute).key("42"))
	assert.Equal(t, "scan:42", NewResultCache(nil, "", time.Minute).key("42"))
}

func TestResultCache_PutWithoutScanID(t *testing.T) {
	c := NewResultCache(nil, "p", time.Minute)
	err := c.Put(context.Background(), &collector.Result{})
	assert.Equal(t, xerror.CodeInvalidParams, xerror.CodeOf(err))
	assert.Error(t, c.Put(context.Background(), nil))
}

func TestConfig_Enabled(t *testing.T) {
	assert.False(t, Config{}.Enabled())
	assert.True(t, Config{Addr: "127.0.0.1:6379"}.Enabled())
}

// Runs against a live server when SPELLKIT_REDIS_ADDR is set.
func TestResultCache_RoundTrip(t *testing.T) {
	addr := os.Getenv("SPELLKIT_REDIS_ADDR")
	if addr == "" {
		t.Skip("SPELLKIT_REDIS_ADDR not set")
	}

	rdb := NewClient(Config{Addr: addr})
	defer rdb.Close()

	ctx := context.Background()
	c := NewResultCache(rdb, "spellkit-test", time.Minute)
	in := &collector.Result{
		ScanID:        "1",
		LastWrongWord: "xqz",
		Suggestions:   []string{"the", "tea"},
		NoSuggestions: true,
	}
	require.NoError(t, c.Put(ctx, in))

	out, err := c.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, in.LastWrongWord, out.LastWrongWord)
	assert.Equal(t, in.Suggestions, out.Suggestions)
	assert.True(t, out.NoSuggestions)

	_, err = c.Get(ctx, "missing")
	assert.Equal(t, xerror.CodeDataNotExist, xerror.CodeOf(err))
}
