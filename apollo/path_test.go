package apollo

import (
	"testing"

	"github.com/apolloconfig/agollo/v4/storage"
	"github.com/stretchr/testify/assert"
	"github.com/zeromicro/go-zero/core/logx"
)

func TestMain(m *testing.M) {
	logx.Disable()
	m.Run()
}

func TestPathWatcher_Fallback(t *testing.T) {
	w := NewPathWatcher("/etc/custom.dic")
	assert.Equal(t, "/etc/custom.dic", w.DictionaryPath())

	w.Seed("/data/custom.dic")
	assert.Equal(t, "/data/custom.dic", w.DictionaryPath())
}

func TestPathWatcher_OnChange(t *testing.T) {
	w := NewPathWatcher("/etc/custom.dic")

	w.OnChange(&storage.ChangeEvent{Changes: map[string]*storage.ConfigChange{
		"other": {NewValue: "x", ChangeType: storage.ADDED},
	}})
	assert.Equal(t, "/etc/custom.dic", w.DictionaryPath())

	w.OnChange(&storage.ChangeEvent{Changes: map[string]*storage.ConfigChange{
		DictionaryPathKey: {NewValue: "/data/a.dic", ChangeType: storage.ADDED},
	}})
	assert.Equal(t, "/data/a.dic", w.DictionaryPath())

	w.OnChange(&storage.ChangeEvent{Changes: map[string]*storage.ConfigChange{
		DictionaryPathKey: {OldValue: "/data/a.dic", NewValue: "/data/b.dic", ChangeType: storage.MODIFIED},
	}})
	assert.Equal(t, "/data/b.dic", w.DictionaryPath())

	w.OnChange(&storage.ChangeEvent{Changes: map[string]*storage.ConfigChange{
		DictionaryPathKey: {OldValue: "/data/b.dic", ChangeType: storage.DELETED},
	}})
	assert.Equal(t, "/etc/custom.dic", w.DictionaryPath())
}

func TestPathWatcher_OnNewestChange(t *testing.T) {
	w := NewPathWatcher("")
	w.OnNewestChange(&storage.FullChangeEvent{Changes: map[string]interface{}{
		DictionaryPathKey: "/data/full.dic",
	}})
	assert.Equal(t, "/data/full.dic", w.DictionaryPath())

	w.OnNewestChange(&storage.FullChangeEvent{Changes: map[string]interface{}{}})
	assert.Equal(t, "", w.DictionaryPath())
}

func TestConfig_Enabled(t *testing.T) {
	assert.False(t, Config{AppID: "spellkit"}.Enabled())
	assert.True(t, Config{AppID: "spellkit", Addr: "http://apollo:8080"}.Enabled())
}
