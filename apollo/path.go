package apollo

import (
	"sync/atomic"

	"github.com/apolloconfig/agollo/v4/storage"
	"github.com/spf13/cast"
	"github.com/zeromicro/go-zero/core/logx"
)

const DictionaryPathKey = "dictionary.path"

// PathWatcher tracks the dictionary path, preferring the apollo value over
// the static fallback.
type PathWatcher struct {
	fallback string
	current  atomic.Value
}

func NewPathWatcher(fallback string) *PathWatcher {
	w := &PathWatcher{fallback: fallback}
	w.current.Store("")
	return w
}

// Seed stores the value read at startup.
func (w *PathWatcher) Seed(value string) {
	w.current.Store(value)
}

func (w *PathWatcher) DictionaryPath() string {
	if v := w.current.Load().(string); v != "" {
		return v
	}
	return w.fallback
}

func (w *PathWatcher) OnChange(event *storage.ChangeEvent) {
	change, ok := event.Changes[DictionaryPathKey]
	if !ok {
		return
	}

	var value string
	if change.ChangeType != storage.DELETED {
		value = cast.ToString(change.NewValue)
	}
	w.current.Store(value)
	logx.Infof("dictionary path changed to %q", w.DictionaryPath())
}

func (w *PathWatcher) OnNewestChange(event *storage.FullChangeEvent) {
	w.current.Store(cast.ToString(event.Changes[DictionaryPathKey]))
}
