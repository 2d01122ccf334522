// Package spell runs scans through a collector and manages the custom
// dictionary on behalf of callers.
package spell

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/zeromicro/go-zero/core/logc"
	"go.opentelemetry.io/otel/attribute"

	"gomod.pri/spellkit/bus"
	"gomod.pri/spellkit/collector"
	"gomod.pri/spellkit/dictstore"
	"gomod.pri/spellkit/snowflake"
	"gomod.pri/spellkit/xerror"
	"gomod.pri/spellkit/xrequest"
	"gomod.pri/spellkit/xtrace"
)

type (
	// PathSource supplies the dictionary path at call time.
	PathSource interface {
		DictionaryPath() string
	}

	// StaticPath is a PathSource that never changes.
	StaticPath string

	Notifier interface {
		SendCard(ctx context.Context, title, content string, isAtAll bool) error
	}

	Mirror interface {
		Push(ctx context.Context, content string) error
		Pull(ctx context.Context) (string, error)
	}

	ResultCache interface {
		Put(ctx context.Context, r *collector.Result) error
	}
)

func (p StaticPath) DictionaryPath() string {
	return string(p)
}

// CacheResults returns a bus.TopicScanFinished handler that stores every
// finished scan in cache. Cache failures are logged and do not stop other
// subscribers.
func CacheResults(cache ResultCache) func(ctx context.Context, res *collector.Result) error {
	return func(ctx context.Context, res *collector.Result) error {
		if err := cache.Put(ctx, res); err != nil {
			logc.Errorf(ctx, "scan %s: cache result: %v", res.ScanID, err)
		}
		return nil
	}
}

type AddWordRequest struct {
	Word string `json:"word" label:"word" validate:"required,dictword"`
	// AsEntry terminates Word with "\r\n" when it is not already.
	AsEntry bool `json:"as_entry,omitempty"`
}

type Option func(*Service)

func WithStore(store *dictstore.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

func WithMirror(m Mirror) Option {
	return func(s *Service) {
		s.mirror = m
	}
}

func WithBus(b bus.Bus) Option {
	return func(s *Service) {
		s.bus = b
	}
}

// WithIDFunc replaces snowflake scan ids.
func WithIDFunc(fn func() string) Option {
	return func(s *Service) {
		s.newID = fn
	}
}

type Service struct {
	paths    PathSource
	store    *dictstore.Store
	notifier Notifier
	mirror   Mirror
	bus      bus.Bus
	newID    func() string
	// set after a missing-dictionary alert, cleared on the next good load
	alerted atomic.Bool
}

func New(paths PathSource, opts ...Option) *Service {
	s := &Service{
		paths: paths,
		store: dictstore.New(),
		bus:   bus.Default(),
		newID: snowflake.NewScanID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan runs engine over text with a fresh collector listening on the scan's
// own bus topic and returns the collected result.
func (s *Service) Scan(ctx context.Context, engine Engine, text string) (res *collector.Result, err error) {
	scanID := s.newID()
	ctx, span := xtrace.Start(ctx, "spell.Service.Scan", attribute.String("scan.id", scanID))
	defer func() { xtrace.End(span, err) }()

	c := collector.New(collector.WithResult(&collector.Result{ScanID: scanID}))
	topic := bus.MisspellingTopic(scanID)
	if err = s.bus.Subscribe(topic, c.Handle); err != nil {
		return nil, err
	}
	defer s.bus.UnsubscribeAll(topic)

	emit := func(ev collector.MisspellingEvent) {
		if perr := s.bus.Publish(topic, ev); perr != nil {
			logc.Errorf(ctx, "scan %s: publish %q: %v", scanID, ev.Word, perr)
		}
	}
	if err = engine.Check(ctx, text, emit); err != nil {
		return c.Result(), err
	}

	res = c.Result()
	if failed := res.Failed(); len(failed) > 0 {
		logc.Infof(ctx, "scan %s: %d suggestions skipped", scanID, len(failed))
	}
	span.SetAttributes(
		attribute.Int("scan.suggestions", len(res.Suggestions)),
		attribute.Bool("scan.no_suggestions", res.NoSuggestions),
	)

	if perr := s.bus.Publish(bus.TopicScanFinished, ctx, res); perr != nil {
		logc.Errorf(ctx, "scan %s: publish finished: %v", scanID, perr)
	}
	return res, nil
}

// AddWord appends req.Word to the dictionary at the current path and pushes
// the new content to the mirror.
func (s *Service) AddWord(ctx context.Context, req AddWordRequest) (err error) {
	if err = xrequest.Validate(req); err != nil {
		return err
	}

	word := req.Word
	if req.AsEntry && !strings.HasSuffix(word, dictstore.LineTerminator) {
		word = strings.TrimSuffix(word, "\n") + dictstore.LineTerminator
	}

	path := s.paths.DictionaryPath()
	ctx, span := xtrace.Start(ctx, "spell.Service.AddWord", attribute.String("dictionary.path", path))
	defer func() { xtrace.End(span, err) }()

	if err = s.store.AddWord(ctx, word, path); err != nil {
		s.alert(ctx, "Dictionary update failed", fmt.Sprintf("could not add %q to %q: %v", req.Word, path, err))
		return err
	}

	if s.mirror != nil {
		s.push(ctx, path)
	}
	return nil
}

func (s *Service) push(ctx context.Context, path string) {
	content, err := s.store.Load(ctx, path)
	if err != nil {
		logc.Errorf(ctx, "mirror: reload %s: %v", path, err)
		return
	}
	if err = s.mirror.Push(ctx, content); err != nil {
		logc.Errorf(ctx, "mirror: push %s: %v", path, err)
	}
}

// Dictionary returns the current dictionary content. When none is
// available the user is alerted once, until a later load succeeds.
func (s *Service) Dictionary(ctx context.Context) (string, error) {
	path := s.paths.DictionaryPath()
	content, err := s.store.Load(ctx, path)
	if err == nil {
		s.alerted.Store(false)
		return content, nil
	}

	if errors.Is(err, xerror.ErrDictionaryUnavailable) && s.alerted.CompareAndSwap(false, true) {
		s.alert(ctx, "Dictionary", fmt.Sprintf("no dictionary configured: %q could not be read", path))
	}
	return "", err
}

// Restore replaces the local dictionary with the mirrored copy.
func (s *Service) Restore(ctx context.Context) (err error) {
	if s.mirror == nil {
		return xerror.New(xerror.CodeInvalidParams, errors.New("no dictionary mirror configured"), true)
	}

	path := s.paths.DictionaryPath()
	ctx, span := xtrace.Start(ctx, "spell.Service.Restore", attribute.String("dictionary.path", path))
	defer func() { xtrace.End(span, err) }()

	content, err := s.mirror.Pull(ctx)
	if err != nil {
		return err
	}
	if err = s.store.Save(ctx, path, content); err != nil {
		s.alert(ctx, "Dictionary restore failed", fmt.Sprintf("could not write %q: %v", path, err))
		return err
	}
	return nil
}

// alert never logs at error level; the log hook forwards those to the same
// notifier.
func (s *Service) alert(ctx context.Context, title, content string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendCard(ctx, title, content, false); err != nil {
		logc.Infof(ctx, "alert %q not delivered: %v", title, err)
	}
}
