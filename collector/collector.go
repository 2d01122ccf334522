package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/zeromicro/go-zero/core/logx"

	"gomod.pri/spellkit/xerror"
)

// Appender appends a single suggestion to r.
type Appender func(r *Result, suggestion string) error

var errMalformed = errors.New("malformed suggestion")

// AppendSuggestion is the default Appender. It rejects suggestions that are
// not valid UTF-8 or that contain NUL bytes.
func AppendSuggestion(r *Result, suggestion string) error {
	if !utf8.ValidString(suggestion) {
		return fmt.Errorf("%w: invalid utf-8 %q", errMalformed, suggestion)
	}
	if strings.IndexByte(suggestion, 0) >= 0 {
		return fmt.Errorf("%w: contains NUL %q", errMalformed, suggestion)
	}
	r.Suggestions = append(r.Suggestions, suggestion)
	return nil
}

// Apply folds one event into r. Each suggestion is appended on its own; a
// failing append is recorded as a failed Outcome and skipped.
func Apply(r *Result, ev MisspellingEvent, appendFn Appender) {
	r.LastWrongWord = ev.Word

	if len(ev.Suggestions) == 0 {
		r.NoSuggestions = true
		return
	}

	for _, s := range ev.Suggestions {
		o := Outcome{Word: ev.Word, Suggestion: s}
		if err := safeAppend(appendFn, r, s); err != nil {
			o.Err = xerror.Raise(xerror.CodeSuggestionProcessing, err, ev.Word, s)
		}
		r.Outcomes = append(r.Outcomes, o)
	}
	r.NoSuggestions = false
}

func safeAppend(appendFn Appender, r *Result, s string) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("append panicked: %v", p)
		}
	}()
	return appendFn(r, s)
}

type Option func(*Collector)

// WithAppender replaces AppendSuggestion.
func WithAppender(fn Appender) Option {
	return func(c *Collector) {
		c.appendFn = fn
	}
}

// WithResult makes the collector write into a caller-owned result.
func WithResult(r *Result) Option {
	return func(c *Collector) {
		c.result = r
	}
}

// Collector turns a stream of misspelling events into a Result.
// It is not safe for concurrent use; use one Collector per scan.
type Collector struct {
	result   *Result
	appendFn Appender
}

func New(opts ...Option) *Collector {
	c := &Collector{appendFn: AppendSuggestion}
	for _, opt := range opts {
		opt(c)
	}
	if c.result == nil {
		c.result = &Result{}
	}
	return c
}

func (c *Collector) OnMisspelling(word string, suggestions []string) {
	Apply(c.result, MisspellingEvent{Word: word, Suggestions: suggestions}, c.appendFn)
}

// Handle is the event bus handler.
func (c *Collector) Handle(ev MisspellingEvent) error {
	c.OnMisspelling(ev.Word, ev.Suggestions)
	return nil
}

// Emit returns an Emitter feeding this collector.
func (c *Collector) Emit() Emitter {
	return func(ev MisspellingEvent) {
		c.OnMisspelling(ev.Word, ev.Suggestions)
	}
}

// Consume drains events until the channel is closed or ctx is done.
func (c *Collector) Consume(ctx context.Context, events <-chan MisspellingEvent) error {
	for {
		select {
		case <-ctx.Done():
			logx.WithContext(ctx).Infof("collector: stop consuming, last word %q", c.result.LastWrongWord)
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			c.OnMisspelling(ev.Word, ev.Suggestions)
		}
	}
}

func (c *Collector) Result() *Result {
	return c.result
}

func (c *Collector) Reset() {
	c.result.Reset()
}
