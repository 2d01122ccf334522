package spell

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/samber/lo"

	"gomod.pri/spellkit/collector"
)

// Engine scans text and emits one event per misspelled word.
type Engine interface {
	Check(ctx context.Context, text string, emit collector.Emitter) error
}

type EngineFunc func(ctx context.Context, text string, emit collector.Emitter) error

func (f EngineFunc) Check(ctx context.Context, text string, emit collector.Emitter) error {
	return f(ctx, text, emit)
}

const defaultMaxSuggestions = 8

// WordListEngine treats every word outside its list as misspelled and
// suggests known words one edit away.
type WordListEngine struct {
	words          map[string]struct{}
	sorted         []string
	maxSuggestions int
}

func NewWordListEngine(words ...string) *WordListEngine {
	e := &WordListEngine{
		words:          make(map[string]struct{}),
		maxSuggestions: defaultMaxSuggestions,
	}
	e.Add(words...)
	return e
}

// WithMaxSuggestions caps the suggestions per word; n <= 0 removes the cap.
func (e *WordListEngine) WithMaxSuggestions(n int) *WordListEngine {
	e.maxSuggestions = n
	return e
}

func (e *WordListEngine) Add(words ...string) {
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		e.words[w] = struct{}{}
	}
	e.sorted = lo.Keys(e.words)
	sort.Strings(e.sorted)
}

// AddDictionary adds every line of a dictionary file's content.
func (e *WordListEngine) AddDictionary(content string) {
	e.Add(strings.FieldsFunc(content, func(r rune) bool {
		return r == '\r' || r == '\n'
	})...)
}

func (e *WordListEngine) Known(word string) bool {
	_, ok := e.words[strings.ToLower(word)]
	return ok
}

func (e *WordListEngine) Check(ctx context.Context, text string, emit collector.Emitter) error {
	for _, token := range tokenize(text) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.Known(token) {
			continue
		}
		emit(collector.MisspellingEvent{Word: token, Suggestions: e.Suggest(token)})
	}
	return nil
}

// Suggest returns known words within one insertion, deletion, substitution
// or adjacent transposition of word, in lexical order.
func (e *WordListEngine) Suggest(word string) []string {
	w := []rune(strings.ToLower(word))
	suggestions := make([]string, 0)
	for _, candidate := range e.sorted {
		if oneEdit(w, []rune(candidate)) {
			suggestions = append(suggestions, candidate)
			if e.maxSuggestions > 0 && len(suggestions) == e.maxSuggestions {
				break
			}
		}
	}
	return suggestions
}

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}

func oneEdit(a, b []rune) bool {
	switch len(a) - len(b) {
	case 0:
		var diff []int
		for i := range a {
			if a[i] != b[i] {
				diff = append(diff, i)
				if len(diff) > 2 {
					return false
				}
			}
		}
		switch len(diff) {
		case 1:
			return true
		case 2:
			i, j := diff[0], diff[1]
			return j == i+1 && a[i] == b[j] && a[j] == b[i]
		}
		return false
	case 1:
		return oneInsert(b, a)
	case -1:
		return oneInsert(a, b)
	}
	return false
}

// oneInsert reports whether long is short with exactly one rune inserted.
func oneInsert(short, long []rune) bool {
	i := 0
	for i < len(short) && short[i] == long[i] {
		i++
	}
	for ; i < len(short); i++ {
		if short[i] != long[i+1] {
			return false
		}
	}
	return true
}
