package collector

import (
	"slices"

	"github.com/samber/lo"
)

// Result is the aggregate of one scan.
//
// NoSuggestions describes only the last processed event, while Suggestions
// accumulates across every event since the last Reset.
type Result struct {
	ScanID        string    `json:"scan_id,omitempty"`
	LastWrongWord string    `json:"last_wrong_word"`
	Suggestions   []string  `json:"suggestions"`
	NoSuggestions bool      `json:"no_suggestions"`
	Outcomes      []Outcome `json:"-"`
}

// Outcome records what happened to a single suggestion.
type Outcome struct {
	Word       string
	Suggestion string
	Err        error
}

func (o Outcome) OK() bool {
	return o.Err == nil
}

// Failed returns the outcomes of suggestions that were skipped.
func (r *Result) Failed() []Outcome {
	return lo.Filter(r.Outcomes, func(o Outcome, _ int) bool {
		return !o.OK()
	})
}

// Reset clears the result for a new scan. ScanID is kept.
func (r *Result) Reset() {
	r.LastWrongWord = ""
	r.Suggestions = nil
	r.NoSuggestions = false
	r.Outcomes = nil
}

// Clone returns a deep copy.
func (r *Result) Clone() *Result {
	c := *r
	c.Suggestions = slices.Clone(r.Suggestions)
	c.Outcomes = slices.Clone(r.Outcomes)
	return &c
}
