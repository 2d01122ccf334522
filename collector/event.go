package collector

// MisspellingEvent is what a spell-checking engine emits for each word it
// could not find in the active dictionary. Suggestions keep the engine's
// ranking and may be empty.
type MisspellingEvent struct {
	Word        string   `json:"word"`
	Suggestions []string `json:"suggestions"`
}

// Emitter receives misspelling events from an engine.
type Emitter func(ev MisspellingEvent)
