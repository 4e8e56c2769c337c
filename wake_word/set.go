package wake_word

import (
	"fmt"
	"strings"
)

// commandCutset is stripped from the front of whatever follows a wake
// phrase, so "hey iris, lights on" yields the command "lights on".
const commandCutset = " ,.!?;:-'\""

// Set holds the configured wake phrases, normalized once at
// construction. Matching is case-insensitive substring search; the
// first configured phrase found in a transcript wins.
type Set struct {
	phrases []string
}

func NewSet(phrases []string) (*Set, error) {
	if len(phrases) == 0 {
		return nil, fmt.Errorf("no wake phrases configured")
	}

	normalized := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = normalize(p)
		if p == "" {
			return nil, fmt.Errorf("empty wake phrase")
		}

		normalized = append(normalized, p)
	}

	return &Set{phrases: normalized}, nil
}

// Phrases returns the normalized phrase list.
func (s *Set) Phrases() []string {
	return s.phrases
}

// Match searches text (already normalized) for the first configured
// phrase. command is the text after the phrase with leading punctuation
// stripped; it is empty for a bare wake utterance.
func (s *Set) Match(text string) (phrase, command string, ok bool) {
	for _, p := range s.phrases {
		idx := strings.Index(text, p)
		if idx < 0 {
			continue
		}

		rest := strings.TrimLeft(text[idx+len(p):], commandCutset)

		return p, rest, true
	}

	return "", "", false
}

func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
