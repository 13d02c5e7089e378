package analysis

import (
	"encoding/json"
	"fmt"
)

// previewLimit bounds the list preview regardless of stored chord count.
const previewLimit = 8

var (
	keyScale = []string{"C", "D", "E", "F", "G", "A", "B"}
	romans   = []string{"I", "II", "III", "IV", "V", "VI", "VII"}
)

// RomanNumeral maps a chord label's leading note letter (case-insensitive,
// A-G) to its diatonic degree in C major, "I" through "VII". Any other input
// degrades to "?". Total over all strings; never panics.
func RomanNumeral(chord string) string {
	if chord == "" {
		return "?"
	}
	root := chord[0]
	if root >= 'a' && root <= 'g' {
		root -= 'a' - 'A'
	}
	if root < 'A' || root > 'G' {
		return "?"
	}
	for i, note := range keyScale {
		if note[0] == root {
			return romans[i]
		}
	}
	return "?"
}

// chordProgressionEntry is the only shape the projector interprets inside
// the otherwise opaque chords JSON: an entry carrying a progression of
// chord labels.
type chordProgressionEntry struct {
	Progression []any `json:"progression"`
}

// ChordPreview derives a bounded preview from stored chords JSON: the first
// entry's first 8 chord labels plus the parallel roman-numeral sequence.
// Malformed JSON, a non-array document, or a first entry without a
// progression all degrade to empty previews; this function never fails so
// one bad row cannot break a whole list.
func ChordPreview(chordsJSON string) (chords []string, numerals []string) {
	chords = []string{}
	numerals = []string{}

	if chordsJSON == "" {
		return chords, numerals
	}

	var entries []chordProgressionEntry
	if err := json.Unmarshal([]byte(chordsJSON), &entries); err != nil {
		return chords, numerals
	}
	if len(entries) == 0 || len(entries[0].Progression) == 0 {
		return chords, numerals
	}

	progression := entries[0].Progression
	if len(progression) > previewLimit {
		progression = progression[:previewLimit]
	}
	for _, raw := range progression {
		label := fmt.Sprint(raw)
		chords = append(chords, label)
		numerals = append(numerals, RomanNumeral(label))
	}
	return chords, numerals
}
