package analysis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"musicify/core/analysis"
)

func TestRomanNumeralDiatonicLetters(t *testing.T) {
	cases := map[string]string{
		"C": "I", "D": "II", "E": "III", "F": "IV", "G": "V", "A": "VI", "B": "VII",
	}
	for letter, want := range cases {
		assert.Equal(t, want, analysis.RomanNumeral(letter))
		assert.Equal(t, want, analysis.RomanNumeral(letter+"maj7"))
		// Case-insensitive on the leading note letter.
		lower := string(letter[0] | 0x20)
		assert.Equal(t, want, analysis.RomanNumeral(lower+"m"))
	}
}

func TestRomanNumeralNonDiatonicInputs(t *testing.T) {
	for _, chord := range []string{"", "?", "H", "7th", "N.C.", "#F", " C", "\x00x"} {
		assert.Equal(t, "?", analysis.RomanNumeral(chord), "chord %q", chord)
	}
}

func TestChordPreviewProgression(t *testing.T) {
	chordsJSON := `[{"section":"Chorus","progression":["Cmaj7","Am7","Dm7","G7"]}]`

	chords, numerals := analysis.ChordPreview(chordsJSON)
	assert.Equal(t, []string{"Cmaj7", "Am7", "Dm7", "G7"}, chords)
	assert.Equal(t, []string{"I", "VI", "II", "V"}, numerals)
}

func TestChordPreviewBoundedToEight(t *testing.T) {
	chordsJSON := `[{"progression":["C","D","E","F","G","A","B","C","D","E","F","G"]}]`

	chords, numerals := analysis.ChordPreview(chordsJSON)
	assert.Len(t, chords, 8)
	assert.Len(t, numerals, 8)
	assert.Equal(t, []string{"I", "II", "III", "IV", "V", "VI", "VII", "I"}, numerals)
}

func TestChordPreviewOnlyFirstEntryIsUsed(t *testing.T) {
	chordsJSON := `[{"progression":["C"]},{"progression":["D","E","F"]}]`

	chords, _ := analysis.ChordPreview(chordsJSON)
	assert.Equal(t, []string{"C"}, chords)
}

func TestChordPreviewDegradesToEmpty(t *testing.T) {
	cases := map[string]string{
		"empty":              "",
		"malformed":          `{"not json`,
		"not an array":       `{"progression":["C"]}`,
		"empty array":        `[]`,
		"no progression":     `[{"time":0,"duration":2.5,"chord":"Cmaj7","section":"Intro"}]`,
		"scalar elements":    `["C","D"]`,
		"empty progression":  `[{"progression":[]}]`,
		"progression scalar": `[{"progression":"C D E"}]`,
	}
	for name, chordsJSON := range cases {
		chords, numerals := analysis.ChordPreview(chordsJSON)
		assert.Empty(t, chords, "case %s", name)
		assert.Empty(t, numerals, "case %s", name)
		assert.NotNil(t, chords, "case %s", name)
		assert.NotNil(t, numerals, "case %s", name)
	}
}

func TestChordPreviewNonStringLabels(t *testing.T) {
	// A numeric label cannot start with a note letter, so it maps to "?".
	chords, numerals := analysis.ChordPreview(`[{"progression":[7,"G7"]}]`)
	assert.Equal(t, []string{"7", "G7"}, chords)
	assert.Equal(t, []string{"?", "V"}, numerals)
}
