package analysis

import (
	"encoding/json"
	"math"
	"math/rand"

	"musicify/model"
)

// Vocabularies for the synthetic analysis. The shape is deterministic
// (always 20 events, fixed tabs); only chord and section picks and the
// per-event durations are randomized.
var (
	fallbackSections = []string{"Intro", "Verse", "Chorus", "Bridge", "Outro"}
	fallbackChords   = []string{"Cmaj7", "Am7", "Dm7", "G7", "Em7", "Fmaj7", "Bbmaj7", "Ebmaj7"}
)

const fallbackSummary = "Demo Analysis (analyzer service unavailable). " +
	"Please ensure the analyzer is running and reachable."

const fallbackEventCount = 20

var fallbackTabs = model.Tablature{
	Tuning: "E A D G B E",
	AllStrings: []string{
		"e|-----------------0-0-0-0---------------------|",
		"B|-----------1----------------3----------------|",
		"G|-------0------------------------0-----------|",
		"D|---2-------------------------------2--------|",
		"A|-3------------------------------------------|",
		"E|--------------------------------------------|",
	},
	SingleStringOptions: []model.TabStringOption{
		{String: "high E", Tab: "e|--0-3-5-7-8-7-5-3-0-----------0-3-5-7-5-3-0-----|"},
		{String: "B", Tab: "B|--1-3-5-6-8-6-5-3-1-----------1-3-5-6-5-3-1-----|"},
	},
}

// FallbackAnalysis synthesizes a placeholder analysis when the external
// analyzer cannot be reached: 20 sequential chord events with durations in
// [2.0, 4.0) seconds and cumulative start times, plus a canned tablature.
func FallbackAnalysis(rng *rand.Rand) Result {
	events := make([]model.ChordEvent, 0, fallbackEventCount)
	currentTime := 0.0

	for i := 0; i < fallbackEventCount; i++ {
		duration := round2(2.0 + rng.Float64()*2.0)
		events = append(events, model.ChordEvent{
			Time:     round2(currentTime),
			Duration: duration,
			Chord:    fallbackChords[rng.Intn(len(fallbackChords))],
			Section:  fallbackSections[rng.Intn(len(fallbackSections))],
		})
		currentTime += duration
	}

	chordsJSON, _ := json.Marshal(events)
	tabsJSON, _ := json.Marshal(fallbackTabs)

	return Result{
		Summary: fallbackSummary,
		Chords:  chordsJSON,
		Tabs:    tabsJSON,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
