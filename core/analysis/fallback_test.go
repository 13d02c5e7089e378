package analysis_test

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musicify/core/analysis"
	"musicify/model"
)

func TestFallbackAnalysisShape(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	result := analysis.FallbackAnalysis(rng)

	assert.Contains(t, result.Summary, "unavailable")

	var events []model.ChordEvent
	require.NoError(t, json.Unmarshal(result.Chords, &events))
	require.Len(t, events, 20)

	var tabs model.Tablature
	require.NoError(t, json.Unmarshal(result.Tabs, &tabs))
	assert.Equal(t, "E A D G B E", tabs.Tuning)
	assert.Len(t, tabs.AllStrings, 6)
	assert.Len(t, tabs.SingleStringOptions, 2)
}

func TestFallbackAnalysisEventInvariants(t *testing.T) {
	// The shape invariants must hold for any seed.
	for seed := int64(0); seed < 25; seed++ {
		rng := rand.New(rand.NewSource(seed))
		result := analysis.FallbackAnalysis(rng)

		var events []model.ChordEvent
		require.NoError(t, json.Unmarshal(result.Chords, &events))
		require.Len(t, events, 20, "seed %d", seed)

		assert.Equal(t, 0.0, events[0].Time, "seed %d", seed)
		for i, ev := range events {
			assert.GreaterOrEqual(t, ev.Duration, 2.0, "seed %d event %d", seed, i)
			assert.Less(t, ev.Duration, 4.0, "seed %d event %d", seed, i)
			if i > 0 {
				prev := events[i-1]
				assert.Greater(t, ev.Time, prev.Time, "seed %d event %d", seed, i)
				// Sequential events: each starts where the previous ended.
				assert.InDelta(t, prev.Time+prev.Duration, ev.Time, 0.011, "seed %d event %d", seed, i)
			}
			assert.NotEmpty(t, ev.Chord, "seed %d event %d", seed, i)
			assert.NotEmpty(t, ev.Section, "seed %d event %d", seed, i)
		}
	}
}
