package character

import (
	"fmt"
	"testing"

	"github.com/hyperfocist/ValleyTalk/app/dialogue"
	"github.com/hyperfocist/ValleyTalk/app/service/bank"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func testCharacter(t *testing.T, samples []dialogue.Sample) *Character {
	t.Helper()

	char, err := newCharacter("Pierre", &bank.Bio{Name: "Pierre"}, samples)
	require.NoError(t, err)
	return char
}

func TestSelectSamplesSortedAndLimited(t *testing.T) {
	t.Parallel()

	// One close candidate per heart level away from the query.
	var samples []dialogue.Sample
	for hearts := 0; hearts <= 10; hearts++ {
		samples = append(samples, dialogue.Sample{
			Context: &dialogue.Context{Hearts: ptr(hearts)},
			Text:    fmt.Sprintf("line at %d hearts", hearts),
		})
	}
	char := testCharacter(t, samples)

	query := &dialogue.Context{Hearts: ptr(0)}
	got := char.SelectSamples(query, 5)

	require.Len(t, got, 5)
	last := -1
	for _, sample := range got {
		distance := *sample.Context.Hearts
		assert.GreaterOrEqual(t, distance, last,
			"results must be ordered by non-decreasing distance")
		last = distance
	}
	// The jitter is capped at 9, two heart levels (200) dominate it, so
	// nothing beyond the closest five levels can make the cut.
	assert.Less(t, *got[len(got)-1].Context.Hearts, 6)
}

func TestSelectSamplesDefaultLimit(t *testing.T) {
	t.Parallel()

	var samples []dialogue.Sample
	for i := 0; i < 40; i++ {
		samples = append(samples, dialogue.Sample{
			Context: &dialogue.Context{DayOfSeason: ptr(i%28 + 1)},
			Text:    fmt.Sprintf("line %d", i),
		})
	}
	char := testCharacter(t, samples)

	got := char.SelectSamples(&dialogue.Context{DayOfSeason: ptr(1)}, 0)
	assert.Len(t, got, DefaultSampleLimit)
}

func TestSelectSamplesSkipsNilContexts(t *testing.T) {
	t.Parallel()

	char := testCharacter(t, []dialogue.Sample{
		{Context: nil, Text: "orphan"},
		{Context: &dialogue.Context{Hearts: ptr(2)}, Text: "kept"},
	})

	got := char.SelectSamples(&dialogue.Context{Hearts: ptr(2)}, 10)
	require.Len(t, got, 1)
	assert.Equal(t, "kept", got[0].Text)
}

func TestSelectSamplesCachedPerBucket(t *testing.T) {
	t.Parallel()

	var samples []dialogue.Sample
	for i := 0; i < 30; i++ {
		samples = append(samples, dialogue.Sample{
			Context: &dialogue.Context{DayOfSeason: ptr(i%28 + 1)},
			Text:    fmt.Sprintf("line %d", i),
		})
	}
	char := testCharacter(t, samples)

	spring := dialogue.Spring
	query := &dialogue.Context{Season: &spring, DayOfSeason: ptr(5), Hearts: ptr(3)}

	first := char.SelectSamples(query, 10)
	second := char.SelectSamples(query, 10)

	// The jitter would reshuffle ties on a recompute; the cache returns
	// the exact same selection for the same situational bucket.
	assert.Equal(t, first, second)
}
