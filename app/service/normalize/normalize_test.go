package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPortraits = []string{"h", "s", "l", "a"}

func testService(fixPunctuation bool) *Service {
	return &Service{
		playerName:     "Casey",
		fixPunctuation: fixPunctuation,
	}
}

func TestProcessLinesEndToEnd(t *testing.T) {
	t.Parallel()

	svc := testService(true)
	got := svc.ProcessLines("- Hello there! $x\n% fine\n% not fine", Options{
		ValidPortraits: testPortraits,
	})

	assert.Equal(t, []string{"Hello there!", "fine.", "not fine."}, got)
}

func TestProcessLinesRejectsWithoutDialogueMarker(t *testing.T) {
	t.Parallel()

	svc := testService(true)

	assert.Nil(t, svc.ProcessLines("Sure! Here's a nice line for you.", Options{
		ValidPortraits: testPortraits,
	}))
	assert.Nil(t, svc.ProcessLines("", Options{ValidPortraits: testPortraits}))
}

func TestProcessLinesSkipsPreamble(t *testing.T) {
	t.Parallel()

	svc := testService(false)
	got := svc.ProcessLines("Here is the dialogue:\n\n- Good morning!", Options{
		ValidPortraits: testPortraits,
	})

	assert.Equal(t, []string{"Good morning!"}, got)
}

func TestProcessLinesSingleResponseChoiceDropped(t *testing.T) {
	t.Parallel()

	svc := testService(true)
	got := svc.ProcessLines("- Hi\n% only one", Options{
		ValidPortraits: testPortraits,
	})

	// A choice set needs at least two options, so the lone one is dropped.
	assert.Equal(t, []string{"Hi."}, got)
}

func TestProcessLinesKeepsValidPortrait(t *testing.T) {
	t.Parallel()

	svc := testService(true)
	got := svc.ProcessLines("- Hello $h", Options{
		ValidPortraits: testPortraits,
	})

	require.Len(t, got, 1)
	assert.Equal(t, "Hello.$h", got[0])
}

func TestProcessLinesLongSegmentSplit(t *testing.T) {
	t.Parallel()

	// 250 characters with the only sentence boundary at position 180.
	segment := strings.Repeat("a", 179) + "." + strings.Repeat("b", 70)
	require.Len(t, segment, 250)

	svc := testService(false)
	got := svc.ProcessLines("- "+segment, Options{
		ValidPortraits: testPortraits,
	})

	require.Len(t, got, 1)
	parts := strings.Split(got[0], "#")
	require.Len(t, parts, 2)
	assert.Equal(t, strings.Repeat("a", 179)+".", parts[0])
	assert.Equal(t, strings.Repeat("b", 70), parts[1])
	for _, part := range parts {
		assert.LessOrEqual(t, len(part), 200)
	}
}

func TestProcessLinesSplitKeepsPortraitSuffix(t *testing.T) {
	t.Parallel()

	segment := strings.Repeat("a", 150) + "." + strings.Repeat("b", 100) + "$h"

	svc := testService(false)
	got := svc.ProcessLines("- "+segment, Options{
		ValidPortraits: testPortraits,
	})

	require.Len(t, got, 1)
	parts := strings.Split(got[0], "#")
	require.Len(t, parts, 2)
	for _, part := range parts {
		assert.True(t, strings.HasSuffix(part, "$h"), "part %q", part)
	}
}

func TestProcessLinesRelaxedSkipsLengthCheck(t *testing.T) {
	t.Parallel()

	segment := strings.Repeat("a", 179) + "." + strings.Repeat("b", 70)

	svc := testService(false)
	got := svc.ProcessLines("- "+segment, Options{
		Relaxed:        true,
		ValidPortraits: testPortraits,
	})

	require.Len(t, got, 1)
	assert.Equal(t, segment, got[0])
}

func TestResponseLineCleanup(t *testing.T) {
	t.Parallel()

	svc := testService(true)
	got := svc.ProcessLines("- A question?\n% See you later, @\n% Not today $h", Options{
		ValidPortraits: testPortraits,
	})

	assert.Equal(t, []string{"A question?", "See you later, Casey.", "Not today."}, got)
}

func TestResponseLineTooLongDropped(t *testing.T) {
	t.Parallel()

	svc := testService(true)
	got := svc.ProcessLines(
		"- Hi there.\n% short\n% "+strings.Repeat("a", 95),
		Options{ValidPortraits: testPortraits},
	)

	// The oversized choice dies, leaving a lone survivor, which drops the
	// whole choice set.
	assert.Equal(t, []string{"Hi there."}, got)
}

func TestProcessLinesStripsQuotesAndMarkers(t *testing.T) {
	t.Parallel()

	svc := testService(false)
	got := svc.ProcessLines(`- "Fresh bread today."`, Options{
		ValidPortraits: testPortraits,
	})

	assert.Equal(t, []string{"Fresh bread today."}, got)
}
