package engine

import (
	"context"
	"testing"
	"time"

	"github.com/hyperfocist/ValleyTalk/app/config"
	"github.com/hyperfocist/ValleyTalk/app/dialogue"
	"github.com/hyperfocist/ValleyTalk/app/service/bank"
	"github.com/hyperfocist/ValleyTalk/app/service/character"
	"github.com/hyperfocist/ValleyTalk/app/service/history"
	"github.com/hyperfocist/ValleyTalk/app/service/queue"
	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInjector(t *testing.T) *do.Injector {
	t.Helper()

	di := do.New()
	t.Cleanup(func() { _ = di.Shutdown() })

	do.ProvideValue(di, &config.Config{
		Game: config.Game{PlayerName: "Casey", DataDir: t.TempDir()},
	})
	do.Provide(di, bank.New)
	do.Provide(di, character.New)
	do.Provide(di, queue.New)
	do.Provide(di, New)
	return di
}

func at(day, timeOfDay int) history.Time {
	return history.Time{Year: 1, Season: dialogue.Spring, Day: day, TimeOfDay: timeOfDay}
}

func TestEngineRecordsEvents(t *testing.T) {
	t.Parallel()

	di := testInjector(t)
	queueSvc := do.MustInvoke[*queue.Service](di)
	engineSvc := do.MustInvoke[*Service](di)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go engineSvc.Run(ctx)

	queueSvc.Add("Pierre", at(1, 900), history.Dialogue([]string{"hello"}))
	queueSvc.Add("Pierre", at(1, 910), history.Overheard("Abigail", []string{"hi Pierre"}))

	char, err := do.MustInvoke[*character.Service](di).Get("Pierre")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return char.History.Len() == 2
	}, time.Second, 5*time.Millisecond)
}

func TestEngineSkipsRepeatedDialogue(t *testing.T) {
	t.Parallel()

	di := testInjector(t)
	queueSvc := do.MustInvoke[*queue.Service](di)
	engineSvc := do.MustInvoke[*Service](di)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go engineSvc.Run(ctx)

	// The game re-reports open dialogue boxes every tick.
	queueSvc.Add("Pierre", at(1, 900), history.Dialogue([]string{"hello"}))
	queueSvc.Add("Pierre", at(1, 900), history.Dialogue([]string{"hello"}))
	queueSvc.Add("Pierre", at(1, 910), history.Dialogue([]string{"goodbye"}))

	char, err := do.MustInvoke[*character.Service](di).Get("Pierre")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return char.History.Len() == 2
	}, time.Second, 5*time.Millisecond)

	last, ok := char.History.Last()
	require.True(t, ok)
	assert.Equal(t, []string{"goodbye"}, last.Event.Lines)
}

func TestEngineDropsSubsumedOverheard(t *testing.T) {
	t.Parallel()

	di := testInjector(t)
	queueSvc := do.MustInvoke[*queue.Service](di)
	engineSvc := do.MustInvoke[*Service](di)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go engineSvc.Run(ctx)

	queueSvc.Add("Pierre", at(1, 900), history.Overheard("Abigail", []string{"see you there"}))
	queueSvc.Add("Pierre", at(1, 1700), history.EventDialogue(
		"flower dance",
		[]string{"Abigail", "Sam"},
		[]string{"see you there", "save me a dance"},
	))

	char, err := do.MustInvoke[*character.Service](di).Get("Pierre")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		entries := char.History.All()
		return len(entries) == 1 && entries[0].Event.Kind == history.KindEventDialogue
	}, time.Second, 5*time.Millisecond)
}
