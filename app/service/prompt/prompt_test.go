package prompt

import (
	"testing"

	"github.com/hyperfocist/ValleyTalk/app/config"
	"github.com/hyperfocist/ValleyTalk/app/dialogue"
	"github.com/hyperfocist/ValleyTalk/app/service/bank"
	"github.com/hyperfocist/ValleyTalk/app/service/character"
	"github.com/hyperfocist/ValleyTalk/app/service/history"
	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBuilder(t *testing.T) (*Builder, *character.Character) {
	t.Helper()

	di := do.New()
	t.Cleanup(func() { _ = di.Shutdown() })

	do.ProvideValue(di, &config.Config{
		Game: config.Game{
			PlayerName: "Casey",
			DataDir:    t.TempDir(),
		},
	})
	do.Provide(di, bank.New)
	do.Provide(di, character.New)
	do.Provide(di, New)

	char, err := do.MustInvoke[*character.Service](di).Get("Pierre")
	require.NoError(t, err)

	return do.MustInvoke[*Builder](di), char
}

func TestBuildSubstitutesNames(t *testing.T) {
	t.Parallel()

	builder, char := testBuilder(t)

	ctx := dialogue.NewContext()
	season := dialogue.Summer
	ctx.Season = &season
	hearts := 6
	ctx.Hearts = &hearts

	now := history.Time{Year: 1, Season: dialogue.Summer, Day: 3, TimeOfDay: 900}
	prompts := builder.Build(ctx, char, now, nil)

	assert.Contains(t, prompts.System, "Pierre")
	assert.NotContains(t, prompts.System, "{npc}")
	assert.NotContains(t, prompts.NpcContext, "{biography}")
	assert.Contains(t, prompts.Core, "Season: summer")
	assert.Contains(t, prompts.Core, "6 hearts")
	assert.Contains(t, prompts.Command, "Casey")
	assert.Equal(t, "-", prompts.ResponseStart)
	assert.Empty(t, prompts.GiveGift)
}

func TestBuildIncludesChatHistoryAndMemories(t *testing.T) {
	t.Parallel()

	builder, char := testBuilder(t)

	now := history.Time{Year: 1, Season: dialogue.Spring, Day: 5, TimeOfDay: 1200}
	char.History.Append(
		history.Time{Year: 1, Season: dialogue.Spring, Day: 3, TimeOfDay: 900},
		history.Activity("swept the storefront"),
	)
	char.History.Append(
		history.Time{Year: 1, Season: dialogue.Spring, Day: 4, TimeOfDay: 900},
		history.Activity("restocked the shelves"),
	)

	ctx := dialogue.NewContext()
	ctx.ChatHistory = []dialogue.Turn{
		{Speaker: "Casey", Text: "How's business?", FromPlayer: true},
		{Speaker: "Pierre", Text: "Slow week."},
	}

	prompts := builder.Build(ctx, char, now, nil)

	assert.Contains(t, prompts.Core, "How's business?")
	assert.Contains(t, prompts.Core, "Slow week.")
	assert.Contains(t, prompts.Core, "restocked the shelves")
	assert.Contains(t, prompts.Command, "next line")
}

func TestBuildGiftReactionCommand(t *testing.T) {
	t.Parallel()

	builder, char := testBuilder(t)

	ctx := dialogue.NewContext()
	ctx.Accept = "a bouquet"

	now := history.Time{Year: 1, Season: dialogue.Spring, Day: 1, TimeOfDay: 900}
	prompts := builder.Build(ctx, char, now, nil)

	assert.Contains(t, prompts.Core, "a bouquet")
	assert.Contains(t, prompts.Command, "gift")
}
