package prompt

import (
	"fmt"
	"math/rand/v2"
	"strings"

	_ "embed"

	"github.com/hyperfocist/ValleyTalk/app/config"
	"github.com/hyperfocist/ValleyTalk/app/dialogue"
	"github.com/hyperfocist/ValleyTalk/app/service/character"
	"github.com/hyperfocist/ValleyTalk/app/service/history"
	"github.com/samber/do"
)

//go:embed system_prompt.txt
var systemPrompt string

//go:embed game_context_template.txt
var gameContextTemplate string

//go:embed npc_context_template.txt
var npcContextTemplate string

//go:embed instructions_template.txt
var instructionsTemplate string

// one spontaneous gift per roughly this many eligible chats
const giftChance = 4

// Prompts is the assembled input for one generation request. System,
// GameContext and NpcContext are stable per character and safe to cache
// on the backend side; Core and Command change with every situation.
type Prompts struct {
	System        string
	GameContext   string
	NpcContext    string
	Core          string
	Instructions  string
	Command       string
	ResponseStart string
	GiveGift      string
}

// Builder assembles prompts from bio data, ranked bank samples and the
// character's windowed event history.
type Builder struct {
	playerName string
}

func New(di *do.Injector) (*Builder, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return &Builder{
		playerName: cfg.Game.PlayerName,
	}, nil
}

func (b *Builder) Build(ctx *dialogue.Context, char *character.Character, now history.Time, milestones map[string]int) *Prompts {
	values := map[string]string{
		"npc":       char.Name,
		"player":    b.playerName,
		"biography": formatBiography(char.Bio.Biography),
		"samples":   formatSamples(char.SelectSamples(ctx, ctx.TargetSamples)),
	}

	prompts := &Prompts{
		System:        render(systemPrompt, values),
		GameContext:   render(gameContextTemplate, values),
		NpcContext:    render(npcContextTemplate, values),
		Core:          b.buildCore(ctx, char, now, milestones),
		Instructions:  render(instructionsTemplate, values),
		Command:       b.buildCommand(ctx, char),
		ResponseStart: "-",
	}

	if ctx.CanGiveGift && len(char.Bio.LovedGifts) > 0 && rand.IntN(giftChance) == 0 {
		prompts.GiveGift = char.Bio.LovedGifts[rand.IntN(len(char.Bio.LovedGifts))]
	}

	return prompts
}

func (b *Builder) buildCore(ctx *dialogue.Context, char *character.Character, now history.Time, milestones map[string]int) string {
	var sb strings.Builder

	sb.WriteString("Current situation:\n")
	for _, line := range b.describeSituation(ctx, char.Name) {
		sb.WriteString("- ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	if window := char.History.WindowedSample(now, milestones); len(window) > 0 {
		sb.WriteString("\nRecent events ")
		sb.WriteString(char.Name)
		sb.WriteString(" remembers:\n")
		for _, entry := range window {
			sb.WriteString("- ")
			sb.WriteString(entry.Time.String())
			sb.WriteString(": ")
			sb.WriteString(entry.Event.Describe())
			sb.WriteString("\n")
		}
	}

	if len(ctx.ChatHistory) > 0 {
		sb.WriteString("\nThe conversation so far:\n")
		for _, turn := range ctx.ChatHistory {
			sb.WriteString(turn.Speaker)
			sb.WriteString(": ")
			sb.WriteString(turn.Text)
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func (b *Builder) describeSituation(ctx *dialogue.Context, npc string) []string {
	var lines []string

	if ctx.Season != nil {
		lines = append(lines, fmt.Sprintf("Season: %s", *ctx.Season))
	}
	if ctx.DayOfSeason != nil {
		lines = append(lines, fmt.Sprintf("Day of season: %d", *ctx.DayOfSeason))
	}
	if ctx.Day != nil {
		lines = append(lines, fmt.Sprintf("Day of week: %s", *ctx.Day))
	}
	if ctx.Year != nil {
		lines = append(lines, fmt.Sprintf("Year: %d", *ctx.Year))
	}
	if ctx.TimeOfDay != "" {
		lines = append(lines, fmt.Sprintf("Time of day: %s", ctx.TimeOfDay))
	}
	if ctx.Location != "" {
		lines = append(lines, fmt.Sprintf("%s is at the %s", npc, ctx.Location))
	}
	if ctx.Hearts != nil {
		lines = append(lines, fmt.Sprintf("Friendship with %s: %d hearts", b.playerName, *ctx.Hearts))
	}
	if ctx.Married {
		lines = append(lines, fmt.Sprintf("%s is married to %s", npc, b.playerName))
	}
	if ctx.Birthday {
		lines = append(lines, fmt.Sprintf("Today is %s's birthday", npc))
	}
	if ctx.Accept != "" {
		lines = append(lines, fmt.Sprintf("%s just received a gift from %s: %s", npc, b.playerName, ctx.Accept))
	}
	if ctx.RandomAct != nil {
		lines = append(lines, fmt.Sprintf("%s is currently: %s", npc, *ctx.RandomAct))
	}
	if ctx.SpouseAct != nil {
		lines = append(lines, fmt.Sprintf("%s is %s", npc, *ctx.SpouseAct))
	}
	if ctx.Inlaw != "" {
		lines = append(lines, fmt.Sprintf("%s is married to %s's relative %s", b.playerName, npc, ctx.Inlaw))
	}

	return lines
}

func (b *Builder) buildCommand(ctx *dialogue.Context, char *character.Character) string {
	var sb strings.Builder

	if ctx.Accept != "" {
		fmt.Fprintf(&sb, "Write %s's reaction to receiving the gift, in character.", char.Name)
	} else if len(ctx.ChatHistory) > 0 {
		fmt.Fprintf(&sb, "Write %s's next line in this conversation.", char.Name)
	} else {
		fmt.Fprintf(&sb, "Write what %s says to %s right now.", char.Name, b.playerName)
	}

	return sb.String()
}

func formatBiography(biography []string) string {
	if len(biography) == 0 {
		return "(no biography on file)"
	}
	return strings.Join(biography, "\n")
}

func formatSamples(samples []dialogue.Sample) string {
	if len(samples) == 0 {
		return "(none)"
	}
	var sb strings.Builder
	for _, sample := range samples {
		sb.WriteString("- ")
		sb.WriteString(sample.Text)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func render(template string, values map[string]string) string {
	result := template
	for key, value := range values {
		result = strings.ReplaceAll(result, "{"+key+"}", value)
	}
	return result
}
