package history

import (
	"strings"

	"github.com/hyperfocist/ValleyTalk/app/dialogue"
)

// Kind discriminates the event payload. The set is closed: every consumer
// switches over exactly these five values.
type Kind int

const (
	// KindDialogue is a set of lines the character spoke to the player.
	KindDialogue Kind = iota
	// KindEventDialogue is dialogue spoken during a festival or cutscene,
	// with the other present characters recorded.
	KindEventDialogue
	// KindOverheard is dialogue another character spoke within earshot.
	KindOverheard
	// KindConversation is a free-form typed exchange with the player.
	KindConversation
	// KindActivity is a one-off world milestone the character knows about.
	KindActivity
)

func (k Kind) String() string {
	switch k {
	case KindDialogue:
		return "dialogue"
	case KindEventDialogue:
		return "event"
	case KindOverheard:
		return "overheard"
	case KindConversation:
		return "conversation"
	case KindActivity:
		return "activity"
	}
	return "unknown"
}

// Event is the tagged union of things a character remembers. Only the fields
// belonging to the Kind are set.
type Event struct {
	Kind Kind `json:"kind" yaml:"kind"`

	Lines        []string        `json:"lines,omitempty" yaml:"lines,omitempty"`
	Festival     string          `json:"festival,omitempty" yaml:"festival,omitempty"`
	Participants []string        `json:"participants,omitempty" yaml:"participants,omitempty"`
	Speaker      string          `json:"speaker,omitempty" yaml:"speaker,omitempty"`
	Turns        []dialogue.Turn `json:"turns,omitempty" yaml:"turns,omitempty"`
	Activity     string          `json:"activity,omitempty" yaml:"activity,omitempty"`
}

// Describe renders the event as one prompt-ready sentence fragment.
func (e Event) Describe() string {
	switch e.Kind {
	case KindDialogue:
		return "said " + quoteJoin(e.Lines)
	case KindEventDialogue:
		if e.Festival != "" {
			return "at " + e.Festival + ", said " + quoteJoin(e.Lines)
		}
		return "said " + quoteJoin(e.Lines)
	case KindOverheard:
		return "overheard " + e.Speaker + " say " + quoteJoin(e.Lines)
	case KindConversation:
		parts := make([]string, 0, len(e.Turns))
		for _, turn := range e.Turns {
			parts = append(parts, turn.Speaker+": "+turn.Text)
		}
		return "had a conversation: " + strings.Join(parts, " / ")
	case KindActivity:
		return e.Activity
	}
	return ""
}

func quoteJoin(lines []string) string {
	quoted := make([]string, 0, len(lines))
	for _, line := range lines {
		quoted = append(quoted, `"`+line+`"`)
	}
	return strings.Join(quoted, " ")
}

// Entry is one remembered event with the instant it happened.
type Entry struct {
	Time  Time  `json:"time" yaml:"time"`
	Event Event `json:"event" yaml:"event"`
}

// Dialogue builds a spoken-lines event.
func Dialogue(lines []string) Event {
	return Event{Kind: KindDialogue, Lines: lines}
}

// EventDialogue builds a festival/cutscene dialogue event.
func EventDialogue(festival string, participants, lines []string) Event {
	return Event{Kind: KindEventDialogue, Festival: festival, Participants: participants, Lines: lines}
}

// Overheard builds an event for lines spoken by someone else.
func Overheard(speaker string, lines []string) Event {
	return Event{Kind: KindOverheard, Speaker: speaker, Lines: lines}
}

// Conversation builds a free-form chat event.
func Conversation(turns []dialogue.Turn) Event {
	return Event{Kind: KindConversation, Turns: turns}
}

// Activity builds a milestone marker event.
func Activity(name string) Event {
	return Event{Kind: KindActivity, Activity: name}
}
