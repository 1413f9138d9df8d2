package dialogue

import "strings"

// Season of the in-game calendar. The zero value is not a valid season;
// optional season fields use *Season with nil meaning "any".
type Season string

const (
	Spring Season = "spring"
	Summer Season = "summer"
	Fall   Season = "fall"
	Winter Season = "winter"
)

var seasons = []Season{Spring, Summer, Fall, Winter}

func ParseSeason(s string) (Season, bool) {
	for _, season := range seasons {
		if strings.EqualFold(s, string(season)) {
			return season, true
		}
	}
	return "", false
}

// Weekday uses the three-letter form the dialogue keys use.
type Weekday string

const (
	Mon Weekday = "Mon"
	Tue Weekday = "Tue"
	Wed Weekday = "Wed"
	Thu Weekday = "Thu"
	Fri Weekday = "Fri"
	Sat Weekday = "Sat"
	Sun Weekday = "Sun"
)

var weekdays = []Weekday{Mon, Tue, Wed, Thu, Fri, Sat, Sun}

func ParseWeekday(s string) (Weekday, bool) {
	for _, day := range weekdays {
		if strings.EqualFold(s, string(day)) {
			return day, true
		}
	}
	return "", false
}

// RandomAction is a randomly triggered ambient line variant.
type RandomAction string

const (
	Rainy   RandomAction = "Rainy"
	Indoor  RandomAction = "Indoor"
	Outdoor RandomAction = "Outdoor"
)

var randomActions = []RandomAction{Rainy, Indoor, Outdoor}

func ParseRandomAction(s string) (RandomAction, bool) {
	for _, act := range randomActions {
		if strings.EqualFold(s, string(act)) {
			return act, true
		}
	}
	return "", false
}

// NeedsTimeOfDay reports whether the action key carries a Day/Night qualifier.
func (a RandomAction) NeedsTimeOfDay() bool {
	return a == Rainy || a == Indoor
}

// SpouseAction is a marriage schedule event, always followed by the partner name.
type SpouseAction string

const (
	FunLeave   SpouseAction = "funLeave"
	JobLeave   SpouseAction = "jobLeave"
	FunReturn  SpouseAction = "funReturn"
	JobReturn  SpouseAction = "jobReturn"
	Patio      SpouseAction = "patio"
	SpouseRoom SpouseAction = "spouseRoom"
)

var spouseActions = []SpouseAction{FunLeave, JobLeave, FunReturn, JobReturn, Patio, SpouseRoom}

func ParseSpouseAction(s string) (SpouseAction, bool) {
	for _, act := range spouseActions {
		if strings.EqualFold(s, string(act)) {
			return act, true
		}
	}
	return "", false
}

// Locations whose names can begin a dialogue key, optionally suffixed with a heart level.
var Locations = []string{"Beach", "Desert", "Railroad", "Saloon", "SeedShop", "JojaMart"}

// SpecialChats are one-off event tags that act as chat identifiers when a key
// starts with them.
var SpecialChats = []string{
	"cc_Boulder", "cc_Bridge", "cc_Bus", "cc_Greenhouse", "cc_Minecart", "cc_Complete",
	"movieTheater", "pamHouseUpgrade", "pamHouseUpgradeAnonymous", "jojaMartStruckByLightning",
	"babyBoy", "babyGirl", "wedding", "event_postweddingreception",
	"luauBest", "luauShorts", "luauPoisoned",
	"Characters_MovieInvite_Invited", "DumpsterDiveComment", "SpouseStardrop",
	"FlowerDance_Accept_Spouse", "FlowerDance_Accept", "FlowerDance_Decline",
	"GreenRain", "GreenRainFinished", "GreenRain_2", "Rainy",
}

// IsSpecialChat reports whether the chat identifier is one of the one-off event tags.
func IsSpecialChat(chatID string) bool {
	for _, tag := range SpecialChats {
		if tag == chatID {
			return true
		}
	}
	return false
}

const defaultTargetSamples = 15

// Turn is a single exchange in a free-form conversation.
type Turn struct {
	Speaker    string `json:"speaker" yaml:"speaker"`
	Text       string `json:"text" yaml:"text"`
	FromPlayer bool   `json:"from_player,omitempty" yaml:"from_player,omitempty"`
}

// Context describes the situation a dialogue line is requested for. Optional
// fields are pointers (or empty strings) with nil/empty meaning "unset". A
// Context is treated as immutable once handed to the ranking or generation
// code, except for ChatHistory which advances between turns of a conversation.
type Context struct {
	Hearts      *int
	Season      *Season
	Year        *int
	Day         *Weekday
	DayOfSeason *int
	Inlaw       string
	Accept      string // accepted gift reference, without the "(O)" prefix
	TimeOfDay   string
	RandomAct   *RandomAction
	RandomValue *int
	SpouseAct   *SpouseAction
	Spouse      string
	ChatID      string
	Location    string
	Married     bool
	Birthday    bool

	ChatHistory   []Turn
	CanGiveGift   bool
	TargetSamples int
}

// NewContext returns a Context with the default sample target.
func NewContext() *Context {
	return &Context{TargetSamples: defaultTargetSamples}
}

// Clone copies the context, sharing the chat history slice.
func (c *Context) Clone() *Context {
	out := *c
	return &out
}

// Empty reports whether every comparable field is unset. Empty contexts are
// maximally irrelevant when ranking.
func (c *Context) Empty() bool {
	return c == nil || (c.Hearts == nil && c.Season == nil && c.Year == nil &&
		c.Day == nil && c.DayOfSeason == nil && c.Inlaw == "" && c.Accept == "" &&
		c.TimeOfDay == "" && c.RandomAct == nil && c.SpouseAct == nil &&
		c.ChatID == "" && !c.Married && c.Location == "" && !c.Birthday)
}

// Equal compares the fields that define a situation. Chat history and sample
// hints are deliberately excluded.
func (c *Context) Equal(other *Context) bool {
	if c == nil || other == nil {
		return c == other
	}
	return intPtrEq(c.Hearts, other.Hearts) &&
		seasonPtrEq(c.Season, other.Season) &&
		intPtrEq(c.Year, other.Year) &&
		dayPtrEq(c.Day, other.Day) &&
		intPtrEq(c.DayOfSeason, other.DayOfSeason) &&
		c.Inlaw == other.Inlaw &&
		c.Accept == other.Accept &&
		c.TimeOfDay == other.TimeOfDay &&
		randomPtrEq(c.RandomAct, other.RandomAct) &&
		spousePtrEq(c.SpouseAct, other.SpouseAct) &&
		c.Spouse == other.Spouse &&
		c.ChatID == other.ChatID &&
		c.Married == other.Married &&
		c.Location == other.Location &&
		c.Birthday == other.Birthday
}

func intPtrEq(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func seasonPtrEq(a, b *Season) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func dayPtrEq(a, b *Weekday) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func randomPtrEq(a, b *RandomAction) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func spousePtrEq(a, b *SpouseAction) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Sample pairs a parsed key context with one canonical line, used as a
// similarity-ranked exemplar when building prompts.
type Sample struct {
	Context *Context
	Text    string
}
