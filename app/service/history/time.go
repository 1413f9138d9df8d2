package history

import (
	"fmt"

	"github.com/hyperfocist/ValleyTalk/app/dialogue"
)

const daysPerSeason = 28

var seasonOrder = map[dialogue.Season]int{
	dialogue.Spring: 0,
	dialogue.Summer: 1,
	dialogue.Fall:   2,
	dialogue.Winter: 3,
}

var seasonByIndex = []dialogue.Season{dialogue.Spring, dialogue.Summer, dialogue.Fall, dialogue.Winter}

// Time is an in-game instant: calendar date plus the clock value the game
// uses (hhmm, 600 through 2600).
type Time struct {
	Year      int             `json:"year" yaml:"year"`
	Season    dialogue.Season `json:"season" yaml:"season"`
	Day       int             `json:"day" yaml:"day"`
	TimeOfDay int             `json:"time_of_day" yaml:"time_of_day"`
}

// ordinal flattens the instant into a single comparable value.
func (t Time) ordinal() int {
	return ((t.Year*4+seasonOrder[t.Season])*daysPerSeason+(t.Day-1))*10000 + t.TimeOfDay
}

func (t Time) Before(other Time) bool { return t.ordinal() < other.ordinal() }
func (t Time) After(other Time) bool  { return t.ordinal() > other.ordinal() }

// SameDate ignores the clock.
func (t Time) SameDate(other Time) bool {
	return t.Year == other.Year && t.Season == other.Season && t.Day == other.Day
}

// AddDays shifts the calendar date, clamping at year 1 spring 1.
func (t Time) AddDays(days int) Time {
	total := (t.Year-1)*4*daysPerSeason + seasonOrder[t.Season]*daysPerSeason + (t.Day - 1) + days
	if total < 0 {
		total = 0
	}
	return Time{
		Year:      total/(4*daysPerSeason) + 1,
		Season:    seasonByIndex[(total/daysPerSeason)%4],
		Day:       total%daysPerSeason + 1,
		TimeOfDay: t.TimeOfDay,
	}
}

func (t Time) String() string {
	return fmt.Sprintf("year %d, %s %d, %04d", t.Year, t.Season, t.Day, t.TimeOfDay)
}
