package history

import (
	"sort"
	"sync"

	"github.com/elliotchance/pie/v2"
	"github.com/hyperfocist/ValleyTalk/app/dialogue"
)

// windowSize is how many of the most recent memories stay in the sampling
// window once a new calendar date fixes the cutoff.
const windowSize = 20

// daysPerYear is the counter period for repeating world milestones; counters
// past one year are only surfaced on anniversaries.
const daysPerYear = 4 * daysPerSeason

// Milestones maps the game's milestone counter keys to the phrasing a
// character remembers them by.
var Milestones = map[string]string{
	"cc_Bus":        "the bus to the desert was repaired",
	"cc_Boulder":    "the boulder blocking the mountain lake was removed",
	"cc_Bridge":     "the bridge to the quarry was rebuilt",
	"cc_Complete":   "the community center was fully restored",
	"cc_Greenhouse": "the greenhouse was rebuilt",
	"cc_Minecart":   "the minecarts were repaired",
	"wonIceFishing": "the player won the ice fishing contest",
	"wonGrange":     "the player won the grange display",
	"wonEggHunt":    "the player won the egg hunt",
}

// Log is one character's append-only memory, ordered by in-game time.
// A Log serializes its own reads and writes; a read started after an append
// observes that append.
type Log struct {
	mu      sync.RWMutex
	entries []Entry

	cutoff     *Time
	cutoffDate *Time
}

func NewLog() *Log {
	return &Log{}
}

// Append records an event. Entries almost always arrive in time order; a
// late arrival is inserted at its proper position to keep the log sorted.
func (l *Log) Append(t Time, ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := Entry{Time: t, Event: ev}
	n := len(l.entries)
	if n == 0 || !l.entries[n-1].Time.After(t) {
		l.entries = append(l.entries, entry)
		return
	}
	at := sort.Search(n, func(i int) bool { return l.entries[i].Time.After(t) })
	l.entries = append(l.entries, Entry{})
	copy(l.entries[at+1:], l.entries[at:])
	l.entries[at] = entry
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Last returns the most recent entry.
func (l *Log) Last() (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.entries) == 0 {
		return Entry{}, false
	}
	return l.entries[len(l.entries)-1], true
}

// All returns a snapshot of the full log.
func (l *Log) All() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// RemoveOverlappingEvent drops earlier overheard entries whose speaker took
// part in a newly recorded event and whose lines the event already contains,
// so the same exchange is not retold twice.
func (l *Log) RemoveOverlappingEvent(participants []string, lines []string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = pie.Filter(l.entries, func(e Entry) bool {
		if e.Event.Kind != KindOverheard {
			return true
		}
		if !pie.Contains(participants, e.Event.Speaker) {
			return true
		}
		return !subset(e.Event.Lines, lines)
	})
}

// RemoveOverlappingConversation drops spoken-dialogue entries whose line
// sequence appears verbatim inside the recorded free-form conversation.
func (l *Log) RemoveOverlappingConversation(turns []dialogue.Turn) {
	texts := pie.Map(turns, func(t dialogue.Turn) string { return t.Text })

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = pie.Filter(l.entries, func(e Entry) bool {
		if e.Event.Kind != KindDialogue {
			return true
		}
		return !contiguousSubsequence(e.Event.Lines, texts)
	})
}

// ClearConversations forgets all free-form chat entries.
func (l *Log) ClearConversations() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = pie.Filter(l.entries, func(e Entry) bool {
		return e.Event.Kind != KindConversation
	})
}

// MatchesLastDialogue reports whether the newest entry is spoken dialogue
// with exactly these lines.
func (l *Log) MatchesLastDialogue(lines []string) bool {
	last, ok := l.Last()
	if !ok || last.Event.Kind != KindDialogue {
		return false
	}
	return pie.Equals(last.Event.Lines, lines)
}

// SpokeJustNow reports whether the character spoke within the current
// ten-minute game tick.
func (l *Log) SpokeJustNow(now Time) bool {
	last, ok := l.Last()
	if !ok {
		return false
	}
	switch last.Event.Kind {
	case KindDialogue, KindConversation, KindEventDialogue:
		return last.Time.SameDate(now) && now.TimeOfDay-last.Time.TimeOfDay < 10
	}
	return false
}

/// WindowedSample returns the memories worth mentioning right now: the stored
// log merged with milestone counters (each counter value is a day offset back
// from now), cut off at the timestamp of the 20th-most-recent entry. The
// cutoff is recomputed only when the calendar date changes, so repeated
// samples within one day see a stable window.
func (l *Log) WindowedSample(now Time, milestoneDays map[string]int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	merged := make([]Entry, len(l.entries))
	copy(merged, l.entries)
	for name, days := range milestoneDays {
		description, known := Milestones[name]
		if !known {
			continue
		}
		if days >= daysPerYear && days%daysPerYear != 0 {
			continue
		}
		merged = append(merged, Entry{Time: now.AddDays(-days), Event: Activity(description)})
	}
	if len(merged) == 0 {
		return nil
	}

	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Time.Before(merged[j].Time) })

	if l.cutoffDate == nil || !l.cutoffDate.SameDate(now) {
		at := len(merged) - windowSize
		if at < 0 {
			at = 0
		}
		cutoff := merged[at].Time
		date := now
		l.cutoff = &cutoff
		l.cutoffDate = &date
	}

	return pie.Filter(merged, func(e Entry) bool { return e.Time.After(*l.cutoff) })
}

// subset reports whether every element of sub occurs in super.
func subset(sub, super []string) bool {
	for _, s := range sub {
		if !pie.Contains(super, s) {
			return false
		}
	}
	return true
}

// contiguousSubsequence reports whether seq appears as a contiguous run in full.
func contiguousSubsequence(seq, full []string) bool {
	if len(seq) == 0 || len(seq) > len(full) {
		return false
	}
	for start := 0; start+len(seq) <= len(full); start++ {
		match := true
		for i := range seq {
			if full[start+i] != seq[i] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
