package dialogue

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ParseKey decodes a flat dialogue key into a Context. Parsing never fails:
// a key that matches none of the structural shapes degrades to a context whose
// ChatID is the whole key verbatim.
//
// The key is a left-to-right sequence of `_`-separated segments. Each rule
// below consumes its segments only when its trigger matches, so any prefix of
// rules may be skipped.
func ParseKey(key string) *Context {
	c := NewContext()

	elements := strings.Split(key, "_")
	for len(elements) > 0 && elements[0] == "" {
		elements = elements[1:]
	}
	if len(elements) == 0 {
		return c
	}

	if elements[0] == "M" {
		c.Married = true
		elements = elements[1:]
	}
	if len(elements) > 0 && elements[0] == "B" {
		c.Birthday = true
		elements = elements[1:]
	}
	if len(elements) == 0 {
		return c
	}

	if _, err := strconv.Atoi(elements[0]); err != nil {
		if season, ok := ParseSeason(elements[0]); ok {
			c.Season = &season
			elements = elements[1:]
		}
	}
	if len(elements) == 0 {
		return c
	}

	switch {
	case isGUID(elements[0]):
		// A GUID names a generated chat; the segment after it disambiguates it.
		if len(elements) > 1 {
			c.ChatID = elements[0] + "_" + elements[1]
			elements = elements[2:]
		} else {
			c.ChatID = elements[0]
			elements = nil
		}

	case matchPrefix(key, Locations) != "":
		c.Location = matchPrefix(key, Locations)
		c.Hearts = intPtr(trailingNumber(key[len(c.Location):]))
		elements = elements[1:]

	case matchPrefix(key, SpecialChats) != "" && !strings.Contains(key, "_Day") && !strings.Contains(key, "_Night"):
		c.ChatID = matchPrefix(key, SpecialChats)
		c.Hearts = intPtr(trailingNumber(key[len(c.ChatID):]))
		elements = elements[1:]

	case len(elements[0]) >= 3 && isWeekdayPrefix(elements[0]):
		day, _ := ParseWeekday(elements[0][:3])
		c.Day = &day
		c.Hearts = intPtr(trailingNumber(elements[0][3:]))
		elements = elements[1:]

	case isNumber(elements[0]):
		n, _ := strconv.Atoi(elements[0])
		c.DayOfSeason = &n
		elements = elements[1:]

	case strings.HasPrefix(strings.ToLower(elements[0]), "accept"):
		// The gift reference is recognised and skipped; gift context is
		// supplied by the caller, not recovered from the key.
		if len(elements) > 1 {
			gift := elements[1]
			for strings.HasPrefix(gift, "(O)") {
				gift = gift[3:]
			}
			_ = gift
			elements = elements[2:]
		} else {
			elements = elements[1:]
		}

	case isRandomAction(elements[0]):
		act, _ := ParseRandomAction(elements[0])
		c.RandomAct = &act
		if act.NeedsTimeOfDay() && len(elements) >= 2 {
			c.TimeOfDay = elements[1]
			elements = elements[2:]
		} else {
			elements = elements[1:]
		}
		if len(elements) > 0 && isNumber(elements[0]) {
			n, _ := strconv.Atoi(elements[0])
			c.RandomValue = &n
			elements = elements[1:]
		}

	case len(elements) >= 2 && isSpouseAction(elements[0]):
		act, _ := ParseSpouseAction(elements[0])
		c.SpouseAct = &act
		c.Spouse = elements[1]
		elements = elements[2:]

	default:
		c.ChatID = key
		elements = nil
	}
	if len(elements) == 0 {
		return c
	}

	if isNumber(elements[0]) {
		n, _ := strconv.Atoi(elements[0])
		c.Year = &n
		elements = elements[1:]
	}
	if len(elements) >= 2 && elements[0] == "inlaw" {
		c.Inlaw = elements[1]
	}

	return c
}

// Key encodes the context back into its flat form. A chat identifier
// short-circuits everything else; otherwise segments are emitted in the same
// precedence order the parser consumes them.
func (c *Context) Key() string {
	if c.ChatID != "" {
		return c.ChatID
	}

	var elements []string

	if c.Location != "" {
		if c.Hearts != nil && *c.Hearts > 0 {
			elements = append(elements, c.Location+strconv.Itoa(*c.Hearts))
		} else {
			elements = append(elements, c.Location)
		}
	}
	if c.Season != nil {
		elements = append(elements, string(*c.Season))
	}
	switch {
	case c.Day != nil:
		day := string(*c.Day)
		if c.Hearts != nil && *c.Hearts > 0 {
			day += strconv.Itoa(*c.Hearts)
		}
		elements = append(elements, day)
	case c.DayOfSeason != nil:
		elements = append(elements, strconv.Itoa(*c.DayOfSeason))
	case c.Spouse != "" && c.SpouseAct == nil && c.RandomAct == nil:
		elements = append(elements, c.Spouse)
	}
	if c.Accept != "" {
		elements = append(elements, "AcceptGift", "(O)"+c.Accept)
	}
	if c.RandomAct != nil {
		elements = append(elements, string(*c.RandomAct))
		if c.TimeOfDay != "" {
			elements = append(elements, c.TimeOfDay)
		}
		switch {
		case c.RandomValue != nil:
			elements = append(elements, strconv.Itoa(*c.RandomValue))
		case c.Spouse != "":
			elements = append(elements, c.Spouse)
		default:
			elements = append(elements, "")
		}
	}
	if c.SpouseAct != nil {
		elements = append(elements, string(*c.SpouseAct), c.Spouse)
	}
	if c.Year != nil && *c.Year > 1 {
		elements = append(elements, strconv.Itoa(*c.Year))
	}
	if c.Inlaw != "" {
		elements = append(elements, "inlaw", c.Inlaw)
	}

	return strings.Join(elements, "_")
}

func isGUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

func isNumber(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

func isWeekdayPrefix(s string) bool {
	_, ok := ParseWeekday(s[:3])
	return ok
}

func isRandomAction(s string) bool {
	_, ok := ParseRandomAction(s)
	return ok
}

func isSpouseAction(s string) bool {
	_, ok := ParseSpouseAction(s)
	return ok
}

// matchPrefix returns the canonical entry the key starts with, ignoring case.
func matchPrefix(key string, options []string) string {
	for _, option := range options {
		if len(key) >= len(option) && strings.EqualFold(key[:len(option)], option) {
			return option
		}
	}
	return ""
}

// trailingNumber parses the remainder of a prefixed segment as a heart level,
// defaulting to zero.
func trailingNumber(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func intPtr(n int) *int {
	return &n
}
