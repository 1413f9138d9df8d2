package dialogue

import "math/rand/v2"

// Distance weights. The larger a constant, the harder a mismatch on that
// field disqualifies a candidate.
const (
	maxDistance        = 10000
	heartsWeight       = 100
	seasonMismatch     = 50
	weekdayMismatch    = 1
	dayOfSeasonPenalty = 200
	giftPresence       = 2000
	timeOfDayMismatch  = 20
	jitterRange        = 10
)

// Distance scores how dissimilar the candidate context is from c for ranking
// purposes. Zero means indistinguishable as far as ranking cares; it is not
// full equality. A small random jitter breaks ties so repeated lookups do not
// always surface the same exemplar.
//
// The heart term is |c.Hearts - other.Hearts| with unset levels read as zero.
func (c *Context) Distance(other *Context) int {
	if other.Empty() {
		return maxDistance
	}

	difference := 0

	difference += abs(intOrZero(c.Hearts)-intOrZero(other.Hearts)) * heartsWeight

	if !seasonPtrEq(c.Season, other.Season) {
		difference += seasonMismatch
	}
	if !dayPtrEq(c.Day, other.Day) {
		difference += weekdayMismatch
	}
	if !intPtrEq(c.DayOfSeason, other.DayOfSeason) {
		difference += dayOfSeasonPenalty
	}
	if (c.Accept == "") != (other.Accept == "") {
		difference += giftPresence
	}
	if c.TimeOfDay != other.TimeOfDay {
		difference += timeOfDayMismatch
	}

	difference += tier(c.RandomAct == nil, other.RandomAct == nil, randomPtrEq(c.RandomAct, other.RandomAct), 200, 2000)
	difference += tier(c.SpouseAct == nil, other.SpouseAct == nil, spousePtrEq(c.SpouseAct, other.SpouseAct), 200, 2000)
	difference += tier(c.Spouse == "", other.Spouse == "", c.Spouse == other.Spouse, 10000, 2000)
	difference += tier(c.Year == nil, other.Year == nil, intPtrEq(c.Year, other.Year), 200, 200)
	difference += tier(c.Inlaw == "", other.Inlaw == "", c.Inlaw == other.Inlaw, 500, 1000)

	difference += rand.IntN(jitterRange)

	return difference
}

// tier implements the three-way comparison used for the optional fields:
// both unset or equal cost nothing, one side unset costs ifOneUnset, both set
// but different costs ifDifferent.
func tier(aUnset, bUnset, equal bool, ifDifferent, ifOneUnset int) int {
	if aUnset != bUnset {
		return ifOneUnset
	}
	if aUnset && bUnset {
		return 0
	}
	if equal {
		return 0
	}
	return ifDifferent
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
