package character

import (
	"fmt"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hyperfocist/ValleyTalk/app/dialogue"
	"github.com/hyperfocist/ValleyTalk/app/service/bank"
	"github.com/hyperfocist/ValleyTalk/app/service/history"
)

const (
	// DefaultSampleLimit caps how many bank lines reach the prompt.
	DefaultSampleLimit = 20

	sampleCacheSize = 8
)

type sampleCacheKey struct {
	season  string
	day     int
	hearts  int
	married bool
}

// Character owns everything situational about one NPC: bio, dialogue
// bank, event history and the ranked-sample cache. Generation requests
// for the same character must hold its generation lock.
type Character struct {
	Name    string
	Bio     *bank.Bio
	History *history.Log

	samples     []dialogue.Sample
	sampleCache *lru.Cache[sampleCacheKey, []dialogue.Sample]

	genMu sync.Mutex
}

func newCharacter(name string, bio *bank.Bio, samples []dialogue.Sample) (*Character, error) {
	cache, err := lru.New[sampleCacheKey, []dialogue.Sample](sampleCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create sample cache: %w", err)
	}

	return &Character{
		Name:        name,
		Bio:         bio,
		History:     history.NewLog(),
		samples:     samples,
		sampleCache: cache,
	}, nil
}

// LockGeneration serializes dialogue generation for this character.
func (c *Character) LockGeneration() {
	c.genMu.Lock()
}

func (c *Character) UnlockGeneration() {
	c.genMu.Unlock()
}

// ValidPortraits returns the portrait tags usable in this character's lines.
func (c *Character) ValidPortraits() []string {
	return c.Bio.ValidPortraits()
}

// SelectSamples returns the bank lines closest to ctx, ascending by
// distance, at most limit of them. Results are cached per situational
// bucket: the cache is a pure function of (season, day, hearts, married),
// so concurrent recomputation only costs duplicated work.
func (c *Character) SelectSamples(ctx *dialogue.Context, limit int) []dialogue.Sample {
	if limit <= 0 {
		limit = DefaultSampleLimit
	}

	key := sampleCacheKey{married: ctx.Married}
	if ctx.Season != nil {
		key.season = string(*ctx.Season)
	}
	if ctx.DayOfSeason != nil {
		key.day = *ctx.DayOfSeason
	}
	if ctx.Hearts != nil {
		key.hearts = *ctx.Hearts
	}
	if cached, ok := c.sampleCache.Get(key); ok {
		return cached
	}

	type ranked struct {
		sample   dialogue.Sample
		distance int
	}
	candidates := make([]ranked, 0, len(c.samples))
	for _, sample := range c.samples {
		if sample.Context == nil {
			continue
		}
		candidates = append(candidates, ranked{
			sample:   sample,
			distance: sample.Context.Distance(ctx),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].distance < candidates[j].distance
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	result := make([]dialogue.Sample, len(candidates))
	for i, candidate := range candidates {
		result[i] = candidate.sample
	}

	c.sampleCache.Add(key, result)
	return result
}
