package llm

import (
	"context"
	"math/rand/v2"
	"net/http"
)

// DummyBackend fabricates plausible output without any network access.
// Useful for development and wiring tests.
type DummyBackend struct {
	stats TokenStats
}

func NewDummy() *DummyBackend {
	return &DummyBackend{}
}

func (b *DummyBackend) Name() string { return "dummy" }

func (b *DummyBackend) Stats() *TokenStats { return &b.stats }

func (b *DummyBackend) RunInference(_ context.Context, _ Request) (*Response, error) {
	text := "- Generated line."
	if rand.IntN(2) == 0 {
		text = "- Generated question?\n% One answer\n% Another answer\n% A third answer"
	}
	return &Response{Success: true, Text: text, StatusCode: http.StatusOK}, nil
}
