package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hyperfocist/ValleyTalk/app/config"
	"github.com/samber/do"
	"github.com/samber/oops"
)

const defaultMaxTokens = 2048

// Request carries one inference call. The two cached context blocks are kept
// separate from the prompt so backends that support prompt caching can pin
// them; backends without caching simply concatenate.
type Request struct {
	System        string
	GameContext   string
	NpcContext    string
	Prompt        string
	ResponseStart string
	MaxTokens     int
	CacheHandle   string
	AllowRetry    bool
}

// Response is the outcome of one inference call. It is never partially
// valid: either Success is set and Text is usable, or the call failed and
// ErrorMessage/StatusCode describe why.
type Response struct {
	Success      bool
	Text         string
	ErrorMessage string
	StatusCode   int
}

// Backend is an inference provider. Transport-level failures are returned as
// errors; a reachable backend that produced no usable text returns a
// Response with Success unset.
type Backend interface {
	Name() string
	RunInference(ctx context.Context, req Request) (*Response, error)
	Stats() *TokenStats
}

// ProbabilityBackend is the optional token-probability capability. Callers
// must check for it with a type assertion; ErrNoProbabilities distinguishes
// an unsupported backend from an empty result.
type ProbabilityBackend interface {
	// RunInferenceProbabilities returns, per generated token position, the
	// candidate tokens mapped to their probability.
	RunInferenceProbabilities(ctx context.Context, prompt string, maxTokens int) ([]map[string]float64, error)
}

// ErrNoProbabilities is returned when the configured backend cannot report
// token probabilities.
var ErrNoProbabilities = errors.New("backend does not support token probabilities")

// New builds the backend selected by the configuration.
func New(di *do.Injector) (Backend, error) {
	cfg := do.MustInvoke[*config.Config](di)

	switch cfg.LLM.Provider {
	case "openai":
		return NewOpenAI(cfg), nil
	case "ollama":
		return NewOllama(cfg)
	case "dummy":
		return NewDummy(), nil
	}
	return nil, oops.Errorf("unknown llm provider: %s", cfg.LLM.Provider)
}

// TokenStats aggregates token usage across all calls to one backend.
type TokenStats struct {
	mu               sync.Mutex
	promptTokens     int64
	completionTokens int64
	calls            int64
}

func (s *TokenStats) Add(prompt, completion int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promptTokens += int64(prompt)
	s.completionTokens += int64(completion)
	s.calls++
}

// Snapshot returns the counters as plain values.
func (s *TokenStats) Snapshot() (calls, prompt, completion int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls, s.promptTokens, s.completionTokens
}

func (s *TokenStats) String() string {
	calls, prompt, completion := s.Snapshot()
	return fmt.Sprintf("%d calls, %d prompt tokens, %d completion tokens", calls, prompt, completion)
}
