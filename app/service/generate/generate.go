package generate

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hyperfocist/ValleyTalk/app/client/llm"
	"github.com/hyperfocist/ValleyTalk/app/config"
	"github.com/hyperfocist/ValleyTalk/app/dialogue"
	"github.com/hyperfocist/ValleyTalk/app/service/character"
	"github.com/hyperfocist/ValleyTalk/app/service/history"
	"github.com/hyperfocist/ValleyTalk/app/service/normalize"
	"github.com/hyperfocist/ValleyTalk/app/service/prompt"
	"github.com/samber/do"
)

const (
	maxRetryAttempts = 4

	// fallbackLine is what the player sees when every attempt failed.
	fallbackLine = "..."
)

var retryDelay = 5 * time.Second

// Service drives the retry loop around one dialogue generation: per-attempt
// timeouts, cooperative backoff, relaxed validation on late attempts and a
// guaranteed non-empty result.
type Service struct {
	cfg        *config.Config
	backend    llm.Backend
	normalizer *normalize.Service
	prompts    *prompt.Builder

	enabled atomic.Bool
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	s := &Service{
		cfg:        cfg,
		backend:    do.MustInvoke[llm.Backend](di),
		normalizer: do.MustInvoke[*normalize.Service](di),
		prompts:    do.MustInvoke[*prompt.Builder](di),
	}
	s.enabled.Store(true)

	if !cfg.LLM.SuppressConnectionCheck {
		go func() {
			if !llm.CheckConnection(context.Background(), s.backend) {
				s.enabled.Store(false)
				slog.Error("dialogue generation disabled for this session")
			}
		}()
	}

	return s, nil
}

// Generate produces the final dialogue lines for one situation. It never
// fails hard: transport errors and rejected model output degrade to a
// single placeholder line after the retries are exhausted.
func (s *Service) Generate(ctx context.Context, char *character.Character, dctx *dialogue.Context, now history.Time, milestones map[string]int) []string {
	char.LockGeneration()
	defer char.UnlockGeneration()

	prompts := s.prompts.Build(dctx, char, now, milestones)

	if !s.enabled.Load() {
		return []string{fallbackLine}
	}

	results := s.runAttempts(ctx, char, dctx, prompts)

	if len(results) > 0 && prompts.GiveGift != "" {
		results[0] += "[" + prompts.GiveGift + "]"
	}
	return results
}

func (s *Service) runAttempts(ctx context.Context, char *character.Character, dctx *dialogue.Context, prompts *prompt.Prompts) []string {
	timeout := s.cfg.QueryTimeout()
	validPortraits := char.ValidPortraits()

	var lastErr error
	for attempt := 0; attempt <= maxRetryAttempts; attempt++ {
		if attempt >= 2 {
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				lastErr = ctx.Err()
			}
			timeout *= 2
		}
		if ctx.Err() != nil {
			break
		}

		lines, err := s.attempt(ctx, timeout, char.Name, prompts, normalize.Options{
			Relaxed:        attempt >= 2,
			ValidPortraits: validPortraits,
		})
		if err != nil {
			slog.Error("dialogue generation attempt failed",
				slog.String("npc", char.Name),
				slog.Int("attempt", attempt),
				slog.Any("error", err),
			)
			lastErr = err
			continue
		}
		if len(lines) > 0 {
			s.dumpDebug(char.Name, dctx, prompts, lines)
			return lines
		}

		slog.Warn("no valid dialogue in model response",
			slog.String("npc", char.Name),
			slog.Int("attempt", attempt),
		)
	}

	if lastErr != nil {
		slog.Error("dialogue generation exhausted all attempts",
			slog.String("npc", char.Name),
			slog.String("key", dctx.Key()),
			slog.Any("error", lastErr),
		)
		return []string{fallbackLine}
	}
	return nil
}

func (s *Service) attempt(ctx context.Context, timeout time.Duration, cacheHandle string, prompts *prompt.Prompts, opts normalize.Options) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := s.backend.RunInference(ctx, llm.Request{
		System:        prompts.System,
		GameContext:   prompts.GameContext,
		NpcContext:    prompts.NpcContext,
		Prompt:        prompts.Core + prompts.Instructions + prompts.Command,
		ResponseStart: prompts.ResponseStart,
		CacheHandle:   cacheHandle,
		AllowRetry:    true,
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		if resp.ErrorMessage != "" {
			slog.Warn("backend rejected the request",
				slog.Int("status", resp.StatusCode),
				slog.String("message", resp.ErrorMessage),
			)
		}
		return nil, nil
	}

	return s.normalizer.ProcessLines(resp.Text, opts), nil
}

func (s *Service) dumpDebug(name string, dctx *dialogue.Context, prompts *prompt.Prompts, lines []string) {
	if !s.cfg.LLM.Debug {
		return
	}
	slog.Debug("generation detail",
		slog.String("npc", name),
		slog.String("key", dctx.Key()),
		slog.String("system", prompts.System),
		slog.String("core", prompts.Core),
		slog.String("command", prompts.Command),
		slog.Any("lines", lines),
	)
}
