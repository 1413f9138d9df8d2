package llm

import (
	"context"
	"log/slog"
	"time"
)

const checkTimeout = 2 * time.Minute

// CheckConnection sends a tiny probe request to verify the backend is
// reachable and the model actually answers. Returns false when generation
// should be disabled for the session.
func CheckConnection(ctx context.Context, backend Backend) bool {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	resp, err := backend.RunInference(ctx, Request{
		Prompt:    "Reply with the single word: pong",
		MaxTokens: 16,
	})
	if err != nil {
		slog.Error("LLM connection check failed",
			slog.String("backend", backend.Name()),
			slog.Any("error", err),
			slog.String("hint", "check base_url, network access and that the server is running"),
		)
		return false
	}
	if !resp.Success {
		slog.Error("LLM connection check rejected",
			slog.String("backend", backend.Name()),
			slog.Int("status", resp.StatusCode),
			slog.String("message", resp.ErrorMessage),
			slog.String("hint", diagnose(resp.StatusCode)),
		)
		return false
	}

	slog.Info("LLM connection check passed", slog.String("backend", backend.Name()))
	return true
}

func diagnose(status int) string {
	switch status {
	case 401, 403:
		return "the token was rejected, check llm.token in config.yaml"
	case 404:
		return "the model was not found, check llm.model and llm.base_url"
	case 429:
		return "the provider is rate limiting, wait and restart"
	default:
		return "check llm.base_url and llm.model in config.yaml"
	}
}
