package llm

import (
	"context"
	"net/http"
	"strings"

	"github.com/hyperfocist/ValleyTalk/app/config"
	"github.com/samber/oops"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// OllamaBackend runs inference against a local ollama server. It has no
// token-probability capability.
type OllamaBackend struct {
	model *ollama.LLM
	stats TokenStats
}

func NewOllama(cfg *config.Config) (*OllamaBackend, error) {
	opts := []ollama.Option{ollama.WithModel(cfg.LLM.Model)}
	if cfg.LLM.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(cfg.LLM.BaseURL))
	}

	model, err := ollama.New(opts...)
	if err != nil {
		return nil, oops.Errorf("failed to create ollama client: %w", err)
	}

	return &OllamaBackend{model: model}, nil
}

func (b *OllamaBackend) Name() string { return "ollama" }

func (b *OllamaBackend) Stats() *TokenStats { return &b.stats }

func (b *OllamaBackend) RunInference(ctx context.Context, req Request) (*Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	prompt := req.GameContext + req.NpcContext + req.Prompt
	if req.ResponseStart != "" {
		prompt += "\n" + req.ResponseStart
	}

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, req.System),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	completion, err := b.model.GenerateContent(ctx, content, llms.WithMaxTokens(maxTokens))
	if err != nil {
		return nil, err
	}

	if len(completion.Choices) == 0 || strings.TrimSpace(completion.Choices[0].Content) == "" {
		return &Response{Success: false, ErrorMessage: "empty completion", StatusCode: http.StatusOK}, nil
	}

	return &Response{Success: true, Text: completion.Choices[0].Content, StatusCode: http.StatusOK}, nil
}
