package llm

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/hyperfocist/ValleyTalk/app/config"
	"github.com/sashabaranov/go-openai"
)

const emptyResponseRetries = 3

var _ ProbabilityBackend = (*OpenAIBackend)(nil)

// OpenAIBackend talks to any OpenAI-compatible chat completion server.
type OpenAIBackend struct {
	client *openai.Client
	model  string
	stats  TokenStats
}

func NewOpenAI(cfg *config.Config) *OpenAIBackend {
	clientConfig := openai.DefaultConfig(cfg.LLM.Token)
	if cfg.LLM.BaseURL != "" {
		clientConfig.BaseURL = cfg.LLM.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{
		Timeout: 5 * time.Minute, // per-call deadlines come from the caller's context
	}

	return &OpenAIBackend{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.LLM.Model,
	}
}

func (b *OpenAIBackend) Name() string { return "openai" }

func (b *OpenAIBackend) Stats() *TokenStats { return &b.stats }

func (b *OpenAIBackend) RunInference(ctx context.Context, req Request) (*Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		},
		{
			Role:    openai.ChatMessageRoleUser,
			Content: req.GameContext + req.NpcContext + req.Prompt,
		},
	}
	if req.ResponseStart != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleAssistant,
			Content: req.ResponseStart,
		})
	}

	tries := 1
	if req.AllowRetry {
		tries = emptyResponseRetries
	}

	var lastStatus int
	var lastMessage string
	for attempt := 0; attempt < tries; attempt++ {
		completion, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:     b.model,
			MaxTokens: maxTokens,
			Messages:  messages,
		})
		if err != nil {
			var apiErr *openai.APIError
			if errors.As(err, &apiErr) {
				// The server answered; remember why and try again.
				lastStatus = apiErr.HTTPStatusCode
				lastMessage = apiErr.Message
				continue
			}
			return nil, err
		}

		b.stats.Add(completion.Usage.PromptTokens, completion.Usage.CompletionTokens)

		if len(completion.Choices) == 0 {
			lastStatus = http.StatusOK
			lastMessage = "no choices in completion"
			continue
		}
		text := completion.Choices[0].Message.Content
		if strings.TrimSpace(text) == "" {
			lastStatus = http.StatusOK
			lastMessage = "empty completion text"
			continue
		}
		return &Response{Success: true, Text: text, StatusCode: http.StatusOK}, nil
	}

	if lastStatus == 0 {
		lastStatus = http.StatusInternalServerError
	}
	return &Response{Success: false, ErrorMessage: lastMessage, StatusCode: lastStatus}, nil
}

// RunInferenceProbabilities asks for per-token logprobs and converts them to
// plain probabilities.
func (b *OpenAIBackend) RunInferenceProbabilities(ctx context.Context, prompt string, maxTokens int) ([]map[string]float64, error) {
	if maxTokens == 0 {
		maxTokens = 1
	}

	completion, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     b.model,
		MaxTokens: maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		LogProbs:    true,
		TopLogProbs: 10,
	})
	if err != nil {
		return nil, err
	}

	b.stats.Add(completion.Usage.PromptTokens, completion.Usage.CompletionTokens)

	if len(completion.Choices) == 0 || completion.Choices[0].LogProbs == nil {
		return nil, nil
	}

	content := completion.Choices[0].LogProbs.Content
	result := make([]map[string]float64, 0, len(content))
	for _, position := range content {
		probs := make(map[string]float64, len(position.TopLogProbs))
		for _, candidate := range position.TopLogProbs {
			probs[candidate.Token] = math.Exp(candidate.LogProb)
		}
		result = append(result, probs)
	}
	return result, nil
}
