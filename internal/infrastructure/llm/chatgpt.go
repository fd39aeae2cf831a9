package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"DailyDigest/internal/config"
	"DailyDigest/internal/domain"
	"DailyDigest/internal/ports"
)

const defaultModel = "gpt-4o"

// ChatGPTClient implements ports.TextGenerator on the OpenAI chat completions API.
type ChatGPTClient struct {
	client openai.Client
	model  string
	apiKey string
}

var _ ports.TextGenerator = (*ChatGPTClient)(nil)

// NewChatGPTClient builds a client from configuration. A missing API key is not
// an error here; every Generate call then fails with an auth failure.
func NewChatGPTClient(cfg config.ChatGPTConfig) *ChatGPTClient {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	return &ChatGPTClient{
		client: openai.NewClient(opts...),
		model:  model,
		apiKey: cfg.APIKey,
	}
}

// Generate sends the system instruction and prompt and returns the first choice's text.
func (c *ChatGPTClient) Generate(ctx context.Context, system, prompt string) (string, error) {
	if c == nil {
		return "", &domain.GenerationError{Kind: domain.GenerationUnknown, Err: errors.New("chatgpt client is nil")}
	}
	if c.apiKey == "" {
		return "", &domain.GenerationError{Kind: domain.GenerationAuth, Err: domain.ErrMissingAPIKey}
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(safePrompt(system)),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", &domain.GenerationError{Kind: classify(err), Err: fmt.Errorf("openai request failed: %w", err)}
	}

	if len(resp.Choices) == 0 {
		return "", &domain.GenerationError{Kind: domain.GenerationMalformed, Err: errors.New("no choices in openai response")}
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", &domain.GenerationError{Kind: domain.GenerationMalformed, Err: errors.New("empty openai response")}
	}
	return content, nil
}

func classify(err error) domain.GenerationFailureKind {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden:
			return domain.GenerationAuth
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return domain.GenerationRateLimit
		case apiErr.StatusCode >= http.StatusInternalServerError:
			return domain.GenerationNetwork
		default:
			return domain.GenerationUnknown
		}
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.As(err, &netErr) {
		return domain.GenerationNetwork
	}
	return domain.GenerationMalformed
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You are a concise editor who summarizes articles."
	}
	return prompt
}
