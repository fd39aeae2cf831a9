package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DailyDigest/internal/config"
	"DailyDigest/internal/domain"
)

func completionJSON(content string) string {
	body, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
	return string(body)
}

func TestChatGPTClientGenerate(t *testing.T) {
	t.Parallel()

	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &captured)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionJSON("・要点：A\n・背景：B\n・影響：C\n")))
	}))
	defer server.Close()

	client := NewChatGPTClient(config.ChatGPTConfig{APIKey: "sk-test", BaseURL: server.URL + "/", Model: "gpt-4o"})
	text, err := client.Generate(context.Background(), "editor", "summarize")
	require.NoError(t, err)
	assert.Equal(t, "・要点：A\n・背景：B\n・影響：C", text)

	assert.Equal(t, "gpt-4o", captured["model"])
	messages, ok := captured["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "user", messages[1].(map[string]any)["role"])
}

func TestChatGPTClientClassifiesFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		body   string
		want   domain.GenerationFailureKind
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad key","type":"invalid_request_error"}}`, domain.GenerationAuth},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down","type":"rate_limit"}}`, domain.GenerationRateLimit},
		{"server error", http.StatusInternalServerError, `{"error":{"message":"oops","type":"server_error"}}`, domain.GenerationNetwork},
		{"empty content", http.StatusOK, completionJSON("   "), domain.GenerationMalformed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := NewChatGPTClient(config.ChatGPTConfig{APIKey: "sk-test", BaseURL: server.URL + "/", MaxRetries: 0})
			_, err := client.Generate(context.Background(), "", "prompt")
			require.Error(t, err)
			assert.Equal(t, tc.want, domain.GenerationKindOf(err))
		})
	}
}

func TestChatGPTClientWithoutKey(t *testing.T) {
	t.Parallel()

	_, err := NewChatGPTClient(config.ChatGPTConfig{}).Generate(context.Background(), "", "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingAPIKey)
	assert.Equal(t, domain.GenerationAuth, domain.GenerationKindOf(err))
}
