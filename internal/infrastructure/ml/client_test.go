package ml

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"DailyDigest/internal/domain"
)

func TestClientGenerate(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req["system"] != "editor" || req["prompt"] != "title" {
			t.Errorf("unexpected payload %v", req)
		}
		_, _ = w.Write([]byte(`{"text":"・A\n・B\n・C"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "secret", time.Second)
	text, err := client.Generate(context.Background(), "editor", "title")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if text != "・A\n・B\n・C" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestClientGenerateFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status int
		body   string
		want   domain.GenerationFailureKind
	}{
		{http.StatusUnauthorized, ``, domain.GenerationAuth},
		{http.StatusTooManyRequests, ``, domain.GenerationRateLimit},
		{http.StatusBadGateway, ``, domain.GenerationNetwork},
		{http.StatusOK, `not json`, domain.GenerationMalformed},
		{http.StatusOK, `{"text":""}`, domain.GenerationMalformed},
	}

	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(tc.body))
		}))

		_, err := NewClient(server.URL, "", time.Second).Generate(context.Background(), "", "x")
		server.Close()

		if err == nil {
			t.Fatalf("status %d: expected error", tc.status)
		}
		if got := domain.GenerationKindOf(err); got != tc.want {
			t.Fatalf("status %d body %q: expected %s, got %s", tc.status, tc.body, tc.want, got)
		}
	}
}
