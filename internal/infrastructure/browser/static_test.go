package browser

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DailyDigest/internal/domain"
)

func TestStaticLoaderLoad(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(`<html><body><div class="item">hello</div></body></html>`))
		case "/slow":
			time.Sleep(300 * time.Millisecond)
			_, _ = w.Write([]byte(`<html></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	loader := NewStaticLoader(Options{NavigationTimeout: time.Second, UserAgent: "DailyDigest/test"}, nil)

	html, err := loader.Load(context.Background(), server.URL+"/ok", ".item")
	require.NoError(t, err)
	assert.Contains(t, html, "hello")

	_, err = loader.Load(context.Background(), server.URL+"/ok", ".missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrElementNotFound))

	_, err = loader.Load(context.Background(), server.URL+"/gone", "")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrElementNotFound))

	short := NewStaticLoader(Options{NavigationTimeout: 50 * time.Millisecond}, nil)
	_, err = short.Load(context.Background(), server.URL+"/slow", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestStaticLoaderCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStaticLoader(Options{}, nil).Load(ctx, "http://127.0.0.1:1/", "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStaticLoaderCancelStopsInflightRequest(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
		_, _ = w.Write([]byte(`<html></html>`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	loader := NewStaticLoader(Options{NavigationTimeout: 10 * time.Second}, nil)
	start := time.Now()
	_, err := loader.Load(ctx, server.URL+"/hang", "")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestOptionsDefaults(t *testing.T) {
	t.Parallel()

	opts := Options{}.withDefaults()
	assert.Equal(t, 60*time.Second, opts.NavigationTimeout)
	assert.Equal(t, 10*time.Second, opts.SelectorTimeout)
}
