package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinoosan/wealth/internal/errs"
)

func newTestClient(t *testing.T, h http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{Provider: "anthropic", APIKey: "test-key", Model: "test-model", MaxTokens: 256, BaseURL: srv.URL})
	require.NoError(t, err)
	require.NotNil(t, c)
	return c
}

func TestAnthropicComplete(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"test-model",` +
			`"content":[{"type":"text","text":"Spend less on takeout."}],` +
			`"stop_reason":"end_turn","usage":{"input_tokens":10,"output_tokens":5}}`))
	})

	got, err := c.Complete(context.Background(), Request{System: "You are a budgeting assistant.", Prompt: "Advise me", Temperature: 0.3})
	require.NoError(t, err)
	assert.Equal(t, "Spend less on takeout.", got)
	assert.Equal(t, "test-model", body["model"])
	assert.EqualValues(t, 256, body["max_tokens"])
	assert.InDelta(t, 0.3, body["temperature"], 1e-9)
}

func TestAnthropicErrorsAreProviderUnavailable(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusTooManyRequests, http.StatusInternalServerError} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"nope"}}`))
		})
		_, err := c.Complete(context.Background(), Request{Prompt: "hi"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errs.ErrProviderUnavailable), "status %d: %v", status, err)
	}
}

func TestNewClientWithoutKeyReturnsNil(t *testing.T) {
	c, err := NewClient(Config{Provider: "anthropic"})
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = NewClient(Config{Provider: "mystery", APIKey: "k"})
	assert.Error(t, err)
}
