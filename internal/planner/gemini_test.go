package planner

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smarttaskflow/pkg/circuitbreaker"
	"smarttaskflow/pkg/config"
)

func TestGeminiClientGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))

		var req generateRequest
		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) && assert.Len(t, req.Contents, 1) {
			assert.Equal(t, "hello", req.Contents[0].Parts[0].Text)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"tasks\":"},{"text":"[]}"}]}}]}`))
	}))
	defer srv.Close()

	c := NewGeminiClient(config.GeminiConfig{APIKey: "secret", Model: "models/gemini-2.5-flash", BaseURL: srv.URL + "/"})
	text, err := c.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, `{"tasks":[]}`, text)
}

func TestGeminiClientSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`))
	}))
	defer srv.Close()

	c := NewGeminiClient(config.GeminiConfig{APIKey: "bad", BaseURL: srv.URL})
	_, err := c.Generate(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not valid")
}

func TestGeminiClientNoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	c := NewGeminiClient(config.GeminiConfig{BaseURL: srv.URL, Timeout: time.Second})
	_, err := c.Generate(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGeminiClientOpensBreaker(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewGeminiClient(config.GeminiConfig{BaseURL: srv.URL})
	for i := 0; i < 5; i++ {
		_, err := c.Generate(context.Background(), "hello")
		require.Error(t, err)
	}

	_, err := c.Generate(context.Background(), "hello")
	assert.True(t, errors.Is(err, circuitbreaker.ErrCircuitBreakerOpen))
	assert.Equal(t, int32(5), calls.Load())
}
