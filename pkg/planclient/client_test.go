package planclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smarttaskflow/pkg/trace"
)

func TestGeneratePlanDecodesByDiscriminant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "trace-1", r.Header.Get(trace.HeaderName))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tasks":[{"title":"A","duration_days":3,"depends_on":null,"start_date":"2024-03-10","end_date":"2024-03-12"}]}`))
	}))
	defer srv.Close()

	ctx := trace.WithContext(context.Background(), "trace-1")
	res, err := New(srv.URL).GeneratePlan(ctx, "goal")
	require.NoError(t, err)
	require.False(t, res.IsFailure())

	plan, err := res.Decode()
	require.NoError(t, err)
	require.Len(t, plan.Tasks, 1)
	assert.Equal(t, 3, plan.Tasks[0].DurationDays)
}

func TestGeneratePlanSoftFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Invalid JSON from AI","cleaned":"nope","original":"nope"}`))
	}))
	defer srv.Close()

	res, err := New(srv.URL).GeneratePlan(context.Background(), "goal")
	require.NoError(t, err)
	require.True(t, res.IsFailure())
	assert.Equal(t, "nope", res.Failure.Cleaned)
}

func TestGeneratePlanAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Goal is required"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).GeneratePlan(context.Background(), "")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Goal is required", apiErr.Message)
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ping", r.URL.Path)
		_, _ = w.Write([]byte(`{"message":"Backend is running!"}`))
	}))
	defer srv.Close()

	msg, err := New(srv.URL + "/").Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Backend is running!", msg)
}

func TestNewReadsEnv(t *testing.T) {
	t.Setenv("PLAN_API_URL", "http://plans.internal:5000/")
	assert.Equal(t, "http://plans.internal:5000", New("").baseURL)
}
