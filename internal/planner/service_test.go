package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGenerator struct {
	text    string
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.text, f.err
}

func newTestService(gen TextGenerator) *Service {
	fixed := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	return NewService(gen, zap.NewNop()).WithClock(func() time.Time { return fixed })
}

func TestGeneratePlanRejectsBlankGoal(t *testing.T) {
	gen := &fakeGenerator{}
	svc := newTestService(gen)

	for _, goal := range []string{"", "   ", "\n\t"} {
		_, err := svc.GeneratePlan(context.Background(), goal)
		assert.ErrorIs(t, err, ErrGoalRequired)
	}
	assert.Empty(t, gen.prompts, "model must not be called")
}

func TestGeneratePlanOk(t *testing.T) {
	gen := &fakeGenerator{text: "```json\n{\"tasks\":[]}\n```"}
	svc := newTestService(gen)

	res, err := svc.GeneratePlan(context.Background(), "Ship v1")
	require.NoError(t, err)
	assert.False(t, res.IsFailure())
	assert.JSONEq(t, `{"tasks":[]}`, string(res.Plan))

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "2024-03-10")
	assert.Contains(t, gen.prompts[0], "Ship v1")
}

func TestGeneratePlanSoftFailure(t *testing.T) {
	svc := newTestService(&fakeGenerator{text: "Sorry, I cannot do that"})

	res, err := svc.GeneratePlan(context.Background(), "Ship v1")
	require.NoError(t, err)
	require.True(t, res.IsFailure())
	assert.Equal(t, "Sorry, I cannot do that", res.Failure.Original)
}

func TestGeneratePlanModelErrorPassesThrough(t *testing.T) {
	upstream := errors.New("quota exceeded")
	svc := newTestService(&fakeGenerator{err: upstream})

	_, err := svc.GeneratePlan(context.Background(), "Ship v1")
	require.Error(t, err)
	assert.Equal(t, "quota exceeded", err.Error())
}
