package planner

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smarttaskflow/contracts/plan"
)

func TestCleanResponse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"tasks":[]}`, `{"tasks":[]}`},
		{"json fence", "```json\n{\"tasks\":[]}\n```", `{"tasks":[]}`},
		{"upper fence", "```JSON\n{\"tasks\":[]}\n```  ", `{"tasks":[]}`},
		{"bare fence", "```\n[1,2]\n```", `[1,2]`},
		{"prose kept", "I cannot help with that.", "I cannot help with that."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanResponse(tt.in))
		})
	}
}

func TestParseResponseFencedPlan(t *testing.T) {
	text := "```json\n{\"tasks\":[{\"title\":\"Draft\",\"duration_days\":2,\"depends_on\":null,\"start_date\":\"2024-03-10\",\"end_date\":\"2024-03-12\"}]}\n```"

	res := ParseResponse(text)
	require.False(t, res.IsFailure())

	gp, err := res.Decode()
	require.NoError(t, err)
	require.Len(t, gp.Tasks, 1)
	assert.Equal(t, "Draft", gp.Tasks[0].Title)
	assert.Equal(t, 2, gp.Tasks[0].DurationDays)
	assert.Nil(t, gp.Tasks[0].DependsOn)
}

func TestParseResponseProseIsFailure(t *testing.T) {
	res := ParseResponse("I cannot help")

	require.True(t, res.IsFailure())
	assert.Equal(t, plan.InvalidJSONError, res.Failure.Error)
	assert.Equal(t, "I cannot help", res.Failure.Cleaned)
	assert.Equal(t, "I cannot help", res.Failure.Original)

	_, err := res.Decode()
	assert.ErrorIs(t, err, plan.ErrNotAPlan)
}

func TestParseResponseKeepsUnexpectedShape(t *testing.T) {
	res := ParseResponse(`{"steps":["a","b"],"extra":true}`)
	require.False(t, res.IsFailure())

	out, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"steps":["a","b"],"extra":true}`, string(out))
}

func TestBuildPromptIsDeterministic(t *testing.T) {
	today := time.Date(2024, 3, 10, 23, 30, 0, 0, time.FixedZone("UTC+5", 5*3600))

	p1 := BuildPrompt("Learn Go in 2 weeks", today)
	p2 := BuildPrompt("Learn Go in 2 weeks", today)
	assert.Equal(t, p1, p2)
	assert.Contains(t, p1, "2024-03-10")
	assert.Contains(t, p1, `"Learn Go in 2 weeks"`)
	assert.Contains(t, p1, "RAW JSON ONLY")
	assert.Contains(t, p1, "duration_days")
}
