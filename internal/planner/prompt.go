package planner

import (
	"fmt"
	"time"
)

const promptTemplate = `
You are an AI project planner. Break down the following goal into a structured task plan.

REQUIREMENTS:
- Each task MUST include:
  - title
  - duration_days (integer)
  - depends_on (string or null)
  - start_date (YYYY-MM-DD)
  - end_date (YYYY-MM-DD)
- Base the timeline on today's date: %s
- Respect dependencies: a task's start_date must be after end_date of its dependency.
- Ensure the entire plan fits within the user's timeframe (if given, like "in 2 weeks").
- Respond with RAW JSON ONLY. No explanations. No code blocks.

JSON FORMAT:
{
  "tasks": [
    {
      "title": "string",
      "duration_days": number,
      "depends_on": "string | null",
      "start_date": "YYYY-MM-DD",
      "end_date": "YYYY-MM-DD"
    }
  ]
}

GOAL:
"%s"
`

// BuildPrompt 生成发给模型的提示词；today 取调用方本地日期
func BuildPrompt(goal string, today time.Time) string {
	return fmt.Sprintf(promptTemplate, today.Format("2006-01-02"), goal)
}
