package planner

import (
	"encoding/json"
	"regexp"
	"strings"

	"smarttaskflow/contracts/plan"
)

var jsonFence = regexp.MustCompile("(?i)```json")

// CleanResponse 去掉模型常加的 markdown 代码块标记
func CleanResponse(text string) string {
	cleaned := jsonFence.ReplaceAllString(text, "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}

// ParseResponse 清洗后按原样解析 JSON，不做结构校验。
// 解析失败时返回 ParseFailure 而不是 error。
func ParseResponse(text string) plan.Result {
	cleaned := CleanResponse(text)
	if !json.Valid([]byte(cleaned)) {
		return plan.Failure(cleaned, text)
	}
	return plan.Ok(json.RawMessage(cleaned))
}
