// Package plan 是 /api/generate-plan 的线上格式，服务端和客户端共用
package plan

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// InvalidJSONError 是软失败响应里固定的 error 文案
const InvalidJSONError = "Invalid JSON from AI"

// ErrNotAPlan 表示对失败结果调用 Decode
var ErrNotAPlan = errors.New("result is a parse failure")

// PlanTask 是模型返回计划中的一项，字段全部按原样透传
type PlanTask struct {
	Title        string  `json:"title"`
	DurationDays int     `json:"duration_days"`
	DependsOn    *string `json:"depends_on"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
}

// GoalPlan 是期望的计划结构；服务端不校验依赖和日期
type GoalPlan struct {
	Tasks []PlanTask `json:"tasks"`
}

// ParseFailure 模型输出不是合法 JSON
type ParseFailure struct {
	Error    string `json:"error"`
	Cleaned  string `json:"cleaned"`
	Original string `json:"original"`
}

// Result 二选一：Plan（模型返回的原始 JSON）或 Failure。
// 线上格式里 Failure 带 "error" 字段，Plan 原样输出。
type Result struct {
	Plan    json.RawMessage
	Failure *ParseFailure
}

func Ok(plan json.RawMessage) Result {
	return Result{Plan: plan}
}

func Failure(cleaned, original string) Result {
	return Result{Failure: &ParseFailure{
		Error:    InvalidJSONError,
		Cleaned:  cleaned,
		Original: original,
	}}
}

func (r Result) IsFailure() bool {
	return r.Failure != nil
}

// Decode 把 Plan 解析成 GoalPlan，供需要结构化数据的调用方使用
func (r Result) Decode() (*GoalPlan, error) {
	if r.IsFailure() {
		return nil, ErrNotAPlan
	}
	var plan GoalPlan
	if err := json.Unmarshal(r.Plan, &plan); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	return &plan, nil
}

func (r Result) MarshalJSON() ([]byte, error) {
	if r.Failure != nil {
		return json.Marshal(r.Failure)
	}
	if len(r.Plan) == 0 {
		return []byte("null"), nil
	}
	return r.Plan, nil
}

func (r *Result) UnmarshalJSON(data []byte) error {
	if !json.Valid(data) {
		return fmt.Errorf("plan: invalid result payload")
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var probe struct {
			Error *string `json:"error"`
		}
		if err := json.Unmarshal(trimmed, &probe); err == nil && probe.Error != nil {
			var f ParseFailure
			if err := json.Unmarshal(trimmed, &f); err != nil {
				return err
			}
			*r = Result{Failure: &f}
			return nil
		}
	}

	*r = Result{Plan: append(json.RawMessage(nil), trimmed...)}
	return nil
}
