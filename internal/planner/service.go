// Package planner 把自然语言目标转成模型生成的任务计划
package planner

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"smarttaskflow/contracts/plan"
	"smarttaskflow/pkg/logger"
	"smarttaskflow/pkg/metrics"
)

// ErrGoalRequired 目标为空或只有空白
var ErrGoalRequired = errors.New("goal is required")

// TextGenerator 文本生成接口：prompt 进，原始文本出
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Service struct {
	gen    TextGenerator
	now    func() time.Time
	logger *zap.Logger
}

func NewService(gen TextGenerator, logger *zap.Logger) *Service {
	return &Service{gen: gen, now: time.Now, logger: logger}
}

// WithClock 替换时钟，测试用
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// GeneratePlan 构造 prompt → 调用模型 → 清洗 → 解析。
// 模型错误原样返回，消息会直接暴露给调用方；解析失败是正常结果，不是 error。
func (s *Service) GeneratePlan(ctx context.Context, goal string) (plan.Result, error) {
	log := logger.WithTrace(ctx, s.logger)

	if strings.TrimSpace(goal) == "" {
		return plan.Result{}, ErrGoalRequired
	}

	prompt := BuildPrompt(goal, s.now())
	log.Debug("Generating plan", zap.Int("goal_len", len(goal)))

	text, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		metrics.IncrementPlanResult("model_error")
		log.Error("Text generation failed", zap.Error(err))
		return plan.Result{}, err
	}

	res := ParseResponse(text)
	if res.IsFailure() {
		metrics.IncrementPlanResult("parse_failure")
		log.Warn("Model returned invalid JSON", zap.Int("response_len", len(text)))
		return res, nil
	}

	metrics.IncrementPlanResult("ok")
	log.Info("Plan generated", zap.Int("plan_bytes", len(res.Plan)))
	return res, nil
}
