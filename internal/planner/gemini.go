package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"smarttaskflow/pkg/circuitbreaker"
	"smarttaskflow/pkg/config"
	"smarttaskflow/pkg/metrics"
)

const (
	DefaultGeminiModel   = "gemini-2.5-flash"
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	defaultGeminiTimeout = 60 * time.Second
)

// ErrEmptyResponse 模型没有返回任何文本
var ErrEmptyResponse = errors.New("model returned no text")

// GeminiClient 通过 REST generateContent 接口调用 Gemini，不重试
type GeminiClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	cb         *circuitbreaker.CircuitBreaker // 熔断器
}

func NewGeminiClient(cfg config.GeminiConfig) *GeminiClient {
	model := strings.TrimPrefix(cfg.Model, "models/")
	if model == "" {
		model = DefaultGeminiModel
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultGeminiTimeout
	}

	// 上游连续失败时快速失败，避免请求堆积
	cbConfig := circuitbreaker.Config{
		FailureThreshold:    5,
		SuccessThreshold:    1,
		Timeout:             30 * time.Second,
		HalfOpenMaxRequests: 1,
	}

	return &GeminiClient{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		cb:         circuitbreaker.NewCircuitBreaker(cbConfig),
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type apiErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate 发送 prompt 并拼接第一个候选的全部文本片段
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	var text string

	err := c.cb.Execute(func() error {
		start := time.Now()
		b, err := json.Marshal(generateRequest{
			Contents: []content{{Parts: []part{{Text: prompt}}}},
		})
		if err != nil {
			return err
		}

		url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		latency := time.Since(start)
		if err != nil {
			metrics.RecordLLMCallLatency(c.model, "error", latency)
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			metrics.RecordLLMCallLatency(c.model, fmt.Sprintf("%d", resp.StatusCode), latency)
			return decodeAPIError(resp)
		}
		metrics.RecordLLMCallLatency(c.model, "success", latency)

		var out generateResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return fmt.Errorf("decode gemini response: %w", err)
		}
		if len(out.Candidates) == 0 {
			return ErrEmptyResponse
		}

		var sb strings.Builder
		for _, p := range out.Candidates[0].Content.Parts {
			sb.WriteString(p.Text)
		}
		text = sb.String()
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

func decodeAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var apiErr apiErrorBody
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return fmt.Errorf("gemini %d %s: %s", resp.StatusCode, apiErr.Error.Status, apiErr.Error.Message)
	}
	return fmt.Errorf("gemini error: %d", resp.StatusCode)
}
