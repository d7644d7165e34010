// Package planclient 是 /api/generate-plan 的 Go 客户端
package planclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"smarttaskflow/contracts/plan"
	"smarttaskflow/pkg/config"
	"smarttaskflow/pkg/trace"
)

const DefaultBaseURL = "http://localhost:5000"

// APIError 服务端返回的非 200 响应
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("plan api %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New baseURL 为空时读取 PLAN_API_URL
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = config.GetEnv("PLAN_API_URL", DefaultBaseURL)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// 模型调用本身可能接近 60s
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
}

// GeneratePlan 返回计划或解析失败；只有非 200 才返回 error
func (c *Client) GeneratePlan(ctx context.Context, goal string) (plan.Result, error) {
	body, err := json.Marshal(map[string]string{"goal": goal})
	if err != nil {
		return plan.Result{}, err
	}

	var res plan.Result
	if err := c.do(ctx, http.MethodPost, "/api/generate-plan", body, &res); err != nil {
		return plan.Result{}, err
	}
	return res, nil
}

// Ping 返回服务端的 message 字段
func (c *Client) Ping(ctx context.Context) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/ping", nil, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	// 传播 trace_id
	if traceID := trace.FromContext(ctx); traceID != "" {
		req.Header.Set(trace.HeaderName, traceID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			apiErr.Message = e.Error
		} else {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	return json.Unmarshal(data, out)
}
