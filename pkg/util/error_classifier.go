package util

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrPermanent 标记重投也不会成功的错误（消息本身有问题）
var ErrPermanent = errors.New("permanent failure")

// IsRetryableError determines if a consumer error is worth another delivery.
// Returns: (isRetryable, errorType)
func IsRetryableError(err error) (bool, string) {
	if err == nil {
		return false, ""
	}

	if errors.Is(err, ErrPermanent) {
		return false, "invalid_event"
	}

	// JSON decode errors - 不可重试（数据格式错误）
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return false, "json_decode_error"
	}

	// Database errors
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 22xxx 数据异常 / 23xxx 约束冲突 - 不可重试
		if strings.HasPrefix(pgErr.Code, "22") || strings.HasPrefix(pgErr.Code, "23") {
			return false, "db_constraint_error"
		}
		return true, "db_error"
	}

	// 被取消的处理没有失败，换个消费者可以完成
	if errors.Is(err, context.Canceled) {
		return true, "context_canceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true, "timeout"
	}

	// Network errors - 可重试
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true, "network_timeout"
		}
		return true, "network_error"
	}

	// 未知错误多给一次机会，是否重投由 Redelivered 兜底
	return true, "unknown_error"
}
