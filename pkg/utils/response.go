package utils

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// ErrorBody 是所有非 2xx 响应的 JSON 结构。
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ErrorStatus 把一个哨兵错误映射为 HTTP 状态码。
type ErrorStatus struct {
	Target error
	Status int
}

// RespondJSON 发送 JSON 响应。会话数据不允许被缓存。
func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("failed to encode response", "status", status, "error", err)
	}
}

// RespondError 以 ErrorBody 发送错误响应，Code 取自状态码。
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, ErrorBody{Error: message, Code: statusCode(status)})
}

// RespondServiceError 按第一条匹配的规则选择状态码，都不匹配时返回 500。
func RespondServiceError(w http.ResponseWriter, err error, rules ...ErrorStatus) {
	status := http.StatusInternalServerError
	for _, rule := range rules {
		if errors.Is(err, rule.Target) {
			status = rule.Status
			break
		}
	}
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
	}
	RespondError(w, status, err.Error())
}

// statusCode 把 "Not Found" 转为 "not_found"。
func statusCode(status int) string {
	return strings.ReplaceAll(strings.ToLower(http.StatusText(status)), " ", "_")
}
