package models

import (
	"errors"
	"fmt"
)

var (
	// ErrDecode 响应体按 Content-Encoding 解码失败
	ErrDecode = errors.New("响应体解码失败")

	// ErrBodyTooLarge 响应体超过 max_body_size,不保存截断的内容
	ErrBodyTooLarge = errors.New("响应体超过大小上限")
)

// ScopeViolationError 起始URL不满足 --base-path 或 --domain 限制
// 这是唯一会终止整个爬取任务的错误
type ScopeViolationError struct {
	URL      string
	BasePath string
	Domain   string
}

// Error 实现error接口
func (e *ScopeViolationError) Error() string {
	return fmt.Sprintf("起始URL不满足范围限制: %s (base-path=%q, domain=%q)", e.URL, e.BasePath, e.Domain)
}

// FetchError 单个URL抓取失败
type FetchError struct {
	URL        string
	StatusCode int
	Cause      error
}

// Error 实现error接口
func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("抓取失败 [%s] (HTTP %d): %v", e.URL, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("抓取失败 [%s]: %v", e.URL, e.Cause)
}

// Unwrap 支持errors.Unwrap
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// ValidationError 头部验证错误
// 表示头部验证失败的详细信息
type ValidationError struct {
	// Field 出错的字段 ("name" 或 "value")
	Field string

	// HeaderName 头部名称
	HeaderName string

	// Reason 错误原因
	Reason string

	// Suggestion 修复建议 (可选)
	Suggestion string
}

// Error 实现error接口
func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("头部验证失败 [%s]: %s", e.HeaderName, e.Reason)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (建议: %s)", e.Suggestion)
	}
	return msg
}

// ConfigError 配置文件错误
type ConfigError struct {
	FilePath string
	Cause    error
}

// Error 实现error接口
func (e *ConfigError) Error() string {
	return fmt.Sprintf("配置文件错误 [%s]: %v", e.FilePath, e.Cause)
}

// Unwrap 支持errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Cause
}
