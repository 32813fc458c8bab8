package utils

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"golang.org/x/net/http/httpguts"

	"github.com/RecoveryAshes/sitecrawl/internal/models"
)

// MaxHeaderValueLength 单个头部值最大长度 (8KB)
const MaxHeaderValueLength = 8192

var (
	// ForbiddenHeaders 由传输层管理的头部,以及逐跳头部 (RFC 7230 6.1)
	// 逐跳头部不会被转发,由colly请求携带时会破坏连接复用
	ForbiddenHeaders = []string{
		"Host",
		"Content-Length",
		"Transfer-Encoding",
		"Connection",
		"Keep-Alive",
		"Proxy-Connection",
		"Te",
		"Trailer",
		"Upgrade",
	}

	// SupportedEncodings 抓取器能够解码的 Content-Encoding
	// gzip 由colly解码,br 和 deflate 由抓取器解码
	SupportedEncodings = []string{"gzip", "br", "deflate", "identity"}
)

// valueRule 针对特定头部的值检查
type valueRule func(value string) *models.ValidationError

// HeaderValidator 检查用户配置的请求头部能否由抓取器原样发送
type HeaderValidator struct {
	maxValueLength int
	forbidden      map[string]bool
	supported      map[string]bool

	// rules 键为规范化的头部名称
	rules map[string]valueRule
}

// NewHeaderValidator 创建验证器
func NewHeaderValidator() *HeaderValidator {
	hv := &HeaderValidator{
		maxValueLength: MaxHeaderValueLength,
		forbidden:      make(map[string]bool),
		supported:      make(map[string]bool),
	}
	for _, h := range ForbiddenHeaders {
		hv.forbidden[http.CanonicalHeaderKey(h)] = true
	}
	for _, e := range SupportedEncodings {
		hv.supported[e] = true
	}
	hv.rules = map[string]valueRule{
		"User-Agent":      hv.checkUserAgent,
		"Accept-Encoding": hv.checkAcceptEncoding,
	}
	return hv
}

// ValidateName 头部名称必须是 RFC 7230 token
func (hv *HeaderValidator) ValidateName(name string) error {
	if name == "" {
		return &models.ValidationError{
			Field:  "name",
			Reason: "头部名称不能为空",
		}
	}
	if !httpguts.ValidHeaderFieldName(name) {
		return &models.ValidationError{
			Field:      "name",
			HeaderName: name,
			Reason:     "头部名称包含非法字符",
			Suggestion: "使用字母、数字和连字符 (如 'X-Custom-Header')",
		}
	}
	return nil
}

// ValidateValue 检查长度、控制字符以及特定头部的取值
func (hv *HeaderValidator) ValidateValue(name, value string) error {
	if len(value) > hv.maxValueLength {
		return &models.ValidationError{
			Field:      "value",
			HeaderName: name,
			Reason:     fmt.Sprintf("头部值过长: %d 字节 (最大 %d)", len(value), hv.maxValueLength),
			Suggestion: fmt.Sprintf("将值缩短至 %d 字节以内", hv.maxValueLength),
		}
	}
	if !httpguts.ValidHeaderFieldValue(value) {
		return &models.ValidationError{
			Field:      "value",
			HeaderName: name,
			Reason:     "头部值包含控制字符",
			Suggestion: "移除换行符和其他控制字符",
		}
	}
	if rule, ok := hv.rules[http.CanonicalHeaderKey(name)]; ok {
		if err := rule(value); err != nil {
			err.HeaderName = name
			return err
		}
	}
	return nil
}

// checkUserAgent 空的User-Agent会让Go客户端省略该头部,很多站点因此拒绝请求
func (hv *HeaderValidator) checkUserAgent(value string) *models.ValidationError {
	if strings.TrimSpace(value) == "" {
		return &models.ValidationError{
			Field:      "value",
			Reason:     "User-Agent 不能为空",
			Suggestion: "删除该配置以使用默认值,或通过 crawl.user_agent 设置",
		}
	}
	return nil
}

// checkAcceptEncoding 只允许抓取器能解码的编码,否则保存的文件是压缩数据
func (hv *HeaderValidator) checkAcceptEncoding(value string) *models.ValidationError {
	for _, item := range strings.Split(value, ",") {
		// 去掉 ;q= 权重
		coding := strings.ToLower(strings.TrimSpace(strings.SplitN(item, ";", 2)[0]))
		if coding == "" || hv.supported[coding] {
			continue
		}
		return &models.ValidationError{
			Field:      "value",
			Reason:     fmt.Sprintf("不支持的内容编码: %s", coding),
			Suggestion: fmt.Sprintf("仅使用 %s", strings.Join(SupportedEncodings, ", ")),
		}
	}
	return nil
}

// ValidateHeader 依次检查禁止头部、名称和值
func (hv *HeaderValidator) ValidateHeader(name, value string) error {
	if hv.IsForbidden(name) {
		return &models.ValidationError{
			Field:      "name",
			HeaderName: name,
			Reason:     "此头部由HTTP传输层管理,不允许自定义",
			Suggestion: fmt.Sprintf("移除 '%s' 头部配置", name),
		}
	}
	if err := hv.ValidateName(name); err != nil {
		return err
	}
	return hv.ValidateValue(name, value)
}

// IsForbidden 不区分大小写
func (hv *HeaderValidator) IsForbidden(name string) bool {
	return hv.forbidden[http.CanonicalHeaderKey(name)]
}

// Validate 按名称顺序检查,返回第一个错误
func (hv *HeaderValidator) Validate(headers http.Header) error {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, value := range headers[name] {
			if err := hv.ValidateHeader(name, value); err != nil {
				return err
			}
		}
	}
	return nil
}
