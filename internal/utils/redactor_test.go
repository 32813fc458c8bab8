package utils

import (
	"net/http"
	"strings"
	"testing"
)

func TestHeaderRedactor_RedactHeaderValue(t *testing.T) {
	redactor := NewHeaderRedactor()

	tests := []struct {
		name       string
		headerName string
		value      string
		expected   string
	}{
		{"Bearer凭据", "Authorization", "Bearer token123", "Bearer ***"},
		{"Basic凭据", "Authorization", "Basic dXNlcjpwYXNz", "Basic ***"},
		{"长密钥", "X-Api-Key", "key1234567890", "key1***7890"},
		{"短密钥", "X-Secret", "abc", "***"},
		{"空值", "Authorization", "", "***"},
		{"Cookie", "Cookie", "session=abcdefghijk", "sess***hijk"},
		{"非敏感头部", "User-Agent", "Mozilla/5.0", "Mozilla/5.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := redactor.RedactHeaderValue(tt.headerName, tt.value)
			if got != tt.expected {
				t.Errorf("期望 %q, 得到 %q", tt.expected, got)
			}
		})
	}
}

func TestHeaderRedactor_Redact(t *testing.T) {
	redactor := NewHeaderRedactor()

	headers := http.Header{}
	headers.Set("Authorization", "Bearer secret-token")
	headers.Set("X-Token", "longtoken123456789")
	headers.Set("Accept", "*/*")

	redacted := redactor.Redact(headers)

	if redacted["Accept"] != "*/*" {
		t.Errorf("非敏感头部不应被脱敏: %s", redacted["Accept"])
	}
	for _, name := range []string{"Authorization", "X-Token"} {
		value, ok := redacted[name]
		if !ok {
			t.Errorf("头部应该存在于脱敏结果中: %s", name)
			continue
		}
		if !strings.Contains(value, "*") {
			t.Errorf("脱敏后应该包含星号: %s -> %s", name, value)
		}
	}
}

func TestHeaderRedactor_RedactToString(t *testing.T) {
	redactor := NewHeaderRedactor()

	headers := http.Header{}
	headers.Set("X-B", "2")
	headers.Set("X-A", "1")
	headers.Set("Authorization", "Bearer abc")

	got := redactor.RedactToString(headers)
	want := "Authorization: Bearer ***, X-A: 1, X-B: 2"
	if got != want {
		t.Errorf("期望 %q, 得到 %q", want, got)
	}
}
