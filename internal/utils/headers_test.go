package utils

import (
	"net/http"
	"strings"
	"testing"
)

func TestHeaderValidator_ValidateName(t *testing.T) {
	validator := NewHeaderValidator()

	tests := []struct {
		name        string
		headerName  string
		expectError bool
	}{
		{"合法名称-字母", "User-Agent", false},
		{"合法名称-数字", "X-Request-ID-123", false},
		{"合法名称-连字符", "Accept-Language", false},
		{"非法名称-空格", "User Agent", true},
		{"非法名称-下划线", "User_Agent", true},
		{"非法名称-中文", "来源", true},
		{"非法名称-空字符串", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateName(tt.headerName)
			if (err != nil) != tt.expectError {
				t.Errorf("期望错误=%v, 实际错误=%v", tt.expectError, err)
			}
		})
	}
}

func TestHeaderValidator_ValidateValue(t *testing.T) {
	validator := NewHeaderValidator()

	tests := []struct {
		name        string
		headerName  string
		headerValue string
		expectError bool
	}{
		{"合法值-ASCII", "User-Agent", "Mozilla/5.0", false},
		{"合法值-空字符串", "X-Empty", "", false},
		{"合法值-最大长度", "X-Long", strings.Repeat("a", MaxHeaderValueLength), false},
		{"非法值-超长", "X-TooLong", strings.Repeat("a", MaxHeaderValueLength+1), true},
		{"非法值-控制字符", "X-Bad", "value\x00with\x01null", true},
		{"非法值-未编码中文", "Referer", "https://www.hhlwx.org/搜索", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateValue(tt.headerName, tt.headerValue)
			if (err != nil) != tt.expectError {
				t.Errorf("期望错误=%v, 实际错误=%v", tt.expectError, err)
			}
		})
	}
}

func TestHeaderValidator_ValidateHeader(t *testing.T) {
	validator := NewHeaderValidator()

	tests := []struct {
		name        string
		headerName  string
		headerValue string
		expectError bool
	}{
		{"合法头部", "User-Agent", "Mozilla/5.0", false},
		{"合法Cookie", "Cookie", "uid=1; token=abc", false},
		{"禁止头部-Host", "Host", "www.hhlwx.org", true},
		{"禁止头部-Content-Length", "Content-Length", "123", true},
		{"禁止头部-不区分大小写", "host", "www.hhlwx.org", true},
		{"非法名称", "User Agent", "value", true},
		{"非法值", "User-Agent", "value\x00bad", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateHeader(tt.headerName, tt.headerValue)
			if (err != nil) != tt.expectError {
				t.Errorf("期望错误=%v, 实际错误=%v", tt.expectError, err)
			}
		})
	}
}

func TestHeaderValidator_Validate(t *testing.T) {
	validator := NewHeaderValidator()

	t.Run("验证合法的http.Header", func(t *testing.T) {
		headers := http.Header{
			"User-Agent":      []string{"Mozilla/5.0"},
			"Accept-Language": []string{"zh-CN,zh;q=0.9"},
		}
		if err := validator.Validate(headers); err != nil {
			t.Errorf("期望无错误, 实际错误=%v", err)
		}
	})

	t.Run("验证包含禁止头部的http.Header", func(t *testing.T) {
		headers := http.Header{
			"User-Agent": []string{"Mozilla/5.0"},
			"Connection": []string{"close"},
		}
		if err := validator.Validate(headers); err == nil {
			t.Error("期望返回错误, 但无错误")
		}
	})
}

func TestHeaderRedactor_Redact(t *testing.T) {
	redactor := NewHeaderRedactor()

	t.Run("敏感头部被脱敏", func(t *testing.T) {
		tests := []struct {
			name  string
			value string
			want  string
		}{
			{"Authorization", "Bearer token123", "Bearer ***"},
			{"Cookie", "PHPSESSID=abcdef123456", "PHPS***3456"},
			{"X-Api-Key", "short", "***"},
		}

		for _, tt := range tests {
			headers := http.Header{}
			headers.Set(tt.name, tt.value)
			redacted := redactor.Redact(headers)
			if got := redacted[http.CanonicalHeaderKey(tt.name)]; got != tt.want {
				t.Errorf("%s 脱敏结果 = %q, want %q", tt.name, got, tt.want)
			}
		}
	})

	t.Run("非敏感头部不应脱敏", func(t *testing.T) {
		headers := http.Header{}
		headers.Set("User-Agent", "Mozilla/5.0")
		headers.Set("Accept-Language", "zh-CN")

		redacted := redactor.Redact(headers)
		if redacted["User-Agent"] != "Mozilla/5.0" || redacted["Accept-Language"] != "zh-CN" {
			t.Errorf("非敏感头部不应被脱敏: %v", redacted)
		}
	})

	t.Run("空值脱敏", func(t *testing.T) {
		headers := http.Header{}
		headers.Set("Authorization", "")
		if got := redactor.Redact(headers)["Authorization"]; got != "***" {
			t.Errorf("空敏感头部应该显示为***, 得到: %s", got)
		}
	})

	t.Run("格式化输出按名称排序", func(t *testing.T) {
		headers := http.Header{}
		headers.Set("User-Agent", "Bot")
		headers.Set("Accept", "*/*")
		if got := redactor.RedactToString(headers); got != "Accept: */*, User-Agent: Bot" {
			t.Errorf("RedactToString() = %q", got)
		}
	})
}
