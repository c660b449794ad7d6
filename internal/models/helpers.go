package models

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// InvalidFilenameChars 文件名非法字符
const InvalidFilenameChars = `/:*?"<>|`

// ValidateURL 验证URL
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("无效的URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL必须是HTTP或HTTPS协议")
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL必须包含主机名")
	}
	return nil
}

// SafeFilename 移除文件名中的非法字符
func SafeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(InvalidFilenameChars, r) {
			return -1
		}
		return r
	}, name)
}

// generateID 生成唯一ID
func generateID() string {
	return uuid.New().String()
}
