package core

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"
)

// ReadNowMarker 站点在章节链接上附加的 "立即阅读" 标记
const ReadNowMarker = "立即阅读"

var (
	// 包括全角数字 (１２) 等所有 Unicode 十进制数字
	firstNumberPattern  = regexp.MustCompile(`\p{Nd}+`)
	leadingNumberPrefix = regexp.MustCompile(`^\p{Nd}+[\s\p{Z}:、，]*`)
)

// NormalizeTitle 将站点原始章节标题规范化为章节键
// counter 为当前章节序号, 返回的 next 用于下一次调用
//
// 规则:
//   - 以 "第" 开头的标题原样保留
//   - 含数字时以第一个整数为序号, 生成 "第 N 章" 或 "第 N 章: 标题"
//   - 无数字的非空标题原样保留, 空标题使用 "第 counter 章"
func NormalizeTitle(raw string, counter int) (key string, next int) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(raw, ReadNowMarker, ""))

	if strings.HasPrefix(cleaned, "第") {
		return cleaned, counter + 1
	}

	defer func() {
		if r := recover(); r != nil {
			key = fallbackKey(counter, cleaned)
			next = counter + 1
		}
	}()

	if match := firstNumberPattern.FindString(cleaned); match != "" {
		n, ok := parseDigits(match)
		if !ok || n == math.MaxInt {
			// 数字超出int范围
			return fallbackKey(counter, cleaned), counter + 1
		}
		counter = n

		label := strings.TrimSpace(leadingNumberPrefix.ReplaceAllString(cleaned, ""))
		if label == "" {
			return fmt.Sprintf("第 %d 章", counter), counter + 1
		}
		return fmt.Sprintf("第 %d 章: %s", counter, label), counter + 1
	}

	if cleaned != "" {
		return cleaned, counter + 1
	}
	return fmt.Sprintf("第 %d 章", counter), counter + 1
}

func fallbackKey(counter int, cleaned string) string {
	if cleaned == "" {
		return fmt.Sprintf("第 %d 章", counter)
	}
	return fmt.Sprintf("第 %d 章: %s", counter, cleaned)
}

// ChapterNumber 返回章节键中的第一个整数, 没有时返回0
// 用于未匹配章节的排序
func ChapterNumber(key string) int {
	match := firstNumberPattern.FindString(key)
	if match == "" {
		return 0
	}
	n, ok := parseDigits(match)
	if !ok {
		return 0
	}
	return n
}

// parseDigits 将 \p{Nd} 数字串解析为整数, 溢出时返回 false
func parseDigits(s string) (int, bool) {
	n := 0
	for _, r := range s {
		d := digitValue(r)
		if d < 0 || n > (math.MaxInt-d)/10 {
			return 0, false
		}
		n = n*10 + d
	}
	return n, true
}

// digitValue 返回十进制数字字符的值, 非数字返回 -1
// Unicode 的十进制数字按 0-9 连续排列, 值为到所在连续区段起点的偏移模10
func digitValue(r rune) int {
	if r >= '0' && r <= '9' {
		return int(r - '0')
	}
	if !unicode.IsDigit(r) {
		return -1
	}
	start := r
	for unicode.IsDigit(start - 1) {
		start--
	}
	return int(r-start) % 10
}
