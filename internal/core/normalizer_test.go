package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		counter  int
		wantKey  string
		wantNext int
	}{
		{"第字开头原样保留", "第123章 测试标题", 1, "第123章 测试标题", 2},
		{"数字开头生成序号", "456 测试内容", 1, "第 456 章: 测试内容", 457},
		{"无数字原样保留", "测试章节", 5, "测试章节", 6},
		{"仅有立即阅读标记", "立即阅读", 1, "第 1 章", 2},
		{"去除立即阅读标记", "立即阅读第8章 归来", 1, "第8章 归来", 2},
		{"仅数字", "  12  ", 3, "第 12 章", 13},
		{"数字后跟中文标点", "7、夜雨", 1, "第 7 章: 夜雨", 8},
		{"数字后跟冒号", "9: 再会", 1, "第 9 章: 再会", 10},
		{"数字不在开头", "序章 3 旧事", 1, "第 3 章: 序章 3 旧事", 4},
		{"空标题", "", 42, "第 42 章", 43},
		{"空白标题", "   ", 2, "第 2 章", 3},
		{"超长数字", "99999999999999999999999 结局", 4, "第 4 章: 99999999999999999999999 结局", 5},
		{"最大整数", "9223372036854775807 终", 4, "第 4 章: 9223372036854775807 终", 5},
		{"全角数字", "１２ 夜雨", 1, "第 12 章: 夜雨", 13},
		{"全角数字后跟全角空格", "３\u3000归途", 1, "第 3 章: 归途", 4},
		{"阿拉伯文数字", "٣٤ 重逢", 1, "第 34 章: 重逢", 35},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, next := NormalizeTitle(tt.raw, tt.counter)
			assert.Equal(t, tt.wantKey, key)
			assert.Equal(t, tt.wantNext, next)
		})
	}
}

func TestNormalizeTitle_Properties(t *testing.T) {
	inputs := []string{"", "第", "第十章", "0", "立即阅读立即阅读", "abc", "1 立即阅读", "\t第5章\n", "章节 ２"}

	for _, raw := range inputs {
		key, next := NormalizeTitle(raw, 10)
		assert.NotContains(t, key, ReadNowMarker, "raw=%q", raw)
		assert.NotEmpty(t, key, "raw=%q", raw)
		assert.Greater(t, next, 0, "raw=%q", raw)

		cleaned := strings.TrimSpace(strings.ReplaceAll(raw, ReadNowMarker, ""))
		if strings.HasPrefix(cleaned, "第") {
			assert.Equal(t, cleaned, key)
			assert.Equal(t, 11, next)
		}
	}
}

func TestChapterNumber(t *testing.T) {
	assert.Equal(t, 12, ChapterNumber("第 12 章: 夜雨"))
	assert.Equal(t, 123, ChapterNumber("第123章 测试标题"))
	assert.Equal(t, 12, ChapterNumber("第 １２ 章"))
	assert.Equal(t, 9, ChapterNumber("第 𝟗 章"))
	assert.Equal(t, 0, ChapterNumber("第 99999999999999999999999 章"))
	assert.Equal(t, 0, ChapterNumber("序章"))
	assert.Equal(t, 0, ChapterNumber(""))
}
