package models

import "fmt"

// ChapterRef 章节引用 (发现顺序即规范顺序)
type ChapterRef struct {
	RawTitle string `json:"raw_title"` // 站点原始章节标题
	URL      string `json:"url"`       // 章节URL
}

// String 用于日志输出
func (r ChapterRef) String() string {
	return fmt.Sprintf("(%s, %s)", r.RawTitle, r.URL)
}

// ProgressMap 章节键 -> 章节正文
// 正文已包含 "{key}\n\n" 头部和结尾空行,map顺序无意义
type ProgressMap map[string]string

// Has 检查章节键是否已存在
func (m ProgressMap) Has(key string) bool {
	_, ok := m[key]
	return ok
}

// FormatChapterBody 生成存储格式的章节正文
func FormatChapterBody(key, body string) string {
	return key + "\n\n" + body + "\n\n"
}

// FetchStatus 抓取结果标签
type FetchStatus int

const (
	FetchSucceeded FetchStatus = iota // 成功
	FetchFailed                       // 单次失败,可重试
	FetchSkipped                      // 重试耗尽,放弃该章节
)

// String 实现fmt.Stringer
func (s FetchStatus) String() string {
	switch s {
	case FetchSucceeded:
		return "succeeded"
	case FetchFailed:
		return "failed"
	case FetchSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("FetchStatus(%d)", int(s))
	}
}

// FetchResult 章节抓取结果
type FetchResult struct {
	Status   FetchStatus
	URL      string
	Title    string // 站点返回的章节标题
	Body     string // 章节正文
	Err      error  // 失败原因
	Attempts int    // 实际尝试次数
}

// Succeeded 构造成功结果
func Succeeded(url, title, body string) FetchResult {
	return FetchResult{Status: FetchSucceeded, URL: url, Title: title, Body: body}
}

// Failed 构造失败结果
func Failed(url string, err error) FetchResult {
	return FetchResult{Status: FetchFailed, URL: url, Err: err}
}

// Skipped 构造放弃结果
func Skipped(url string, attempts int, err error) FetchResult {
	return FetchResult{Status: FetchSkipped, URL: url, Err: err, Attempts: attempts}
}

// OK 是否成功
func (r FetchResult) OK() bool {
	return r.Status == FetchSucceeded
}
