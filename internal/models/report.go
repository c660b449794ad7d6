package models

import (
	"encoding/json"
	"time"
)

// CrawlReport 爬取报告
type CrawlReport struct {
	// 任务信息
	RunID       string `json:"run_id"`
	NovelTitle  string `json:"novel_title"`
	HomepageURL string `json:"homepage_url"`
	Site        string `json:"site"`

	// 时间信息
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	// 结果
	State CrawlState `json:"state"`
	Error string     `json:"error,omitempty"`
	Stats TaskStats  `json:"stats"`

	// 放弃的章节
	SkippedChapters []SkippedChapterInfo `json:"skipped_chapters"`

	// 输出路径
	ProgressFile string `json:"progress_file,omitempty"`
	DocumentFile string `json:"document_file,omitempty"`

	// 配置快照
	Config CrawlConfig `json:"config"`
}

// SkippedChapterInfo 放弃章节信息
type SkippedChapterInfo struct {
	Key       string `json:"key"`
	URL       string `json:"url"`
	Attempts  int    `json:"attempts"`
	ErrorMsg  string `json:"error_msg"`
	Temporary bool   `json:"temporary"` // 下次运行是否值得重试
}

// NewCrawlReport 创建报告
func NewCrawlReport(homepageURL string, config CrawlConfig) *CrawlReport {
	return &CrawlReport{
		RunID:           generateID(),
		HomepageURL:     homepageURL,
		Site:            config.Site,
		StartTime:       time.Now(),
		State:           StateDiscovering,
		SkippedChapters: make([]SkippedChapterInfo, 0),
		Config:          config,
	}
}

// Succeeded 任务是否正常完成
func (r *CrawlReport) Succeeded() bool {
	return r.State == StateDone
}

// ToJSON 序列化为JSON
func (r *CrawlReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FromJSON 从JSON反序列化
func (r *CrawlReport) FromJSON(data []byte) error {
	return json.Unmarshal(data, r)
}
