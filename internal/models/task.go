package models

import (
	"fmt"
	"time"
)

// CrawlState 爬取状态机状态
type CrawlState string

const (
	StateDiscovering CrawlState = "discovering" // 获取章节列表
	StateReconciling CrawlState = "reconciling" // 对比已有进度
	StateFetching    CrawlState = "fetching"    // 逐章抓取
	StateAssembling  CrawlState = "assembling"  // 合成TXT
	StateDone        CrawlState = "done"        // 已完成
	StateAborted     CrawlState = "aborted"     // 已中止
)

// Terminal 是否为终止状态
func (s CrawlState) Terminal() bool {
	return s == StateDone || s == StateAborted
}

// TaskStats 任务统计
type TaskStats struct {
	Discovered    int     `json:"discovered" yaml:"discovered"`         // 发现的章节数
	AlreadyStored int     `json:"already_stored" yaml:"already_stored"` // 运行前已保存的章节数
	Planned       int     `json:"planned" yaml:"planned"`               // 本次计划抓取数
	Fetched       int     `json:"fetched" yaml:"fetched"`               // 本次成功抓取数
	Skipped       int     `json:"skipped" yaml:"skipped"`               // 重试耗尽放弃数
	GuardSkipped  int     `json:"guard_skipped" yaml:"guard_skipped"`   // 二次检查跳过数
	Orphans       int     `json:"orphans" yaml:"orphans"`               // 未匹配章节数
	Duration      float64 `json:"duration" yaml:"duration"`             // 总耗时(秒)
}

// CrawlConfig 爬取配置
type CrawlConfig struct {
	Site            string        `mapstructure:"site" json:"site" yaml:"site"`                                        // 站点名称
	HomepageURL     string        `mapstructure:"homepage_url" json:"homepage_url" yaml:"homepage_url"`                // 小说主页URL
	BaseURL         string        `mapstructure:"base_url" json:"base_url" yaml:"base_url"`                            // 网站基础URL
	MaxChapters     int           `mapstructure:"max_chapters" json:"max_chapters" yaml:"max_chapters"`                // 最大章节数 (默认:100000)
	MaxRetries      int           `mapstructure:"max_retries" json:"max_retries" yaml:"max_retries"`                   // 单章最大尝试次数 (默认:3)
	ClearFiles      bool          `mapstructure:"clear_files" json:"clear_files" yaml:"clear_files"`                   // 爬取前清空已有文件
	DebugEnabled    bool          `mapstructure:"debug_enabled" json:"debug_enabled" yaml:"debug_enabled"`             // 保存调试页面
	DebugDir        string        `mapstructure:"debug_dir" json:"debug_dir" yaml:"debug_dir"`                         // 调试页面目录
	UnifiedCounter  bool          `mapstructure:"unified_counter" json:"unified_counter" yaml:"unified_counter"`       // 单一计数器生成章节键
	RetryBaseDelay  time.Duration `mapstructure:"retry_base_delay" json:"retry_base_delay" yaml:"retry_base_delay"`    // 重试退避单位 (默认:1s)
	ChapterDelayMin time.Duration `mapstructure:"chapter_delay_min" json:"chapter_delay_min" yaml:"chapter_delay_min"` // 章节间最小延迟
	ChapterDelayMax time.Duration `mapstructure:"chapter_delay_max" json:"chapter_delay_max" yaml:"chapter_delay_max"` // 章节间最大延迟
}

// DefaultCrawlConfig 默认爬取配置
func DefaultCrawlConfig() CrawlConfig {
	return CrawlConfig{
		MaxChapters:     100000,
		MaxRetries:      3,
		DebugDir:        "debug_html",
		RetryBaseDelay:  time.Second,
		ChapterDelayMin: 100 * time.Millisecond,
		ChapterDelayMax: 500 * time.Millisecond,
	}
}

// Validate 验证配置
func (c *CrawlConfig) Validate() error {
	if err := ValidateURL(c.HomepageURL); err != nil {
		return fmt.Errorf("小说主页URL无效: %w", err)
	}
	if c.BaseURL != "" {
		if err := ValidateURL(c.BaseURL); err != nil {
			return fmt.Errorf("网站基础URL无效: %w", err)
		}
	}
	if c.MaxChapters < 1 {
		return fmt.Errorf("最大章节数必须大于0")
	}
	if c.MaxRetries < 1 || c.MaxRetries > 20 {
		return fmt.Errorf("最大重试次数必须在1-20之间")
	}
	if c.RetryBaseDelay < 0 {
		return fmt.Errorf("重试延迟不能为负数")
	}
	if c.ChapterDelayMin < 0 || c.ChapterDelayMax < 0 {
		return fmt.Errorf("章节间延迟不能为负数")
	}
	if c.ChapterDelayMin > c.ChapterDelayMax {
		return fmt.Errorf("章节间最小延迟不能大于最大延迟")
	}
	return nil
}
