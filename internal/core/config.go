package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RecoveryAshes/novelcrawl/internal/models"
	"github.com/RecoveryAshes/novelcrawl/internal/utils"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀, 如 NOVELCRAWL_CRAWL_MAX_RETRIES
const EnvPrefix = "NOVELCRAWL"

// Config 应用程序配置
type Config struct {
	Crawl   models.CrawlConfig `mapstructure:"crawl" yaml:"crawl"`
	Fetch   FetchConfig        `mapstructure:"fetch" yaml:"fetch"`
	Logging LoggingConfig      `mapstructure:"logging" yaml:"logging"`
	Output  OutputConfig       `mapstructure:"output" yaml:"output"`
}

// FetchConfig 页面获取配置
type FetchConfig struct {
	Timeout         time.Duration `mapstructure:"timeout" yaml:"timeout"`                       // 单次请求超时
	Render          bool          `mapstructure:"render" yaml:"render"`                         // 使用浏览器渲染页面
	Headless        bool          `mapstructure:"headless" yaml:"headless"`                     // 浏览器无头模式
	SettleDelay     time.Duration `mapstructure:"settle_delay" yaml:"settle_delay"`             // 页面加载后额外等待
	Encoding        string        `mapstructure:"encoding" yaml:"encoding"`                     // 强制页面编码 (gbk, gb18030), 为空时自动检测
	MinFreeMemoryMB uint64        `mapstructure:"min_free_memory_mb" yaml:"min_free_memory_mb"` // 启动浏览器所需最小可用内存
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level" yaml:"level"`
	LogDir   string         `mapstructure:"log_dir" yaml:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation" yaml:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int  `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int  `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool `mapstructure:"compress" yaml:"compress"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	BaseDir     string `mapstructure:"base_dir" yaml:"base_dir"`         // 进度文件和TXT输出目录
	Reports     bool   `mapstructure:"reports" yaml:"reports"`           // 生成JSON报告
	ProgressBar bool   `mapstructure:"progress_bar" yaml:"progress_bar"` // 显示进度条
}

// LoadConfig 加载配置
// 优先级: 默认值 < 配置文件 < NOVELCRAWL_* 环境变量 (命令行参数由 MergeCLIFlags 处理)
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".novelcrawl"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	if used := v.ConfigFileUsed(); used != "" {
		utils.Debugf("使用配置文件: %s", used)
	}
	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	crawl := models.DefaultCrawlConfig()
	v.SetDefault("crawl.site", "")
	v.SetDefault("crawl.homepage_url", "")
	v.SetDefault("crawl.base_url", "")
	v.SetDefault("crawl.max_chapters", crawl.MaxChapters)
	v.SetDefault("crawl.max_retries", crawl.MaxRetries)
	v.SetDefault("crawl.clear_files", false)
	v.SetDefault("crawl.debug_enabled", false)
	v.SetDefault("crawl.debug_dir", crawl.DebugDir)
	v.SetDefault("crawl.unified_counter", false)
	v.SetDefault("crawl.retry_base_delay", crawl.RetryBaseDelay)
	v.SetDefault("crawl.chapter_delay_min", crawl.ChapterDelayMin)
	v.SetDefault("crawl.chapter_delay_max", crawl.ChapterDelayMax)

	v.SetDefault("fetch.timeout", 30*time.Second)
	v.SetDefault("fetch.render", false)
	v.SetDefault("fetch.headless", true)
	v.SetDefault("fetch.settle_delay", 2*time.Second)
	v.SetDefault("fetch.encoding", "")
	v.SetDefault("fetch.min_free_memory_mb", 512)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	v.SetDefault("output.base_dir", ".")
	v.SetDefault("output.reports", true)
	v.SetDefault("output.progress_bar", true)
}

// MergeCLIFlags 合并命令行参数, 只覆盖用户显式指定的参数
func (c *Config) MergeCLIFlags(flags *pflag.FlagSet) error {
	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	stringFlags := map[string]*string{
		"url":       &c.Crawl.HomepageURL,
		"base-url":  &c.Crawl.BaseURL,
		"site":      &c.Crawl.Site,
		"debug-dir": &c.Crawl.DebugDir,
		"output":    &c.Output.BaseDir,
		"log-level": &c.Logging.Level,
		"encoding":  &c.Fetch.Encoding,
	}
	for name, target := range stringFlags {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			continue
		}
		value, err := flags.GetString(name)
		record(err)
		*target = value
	}

	intFlags := map[string]*int{
		"max-chapters": &c.Crawl.MaxChapters,
		"max-retries":  &c.Crawl.MaxRetries,
	}
	for name, target := range intFlags {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			continue
		}
		value, err := flags.GetInt(name)
		record(err)
		*target = value
	}

	boolFlags := map[string]*bool{
		"clear":           &c.Crawl.ClearFiles,
		"debug":           &c.Crawl.DebugEnabled,
		"unified-counter": &c.Crawl.UnifiedCounter,
		"render":          &c.Fetch.Render,
	}
	for name, target := range boolFlags {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			continue
		}
		value, err := flags.GetBool(name)
		record(err)
		*target = value
	}

	return firstErr
}

// LogConfig 转换为日志系统配置
func (c *Config) LogConfig() utils.LogConfig {
	return utils.LogConfig{
		Level:      c.Logging.Level,
		LogDir:     c.Logging.LogDir,
		MaxSize:    c.Logging.Rotation.MaxSize,
		MaxBackups: c.Logging.Rotation.MaxBackups,
		MaxAge:     c.Logging.Rotation.MaxAge,
		Compress:   c.Logging.Rotation.Compress,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if err := c.Crawl.Validate(); err != nil {
		return err
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("请求超时必须大于0")
	}
	switch strings.ToLower(c.Fetch.Encoding) {
	case "", "auto", "utf-8", "utf8", "gbk", "gb18030", "gb2312":
	default:
		return fmt.Errorf("不支持的页面编码: %s", c.Fetch.Encoding)
	}
	return nil
}
