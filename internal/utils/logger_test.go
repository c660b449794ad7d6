package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newTestLogConfig(dir, level string) LogConfig {
	return LogConfig{
		Level:      level,
		LogDir:     dir,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   false,
		NoConsole:  true,
	}
}

func TestInitLogger(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "logs")

	logger, err := InitLogger(newTestLogConfig(tempDir, "debug"))
	if err != nil {
		t.Fatalf("初始化日志器失败: %v", err)
	}

	if _, err := os.Stat(tempDir); os.IsNotExist(err) {
		t.Errorf("日志目录未创建: %s", tempDir)
	}

	Info("测试信息日志")
	Warn("测试警告日志")
	Debug("测试调试日志")

	if err := logger.Close(); err != nil {
		t.Fatalf("关闭日志器失败: %v", err)
	}

	mainLogPath := filepath.Join(tempDir, MainLogFile)
	if _, err := os.Stat(mainLogPath); os.IsNotExist(err) {
		t.Errorf("主日志文件未创建: %s", mainLogPath)
	}
}

func TestLogLevels(t *testing.T) {
	tempDir := t.TempDir()

	logger, err := InitLogger(newTestLogConfig(tempDir, "info"))
	if err != nil {
		t.Fatalf("初始化日志器失败: %v", err)
	}

	Infof("格式化信息日志: %s", "测试")
	Warnf("格式化警告日志: %d", 123)
	Debugf("格式化调试日志: %v", "不应出现")
	logger.Errorf("章节抓取失败: %s", "超时")
	logger.Close()

	content, err := os.ReadFile(filepath.Join(tempDir, MainLogFile))
	if err != nil {
		t.Fatalf("读取日志文件失败: %v", err)
	}
	if !strings.Contains(string(content), "格式化信息日志: 测试") {
		t.Error("主日志缺少信息日志")
	}
	if strings.Contains(string(content), "不应出现") {
		t.Error("info级别下不应写入调试日志")
	}

	errContent, err := os.ReadFile(filepath.Join(tempDir, ErrorLogFile))
	if err != nil {
		t.Fatalf("读取错误日志文件失败: %v", err)
	}
	if !strings.Contains(string(errContent), "章节抓取失败") {
		t.Error("错误日志缺少错误级别日志")
	}
	if strings.Contains(string(errContent), "格式化信息日志") {
		t.Error("错误日志不应包含信息级别日志")
	}
}

func TestDefaultLogConfig(t *testing.T) {
	config := DefaultLogConfig()

	if config.Level != "info" {
		t.Errorf("默认日志级别错误: 期望 'info', 得到 '%s'", config.Level)
	}
	if config.LogDir != "logs" {
		t.Errorf("默认日志目录错误: 期望 'logs', 得到 '%s'", config.LogDir)
	}
	if config.MaxSize != 10 || config.MaxBackups != 3 || config.MaxAge != 28 {
		t.Errorf("默认轮转参数错误: %+v", config)
	}
	if !config.Compress {
		t.Error("默认应该启用压缩")
	}
}

func TestFilteredWriter_WriteLevel(t *testing.T) {
	var buf bytes.Buffer
	w := &FilteredWriter{Writer: &buf, MinLevel: zerolog.ErrorLevel}

	n, err := w.WriteLevel(zerolog.InfoLevel, []byte("info"))
	if err != nil || n != 4 {
		t.Fatalf("WriteLevel() = %d, %v", n, err)
	}
	if buf.Len() != 0 {
		t.Error("低于最小级别的日志不应写入")
	}

	w.WriteLevel(zerolog.ErrorLevel, []byte("error"))
	if buf.String() != "error" {
		t.Errorf("错误级别日志应写入, 得到 %q", buf.String())
	}
}

func TestAppLogger_ChineseOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewAppLogger(zerolog.New(&buf))

	logger.Infof("爬取小说: [%s]", "第 1 章: 开端")
	logger.Errorf("爬取失败 (第 %d/%d 次尝试)", 1, 3)

	out := buf.String()
	if !strings.Contains(out, "第 1 章: 开端") {
		t.Errorf("中文日志未正确写入: %s", out)
	}
	if !strings.Contains(out, `"level":"error"`) {
		t.Errorf("缺少错误级别字段: %s", out)
	}
}
