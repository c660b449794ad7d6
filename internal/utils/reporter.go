package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/novelcrawl/internal/models"
	"github.com/schollz/progressbar/v3"
)

// Reporter 报告生成器
type Reporter struct {
	outputDir string
}

// NewReporter 创建报告生成器, 报告写入 {outputDir}/reports
func NewReporter(outputDir string) *Reporter {
	return &Reporter{outputDir: outputDir}
}

// ReportPath 返回报告文件路径
func (r *Reporter) ReportPath(novelTitle string) string {
	name := models.SafeFilename(novelTitle)
	if name == "" {
		name = "unknown"
	}
	return filepath.Join(r.outputDir, "reports", name+"_report.json")
}

// GenerateReport 生成爬取报告
func (r *Reporter) GenerateReport(report *models.CrawlReport) (string, error) {
	path := r.ReportPath(report.NovelTitle)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("创建报告目录失败: %w", err)
	}

	data, err := report.ToJSON()
	if err != nil {
		return "", fmt.Errorf("序列化JSON失败: %w", err)
	}
	if err := r.saveJSONReport(path, data); err != nil {
		return "", err
	}

	Infof("✅ 报告已生成: %s", path)
	return path, nil
}

// LoadReport 读取小说最近一次的报告
func (r *Reporter) LoadReport(novelTitle string) (*models.CrawlReport, error) {
	data, err := os.ReadFile(r.ReportPath(novelTitle))
	if err != nil {
		return nil, err
	}

	var report models.CrawlReport
	if err := report.FromJSON(data); err != nil {
		return nil, fmt.Errorf("解析报告失败: %w", err)
	}
	return &report, nil
}

// saveJSONReport 保存JSON报告
func (r *Reporter) saveJSONReport(path string, jsonData []byte) error {
	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("写入报告文件失败: %w", err)
	}

	Debugf("保存报告: %s", path)
	return nil
}

// NewProgressBar 创建进度条
func NewProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(os.Stderr) }),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
