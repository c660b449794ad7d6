package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/RecoveryAshes/novelcrawl/internal/config"
	"github.com/RecoveryAshes/novelcrawl/internal/core"
	"github.com/RecoveryAshes/novelcrawl/internal/crawlers"
	"github.com/RecoveryAshes/novelcrawl/internal/utils"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("novelcrawl %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
		fmt.Printf("Go版本: %s\n", runtime.Version())
	},
}

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "列出支持的站点",
	Run: func(cmd *cobra.Command, args []string) {
		printSites(cmd.OutOrStdout())
	},
}

func printSites(w io.Writer) {
	for _, site := range crawlers.Sites() {
		fmt.Fprintf(w, "%-12s %s\n", site.Name, site.DisplayName)
		fmt.Fprintf(w, "  默认主页: %s\n", site.DefaultHomepage)
		fmt.Fprintf(w, "  基础URL:  %s\n", site.DefaultBaseURL)
	}
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "查看小说的本地进度",
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		if err := ValidateTitle(title); err != nil {
			return err
		}
		store := core.NewProgressStore(appConfig.Output.BaseDir, appLogger)
		return printStatus(cmd.OutOrStdout(), store, utils.NewReporter(appConfig.Output.BaseDir), title)
	},
}

func printStatus(w io.Writer, store *core.ProgressStore, reporter *utils.Reporter, title string) error {
	jsonPath, txtPath := store.Paths(title)
	if !store.Exists(title) {
		fmt.Fprintf(w, "未找到进度文件: %s\n", jsonPath)
		return nil
	}

	fmt.Fprintf(w, "小说: %s\n", title)
	fmt.Fprintf(w, "进度文件: %s\n", jsonPath)
	fmt.Fprintf(w, "已保存章节: %d\n", store.Count(title))
	if info, err := os.Stat(txtPath); err == nil {
		fmt.Fprintf(w, "TXT文件: %s (%d 字节)\n", txtPath, info.Size())
	} else {
		fmt.Fprintf(w, "TXT文件: 尚未生成\n")
	}

	// 最近一次运行的报告, 未开启报告时不存在
	last, err := reporter.LoadReport(title)
	if err != nil {
		return nil
	}
	fmt.Fprintf(w, "上次运行: %s, 状态 %s, 抓取 %d 章, 放弃 %d 章\n",
		last.EndTime.Format("2006-01-02 15:04:05"), last.State, last.Stats.Fetched, last.Stats.Skipped)
	if !last.State.Terminal() {
		fmt.Fprintln(w, "⚠️  上次运行未正常结束")
	}
	if last.Error != "" {
		fmt.Fprintf(w, "上次错误: %s\n", last.Error)
	}
	return nil
}

var assembleCmd = &cobra.Command{
	Use:   "assemble",
	Short: "根据进度文件重新合成TXT (不访问网络)",
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		if err := ValidateTitle(title); err != nil {
			return err
		}

		store := core.NewProgressStore(appConfig.Output.BaseDir, appLogger)
		progress := store.Load(title)
		if len(progress) == 0 {
			jsonPath, _ := store.Paths(title)
			return fmt.Errorf("没有可合成的章节: %s", jsonPath)
		}

		// 没有章节目录, 全部按章节编号排序
		txtPath, err := store.Assemble(title, nil, progress)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "已合成 %d 章: %s\n", len(progress), txtPath)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "配置相关命令",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "显示生效的配置 (YAML)",
	RunE: func(cmd *cobra.Command, args []string) error {
		headerManager, err := core.NewHeaderManager(headersFile, headers)
		if err != nil {
			return err
		}
		if err := headerManager.LoadConfig(); err != nil {
			return err
		}
		return writeConfigYAML(cmd.OutOrStdout(), appConfig, headerManager.GetSafeHeaders())
	},
}

// effectiveConfig config show 的输出结构
type effectiveConfig struct {
	Config  *core.Config      `yaml:"config"`
	Headers map[string]string `yaml:"headers"`
}

func writeConfigYAML(w io.Writer, cfg *core.Config, safeHeaders map[string]string) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(effectiveConfig{Config: cfg, Headers: safeHeaders}); err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}
	return enc.Close()
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "检查运行环境",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !runDoctor(cmd.OutOrStdout(), appConfig) {
			return fmt.Errorf("环境检查未通过, 请解决上述问题")
		}
		return nil
	},
}

// runDoctor 检查浏览器、内存、配置文件和输出目录
func runDoctor(w io.Writer, cfg *core.Config) bool {
	allOK := true

	fmt.Fprintf(w, "✅ Go版本: %s\n", runtime.Version())
	fmt.Fprintf(w, "✅ 操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)

	// 浏览器只在 --render 模式下需要
	if path, ok := launcher.LookPath(); ok {
		fmt.Fprintf(w, "✅ 浏览器: %s\n", path)
	} else if cfg.Fetch.Render {
		fmt.Fprintln(w, "❌ 未找到Chrome/Chromium, 浏览器渲染模式不可用")
		allOK = false
	} else {
		fmt.Fprintln(w, "⚠️  未找到Chrome/Chromium, --render 模式将首次运行时自动下载")
	}

	monitor := crawlers.NewResourceMonitor(crawlers.ResourceMonitorConfig{MinFreeMemoryMB: cfg.Fetch.MinFreeMemoryMB})
	if status, err := monitor.GetMemoryStatus(); err != nil {
		fmt.Fprintf(w, "⚠️  %v\n", err)
	} else {
		fmt.Fprintf(w, "✅ 内存: 可用 %dMB / 总计 %dMB (%s)\n", status.AvailableMB, status.TotalMB, status.MemoryPressure)
	}

	headerFile := config.NewHeaderConfigLoader(headersFile).Path()
	if _, err := os.Stat(headerFile); err == nil {
		fmt.Fprintf(w, "✅ 请求头配置: %s\n", headerFile)
	} else {
		fmt.Fprintf(w, "⚠️  请求头配置 %s 不存在, 首次运行时自动生成\n", headerFile)
	}

	if err := checkWritable(cfg.Output.BaseDir); err != nil {
		fmt.Fprintf(w, "❌ 输出目录不可写: %v\n", err)
		allOK = false
	} else {
		fmt.Fprintf(w, "✅ 输出目录: %s\n", cfg.Output.BaseDir)
	}
	return allOK
}

// checkWritable 在目录中创建并删除临时文件
func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".novelcrawl-doctor-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

func init() {
	statusCmd.Flags().StringP("title", "t", "", "小说标题 (与进度文件名一致)")
	assembleCmd.Flags().StringP("title", "t", "", "小说标题 (与进度文件名一致)")
	configCmd.AddCommand(configShowCmd)
}
