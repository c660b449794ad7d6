package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/RecoveryAshes/novelcrawl/internal/core"
	"github.com/RecoveryAshes/novelcrawl/internal/crawlers"
	"github.com/RecoveryAshes/novelcrawl/internal/models"
	"github.com/RecoveryAshes/novelcrawl/internal/utils"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
// 爬取参数通过 core.Config.MergeCLIFlags 读取, 这里只保存全局参数
var (
	configFile string
	verbose    bool

	// HTTP头部参数
	headers        []string // 自定义HTTP请求头
	headersFile    string   // 请求头配置文件
	validateConfig bool     // 验证配置文件
)

// 运行时状态, 由 PersistentPreRunE 初始化
var (
	appConfig *core.Config
	appLogger *utils.AppLogger
)

var rootCmd = &cobra.Command{
	Use:   "novelcrawl [site]",
	Short: "小说章节增量爬取工具",
	Long: `novelcrawl - 小说章节增量爬取工具

逐章抓取小说并在每章完成后保存进度, 中断后重新运行只抓取缺失的章节,
最后按站点目录顺序合成 {小说标题}.txt。

支持的站点:
  77shuwu     77读书网
  huanghelou  黄鹤楼文学

示例:
  # 按主页域名自动识别站点
  novelcrawl -u "http://www.77shuku.org/novel/62042/"

  # 指定站点, 使用该站点的默认主页
  novelcrawl huanghelou

  # 限制章节数并保存调试页面
  novelcrawl -u "https://www.hhlwx.org/hhlchapter/69730.html" -n 50 --debug

  # 自定义请求头
  novelcrawl 77shuwu -H "Cookie: session=abc" -H "Referer: https://www.77shuwu.org/"

  # 验证请求头配置
  novelcrawl --validate-config

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version:      Version,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 加载配置
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 命令行参数覆盖配置文件
		if err := config.MergeCLIFlags(cmd.Flags()); err != nil {
			return fmt.Errorf("解析命令行参数失败: %w", err)
		}
		if verbose {
			config.Logging.Level = "debug"
		}

		logger, err := utils.InitLogger(config.LogConfig())
		if err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		appConfig = config
		appLogger = logger

		if verbose {
			utils.Info("详细模式已启用")
		}
		return nil
	},
	RunE: runCrawl,
}

func runCrawl(cmd *cobra.Command, args []string) error {
	headerManager, err := core.NewHeaderManager(headersFile, headers)
	if err != nil {
		return fmt.Errorf("创建HTTP头部管理器失败: %w", err)
	}

	// 如果用户请求验证配置
	if validateConfig {
		return runValidateConfig(headerManager)
	}

	config := appConfig
	if len(args) == 1 {
		config.Crawl.Site = args[0]
	}

	interactive := utils.IsInteractive()
	if config.Crawl.Site == "" && config.Crawl.HomepageURL == "" && !interactive {
		return cmd.Help()
	}

	var chooser siteChooser
	if interactive {
		chooser = promptSite
	}
	site, err := resolveSite(config.Crawl.Site, config.Crawl.HomepageURL, chooser)
	if err != nil {
		return err
	}
	applySiteDefaults(&config.Crawl, site)

	if err := ValidateFlags(config); err != nil {
		return err
	}
	if err := headerManager.LoadConfig(); err != nil {
		return fmt.Errorf("加载HTTP头部配置失败: %w", err)
	}
	if err := headerManager.Validate(); err != nil {
		return fmt.Errorf("HTTP头部验证失败: %w", err)
	}

	// 设置信号处理(Ctrl+C在当前章节结束后停止, 已保存的进度不受影响)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			utils.Warnf("收到中断信号: %v, 正在停止...", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	fetcher := crawlers.NewPageFetcher(crawlers.FetcherOptions{
		Timeout:         config.Fetch.Timeout,
		Render:          config.Fetch.Render,
		Headless:        config.Fetch.Headless,
		SettleDelay:     config.Fetch.SettleDelay,
		Encoding:        config.Fetch.Encoding,
		MinFreeMemoryMB: config.Fetch.MinFreeMemoryMB,
		Headers:         headerManager,
	})
	defer fetcher.Close()

	opts := []core.CrawlerOption{
		core.WithLogger(appLogger),
		core.WithStore(core.NewProgressStore(config.Output.BaseDir, appLogger)),
	}

	var snapshotter *crawlers.Snapshotter
	if config.Crawl.DebugEnabled {
		snapshotter = crawlers.NewSnapshotter(config.Crawl.DebugDir, headerManager)
		opts = append(opts, core.WithSnapshotter(snapshotter))
	}
	if config.Output.ProgressBar {
		opts = append(opts, core.WithProgressTracker(newProgressTracker))
	}

	source := site.New(crawlers.SiteOptions{
		BaseURL: config.Crawl.BaseURL,
		Fetcher: fetcher,
		Logger:  appLogger,
		Debug:   snapshotter,
	})

	utils.Infof("使用站点: %s (%s)", site.Name, site.DisplayName)
	utils.Infof("目标URL: %s", config.Crawl.HomepageURL)
	utils.Infof("最大章节数: %d", config.Crawl.MaxChapters)

	report := core.NewCrawler(config.Crawl, source, opts...).Crawl(ctx, config.Crawl.HomepageURL)
	printSummary(report)

	if config.Output.Reports {
		if _, err := utils.NewReporter(config.Output.BaseDir).GenerateReport(report); err != nil {
			utils.Warnf("生成报告失败: %v", err)
		}
	}
	return nil
}

// runValidateConfig 验证并显示生效的HTTP头部
func runValidateConfig(headerManager *core.HeaderManager) error {
	utils.Info("🔍 验证HTTP头部配置...")
	if err := headerManager.LoadConfig(); err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	if err := headerManager.Validate(); err != nil {
		return fmt.Errorf("配置验证失败: %w", err)
	}

	// 显示合并后的头部(脱敏)
	safeHeaders := headerManager.GetSafeHeaders()
	utils.Info("✅ 配置验证通过!")
	utils.Infof("当前有效的HTTP头部 (%d个):", len(safeHeaders))
	for name, value := range safeHeaders {
		utils.Infof("  %s: %s", name, value)
	}
	return nil
}

// promptSite 在终端中选择站点
func promptSite(sites []crawlers.Site) (int, error) {
	items := make([]string, len(sites))
	for i, s := range sites {
		items[i] = fmt.Sprintf("%s  (%s)", s.Name, s.DisplayName)
	}

	prompt := promptui.Select{
		Label: "选择站点",
		Items: items,
	}
	idx, _, err := prompt.Run()
	return idx, err
}

func newProgressTracker(total int, description string) core.ProgressTracker {
	return utils.NewProgressBar(total, description)
}

// printSummary 显示统计结果
func printSummary(report *models.CrawlReport) {
	stats := report.Stats
	fmt.Println("\n==================================================")
	fmt.Println("📊 爬取统计")
	fmt.Println("==================================================")
	fmt.Printf("📖 小说: %s\n", report.NovelTitle)
	fmt.Printf("🔖 状态: %s\n", report.State)
	fmt.Printf("✅ 发现章节: %d\n", stats.Discovered)
	fmt.Printf("✅ 已有章节: %d\n", stats.AlreadyStored)
	fmt.Printf("✅ 本次抓取: %d/%d\n", stats.Fetched, stats.Planned)
	fmt.Printf("❌ 放弃章节: %d\n", stats.Skipped)
	if stats.Orphans > 0 {
		fmt.Printf("⚠️  未匹配章节: %d\n", stats.Orphans)
	}
	if report.DocumentFile != "" {
		fmt.Printf("📄 输出文件: %s\n", report.DocumentFile)
	}
	if report.Error != "" {
		fmt.Printf("❗ 错误: %s\n", report.Error)
	}
	fmt.Printf("⏱️  总耗时: %.2f秒\n", stats.Duration)
	fmt.Println("==================================================")
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().String("log-level", "", "日志级别 (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().StringP("output", "o", ".", "进度文件和TXT输出目录")

	// HTTP头部参数
	rootCmd.PersistentFlags().StringSliceVarP(&headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")
	rootCmd.PersistentFlags().StringVar(&headersFile, "headers-file", "", "HTTP头部配置文件 (默认 configs/headers.yaml)")
	rootCmd.PersistentFlags().BoolVar(&validateConfig, "validate-config", false, "验证配置文件正确性")

	// 爬取参数
	rootCmd.Flags().StringP("url", "u", "", "小说主页URL")
	rootCmd.Flags().StringP("base-url", "b", "", "网站基础URL (默认使用站点配置)")
	rootCmd.Flags().StringP("site", "s", "", "站点名称, 为空时根据URL识别")
	rootCmd.Flags().IntP("max-chapters", "n", 100000, "最大章节数")
	rootCmd.Flags().IntP("max-retries", "r", 3, "单章最大尝试次数 (1-20)")
	rootCmd.Flags().Bool("clear", false, "爬取前清空已有的进度和TXT文件")
	rootCmd.Flags().Bool("debug", false, "保存章节页面用于排查")
	rootCmd.Flags().String("debug-dir", crawlers.DefaultDebugDir, "调试页面保存目录")
	rootCmd.Flags().Bool("render", false, "使用浏览器渲染页面")
	rootCmd.Flags().Bool("unified-counter", false, "章节键使用统一计数器")
	rootCmd.Flags().String("encoding", "", "强制页面编码 (gbk|gb18030|utf-8), 为空时自动检测")

	// 添加子命令
	rootCmd.AddCommand(versionCmd, sitesCmd, statusCmd, assembleCmd, configCmd, doctorCmd)
}

func main() {
	err := rootCmd.Execute()
	if appLogger != nil {
		appLogger.Close()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
