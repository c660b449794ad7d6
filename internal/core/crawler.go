package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/RecoveryAshes/novelcrawl/internal/models"
	"github.com/RecoveryAshes/novelcrawl/internal/utils"
)

// ChapterSource 站点能力: 获取章节列表和单章内容
type ChapterSource interface {
	// DiscoverChapters 返回小说标题和按站点顺序排列的章节引用
	// 失败时返回 *models.DiscoveryError
	DiscoverChapters(ctx context.Context, homepageURL string) (string, []models.ChapterRef, error)

	// FetchChapter 抓取单章, 失败时返回 models.Failed(url, *models.FetchError)
	FetchChapter(ctx context.Context, chapterURL string) models.FetchResult
}

// Logger 爬取核心使用的日志接口, utils.AppLogger 实现了它
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Snapshotter 保存页面快照用于排查
type Snapshotter interface {
	Capture(ctx context.Context, name, pageURL string) (string, error)
}

// ProgressTracker 抓取进度显示
type ProgressTracker interface {
	Add(n int) error
	Finish() error
}

// TrackerFactory 根据计划章节数创建进度显示
type TrackerFactory func(total int, description string) ProgressTracker

func defaultLogger() Logger {
	return utils.NewAppLogger(utils.Logger)
}

// snapshotTimeout 中止时抓取主页快照的最长时间
const snapshotTimeout = 30 * time.Second

// Crawler 增量爬取协调器
// 状态流转: discovering -> reconciling -> fetching -> assembling -> done, 任意阶段出错进入 aborted
type Crawler struct {
	config models.CrawlConfig
	source ChapterSource

	store       *ProgressStore
	fetcher     *RetryFetcher
	snapshotter Snapshotter
	logger      Logger
	newTracker  TrackerFactory
	sleep       func(ctx context.Context, d time.Duration) error
}

// CrawlerOption Crawler 选项
type CrawlerOption func(*Crawler)

// WithStore 指定进度存储
func WithStore(store *ProgressStore) CrawlerOption {
	return func(c *Crawler) { c.store = store }
}

// WithRetryFetcher 指定重试抓取器
func WithRetryFetcher(fetcher *RetryFetcher) CrawlerOption {
	return func(c *Crawler) { c.fetcher = fetcher }
}

// WithSnapshotter 指定快照器, 仅在 DebugEnabled 时使用
func WithSnapshotter(s Snapshotter) CrawlerOption {
	return func(c *Crawler) { c.snapshotter = s }
}

// WithLogger 指定日志器
func WithLogger(logger Logger) CrawlerOption {
	return func(c *Crawler) { c.logger = logger }
}

// WithProgressTracker 指定进度显示
func WithProgressTracker(factory TrackerFactory) CrawlerOption {
	return func(c *Crawler) { c.newTracker = factory }
}

// WithSleep 替换章节间等待函数
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) CrawlerOption {
	return func(c *Crawler) { c.sleep = sleep }
}

// NewCrawler 创建爬取协调器
func NewCrawler(config models.CrawlConfig, source ChapterSource, opts ...CrawlerOption) *Crawler {
	c := &Crawler{
		config: config,
		source: source,
		sleep:  utils.SleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = defaultLogger()
	}
	if c.store == nil {
		c.store = NewProgressStore(".", c.logger)
	}
	if c.fetcher == nil {
		c.fetcher = NewRetryFetcher(config.MaxRetries, config.RetryBaseDelay, c.logger)
	}
	return c
}

// workItem 待抓取章节
type workItem struct {
	ref models.ChapterRef
	key string // 仅单一计数器模式下预先计算
}

// crawlPlan 本次运行的章节顺序和待抓取列表
type crawlPlan struct {
	orderedKeys []string
	items       []workItem
}

// Crawl 执行一次增量爬取
// 任何错误都记录在报告中, 不会panic也不返回错误
func (c *Crawler) Crawl(ctx context.Context, homepageURL string) (report *models.CrawlReport) {
	report = models.NewCrawlReport(homepageURL, c.config)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			c.abort(ctx, report, homepageURL, fmt.Errorf("爬取过程中发生未预期错误: %v", r))
		}
		report.EndTime = time.Now()
		report.Stats.Duration = report.EndTime.Sub(start).Seconds()
	}()

	if err := c.run(ctx, homepageURL, report); err != nil {
		c.abort(ctx, report, homepageURL, err)
	}
	if !report.State.Terminal() {
		report.State = models.StateAborted
	}
	return report
}

func (c *Crawler) run(ctx context.Context, homepageURL string, report *models.CrawlReport) error {
	report.State = models.StateDiscovering
	c.logger.Infof("开始获取章节列表: %s", homepageURL)

	title, refs, err := c.source.DiscoverChapters(ctx, homepageURL)
	if err != nil {
		return err
	}
	report.NovelTitle = title
	report.Stats.Discovered = len(refs)
	report.ProgressFile, _ = c.store.Paths(title)
	c.logger.Infof("小说标题: %s，共发现 %d 个章节", title, len(refs))

	report.State = models.StateReconciling
	if c.config.ClearFiles {
		c.logger.Infof("已启用清空现有文件功能")
		c.store.Clear(title)
	} else {
		c.logger.Infof("已禁用清空现有文件功能")
	}

	progress := c.store.Load(title)
	report.Stats.AlreadyStored = len(progress)

	remaining := c.config.MaxChapters - len(progress)
	if remaining <= 0 {
		c.logger.Infof("已保存 %d 章，达到最大章节数 %d，无需继续爬取", len(progress), c.config.MaxChapters)
		report.State = models.StateDone
		return nil
	}

	plan := c.buildPlan(refs, progress, remaining)
	report.Stats.Planned = len(plan.items)
	c.logger.Infof("已保存 %d 章，本次计划爬取 %d 章", len(progress), len(plan.items))

	report.State = models.StateFetching
	fetchErr := c.fetchAll(ctx, title, plan, progress, report)

	// 中断时也合成已保存的章节
	report.State = models.StateAssembling
	txtPath, err := c.store.Assemble(title, plan.orderedKeys, progress)
	if err != nil {
		return err
	}
	report.DocumentFile = txtPath
	report.Stats.Orphans = OrphanCount(plan.orderedKeys, progress)

	if fetchErr != nil {
		return fmt.Errorf("任务已中断: %w", fetchErr)
	}

	report.State = models.StateDone
	c.logger.Infof("小说 %s 爬取完成，共 %d 章，保存到 %s", title, len(progress), txtPath)
	return nil
}

// buildPlan 计算章节顺序和待抓取列表
func (c *Crawler) buildPlan(refs []models.ChapterRef, progress models.ProgressMap, remaining int) crawlPlan {
	plan := crawlPlan{orderedKeys: make([]string, len(refs))}

	counter := 1
	for i, ref := range refs {
		if c.config.UnifiedCounter {
			plan.orderedKeys[i], counter = NormalizeTitle(ref.RawTitle, counter)
		} else {
			// 每个章节单独从1开始计数
			plan.orderedKeys[i], _ = NormalizeTitle(ref.RawTitle, 1)
		}
	}

	// 原始标题重复时保留第一次出现的位置, URL 取最后一次出现的
	position := make(map[string]int, len(refs))
	for i, ref := range refs {
		if progress.Has(plan.orderedKeys[i]) {
			continue
		}
		if idx, ok := position[ref.RawTitle]; ok {
			plan.items[idx].ref.URL = ref.URL
			continue
		}
		position[ref.RawTitle] = len(plan.items)

		item := workItem{ref: ref}
		if c.config.UnifiedCounter {
			item.key = plan.orderedKeys[i]
		}
		plan.items = append(plan.items, item)
	}

	if len(plan.items) > remaining {
		plan.items = plan.items[:remaining]
	}
	return plan
}

// fetchAll 逐章抓取, 每章成功后立即保存进度
// 只有context取消时返回错误
func (c *Crawler) fetchAll(ctx context.Context, title string, plan crawlPlan, progress models.ProgressMap, report *models.CrawlReport) error {
	var tracker ProgressTracker
	if c.newTracker != nil && len(plan.items) > 0 {
		tracker = c.newTracker(len(plan.items), title)
		defer tracker.Finish()
	}

	counter := 1
	for _, item := range plan.items {
		if err := ctx.Err(); err != nil {
			return err
		}

		key := item.key
		if !c.config.UnifiedCounter {
			key, counter = NormalizeTitle(item.ref.RawTitle, counter)
		}

		if progress.Has(key) {
			c.logger.Infof("章节 %s 已存在，跳过", key)
			report.Stats.GuardSkipped++
			continue
		}

		result := c.fetcher.Fetch(ctx, c.source.FetchChapter, item.ref.URL)
		if !result.OK() {
			c.recordSkip(ctx, report, key, result)
			if err := ctx.Err(); err != nil {
				return err
			}
			continue
		}

		progress[key] = models.FormatChapterBody(key, result.Body)
		if err := c.store.Save(title, progress); err != nil {
			c.logger.Errorf("保存进度失败: %v", err)
		}
		report.Stats.Fetched++
		c.logger.Infof("爬取小说： [%s] from url %s 内容长度： %d", key, item.ref.URL, utf8.RuneCountInString(result.Body))

		if tracker != nil {
			tracker.Add(1)
		}

		delay := utils.RandomDuration(c.config.ChapterDelayMin, c.config.ChapterDelayMax)
		if err := c.sleep(ctx, delay); err != nil {
			return err
		}
	}
	return nil
}

func (c *Crawler) recordSkip(ctx context.Context, report *models.CrawlReport, key string, result models.FetchResult) {
	info := models.SkippedChapterInfo{
		Key:       key,
		URL:       result.URL,
		Attempts:  result.Attempts,
		Temporary: true,
	}
	if result.Err != nil {
		info.ErrorMsg = result.Err.Error()
		var fetchErr *models.FetchError
		if errors.As(result.Err, &fetchErr) {
			info.Temporary = fetchErr.Temporary()
		}
	}
	report.SkippedChapters = append(report.SkippedChapters, info)
	report.Stats.Skipped++

	if ctx.Err() == nil {
		c.captureSnapshot(ctx, key, result.URL)
	}
}

// abort 记录错误并进入中止状态
func (c *Crawler) abort(ctx context.Context, report *models.CrawlReport, homepageURL string, err error) {
	c.logger.Errorf("爬取小说时出错: %v", err)
	report.State = models.StateAborted
	report.Error = err.Error()

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}
	c.captureSnapshot(ctx, c.homepageSnapshotName(), homepageURL)
}

// homepageSnapshotName 中止时主页快照的文件名, 按站点区分
func (c *Crawler) homepageSnapshotName() string {
	site := models.SafeFilename(strings.TrimSpace(c.config.Site))
	if site == "" {
		site = "crawler"
	}
	return "debug_" + site
}

// captureSnapshot 调试模式下保存页面, 失败只记录日志
func (c *Crawler) captureSnapshot(ctx context.Context, name, pageURL string) {
	if !c.config.DebugEnabled || c.snapshotter == nil {
		return
	}

	snapCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), snapshotTimeout)
	defer cancel()

	path, err := c.snapshotter.Capture(snapCtx, name, pageURL)
	if err != nil {
		c.logger.Errorf("保存调试页面失败: %v", err)
		return
	}
	c.logger.Infof("已保存调试页面: %s", path)
}
