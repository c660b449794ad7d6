package crawlers

import (
	"context"
	"fmt"
	"sync"

	"github.com/RecoveryAshes/novelcrawl/internal/models"
	"github.com/RecoveryAshes/novelcrawl/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// DynamicFetcher 浏览器渲染页面获取器(使用go-rod)
// 浏览器在第一次请求时启动, 所有请求复用同一个标签页
type DynamicFetcher struct {
	opts    FetcherOptions
	monitor *ResourceMonitor

	mu      sync.Mutex
	browser *rod.Browser
	page    *rod.Page
}

// NewDynamicFetcher 创建浏览器渲染获取器
func NewDynamicFetcher(opts FetcherOptions) *DynamicFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultRequestTimeout
	}
	return &DynamicFetcher{
		opts:    opts,
		monitor: NewResourceMonitor(ResourceMonitorConfig{MinFreeMemoryMB: opts.MinFreeMemoryMB}),
	}
}

// launchBrowser 启动浏览器并打开标签页
func (df *DynamicFetcher) launchBrowser() error {
	if ok, reason := df.monitor.CheckResourceAvailability(); !ok {
		return fmt.Errorf("资源不足, 无法启动浏览器: %s", reason)
	}

	l := launcher.New().Headless(df.opts.Headless)
	// 部分小说站点证书过期或域名不匹配
	l = l.Set("ignore-certificate-errors")

	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("启动浏览器失败: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("连接浏览器失败: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		browser.Close()
		return fmt.Errorf("创建标签页失败: %w", err)
	}

	df.browser = browser
	df.page = page
	utils.Debugf("浏览器已启动: %s", controlURL)
	return nil
}

func (df *DynamicFetcher) headerPairs() []string {
	if df.opts.Headers == nil {
		return nil
	}
	headers, err := df.opts.Headers.GetHeaders()
	if err != nil {
		utils.Warnf("获取HTTP头部失败: %v", err)
		return nil
	}

	pairs := make([]string, 0, len(headers)*2)
	for name, values := range headers {
		// 浏览器自行协商压缩方式
		if name == "Accept-Encoding" || len(values) == 0 {
			continue
		}
		pairs = append(pairs, name, values[0])
	}
	return pairs
}

// Fetch 导航到页面并返回渲染后的HTML
func (df *DynamicFetcher) Fetch(ctx context.Context, pageURL string) (page *Page, err error) {
	df.mu.Lock()
	defer df.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = &models.FetchError{URL: pageURL, Reason: "页面渲染失败", Cause: fmt.Errorf("panic: %v", r)}
		}
	}()

	if df.page == nil {
		if err := df.launchBrowser(); err != nil {
			return nil, &models.FetchError{URL: pageURL, Reason: "浏览器不可用", Cause: err}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, df.opts.Timeout)
	defer cancel()
	p := df.page.Context(ctx)

	if pairs := df.headerPairs(); len(pairs) > 0 {
		restore, err := p.SetExtraHeaders(pairs)
		if err != nil {
			return nil, &models.FetchError{URL: pageURL, Reason: "设置请求头失败", Cause: err}
		}
		defer restore()
	}

	utils.Debugf("渲染页面: %s", pageURL)
	if err := p.Navigate(pageURL); err != nil {
		return nil, &models.FetchError{URL: pageURL, Reason: "导航失败", Cause: err}
	}
	if err := p.WaitLoad(); err != nil {
		return nil, &models.FetchError{URL: pageURL, Reason: "等待页面加载失败", Cause: err}
	}

	if df.opts.SettleDelay > 0 {
		if err := utils.SleepContext(ctx, df.opts.SettleDelay); err != nil {
			return nil, &models.FetchError{URL: pageURL, Reason: "等待页面渲染被中断", Cause: err}
		}
	}

	html, err := p.HTML()
	if err != nil {
		return nil, &models.FetchError{URL: pageURL, Reason: "读取页面内容失败", Cause: err}
	}

	return &Page{URL: pageURL, StatusCode: 200, HTML: html}, nil
}

// Close 关闭浏览器
func (df *DynamicFetcher) Close() error {
	df.mu.Lock()
	defer df.mu.Unlock()

	if df.browser == nil {
		return nil
	}
	err := df.browser.Close()
	df.browser = nil
	df.page = nil
	utils.Debugf("浏览器已关闭")
	return err
}

var (
	_ PageFetcher = (*StaticFetcher)(nil)
	_ PageFetcher = (*DynamicFetcher)(nil)
)
