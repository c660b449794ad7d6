package crawlers

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/novelcrawl/internal/models"
)

// Page 已解码为UTF-8的页面
type Page struct {
	URL        string
	StatusCode int
	HTML       string
}

// Document 解析为goquery文档
func (p *Page) Document() (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(p.HTML))
}

// PageFetcher 页面获取器
// 失败时返回 *models.FetchError
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (*Page, error)
	Close() error
}

// FetcherOptions 页面获取器配置
type FetcherOptions struct {
	Timeout         time.Duration         // 单次请求超时
	Render          bool                  // 使用浏览器渲染
	Headless        bool                  // 浏览器无头模式
	SettleDelay     time.Duration         // 页面加载后额外等待
	Encoding        string                // 强制页面编码, 为空时自动检测
	MinFreeMemoryMB uint64                // 启动浏览器所需最小可用内存
	Headers         models.HeaderProvider // 请求头
}

// NewPageFetcher 根据配置创建静态或浏览器渲染获取器
func NewPageFetcher(opts FetcherOptions) PageFetcher {
	if opts.Render {
		return NewDynamicFetcher(opts)
	}
	return NewStaticFetcher(opts)
}
