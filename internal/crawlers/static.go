package crawlers

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"github.com/RecoveryAshes/novelcrawl/internal/models"
	"github.com/RecoveryAshes/novelcrawl/internal/utils"
	"github.com/gocolly/colly/v2"
)

// DefaultRequestTimeout 默认请求超时
const DefaultRequestTimeout = 30 * time.Second

const contentTypeKey = "content-type"

// StaticFetcher 静态页面获取器(使用Colly)
type StaticFetcher struct {
	collector *colly.Collector
	headers   models.HeaderProvider
	encoding  string
}

// NewStaticFetcher 创建静态页面获取器
func NewStaticFetcher(opts FetcherOptions) *StaticFetcher {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	// 重试需要重复访问同一URL
	c := colly.NewCollector(colly.AllowURLRevisit())
	c.SetRequestTimeout(timeout)

	// 部分小说站点证书过期或域名不匹配
	c.WithTransport(&http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	})

	utils.Debugf("静态获取器: 超时 %s, 编码 %q", timeout, opts.Encoding)

	return &StaticFetcher{
		collector: c,
		headers:   opts.Headers,
		encoding:  opts.Encoding,
	}
}

// Fetch 获取页面, 非200状态码视为失败
func (sf *StaticFetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	c := sf.collector.Clone()
	c.Context = ctx

	var (
		page     *Page
		fetchErr error
	)

	c.OnRequest(func(r *colly.Request) {
		if sf.headers == nil {
			return
		}
		headers, err := sf.headers.GetHeaders()
		if err != nil {
			utils.Warnf("获取HTTP头部失败: %v", err)
			return
		}
		for name, values := range headers {
			if len(values) > 0 {
				r.Headers.Set(name, values[0])
			}
		}
	})

	// colly会按Content-Type直接转码, 此时br压缩的正文尚未解压
	// 先取出Content-Type, 解压后在OnResponse中统一转码
	c.OnResponseHeaders(func(r *colly.Response) {
		r.Ctx.Put(contentTypeKey, r.Headers.Get("Content-Type"))
		r.Headers.Del("Content-Type")
	})

	c.OnResponse(func(r *colly.Response) {
		if r.StatusCode != http.StatusOK {
			fetchErr = &models.FetchError{URL: pageURL, Reason: "响应状态异常", StatusCode: r.StatusCode}
			return
		}

		body, err := decompressResponse(r.Headers.Get("Content-Encoding"), r.Body)
		if err != nil {
			fetchErr = &models.FetchError{URL: pageURL, Reason: "解压响应失败", StatusCode: r.StatusCode, Cause: err}
			return
		}

		html, err := decodeHTML(body, r.Ctx.Get(contentTypeKey), sf.encoding)
		if err != nil {
			fetchErr = &models.FetchError{URL: pageURL, Reason: "页面解码失败", StatusCode: r.StatusCode, Cause: err}
			return
		}

		page = &Page{URL: r.Request.URL.String(), StatusCode: r.StatusCode, HTML: html}
	})

	c.OnError(func(r *colly.Response, err error) {
		fetchErr = &models.FetchError{URL: pageURL, Reason: "请求失败", StatusCode: r.StatusCode, Cause: err}
	})

	utils.Debugf("访问: %s", pageURL)
	if err := c.Visit(pageURL); err != nil && fetchErr == nil {
		fetchErr = &models.FetchError{URL: pageURL, Reason: "请求失败", Cause: err}
	}

	if fetchErr != nil {
		return nil, fetchErr
	}
	if page == nil {
		return nil, &models.FetchError{URL: pageURL, Reason: "未收到响应"}
	}
	return page, nil
}

// Close 静态获取器没有需要释放的资源
func (sf *StaticFetcher) Close() error {
	return nil
}
