package crawlers

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/novelcrawl/internal/models"
)

// HuanghelouName 黄鹤楼文学站点名称
const HuanghelouName = "huanghelou"

const (
	huanghelouDefaultHomepage = "https://www.hhlwx.org/hhlchapter/69730.html"
	huanghelouDefaultBaseURL  = "https://www.hhlwx.org"

	// 正文容器没有id和class, 只能按内联样式定位
	huanghelouContentStyle = "font-size: 20px; text-indent: 30px; line-height: 38px; width: 720px; margin: 0 auto;"
)

// Huanghelou 黄鹤楼文学抓取器
type Huanghelou struct {
	opts SiteOptions
}

// NewHuanghelou 创建黄鹤楼文学抓取器
func NewHuanghelou(opts SiteOptions) *Huanghelou {
	return &Huanghelou{opts: opts.withDefaults(huanghelouDefaultBaseURL)}
}

// DiscoverChapters 从目录页获取小说标题和章节列表
func (h *Huanghelou) DiscoverChapters(ctx context.Context, homepageURL string) (string, []models.ChapterRef, error) {
	page, err := h.opts.Fetcher.Fetch(ctx, homepageURL)
	if err != nil {
		return "", nil, &models.DiscoveryError{URL: homepageURL, Reason: "请求目录页失败", Cause: err}
	}
	doc, err := page.Document()
	if err != nil {
		return "", nil, &models.DiscoveryError{URL: homepageURL, Reason: "解析目录页失败", Cause: err}
	}

	heading := doc.Find("div.ksq_1").First().Find("h1").First()
	if heading.Length() == 0 {
		return "", nil, &models.DiscoveryError{URL: homepageURL, Reason: "未找到小说标题 (div.ksq_1 h1)"}
	}
	title := strings.TrimSpace(heading.Text())

	var refs []models.ChapterRef
	doc.Find("td.chapterlist").Each(func(_ int, cell *goquery.Selection) {
		a := cell.Find("a").First()
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		refs = append(refs, models.ChapterRef{
			RawTitle: strings.TrimSpace(a.Text()),
			URL:      h.opts.BaseURL + href,
		})
	})

	h.opts.Logger.Infof("成功获取章节列表，共%d个章节", len(refs))
	return title, refs, nil
}

// FetchChapter 获取单章内容, 标题和正文容器缺失都视为失败
func (h *Huanghelou) FetchChapter(ctx context.Context, chapterURL string) models.FetchResult {
	h.opts.Logger.Infof("尝试获取章节内容: %s", chapterURL)

	page, err := h.opts.Fetcher.Fetch(ctx, chapterURL)
	if err != nil {
		return models.Failed(chapterURL, err)
	}
	doc, err := page.Document()
	if err != nil {
		return models.Failed(chapterURL, &models.FetchError{URL: chapterURL, Reason: "解析页面失败", StatusCode: page.StatusCode, Cause: err})
	}

	title, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content")
	if !ok {
		return models.Failed(chapterURL, &models.FetchError{URL: chapterURL, Reason: "标题未找到", StatusCode: page.StatusCode})
	}

	content := doc.Find("div").FilterFunction(func(_ int, div *goquery.Selection) bool {
		style, _ := div.Attr("style")
		return style == huanghelouContentStyle
	}).First()
	if content.Length() == 0 {
		return models.Failed(chapterURL, &models.FetchError{URL: chapterURL, Reason: "小说内容未找到", StatusCode: page.StatusCode})
	}

	if h.opts.Debug != nil {
		if _, err := h.opts.Debug.Save(title, chapterURL, page.HTML); err != nil {
			h.opts.Logger.Errorf("保存调试文件失败: %v", err)
		}
	}

	h.opts.Logger.Infof("成功获取章节内容: %s", title)
	return models.Succeeded(chapterURL, title, content.Text())
}
