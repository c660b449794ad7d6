package crawlers

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/novelcrawl/internal/core"
	"github.com/RecoveryAshes/novelcrawl/internal/models"
)

// Shuwu77Name 77读书网站点名称
const Shuwu77Name = "77shuwu"

const (
	shuwu77DefaultHomepage = "http://www.77shuku.org/novel/62042/"
	shuwu77DefaultBaseURL  = "https://www.77shuwu.org"

	unknownChapterTitle = "未知章节"
	maxLinkTextRunes    = 50
	maxChapterTitleRune = 100
	minPageTitleRunes   = 5
	minContentRunes     = 100
)

var (
	novelIDPattern = regexp.MustCompile(`/novel/(\d+)/`)

	// 77读书网标题后缀
	shuwu77TitleSuffixes = []string{"_77读书网", "-77读书网", "77读书网", "全文阅读"}

	// 正文容器候选, 按优先级排列
	shuwu77ContentSelectors = []string{
		"#content", ".content",
		"#article", ".article",
		"#content_detail", ".content_detail",
		".chapter_content", "#chapter_content",
		".content_txt", "#content_txt",
		".neirong", "#neirong",
	}
)

// Shuwu77 77读书网抓取器
// 章节链接通过href前缀识别, 正文按 div#ChapterContents > 内容容器 > 整页 的顺序提取
type Shuwu77 struct {
	opts SiteOptions
}

// NewShuwu77 创建77读书网抓取器
func NewShuwu77(opts SiteOptions) *Shuwu77 {
	return &Shuwu77{opts: opts.withDefaults(shuwu77DefaultBaseURL)}
}

// DiscoverChapters 获取小说标题和章节列表
func (s *Shuwu77) DiscoverChapters(ctx context.Context, homepageURL string) (string, []models.ChapterRef, error) {
	s.opts.Logger.Infof("获取章节列表: %s", homepageURL)

	page, err := s.opts.Fetcher.Fetch(ctx, homepageURL)
	if err != nil {
		return "", nil, &models.DiscoveryError{URL: homepageURL, Reason: "请求主页失败", Cause: err}
	}
	doc, err := page.Document()
	if err != nil {
		return "", nil, &models.DiscoveryError{URL: homepageURL, Reason: "解析主页失败", Cause: err}
	}

	title := shuwu77NovelTitle(doc)

	novelID := ""
	if m := novelIDPattern.FindStringSubmatch(homepageURL); m != nil {
		novelID = m[1]
	}

	s.opts.Logger.Infof("使用href前缀过滤获取章节链接...")
	links := NewLinkSet()
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		text := strings.TrimSpace(a.Text())
		if text == "" || utf8.RuneCountInString(text) > maxLinkTextRunes || text == core.ReadNowMarker {
			return
		}
		if !isShuwu77ChapterHref(href, novelID) {
			return
		}

		full := href
		if strings.HasPrefix(href, "/") {
			full = s.opts.BaseURL + href
		}
		if links.Contains(full) {
			return
		}
		if err := links.Push(text, full); err != nil {
			s.opts.Logger.Infof("忽略章节链接 %s: %v", href, err)
		}
	})

	refs := links.SortedByURL()
	s.opts.Logger.Infof("成功获取章节列表，共%d个章节", len(refs))
	if len(refs) > 0 {
		s.opts.Logger.Infof("前5个章节示例: %v", refs[:min(5, len(refs))])
	}
	return title, refs, nil
}

// shuwu77NovelTitle 小说标题取h1, 没有时取<title>
func shuwu77NovelTitle(doc *goquery.Document) string {
	tag := doc.Find("h1").First()
	if tag.Length() == 0 {
		tag = doc.Find("title").First()
	}
	title := models.SafeFilename(strings.TrimSpace(tag.Text()))
	if title == "" {
		return core.UnknownNovelTitle
	}
	return title
}

// isShuwu77ChapterHref 判断链接是否指向章节页
func isShuwu77ChapterHref(href, novelID string) bool {
	switch {
	case novelID != "" && strings.Contains(href, "/chapter/"+novelID+"/"):
		return true
	case strings.HasPrefix(href, "/chapter/"):
		return true
	case strings.HasPrefix(href, "/novel/") && !strings.HasSuffix(href, "/") && strings.Count(href, "/") >= 3:
		return true
	default:
		return false
	}
}

// FetchChapter 获取单章标题和正文
func (s *Shuwu77) FetchChapter(ctx context.Context, chapterURL string) models.FetchResult {
	s.opts.Logger.Infof("尝试获取章节内容: %s", chapterURL)

	page, err := s.opts.Fetcher.Fetch(ctx, chapterURL)
	if err != nil {
		return models.Failed(chapterURL, err)
	}
	doc, err := page.Document()
	if err != nil {
		return models.Failed(chapterURL, &models.FetchError{URL: chapterURL, Reason: "解析页面失败", StatusCode: page.StatusCode, Cause: err})
	}

	title := shuwu77ChapterTitle(doc, chapterURL)
	if s.opts.Debug != nil {
		if _, err := s.opts.Debug.Save(title, chapterURL, page.HTML); err != nil {
			s.opts.Logger.Errorf("保存调试文件失败: %v", err)
		}
	}

	return models.Succeeded(chapterURL, title, s.extractContent(doc))
}

// shuwu77ChapterTitle 依次尝试 h1, og:title, <title>, URL中的数字
func shuwu77ChapterTitle(doc *goquery.Document, chapterURL string) string {
	title := unknownChapterTitle

	h1 := strings.TrimSpace(doc.Find("h1").First().Text())
	if h1 != "" && !strings.Contains(h1, core.ReadNowMarker) && utf8.RuneCountInString(h1) < maxChapterTitleRune {
		title = h1
	}

	if title == unknownChapterTitle {
		if meta, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
			meta = strings.TrimSpace(meta)
			if meta != "" && !strings.Contains(meta, core.ReadNowMarker) {
				title = meta
			}
		}
	}

	if title == unknownChapterTitle {
		pageTitle := strings.TrimSpace(doc.Find("title").First().Text())
		for _, suffix := range shuwu77TitleSuffixes {
			pageTitle = strings.TrimSuffix(pageTitle, suffix)
		}
		if !strings.Contains(pageTitle, core.ReadNowMarker) && utf8.RuneCountInString(pageTitle) > minPageTitleRunes {
			title = pageTitle
		}
	}

	if title == unknownChapterTitle {
		for _, part := range strings.Split(chapterURL, "/") {
			if _, err := strconv.Atoi(part); err == nil && part != "" && part[0] != '-' && part[0] != '+' {
				title = "第 " + part + " 章"
				break
			}
		}
	}

	if strings.Contains(title, core.ReadNowMarker) {
		title = strings.TrimSpace(strings.ReplaceAll(title, core.ReadNowMarker, ""))
		if title == "" {
			title = unknownChapterTitle
		}
	}
	return title
}

// extractContent 按优先级提取正文
func (s *Shuwu77) extractContent(doc *goquery.Document) string {
	if container := doc.Find("div#ChapterContents").First(); container.Length() > 0 {
		s.opts.Logger.Infof("找到div#ChapterContents，开始提取内容")
		container.Find("div#content_tip").Remove()

		var kept []string
		for _, para := range splitBrParagraphs(container) {
			if !isNavigationText(para) {
				kept = append(kept, para)
			}
		}
		if len(kept) > 0 {
			content := strings.Join(kept, "\n\n")
			s.opts.Logger.Infof("成功从div#ChapterContents提取内容，长度: %d字符", utf8.RuneCountInString(content))
			return content
		}
	}

	for _, selector := range shuwu77ContentSelectors {
		container := doc.Find(selector).First()
		if container.Length() == 0 {
			continue
		}
		s.opts.Logger.Infof("找到内容容器: %s", selector)
		container.Find("script, style, iframe, noscript").Remove()

		content := cleanChapterText(selectionText(container, "\n"))
		if utf8.RuneCountInString(content) >= minContentRunes {
			s.opts.Logger.Infof("成功获取章节内容，长度: %d字符", utf8.RuneCountInString(content))
			return content
		}
		break
	}

	s.opts.Logger.Infof("尝试从整个页面提取文本...")
	content := wholePageText(doc)
	s.opts.Logger.Infof("成功从整个页面提取内容，长度: %d字符", utf8.RuneCountInString(content))
	return content
}

// wholePageText 从第一行缩进文本开始提取整页内容
func wholePageText(doc *goquery.Document) string {
	doc.Find("script, style").Remove()
	lines := strings.Split(selectionText(doc.Selection, "\n"), "\n")

	start := 0
	for i, line := range lines {
		if isIndentedLine(line) {
			start = i
			break
		}
	}

	var kept []string
	for _, line := range lines[start:] {
		line = strings.TrimSpace(line)
		if line != "" && !isNavigationText(line) {
			kept = append(kept, line)
		}
	}
	return strings.TrimSpace(stripAdNotice(strings.Join(kept, "\n\n")))
}
