package crawlers

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// 正文中的导航和下载提示
var navigationKeywords = []string{"txt下载地址", "手机阅读", "上一章", "下一章", "回目录"}

// 正文截断标记
var truncateMarkers = []string{"txt下载地址", "手机阅读"}

var (
	adNoticePattern   = regexp.MustCompile(`(?s)温馨提示：方向键左右.*?返回列表`)
	extraLinesPattern = regexp.MustCompile(`\n{3,}`)
)

// isNavigationText 是否为导航段落
func isNavigationText(s string) bool {
	for _, kw := range navigationKeywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// selectionText 按文本节点拼接, 节点之间插入分隔符
func selectionText(sel *goquery.Selection, sep string) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			parts = append(parts, n.Data)
			return
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, sep)
}

// compactLines 去除每行首尾空白和空行
func compactLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return extraLinesPattern.ReplaceAllString(strings.Join(kept, "\n"), "\n\n")
}

// stripAdNotice 移除翻页提示广告
func stripAdNotice(text string) string {
	return adNoticePattern.ReplaceAllString(text, "")
}

// truncateAtNavigation 在第一个下载/手机阅读提示处截断
func truncateAtNavigation(text string) string {
	cut := -1
	for _, marker := range truncateMarkers {
		if idx := strings.Index(text, marker); idx != -1 && (cut == -1 || idx < cut) {
			cut = idx
		}
	}
	if cut == -1 {
		return text
	}
	return strings.TrimSpace(text[:cut])
}

// cleanChapterText 清理内容容器中提取的正文
func cleanChapterText(text string) string {
	text = compactLines(text)
	text = stripAdNotice(text)
	text = truncateAtNavigation(text)
	return strings.TrimSpace(text)
}

// splitBrParagraphs 按<br>拆分容器的直接子节点为段落
func splitBrParagraphs(container *goquery.Selection) []string {
	var (
		paragraphs []string
		current    strings.Builder
	)
	flush := func() {
		if current.Len() > 0 {
			paragraphs = append(paragraphs, current.String())
			current.Reset()
		}
	}

	container.Contents().Each(func(_ int, child *goquery.Selection) {
		node := child.Get(0)
		switch {
		case node.Type == html.ElementNode && node.Data == "br":
			flush()
		case node.Type == html.TextNode:
			current.WriteString(strings.TrimSpace(node.Data))
		case node.Type == html.ElementNode:
			current.WriteString(strings.TrimSpace(child.Text()))
		}
	})
	flush()
	return paragraphs
}

// isIndentedLine 正文行通常以四个空格缩进
func isIndentedLine(line string) bool {
	return strings.HasPrefix(line, "    ") ||
		strings.HasPrefix(line, "\u00a0\u00a0\u00a0\u00a0") ||
		strings.HasPrefix(line, "&nbsp;&nbsp;&nbsp;&nbsp;")
}
