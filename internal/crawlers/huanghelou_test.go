package crawlers

import (
	"context"
	"testing"

	"github.com/RecoveryAshes/novelcrawl/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const huanghelouHomepage = "https://www.hhlwx.org/hhlchapter/69730.html"

func newHuanghelou(pages map[string]string) *Huanghelou {
	return NewHuanghelou(SiteOptions{Fetcher: newFakeFetcher(pages), Logger: nopLogger{}})
}

func TestHuanghelouDiscoverChapters(t *testing.T) {
	html := `<html><body><div class="ksq_1"><h1> 黄鹤楼 </h1></div><table><tr>` +
		`<td class="chapterlist"><a href="/hhlchapter/69730/1.html">第1章 开端</a></td>` +
		`<td class="chapterlist"><a href="/hhlchapter/69730/2.html"> 第2章 转折 </a></td>` +
		`<td class="chapterlist">暂无</td>` +
		`</tr></table></body></html>`
	site := newHuanghelou(map[string]string{huanghelouHomepage: html})

	title, refs, err := site.DiscoverChapters(context.Background(), huanghelouHomepage)
	require.NoError(t, err)
	assert.Equal(t, "黄鹤楼", title)
	assert.Equal(t, []models.ChapterRef{
		{RawTitle: "第1章 开端", URL: "https://www.hhlwx.org/hhlchapter/69730/1.html"},
		{RawTitle: "第2章 转折", URL: "https://www.hhlwx.org/hhlchapter/69730/2.html"},
	}, refs)
}

func TestHuanghelouCustomBaseURL(t *testing.T) {
	html := `<div class="ksq_1"><h1>书</h1></div><table><tr><td class="chapterlist"><a href="/c/1.html">一</a></td></tr></table>`
	site := NewHuanghelou(SiteOptions{
		BaseURL: "https://mirror.hhlwx.org/",
		Fetcher: newFakeFetcher(map[string]string{huanghelouHomepage: html}),
		Logger:  nopLogger{},
	})

	_, refs, err := site.DiscoverChapters(context.Background(), huanghelouHomepage)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "https://mirror.hhlwx.org/c/1.html", refs[0].URL)
}

func TestHuanghelouDiscoverMissingTitle(t *testing.T) {
	site := newHuanghelou(map[string]string{huanghelouHomepage: `<html><body><h1>没有容器</h1></body></html>`})

	_, _, err := site.DiscoverChapters(context.Background(), huanghelouHomepage)
	var discoveryErr *models.DiscoveryError
	require.ErrorAs(t, err, &discoveryErr)
	assert.Contains(t, discoveryErr.Reason, "未找到小说标题")
}

func TestHuanghelouFetchChapter(t *testing.T) {
	const chapterURL = "https://www.hhlwx.org/hhlchapter/69730/1.html"
	contentDiv := `<div style="` + huanghelouContentStyle + `">正文第一行<br/>正文第二行</div>`

	tests := []struct {
		name   string
		html   string
		ok     bool
		title  string
		body   string
		reason string
	}{
		{
			name:  "正常章节",
			html:  `<html><head><meta property="og:title" content="第1章 开端"></head><body><div style="width: 720px;">广告</div>` + contentDiv + `</body></html>`,
			ok:    true,
			title: "第1章 开端",
			body:  "正文第一行正文第二行",
		},
		{
			name:   "缺少标题",
			html:   `<html><body>` + contentDiv + `</body></html>`,
			reason: "标题未找到",
		},
		{
			name:   "缺少正文",
			html:   `<html><head><meta property="og:title" content="第1章 开端"></head><body><div>其他</div></body></html>`,
			reason: "小说内容未找到",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			site := newHuanghelou(map[string]string{chapterURL: tt.html})
			result := site.FetchChapter(context.Background(), chapterURL)

			if tt.ok {
				require.True(t, result.OK(), "%v", result.Err)
				assert.Equal(t, tt.title, result.Title)
				assert.Equal(t, tt.body, result.Body)
				return
			}

			assert.Equal(t, models.FetchFailed, result.Status)
			var fetchErr *models.FetchError
			require.ErrorAs(t, result.Err, &fetchErr)
			assert.Equal(t, tt.reason, fetchErr.Reason)
			assert.True(t, fetchErr.Temporary())
		})
	}
}
