package crawlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"77shuwu", "huanghelou"}, Names())
}

func TestLookup(t *testing.T) {
	site, ok := Lookup(" HuangHeLou ")
	require.True(t, ok)
	assert.Equal(t, HuanghelouName, site.Name)
	assert.Equal(t, "https://www.hhlwx.org", site.DefaultBaseURL)

	_, ok = Lookup("qidian")
	assert.False(t, ok)
}

func TestDetectSite(t *testing.T) {
	tests := []struct {
		url  string
		want string
		ok   bool
	}{
		{"http://www.77shuku.org/novel/62042/", Shuwu77Name, true},
		{"https://77shuwu.org/novel/1/", Shuwu77Name, true},
		{"https://www.hhlwx.org/hhlchapter/69730.html", HuanghelouName, true},
		{"https://m.HHLWX.org/hhlchapter/1.html", HuanghelouName, true},
		{"https://nothhlwx.org/hhlchapter/1.html", "", false},
		{"https://example.com/", "", false},
		{"not a url", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			site, ok := DetectSite(tt.url)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, site.Name)
		})
	}
}

func TestSiteConstructors(t *testing.T) {
	for _, site := range Sites() {
		t.Run(site.Name, func(t *testing.T) {
			assert.NotEmpty(t, site.DefaultHomepage)
			detected, ok := DetectSite(site.DefaultHomepage)
			require.True(t, ok, "默认主页应能识别站点")
			assert.Equal(t, site.Name, detected.Name)

			source := site.New(SiteOptions{Fetcher: newFakeFetcher(nil), Logger: nopLogger{}})
			assert.NotNil(t, source)
		})
	}
}
