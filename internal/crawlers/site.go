package crawlers

import (
	"net/url"
	"sort"
	"strings"

	"github.com/RecoveryAshes/novelcrawl/internal/core"
	"github.com/RecoveryAshes/novelcrawl/internal/utils"
)

// SiteOptions 站点抓取器的依赖
type SiteOptions struct {
	BaseURL string      // 站点根地址, 用于拼接相对链接
	Fetcher PageFetcher // 为空时使用静态获取器
	Logger  core.Logger
	Debug   *Snapshotter // 非空时保存每个章节页面
}

func (o SiteOptions) withDefaults(defaultBaseURL string) SiteOptions {
	if o.BaseURL == "" {
		o.BaseURL = defaultBaseURL
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.Fetcher == nil {
		o.Fetcher = NewStaticFetcher(FetcherOptions{})
	}
	if o.Logger == nil {
		o.Logger = utils.NewAppLogger(utils.Logger)
	}
	return o
}

// Site 已注册的小说站点
type Site struct {
	Name            string
	DisplayName     string
	Hosts           []string // 匹配的域名(含子域名)
	DefaultHomepage string
	DefaultBaseURL  string
	New             func(opts SiteOptions) core.ChapterSource
}

var sites = []Site{
	{
		Name:            Shuwu77Name,
		DisplayName:     "77读书网",
		Hosts:           []string{"77shuku.org", "77shuwu.org"},
		DefaultHomepage: shuwu77DefaultHomepage,
		DefaultBaseURL:  shuwu77DefaultBaseURL,
		New: func(opts SiteOptions) core.ChapterSource {
			return NewShuwu77(opts)
		},
	},
	{
		Name:            HuanghelouName,
		DisplayName:     "黄鹤楼文学",
		Hosts:           []string{"hhlwx.org"},
		DefaultHomepage: huanghelouDefaultHomepage,
		DefaultBaseURL:  huanghelouDefaultBaseURL,
		New: func(opts SiteOptions) core.ChapterSource {
			return NewHuanghelou(opts)
		},
	},
}

// Sites 返回所有站点(按名称排序)
func Sites() []Site {
	list := append([]Site(nil), sites...)
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Names 返回所有站点名称
func Names() []string {
	list := Sites()
	names := make([]string, len(list))
	for i, s := range list {
		names[i] = s.Name
	}
	return names
}

// Lookup 按名称查找站点
func Lookup(name string) (Site, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, s := range sites {
		if s.Name == name {
			return s, true
		}
	}
	return Site{}, false
}

// DetectSite 根据主页域名识别站点
func DetectSite(homepageURL string) (Site, bool) {
	parsed, err := url.Parse(homepageURL)
	if err != nil || parsed.Hostname() == "" {
		return Site{}, false
	}
	host := strings.ToLower(parsed.Hostname())

	for _, s := range sites {
		for _, h := range s.Hosts {
			if host == h || strings.HasSuffix(host, "."+h) {
				return s, true
			}
		}
	}
	return Site{}, false
}
