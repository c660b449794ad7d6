package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/RecoveryAshes/novelcrawl/internal/core"
	"github.com/RecoveryAshes/novelcrawl/internal/crawlers"
	"github.com/RecoveryAshes/novelcrawl/internal/models"
)

// errNoSite 无法确定站点且不能交互选择
var errNoSite = errors.New("无法确定站点, 请使用 --site 指定 (可选: " + strings.Join(crawlers.Names(), ", ") + ")")

// siteChooser 交互式选择站点, 返回所选下标
type siteChooser func(sites []crawlers.Site) (int, error)

// resolveSite 按 --site > 主页域名 > 交互选择 的顺序确定站点
func resolveSite(name, homepageURL string, choose siteChooser) (crawlers.Site, error) {
	if name != "" {
		site, ok := crawlers.Lookup(name)
		if !ok {
			return crawlers.Site{}, fmt.Errorf("未知站点: %s (可选: %s)", name, strings.Join(crawlers.Names(), ", "))
		}
		return site, nil
	}

	if homepageURL != "" {
		if site, ok := crawlers.DetectSite(homepageURL); ok {
			return site, nil
		}
	}

	if choose == nil {
		return crawlers.Site{}, errNoSite
	}
	sites := crawlers.Sites()
	idx, err := choose(sites)
	if err != nil {
		return crawlers.Site{}, fmt.Errorf("未选择站点: %w", err)
	}
	if idx < 0 || idx >= len(sites) {
		return crawlers.Site{}, errNoSite
	}
	return sites[idx], nil
}

// applySiteDefaults 补全站点默认主页和基础URL
func applySiteDefaults(crawl *models.CrawlConfig, site crawlers.Site) {
	crawl.Site = site.Name
	if crawl.HomepageURL == "" {
		crawl.HomepageURL = site.DefaultHomepage
	}
	if crawl.BaseURL == "" {
		crawl.BaseURL = site.DefaultBaseURL
	}
}

// ValidateFlags 验证合并后的配置
func ValidateFlags(config *core.Config) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("参数无效: %w", err)
	}
	return nil
}

// ValidateTitle 验证离线命令的小说标题
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("请使用 --title 指定小说标题")
	}
	if models.SafeFilename(title) == "" {
		return fmt.Errorf("小说标题只包含非法字符: %q", title)
	}
	return nil
}
