// Package crawlers 提供小说站点的页面获取、章节解析和调试快照
//
// # 页面获取
//
// PageFetcher 有两种实现:
//
//   - StaticFetcher: 基于Colly, 负责解压(gzip/deflate/br)和编码转换(GBK/GB18030)
//   - DynamicFetcher: 基于go-rod, 浏览器首次请求时启动, 之后复用同一个标签页
//
// DynamicFetcher 启动浏览器前通过 ResourceMonitor 检查可用内存.
//
//	fetcher := NewPageFetcher(FetcherOptions{Timeout: 30 * time.Second, Headers: headerManager})
//	defer fetcher.Close()
//
// # 站点
//
// 每个站点实现 core.ChapterSource, 通过注册表按名称或域名查找:
//
//	site, ok := DetectSite("https://www.hhlwx.org/hhlchapter/69730.html")
//	source := site.New(SiteOptions{Fetcher: fetcher})
//	title, refs, err := source.DiscoverChapters(ctx, homepageURL)
//
// # 调试快照
//
// Snapshotter 将页面保存到调试目录, 文件名取章节标题, 标题过短时取URL路径.
package crawlers
