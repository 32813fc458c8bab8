// Package crawlers 提供站点镜像爬取功能
//
// # 概述
//
// crawlers包从一个起始URL出发,抓取范围(路径前缀+主机名)内所有可达页面,
// 按URL路径保存到本地目录。每个URL在一次爬取中最多抓取一次。
//
// # 核心组件
//
// ## 范围过滤 (scope.go)
//
// IsAllowed 按主机名和路径前缀(纯字符串前缀)判断URL是否在范围内。
// DeriveBasePath / DeriveDomain 从起始URL推导默认范围:
//
//	https://example.com               -> /
//	https://example.com/path/to/page  -> /path/to/page/
//	https://example.com/a/file.html   -> /a/
//
// ## 路径映射 (path_mapper.go)
//
// URLToFilePath 把URL映射为 {root}/{hostname}/{path},
// 以"/"结尾补 index,没有扩展名补 .html。
//
// ## 链接提取 (url_extractor.go)
//
// ExtractLinks 解析HTML中的 <a href>,解析为绝对URL后按协议、忽略后缀和范围过滤,
// 单个无效链接只会被丢弃。
//
// ## 爬取引擎 (site_crawler.go)
//
// SiteCrawler 由固定数量的工作协程消费 URLQueue:
//
//	scope, _ := ResolveScope(startURL, "", "")
//	fetcher := NewFetcher(config, headerManager)
//	crawler := NewSiteCrawler(config, scope, originDir, fetcher, NewPageStore(nil))
//	err := crawler.Crawl(ctx, startURL)
//
// 处理单个URL:
//  1. 本地文件已存在则跳过(断点续爬)
//  2. 通过 Fetcher 抓取,全局信号量限制同时在途的请求数
//  3. 原样写入响应体
//  4. HTML响应提取链接,经 VisitedSet 原子去重后入队
//
// 抓取或写入失败只影响当前分支,记录后继续。
// 队列为空且没有工作协程在处理URL时爬取结束。
//
// ## ResourceMonitor (资源监控器)
//
// 爬取期间每秒采样系统可用内存、进程堆内存和CPU使用率,
// 峰值写入爬取报告。可用内存低于300MB时输出警告。
//
// # 并发安全
//
//   - VisitedSet: 互斥锁保护,MarkIfNotVisited 是单个原子操作
//   - URLQueue: 互斥锁 + 唤醒信号,pending计数归零时关闭
//   - Fetcher: 共享同一个colly collector,由 semaphore.Weighted 限流
//   - SiteCrawler: 统计和结果列表由互斥锁保护
package crawlers
