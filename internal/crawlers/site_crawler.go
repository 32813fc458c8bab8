package crawlers

import (
	"context"
	"errors"
	"net/url"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/RecoveryAshes/sitecrawl/internal/models"
	"github.com/RecoveryAshes/sitecrawl/internal/utils"
)

// SiteCrawler 站点镜像爬取引擎
// 职责: 从起始URL出发,抓取范围内所有可达页面并按URL路径写入 rootDir
//
// 并发模型:
//   - 固定数量的工作协程从 URLQueue 消费
//   - 同一URL在发现时通过 VisitedSet 标记,保证最多抓取一次
//   - 单个URL失败只影响该分支,不终止整体爬取
type SiteCrawler struct {
	config  models.CrawlConfig
	scope   models.Scope
	ignore  models.IgnoreSet
	rootDir string

	fetcher PageFetcher
	store   *PageStore

	visited *VisitedSet
	queue   *URLQueue

	// 资源监控器(可选)
	monitor *ResourceMonitor

	// 进度日志间隔
	progressInterval time.Duration

	// 统计与记录
	stats   models.TaskStats
	saved   []models.PageInfo
	skipped []models.PageInfo
	failed  []models.FailedPageInfo
	mu      sync.Mutex
}

// NewSiteCrawler 创建爬取引擎
// rootDir 为镜像根目录,页面保存到 {rootDir}/{hostname}/{path}
func NewSiteCrawler(config models.CrawlConfig, scope models.Scope, rootDir string, fetcher PageFetcher, store *PageStore) *SiteCrawler {
	if store == nil {
		store = NewPageStore(nil)
	}
	return &SiteCrawler{
		config:           config,
		scope:            scope,
		ignore:           config.IgnoreSet(),
		rootDir:          rootDir,
		fetcher:          fetcher,
		store:            store,
		visited:          NewVisitedSet(),
		queue:            NewURLQueue(),
		progressInterval: 5 * time.Second,
	}
}

// SetResourceMonitor 设置资源监控器,爬取期间周期性采样
func (sc *SiteCrawler) SetResourceMonitor(monitor *ResourceMonitor) {
	sc.monitor = monitor
}

// Crawl 从起始URL开始爬取,直到所有可达页面处理完毕
// 只有ctx取消会返回错误;单个页面的失败记录在结果中
func (sc *SiteCrawler) Crawl(ctx context.Context, startURL string) error {
	startTime := time.Now()

	startURL, err := NormalizeURL(startURL)
	if err != nil {
		return err
	}

	utils.Infof("🔍 开始爬取: %s", startURL)
	utils.Infof("范围: base-path=%s, domain=%s", sc.scope.BasePath, sc.scope.Domain)
	utils.Debugf("工作协程=%d, 并发请求=%d, 最大深度=%d", sc.workers(), sc.config.Concurrency, sc.config.MaxDepth)

	if sc.monitor != nil {
		sc.monitor.Start(ctx, time.Second)
		defer sc.monitor.Stop()
	}

	bar := utils.NewProgressBar(-1, "爬取中", sc.config.ShowProgress)
	defer func() { _ = bar.Finish() }()

	sc.visited.MarkIfNotVisited(startURL)
	sc.mu.Lock()
	sc.stats.VisitedURLs = sc.visited.Len()
	sc.mu.Unlock()
	if err := sc.queue.Push(models.URLItem{URL: startURL, Depth: 0}); err != nil {
		return err
	}

	// 进度监控
	done := make(chan struct{})
	go sc.reportProgress(done)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < sc.workers(); i++ {
		g.Go(func() error {
			for {
				item, ok := sc.queue.Pop(gctx)
				if !ok {
					return nil
				}
				sc.FetchAndSave(gctx, item)
				_ = bar.Add(1)
				sc.queue.Done()
			}
		})
	}
	err = g.Wait()
	close(done)

	sc.mu.Lock()
	sc.stats.Duration = time.Since(startTime).Seconds()
	stats := sc.stats
	sc.mu.Unlock()

	if ctxErr := ctx.Err(); ctxErr != nil {
		sc.queue.Close()
		utils.Warnf("爬取已取消: 已保存 %d 个页面, 待处理 %d 个", stats.SavedPages, sc.queue.PendingCount())
		return ctxErr
	}
	if err != nil {
		return err
	}

	utils.Infof("✅ 爬取完成")
	utils.Infof("访问URL数: %d", stats.VisitedURLs)
	utils.Infof("保存页面数: %d", stats.SavedPages)
	utils.Infof("跳过页面数: %d", stats.SkippedPages)
	utils.Infof("失败页面数: %d", stats.FailedPages)
	utils.Infof("总耗时: %.2f秒", stats.Duration)

	return nil
}

// FetchAndSave 处理单个URL: 抓取、保存、提取链接并调度
// 新发现的链接经 VisitedSet 去重后入队,由工作协程继续处理,
// 因此 Crawl 返回时该URL可达的整棵子树都已处理完毕
func (sc *SiteCrawler) FetchAndSave(ctx context.Context, item models.URLItem) {
	u, err := url.Parse(item.URL)
	if err != nil {
		sc.recordFailure(item, models.ErrorTypeFetch, err, 0)
		return
	}

	filePath := URLToFilePath(sc.rootDir, u)
	if sc.store.Exists(filePath) {
		utils.Debugf("文件已存在,跳过: %s", item.URL)
		sc.mu.Lock()
		sc.stats.SkippedPages++
		sc.skipped = append(sc.skipped, models.PageInfo{
			URL:         item.URL,
			FilePath:    filePath,
			Depth:       item.Depth,
			SourceURL:   item.SourceURL,
			ProcessedAt: time.Now(),
		})
		sc.mu.Unlock()
		return
	}

	page, err := sc.fetcher.Fetch(ctx, item.URL)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		utils.Warnf("❌ %s %v", item.URL, err)
		statusCode := 0
		var fetchErr *models.FetchError
		if errors.As(err, &fetchErr) {
			statusCode = fetchErr.StatusCode
		}
		errorType := models.ErrorTypeFetch
		if errors.Is(err, models.ErrDecode) {
			errorType = models.ErrorTypeDecode
		}
		sc.recordFailure(item, errorType, err, statusCode)
		return
	}

	if err := sc.store.Save(filePath, page.Body); err != nil {
		utils.Errorf("保存页面失败 [%s]: %v", item.URL, err)
		sc.recordFailure(item, models.ErrorTypeWrite, err, page.StatusCode)
		return
	}

	utils.Infof("✅ %s → %s", item.URL, sc.relativePath(filePath))
	sc.mu.Lock()
	sc.stats.SavedPages++
	sc.stats.TotalSize += int64(len(page.Body))
	sc.saved = append(sc.saved, models.PageInfo{
		URL:         item.URL,
		FilePath:    filePath,
		Size:        int64(len(page.Body)),
		ContentType: page.ContentType,
		Depth:       item.Depth,
		SourceURL:   item.SourceURL,
		ProcessedAt: time.Now(),
	})
	sc.mu.Unlock()

	if !IsHTML(page.ContentType) {
		return
	}

	base := u
	if page.FinalURL != "" && page.FinalURL != item.URL {
		if finalURL, err := url.Parse(page.FinalURL); err == nil {
			base = finalURL
		}
	}
	links := ExtractLinks(base, string(page.Body), sc.ignore, sc.scope)

	sc.mu.Lock()
	sc.stats.DiscoveredURLs += len(links)
	sc.mu.Unlock()

	if sc.config.MaxDepth > 0 && item.Depth >= sc.config.MaxDepth {
		utils.Debugf("页面深度达到限制: %s (深度=%d, 限制=%d)", item.URL, item.Depth, sc.config.MaxDepth)
		return
	}

	for _, link := range links {
		if !sc.visited.MarkIfNotVisited(link) {
			continue
		}
		if err := sc.queue.Push(models.URLItem{
			URL:       link,
			Depth:     item.Depth + 1,
			SourceURL: item.URL,
		}); err != nil {
			utils.Debugf("调度链接失败 [%s]: %v", link, err)
			continue
		}
		sc.mu.Lock()
		sc.stats.VisitedURLs++
		sc.mu.Unlock()
	}
}

// recordFailure 记录失败页面
func (sc *SiteCrawler) recordFailure(item models.URLItem, errorType string, err error, statusCode int) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	sc.stats.FailedPages++
	sc.failed = append(sc.failed, models.FailedPageInfo{
		URL:        item.URL,
		ErrorType:  errorType,
		ErrorMsg:   err.Error(),
		StatusCode: statusCode,
		SourceURL:  item.SourceURL,
	})
}

// reportProgress 周期性输出进度
func (sc *SiteCrawler) reportProgress(done <-chan struct{}) {
	ticker := time.NewTicker(sc.progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			sc.mu.Lock()
			stats := sc.stats
			sc.mu.Unlock()

			event := utils.Logger.Info().
				Int("visited", stats.VisitedURLs).
				Int("saved", stats.SavedPages).
				Int("failed", stats.FailedPages).
				Int("pending", sc.queue.PendingCount())
			if sc.monitor != nil {
				sample := sc.monitor.Last()
				event = event.
					Uint64("heap_mb", sample.HeapAlloc/(1024*1024)).
					Str("memory_pressure", sample.MemoryPressure())
			}
			event.Msg("进度")
		}
	}
}

func (sc *SiteCrawler) relativePath(filePath string) string {
	rel, err := filepath.Rel(filepath.Dir(sc.rootDir), filePath)
	if err != nil {
		return filePath
	}
	return rel
}

func (sc *SiteCrawler) workers() int {
	if sc.config.Workers > 0 {
		return sc.config.Workers
	}
	return models.DefaultConcurrency
}

// GetStats 获取统计信息
func (sc *SiteCrawler) GetStats() models.TaskStats {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.stats
}

// SavedPages 返回已保存页面列表
func (sc *SiteCrawler) SavedPages() []models.PageInfo {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return append([]models.PageInfo(nil), sc.saved...)
}

// SkippedPages 返回因本地已存在而跳过的页面列表
func (sc *SiteCrawler) SkippedPages() []models.PageInfo {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return append([]models.PageInfo(nil), sc.skipped...)
}

// FailedPages 返回失败页面列表
func (sc *SiteCrawler) FailedPages() []models.FailedPageInfo {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return append([]models.FailedPageInfo(nil), sc.failed...)
}

// Visited 返回已访问集合
func (sc *SiteCrawler) Visited() *VisitedSet {
	return sc.visited
}

var _ PageFetcher = (*Fetcher)(nil)
