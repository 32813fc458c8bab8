package core

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/RecoveryAshes/sitecrawl/internal/crawlers"
	"github.com/RecoveryAshes/sitecrawl/internal/models"
	"github.com/RecoveryAshes/sitecrawl/internal/utils"
)

// 输出子目录
const (
	OriginDirName  = "origin"
	FlattenDirName = "flatten"
	ReportsDirName = "reports"
)

// CrawlOptions 单次爬取的输出与范围参数
type CrawlOptions struct {
	// OutRoot 输出根目录 (output.base_dir)
	OutRoot string

	// OutDir 本次爬取的输出目录名,为空时使用起始URL的主机名
	OutDir string

	// BasePath 路径前缀覆盖,仅在以"/"开头时生效
	BasePath string

	// Domain 主机名覆盖,允许带端口或协议
	Domain string
}

// Crawler 主爬取器协调器
type Crawler struct {
	config    models.CrawlConfig
	targetURL string
	scope     models.Scope

	outputDir  string
	originDir  string
	flattenDir string
	reportsDir string

	// HTTP头部提供者
	headerProvider models.HeaderProvider

	siteCrawler *crawlers.SiteCrawler
	monitor     *crawlers.ResourceMonitor

	report *models.CrawlReport
	stats  models.TaskStats
}

// NewCrawler 创建主爬取器
// 起始URL不满足范围限制时返回 *models.ScopeViolationError,此时不会发出任何请求
func NewCrawler(targetURL string, config models.CrawlConfig, opts CrawlOptions, headerProvider models.HeaderProvider) (*Crawler, error) {
	if err := models.ValidateURL(targetURL); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("爬取配置无效: %w", err)
	}

	targetURL, err := crawlers.NormalizeURL(targetURL)
	if err != nil {
		return nil, err
	}
	parsedURL, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("解析URL失败: %w", err)
	}

	scope, err := crawlers.ResolveScope(targetURL, opts.BasePath, opts.Domain)
	if err != nil {
		return nil, fmt.Errorf("计算爬取范围失败: %w", err)
	}
	if !crawlers.IsAllowed(parsedURL, scope.BasePath, scope.Domain) {
		return nil, &models.ScopeViolationError{
			URL:      targetURL,
			BasePath: scope.BasePath,
			Domain:   scope.Domain,
		}
	}

	outDir := opts.OutDir
	if outDir == "" {
		outDir = parsedURL.Hostname()
	}
	outRoot := opts.OutRoot
	if outRoot == "" {
		outRoot = "output"
	}
	outputDir := filepath.Join(outRoot, outDir)

	return &Crawler{
		config:         config,
		targetURL:      targetURL,
		scope:          scope,
		outputDir:      outputDir,
		originDir:      filepath.Join(outputDir, OriginDirName),
		flattenDir:     filepath.Join(outputDir, FlattenDirName),
		reportsDir:     filepath.Join(outputDir, ReportsDirName),
		headerProvider: headerProvider,
	}, nil
}

// Crawl 执行爬取任务
// 执行流程:
//  1. 创建输出目录结构
//  2. 准备HTTP头部并抓取站点
//  3. 生成扁平化副本
//  4. 生成爬取报告
//
// ctx取消时返回 context.Canceled,已写入的文件保留
func (c *Crawler) Crawl(ctx context.Context) error {
	startTime := time.Now()

	utils.Infof("🚀 开始爬取任务")
	utils.Infof("目标URL: %s", c.targetURL)
	utils.Infof("范围: base-path=%s, domain=%s", c.scope.BasePath, c.scope.Domain)
	utils.Infof("输出目录: %s", c.outputDir)

	report := &models.CrawlReport{
		TaskID:    models.NewTaskID(),
		TargetURL: c.targetURL,
		Status:    models.TaskStatusRunning,
		Scope:     c.scope,
		Ignore:    c.config.IgnoreSet().Extensions(),
		StartTime: startTime,
		OriginDir: c.originDir,
		Config:    c.config,
	}
	c.report = report

	crawlErr := c.run(ctx, report)

	switch {
	case crawlErr == nil:
		report.Status = models.TaskStatusCompleted
	case errors.Is(crawlErr, context.Canceled), errors.Is(crawlErr, context.DeadlineExceeded):
		report.Status = models.TaskStatusCancelled
	default:
		report.Status = models.TaskStatusFailed
	}

	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(startTime).Seconds()
	c.stats.Duration = report.Duration
	report.Stats = c.stats

	// 报告失败不影响爬取结果
	if err := utils.NewReporter(c.reportsDir).GenerateReport(report); err != nil {
		utils.Warnf("生成报告失败: %v", err)
	}

	if crawlErr != nil {
		return crawlErr
	}

	utils.Infof("✅ 爬取任务完成")
	utils.Infof("保存页面数: %d", c.stats.SavedPages)
	utils.Infof("总耗时: %.2f秒", c.stats.Duration)
	return nil
}

func (c *Crawler) run(ctx context.Context, report *models.CrawlReport) error {
	if err := c.setupOutputDirectories(); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	headerProvider, err := c.prepareHeaders()
	if err != nil {
		return fmt.Errorf("HTTP头部配置无效: %w", err)
	}

	fetcher := crawlers.NewFetcher(c.config, headerProvider)
	c.siteCrawler = crawlers.NewSiteCrawler(c.config, c.scope, c.originDir, fetcher, crawlers.NewPageStore(nil))
	c.monitor = crawlers.NewResourceMonitor()
	c.siteCrawler.SetResourceMonitor(c.monitor)

	crawlErr := c.siteCrawler.Crawl(ctx, c.targetURL)

	c.stats = c.siteCrawler.GetStats()
	report.SavedPages = c.siteCrawler.SavedPages()
	report.SkippedPages = c.siteCrawler.SkippedPages()
	report.FailedPages = c.siteCrawler.FailedPages()
	report.Resources = c.monitor.Summary()

	if crawlErr != nil {
		return crawlErr
	}

	if c.config.Flatten {
		flattener := NewFlattener(nil, c.originDir, c.flattenDir)
		flattener.SetShowProgress(c.config.ShowProgress)
		copied, err := flattener.Flatten()
		c.stats.FlattenedFiles = copied
		if err != nil {
			return fmt.Errorf("扁平化失败: %w", err)
		}
		report.FlattenDir = c.flattenDir
	}

	return nil
}

// prepareHeaders 返回抓取器使用的头部提供者,并在发出请求前验证一次
func (c *Crawler) prepareHeaders() (models.HeaderProvider, error) {
	provider := c.headerProvider
	if provider == nil {
		hm, err := NewHeaderManager(c.config.HeadersFile, nil)
		if err != nil {
			return nil, err
		}
		hm.SetUserAgent(c.config.UserAgent)
		provider = hm
	}

	if _, err := provider.GetHeaders(); err != nil {
		return nil, err
	}
	return provider, nil
}

// setupOutputDirectories 创建输出目录结构
func (c *Crawler) setupOutputDirectories() error {
	dirs := []string{c.originDir, c.reportsDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建目录失败 [%s]: %w", dir, err)
		}
		utils.Debugf("创建目录: %s", dir)
	}
	return nil
}

// GetStats 返回统计信息
func (c *Crawler) GetStats() models.TaskStats {
	return c.stats
}

// Report 返回最近一次爬取的报告,Crawl 之前为nil
func (c *Crawler) Report() *models.CrawlReport {
	return c.report
}

// Scope 返回爬取范围
func (c *Crawler) Scope() models.Scope {
	return c.scope
}

// OutputDir 返回本次爬取的输出目录
func (c *Crawler) OutputDir() string {
	return c.outputDir
}

// OriginDir 返回镜像目录
func (c *Crawler) OriginDir() string {
	return c.originDir
}

// FlattenDir 返回扁平化目录
func (c *Crawler) FlattenDir() string {
	return c.flattenDir
}

// ReportsDir 返回报告目录
func (c *Crawler) ReportsDir() string {
	return c.reportsDir
}
