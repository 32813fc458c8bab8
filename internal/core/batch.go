package core

import (
	"context"
	"fmt"
	"time"

	"github.com/RecoveryAshes/sitecrawl/internal/models"
	"github.com/RecoveryAshes/sitecrawl/internal/utils"
)

// BatchCrawler 批量爬取器
// 按顺序爬取多个起始URL,每个URL独立推导范围和输出目录
type BatchCrawler struct {
	config         models.CrawlConfig
	opts           CrawlOptions
	batchDelay     time.Duration
	continueOnErr  bool
	headerProvider models.HeaderProvider
}

// BatchResult 批量爬取结果
type BatchResult struct {
	URL         string
	Success     bool
	Error       error
	Stats       models.TaskStats
	OutputDir   string
	ProcessedAt time.Time
	Duration    float64
}

// BatchSummary 批量爬取摘要
type BatchSummary struct {
	TotalURLs     int
	SuccessCount  int
	FailCount     int
	TotalPages    int
	TotalSize     int64
	TotalDuration float64
	Results       []BatchResult
}

// NewBatchCrawler 创建批量爬取器
// opts.OutDir 被忽略,每个URL使用自己的主机名作为输出目录
func NewBatchCrawler(config models.CrawlConfig, opts CrawlOptions, batchDelay time.Duration, continueOnErr bool, headerProvider models.HeaderProvider) *BatchCrawler {
	opts.OutDir = ""
	return &BatchCrawler{
		config:         config,
		opts:           opts,
		batchDelay:     batchDelay,
		continueOnErr:  continueOnErr,
		headerProvider: headerProvider,
	}
}

// CrawlBatch 批量爬取URL列表
// ctx取消时停止处理剩余URL并返回 ctx.Err()
func (bc *BatchCrawler) CrawlBatch(ctx context.Context, urls []string) (*BatchSummary, error) {
	utils.Infof("🚀 开始批量爬取: %d个URL", len(urls))

	summary := &BatchSummary{
		TotalURLs: len(urls),
		Results:   make([]BatchResult, 0, len(urls)),
	}

	startTime := time.Now()
	defer func() {
		summary.TotalDuration = time.Since(startTime).Seconds()
		bc.printSummary(summary)
	}()

	for i, targetURL := range urls {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		utils.Infof("==================== [%d/%d] ====================", i+1, len(urls))
		utils.Infof("目标URL: %s", targetURL)

		result := bc.crawlSingleURL(ctx, targetURL)
		summary.Results = append(summary.Results, result)

		if result.Success {
			summary.SuccessCount++
			summary.TotalPages += result.Stats.SavedPages
			summary.TotalSize += result.Stats.TotalSize
		} else {
			summary.FailCount++
			utils.Errorf("❌ 爬取失败: %v", result.Error)

			if err := ctx.Err(); err != nil {
				return summary, err
			}
			if !bc.continueOnErr {
				utils.Warn("批量爬取中止 (--continue-on-error=false)")
				return summary, fmt.Errorf("爬取 %s 失败: %w", targetURL, result.Error)
			}
		}

		// 最后一个URL不需要延迟
		if i < len(urls)-1 && bc.batchDelay > 0 {
			utils.Debugf("等待 %.0f 秒后处理下一个URL...", bc.batchDelay.Seconds())
			select {
			case <-ctx.Done():
				return summary, ctx.Err()
			case <-time.After(bc.batchDelay):
			}
		}
	}

	return summary, nil
}

// crawlSingleURL 爬取单个URL
func (bc *BatchCrawler) crawlSingleURL(ctx context.Context, targetURL string) BatchResult {
	result := BatchResult{
		URL:         targetURL,
		ProcessedAt: time.Now(),
	}
	startTime := time.Now()
	defer func() {
		result.Duration = time.Since(startTime).Seconds()
	}()

	crawler, err := NewCrawler(targetURL, bc.config, bc.opts, bc.headerProvider)
	if err != nil {
		result.Error = fmt.Errorf("创建爬取器失败: %w", err)
		return result
	}
	result.OutputDir = crawler.OutputDir()

	if err := crawler.Crawl(ctx); err != nil {
		result.Error = err
		result.Stats = crawler.GetStats()
		return result
	}

	result.Success = true
	result.Stats = crawler.GetStats()
	return result
}

// printSummary 打印批量爬取摘要
func (bc *BatchCrawler) printSummary(summary *BatchSummary) {
	utils.Info("==================================================")
	utils.Info("📊 批量爬取摘要")
	utils.Info("==================================================")
	utils.Infof("总URL数: %d", summary.TotalURLs)
	utils.Infof("✅ 成功: %d", summary.SuccessCount)
	utils.Infof("❌ 失败: %d", summary.FailCount)
	utils.Infof("📦 保存页面数: %d", summary.TotalPages)
	utils.Infof("📦 总大小: %.2f MB", float64(summary.TotalSize)/(1024*1024))
	utils.Infof("⏱️  总耗时: %.2f秒", summary.TotalDuration)
	utils.Info("==================================================")

	if summary.FailCount > 0 {
		utils.Warn("失败的URL:")
		for _, result := range summary.Results {
			if !result.Success {
				utils.Warnf("  - %s: %v", result.URL, result.Error)
			}
		}
	}
}
