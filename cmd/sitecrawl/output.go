package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/RecoveryAshes/sitecrawl/internal/core"
)

// printValidatedHeaders 验证HTTP头部配置并输出脱敏后的有效头部
func printValidatedHeaders(w io.Writer, hm *core.HeaderManager) error {
	if err := hm.LoadConfig(); err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	if err := hm.Validate(); err != nil {
		return fmt.Errorf("配置验证失败: %w", err)
	}

	safeHeaders := hm.GetSafeHeaders()
	names := make([]string, 0, len(safeHeaders))
	for name := range safeHeaders {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "✅ 配置验证通过!")
	fmt.Fprintf(w, "当前有效的HTTP头部 (%d个):\n", len(safeHeaders))
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %s\n", name, safeHeaders[name])
	}
	return nil
}

// printStats 输出爬取统计
func printStats(w io.Writer, crawler *core.Crawler) {
	stats := crawler.GetStats()
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, "📊 爬取统计")
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintf(w, "✅ 访问URL数: %d\n", stats.VisitedURLs)
	fmt.Fprintf(w, "✅ 保存页面数: %d\n", stats.SavedPages)
	fmt.Fprintf(w, "⏭️  跳过页面数: %d\n", stats.SkippedPages)
	fmt.Fprintf(w, "❌ 失败页面数: %d\n", stats.FailedPages)
	if stats.FlattenedFiles > 0 {
		fmt.Fprintf(w, "📁 扁平化文件数: %d\n", stats.FlattenedFiles)
	}
	fmt.Fprintf(w, "📦 总大小: %.2f MB\n", float64(stats.TotalSize)/(1024*1024))
	fmt.Fprintf(w, "⏱️  总耗时: %.2f秒\n", stats.Duration)
	fmt.Fprintf(w, "📂 输出目录: %s\n", crawler.OutputDir())
	fmt.Fprintln(w, "==================================================")
}
