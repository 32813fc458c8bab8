package models

import (
	"fmt"
	"time"
)

// TaskStatus 任务状态
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"   // 待执行
	TaskStatusRunning   TaskStatus = "running"   // 执行中
	TaskStatusCompleted TaskStatus = "completed" // 已完成
	TaskStatusFailed    TaskStatus = "failed"    // 失败
	TaskStatusCancelled TaskStatus = "cancelled" // 已取消
)

const (
	// DefaultUserAgent 默认User-Agent
	DefaultUserAgent = "Mozilla/5.0 (compatible; SimpleCrawler/1.0)"

	// DefaultConcurrency 全局并发请求数
	DefaultConcurrency = 8

	// DefaultTimeout 单个请求超时
	DefaultTimeout = 10 * time.Second

	// DefaultMaxRedirects 最大重定向次数
	DefaultMaxRedirects = 10

	// DefaultMaxBodySize 响应体大小上限 50MB
	DefaultMaxBodySize = 50 * 1024 * 1024
)

// TaskStats 任务统计
type TaskStats struct {
	VisitedURLs    int     `json:"visited_urls"`    // 进入已访问集合的URL数
	SavedPages     int     `json:"saved_pages"`     // 成功写入的页面数
	SkippedPages   int     `json:"skipped_pages"`   // 本地已存在而跳过的页面数
	FailedPages    int     `json:"failed_pages"`    // 失败页面数
	DiscoveredURLs int     `json:"discovered_urls"` // 提取到的范围内链接数(含重复)
	FlattenedFiles int     `json:"flattened_files"` // 扁平化复制的文件数
	TotalSize      int64   `json:"total_size"`      // 写入总大小(字节)
	Duration       float64 `json:"duration"`        // 总耗时(秒)
}

// CrawlConfig 爬取配置
type CrawlConfig struct {
	Concurrency        int           `mapstructure:"concurrency" json:"concurrency"`                   // 全局并发请求数 (默认:8)
	Workers            int           `mapstructure:"workers" json:"workers"`                           // 工作协程数 (默认:8)
	Timeout            time.Duration `mapstructure:"timeout" json:"timeout"`                           // 请求超时 (默认:10s)
	UserAgent          string        `mapstructure:"user_agent" json:"user_agent"`                     // User-Agent
	MaxRedirects       int           `mapstructure:"max_redirects" json:"max_redirects"`               // 最大重定向次数 (默认:10)
	MaxBodySize        int           `mapstructure:"max_body_size" json:"max_body_size"`               // 响应体上限(字节),0表示不限制
	MaxDepth           int           `mapstructure:"max_depth" json:"max_depth"`                       // 最大深度,0表示不限制
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify" json:"insecure_skip_verify"` // 跳过TLS证书验证
	Ignore             []string      `mapstructure:"ignore" json:"ignore"`                             // 忽略类别(js/css/image/video/audio/xml)
	Flatten            bool          `mapstructure:"flatten" json:"flatten"`                           // 爬取结束后生成扁平化副本
	HeadersFile        string        `mapstructure:"headers_file" json:"headers_file"`                 // HTTP头部配置文件
	ShowProgress       bool          `mapstructure:"show_progress" json:"show_progress"`               // 显示进度条
}

// DefaultCrawlConfig 默认爬取配置
func DefaultCrawlConfig() CrawlConfig {
	return CrawlConfig{
		Concurrency:  DefaultConcurrency,
		Workers:      DefaultConcurrency,
		Timeout:      DefaultTimeout,
		UserAgent:    DefaultUserAgent,
		MaxRedirects: DefaultMaxRedirects,
		MaxBodySize:  DefaultMaxBodySize,
		Flatten:      true,
	}
}

// Validate 验证配置
func (c *CrawlConfig) Validate() error {
	if c.Concurrency < 1 || c.Concurrency > 100 {
		return fmt.Errorf("并发数必须在1-100之间,当前值: %d", c.Concurrency)
	}
	if c.Workers < 1 || c.Workers > 256 {
		return fmt.Errorf("工作协程数必须在1-256之间,当前值: %d", c.Workers)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("请求超时必须大于0")
	}
	if c.MaxRedirects < 0 {
		return fmt.Errorf("最大重定向次数不能为负数")
	}
	if c.MaxBodySize < 0 {
		return fmt.Errorf("响应体上限不能为负数")
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("最大深度不能为负数")
	}
	for _, name := range c.Ignore {
		if !IgnoreCategory(name).IsValid() {
			return fmt.Errorf("无效的忽略类别: %s (有效值: js, css, image, video, audio, xml)", name)
		}
	}
	return nil
}

// IgnoreSet 根据配置的忽略类别生成后缀集合
func (c *CrawlConfig) IgnoreSet() IgnoreSet {
	categories := make([]IgnoreCategory, 0, len(c.Ignore))
	for _, name := range c.Ignore {
		categories = append(categories, IgnoreCategory(name))
	}
	return BuildIgnoreSet(categories...)
}
