package models

import (
	"encoding/json"
	"time"
)

// PageStatus 页面处理结果
type PageStatus string

const (
	PageSaved   PageStatus = "saved"   // 已抓取并写入
	PageSkipped PageStatus = "skipped" // 本地文件已存在,未重新抓取
	PageFailed  PageStatus = "failed"  // 抓取或写入失败
)

// 失败类型
const (
	ErrorTypeFetch  = "fetch_failed"
	ErrorTypeDecode = "decode_failed"
	ErrorTypeWrite  = "write_failed"
)

// CrawlReport 爬取报告
type CrawlReport struct {
	// 任务信息
	TaskID    string     `json:"task_id"`
	TargetURL string     `json:"target_url"`
	Status    TaskStatus `json:"status"`
	Scope     Scope      `json:"scope"`
	Ignore    []string   `json:"ignore"`

	// 时间信息
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  float64   `json:"duration"` // 秒

	// 统计信息
	Stats TaskStats `json:"stats"`

	// 页面列表
	SavedPages   []PageInfo       `json:"saved_pages"`
	SkippedPages []PageInfo       `json:"skipped_pages"`
	FailedPages  []FailedPageInfo `json:"failed_pages"`

	// 资源采样
	Resources *ResourceSummary `json:"resources,omitempty"`

	// 输出路径
	OriginDir  string `json:"origin_dir"`
	FlattenDir string `json:"flatten_dir,omitempty"`

	// 配置快照
	Config CrawlConfig `json:"config"`
}

// PageInfo 页面信息
type PageInfo struct {
	URL         string    `json:"url"`
	FilePath    string    `json:"file_path"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type,omitempty"`
	Depth       int       `json:"depth"`
	SourceURL   string    `json:"source_url,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

// FailedPageInfo 失败页面信息
type FailedPageInfo struct {
	URL        string `json:"url"`
	ErrorType  string `json:"error_type"` // fetch_failed, decode_failed, write_failed
	ErrorMsg   string `json:"error_msg"`
	StatusCode int    `json:"status_code,omitempty"`
	SourceURL  string `json:"source_url,omitempty"`
}

// ResourceSummary 爬取期间的系统资源采样
type ResourceSummary struct {
	TotalMemory    uint64  `json:"total_memory"`     // 系统总内存(字节)
	MinAvailable   uint64  `json:"min_available"`    // 最低可用内存(字节)
	PeakHeapAlloc  uint64  `json:"peak_heap_alloc"`  // 进程堆内存峰值(字节)
	PeakCPUPercent float64 `json:"peak_cpu_percent"` // CPU使用率峰值
	Samples        int     `json:"samples"`          // 采样次数
}

// ToJSON 序列化为JSON
func (r *CrawlReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FromJSON 从JSON反序列化
func (r *CrawlReport) FromJSON(data []byte) error {
	return json.Unmarshal(data, r)
}
