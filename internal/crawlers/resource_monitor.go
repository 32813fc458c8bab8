package crawlers

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/RecoveryAshes/sitecrawl/internal/models"
)

// ResourceMonitor 系统资源监控器
// 职责: 爬取期间周期性采样内存和CPU,记录峰值供报告使用
type ResourceMonitor struct {
	// 系统总内存(字节)
	totalMemory uint64

	// 最近一次采样
	last ResourceSample

	// 峰值统计
	minAvailable   uint64
	peakHeapAlloc  uint64
	peakCPUPercent float64
	samples        int

	mu sync.RWMutex

	// 监控控制
	cancelFunc context.CancelFunc
	stopped    chan struct{}
}

// ResourceSample 单次采样结果
type ResourceSample struct {
	AvailableMemory uint64  // 系统可用内存(字节)
	HeapAlloc       uint64  // 当前程序堆内存(字节)
	Goroutines      int     // 协程数
	CPUPercent      float64 // 系统CPU使用率(%)
	At              time.Time
}

// MemoryPressure 内存压力等级
func (s ResourceSample) MemoryPressure() string {
	availableMB := s.AvailableMemory / (1024 * 1024)
	switch {
	case availableMB < 200:
		return "emergency"
	case availableMB < 300:
		return "critical"
	case availableMB < 500:
		return "warning"
	default:
		return "normal"
	}
}

// NewResourceMonitor 创建资源监控器实例
func NewResourceMonitor() *ResourceMonitor {
	var totalMem uint64
	vmStat, err := mem.VirtualMemory()
	if err != nil {
		log.Warn().Err(err).Msg("获取系统内存失败,使用默认值")
		totalMem = 4 * 1024 * 1024 * 1024 // 默认4GB
	} else {
		totalMem = vmStat.Total
	}
	log.Debug().Msgf("系统总内存: %.2f GB", float64(totalMem)/(1024*1024*1024))

	return &ResourceMonitor{
		totalMemory: totalMem,
	}
}

// Start 启动后台采样,ctx取消或调用Stop时退出
// 重复调用无效果
func (rm *ResourceMonitor) Start(ctx context.Context, interval time.Duration) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.cancelFunc != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	rm.cancelFunc = cancel
	rm.stopped = make(chan struct{})

	rm.record(rm.sample(0))
	go rm.monitoringLoop(ctx, interval, rm.stopped)
}

// monitoringLoop 后台监控循环
func (rm *ResourceMonitor) monitoringLoop(ctx context.Context, interval time.Duration, stopped chan struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := rm.sample(100 * time.Millisecond)
			rm.mu.Lock()
			rm.record(s)
			rm.mu.Unlock()

			if p := s.MemoryPressure(); p == "critical" || p == "emergency" {
				log.Warn().Msgf("可用内存不足(当前%dMB)", s.AvailableMemory/(1024*1024))
			}
		}
	}
}

// sample 采样一次,cpuInterval为0时使用上次调用以来的CPU使用率
func (rm *ResourceMonitor) sample(cpuInterval time.Duration) ResourceSample {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	s := ResourceSample{
		HeapAlloc:  memStats.HeapAlloc,
		Goroutines: runtime.NumGoroutine(),
		At:         time.Now(),
	}

	if vmStat, err := mem.VirtualMemory(); err == nil {
		s.AvailableMemory = vmStat.Available
	} else if rm.totalMemory > memStats.Sys {
		s.AvailableMemory = rm.totalMemory - memStats.Sys
	}

	if percentages, err := cpu.Percent(cpuInterval, false); err == nil && len(percentages) > 0 {
		s.CPUPercent = percentages[0]
	}

	return s
}

// record 更新最近采样和峰值,调用方持有写锁
func (rm *ResourceMonitor) record(s ResourceSample) {
	rm.last = s
	rm.samples++
	if rm.minAvailable == 0 || (s.AvailableMemory > 0 && s.AvailableMemory < rm.minAvailable) {
		rm.minAvailable = s.AvailableMemory
	}
	if s.HeapAlloc > rm.peakHeapAlloc {
		rm.peakHeapAlloc = s.HeapAlloc
	}
	if s.CPUPercent > rm.peakCPUPercent {
		rm.peakCPUPercent = s.CPUPercent
	}
}

// Stop 停止后台采样并等待其退出
func (rm *ResourceMonitor) Stop() {
	rm.mu.Lock()
	cancel := rm.cancelFunc
	stopped := rm.stopped
	rm.cancelFunc = nil
	rm.mu.Unlock()

	if cancel != nil {
		cancel()
		<-stopped
	}
}

// Last 返回最近一次采样
func (rm *ResourceMonitor) Last() ResourceSample {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.last
}

// Summary 返回监控期间的资源汇总
func (rm *ResourceMonitor) Summary() *models.ResourceSummary {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	return &models.ResourceSummary{
		TotalMemory:    rm.totalMemory,
		MinAvailable:   rm.minAvailable,
		PeakHeapAlloc:  rm.peakHeapAlloc,
		PeakCPUPercent: rm.peakCPUPercent,
		Samples:        rm.samples,
	}
}
