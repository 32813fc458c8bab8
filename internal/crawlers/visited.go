package crawlers

import "sync"

// VisitedSet 已访问URL集合
// 在调度抓取时写入(而非抓取完成时),整个爬取过程共享
type VisitedSet struct {
	urls map[string]struct{}
	mu   sync.RWMutex
}

// NewVisitedSet 创建已访问集合
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{
		urls: make(map[string]struct{}),
	}
}

// MarkIfNotVisited 原子地检查并标记URL
// 返回true表示本次调用首次标记,调用方负责调度抓取
func (s *VisitedSet) MarkIfNotVisited(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.urls[url]; ok {
		return false
	}
	s.urls[url] = struct{}{}
	return true
}

// IsVisited 检查URL是否已标记
func (s *VisitedSet) IsVisited(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.urls[url]
	return ok
}

// Len 返回已标记URL数量
func (s *VisitedSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.urls)
}
