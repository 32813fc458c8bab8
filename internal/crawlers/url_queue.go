package crawlers

import (
	"context"
	"fmt"
	"sync"

	"github.com/RecoveryAshes/sitecrawl/internal/models"
)

// URLQueue 爬取前沿(frontier)
// 职责: 保存已调度但尚未处理的URL,由固定数量的工作协程消费
//
// 完成条件: 队列为空且没有工作协程正在处理URL。
// pending 计数 = 队列中的URL + 已Pop但未Done的URL,归零时队列自动关闭。
type URLQueue struct {
	items   []models.URLItem
	pending int
	closed  bool
	mu      sync.Mutex

	// notify 容量为1的唤醒信号
	notify chan struct{}

	// done 队列关闭时关闭
	done chan struct{}
}

// NewURLQueue 创建URL队列实例
func NewURLQueue() *URLQueue {
	return &URLQueue{
		items:  make([]models.URLItem, 0),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Push 添加URL到队列
// 调用方应先通过 VisitedSet 去重
func (q *URLQueue) Push(item models.URLItem) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return fmt.Errorf("队列已关闭")
	}
	q.items = append(q.items, item)
	q.pending++
	q.mu.Unlock()

	q.signal()
	return nil
}

// Pop 取出下一个URL,队列为空时阻塞
// 返回false表示队列已耗尽、已关闭或ctx已取消
// 每次成功Pop后必须调用一次Done
func (q *URLQueue) Pop(ctx context.Context) (models.URLItem, bool) {
	for {
		if ctx.Err() != nil {
			return models.URLItem{}, false
		}

		q.mu.Lock()
		if len(q.items) > 0 {
			item := q.items[0]
			q.items[0] = models.URLItem{}
			q.items = q.items[1:]
			remaining := len(q.items)
			q.mu.Unlock()

			// 还有剩余时把信号传给下一个等待者
			if remaining > 0 {
				q.signal()
			}
			return item, true
		}
		if q.closed {
			q.mu.Unlock()
			return models.URLItem{}, false
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return models.URLItem{}, false
		case <-q.done:
		case <-q.notify:
		}
	}
}

// Done 标记一个已Pop的URL处理完成
func (q *URLQueue) Done() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending--
	if q.pending <= 0 {
		q.closeLocked()
	}
}

// PendingCount 返回队列中等待处理的URL数量
func (q *URLQueue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close 关闭队列,丢弃未处理的URL
// 后续Push返回错误,等待中的Pop返回false
func (q *URLQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = nil
	q.closeLocked()
}

func (q *URLQueue) closeLocked() {
	if !q.closed {
		q.closed = true
		close(q.done)
	}
}

func (q *URLQueue) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
