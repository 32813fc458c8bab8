package crawlers

import (
	"context"
	"testing"
	"time"

	"github.com/RecoveryAshes/sitecrawl/internal/models"
)

func TestURLQueue_FIFO(t *testing.T) {
	q := NewURLQueue()
	ctx := context.Background()

	for _, u := range []string{"a", "b", "c"} {
		if err := q.Push(models.URLItem{URL: u}); err != nil {
			t.Fatalf("入队失败: %v", err)
		}
	}
	if q.PendingCount() != 3 {
		t.Errorf("期望3个待处理, 得到 %d", q.PendingCount())
	}

	for _, want := range []string{"a", "b", "c"} {
		item, ok := q.Pop(ctx)
		if !ok || item.URL != want {
			t.Fatalf("期望 %s, 得到 %s (ok=%v)", want, item.URL, ok)
		}
	}
}

func TestURLQueue_DrainsWhenAllDone(t *testing.T) {
	q := NewURLQueue()
	ctx := context.Background()

	_ = q.Push(models.URLItem{URL: "a"})
	item, ok := q.Pop(ctx)
	if !ok {
		t.Fatal("应该取到URL")
	}

	// 处理中发现新链接
	_ = q.Push(models.URLItem{URL: "b", Depth: item.Depth + 1})
	q.Done()

	item, ok = q.Pop(ctx)
	if !ok || item.URL != "b" {
		t.Fatalf("期望 b, 得到 %s (ok=%v)", item.URL, ok)
	}
	q.Done()

	if _, ok := q.Pop(ctx); ok {
		t.Error("队列耗尽后Pop应该返回false")
	}
	if err := q.Push(models.URLItem{URL: "c"}); err == nil {
		t.Error("队列关闭后Push应该返回错误")
	}
}

func TestURLQueue_PopBlocksUntilPush(t *testing.T) {
	q := NewURLQueue()
	_ = q.Push(models.URLItem{URL: "seed"})
	_, _ = q.Pop(context.Background())

	got := make(chan string, 1)
	go func() {
		item, ok := q.Pop(context.Background())
		if ok {
			got <- item.URL
		} else {
			got <- ""
		}
	}()

	select {
	case u := <-got:
		t.Fatalf("队列为空且有处理中URL时Pop不应返回, 得到 %q", u)
	case <-time.After(50 * time.Millisecond):
	}

	_ = q.Push(models.URLItem{URL: "late"})
	select {
	case u := <-got:
		if u != "late" {
			t.Errorf("期望 late, 得到 %q", u)
		}
	case <-time.After(time.Second):
		t.Fatal("Push后Pop没有被唤醒")
	}
}

func TestURLQueue_PopCancelled(t *testing.T) {
	q := NewURLQueue()
	_ = q.Push(models.URLItem{URL: "seed"})
	_, _ = q.Pop(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan bool, 1)
	go func() {
		_, ok := q.Pop(ctx)
		done <- ok
	}()

	cancel()
	select {
	case ok := <-done:
		if ok {
			t.Error("ctx取消后Pop应该返回false")
		}
	case <-time.After(time.Second):
		t.Fatal("ctx取消后Pop没有返回")
	}
}

func TestURLQueue_Close(t *testing.T) {
	q := NewURLQueue()
	_ = q.Push(models.URLItem{URL: "a"})
	_ = q.Push(models.URLItem{URL: "b"})

	q.Close()
	q.Close()

	if _, ok := q.Pop(context.Background()); ok {
		t.Error("关闭后Pop应该返回false")
	}
	if q.PendingCount() != 0 {
		t.Errorf("关闭后应丢弃待处理URL, 剩余 %d", q.PendingCount())
	}
}
