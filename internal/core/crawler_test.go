package core

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/RecoveryAshes/sitecrawl/internal/models"
	"github.com/RecoveryAshes/sitecrawl/internal/utils"
)

func testCrawlConfig() models.CrawlConfig {
	cfg := models.DefaultCrawlConfig()
	cfg.Workers = 4
	cfg.Timeout = 5 * time.Second
	return cfg
}

// newTestServer 返回一个小站点和总请求计数
func newTestServer(t *testing.T) (*httptest.Server, *int64) {
	t.Helper()
	var hits int64
	pages := map[string]string{
		"/":           `<a href="/docs/">docs</a><a href="/about.html">about</a>`,
		"/docs/":      `<a href="/docs/guide.html">guide</a><a href="/">home</a>`,
		"/about.html": `<html>about</html>`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		if r.URL.Path == "/docs/guide.html" {
			// 没有Content-Type时按内容识别
			w.Header()["Content-Type"] = nil
			_, _ = w.Write([]byte(`<!DOCTYPE html><a href="/docs/">back</a>`))
			return
		}
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestNewCrawler_ScopeViolation(t *testing.T) {
	tests := []struct {
		name string
		url  string
		opts CrawlOptions
	}{
		{"路径前缀不匹配", "http://example.com/docs/a.html", CrawlOptions{BasePath: "/api/"}},
		{"主机名不匹配", "http://example.com/", CrawlOptions{Domain: "other.com"}},
		{"带端口的主机名不匹配", "http://example.com/", CrawlOptions{Domain: "other.com:8080"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCrawler(tt.url, testCrawlConfig(), tt.opts, nil)
			var scopeErr *models.ScopeViolationError
			if !errors.As(err, &scopeErr) {
				t.Fatalf("期望ScopeViolationError, 得到 %v", err)
			}
			if scopeErr.URL != tt.url {
				t.Errorf("错误中的URL不正确: %s", scopeErr.URL)
			}
		})
	}
}

func TestNewCrawler_Validation(t *testing.T) {
	t.Run("无效URL", func(t *testing.T) {
		if _, err := NewCrawler("ftp://example.com/", testCrawlConfig(), CrawlOptions{}, nil); err == nil {
			t.Error("期望返回错误")
		}
	})

	t.Run("无效配置", func(t *testing.T) {
		cfg := testCrawlConfig()
		cfg.Ignore = []string{"fonts"}
		if _, err := NewCrawler("http://example.com/", cfg, CrawlOptions{}, nil); err == nil {
			t.Error("期望返回错误")
		}
	})

	t.Run("默认输出目录为主机名", func(t *testing.T) {
		c, err := NewCrawler("http://example.com:8080/docs/", testCrawlConfig(), CrawlOptions{OutRoot: "out"}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if c.OutputDir() != filepath.Join("out", "example.com") {
			t.Errorf("输出目录错误: %s", c.OutputDir())
		}
		if c.OriginDir() != filepath.Join("out", "example.com", OriginDirName) {
			t.Errorf("镜像目录错误: %s", c.OriginDir())
		}
		if c.FlattenDir() != filepath.Join("out", "example.com", FlattenDirName) {
			t.Errorf("扁平化目录错误: %s", c.FlattenDir())
		}
		if s := c.Scope(); s.BasePath != "/docs/" || s.Domain != "example.com" {
			t.Errorf("范围错误: %+v", s)
		}
	})

	t.Run("主机名统一为小写", func(t *testing.T) {
		c, err := NewCrawler("http://Example.COM", testCrawlConfig(), CrawlOptions{OutRoot: "out"}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if c.OutputDir() != filepath.Join("out", "example.com") {
			t.Errorf("输出目录错误: %s", c.OutputDir())
		}
		if s := c.Scope(); s.BasePath != "/" || s.Domain != "example.com" {
			t.Errorf("范围错误: %+v", s)
		}
	})

	t.Run("覆盖参数", func(t *testing.T) {
		c, err := NewCrawler("http://example.com/docs/a.html", testCrawlConfig(),
			CrawlOptions{OutRoot: "out", OutDir: "mirror", BasePath: "/", Domain: "https://example.com"}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if c.OutputDir() != filepath.Join("out", "mirror") {
			t.Errorf("输出目录错误: %s", c.OutputDir())
		}
		if s := c.Scope(); s.BasePath != "/" || s.Domain != "example.com" {
			t.Errorf("范围错误: %+v", s)
		}
	})
}

func TestCrawler_Crawl(t *testing.T) {
	srv, _ := newTestServer(t)
	outRoot := t.TempDir()

	c, err := NewCrawler(srv.URL+"/", testCrawlConfig(), CrawlOptions{OutRoot: outRoot, OutDir: "site"}, nil)
	if err != nil {
		t.Fatalf("创建爬取器失败: %v", err)
	}
	if err := c.Crawl(context.Background()); err != nil {
		t.Fatalf("爬取失败: %v", err)
	}

	origin := filepath.Join(outRoot, "site", OriginDirName, "127.0.0.1")
	for _, rel := range []string{"index.html", "docs/index.html", "docs/guide.html", "about.html"} {
		if _, err := os.Stat(filepath.Join(origin, rel)); err != nil {
			t.Errorf("缺少镜像文件 %s: %v", rel, err)
		}
	}

	flatten := filepath.Join(outRoot, "site", FlattenDirName)
	for _, name := range []string{"127.0.0.1_index.html", "127.0.0.1_docs_index.html", "127.0.0.1_about.html"} {
		if _, err := os.Stat(filepath.Join(flatten, name)); err != nil {
			t.Errorf("缺少扁平化文件 %s: %v", name, err)
		}
	}

	stats := c.GetStats()
	if stats.SavedPages != 4 {
		t.Errorf("保存页面数错误: %d", stats.SavedPages)
	}
	if stats.FlattenedFiles != 4 {
		t.Errorf("扁平化文件数错误: %d", stats.FlattenedFiles)
	}

	data, err := os.ReadFile(filepath.Join(outRoot, "site", ReportsDirName, utils.CrawlReportFile))
	if err != nil {
		t.Fatalf("读取报告失败: %v", err)
	}
	var report models.CrawlReport
	if err := report.FromJSON(data); err != nil {
		t.Fatalf("解析报告失败: %v", err)
	}
	if report.Status != models.TaskStatusCompleted {
		t.Errorf("报告状态错误: %s", report.Status)
	}
	if report.TaskID == "" {
		t.Error("报告缺少任务ID")
	}
	if len(report.SavedPages) != 4 {
		t.Errorf("报告中的页面数错误: %d", len(report.SavedPages))
	}
	if report.Scope.Domain != "127.0.0.1" || report.Scope.BasePath != "/" {
		t.Errorf("报告中的范围错误: %+v", report.Scope)
	}
	if report.Resources == nil {
		t.Error("报告缺少资源采样")
	}
}

func TestCrawler_ResumeSkipsExisting(t *testing.T) {
	srv, hits := newTestServer(t)
	outRoot := t.TempDir()
	cfg := testCrawlConfig()
	cfg.Flatten = false

	first, err := NewCrawler(srv.URL+"/", cfg, CrawlOptions{OutRoot: outRoot, OutDir: "site"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Crawl(context.Background()); err != nil {
		t.Fatal(err)
	}
	firstHits := atomic.LoadInt64(hits)

	second, err := NewCrawler(srv.URL+"/", cfg, CrawlOptions{OutRoot: outRoot, OutDir: "site"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := second.Crawl(context.Background()); err != nil {
		t.Fatal(err)
	}

	// 起始页已存在,第二次不会发出任何请求
	if got := atomic.LoadInt64(hits); got != firstHits {
		t.Errorf("第二次爬取不应该发出请求: %d -> %d", firstHits, got)
	}
	if stats := second.GetStats(); stats.SkippedPages != 1 || stats.SavedPages != 0 {
		t.Errorf("统计错误: %+v", stats)
	}
	if _, err := os.Stat(second.FlattenDir()); !os.IsNotExist(err) {
		t.Error("关闭扁平化时不应该创建扁平化目录")
	}
}

func TestCrawler_Cancelled(t *testing.T) {
	srv, hits := newTestServer(t)
	outRoot := t.TempDir()

	c, err := NewCrawler(srv.URL+"/", testCrawlConfig(), CrawlOptions{OutRoot: outRoot}, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := c.Crawl(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("期望context.Canceled, 得到 %v", err)
	}
	if got := atomic.LoadInt64(hits); got != 0 {
		t.Errorf("取消后不应该发出请求, 得到 %d 次", got)
	}
	if report := c.Report(); report == nil || report.Status != models.TaskStatusCancelled {
		t.Errorf("报告状态应该为cancelled: %+v", report)
	}
	if _, err := os.Stat(filepath.Join(c.ReportsDir(), utils.CrawlReportFile)); err != nil {
		t.Errorf("取消时也应该生成报告: %v", err)
	}
}

func TestCrawler_InvalidHeaders(t *testing.T) {
	srv, hits := newTestServer(t)

	hm, err := NewHeaderManager("", []string{"Host: evil.example"})
	if err != nil {
		t.Fatal(err)
	}
	c, err := NewCrawler(srv.URL+"/", testCrawlConfig(), CrawlOptions{OutRoot: t.TempDir()}, hm)
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Crawl(context.Background()); err == nil {
		t.Fatal("期望头部验证失败")
	}
	if got := atomic.LoadInt64(hits); got != 0 {
		t.Errorf("头部无效时不应该发出请求, 得到 %d 次", got)
	}
	if report := c.Report(); report.Status != models.TaskStatusFailed {
		t.Errorf("报告状态应该为failed: %s", report.Status)
	}
}
