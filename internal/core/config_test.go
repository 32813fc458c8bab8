package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/RecoveryAshes/sitecrawl/internal/models"
)

func TestLoadConfig(t *testing.T) {
	t.Run("部分配置使用默认值补全", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := `crawl:
  concurrency: 4
  timeout: 30s
  ignore: [js, image]
  flatten: false
logging:
  level: debug
output:
  base_dir: mirror
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("加载配置失败: %v", err)
		}

		if cfg.Crawl.Concurrency != 4 {
			t.Errorf("concurrency错误: %d", cfg.Crawl.Concurrency)
		}
		if cfg.Crawl.Timeout != 30*time.Second {
			t.Errorf("timeout错误: %v", cfg.Crawl.Timeout)
		}
		if len(cfg.Crawl.Ignore) != 2 || cfg.Crawl.Ignore[0] != "js" || cfg.Crawl.Ignore[1] != "image" {
			t.Errorf("ignore错误: %v", cfg.Crawl.Ignore)
		}
		if cfg.Crawl.Flatten {
			t.Error("flatten应该为false")
		}
		if cfg.Logging.Level != "debug" {
			t.Errorf("日志级别错误: %s", cfg.Logging.Level)
		}
		if cfg.Output.BaseDir != "mirror" {
			t.Errorf("输出目录错误: %s", cfg.Output.BaseDir)
		}

		// 未配置的字段
		if cfg.Crawl.Workers != models.DefaultConcurrency {
			t.Errorf("workers默认值错误: %d", cfg.Crawl.Workers)
		}
		if cfg.Crawl.UserAgent != models.DefaultUserAgent {
			t.Errorf("user_agent默认值错误: %s", cfg.Crawl.UserAgent)
		}
		if cfg.Crawl.MaxRedirects != models.DefaultMaxRedirects {
			t.Errorf("max_redirects默认值错误: %d", cfg.Crawl.MaxRedirects)
		}
		if cfg.Crawl.MaxBodySize != models.DefaultMaxBodySize {
			t.Errorf("max_body_size默认值错误: %d", cfg.Crawl.MaxBodySize)
		}
		if cfg.Crawl.MaxDepth != 0 {
			t.Errorf("max_depth默认值错误: %d", cfg.Crawl.MaxDepth)
		}
		if cfg.Logging.Rotation.MaxSize != 10 || !cfg.Logging.Rotation.Compress {
			t.Errorf("日志轮转默认值错误: %+v", cfg.Logging.Rotation)
		}
		if err := cfg.Crawl.Validate(); err != nil {
			t.Errorf("配置应该有效: %v", err)
		}
	})

	t.Run("指定的配置文件不存在返回错误", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Error("期望返回错误")
		}
	})

	t.Run("YAML格式错误返回错误", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("crawl: [unclosed"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(path); err == nil {
			t.Error("期望返回错误")
		}
	})
}

func TestConfig_LogConfig(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{
			Level:  "warn",
			LogDir: "/var/log/sitecrawl",
			Rotation: RotationConfig{
				MaxSize:    5,
				MaxBackups: 2,
				MaxAge:     7,
				Compress:   true,
			},
		},
	}

	lc := cfg.LogConfig()
	if lc.Level != "warn" || lc.LogDir != "/var/log/sitecrawl" {
		t.Errorf("日志配置错误: %+v", lc)
	}
	if lc.MaxSize != 5 || lc.MaxBackups != 2 || lc.MaxAge != 7 || !lc.Compress {
		t.Errorf("轮转配置错误: %+v", lc)
	}
}
