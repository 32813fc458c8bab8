package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/RecoveryAshes/sitecrawl/internal/models"
)

func TestHeaderConfigLoader_LoadConfig(t *testing.T) {
	t.Run("首次运行自动生成配置文件", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "nested", "headers.yaml")
		loader := NewHeaderConfigLoader(configPath)

		cfg, err := loader.LoadConfig()
		if err != nil {
			t.Fatalf("加载配置失败: %v", err)
		}

		data, err := os.ReadFile(configPath)
		if err != nil {
			t.Fatalf("配置文件应该被自动生成: %v", err)
		}
		if string(data) != DefaultHeaderTemplate() {
			t.Error("生成的文件应该与内置模板一致")
		}
		if cfg.Headers == nil || len(cfg.Headers) != 0 {
			t.Errorf("模板不应该包含生效的头部: %v", cfg.Headers)
		}
	})

	t.Run("加载已存在的配置文件", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		content := `headers:
  User-Agent: "Test Bot/1.0"
  X-Custom: "test value"
`
		if err := afero.WriteFile(fs, "/headers.yaml", []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := NewHeaderConfigLoaderFs(fs, "/headers.yaml").LoadConfig()
		if err != nil {
			t.Fatalf("加载配置失败: %v", err)
		}

		// viper会将键名转换为小写
		if cfg.Headers["user-agent"] != "Test Bot/1.0" {
			t.Errorf("期望 user-agent='Test Bot/1.0', 实际='%s'", cfg.Headers["user-agent"])
		}
		if cfg.Headers["x-custom"] != "test value" {
			t.Errorf("期望 x-custom='test value', 实际='%s'", cfg.Headers["x-custom"])
		}
	})

	t.Run("YAML格式错误返回ConfigError", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		bad := "headers:\n  User-Agent: \"Test Bot\n  X-Custom: missing quote\n"
		if err := afero.WriteFile(fs, "/headers.yaml", []byte(bad), 0644); err != nil {
			t.Fatal(err)
		}

		_, err := NewHeaderConfigLoaderFs(fs, "/headers.yaml").LoadConfig()
		var cfgErr *models.ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("期望ConfigError, 得到 %v", err)
		}
		if cfgErr.FilePath != "/headers.yaml" {
			t.Errorf("错误中的路径不正确: %s", cfgErr.FilePath)
		}
	})

	t.Run("空配置文件处理", func(t *testing.T) {
		for name, content := range map[string]string{
			"只有headers键": "headers:",
			"完全为空":       "",
		} {
			t.Run(name, func(t *testing.T) {
				fs := afero.NewMemMapFs()
				if err := afero.WriteFile(fs, "/headers.yaml", []byte(content), 0644); err != nil {
					t.Fatal(err)
				}

				cfg, err := NewHeaderConfigLoaderFs(fs, "/headers.yaml").LoadConfig()
				if err != nil {
					t.Fatalf("加载空配置失败: %v", err)
				}
				if cfg.Headers == nil {
					t.Fatal("Headers map应该被初始化为空map")
				}
			})
		}
	})

	t.Run("配置文件大小验证", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		huge := strings.Repeat("headers:\n  X-Test: value\n", 50000)
		if err := afero.WriteFile(fs, "/huge.yaml", []byte(huge), 0644); err != nil {
			t.Fatal(err)
		}

		loader := NewHeaderConfigLoaderFs(fs, "/huge.yaml")
		if err := loader.ValidateFileSize(); err == nil {
			t.Error("超大配置文件应该被拒绝")
		}
		if _, err := loader.LoadConfig(); err == nil {
			t.Fatal("期望超大配置文件被拒绝,但成功了")
		}
	})
}

func TestHeaderConfigLoader_EnsureConfigExists(t *testing.T) {
	fs := afero.NewMemMapFs()
	loader := NewHeaderConfigLoaderFs(fs, "/cfg/headers.yaml")

	if loader.Path() != "/cfg/headers.yaml" {
		t.Errorf("路径错误: %s", loader.Path())
	}
	if err := loader.EnsureConfigExists(); err != nil {
		t.Fatalf("应该自动创建配置文件, 得到错误: %v", err)
	}

	// 已存在的文件不会被覆盖
	custom := []byte("headers:\n  X-Mine: 1\n")
	if err := afero.WriteFile(fs, "/cfg/headers.yaml", custom, 0644); err != nil {
		t.Fatal(err)
	}
	if err := loader.EnsureConfigExists(); err != nil {
		t.Fatal(err)
	}
	data, _ := afero.ReadFile(fs, "/cfg/headers.yaml")
	if string(data) != string(custom) {
		t.Error("已存在的配置文件不应该被覆盖")
	}
}
