package crawlers

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// PageStore 页面存储
// 基于afero,生产环境使用OS文件系统,测试使用内存文件系统
type PageStore struct {
	fs afero.Fs
}

// NewPageStore 创建页面存储
// fs 为nil时使用OS文件系统
func NewPageStore(fs afero.Fs) *PageStore {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &PageStore{fs: fs}
}

// Fs 返回底层文件系统
func (s *PageStore) Fs() afero.Fs {
	return s.fs
}

// Exists 检查本地文件是否已存在
func (s *PageStore) Exists(path string) bool {
	ok, err := afero.Exists(s.fs, path)
	return err == nil && ok
}

// Save 写入页面内容,按需创建父目录
// 内容按原始字节写入,不做任何编码转换
func (s *PageStore) Save(path string, content []byte) error {
	if err := s.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}
	if err := afero.WriteFile(s.fs, path, content, 0644); err != nil {
		return fmt.Errorf("写入文件失败: %w", err)
	}
	return nil
}

// EnsureDir 创建目录
func (s *PageStore) EnsureDir(dir string) error {
	return s.fs.MkdirAll(dir, os.ModePerm)
}
