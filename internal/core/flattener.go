package core

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/RecoveryAshes/sitecrawl/internal/utils"
)

// Flattener 把镜像目录复制为单层目录
// 文件名为相对 originDir 的路径,"/" 和 "\" 替换为 "_":
//
//	origin/example.com/docs/index.html -> flatten/example.com_docs_index.html
type Flattener struct {
	fs           afero.Fs
	originDir    string
	flattenDir   string
	showProgress bool
}

// NewFlattener 创建扁平化器
// fs 为nil时使用OS文件系统
func NewFlattener(fs afero.Fs, originDir, flattenDir string) *Flattener {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Flattener{
		fs:         fs,
		originDir:  originDir,
		flattenDir: flattenDir,
	}
}

// SetShowProgress 设置是否显示进度条
func (f *Flattener) SetShowProgress(show bool) {
	f.showProgress = show
}

// FlatName 返回文件在扁平目录中的名称
func FlatName(relPath string) string {
	return strings.NewReplacer("/", "_", `\`, "_").Replace(relPath)
}

// Flatten 执行复制,返回复制的文件数
// 文件内容按原始字节复制;同名文件直接覆盖
func (f *Flattener) Flatten() (int, error) {
	exists, err := afero.DirExists(f.fs, f.originDir)
	if err != nil {
		return 0, fmt.Errorf("检查镜像目录失败 [%s]: %w", f.originDir, err)
	}
	if !exists {
		return 0, fmt.Errorf("镜像目录不存在: %s", f.originDir)
	}

	if err := f.fs.MkdirAll(f.flattenDir, 0755); err != nil {
		return 0, fmt.Errorf("创建扁平化目录失败 [%s]: %w", f.flattenDir, err)
	}

	var files []string
	err = afero.Walk(f.fs, f.originDir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("遍历镜像目录失败: %w", err)
	}

	utils.Infof("🚀 开始复制 %s → %s (%d 个文件)", f.originDir, f.flattenDir, len(files))

	bar := utils.NewProgressBar(len(files), "扁平化", f.showProgress)
	defer func() { _ = bar.Finish() }()

	copied := 0
	for _, src := range files {
		rel, err := filepath.Rel(f.originDir, src)
		if err != nil {
			return copied, fmt.Errorf("计算相对路径失败 [%s]: %w", src, err)
		}
		dst := filepath.Join(f.flattenDir, FlatName(filepath.ToSlash(rel)))

		if err := f.copyFile(src, dst); err != nil {
			return copied, err
		}
		copied++
		_ = bar.Add(1)
		utils.Debugf("Copied: %s -> %s", src, dst)
	}

	utils.Infof("✅ 扁平化完成: %d 个文件", copied)
	return copied, nil
}

func (f *Flattener) copyFile(src, dst string) error {
	data, err := afero.ReadFile(f.fs, src)
	if err != nil {
		return fmt.Errorf("读取文件失败 [%s]: %w", src, err)
	}
	if err := afero.WriteFile(f.fs, dst, data, os.FileMode(0644)); err != nil {
		return fmt.Errorf("写入文件失败 [%s]: %w", dst, err)
	}
	return nil
}
