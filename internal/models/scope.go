package models

import (
	"sort"
	"strings"
)

// Scope 爬取范围限制
// 在启动时从起始URL(或显式覆盖参数)推导一次,爬取过程中不再修改
type Scope struct {
	BasePath string `json:"base_path"` // 路径前缀,以"/"开头和结尾;为空表示不限制
	Domain   string `json:"domain"`    // 主机名;为空表示不限制
}

// IgnoreCategory 忽略资源类别
type IgnoreCategory string

const (
	IgnoreJS    IgnoreCategory = "js"
	IgnoreCSS   IgnoreCategory = "css"
	IgnoreImage IgnoreCategory = "image"
	IgnoreVideo IgnoreCategory = "video"
	IgnoreAudio IgnoreCategory = "audio"
	IgnoreXML   IgnoreCategory = "xml"
)

// IgnoreCategories 所有支持的忽略类别(按命令行参数顺序)
var IgnoreCategories = []IgnoreCategory{
	IgnoreJS, IgnoreCSS, IgnoreImage, IgnoreVideo, IgnoreAudio, IgnoreXML,
}

// IgnoreExtensions 忽略类别 -> 文件后缀(小写)
var IgnoreExtensions = map[IgnoreCategory][]string{
	IgnoreJS:    {".js", ".mjs", ".cjs"},
	IgnoreCSS:   {".css", ".scss", ".sass", ".less"},
	IgnoreImage: {".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg", ".ico", ".bmp", ".tiff"},
	IgnoreVideo: {".mp4", ".mov", ".avi", ".mkv", ".flv", ".webm", ".3gp", ".wmv"},
	IgnoreAudio: {".mp3", ".wav", ".flac", ".aac", ".ogg", ".wma", ".m4a"},
	IgnoreXML:   {".xml"},
}

// IsValid 检查类别是否受支持
func (c IgnoreCategory) IsValid() bool {
	_, ok := IgnoreExtensions[c]
	return ok
}

// IgnoreSet 忽略后缀集合(小写),在发现链接时过滤,不会进入已访问集合
type IgnoreSet map[string]struct{}

// BuildIgnoreSet 根据启用的类别生成忽略后缀集合
// 未知类别被忽略
func BuildIgnoreSet(categories ...IgnoreCategory) IgnoreSet {
	set := make(IgnoreSet)
	for _, c := range categories {
		for _, ext := range IgnoreExtensions[c] {
			set[ext] = struct{}{}
		}
	}
	return set
}

// Matches 判断路径是否以集合中任一后缀结尾
// 调用方负责传入小写路径
func (s IgnoreSet) Matches(lowerPath string) bool {
	for ext := range s {
		if strings.HasSuffix(lowerPath, ext) {
			return true
		}
	}
	return false
}

// Extensions 返回排序后的后缀列表(用于日志和报告)
func (s IgnoreSet) Extensions() []string {
	exts := make([]string, 0, len(s))
	for ext := range s {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
