package main

import (
	"github.com/RecoveryAshes/sitecrawl/internal/models"
)

// ignoreCategories 返回命令行启用的忽略类别
func (o *rootOptions) ignoreCategories() []string {
	flags := []struct {
		enabled  bool
		category models.IgnoreCategory
	}{
		{o.ignoreJS, models.IgnoreJS},
		{o.ignoreCSS, models.IgnoreCSS},
		{o.ignoreImage, models.IgnoreImage},
		{o.ignoreVideo, models.IgnoreVideo},
		{o.ignoreAudio, models.IgnoreAudio},
		{o.ignoreXML, models.IgnoreXML},
	}

	var categories []string
	for _, f := range flags {
		if f.enabled {
			categories = append(categories, string(f.category))
		}
	}
	return categories
}

// mergeIgnore 合并配置文件和命令行的忽略类别,去重并保持顺序
func mergeIgnore(lists ...[]string) []string {
	seen := make(map[string]bool)
	result := []string{}
	for _, list := range lists {
		for _, name := range list {
			if seen[name] {
				continue
			}
			seen[name] = true
			result = append(result, name)
		}
	}
	return result
}
