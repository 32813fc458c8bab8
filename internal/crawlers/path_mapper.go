package crawlers

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// URLToFilePath 把URL映射到本地文件路径
// 路径格式: {rootDir}/{hostname}/{path}
//   - 以"/"结尾的路径补 index
//   - 没有扩展名的路径补 .html
//
// 例如: https://example.com/docs/ -> {rootDir}/example.com/docs/index.html
func URLToFilePath(rootDir string, u *url.URL) string {
	pathname := urlPathname(u)
	if strings.HasSuffix(pathname, "/") {
		pathname += "index"
	}
	if path.Ext(pathname) == "" {
		pathname += ".html"
	}

	// Clean 保证 ".." 不会越出主机目录
	pathname = strings.TrimLeft(path.Clean("/"+pathname), "/")

	return filepath.Join(rootDir, u.Hostname(), filepath.FromSlash(pathname))
}
