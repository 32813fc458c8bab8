package crawlers

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/RecoveryAshes/sitecrawl/internal/models"
)

// IsAllowed 检查URL是否满足 basePath 与 domain 限制
//   - domain 非空且主机名不同(不区分大小写): 拒绝
//   - basePath 非空且路径不以 basePath 开头(纯字符串前缀,不按路径段): 拒绝
func IsAllowed(u *url.URL, basePath, domain string) bool {
	if domain != "" && !strings.EqualFold(u.Hostname(), domain) {
		return false
	}
	if basePath != "" && !strings.HasPrefix(urlPathname(u), basePath) {
		return false
	}
	return true
}

func scopeAllows(scope models.Scope, u *url.URL) bool {
	return IsAllowed(u, scope.BasePath, scope.Domain)
}

// DeriveBasePath 从URL推导默认路径前缀
// 最后一段包含"."时视为文件并去掉,结果以单个"/"开头和结尾
//
//	https://example.com              -> /
//	https://example.com/path/to/page -> /path/to/page/
//	https://example.com/a/file.html  -> /a/
func DeriveBasePath(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("解析URL失败: %w", err)
	}

	items := strings.Split(urlPathname(parsed), "/")
	if strings.Contains(items[len(items)-1], ".") {
		items = items[:len(items)-1]
	}

	basePath := strings.Join(items, "/")
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	if !strings.HasSuffix(basePath, "/") {
		basePath += "/"
	}
	return basePath, nil
}

// DeriveDomain 返回URL的小写主机名(不含端口)
func DeriveDomain(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("解析URL失败: %w", err)
	}
	return strings.ToLower(parsed.Hostname()), nil
}

// NormalizeURL 规范化起始URL,使其与页面中发现的链接形式一致:
// 主机名小写,空路径视为"/",去掉片段
//
//	https://Example.com      -> https://example.com/
//	https://example.com/a#top -> https://example.com/a
func NormalizeURL(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("解析URL失败: %w", err)
	}
	normalizeHost(parsed)
	if parsed.Path == "" && parsed.RawPath == "" {
		parsed.Path = "/"
	}
	parsed.Fragment = ""
	parsed.RawFragment = ""
	return parsed.String(), nil
}

// normalizeHost 主机名不区分大小写,统一为小写
// 否则同一页面会以两种形式进入已访问集合并写入两个目录
func normalizeHost(u *url.URL) {
	u.Host = strings.ToLower(u.Host)
}

// NormalizeDomain 规范化 --domain 参数: 去掉协议和端口
// 未带协议时补上 http:// 再解析
func NormalizeDomain(domain string) (string, error) {
	domain = strings.TrimSpace(domain)
	if !strings.Contains(domain, "://") {
		domain = "http://" + domain
	}
	host, err := DeriveDomain(domain)
	if err != nil {
		return "", fmt.Errorf("无效的域名参数: %w", err)
	}
	if host == "" {
		return "", fmt.Errorf("无效的域名参数: 缺少主机名")
	}
	return host, nil
}

// ResolveScope 根据起始URL和覆盖参数计算爬取范围
// basePathOverride 仅在以"/"开头时生效,否则从起始URL推导
func ResolveScope(startURL, basePathOverride, domainOverride string) (models.Scope, error) {
	var scope models.Scope

	if strings.HasPrefix(basePathOverride, "/") {
		scope.BasePath = basePathOverride
	} else {
		basePath, err := DeriveBasePath(startURL)
		if err != nil {
			return scope, err
		}
		scope.BasePath = basePath
	}

	if domainOverride != "" {
		domain, err := NormalizeDomain(domainOverride)
		if err != nil {
			return scope, err
		}
		scope.Domain = domain
	} else {
		domain, err := DeriveDomain(startURL)
		if err != nil {
			return scope, err
		}
		scope.Domain = domain
	}

	return scope, nil
}

// urlPathname 返回编码后的路径,空路径视为"/"
func urlPathname(u *url.URL) string {
	p := u.EscapedPath()
	if p == "" {
		return "/"
	}
	return p
}
