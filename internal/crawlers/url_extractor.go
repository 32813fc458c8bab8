package crawlers

import (
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"github.com/RecoveryAshes/sitecrawl/internal/models"
)

// URLExtractor URL提取器
// 职责: 从页面中提取链接,按忽略后缀和爬取范围过滤
type URLExtractor struct {
	// 忽略后缀集合
	ignore models.IgnoreSet

	// 爬取范围
	scope models.Scope
}

// NewURLExtractor 创建URL提取器实例
func NewURLExtractor(ignore models.IgnoreSet, scope models.Scope) *URLExtractor {
	return &URLExtractor{
		ignore: ignore,
		scope:  scope,
	}
}

// ExtractFromHTML 从HTML内容提取范围内的绝对链接
func (e *URLExtractor) ExtractFromHTML(base *url.URL, htmlContent string) []string {
	return ExtractLinks(base, htmlContent, e.ignore, e.scope)
}

// ExtractLinks 从HTML中提取去重后的绝对链接
// 处理流程:
//  1. 遍历所有 <a href>
//  2. 相对 base 解析为绝对URL,无法解析的直接丢弃
//  3. 仅保留 http/https
//  4. 路径(小写)以忽略后缀结尾的丢弃
//  5. 按范围过滤
//
// 单个链接出错不影响其他链接;结果保留首次出现的顺序
func ExtractLinks(base *url.URL, htmlContent string, ignore models.IgnoreSet, scope models.Scope) []string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		log.Debug().Err(err).Str("url", base.String()).Msg("解析HTML失败")
		return nil
	}

	seen := make(map[string]struct{})
	links := make([]string, 0)

	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				if link, ok := resolveLink(base, attr.Val, ignore, scope); ok {
					if _, dup := seen[link]; !dup {
						seen[link] = struct{}{}
						links = append(links, link)
					}
				}
				break
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(doc)

	return links
}

// resolveLink 解析并过滤单个href
func resolveLink(base *url.URL, href string, ignore models.IgnoreSet, scope models.Scope) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	resolved := base.ResolveReference(ref)
	normalizeHost(resolved)

	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}

	if ignore.Matches(strings.ToLower(urlPathname(resolved))) {
		return "", false
	}

	if !scopeAllows(scope, resolved) {
		log.Debug().Str("link", resolved.String()).Msg("范围外链接已过滤")
		return "", false
	}

	// 片段不属于资源本身
	resolved.Fragment = ""
	resolved.RawFragment = ""

	return resolved.String(), true
}
