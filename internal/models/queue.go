package models

// URLItem 待抓取目标(CrawlTarget)
// 由链接提取器产生,由爬取引擎消费
type URLItem struct {
	// URL 绝对URL字符串,也是已访问集合的键
	URL string

	// Depth 深度层级
	//   - 0: 起始URL
	//   - 1: 从起始页面发现的链接
	//   - 以此类推...
	Depth int

	// SourceURL 发现此URL的页面(起始URL为空)
	SourceURL string
}

// FetchedPage 一次成功抓取的结果
type FetchedPage struct {
	URL         string // 请求URL
	FinalURL    string // 跟随重定向后的URL
	StatusCode  int
	ContentType string
	Body        []byte // 已按Content-Encoding解码的原始字节
}
