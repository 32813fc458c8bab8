package crawlers

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"
	"golang.org/x/sync/semaphore"

	"github.com/RecoveryAshes/sitecrawl/internal/models"
	"github.com/RecoveryAshes/sitecrawl/internal/utils"
)

const (
	// responseKey colly.Context 中保存响应的键
	responseKey = "response"

	// tooLargeKey 响应头已表明响应体超过上限
	tooLargeKey = "too_large"
)

// PageFetcher 页面抓取接口
// 爬取引擎通过该接口获取页面,测试中可替换
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*models.FetchedPage, error)
}

// Fetcher HTTP抓取器(使用Colly)
// 所有工作协程共享同一个collector,并发由全局信号量限制
type Fetcher struct {
	collector *colly.Collector
	config    models.CrawlConfig

	// 全局并发许可
	sem *semaphore.Weighted

	// HTTP头部提供者
	headerProvider models.HeaderProvider
}

// NewFetcher 创建抓取器
func NewFetcher(config models.CrawlConfig, headerProvider models.HeaderProvider) *Fetcher {
	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = models.DefaultUserAgent
	}
	concurrency := config.Concurrency
	if concurrency < 1 {
		concurrency = models.DefaultConcurrency
	}

	// colly 超过上限时静默截断,多读一个字节用于识别截断
	maxBodySize := config.MaxBodySize
	collyLimit := 0
	if maxBodySize > 0 {
		collyLimit = maxBodySize + 1
	}

	// 应用层负责去重和范围检查,colly只负责单次请求
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.UserAgent(userAgent),
		colly.MaxBodySize(collyLimit),
		colly.IgnoreRobotsTxt(),
		colly.ParseHTTPErrorResponse(),
	)

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConnsPerHost: concurrency,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: config.InsecureSkipVerify,
		},
	}
	c.WithTransport(transport)

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = models.DefaultTimeout
	}
	c.SetRequestTimeout(timeout)

	maxRedirects := config.MaxRedirects
	c.SetRedirectHandler(func(req *http.Request, via []*http.Request) error {
		if len(via) > maxRedirects {
			return fmt.Errorf("重定向次数超过上限 %d", maxRedirects)
		}
		return nil
	})

	// Content-Length 已超过上限时不下载响应体
	if maxBodySize > 0 {
		c.OnResponseHeaders(func(r *colly.Response) {
			length, err := strconv.ParseInt(r.Headers.Get("Content-Length"), 10, 64)
			if err == nil && length > int64(maxBodySize) {
				r.Ctx.Put(tooLargeKey, strconv.FormatInt(length, 10))
				r.Request.Abort()
			}
		})
	}

	// 响应写回请求上下文,由 Fetch 读取
	c.OnResponse(func(r *colly.Response) {
		r.Ctx.Put(responseKey, r)
	})

	utils.Debugf("抓取器: 并发=%d, 超时=%v, 最大重定向=%d, 响应体上限=%d, 跳过证书验证=%v",
		concurrency, timeout, maxRedirects, maxBodySize, config.InsecureSkipVerify)

	return &Fetcher{
		collector:      c,
		config:         config,
		sem:            semaphore.NewWeighted(int64(concurrency)),
		headerProvider: headerProvider,
	}
}

// Fetch 抓取单个URL
// 同一时刻最多 Concurrency 个请求在途;等待许可时可被ctx取消
// 非2xx状态、网络错误、超时、解码失败、响应体超限均返回 *models.FetchError
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*models.FetchedPage, error) {
	if err := f.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer f.sem.Release(1)

	var hdr http.Header
	if f.headerProvider != nil {
		headers, err := f.headerProvider.GetHeaders()
		if err != nil {
			utils.Warnf("获取HTTP头部失败: %v", err)
		} else {
			hdr = headers.Clone()
		}
	}

	collyCtx := colly.NewContext()
	if err := f.collector.Request(http.MethodGet, rawURL, nil, collyCtx, hdr); err != nil {
		if length := collyCtx.Get(tooLargeKey); length != "" {
			return nil, &models.FetchError{
				URL:   rawURL,
				Cause: fmt.Errorf("%w: Content-Length=%s, 上限=%d", models.ErrBodyTooLarge, length, f.config.MaxBodySize),
			}
		}
		return nil, &models.FetchError{URL: rawURL, Cause: err}
	}

	resp, ok := collyCtx.GetAny(responseKey).(*colly.Response)
	if !ok || resp == nil {
		return nil, &models.FetchError{URL: rawURL, Cause: errors.New("未收到响应")}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &models.FetchError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Cause:      errors.New(http.StatusText(resp.StatusCode)),
		}
	}

	if f.config.MaxBodySize > 0 && len(resp.Body) > f.config.MaxBodySize {
		return nil, &models.FetchError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Cause:      fmt.Errorf("%w: 上限=%d", models.ErrBodyTooLarge, f.config.MaxBodySize),
		}
	}

	body, err := decompressBody(resp.Headers.Get("Content-Encoding"), resp.Body)
	if err != nil {
		return nil, &models.FetchError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Cause:      fmt.Errorf("%w: %v", models.ErrDecode, err),
		}
	}

	contentType := resp.Headers.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &models.FetchedPage{
		URL:         rawURL,
		FinalURL:    finalURL,
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        body,
	}, nil
}

// IsHTML 判断内容类型是否为HTML(text/html, application/xhtml+xml)
// 只有HTML响应才会提取链接
func IsHTML(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "html")
}

// decompressBody 根据Content-Encoding头部解码响应体
// gzip 已由colly解码,这里处理 br 和 deflate
func decompressBody(contentEncoding string, body []byte) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(contentEncoding))

	switch encoding {
	case "", "identity", "gzip":
		return body, nil

	case "br":
		decompressed, err := io.ReadAll(brotli.NewReader(bytes.NewReader(body)))
		if err != nil {
			return nil, fmt.Errorf("brotli读取失败: %w", err)
		}
		return decompressed, nil

	case "deflate":
		// 多数服务器发送zlib封装的deflate,少数发送裸deflate
		if reader, err := zlib.NewReader(bytes.NewReader(body)); err == nil {
			defer reader.Close()
			if decompressed, err := io.ReadAll(reader); err == nil {
				return decompressed, nil
			}
		}
		reader := flate.NewReader(bytes.NewReader(body))
		defer reader.Close()
		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("deflate读取失败: %w", err)
		}
		return decompressed, nil

	default:
		utils.Warnf("未知的Content-Encoding: %s", contentEncoding)
		return body, nil
	}
}
