package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/RecoveryAshes/sitecrawl/internal/core"
	"github.com/RecoveryAshes/sitecrawl/internal/models"
	"github.com/RecoveryAshes/sitecrawl/internal/utils"
)

// rootOptions 命令行参数
type rootOptions struct {
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string
	outRoot    string

	// HTTP头部参数
	headers        []string
	headersFile    string
	validateConfig bool

	// 范围与输出
	outDir   string
	basePath string
	domain   string

	// 忽略类别
	ignoreJS    bool
	ignoreCSS   bool
	ignoreImage bool
	ignoreVideo bool
	ignoreAudio bool
	ignoreXML   bool

	// 爬取参数
	concurrency int
	workers     int
	timeout     time.Duration
	depth       int
	flatten     bool
	insecure    bool
	progress    bool

	// 批量处理参数
	urlFile         string
	batchDelay      time.Duration
	continueOnError bool

	// appConfig 在 PersistentPreRunE 中加载
	appConfig *core.Config
}

// NewRootCmd 创建根命令
func NewRootCmd() *cobra.Command {
	return newRootCmd(&rootOptions{})
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitecrawl <start-url>",
		Short: "站点镜像爬取工具",
		Long: `sitecrawl - 从起始URL出发镜像整个站点

抓取范围(路径前缀 + 主机名)内所有可达页面,按URL路径保存到本地:
  output/<out-dir>/origin/<host>/...    镜像目录
  output/<out-dir>/flatten/...          扁平化副本
  output/<out-dir>/reports/...          爬取报告

已存在的文件不会重新抓取,中断后重新执行即可继续。

示例:
  sitecrawl https://example.com/docs/
  sitecrawl https://example.com/ -o example --ignore-image --ignore-video
  sitecrawl https://example.com/ -H "Cookie: session=xxx" -H "Authorization: Bearer token"
  sitecrawl --url-file urls.txt --continue-on-error
  sitecrawl flatten example`,
		Version:       getVersion(),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, args)
		},
	}

	// 全局参数
	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configFile, "config", "c", "", "配置文件路径")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "详细输出模式 (等同于 --log-level debug)")
	pf.StringVar(&opts.logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")
	pf.StringVar(&opts.outRoot, "out-root", "", "输出根目录 (默认: output)")

	// HTTP头部参数
	pf.StringArrayVarP(&opts.headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")
	pf.StringVar(&opts.headersFile, "headers-file", "", "HTTP头部配置文件 (不存在时生成模板)")
	pf.BoolVar(&opts.validateConfig, "validate-config", false, "验证HTTP头部配置并输出后退出")

	// 范围与输出
	f := cmd.Flags()
	f.StringVarP(&opts.outDir, "out-dir", "o", "", "输出目录名 (默认: 起始URL的主机名)")
	f.StringVar(&opts.basePath, "base-path", "", "路径前缀限制,以'/'开头 (默认: 从起始URL推导)")
	f.StringVar(&opts.domain, "domain", "", "主机名限制 (默认: 起始URL的主机名)")

	// 忽略类别
	f.BoolVar(&opts.ignoreJS, "ignore-js", false, "忽略JavaScript文件")
	f.BoolVar(&opts.ignoreCSS, "ignore-css", false, "忽略样式文件")
	f.BoolVar(&opts.ignoreImage, "ignore-image", false, "忽略图片")
	f.BoolVar(&opts.ignoreVideo, "ignore-video", false, "忽略视频")
	f.BoolVar(&opts.ignoreAudio, "ignore-audio", false, "忽略音频")
	f.BoolVar(&opts.ignoreXML, "ignore-xml", false, "忽略XML文件")

	// 爬取参数
	f.IntVar(&opts.concurrency, "concurrency", models.DefaultConcurrency, "同时进行的HTTP请求数 (1-100)")
	f.IntVar(&opts.workers, "workers", models.DefaultConcurrency, "工作协程数 (1-256)")
	f.DurationVar(&opts.timeout, "timeout", models.DefaultTimeout, "单个请求超时")
	f.IntVarP(&opts.depth, "depth", "d", 0, "最大爬取深度,0表示不限制")
	f.BoolVar(&opts.flatten, "flatten", true, "爬取结束后生成扁平化副本")
	f.BoolVar(&opts.insecure, "insecure", false, "跳过TLS证书验证")
	f.BoolVar(&opts.progress, "progress", false, "显示进度条")

	// 批量处理参数
	f.StringVarP(&opts.urlFile, "url-file", "f", "", "包含起始URL列表的文件路径,每行一个")
	f.DurationVar(&opts.batchDelay, "batch-delay", time.Second, "批量处理URL间延迟")
	f.BoolVar(&opts.continueOnError, "continue-on-error", false, "批量处理时遇到错误继续")

	cmd.AddCommand(newFlattenCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// setup 加载配置并初始化日志系统
func (o *rootOptions) setup() error {
	config, err := core.LoadConfig(o.configFile)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	if o.outRoot != "" {
		config.Output.BaseDir = o.outRoot
	}
	o.appConfig = config

	logConfig := config.LogConfig()
	if o.verbose {
		logConfig.Level = "debug"
	}
	// 命令行参数覆盖配置文件
	if o.logLevel != "" {
		logConfig.Level = o.logLevel
	}

	if err := utils.InitLogger(logConfig); err != nil {
		return fmt.Errorf("初始化日志系统失败: %w", err)
	}

	utils.Debugf("配置加载完成: 输出目录=%s, 日志级别=%s", config.Output.BaseDir, logConfig.Level)
	return nil
}

func (o *rootOptions) run(cmd *cobra.Command, args []string) error {
	crawlConfig := o.buildCrawlConfig(cmd)

	headerManager, err := core.NewHeaderManager(crawlConfig.HeadersFile, o.headers)
	if err != nil {
		return fmt.Errorf("创建HTTP头部管理器失败: %w", err)
	}
	headerManager.SetUserAgent(crawlConfig.UserAgent)

	if o.validateConfig {
		return printValidatedHeaders(cmd.OutOrStdout(), headerManager)
	}

	// 没有提供任何参数时显示帮助信息
	if len(args) == 0 && o.urlFile == "" {
		return cmd.Help()
	}
	if len(args) > 0 && o.urlFile != "" {
		return fmt.Errorf("不能同时指定起始URL和 --url-file")
	}

	if err := crawlConfig.Validate(); err != nil {
		return err
	}

	crawlOpts := core.CrawlOptions{
		OutRoot:  o.appConfig.Output.BaseDir,
		OutDir:   o.outDir,
		BasePath: o.basePath,
		Domain:   o.domain,
	}
	ctx := cmd.Context()

	if o.urlFile != "" {
		urls, err := utils.ReadURLsFromFile(o.urlFile)
		if err != nil {
			return fmt.Errorf("读取URL文件失败: %w", err)
		}
		if len(urls) == 0 {
			return fmt.Errorf("URL文件为空: %s", o.urlFile)
		}

		batchCrawler := core.NewBatchCrawler(crawlConfig, crawlOpts, o.batchDelay, o.continueOnError, headerManager)
		if _, err := batchCrawler.CrawlBatch(ctx, urls); err != nil {
			return fmt.Errorf("批量爬取失败: %w", err)
		}

		utils.Info("✨ 批量爬取任务完成!")
		return nil
	}

	crawler, err := core.NewCrawler(args[0], crawlConfig, crawlOpts, headerManager)
	if err != nil {
		return err
	}

	if err := crawler.Crawl(ctx); err != nil {
		return fmt.Errorf("爬取失败: %w", err)
	}

	printStats(cmd.OutOrStdout(), crawler)
	utils.Info("✨ 爬取任务完成!")
	return nil
}

// buildCrawlConfig 合并配置文件和命令行参数
// 只有显式指定的命令行参数才会覆盖配置文件
func (o *rootOptions) buildCrawlConfig(cmd *cobra.Command) models.CrawlConfig {
	cfg := models.DefaultCrawlConfig()
	if o.appConfig != nil {
		cfg = o.appConfig.Crawl
	}

	flags := cmd.Flags()
	if flags.Changed("concurrency") {
		cfg.Concurrency = o.concurrency
	}
	if flags.Changed("workers") {
		cfg.Workers = o.workers
	}
	if flags.Changed("timeout") {
		cfg.Timeout = o.timeout
	}
	if flags.Changed("depth") {
		cfg.MaxDepth = o.depth
	}
	if flags.Changed("flatten") {
		cfg.Flatten = o.flatten
	}
	if flags.Changed("insecure") {
		cfg.InsecureSkipVerify = o.insecure
	}
	if flags.Changed("progress") {
		cfg.ShowProgress = o.progress
	}
	if flags.Changed("headers-file") {
		cfg.HeadersFile = o.headersFile
	}

	cfg.Ignore = mergeIgnore(cfg.Ignore, o.ignoreCategories())
	return cfg
}
