package core

import (
	"net/http"
	"sync"

	"github.com/spf13/afero"

	"github.com/RecoveryAshes/sitecrawl/internal/config"
	"github.com/RecoveryAshes/sitecrawl/internal/models"
	"github.com/RecoveryAshes/sitecrawl/internal/utils"
)

// HeaderManager 管理HTTP请求头部的生命周期
// 实现 HeaderProvider 接口
type HeaderManager struct {
	// defaults 系统默认头部
	defaults http.Header

	// config 从配置文件加载的头部
	config http.Header

	// cli 从命令行参数解析的头部
	cli http.Header

	validator *utils.HeaderValidator
	redactor  *utils.HeaderRedactor

	// configLoader 为nil表示未指定头部配置文件
	configLoader *config.HeaderConfigLoader

	// merged 首次 GetHeaders 成功后缓存,抓取器每次请求都会调用
	merged http.Header
	loaded bool
	mu     sync.Mutex
}

// NewHeaderManager 创建头部管理器
// 参数:
//   - configFile: 头部配置文件路径,为空时不加载配置文件
//   - cliHeaders: 命令行传递的头部字符串列表
//
// 返回:
//   - *HeaderManager: 头部管理器实例
//   - error: 如果命令行参数解析失败
func NewHeaderManager(configFile string, cliHeaders []string) (*HeaderManager, error) {
	return NewHeaderManagerFs(afero.NewOsFs(), configFile, cliHeaders)
}

// NewHeaderManagerFs 创建使用指定文件系统读取配置文件的头部管理器
func NewHeaderManagerFs(fs afero.Fs, configFile string, cliHeaders []string) (*HeaderManager, error) {
	hm := &HeaderManager{
		defaults:  getDefaultHeaders(),
		config:    make(http.Header),
		cli:       make(http.Header),
		validator: utils.NewHeaderValidator(),
		redactor:  utils.NewHeaderRedactor(),
	}
	if configFile != "" {
		hm.configLoader = config.NewHeaderConfigLoaderFs(fs, configFile)
	}

	if len(cliHeaders) > 0 {
		parsed, err := models.CliHeaders(cliHeaders).Parse()
		if err != nil {
			return nil, err
		}
		hm.cli = parsed
	}

	return hm, nil
}

// getDefaultHeaders 返回系统默认头部
// 不设置 Accept-Encoding,由传输层协商gzip
func getDefaultHeaders() http.Header {
	return http.Header{
		"User-Agent": []string{models.DefaultUserAgent},
		"Accept":     []string{"*/*"},
	}
}

// SetUserAgent 覆盖默认User-Agent (crawl.user_agent)
// 配置文件和命令行中的User-Agent仍然优先
func (hm *HeaderManager) SetUserAgent(ua string) {
	if ua == "" {
		return
	}
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.defaults.Set("User-Agent", ua)
	hm.merged = nil
}

// LoadConfig 加载配置文件
// 如果已加载或未指定配置文件则跳过
func (hm *HeaderManager) LoadConfig() error {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	return hm.loadConfigLocked()
}

func (hm *HeaderManager) loadConfigLocked() error {
	if hm.loaded || hm.configLoader == nil {
		hm.loaded = true
		return nil
	}

	headerConfig, err := hm.configLoader.LoadConfig()
	if err != nil {
		utils.Errorf("加载HTTP头部配置失败: %v", err)
		return err
	}

	// viper会把键名转为小写,Set 会规范化为 Canonical 形式
	hm.config = make(http.Header)
	for name, value := range headerConfig.Headers {
		hm.config.Set(name, value)
	}
	hm.loaded = true

	if len(headerConfig.Headers) > 0 {
		utils.Debugf("成功加载%d个HTTP头部配置: %v", len(hm.config), hm.redactor.Redact(hm.config))
	}
	return nil
}

// Validate 验证所有头部的合法性
// 验证顺序: 默认 → 配置 → 命令行
func (hm *HeaderManager) Validate() error {
	if err := hm.validator.Validate(hm.defaults); err != nil {
		utils.Errorf("默认头部验证失败: %v", err)
		return err
	}

	if err := hm.validator.Validate(hm.config); err != nil {
		utils.Errorf("配置文件头部验证失败: %v", err)
		return err
	}

	if err := hm.validator.Validate(hm.cli); err != nil {
		utils.Errorf("命令行头部验证失败: %v", err)
		return err
	}

	utils.Debugf("所有HTTP头部验证通过")
	return nil
}

// GetMergedHeaders 按优先级合并头部 (default < config < cli)
func (hm *HeaderManager) GetMergedHeaders() http.Header {
	result := make(http.Header)
	for _, layer := range []http.Header{hm.defaults, hm.config, hm.cli} {
		for name, values := range layer {
			result[name] = append([]string(nil), values...)
		}
	}
	return result
}

// GetSafeHeaders 返回脱敏后的头部 (用于日志)
func (hm *HeaderManager) GetSafeHeaders() map[string]string {
	return hm.redactor.Redact(hm.GetMergedHeaders())
}

// GetHeaders 实现 HeaderProvider 接口
// 返回当前有效的HTTP请求头部,调用方可以修改返回值
func (hm *HeaderManager) GetHeaders() (http.Header, error) {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	if hm.merged == nil {
		if err := hm.loadConfigLocked(); err != nil {
			return nil, err
		}
		if err := hm.Validate(); err != nil {
			return nil, err
		}
		hm.merged = hm.GetMergedHeaders()
	}

	return hm.merged.Clone(), nil
}

var _ models.HeaderProvider = (*HeaderManager)(nil)
