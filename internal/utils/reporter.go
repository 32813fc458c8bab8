package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"

	"github.com/RecoveryAshes/sitecrawl/internal/models"
)

// 报告文件名
const (
	CrawlReportFile = "crawl_report.json"
	SavedPagesFile  = "saved_pages.json"
	FailedPagesFile = "failed_pages.json"
)

// Reporter 报告生成器
type Reporter struct {
	reportsDir string
}

// NewReporter 创建报告生成器
// reportsDir 为报告输出目录,例如 output/example.com/reports
func NewReporter(reportsDir string) *Reporter {
	return &Reporter{
		reportsDir: reportsDir,
	}
}

// Dir 返回报告目录
func (r *Reporter) Dir() string {
	return r.reportsDir
}

// GenerateReport 生成爬取报告
// 输出: crawl_report.json(完整报告), saved_pages.json, failed_pages.json
func (r *Reporter) GenerateReport(report *models.CrawlReport) error {
	if err := os.MkdirAll(r.reportsDir, 0755); err != nil {
		return fmt.Errorf("创建报告目录失败: %w", err)
	}

	// nil 切片序列化为 [] 而不是 null
	if report.SavedPages == nil {
		report.SavedPages = []models.PageInfo{}
	}
	if report.SkippedPages == nil {
		report.SkippedPages = []models.PageInfo{}
	}
	if report.FailedPages == nil {
		report.FailedPages = []models.FailedPageInfo{}
	}

	// 保存主报告
	data, err := report.ToJSON()
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}
	if err := r.writeFile(CrawlReportFile, data); err != nil {
		return err
	}

	// 保存成功页面列表
	if err := r.saveJSONReport(SavedPagesFile, report.SavedPages); err != nil {
		return err
	}

	// 保存失败页面列表
	if err := r.saveJSONReport(FailedPagesFile, report.FailedPages); err != nil {
		return err
	}

	Infof("✅ 报告已生成: %s", r.reportsDir)
	return nil
}

// saveJSONReport 保存JSON报告
func (r *Reporter) saveJSONReport(filename string, data interface{}) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}
	return r.writeFile(filename, jsonData)
}

func (r *Reporter) writeFile(filename string, data []byte) error {
	path := filepath.Join(r.reportsDir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("写入报告文件失败: %w", err)
	}
	Debugf("保存报告: %s", path)
	return nil
}

// NewProgressBar 创建进度条
// max 为-1时显示为不定长的计数器;visible 为false时不输出
func NewProgressBar(max int, description string, visible bool) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetVisibility(visible),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
