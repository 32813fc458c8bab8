package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/RecoveryAshes/sitecrawl/internal/models"
	"github.com/RecoveryAshes/sitecrawl/internal/utils"
)

func main() {
	os.Exit(execute())
}

func execute() int {
	// Ctrl+C 取消爬取,已写入的文件保留,重新执行即可继续
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			utils.Warn("收到中断信号,爬取已停止")
		}
		var scopeErr *models.ScopeViolationError
		if errors.As(err, &scopeErr) {
			utils.Errorf("起始URL不在爬取范围内: %s", scopeErr.URL)
		}
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		return 1
	}
	return 0
}
