package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/RecoveryAshes/sitecrawl/internal/core"
	"github.com/RecoveryAshes/sitecrawl/internal/utils"
)

// newFlattenCmd 对已有的镜像目录单独执行扁平化
func newFlattenCmd(opts *rootOptions) *cobra.Command {
	var showProgress bool

	cmd := &cobra.Command{
		Use:   "flatten <out-dir>",
		Short: "把 <out-dir>/origin 复制为单层目录 <out-dir>/flatten",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputDir := filepath.Join(opts.appConfig.Output.BaseDir, args[0])
			flattener := core.NewFlattener(nil,
				filepath.Join(outputDir, core.OriginDirName),
				filepath.Join(outputDir, core.FlattenDirName))
			flattener.SetShowProgress(showProgress)

			copied, err := flattener.Flatten()
			if err != nil {
				return fmt.Errorf("扁平化失败: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✅ 已复制 %d 个文件到 %s\n", copied, filepath.Join(outputDir, core.FlattenDirName))
			utils.Debugf("扁平化完成: %s", outputDir)
			return nil
		},
	}

	cmd.Flags().BoolVar(&showProgress, "progress", false, "显示进度条")
	return cmd
}
