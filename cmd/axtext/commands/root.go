// Package commands implements the axtext command line.
// Package commands 实现 axtext 命令行。
package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/livp123/axtext/internal/config"
	"github.com/livp123/axtext/internal/runtime"
	"github.com/livp123/axtext/internal/utils/logger"
	apperrors "github.com/livp123/axtext/pkg/errors"
)

// state carries what PersistentPreRunE loads to the subcommands.
type state struct {
	cfg *config.Config
}

// NewRootCmd builds the command tree.
// NewRootCmd 构建命令树。
func NewRootCmd() *cobra.Command {
	st := &state{}

	root := &cobra.Command{
		Use:   "axtext",
		Short: "Capture on-screen text from accessibility observations",
		// Short: 从无障碍观察中捕获屏幕文本
		Long: `axtext turns accessibility observations of running applications into a
bounded, time-ordered log of text records that can be browsed, selected and merged.
axtext 将运行中应用的无障碍观察转换为有界、按时间排序的文本记录日志，
可浏览、选择与合并。`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(config.GetConfigPath())
			switch {
			case errors.Is(err, apperrors.ErrConfigNotFound):
				// Commands work without a config file
				// 没有配置文件时使用默认值
				cfg = config.Default()
			case err != nil:
				return err
			}
			st.cfg = cfg

			logger.Init(cfg.Logging)
			// Inject logger into context
			// 将 Logger 注入 Context
			cmd.SetContext(logger.WithContext(cmd.Context(), logger.Get(nil)))
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&runtime.ConfigPath, "config", "c", "", fmt.Sprintf("Path to configuration file (default: %s)", config.DefaultConfigPath))
	root.PersistentFlags().StringVar(&runtime.SelfApp, "self-app", "", "Override the observing app identifier that is never captured")

	root.AddCommand(
		newRunCmd(st),
		newWalkCmd(st),
		newAppsCmd(st),
		newHelperCmd(),
		newInitCmd(),
		newVersionCmd(),
		newCompletionCmd(root),
	)
	root.CompletionOptions.DisableDefaultCmd = true
	return root
}

// newCompletionCmd creates a completion command without powershell.
// newCompletionCmd 创建不含 powershell 的补全命令。
func newCompletionCmd(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish]",
		Short: "Generate shell autocompletion script",
		Long: `Generate shell autocompletion script for axtext.
生成 axtext 的 shell 自动补全脚本。

Examples:
  axtext completion bash > /etc/bash_completion.d/axtext
  axtext completion zsh  > "${fpath[1]}/_axtext"
  axtext completion fish > ~/.config/fish/completions/axtext.fish`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			default:
				return fmt.Errorf("unsupported shell: %s (supported: bash, zsh, fish)", args[0])
			}
		},
	}
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
