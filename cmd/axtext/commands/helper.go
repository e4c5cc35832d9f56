package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/livp123/axtext/internal/helper"
	apperrors "github.com/livp123/axtext/pkg/errors"
)

func newHelperCmd() *cobra.Command {
	var procRoot string
	cmd := &cobra.Command{
		Use:   "helper",
		Short: "Privileged process diagnostics",
		// Short: 特权进程诊断
		Long: `Inspect other processes through procfs. Most reports need root; without it
the helper says so instead of failing.
通过 procfs 检查其他进程；大多数报告需要 root 权限。`,
	}
	cmd.PersistentFlags().StringVar(&procRoot, "proc-root", helper.DefaultProcRoot, "procfs mount point")
	_ = cmd.PersistentFlags().MarkHidden("proc-root")

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Report whether privileged access is available",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := helper.New(procRoot).Status()
			fmt.Fprintln(cmd.OutOrStdout(), s.Message)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "maps <pid>",
		Short: "Show the memory map of a process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := parsePID(args[0])
			if err != nil {
				return err
			}
			out, err := helper.New(procRoot).MemoryMaps(pid)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	})

	var minLength int
	stringsCmd := &cobra.Command{
		Use:   "strings <pid>",
		Short: "Summarize a process and the printable strings in its command line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := parsePID(args[0])
			if err != nil {
				return err
			}
			out, err := helper.New(procRoot).ProcessStrings(pid, minLength)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	stringsCmd.Flags().IntVar(&minLength, "min-length", helper.DefaultMinLength, "Minimum printable run length")
	cmd.AddCommand(stringsCmd)

	return cmd
}

func parsePID(s string) (int, error) {
	pid, err := strconv.Atoi(s)
	if err != nil || pid <= 0 {
		return 0, apperrors.NewPIDError(pid)
	}
	return pid, nil
}
