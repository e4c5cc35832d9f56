package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/livp123/axtext/internal/selection"
	"github.com/livp123/axtext/pkg/record"
)

const (
	formatPlain      = "plain"
	formatTimestamps = "timestamps"
	formatApps       = "apps"
	formatByApp      = "by-app"
)

type walkOptions struct {
	format    string
	app       string
	separator string
	dedupe    bool
}

func newWalkCmd(st *state) *cobra.Command {
	opts := walkOptions{}
	cmd := &cobra.Command{
		Use:   "walk [feed-file]",
		Short: "Extract records from a feed file and print them merged",
		// Short: 从数据文件提取记录并合并打印
		Long: `Read a feed file to the end through the capture chain and print the records
left in the log, merged in the chosen format:
  plain       one text per line
  timestamps  [15:04:05] text
  apps        [App Name] text
  by-app      one block per source app
读取数据文件到末尾，并按所选格式合并打印日志中剩余的记录。`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			log, err := ingest(cmd.Context(), st.cfg, path)
			if err != nil {
				return err
			}
			defer log.Close()

			records := log.Snapshot()
			if opts.app != "" {
				records = log.SnapshotFiltered(opts.app)
			}

			mergeOpts := st.cfg.MergeOptions()
			if cmd.Flags().Changed("separator") {
				mergeOpts = append(mergeOpts, selection.WithSeparator(unescape(opts.separator)))
			}
			if cmd.Flags().Changed("dedupe") {
				mergeOpts = append(mergeOpts, selection.WithRemoveDuplicates(opts.dedupe))
			}

			text, err := render(opts.format, records, mergeOpts)
			if err != nil {
				return err
			}
			if text != "" {
				fmt.Fprintln(cmd.OutOrStdout(), text)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatPlain, "Output format: plain, timestamps, apps, by-app")
	cmd.Flags().StringVar(&opts.app, "app", "", "Only records from this source app")
	cmd.Flags().StringVar(&opts.separator, "separator", "", `Separator between texts, escapes such as "\t" allowed (default: selection.separator)`)
	cmd.Flags().BoolVar(&opts.dedupe, "dedupe", false, "Drop repeated texts (default: selection.remove_duplicates)")
	return cmd
}

func render(format string, records []record.Record, opts []selection.MergeOption) (string, error) {
	switch format {
	case formatPlain:
		return selection.Merge(records, opts...), nil
	case formatTimestamps:
		return selection.MergeWithTimestamps(records, opts...), nil
	case formatApps:
		return selection.MergeWithAppInfo(records, opts...), nil
	case formatByApp:
		names := make(map[string]string)
		for _, r := range records {
			names[r.SourceApp] = r.DisplayName
		}
		var b strings.Builder
		for i, g := range selection.MergeByApp(records) {
			if i > 0 {
				b.WriteString("\n\n")
			}
			fmt.Fprintf(&b, "== %s (%s) ==\n%s", names[g.SourceApp], g.SourceApp, g.Text)
		}
		return b.String(), nil
	default:
		return "", fmt.Errorf("unknown format %q (plain, timestamps, apps, by-app)", format)
	}
}
