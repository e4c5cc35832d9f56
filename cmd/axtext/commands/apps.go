package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/livp123/axtext/internal/appdir"
	"github.com/livp123/axtext/internal/utils/fmtutil"
)

func newAppsCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "apps [feed-file]",
		Short: "List the applications seen in a feed file",
		// Short: 列出数据文件中出现的应用
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

			apps := appdir.Apps(log)
			if len(apps) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No applications captured.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "APP\tNAME\tRECORDS\tSPAN\tLAST SEEN")
			for _, a := range apps {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
					a.SourceApp,
					fmtutil.Truncate(a.DisplayName, 32),
					a.Count,
					fmtutil.FormatDuration(a.LastSeen.Sub(a.FirstSeen)),
					a.LastSeen.Format(st.cfg.Selection.TimeLayout))
			}
			return w.Flush()
		},
	}
}
