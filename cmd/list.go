package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List downloads left in progress by a prior run",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := configureLogging(); err != nil {
			return err
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		records, err := st.ListMetadata()
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("no downloads in progress")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FILENAME\tPROGRESS\tRESUMABLE\tURL")
		for _, m := range records {
			progress := "unknown"
			if m.TotalBytes > 0 {
				progress = fmt.Sprintf("%.1f%%", 100*float64(m.DownloadedBytes)/float64(m.TotalBytes))
			}
			fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", m.Filename, progress, m.SupportsResume, m.URL)
		}
		return w.Flush()
	},
}
