package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/resumeload/resumeload/internal/job"
)

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume every download left in progress by a prior run",
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
			fmt.Println("nothing to resume")
			return nil
		}

		urls := make([]string, len(records))
		filenames := make([]string, len(records))
		for i, m := range records {
			urls[i] = m.URL
			filenames[i] = m.Filename
		}

		j, err := job.New(urls, filenames, flagOutputDir, st)
		if err != nil {
			return err
		}
		return runJob(j)
	},
}
