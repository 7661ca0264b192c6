package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel <url>",
	Short: "Discard the stored metadata and chunks for a URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := configureLogging(); err != nil {
			return err
		}
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Purge(args[0]); err != nil {
			return err
		}
		fmt.Printf("canceled: %s\n", args[0])
		return nil
	},
}
