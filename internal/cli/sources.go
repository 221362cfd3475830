package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List registered scraper sources",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := appFrom(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range app.Scrapers.Sources() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
