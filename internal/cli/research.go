package cli

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

func newResearchCmd() *cobra.Command {
	var maxResults int

	cmd := &cobra.Command{
		Use:   "research <topic>",
		Short: "Research a topic and print the result as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd.Context())
			if err != nil {
				return err
			}
			if !app.Researcher.HasLLM() {
				return errors.New("research needs an LLM: set LLM_API_KEY or api_key in the config file")
			}

			result, err := app.Researcher.ResearchTopic(cmd.Context(), strings.Join(args, " "), maxResults)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().IntVar(&maxResults, "max-results", 0, "maximum number of results (default from config)")
	return cmd
}
