package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hoanghai1803/aitracker/internal/models"
)

func newScrapeCmd() *cobra.Command {
	var source, query, out string

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape news sources once and save the articles as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := appFrom(cmd.Context())
			if err != nil {
				return err
			}

			var articles []models.ScrapedArticle
			if source != "" {
				articles, err = app.Scrapers.ScrapeSingle(cmd.Context(), source, query)
			} else {
				articles, err = app.Scrapers.ScrapeAll(cmd.Context(), query)
			}
			if err != nil {
				return err
			}

			if out == "" {
				out = defaultResultsFile(time.Now())
			}
			if err := writeJSONFile(out, articles); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Scraped %d articles, saved to %s\n", len(articles), out)
			for i, a := range articles {
				fmt.Fprintf(w, "%d. %s\n   %s (%s)\n", i+1, a.Title, a.URL, a.PublishedDate.Format(time.DateOnly))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "scrape only this source")
	cmd.Flags().StringVar(&query, "query", "", "only keep articles matching these terms")
	cmd.Flags().StringVar(&out, "out", "", "output file (default scraping_results_<timestamp>.json)")
	return cmd
}

func defaultResultsFile(now time.Time) string {
	return fmt.Sprintf("scraping_results_%s.json", now.Format("20060102_150405"))
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}
	return nil
}
