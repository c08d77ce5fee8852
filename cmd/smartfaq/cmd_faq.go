package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-smartfaq/client"
)

func parseFAQID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid FAQ id %q", arg)
	}
	return id, nil
}

func runList(cmd *cobra.Command, _ []string) error {
	api, _, err := apiClient()
	if err != nil {
		return err
	}

	page, err := api.ListFAQs(cmd.Context(), client.ListParams{Page: listPage, Search: listSearch})
	if err != nil {
		return err
	}

	if len(page.Results) == 0 {
		fmt.Println("No FAQs")
		return nil
	}

	for _, faq := range page.Results {
		fmt.Printf("%6d  %-40s  %2d pairs  %s  %s\n",
			faq.ID, truncate(faq.Title, 40), len(faq.GeneratedFAQs), faq.Tone, faq.CreatedAt.Format("2006-01-02"))
	}
	fmt.Printf("\n%d total (page %d)\n", page.Count, listPage)
	return nil
}

func runGet(cmd *cobra.Command, args []string) error {
	id, err := parseFAQID(args[0])
	if err != nil {
		return err
	}

	api, _, err := apiClient()
	if err != nil {
		return err
	}

	faq, err := api.GetFAQ(cmd.Context(), id)
	if err != nil {
		return err
	}

	fmt.Printf("#%d %s (%s, %d pairs)\n\n", faq.ID, faq.Title, faq.Tone, len(faq.GeneratedFAQs))
	for i, qa := range faq.GeneratedFAQs {
		fmt.Printf("%d. Q: %s\n   A: %s\n\n", i+1, qa.Question, qa.Answer)
	}
	return nil
}

func runUpdate(cmd *cobra.Command, args []string) error {
	id, err := parseFAQID(args[0])
	if err != nil {
		return err
	}

	api, _, err := apiClient()
	if err != nil {
		return err
	}

	faq, err := api.GetFAQ(cmd.Context(), id)
	if err != nil {
		return err
	}
	faq.Title = updateTitle

	updated, err := api.UpdateFAQ(cmd.Context(), id, faq)
	if err != nil {
		return err
	}

	fmt.Printf("Updated #%d: %s\n", updated.ID, updated.Title)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	id, err := parseFAQID(args[0])
	if err != nil {
		return err
	}

	api, _, err := apiClient()
	if err != nil {
		return err
	}

	if err := api.DeleteFAQ(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Printf("Deleted #%d\n", id)
	return nil
}

func runDownload(cmd *cobra.Command, args []string) error {
	id, err := parseFAQID(args[0])
	if err != nil {
		return err
	}

	api, _, err := apiClient()
	if err != nil {
		return err
	}

	data, filename, err := api.DownloadPDF(cmd.Context(), id)
	if err != nil {
		return err
	}

	output := downloadOutput
	if output == "" {
		output = filename
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	fmt.Printf("Wrote %s (%d bytes)\n", output, len(data))
	return nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	api, _, err := apiClient()
	if err != nil {
		return err
	}

	stats, err := api.Statistics(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("FAQs:               %d\n", stats.TotalFAQs)
	fmt.Printf("Questions:          %d\n", stats.TotalQuestions)
	fmt.Printf("Avg questions/FAQ:  %.1f\n", stats.AvgQuestionsPerFAQ)
	if stats.LastFAQCreated != nil {
		fmt.Printf("Last FAQ created:   %s (#%d %s)\n",
			stats.LastFAQCreated.CreatedAt.Format("2006-01-02 15:04"), stats.LastFAQCreated.ID, stats.LastFAQCreated.Title)
	}
	if len(stats.Tones) > 0 {
		fmt.Println("Tones:")
		for _, tone := range stats.Tones {
			fmt.Printf("  %-14s %d\n", tone.Tone, tone.Value)
		}
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
