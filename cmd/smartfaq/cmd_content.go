package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func runScrape(cmd *cobra.Command, args []string) error {
	api, _, err := apiClient()
	if err != nil {
		return err
	}

	content, err := api.Scrape(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Println(content)
	return nil
}

func runUpload(cmd *cobra.Command, args []string) error {
	api, _, err := apiClient()
	if err != nil {
		return err
	}

	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open %s: %w", args[0], err)
	}
	defer file.Close() //nolint:errcheck

	content, err := api.UploadPDF(cmd.Context(), filepath.Base(args[0]), file)
	if err != nil {
		return err
	}

	fmt.Println(content)
	return nil
}
