package main

import "github.com/spf13/cobra"

// --- Global Command Variables ---
var (
	loginEmail    string
	loginPassword string

	generateFAQID   string
	generateNum     int
	generateTone    string
	generateFile    string
	generateAppend  bool
	listPage        int
	listSearch      string
	updateTitle     string
	downloadOutput  string
)

var (
	rootCmd = &cobra.Command{
		Use:   "smartfaq",
		Short: "A cli for the SmartFAQ generation service",
		Long: `smartfaq drives the SmartFAQ backend from the terminal:
sign in, generate FAQs from content with live streaming output,
and manage the stored FAQ records.`,
		SilenceUsage: true,
	}

	// --- Auth ---
	loginCmd = &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session locally",
		RunE:  runLogin, // Defined in cmd_auth.go
	}
	logoutCmd = &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored session",
		RunE:  runLogout, // Defined in cmd_auth.go
	}
	whoamiCmd = &cobra.Command{
		Use:   "whoami",
		Short: "Show who the stored session belongs to",
		RunE:  runWhoami, // Defined in cmd_auth.go
	}

	// --- Generation ---
	generateCmd = &cobra.Command{
		Use:   "generate [content file]",
		Short: "Generate FAQs from content, streaming pairs as they arrive (Ctrl-C stops)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runGenerate, // Defined in cmd_generate.go
	}

	// --- FAQ records ---
	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List stored FAQs",
		RunE:  runList, // Defined in cmd_faq.go
	}
	getCmd = &cobra.Command{
		Use:   "get [id]",
		Short: "Show one FAQ with its generated pairs",
		Args:  cobra.ExactArgs(1),
		RunE:  runGet, // Defined in cmd_faq.go
	}
	updateCmd = &cobra.Command{
		Use:   "update [id]",
		Short: "Update an FAQ's title",
		Args:  cobra.ExactArgs(1),
		RunE:  runUpdate, // Defined in cmd_faq.go
	}
	deleteCmd = &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete an FAQ",
		Args:  cobra.ExactArgs(1),
		RunE:  runDelete, // Defined in cmd_faq.go
	}
	downloadCmd = &cobra.Command{
		Use:   "download [id]",
		Short: "Download an FAQ as PDF",
		Args:  cobra.ExactArgs(1),
		RunE:  runDownload, // Defined in cmd_faq.go
	}
	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Show account statistics",
		RunE:  runStats, // Defined in cmd_faq.go
	}

	// --- Content extraction ---
	scrapeCmd = &cobra.Command{
		Use:   "scrape [url]",
		Short: "Extract the text content of a web page",
		Args:  cobra.ExactArgs(1),
		RunE:  runScrape, // Defined in cmd_content.go
	}
	uploadCmd = &cobra.Command{
		Use:   "upload [pdf file]",
		Short: "Extract the text content of a PDF",
		Args:  cobra.ExactArgs(1),
		RunE:  runUpload, // Defined in cmd_content.go
	}
)

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "account password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")

	generateCmd.Flags().StringVar(&generateFAQID, "faq", "", "existing FAQ id to regenerate (default: create new)")
	generateCmd.Flags().IntVar(&generateNum, "num", 5, "number of question/answer pairs")
	generateCmd.Flags().StringVar(&generateTone, "tone", "professional", "tone of the generated answers")
	generateCmd.Flags().StringVar(&generateFile, "file", "", "content file (default: stdin or positional arg)")
	generateCmd.Flags().BoolVar(&generateAppend, "append", false, "append to the FAQ's existing pairs instead of replacing them")

	listCmd.Flags().IntVar(&listPage, "page", 1, "result page")
	listCmd.Flags().StringVar(&listSearch, "search", "", "filter by title/content")

	updateCmd.Flags().StringVar(&updateTitle, "title", "", "new title")
	_ = updateCmd.MarkFlagRequired("title")

	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "output path (default: backend filename)")
}
