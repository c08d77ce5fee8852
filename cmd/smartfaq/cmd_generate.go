package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-smartfaq/stream"
)

// runGenerate streams question/answer pairs to stdout as the backend
// produces them. Ctrl-C cancels the generation (and keeps the pairs already
// received); a second Ctrl-C aborts.
func runGenerate(cmd *cobra.Command, args []string) error {
	content, err := generationContent(args)
	if err != nil {
		return err
	}

	_, sess, err := apiClient()
	if err != nil {
		return err
	}

	opts := []stream.Option{}
	if generateAppend {
		opts = append(opts, stream.WithUpdateMode(stream.UpdateModeAppend))
	}

	conn, err := stream.Dial(cmd.Context(), cfg.GetBackendWSURL(), sess, opts...)
	if err != nil {
		return err
	}
	defer conn.Close() //nolint:errcheck

	req := stream.GenerateRequest{
		Text:         content,
		NumQuestions: generateNum,
		Tone:         generateTone,
		FAQID:        generateFAQID,
	}
	if _, err := conn.Generate(cmd.Context(), req); err != nil {
		return err
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	stopped := false
	count := 0
	for {
		select {
		case <-interrupt:
			if stopped {
				return fmt.Errorf("aborted")
			}
			stopped = true
			fmt.Fprintln(os.Stderr, "\nStopping...")
			if err := conn.Stop(cmd.Context()); err != nil {
				return err
			}

		case ev, ok := <-conn.Events():
			if !ok {
				return fmt.Errorf("stream closed unexpectedly")
			}

			switch ev.Kind {
			case stream.EventQA:
				count++
				fmt.Printf("%d. Q: %s\n   A: %s\n\n", count, ev.QA.Question, ev.QA.Answer)

			case stream.EventCompleted:
				if ev.FAQ != nil {
					fmt.Printf("Done: %d pairs (FAQ #%d)\n", len(ev.Pairs), ev.FAQ.ID)
				} else {
					fmt.Printf("Done: %d pairs\n", len(ev.Pairs))
				}
				return nil

			case stream.EventStopped:
				fmt.Printf("Stopped: kept %d pairs\n", len(ev.Pairs))
				return nil

			case stream.EventFailed:
				return ev.Err

			case stream.EventConnState:
				if ev.State == stream.StateDisconnected {
					fmt.Fprintln(os.Stderr, "Connection lost, reconnecting...")
				}
			}
		}
	}
}

// generationContent resolves the content to generate from: --file, a
// positional file argument, or stdin.
func generationContent(args []string) (string, error) {
	path := generateFile
	if path == "" && len(args) > 0 {
		path = args[0]
	}

	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		if len(data) == 0 {
			return "", fmt.Errorf("no content: pass a file or pipe content on stdin")
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
