package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"research-assistant/internal/config"
	"research-assistant/internal/rag"
)

var (
	askFile     string
	askQuestion string
	askNotes    []string
	askDebug    bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer one question about a document",
	Long:  "Ingests a PDF, Markdown or text file, answers the question and prints the result with sources and page references as JSON.",
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askFile, "file", "f", "", "Path to the document (required)")
	askCmd.Flags().StringVarP(&askQuestion, "question", "q", "", "Question to ask (required)")
	askCmd.Flags().StringArrayVarP(&askNotes, "note", "n", nil, "Session note as page:text, repeatable; omit the page for an unknown page")
	askCmd.Flags().BoolVar(&askDebug, "debug", false, "Include selection diagnostics")

	if err := askCmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Sprintf("failed to mark file flag as required: %v", err))
	}
	if err := askCmd.MarkFlagRequired("question"); err != nil {
		panic(fmt.Sprintf("failed to mark question flag as required: %v", err))
	}

	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, _ []string) error {
	notes, err := parseNotes(askNotes)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	// Logs go to stderr so stdout stays valid JSON.
	setupLogging(cfg, os.Stderr)

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.sessions.Close(ctx)

	if _, err := a.sessions.Replace(ctx, filepath.Base(askFile), askFile, ""); err != nil {
		return err
	}
	s, release, err := a.sessions.Acquire()
	if err != nil {
		return err
	}
	defer release()

	result, err := s.Engine.Answer(ctx, rag.Request{
		Question: askQuestion,
		Notes:    notes,
		Debug:    askDebug,
	})
	if err != nil {
		return fmt.Errorf("failed to answer question: %w", err)
	}
	return writeResult(cmd.OutOrStdout(), result)
}

// parseNotes turns "page:text" flags into session notes. A missing or
// non-numeric prefix leaves the page unknown.
func parseNotes(raw []string) ([]rag.SessionNote, error) {
	notes := make([]rag.SessionNote, 0, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(r) == "" {
			return nil, fmt.Errorf("empty --note value")
		}
		prefix, text, found := strings.Cut(r, ":")
		if found {
			if page, err := strconv.Atoi(strings.TrimSpace(prefix)); err == nil {
				if page < 1 {
					page = 1
				}
				notes = append(notes, rag.SessionNote{Page: &page, Content: strings.TrimSpace(text)})
				continue
			}
		}
		notes = append(notes, rag.SessionNote{Content: strings.TrimSpace(r)})
	}
	return notes, nil
}

func writeResult(w io.Writer, result rag.AnswerResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}
