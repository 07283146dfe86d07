// Package main provides the research assistant HTTP API server and CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API answers questions about one uploaded document with page citations.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Research Assistant API
//   description: |
//     Upload a PDF, Markdown or text document, then ask questions about it.
//     Answers cite the pages they were drawn from.
//   version: 1.0.0
// schemes:
//   - http
// consumes:
//   - application/json
// produces:
//   - application/json

var rootCmd = &cobra.Command{
	Use:   "research-assistant",
	Short: "Document question answering with page citations",
	Long:  "Research Assistant indexes one document at a time and answers questions about it, citing the pages each answer draws on.",
	// Errors are printed once by main.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
