// Package cli holds the docnodes command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	var format string
	root := &cobra.Command{
		Use:   "docnodes",
		Short: "Document loading, page rasterization, chunking and selection",
		Long: `docnodes loads documents (PDF, DOCX, text, Markdown, HTML, CSV), renders PDF
pages to images, splits text into chunks and selects items by index.

Run "docnodes serve" for the HTTP API or use the subcommands directly.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := parseFormat(format)
			return err
		},
	}
	root.PersistentFlags().StringVarP(&format, "format", "f", "text", "Output format (text, json, yaml)")

	root.AddCommand(
		newServeCmd(),
		newChunkCmd(),
		newSelectCmd(),
		newPagesCmd(),
		newNodesCmd(),
	)
	return root
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error:"), err)
		os.Exit(1)
	}
}
