package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
)

var docsOpts struct {
	dir    string
	format string
}

var docsCmd = &cobra.Command{
	Use:    "gen-docs",
	Short:  "Generate man pages or markdown reference for ferry",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE:   runGenDocs,
}

func init() {
	docsCmd.Flags().StringVar(&docsOpts.dir, "dir", "docs", "output directory")
	docsCmd.Flags().StringVar(&docsOpts.format, "format", "man", "output format (man or markdown)")
}

func runGenDocs(cmd *cobra.Command, _ []string) error {
	if err := os.MkdirAll(docsOpts.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	root := cmd.Root()
	root.DisableAutoGenTag = true

	switch docsOpts.format {
	case "man":
		return doc.GenManTree(root, &doc.GenManHeader{
			Title:   "FERRY",
			Section: "1",
			Source:  "ferry " + version,
			Manual:  "ferry manual",
		}, docsOpts.dir)
	case "markdown", "md":
		return doc.GenMarkdownTree(root, docsOpts.dir)
	default:
		return fmt.Errorf("unknown format %q (use man or markdown)", docsOpts.format)
	}
}
