package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var describeClassify bool

// describeCmd extracts a description from a document or image, and can
// classify it straight away.
var describeCmd = &cobra.Command{
	Use:   "describe <file>",
	Short: "Extract a material description from a file",
	Long: `Extract a material description from a PDF, DOCX, HTML, Markdown, text or
CSV/XLSX file, or describe an image with the vision model.

With --classify the description is classified right after.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		a, err := openApp(cmd, describeClassify)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Describer.Describe(cmd.Context(), filepath.Base(args[0]), "", data, a.Cfg.DefaultModel)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, res.Text)
		if res.Truncated {
			fmt.Fprintln(cmd.ErrOrStderr(), styleBacktrack.Render(fmt.Sprintf("truncated to %d tokens", a.Cfg.MaxDescriptionTokens)))
		}
		if !describeClassify {
			return nil
		}
		fmt.Fprintln(out)
		return classifyItem(cmd, a, res.Text)
	},
}

func init() {
	describeCmd.Flags().BoolVar(&describeClassify, "classify", false, "Classify the extracted description")
}
