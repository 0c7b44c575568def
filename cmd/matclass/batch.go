package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/dgallion1/matclass/internal/pipeline"
	"github.com/spf13/cobra"
)

var batchJSON bool

// batchCmd classifies every row of a sheet in-process, using the same
// worker as the server's batch queue.
var batchCmd = &cobra.Command{
	Use:   "batch <file.xlsx|file.csv>",
	Short: "Classify every material in a sheet",
	Long: `Classify every row of an .xlsx or .csv sheet. The sheet needs a description
column ("Texto - pt" or "Texto"); a "Material" column is used as the item id.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		items, err := pipeline.ReadItems(f, filepath.Base(args[0]))
		if err != nil {
			return err
		}

		a, err := openApp(cmd, true)
		if err != nil {
			return err
		}
		defer a.Close()

		job := pipeline.NewJob(a.Cfg.DefaultModel, filepath.Base(args[0]), items)
		var rec pipeline.Recorder
		if a.Store != nil {
			rec = a.Store
		}
		w := pipeline.NewWorker(a.Engine, rec, a.Log, a.Cfg.MaxConcurrentClassify)
		w.Process(cmd.Context(), job)

		snap := job.Snapshot()
		if batchJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		}
		renderResults(cmd.OutOrStdout(), snap)
		return nil
	},
}

func init() {
	batchCmd.Flags().BoolVar(&batchJSON, "json", false, "Print the job snapshot as JSON")
}
