package main

import (
	"fmt"

	"github.com/dgallion1/matclass/internal/config"
	"github.com/dgallion1/matclass/internal/hierarchy"
	"github.com/spf13/cobra"
)

// treeCmd browses the hierarchy without calling any model.
var treeCmd = &cobra.Command{
	Use:   "tree [code]",
	Short: "Show a hierarchy node and its children",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		tree, stats, err := hierarchy.Load(cfg.HierarchyPath)
		if err != nil {
			return err
		}
		code := hierarchy.RootCode
		if len(args) == 1 {
			code = args[0]
		}
		node, err := tree.Lookup(code)
		if err != nil {
			return fmt.Errorf("%s: %w", code, err)
		}
		path, err := tree.Path(node.Code)
		if err != nil {
			path = nil
			fmt.Fprintln(cmd.ErrOrStderr(), styleBacktrack.Render(code+" is not reachable from the root"))
		}
		renderNode(cmd.OutOrStdout(), node, path)
		if node.IsRoot() {
			printBuildStats(cmd, cfg, stats)
		}
		return nil
	},
}

func printBuildStats(cmd *cobra.Command, cfg config.Config, s hierarchy.BuildStats) {
	fmt.Fprintln(cmd.OutOrStdout(), styleMuted.Render(fmt.Sprintf(
		"%s: %d rows, %d nodes, %d orphans, %d duplicates, %d dropped",
		cfg.HierarchyPath, s.Rows, s.Nodes, s.Orphans, s.Duplicates, s.Dropped)))
}
