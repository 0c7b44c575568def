package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dgallion1/matclass/internal/app"
	"github.com/dgallion1/matclass/internal/metrics"
	"github.com/dgallion1/matclass/internal/navigate"
	"github.com/dgallion1/matclass/internal/store"
	"github.com/spf13/cobra"
)

var classifyJSON bool

// classifyCmd classifies one description and prints the trace as it happens.
var classifyCmd = &cobra.Command{
	Use:   "classify <description>",
	Short: "Classify a single material description",
	Long: `Classify a free-text material description, printing each decision as the
search advances: candidate lists, steps, backtracks and the final code.

With --json the raw event stream is written as JSON lines instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "Print events as JSON lines")
}

func runClassify(cmd *cobra.Command, args []string) error {
	item := strings.TrimSpace(strings.Join(args, " "))
	if item == "" {
		return fmt.Errorf("empty description")
	}
	a, err := openApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()
	return classifyItem(cmd, a, item)
}

func classifyItem(cmd *cobra.Command, a *app.App, item string) error {
	out := cmd.OutOrStdout()
	r := &eventRenderer{w: out}
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)

	var events []navigate.Event
	start := time.Now()
	res := a.Engine(a.Cfg.DefaultModel).Classify(cmd.Context(), item, func(ev navigate.Event) {
		events = append(events, ev)
		if classifyJSON {
			_ = enc.Encode(ev)
			return
		}
		r.render(ev)
	})
	elapsed := time.Since(start)
	metrics.ObserveClassification("cli", res.Resolved, res.Depth(), res.Stats.Backtracks, elapsed)

	if err := cmd.Context().Err(); err != nil {
		return err
	}
	if !classifyJSON {
		fmt.Fprintln(out, styleMuted.Render(fmt.Sprintf("%d oracle calls, %d backtracks, %s",
			res.Stats.OracleCalls, res.Stats.Backtracks, elapsed.Round(time.Millisecond))))
	}

	if a.Store != nil {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), 5*time.Second)
		defer cancel()
		if _, err := a.Store.Save(ctx, store.NewRecord(item, a.Cfg.DefaultModel, "cli", res, events, elapsed)); err != nil {
			fmt.Fprintln(os.Stderr, styleError.Render("history: "+err.Error()))
		}
	}
	return nil
}
