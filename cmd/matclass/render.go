package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgallion1/matclass/internal/hierarchy"
	"github.com/dgallion1/matclass/internal/navigate"
	"github.com/dgallion1/matclass/internal/pipeline"
)

var (
	colorAccent = lipgloss.Color("#8BC34A")
	colorWarn   = lipgloss.Color("#FFC107")
	colorError  = lipgloss.Color("#e53935")
	colorInfo   = lipgloss.Color("#2196F3")
	colorMuted  = lipgloss.Color("#7a8599")

	styleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	styleCode      = lipgloss.NewStyle().Bold(true)
	styleMuted     = lipgloss.NewStyle().Foreground(colorMuted)
	styleStep      = lipgloss.NewStyle().Foreground(colorAccent)
	styleBacktrack = lipgloss.NewStyle().Foreground(colorWarn)
	styleInfo      = lipgloss.NewStyle().Foreground(colorInfo)
	styleError     = lipgloss.NewStyle().Foreground(colorError)
	styleFinal     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1)
	styleHeader = lipgloss.NewStyle().Bold(true).Underline(true)
)

// eventRenderer prints a live classification trace. depth tracks the
// current path length so steps are indented by level.
type eventRenderer struct {
	w     io.Writer
	depth int
}

func (r *eventRenderer) render(ev navigate.Event) {
	indent := strings.Repeat("  ", r.depth)
	switch d := ev.Data.(type) {
	case navigate.CandidatesData:
		codes := make([]string, len(d.Options))
		for i, o := range d.Options {
			codes[i] = o.Code
		}
		fmt.Fprintln(r.w, indent+styleMuted.Render(fmt.Sprintf("? %d options: %s", len(codes), strings.Join(codes, " "))))
	case navigate.StepData:
		mark := "→"
		if d.Auto {
			mark = "↳"
		}
		fmt.Fprintln(r.w, indent+styleStep.Render(mark+" ")+styleCode.Render(d.Code)+" "+d.Description)
		r.depth++
	case navigate.BacktrackData:
		if r.depth > 0 {
			r.depth--
		}
		indent = strings.Repeat("  ", r.depth)
		fmt.Fprintln(r.w, indent+styleBacktrack.Render("← "+d.Code+": "+d.Reason))
	case navigate.InfoData:
		fmt.Fprintln(r.w, indent+styleInfo.Render("· "+d.Msg))
	case navigate.FinalData:
		fmt.Fprintln(r.w, renderFinal(d))
	}
}

func renderFinal(d navigate.FinalData) string {
	var b strings.Builder
	if d.Code == hierarchy.RootCode {
		b.WriteString(styleError.Render("Unresolved"))
		b.WriteString(": no branch could be confirmed")
	} else {
		b.WriteString(styleTitle.Render(d.Code) + "  " + d.Description)
		for i, o := range d.Path {
			b.WriteString("\n" + strings.Repeat("  ", i) + styleMuted.Render(o.Code) + " " + o.Description)
		}
	}
	return styleFinal.Render(b.String())
}

func renderNode(w io.Writer, n *hierarchy.Node, path []hierarchy.Option) {
	for i, o := range path {
		fmt.Fprintln(w, strings.Repeat("  ", i)+styleMuted.Render(o.Code)+" "+o.Description)
	}
	if n.IsRoot() {
		fmt.Fprintln(w, styleTitle.Render(n.Code))
	}
	fmt.Fprintln(w, styleHeader.Render(fmt.Sprintf("%d children", n.NumChildren())))
	for _, c := range n.Children() {
		leaf := ""
		if c.IsLeaf() {
			leaf = styleMuted.Render(" (leaf)")
		}
		fmt.Fprintf(w, "  %s %s%s\n", styleCode.Render(c.Code), c.Description, leaf)
	}
}

// renderResults prints a batch as an aligned table.
func renderResults(w io.Writer, snap pipeline.JobSnapshot) {
	idW, codeW := len("ID"), len("CODE")
	for _, r := range snap.Results {
		idW = max(idW, len(r.ID))
		codeW = max(codeW, len(r.Code))
	}
	row := func(id, code, desc string) string {
		return fmt.Sprintf("%-*s  %-*s  %s", idW, id, codeW, code, desc)
	}

	fmt.Fprintln(w, styleHeader.Render(row("ID", "CODE", "DESCRIPTION")))
	for _, r := range snap.Results {
		switch {
		case r.Error != "":
			fmt.Fprintln(w, styleError.Render(row(r.ID, "-", r.Error)))
		case !r.Resolved:
			fmt.Fprintln(w, styleBacktrack.Render(row(r.ID, r.Code, "unresolved")))
		default:
			fmt.Fprintln(w, row(r.ID, r.Code, r.Description))
		}
	}
	p := snap.Progress
	fmt.Fprintln(w, styleMuted.Render(fmt.Sprintf("%s: %d items, %d resolved, %d unresolved, %d failed",
		snap.Status, p.Total, p.Resolved, p.Unresolved, p.Failed)))
}
