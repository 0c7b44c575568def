package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dgallion1/matclass/internal/hierarchy"
	"github.com/dgallion1/matclass/internal/navigate"
	"github.com/dgallion1/matclass/internal/pipeline"
)

func TestEventRendererIndentsByDepth(t *testing.T) {
	var buf bytes.Buffer
	r := &eventRenderer{w: &buf}
	events := []navigate.Event{
		{Type: navigate.EventCandidates, Data: navigate.CandidatesData{Options: []hierarchy.Option{{Code: "01"}, {Code: "02"}}}},
		{Type: navigate.EventStep, Data: navigate.StepData{Code: "01", Description: "EPI"}},
		{Type: navigate.EventStep, Data: navigate.StepData{Code: "0101", Description: "Luvas", Auto: true}},
		{Type: navigate.EventBacktrack, Data: navigate.BacktrackData{Code: "0101", Reason: "only child failed"}},
		{Type: navigate.EventInfo, Data: navigate.InfoData{Msg: "pool exhausted under 01"}},
	}
	for _, ev := range events {
		r.render(ev)
	}
	if r.depth != 1 {
		t.Errorf("expected depth 1 after two steps and a backtrack, got %d", r.depth)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "2 options: 01 02") {
		t.Errorf("unexpected candidates line %q", lines[0])
	}
	if !strings.HasPrefix(lines[2], "  ") || !strings.Contains(lines[2], "0101 Luvas") {
		t.Errorf("auto step should be indented one level: %q", lines[2])
	}
	if !strings.HasPrefix(lines[3], "  ") || strings.HasPrefix(lines[3], "    ") {
		t.Errorf("backtrack should print at the parent level: %q", lines[3])
	}
}

func TestRenderFinal(t *testing.T) {
	got := renderFinal(navigate.FinalData{
		Code:        "0101",
		Description: "Luvas",
		Path:        []hierarchy.Option{{Code: "01", Description: "EPI"}, {Code: "0101", Description: "Luvas"}},
	})
	for _, want := range []string{"0101", "Luvas", "01 EPI"} {
		if !strings.Contains(got, want) {
			t.Errorf("final box missing %q:\n%s", want, got)
		}
	}

	root := renderFinal(navigate.FinalData{Code: hierarchy.RootCode})
	if !strings.Contains(root, "Unresolved") {
		t.Errorf("expected unresolved marker, got:\n%s", root)
	}
}

func TestRenderResults(t *testing.T) {
	var buf bytes.Buffer
	renderResults(&buf, pipeline.JobSnapshot{
		Status: pipeline.StatusPartial,
		Progress: pipeline.Progress{Total: 3, Processed: 3, Resolved: 1, Unresolved: 1, Failed: 1},
		Results: []pipeline.ItemResult{
			{ID: "100200", Code: "0101", Description: "Luvas", Resolved: true},
			{ID: "2", Code: hierarchy.RootCode},
			{ID: "3", Error: "empty description"},
		},
	})
	out := buf.String()
	for _, want := range []string{"100200  0101  Luvas", "unresolved", "empty description", "partial: 3 items, 1 resolved"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}
