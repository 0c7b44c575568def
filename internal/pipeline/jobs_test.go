package pipeline

import (
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/matclass/internal/tabular"
)

func TestJob_StateTransitions(t *testing.T) {
	job := NewJob("m", "", []Item{{ID: "1", Description: "luva"}})
	if job.Status != StatusQueued {
		t.Fatalf("expected new job to be queued, got %q", job.Status)
	}

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusClassifying, "classifying"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestJob_SetResultCounts(t *testing.T) {
	job := NewJob("m", "", make([]Item, 4))
	job.SetResult(0, ItemResult{ID: "a", Resolved: true, Code: "0101"})
	job.SetResult(2, ItemResult{ID: "c", Code: "ROOT"})
	job.SetResult(3, ItemResult{ID: "d", Error: "boom"})
	// Overwriting an item must not count it twice.
	job.SetResult(3, ItemResult{ID: "d", Error: "boom again"})

	snap := job.Snapshot()
	p := snap.Progress
	if p.Total != 4 || p.Processed != 3 || p.Resolved != 1 || p.Unresolved != 1 || p.Failed != 1 {
		t.Errorf("unexpected progress %+v", p)
	}
	if len(snap.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(snap.Results))
	}
	if snap.Results[0].ID != "a" || snap.Results[1].ID != "c" || snap.Results[2].ID != "d" {
		t.Errorf("results out of input order: %+v", snap.Results)
	}
	if snap.Results[2].Error != "boom again" {
		t.Errorf("expected latest result to win, got %q", snap.Results[2].Error)
	}
}

func TestJob_Finish(t *testing.T) {
	tests := []struct {
		name    string
		results []ItemResult
		total   int
		want    JobStatus
	}{
		{"all ok", []ItemResult{{Resolved: true}, {Code: "ROOT"}}, 2, StatusCompleted},
		{"some failed", []ItemResult{{Resolved: true}, {Error: "x"}}, 2, StatusPartial},
		{"all failed", []ItemResult{{Error: "x"}, {Error: "y"}}, 2, StatusFailed},
		{"interrupted", []ItemResult{{Resolved: true}}, 3, StatusPartial},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			job := NewJob("m", "", make([]Item, tc.total))
			for i, r := range tc.results {
				job.SetResult(i, r)
			}
			if got := job.finish(); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestJob_AddError(t *testing.T) {
	job := NewJob("m", "", nil)
	job.AddError("item 3 failed")
	job.AddError("item 7 failed")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "item 3 failed" {
		t.Errorf("expected first error %q, got %q", "item 3 failed", snap.Progress.Errors[0])
	}
}

func TestJob_SnapshotNotNil(t *testing.T) {
	// Snapshot should always return non-nil slices.
	snap := NewJob("m", "", nil).Snapshot()
	if snap.Progress.Errors == nil {
		t.Error("expected non-nil errors slice in snapshot")
	}
	if snap.Results == nil {
		t.Error("expected non-nil results slice in snapshot")
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := NewJob("m", "", nil)
	store.Put(job)

	got := store.Get(job.ID)
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != job.ID {
		t.Errorf("expected ID %q, got %q", job.ID, got.ID)
	}
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := NewJob("m", "", nil)
	expired.SetStatus(StatusCompleted, "done")
	running := NewJob("m", "", nil)
	running.SetStatus(StatusClassifying, "classifying")
	waiting := NewJob("m", "", nil)
	store.Put(expired)
	store.Put(running)
	store.Put(waiting)

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	fresh := NewJob("m", "", nil)
	store.Put(fresh)

	store.Cleanup()

	if store.Get(expired.ID) != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get(running.ID) == nil {
		t.Error("expected running job to survive cleanup")
	}
	if store.Get(waiting.ID) == nil {
		t.Error("expected queued job to survive cleanup")
	}
	if store.Get(fresh.ID) == nil {
		t.Error("expected fresh job to survive cleanup")
	}
	if store.Len() != 3 {
		t.Errorf("expected 3 jobs left, got %d", store.Len())
	}
}

func TestJobStore_CleanupEmpty(t *testing.T) {
	store := NewJobStore(time.Hour)
	// Should not panic on empty store.
	store.Cleanup()
}

func TestItemsFromTable(t *testing.T) {
	tbl := &tabular.Table{
		Header: []string{"Material", "Texto - pt"},
		Rows: [][]string{
			{"100200", "LUVA VAQUETA PUNHO 7CM"},
			{"100201", "  "},
			{"", "PARAFUSO SEXTAVADO M8"},
		},
	}
	items, err := ItemsFromTable(tbl)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ID != "100200" || items[0].Description != "LUVA VAQUETA PUNHO 7CM" {
		t.Errorf("unexpected first item %+v", items[0])
	}
	if items[1].ID != "3" {
		t.Errorf("expected row number as fallback id, got %q", items[1].ID)
	}
}

func TestReadItemsCSV(t *testing.T) {
	csv := "Material,Texto\n1,Capacete classe B\n2,Bota de segurança\n"
	items, err := ReadItems(strings.NewReader(csv), "lote.csv")
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[1].Description != "Bota de segurança" {
		t.Errorf("unexpected items %+v", items)
	}
}

func TestItemsFromTableErrors(t *testing.T) {
	if _, err := ItemsFromTable(&tabular.Table{Header: []string{"Material"}}); err == nil {
		t.Error("expected error for missing description column")
	}
	_, err := ItemsFromTable(&tabular.Table{Header: []string{"Texto"}, Rows: [][]string{{""}}})
	if err != ErrNoItems {
		t.Errorf("expected ErrNoItems, got %v", err)
	}
}
