package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgallion1/matclass/internal/hierarchy"
	"github.com/dgallion1/matclass/internal/navigate"
	"github.com/dgallion1/matclass/internal/oracle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func classifyOnce(t *testing.T) (navigate.Result, []navigate.Event) {
	t.Helper()
	tree, _ := hierarchy.Build([]hierarchy.Row{
		{Code: "01", Description: "EPI"},
		{Code: "02", Description: "Ferramentas"},
		{Code: "0101", Description: "Luvas"},
	})
	eng := navigate.New(tree, oracle.Func(func(_ context.Context, _ string, c []hierarchy.Option) oracle.Decision {
		return oracle.Matched(c[0].Code)
	}), nil)
	return eng.Collect(context.Background(), "Luva de vaqueta")
}

func TestSaveAndGet(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	res, events := classifyOnce(t)
	id, err := s.Save(ctx, NewRecord("Luva de vaqueta", "x-ai/grok-4.1-fast", "api", res, events, 1500*time.Millisecond))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "0101", got.Code)
	assert.Equal(t, "Luvas", got.Description)
	assert.True(t, got.Resolved)
	assert.Equal(t, res.Path, got.Path)
	assert.Equal(t, int64(1500), got.DurationMs)
	assert.Equal(t, 1, got.OracleCalls)
	require.Len(t, got.Events, len(events))
	assert.Equal(t, res.Path, navigate.Replay(got.Events))
	assert.False(t, got.CreatedAt.IsZero())
}

func TestGetUnknown(t *testing.T) {
	s := openTemp(t)
	_, err := s.Get(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, item := range []string{"primeiro", "segundo", "terceiro"} {
		_, err := s.Save(ctx, Record{
			Item:      item,
			Code:      hierarchy.RootCode,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	recs, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "terceiro", recs[0].Item)
	assert.Equal(t, "segundo", recs[1].Item)
	assert.Empty(t, recs[0].Events, "list omits traces")
	assert.Equal(t, []hierarchy.Option{}, recs[0].Path)
}

func TestListCapsLimit(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := range maxListLimit + 5 {
		_, err := s.Save(ctx, Record{
			Item:      "item",
			Code:      hierarchy.RootCode,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	recs, err := s.List(ctx, 1000)
	require.NoError(t, err)
	assert.Len(t, recs, maxListLimit)

	recs, err = s.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, recs, 50)
}
