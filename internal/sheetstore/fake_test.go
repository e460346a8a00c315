package sheetstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeStoreReadTrimsLikeRemote(t *testing.T) {
	ctx := context.Background()
	store := NewFakeStore()
	store.Seed("Лист", [][]string{
		{"a", "b", "c", "", "e", "f"},
		{"g", "", ""},
		{},
		{},
	})

	rows, err := store.ReadRange(ctx, "Лист", "")
	require.NoError(t, err)
	require.Len(t, rows, 2, "trailing empty rows are dropped")
	assert.Equal(t, []string{"a", "b", "c", "", "e", "f"}, rows[0])
	assert.Equal(t, []string{"g"}, rows[1], "trailing empty cells are dropped")
}

func TestFakeStoreColumnRead(t *testing.T) {
	ctx := context.Background()
	store := NewFakeStore()
	row := make([]string, 12)
	row[11] = "id-1"
	store.Seed("Лист", [][]string{{"header"}, row})

	rows, err := store.ReadRange(ctx, "Лист", "L:L")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Empty(t, rows[0])
	assert.Equal(t, []string{"id-1"}, rows[1])
}

func TestFakeStoreWriteGrowsGrid(t *testing.T) {
	ctx := context.Background()
	store := NewFakeStore()
	require.NoError(t, store.CreateSheet(ctx, "Лист", []string{"A", "B"}))

	err := store.WriteRange(ctx, "Лист", "C3", [][]interface{}{{"x", 42}}, true)
	require.NoError(t, err)

	rows := store.Rows("Лист")
	require.Len(t, rows, 3)
	assert.Equal(t, "x", rows[2][2])
	assert.Equal(t, "42", rows[2][3])

	require.Len(t, store.WriteOps, 1)
	assert.True(t, store.WriteOps[0].UserEntered)
}

func TestFakeStoreDeleteRowShiftsUp(t *testing.T) {
	ctx := context.Background()
	store := NewFakeStore()
	store.Seed("Лист", [][]string{{"1"}, {"2"}, {"3"}})

	require.NoError(t, store.DeleteRow(ctx, "Лист", 2))
	rows := store.Rows("Лист")
	require.Len(t, rows, 2)
	assert.Equal(t, "1", rows[0][0])
	assert.Equal(t, "3", rows[1][0])

	assert.Error(t, store.DeleteRow(ctx, "Лист", 0))
	assert.Error(t, store.DeleteRow(ctx, "Лист", 5))
}

func TestFakeStoreSheetLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewFakeStore()

	exists, err := store.SheetExists(ctx, "Лист")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.CreateSheet(ctx, "Лист", []string{"A"}))
	exists, err = store.SheetExists(ctx, "Лист")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = store.ReadRange(ctx, "Другой", "")
	assert.Error(t, err)
}
