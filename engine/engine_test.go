package engine

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"b3db/btree"
	"b3db/row"
)

func TestSmoke(t *testing.T) {
	fs := afero.NewMemMapFs()
	e, err := Open(fs, "test.db")
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, e.Insert(row.Row{ID: 1, Username: "user1", Email: "person1@example.com"}))

	rows, err := e.SelectAll()
	require.NoError(t, err)
	require.Equal(t, []row.Row{{ID: 1, Username: "user1", Email: "person1@example.com"}}, rows)
}

func TestDuplicateKeyLeavesFirstRowIntact(t *testing.T) {
	fs := afero.NewMemMapFs()
	e, err := Open(fs, "test.db")
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, e.Insert(row.Row{ID: 1, Username: "a", Email: "a@a.com"}))
	err = e.Insert(row.Row{ID: 1, Username: "b", Email: "b@b.com"})
	require.ErrorIs(t, err, btree.ErrDuplicateKey)

	rows, err := e.SelectAll()
	require.NoError(t, err)
	require.Equal(t, []row.Row{{ID: 1, Username: "a", Email: "a@a.com"}}, rows)
}

func TestOversizeFieldRejected(t *testing.T) {
	fs := afero.NewMemMapFs()
	e, err := Open(fs, "test.db")
	require.NoError(t, err)
	defer e.Close()

	longUsername := strings.Repeat("a", 33)
	err = e.Insert(row.Row{ID: 1, Username: longUsername, Email: "a@a.com"})
	require.Error(t, err)
}

func TestPersistenceAcrossReopen(t *testing.T) {
	fs := afero.NewMemMapFs()
	e, err := Open(fs, "test.db")
	require.NoError(t, err)

	rows := []row.Row{
		{ID: 1, Username: "u1", Email: "e1"},
		{ID: 2, Username: "u2", Email: "e2"},
		{ID: 3, Username: "u3", Email: "e3"},
	}
	for _, r := range rows {
		require.NoError(t, e.Insert(r))
	}
	require.NoError(t, e.Close())

	e2, err := Open(fs, "test.db")
	require.NoError(t, err)
	defer e2.Close()

	got, err := e2.SelectAll()
	require.NoError(t, err)
	require.Equal(t, rows, got)
}

func TestLeafSplitProducesOneInternalNodeWithTwoLeaves(t *testing.T) {
	fs := afero.NewMemMapFs()
	e, err := Open(fs, "test.db")
	require.NoError(t, err)
	defer e.Close()

	n := int(btree.LeafMaxCells()) + 1
	for i := 1; i <= n; i++ {
		id := uint32(i)
		require.NoError(t, e.Insert(row.Row{ID: id, Username: fmt.Sprintf("u%d", id), Email: "e"}))
	}

	var buf bytes.Buffer
	require.NoError(t, e.DebugPrintTree(&buf))
	out := buf.String()
	require.Contains(t, out, "- internal (size 1)")
	require.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("- leaf")))
}

func TestMultiLevelTreeStaysOrdered(t *testing.T) {
	fs := afero.NewMemMapFs()
	e, err := Open(fs, "test.db")
	require.NoError(t, err)
	defer e.Close()

	n := int(btree.LeafMaxCells())*4*int(btree.InternalMaxCells) + 1
	for i := 1; i <= n; i++ {
		id := uint32(i)
		require.NoError(t, e.Insert(row.Row{ID: id, Username: fmt.Sprintf("u%d", id), Email: "e"}))
	}

	got, err := e.SelectAll()
	require.NoError(t, err)
	require.Len(t, got, n)
	for i, r := range got {
		require.Equal(t, uint32(i+1), r.ID)
	}
}

func TestDebugPrintConstants(t *testing.T) {
	var buf bytes.Buffer
	DebugPrintConstants(&buf)
	out := buf.String()
	require.Contains(t, out, "ROW_SIZE:")
	require.Contains(t, out, "LEAF_NODE_MAX_CELLS:")
}
