package btree

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"b3db/row"
)

func TestStartOnEmptyTreeIsEndOfTable(t *testing.T) {
	tree := newTestTree(t)
	c, err := tree.Start()
	require.NoError(t, err)
	require.True(t, c.EndOfTable)
}

func TestCursorAdvanceCrossesLeafBoundary(t *testing.T) {
	tree := newTestTree(t)
	n := int(LeafMaxCells()) + 2
	for i := 0; i < n; i++ {
		id := uint32(i)
		require.NoError(t, tree.Insert(row.Row{ID: id, Username: fmt.Sprintf("u%d", id), Email: "e"}))
	}

	c, err := tree.Start()
	require.NoError(t, err)
	startPage := c.Page
	count := 0
	sawOtherPage := false
	for !c.EndOfTable {
		count++
		if c.Page != startPage {
			sawOtherPage = true
		}
		require.NoError(t, c.Advance())
	}
	require.Equal(t, n, count)
	require.True(t, sawOtherPage)
}
