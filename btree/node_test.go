package btree

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"b3db/pager"
)

func newTestPager(t *testing.T) *pager.Pager {
	t.Helper()
	p, err := pager.Open(afero.NewMemMapFs(), "test.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestInitLeafAndInternal(t *testing.T) {
	p := newTestPager(t)
	leaf, err := p.GetPage(0)
	require.NoError(t, err)
	InitLeaf(leaf)
	require.Equal(t, NodeTypeLeaf, NodeType(leaf))
	require.False(t, IsRoot(leaf))
	require.Equal(t, uint32(0), LeafNumCells(leaf))
	require.Equal(t, NoNextLeaf, LeafNextLeaf(leaf))

	internal, err := p.GetPage(1)
	require.NoError(t, err)
	InitInternal(internal)
	require.Equal(t, NodeTypeInternal, NodeType(internal))
	require.Equal(t, uint32(0), InternalNumKeys(internal))
	require.Equal(t, InvalidPage, InternalRightChild(internal))
}

func TestLeafCellRoundTrip(t *testing.T) {
	p := newTestPager(t)
	leaf, err := p.GetPage(0)
	require.NoError(t, err)
	InitLeaf(leaf)

	SetLeafNumCells(leaf, 2)
	SetLeafKey(leaf, 0, 7)
	SetLeafKey(leaf, 1, 9)
	copy(LeafValue(leaf, 0), []byte("hello"))
	copy(LeafValue(leaf, 1), []byte("world"))

	require.Equal(t, uint32(7), LeafKey(leaf, 0))
	require.Equal(t, uint32(9), LeafKey(leaf, 1))
	require.Equal(t, byte('h'), LeafValue(leaf, 0)[0])
	require.Equal(t, byte('w'), LeafValue(leaf, 1)[0])
}

func TestCopyLeafCellShift(t *testing.T) {
	p := newTestPager(t)
	leaf, err := p.GetPage(0)
	require.NoError(t, err)
	InitLeaf(leaf)
	SetLeafNumCells(leaf, 1)
	SetLeafKey(leaf, 0, 42)
	copy(LeafValue(leaf, 0), []byte("payload"))

	copyLeafCell(leaf, 1, 0)
	require.Equal(t, uint32(42), LeafKey(leaf, 1))
	require.Equal(t, byte('p'), LeafValue(leaf, 1)[0])
}

func TestInternalChildChecksBounds(t *testing.T) {
	p := newTestPager(t)
	internal, err := p.GetPage(0)
	require.NoError(t, err)
	InitInternal(internal)
	SetInternalNumKeys(internal, 1)
	SetInternalCellChild(internal, 0, 5)
	SetInternalKey(internal, 0, 100)
	SetInternalRightChild(internal, 6)

	child, err := InternalChild(internal, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(5), child)

	child, err = InternalChild(internal, 1)
	require.NoError(t, err)
	require.Equal(t, uint32(6), child)

	_, err = InternalChild(internal, 2)
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestInternalChildRejectsInvalidSlot(t *testing.T) {
	p := newTestPager(t)
	internal, err := p.GetPage(0)
	require.NoError(t, err)
	InitInternal(internal)
	SetInternalNumKeys(internal, 0)

	_, err = InternalChild(internal, 0)
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestMaxKeyLeaf(t *testing.T) {
	p := newTestPager(t)
	leaf, err := p.GetPage(0)
	require.NoError(t, err)
	InitLeaf(leaf)
	SetLeafNumCells(leaf, 3)
	SetLeafKey(leaf, 0, 1)
	SetLeafKey(leaf, 1, 5)
	SetLeafKey(leaf, 2, 9)

	max, err := MaxKey(p, leaf)
	require.NoError(t, err)
	require.Equal(t, uint32(9), max)
}

func TestMaxKeyRecursesThroughInternal(t *testing.T) {
	p := newTestPager(t)
	root, err := p.GetPage(0)
	require.NoError(t, err)
	InitInternal(root)

	leaf, err := p.GetPage(1)
	require.NoError(t, err)
	InitLeaf(leaf)
	SetLeafNumCells(leaf, 1)
	SetLeafKey(leaf, 0, 77)

	SetInternalNumKeys(root, 0)
	SetInternalRightChild(root, 1)

	max, err := MaxKey(p, root)
	require.NoError(t, err)
	require.Equal(t, uint32(77), max)
}

func TestMaxKeyOfEmptyLeafIsCorrupt(t *testing.T) {
	p := newTestPager(t)
	leaf, err := p.GetPage(0)
	require.NoError(t, err)
	InitLeaf(leaf)

	_, err = MaxKey(p, leaf)
	require.ErrorIs(t, err, ErrCorrupt)
}
