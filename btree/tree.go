package btree

import (
	"sort"

	"github.com/pkg/errors"

	"b3db/pager"
	"b3db/row"
)

// Tree is the B+ tree abstraction: find, insert, and the split/rebalance
// machinery that keeps the tree's invariants intact. The root always
// lives at RootPage; only the node stored there changes shape over time.
type Tree struct {
	Pager *pager.Pager
}

// Open returns a Tree backed by p. If p has no pages yet, page 0 is
// initialized as an empty leaf root — a brand-new, empty table.
func Open(p *pager.Pager) (*Tree, error) {
	t := &Tree{Pager: p}
	if p.NumPages() == 0 {
		root, err := p.GetPage(RootPage)
		if err != nil {
			return nil, err
		}
		InitLeaf(root)
		SetIsRoot(root, true)
	}
	return t, nil
}

// leafNodeFind returns the index of the first cell with key_at >= key, or
// num_cells if no such cell exists — the position at which key already
// sits, or the position it should be inserted at.
func leafNodeFind(p *pager.Page, key uint32) uint32 {
	n := int(LeafNumCells(p))
	return uint32(sort.Search(n, func(i int) bool {
		return LeafKey(p, uint32(i)) >= key
	}))
}

// internalNodeFindChild returns the index of the child that should
// contain key: the smallest i such that key <= keys[i], or numKeys to
// mean "descend right_child".
func internalNodeFindChild(p *pager.Page, key uint32) uint32 {
	n := int(InternalNumKeys(p))
	return uint32(sort.Search(n, func(i int) bool {
		return InternalKey(p, uint32(i)) >= key
	}))
}

// allocatePage reserves the next unused page and materializes it. Once
// the pager's fixed page budget is exhausted, GetPage's bounds error is
// surfaced as ErrTableFull rather than the lower-level pager error.
func (t *Tree) allocatePage() (uint32, *pager.Page, error) {
	num := t.Pager.GetUnusedPageNum()
	page, err := t.Pager.GetPage(num)
	if err != nil {
		if errors.Is(err, pager.ErrPageOutOfBounds) {
			return 0, nil, ErrTableFull
		}
		return 0, nil, err
	}
	return num, page, nil
}

// Find descends from the root and returns a cursor positioned at key, if
// present, or at the position key would be inserted at.
func (t *Tree) Find(key uint32) (*Cursor, error) {
	pageNum := RootPage
	for {
		page, err := t.Pager.GetPage(pageNum)
		if err != nil {
			return nil, err
		}
		if NodeType(page) == NodeTypeLeaf {
			idx := leafNodeFind(page, key)
			return &Cursor{tree: t, Page: pageNum, Cell: idx}, nil
		}
		idx := internalNodeFindChild(page, key)
		child, err := InternalChild(page, idx)
		if err != nil {
			return nil, err
		}
		pageNum = child
	}
}

// Start returns a cursor at the first row of the tree in key order. If
// the tree is empty, the cursor is immediately at end of table.
func (t *Tree) Start() (*Cursor, error) {
	c, err := t.Find(0)
	if err != nil {
		return nil, err
	}
	page, err := t.Pager.GetPage(c.Page)
	if err != nil {
		return nil, err
	}
	c.EndOfTable = LeafNumCells(page) == 0
	return c, nil
}

// Insert adds r into the tree, keyed by r.ID. It returns ErrDuplicateKey
// if r.ID is already present, and leaves the tree unchanged in that case.
func (t *Tree) Insert(r row.Row) error {
	if err := r.Validate(); err != nil {
		return err
	}
	c, err := t.Find(r.ID)
	if err != nil {
		return err
	}
	page, err := t.Pager.GetPage(c.Page)
	if err != nil {
		return err
	}
	if c.Cell < LeafNumCells(page) && LeafKey(page, c.Cell) == r.ID {
		return ErrDuplicateKey
	}
	return t.leafInsert(c.Page, c.Cell, r.ID, r)
}

func (t *Tree) leafInsert(pageNum, cellIdx, key uint32, r row.Row) error {
	page, err := t.Pager.GetPage(pageNum)
	if err != nil {
		return err
	}
	numCells := LeafNumCells(page)
	if numCells >= LeafMaxCells() {
		return t.leafSplitAndInsert(pageNum, cellIdx, key, r)
	}
	for i := numCells; i > cellIdx; i-- {
		copyLeafCell(page, i, i-1)
	}
	SetLeafKey(page, cellIdx, key)
	if err := row.Serialize(r, LeafValue(page, cellIdx)); err != nil {
		return err
	}
	SetLeafNumCells(page, numCells+1)
	return nil
}

// leafSplitAndInsert divides an overfull leaf between itself and a fresh
// sibling, then propagates the split into the parent (or creates a new
// root if the leaf being split was the root).
func (t *Tree) leafSplitAndInsert(oldPageNum, cellIdx, key uint32, r row.Row) error {
	oldPage, err := t.Pager.GetPage(oldPageNum)
	if err != nil {
		return err
	}
	oldMax, err := MaxKey(t.Pager, oldPage)
	if err != nil {
		return err
	}

	newPageNum, newPage, err := t.allocatePage()
	if err != nil {
		return err
	}
	InitLeaf(newPage)
	SetParentPage(newPage, ParentPage(oldPage))
	SetLeafNextLeaf(newPage, LeafNextLeaf(oldPage))
	SetLeafNextLeaf(oldPage, newPageNum)

	oldNumCells := LeafNumCells(oldPage)
	total := oldNumCells + 1

	type splitCell struct {
		key   uint32
		value []byte
	}
	cells := make([]splitCell, 0, total)
	appendNew := func() error {
		buf := make([]byte, row.Size)
		if err := row.Serialize(r, buf); err != nil {
			return err
		}
		cells = append(cells, splitCell{key: key, value: buf})
		return nil
	}
	for i := uint32(0); i < oldNumCells; i++ {
		if i == cellIdx {
			if err := appendNew(); err != nil {
				return err
			}
		}
		buf := make([]byte, row.Size)
		copy(buf, LeafValue(oldPage, i))
		cells = append(cells, splitCell{key: LeafKey(oldPage, i), value: buf})
	}
	if cellIdx == oldNumCells {
		if err := appendNew(); err != nil {
			return err
		}
	}

	left := LeafLeftSplitCount()
	for i, c := range cells {
		idx := uint32(i)
		if idx < left {
			SetLeafKey(oldPage, idx, c.key)
			copy(LeafValue(oldPage, idx), c.value)
		} else {
			j := idx - left
			SetLeafKey(newPage, j, c.key)
			copy(LeafValue(newPage, j), c.value)
		}
	}
	SetLeafNumCells(oldPage, left)
	SetLeafNumCells(newPage, total-left)

	if IsRoot(oldPage) {
		return t.createNewRoot(newPageNum)
	}

	newMax, err := MaxKey(t.Pager, oldPage)
	if err != nil {
		return err
	}
	parentPage, err := t.Pager.GetPage(ParentPage(oldPage))
	if err != nil {
		return err
	}
	t.updateInternalNodeKey(parentPage, oldMax, newMax)
	return t.internalInsert(ParentPage(oldPage), newPageNum)
}

// createNewRoot splits the root: the old root's content is copied verbatim
// into a freshly allocated left child, and rightChildPageNum becomes the
// new root's right child. The root page number itself never changes.
func (t *Tree) createNewRoot(rightChildPageNum uint32) error {
	root, err := t.Pager.GetPage(RootPage)
	if err != nil {
		return err
	}
	rightChild, err := t.Pager.GetPage(rightChildPageNum)
	if err != nil {
		return err
	}
	leftChildPageNum, leftChild, err := t.allocatePage()
	if err != nil {
		return err
	}

	// Only an already-internal root means rightChild is a bare, freshly
	// allocated page awaiting initialization here; for a leaf-root split
	// rightChild already holds a fully built sibling leaf.
	if NodeType(root) == NodeTypeInternal {
		InitInternal(rightChild)
	}

	leftChild.Data = root.Data
	SetIsRoot(leftChild, false)

	if NodeType(leftChild) == NodeTypeInternal {
		numKeys := InternalNumKeys(leftChild)
		for i := uint32(0); i <= numKeys; i++ {
			childNum, err := InternalChild(leftChild, i)
			if err != nil {
				return err
			}
			childPage, err := t.Pager.GetPage(childNum)
			if err != nil {
				return err
			}
			SetParentPage(childPage, leftChildPageNum)
		}
	}

	InitInternal(root)
	SetIsRoot(root, true)
	SetInternalNumKeys(root, 1)
	SetInternalCellChild(root, 0, leftChildPageNum)
	leftMax, err := MaxKey(t.Pager, leftChild)
	if err != nil {
		return err
	}
	SetInternalKey(root, 0, leftMax)
	SetInternalRightChild(root, rightChildPageNum)
	SetParentPage(leftChild, RootPage)
	SetParentPage(rightChild, RootPage)
	return nil
}

// updateInternalNodeKey rewrites the key of the child slot that used to
// hold oldKey to newKey. If old_key was the (implicit, keyless) rightmost
// child's separator, the write lands in the next unused cell slot, which
// internalInsert is about to populate properly — a harmless no-op.
func (t *Tree) updateInternalNodeKey(parent *pager.Page, oldKey, newKey uint32) {
	idx := internalNodeFindChild(parent, oldKey)
	SetInternalKey(parent, idx, newKey)
}

// internalInsert adds a (childPage, max_key(child)) separator into parent,
// splitting parent first if it's already full.
func (t *Tree) internalInsert(parentPageNum, childPageNum uint32) error {
	parent, err := t.Pager.GetPage(parentPageNum)
	if err != nil {
		return err
	}
	child, err := t.Pager.GetPage(childPageNum)
	if err != nil {
		return err
	}
	childMax, err := MaxKey(t.Pager, child)
	if err != nil {
		return err
	}
	idx := internalNodeFindChild(parent, childMax)
	numKeys := InternalNumKeys(parent)
	if numKeys >= InternalMaxCells {
		return t.internalSplitAndInsert(parentPageNum, childPageNum)
	}

	rightChildPageNum := InternalRightChild(parent)
	if rightChildPageNum == InvalidPage {
		SetInternalRightChild(parent, childPageNum)
		return nil
	}
	rightChild, err := t.Pager.GetPage(rightChildPageNum)
	if err != nil {
		return err
	}
	rightChildMax, err := MaxKey(t.Pager, rightChild)
	if err != nil {
		return err
	}

	SetInternalNumKeys(parent, numKeys+1)
	if childMax > rightChildMax {
		SetInternalCellChild(parent, numKeys, rightChildPageNum)
		SetInternalKey(parent, numKeys, rightChildMax)
		SetInternalRightChild(parent, childPageNum)
	} else {
		for i := numKeys; i > idx; i-- {
			copyInternalCell(parent, i, i-1)
		}
		SetInternalCellChild(parent, idx, childPageNum)
		SetInternalKey(parent, idx, childMax)
	}
	return nil
}

// internalSplitAndInsert is the delicate one: splitting an overfull
// internal node while threading a new child into whichever half should
// hold it, and handling the case where the node being split is the root.
func (t *Tree) internalSplitAndInsert(parentPageNum, childPageNum uint32) error {
	oldPageNum := parentPageNum
	oldNode, err := t.Pager.GetPage(parentPageNum)
	if err != nil {
		return err
	}
	oldMax, err := MaxKey(t.Pager, oldNode)
	if err != nil {
		return err
	}
	child, err := t.Pager.GetPage(childPageNum)
	if err != nil {
		return err
	}
	childMax, err := MaxKey(t.Pager, child)
	if err != nil {
		return err
	}

	newPageNum, _, err := t.allocatePage()
	if err != nil {
		return err
	}
	splittingRoot := IsRoot(oldNode)

	var parentPage *pager.Page
	if splittingRoot {
		if err := t.createNewRoot(newPageNum); err != nil {
			return err
		}
		parentPage, err = t.Pager.GetPage(RootPage)
		if err != nil {
			return err
		}
		oldPageNum, err = InternalChild(parentPage, 0)
		if err != nil {
			return err
		}
		oldNode, err = t.Pager.GetPage(oldPageNum)
		if err != nil {
			return err
		}
	} else {
		parentPage, err = t.Pager.GetPage(ParentPage(oldNode))
		if err != nil {
			return err
		}
		newNode, err := t.Pager.GetPage(newPageNum)
		if err != nil {
			return err
		}
		InitInternal(newNode)
		SetParentPage(newNode, ParentPage(oldNode))
	}

	// Move the old right child into the new node first; it becomes the
	// new node's own right child by virtue of being the only thing in it.
	curPageNum := InternalRightChild(oldNode)
	curPage, err := t.Pager.GetPage(curPageNum)
	if err != nil {
		return err
	}
	if err := t.internalInsert(newPageNum, curPageNum); err != nil {
		return err
	}
	SetParentPage(curPage, newPageNum)
	SetInternalRightChild(oldNode, InvalidPage)

	for i := InternalMaxCells - 1; i > InternalMaxCells/2; i-- {
		curPageNum, err = InternalChild(oldNode, uint32(i))
		if err != nil {
			return err
		}
		curPage, err = t.Pager.GetPage(curPageNum)
		if err != nil {
			return err
		}
		if err := t.internalInsert(newPageNum, curPageNum); err != nil {
			return err
		}
		SetParentPage(curPage, newPageNum)
		SetInternalNumKeys(oldNode, InternalNumKeys(oldNode)-1)
	}

	// The child just before the promoted middle key is now the highest
	// key left in old_node: promote it to old_node's own right child.
	numKeys := InternalNumKeys(oldNode)
	lastChild, err := InternalChild(oldNode, numKeys-1)
	if err != nil {
		return err
	}
	SetInternalRightChild(oldNode, lastChild)
	SetInternalNumKeys(oldNode, numKeys-1)

	maxAfterSplit, err := MaxKey(t.Pager, oldNode)
	if err != nil {
		return err
	}
	destPageNum := newPageNum
	if childMax < maxAfterSplit {
		destPageNum = oldPageNum
	}
	if err := t.internalInsert(destPageNum, childPageNum); err != nil {
		return err
	}
	SetParentPage(child, destPageNum)

	newOldMax, err := MaxKey(t.Pager, oldNode)
	if err != nil {
		return err
	}
	t.updateInternalNodeKey(parentPage, oldMax, newOldMax)

	if !splittingRoot {
		if err := t.internalInsert(ParentPage(oldNode), newPageNum); err != nil {
			return err
		}
	}
	return nil
}
