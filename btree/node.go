// Package btree implements the on-disk B+ tree: page layout, the tree
// itself, and cursor-based traversal. This file holds the node codec —
// pure accessors over a page buffer, with no tree-shape logic.
package btree

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"b3db/pager"
)

// NodeType reports whether page holds a leaf or an internal node.
func NodeType(p *pager.Page) uint8 {
	return p.Data[NodeTypeOffset]
}

func setNodeType(p *pager.Page, t uint8) {
	p.Data[NodeTypeOffset] = t
}

// IsRoot reports the page's is_root flag.
func IsRoot(p *pager.Page) bool {
	return p.Data[IsRootOffset] != 0
}

// SetIsRoot sets the page's is_root flag.
func SetIsRoot(p *pager.Page, isRoot bool) {
	if isRoot {
		p.Data[IsRootOffset] = 1
	} else {
		p.Data[IsRootOffset] = 0
	}
}

// ParentPage returns the page number of p's parent. Undefined for the root.
func ParentPage(p *pager.Page) uint32 {
	return binary.LittleEndian.Uint32(p.Data[ParentOffset : ParentOffset+ParentSize])
}

// SetParentPage records p's parent page number.
func SetParentPage(p *pager.Page, parent uint32) {
	binary.LittleEndian.PutUint32(p.Data[ParentOffset:ParentOffset+ParentSize], parent)
}

// InitLeaf resets p to an empty, non-root leaf node.
func InitLeaf(p *pager.Page) {
	setNodeType(p, NodeTypeLeaf)
	SetIsRoot(p, false)
	SetLeafNumCells(p, 0)
	SetLeafNextLeaf(p, NoNextLeaf)
}

// InitInternal resets p to an empty, non-root internal node with no
// right child yet.
func InitInternal(p *pager.Page) {
	setNodeType(p, NodeTypeInternal)
	SetIsRoot(p, false)
	SetInternalNumKeys(p, 0)
	SetInternalRightChild(p, InvalidPage)
}

// --- Leaf node accessors ---

// LeafNumCells returns the number of cells currently stored in the leaf.
func LeafNumCells(p *pager.Page) uint32 {
	return binary.LittleEndian.Uint32(p.Data[LeafNumCellsOffset : LeafNumCellsOffset+LeafNumCellsSize])
}

// SetLeafNumCells sets the leaf's cell count.
func SetLeafNumCells(p *pager.Page, n uint32) {
	binary.LittleEndian.PutUint32(p.Data[LeafNumCellsOffset:LeafNumCellsOffset+LeafNumCellsSize], n)
}

// LeafNextLeaf returns the page number of the next leaf in key order, or
// NoNextLeaf if this is the rightmost leaf.
func LeafNextLeaf(p *pager.Page) uint32 {
	return binary.LittleEndian.Uint32(p.Data[LeafNextLeafOffset : LeafNextLeafOffset+LeafNextLeafSize])
}

// SetLeafNextLeaf records the next leaf in key order.
func SetLeafNextLeaf(p *pager.Page, next uint32) {
	binary.LittleEndian.PutUint32(p.Data[LeafNextLeafOffset:LeafNextLeafOffset+LeafNextLeafSize], next)
}

func leafCellOffset(i uint32) uint32 {
	return LeafHeaderSize + i*LeafCellSize()
}

// LeafKey returns the key stored in cell i.
func LeafKey(p *pager.Page, i uint32) uint32 {
	off := leafCellOffset(i)
	return binary.LittleEndian.Uint32(p.Data[off : off+LeafKeySize])
}

// SetLeafKey sets the key stored in cell i.
func SetLeafKey(p *pager.Page, i uint32, key uint32) {
	off := leafCellOffset(i)
	binary.LittleEndian.PutUint32(p.Data[off:off+LeafKeySize], key)
}

// LeafValue returns a mutable slice over cell i's serialized row value.
func LeafValue(p *pager.Page, i uint32) []byte {
	off := leafCellOffset(i) + LeafKeySize
	return p.Data[off : off+LeafCellSize()-LeafKeySize]
}

// copyLeafCell copies the key+value pair at src into dst within the same
// page buffer (used to shift cells during insert and split).
func copyLeafCell(p *pager.Page, dst, src uint32) {
	dstOff := leafCellOffset(dst)
	srcOff := leafCellOffset(src)
	copy(p.Data[dstOff:dstOff+LeafCellSize()], p.Data[srcOff:srcOff+LeafCellSize()])
}

// --- Internal node accessors ---

// InternalNumKeys returns the number of keys (== number of non-rightmost
// children) in the internal node.
func InternalNumKeys(p *pager.Page) uint32 {
	return binary.LittleEndian.Uint32(p.Data[InternalNumKeysOffset : InternalNumKeysOffset+InternalNumKeysSize])
}

// SetInternalNumKeys sets the internal node's key count.
func SetInternalNumKeys(p *pager.Page, n uint32) {
	binary.LittleEndian.PutUint32(p.Data[InternalNumKeysOffset:InternalNumKeysOffset+InternalNumKeysSize], n)
}

// InternalRightChild returns the page of the rightmost subtree, or
// InvalidPage if the node is empty.
func InternalRightChild(p *pager.Page) uint32 {
	return binary.LittleEndian.Uint32(p.Data[InternalRightChildOffset : InternalRightChildOffset+InternalRightChildSize])
}

// SetInternalRightChild sets the page of the rightmost subtree.
func SetInternalRightChild(p *pager.Page, child uint32) {
	binary.LittleEndian.PutUint32(p.Data[InternalRightChildOffset:InternalRightChildOffset+InternalRightChildSize], child)
}

func internalCellOffset(i uint32) uint32 {
	return InternalHeaderSize + i*InternalCellSize
}

// InternalCellChild returns the child page stored in cell i (not
// right_child). Use InternalChild for the full [0, numKeys] addressing
// that folds in right_child at index numKeys.
func InternalCellChild(p *pager.Page, i uint32) uint32 {
	off := internalCellOffset(i)
	return binary.LittleEndian.Uint32(p.Data[off : off+InternalChildSize])
}

// SetInternalCellChild sets the child page stored in cell i.
func SetInternalCellChild(p *pager.Page, i uint32, child uint32) {
	off := internalCellOffset(i)
	binary.LittleEndian.PutUint32(p.Data[off:off+InternalChildSize], child)
}

// InternalKey returns the separator key stored in cell i.
func InternalKey(p *pager.Page, i uint32) uint32 {
	off := internalCellOffset(i) + InternalChildSize
	return binary.LittleEndian.Uint32(p.Data[off : off+InternalKeySize])
}

// SetInternalKey sets the separator key stored in cell i.
func SetInternalKey(p *pager.Page, i uint32, key uint32) {
	off := internalCellOffset(i) + InternalChildSize
	binary.LittleEndian.PutUint32(p.Data[off:off+InternalKeySize], key)
}

func copyInternalCell(p *pager.Page, dst, src uint32) {
	dstOff := internalCellOffset(dst)
	srcOff := internalCellOffset(src)
	copy(p.Data[dstOff:dstOff+InternalCellSize], p.Data[srcOff:srcOff+InternalCellSize])
}

// InternalChild returns the page number of child childNum, where
// childNum == numKeys addresses right_child. Returns ErrCorrupt if the
// slot holds InvalidPage, since a live child was expected there.
func InternalChild(p *pager.Page, childNum uint32) (uint32, error) {
	numKeys := InternalNumKeys(p)
	if childNum > numKeys {
		return 0, errors.Wrapf(ErrCorrupt, "child %d > numKeys %d", childNum, numKeys)
	}
	if childNum == numKeys {
		child := InternalRightChild(p)
		if child == InvalidPage {
			return 0, errors.Wrap(ErrCorrupt, "right child is invalid")
		}
		return child, nil
	}
	child := InternalCellChild(p, childNum)
	if child == InvalidPage {
		return 0, errors.Wrapf(ErrCorrupt, "child %d is invalid", childNum)
	}
	return child, nil
}

// MaxKey returns the largest key stored in the subtree rooted at page.
// For a leaf it's the last cell's key; for an internal node it recurses
// down the rightmost spine.
func MaxKey(pg *pager.Pager, page *pager.Page) (uint32, error) {
	if NodeType(page) == NodeTypeLeaf {
		n := LeafNumCells(page)
		if n == 0 {
			return 0, errors.Wrap(ErrCorrupt, "max key of empty leaf")
		}
		return LeafKey(page, n-1), nil
	}
	rightChildNum := InternalRightChild(page)
	if rightChildNum == InvalidPage {
		return 0, errors.Wrap(ErrCorrupt, "max key of internal node with no right child")
	}
	rightChild, err := pg.GetPage(rightChildNum)
	if err != nil {
		return 0, err
	}
	return MaxKey(pg, rightChild)
}
