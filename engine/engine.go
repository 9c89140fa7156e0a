// Package engine is the façade over the pager and the B+ tree: open a
// database file, insert rows, scan them back in key order, and print
// debug views of the tree's shape, then close cleanly.
package engine

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"b3db/btree"
	"b3db/pager"
	"b3db/row"
)

// Engine owns one open database file.
type Engine struct {
	pager *pager.Pager
	tree  *btree.Tree
	log   *logrus.Entry
}

// Open opens path on fs (afero.NewOsFs() in production, an in-memory fs in
// tests), initializing an empty leaf root if the file is new.
func Open(fs afero.Fs, path string) (*Engine, error) {
	log := logrus.WithField("component", "engine").WithField("path", path)

	p, err := pager.Open(fs, path)
	if err != nil {
		return nil, err
	}
	t, err := btree.Open(p)
	if err != nil {
		return nil, err
	}
	log.Debug("engine opened")
	return &Engine{pager: p, tree: t, log: log}, nil
}

// Insert adds r to the table, keyed by r.ID.
func (e *Engine) Insert(r row.Row) error {
	return e.tree.Insert(r)
}

// SelectAll returns every row in ascending key order.
func (e *Engine) SelectAll() ([]row.Row, error) {
	c, err := e.tree.Start()
	if err != nil {
		return nil, err
	}
	var rows []row.Row
	for !c.EndOfTable {
		r, err := c.Value()
		if err != nil {
			return nil, err
		}
		rows = append(rows, r)
		if err := c.Advance(); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

// Close flushes every resident page and closes the underlying file.
func (e *Engine) Close() error {
	e.log.Debug("engine closing")
	return e.pager.Close()
}

// DebugPrintConstants writes the six sizing numbers the original tutorial
// reports via `.constants`, in its exact order.
func DebugPrintConstants(w io.Writer) {
	fmt.Fprintf(w, "ROW_SIZE: %d\n", row.Size)
	fmt.Fprintf(w, "COMMON_NODE_HEADER_SIZE: %d\n", btree.CommonHeaderSize)
	fmt.Fprintf(w, "LEAF_NODE_HEADER_SIZE: %d\n", btree.LeafHeaderSize)
	fmt.Fprintf(w, "LEAF_NODE_CELL_SIZE: %d\n", btree.LeafCellSize())
	fmt.Fprintf(w, "LEAF_NODE_SPACE_FOR_CELLS: %d\n", btree.LeafSpaceForCells())
	fmt.Fprintf(w, "LEAF_NODE_MAX_CELLS: %d\n", btree.LeafMaxCells())
}

// DebugPrintTree pretty-prints the whole tree from the root page, recursing
// depth-first with one extra indent level per child. Internal keys print
// after the child subtree they separate, matching the reference printer's
// traversal order.
func (e *Engine) DebugPrintTree(w io.Writer) error {
	return e.printTree(w, btree.RootPage, 0)
}

func (e *Engine) printTree(w io.Writer, pageNum uint32, indent int) error {
	page, err := e.pager.GetPage(pageNum)
	if err != nil {
		return err
	}
	pad := strings.Repeat("  ", indent)

	if btree.NodeType(page) == btree.NodeTypeLeaf {
		n := btree.LeafNumCells(page)
		fmt.Fprintf(w, "%s- leaf (size %d)\n", pad, n)
		for i := uint32(0); i < n; i++ {
			fmt.Fprintf(w, "%s  - %d\n", pad, btree.LeafKey(page, i))
		}
		return nil
	}

	numKeys := btree.InternalNumKeys(page)
	fmt.Fprintf(w, "%s- internal (size %d)\n", pad, numKeys)
	for i := uint32(0); i < numKeys; i++ {
		child, err := btree.InternalChild(page, i)
		if err != nil {
			return err
		}
		if err := e.printTree(w, child, indent+1); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s- key %d\n", pad, btree.InternalKey(page, i))
	}
	rightChild, err := btree.InternalChild(page, numKeys)
	if err != nil {
		return err
	}
	return e.printTree(w, rightChild, indent+1)
}
