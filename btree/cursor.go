package btree

import "b3db/row"

// Cursor addresses a single cell within a leaf, with enough state to walk
// forward across leaf boundaries in key order.
type Cursor struct {
	tree *Tree

	Page uint32
	Cell uint32

	// EndOfTable is true once the cursor has walked past the last row.
	EndOfTable bool
}

// Value deserializes the row at the cursor's current position.
func (c *Cursor) Value() (row.Row, error) {
	page, err := c.tree.Pager.GetPage(c.Page)
	if err != nil {
		return row.Row{}, err
	}
	return row.Deserialize(LeafValue(page, c.Cell))
}

// Advance moves the cursor to the next cell in key order, following
// next_leaf across page boundaries and setting EndOfTable once the
// rightmost leaf is exhausted.
func (c *Cursor) Advance() error {
	page, err := c.tree.Pager.GetPage(c.Page)
	if err != nil {
		return err
	}
	c.Cell++
	if c.Cell >= LeafNumCells(page) {
		next := LeafNextLeaf(page)
		if next == NoNextLeaf {
			c.EndOfTable = true
		} else {
			c.Page = next
			c.Cell = 0
		}
	}
	return nil
}
