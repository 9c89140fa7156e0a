package btree

import "github.com/pkg/errors"

// ErrDuplicateKey is returned by Insert when the key is already present.
var ErrDuplicateKey = errors.New("btree: duplicate key")

// ErrTableFull is returned once the pager's page budget is exhausted.
var ErrTableFull = errors.New("btree: table full")

// ErrCorrupt indicates a structural impossibility: an internal child slot
// equal to InvalidPage where a live child was expected, a child index past
// numKeys, or the max key of an empty leaf. A page's type byte is not
// checked: any value other than NodeTypeLeaf is read as an internal node.
var ErrCorrupt = errors.New("btree: corrupt tree structure")
