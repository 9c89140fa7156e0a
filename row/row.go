// Package row holds the engine's single row type and its fixed on-disk
// serialization: id (uint32), username (<=32 bytes), email (<=255 bytes).
package row

import (
	"encoding/binary"
	"strings"

	"github.com/pkg/errors"

	"b3db/column"
)

// Size is the fixed on-disk size of a serialized row: 4 + 32 + 255.
var Size = column.RowSize()

// Row is one record: the primary key plus the two bounded text columns.
type Row struct {
	ID       uint32
	Username string
	Email    string
}

// Validate checks the two bounded text columns against their maximum
// lengths. It does not check ID, since the on-the-wire type (uint32) can't
// represent a negative id — negative-id rejection happens in the parser,
// which works from the textual input before it is ever turned into a Row.
func (r Row) Validate() error {
	if len(r.Username) > column.UsernameMaxLen {
		return errors.Errorf("username %d bytes exceeds max %d", len(r.Username), column.UsernameMaxLen)
	}
	if len(r.Email) > column.EmailMaxLen {
		return errors.Errorf("email %d bytes exceeds max %d", len(r.Email), column.EmailMaxLen)
	}
	return nil
}

// Serialize writes r into dst, which must be exactly Size bytes.
func Serialize(r Row, dst []byte) error {
	if uint32(len(dst)) != Size {
		return errors.Errorf("row.Serialize: dst length %d, want %d", len(dst), Size)
	}
	for i := range dst {
		dst[i] = 0
	}
	for _, f := range column.Schema {
		switch f.Name {
		case "id":
			binary.LittleEndian.PutUint32(dst[f.Offset:f.Offset+4], r.ID)
		case "username":
			putText(dst[f.Offset:f.Offset+f.Size], r.Username)
		case "email":
			putText(dst[f.Offset:f.Offset+f.Size], r.Email)
		}
	}
	return nil
}

// Deserialize reads a Row back out of src, which must be exactly Size
// bytes, as produced by Serialize.
func Deserialize(src []byte) (Row, error) {
	if uint32(len(src)) != Size {
		return Row{}, errors.Errorf("row.Deserialize: src length %d, want %d", len(src), Size)
	}
	var r Row
	for _, f := range column.Schema {
		switch f.Name {
		case "id":
			r.ID = binary.LittleEndian.Uint32(src[f.Offset : f.Offset+4])
		case "username":
			r.Username = getText(src[f.Offset : f.Offset+f.Size])
		case "email":
			r.Email = getText(src[f.Offset : f.Offset+f.Size])
		}
	}
	return r, nil
}

// putText copies s into dst, truncating if necessary, leaving the
// remainder zeroed so the field reads back as a NUL-terminated string.
func putText(dst []byte, s string) {
	n := copy(dst, s)
	for i := n; i < len(dst); i++ {
		dst[i] = 0
	}
}

// getText trims trailing NUL padding to recover the original string.
func getText(src []byte) string {
	return strings.TrimRight(string(src), "\x00")
}
