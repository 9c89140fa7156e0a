package main

import (
	"fmt"

	"github.com/pkg/errors"

	"b3db/btree"
	"b3db/engine"
)

// executeStatement runs a parsed Statement against e and prints the user
// feedback the spec mandates: "Executed." on success, "Error: Duplicate
// key." or "Error: Table full." on those specific failures, and select's
// one-row-per-line output.
func executeStatement(e *engine.Engine, stmt *Statement) {
	switch stmt.Type {
	case StatementInsert:
		executeInsert(e, stmt)
	case StatementSelect:
		executeSelect(e)
	}
}

func executeInsert(e *engine.Engine, stmt *Statement) {
	err := e.Insert(stmt.RowToInsert)
	switch {
	case err == nil:
		fmt.Println("Executed.")
	case errors.Is(err, btree.ErrDuplicateKey):
		fmt.Println("Error: Duplicate key.")
	case errors.Is(err, btree.ErrTableFull):
		fmt.Println("Error: Table full.")
	default:
		fmt.Println("Error:", err)
	}
}

func executeSelect(e *engine.Engine) {
	rows, err := e.SelectAll()
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	for _, r := range rows {
		fmt.Printf("(%d, %s, %s)\n", r.ID, r.Username, r.Email)
	}
	fmt.Println("Executed.")
}
