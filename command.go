package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"

	"b3db/btree"
	"b3db/engine"
	"b3db/row"
)

// MetaCommandResult is the outcome of dispatching a `.`-prefixed line.
type MetaCommandResult int

const (
	MetaCommandSuccess MetaCommandResult = iota
	MetaCommandExit
	MetaCommandUnrecognizedCommand
)

// doMetaCommand dispatches a `.`-prefixed line. It never itself exits the
// process; the caller acts on MetaCommandExit.
func doMetaCommand(e *engine.Engine, input string) MetaCommandResult {
	switch input {
	case ".exit":
		return MetaCommandExit
	case ".constants":
		printConstants()
		return MetaCommandSuccess
	case ".btree":
		if err := e.DebugPrintTree(os.Stdout); err != nil {
			fmt.Println("Error:", err)
		}
		return MetaCommandSuccess
	default:
		fmt.Printf("Unrecognized command '%s'\n", input)
		return MetaCommandUnrecognizedCommand
	}
}

// printConstants renders the six sizing constants `.constants` reports, as
// a table rather than the bare numeric lines the core façade emits.
func printConstants() {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"constant", "value"})
	table.Append([]string{"ROW_SIZE", fmt.Sprint(row.Size)})
	table.Append([]string{"COMMON_NODE_HEADER_SIZE", fmt.Sprint(btree.CommonHeaderSize)})
	table.Append([]string{"LEAF_NODE_HEADER_SIZE", fmt.Sprint(btree.LeafHeaderSize)})
	table.Append([]string{"LEAF_NODE_CELL_SIZE", fmt.Sprint(btree.LeafCellSize())})
	table.Append([]string{"LEAF_NODE_SPACE_FOR_CELLS", fmt.Sprint(btree.LeafSpaceForCells())})
	table.Append([]string{"LEAF_NODE_MAX_CELLS", fmt.Sprint(btree.LeafMaxCells())})
	table.Render()
}
