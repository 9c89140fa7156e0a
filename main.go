// Command b3db is a line-oriented REPL over the B+ tree engine: meta
// commands (.exit, .constants, .btree) and the insert/select statements.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"b3db/engine"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Must supply a database filename.")
		os.Exit(1)
	}
	dbPath := os.Args[1]

	e, err := engine.Open(afero.NewOsFs(), dbPath)
	if err != nil {
		logrus.WithError(err).Fatal("open database file")
	}

	rl, err := newLineReader()
	if err != nil {
		logrus.WithError(err).Fatal("start line reader")
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			// EOF or any other input failure: no flush, matching a caller
			// who wants durability must use .exit instead.
			fmt.Fprintln(os.Stderr, "Error reading input")
			os.Exit(1)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			switch doMetaCommand(e, line) {
			case MetaCommandExit:
				if err := e.Close(); err != nil {
					logrus.WithError(err).Fatal("close database file")
				}
				os.Exit(0)
			case MetaCommandUnrecognizedCommand, MetaCommandSuccess:
				continue
			}
			continue
		}

		stmt, result := prepareStatement(line)
		switch result {
		case PrepareSuccess:
			executeStatement(e, stmt)
		case PrepareNegativeID:
			fmt.Println("ID must be positive.")
		case PrepareStringTooLong:
			fmt.Println("String is too long.")
		case PrepareSyntaxError:
			fmt.Println("Syntax error. Could not parse statement.")
		case PrepareUnrecognizedStatement:
			fmt.Printf("Unrecognized keyword at start of '%s'.\n", line)
		}
	}
}
