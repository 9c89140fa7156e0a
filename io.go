package main

import (
	"github.com/chzyer/readline"
)

// newLineReader sets up the REPL's line editor: history and the literal
// `db > ` prompt.
func newLineReader() (*readline.Instance, error) {
	return readline.New("db > ")
}
