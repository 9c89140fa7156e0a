package main

import (
	"strconv"
	"strings"

	"b3db/column"
	"b3db/row"
)

// StatementType distinguishes the two statements the REPL understands.
type StatementType int

const (
	StatementInsert StatementType = iota
	StatementSelect
)

// PrepareResult is the outcome of parsing one input line into a Statement.
type PrepareResult int

const (
	PrepareSuccess PrepareResult = iota
	PrepareNegativeID
	PrepareStringTooLong
	PrepareSyntaxError
	PrepareUnrecognizedStatement
)

// Statement is a parsed, not-yet-executed command.
type Statement struct {
	Type        StatementType
	RowToInsert row.Row
}

// prepareStatement tokenizes input the way the original parser's
// strtok(buf, " ") did: whitespace-separated fields, "insert" expecting
// exactly three more fields (id, username, email).
func prepareStatement(input string) (*Statement, PrepareResult) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return nil, PrepareUnrecognizedStatement
	}

	switch fields[0] {
	case "insert":
		return prepareInsert(fields)
	case "select":
		return &Statement{Type: StatementSelect}, PrepareSuccess
	default:
		return nil, PrepareUnrecognizedStatement
	}
}

func prepareInsert(fields []string) (*Statement, PrepareResult) {
	if len(fields) != 4 {
		return nil, PrepareSyntaxError
	}

	id, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, PrepareSyntaxError
	}
	if id < 0 {
		return nil, PrepareNegativeID
	}

	username, email := fields[2], fields[3]
	if len(username) > column.UsernameMaxLen || len(email) > column.EmailMaxLen {
		return nil, PrepareStringTooLong
	}

	return &Statement{
		Type: StatementInsert,
		RowToInsert: row.Row{
			ID:       uint32(id),
			Username: username,
			Email:    email,
		},
	}, PrepareSuccess
}
