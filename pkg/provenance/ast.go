package provenance

import (
	"fmt"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// ParseError wraps a rejection from the PostgreSQL parser.
type ParseError struct {
	Inner error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse error: %v", e.Inner) }
func (e *ParseError) Unwrap() error { return e.Inner }

// UnsupportedStatementError marks a statement shape the resolver does not
// handle (set operations, VALUES lists, DDL, ...).
type UnsupportedStatementError struct {
	Statement string
}

func (e *UnsupportedStatementError) Error() string {
	return fmt.Sprintf("unrecognized statement: %s", e.Statement)
}

// UnsupportedQueryElementError marks a recognized query element that is out
// of scope, such as WITH.
type UnsupportedQueryElementError struct {
	Name string
}

func (e *UnsupportedQueryElementError) Error() string {
	return fmt.Sprintf("%s is not supported for queries", e.Name)
}

// UnsupportedTableTypeError marks a table factor the analysis commands
// cannot describe (subselects, table functions, ...).
type UnsupportedTableTypeError struct {
	Msg string
}

func (e *UnsupportedTableTypeError) Error() string {
	return fmt.Sprintf("unsupported table type: %s", e.Msg)
}

// ToAST parses SQL text into statement trees. Pure; no database contact.
func ToAST(query string) ([]*pg_query.RawStmt, error) {
	result, err := pg_query.Parse(query)
	if err != nil {
		return nil, &ParseError{Inner: err}
	}
	return result.GetStmts(), nil
}
