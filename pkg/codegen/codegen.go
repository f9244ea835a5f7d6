// Package codegen turns inferred query signatures into client-side
// artifacts: a JSON manifest or SQLAlchemy bindings.
package codegen

import (
	"fmt"

	"github.com/pgbind/pgbind/pkg/sqltype"
)

// QueryDefinition is one emitted query: the raw SQL as written by the user
// plus its inferred inputs (named after the declared placeholders) and
// outputs.
type QueryDefinition struct {
	Query   string              `json:"query"`
	Inputs  []sqltype.QueryItem `json:"inputs"`
	Outputs []sqltype.QueryItem `json:"outputs"`
}

// CodeGen accumulates query definitions under their logical names and
// renders the final artifact.
type CodeGen interface {
	Push(name string, query QueryDefinition) error
	Finalize() (string, error)
}

func duplicateName(name string) error {
	return fmt.Errorf("query %q already pushed", name)
}
