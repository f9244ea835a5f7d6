// Package schema models a database snapshot built from inference results
// and renders it for the schema command.
package schema

import (
	"strings"

	"github.com/pgbind/pgbind/pkg/sqltype"
)

type ColumnSchema struct {
	Name     string
	DataType sqltype.SqlType
	Nullable bool
}

type TableSchema struct {
	Name    string
	Columns []ColumnSchema
}

type DbSchema struct {
	Tables []TableSchema
}

// String renders each table as two aligned rows: column names (nullable
// marked with a trailing ?) over type names.
func (db DbSchema) String() string {
	var out strings.Builder
	for _, table := range db.Tables {
		out.WriteString(table.Name)
		out.WriteByte('\n')

		names := make([]string, len(table.Columns))
		types := make([]string, len(table.Columns))
		for i, column := range table.Columns {
			names[i] = column.Name
			if column.Nullable {
				names[i] += "?"
			}
			types[i] = column.DataType.String()
		}
		widths := make([]int, len(names))
		for i := range names {
			widths[i] = max(len(names[i]), len(types[i]))
		}
		writeRow(&out, names, widths)
		writeRow(&out, types, widths)
		out.WriteByte('\n')
	}
	return out.String()
}

func writeRow(out *strings.Builder, cells []string, widths []int) {
	for i, cell := range cells {
		if i > 0 {
			out.WriteString("  |  ")
		}
		out.WriteString(cell)
		out.WriteString(strings.Repeat(" ", widths[i]-len(cell)))
	}
	out.WriteByte('\n')
}
