package schema

import (
	"fmt"

	"github.com/pgbind/pgbind/pkg/sqltype"
)

// LintError points at a table or a column.
type LintError struct {
	Table  string
	Column string
	Msg    string
}

func (e LintError) String() string {
	if e.Column == "" {
		return fmt.Sprintf("[table] %s: %s", e.Table, e.Msg)
	}
	return fmt.Sprintf("[column] %s.%s: %s", e.Table, e.Column, e.Msg)
}

// Lint inspects a schema snapshot and reports questionable declarations.
type Lint interface {
	Lint(db DbSchema) []LintError
}

// TimestampWithoutTimezone flags timestamp columns that drop the timezone,
// since comparisons against timestamptz silently assume a session zone.
type TimestampWithoutTimezone struct{}

func (TimestampWithoutTimezone) Lint(db DbSchema) []LintError {
	var errors []LintError
	for _, table := range db.Tables {
		for _, column := range table.Columns {
			if column.DataType.Kind != sqltype.KindTimestamp || column.DataType.WithTimezone {
				continue
			}
			errors = append(errors, LintError{
				Table:  table.Name,
				Column: column.Name,
				Msg:    "timestamp has no timezone",
			})
		}
	}
	return errors
}

// TimeWithTimezone flags timetz columns, a type the PostgreSQL documentation
// itself recommends against.
type TimeWithTimezone struct{}

func (TimeWithTimezone) Lint(db DbSchema) []LintError {
	var errors []LintError
	for _, table := range db.Tables {
		for _, column := range table.Columns {
			if column.DataType.Kind != sqltype.KindTime || !column.DataType.WithTimezone {
				continue
			}
			errors = append(errors, LintError{
				Table:  table.Name,
				Column: column.Name,
				Msg:    "time has timezone",
			})
		}
	}
	return errors
}

// TableColumnNameClash flags columns named after their own table; unqualified
// references in queries read ambiguously.
type TableColumnNameClash struct{}

func (TableColumnNameClash) Lint(db DbSchema) []LintError {
	var errors []LintError
	for _, table := range db.Tables {
		for _, column := range table.Columns {
			if column.Name != table.Name {
				continue
			}
			errors = append(errors, LintError{
				Table:  table.Name,
				Column: column.Name,
				Msg:    "column name clashes with its table",
			})
		}
	}
	return errors
}

// All returns the registered lints in reporting order.
func All() []Lint {
	return []Lint{TimeWithTimezone{}, TimestampWithoutTimezone{}, TableColumnNameClash{}}
}
