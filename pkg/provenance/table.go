package provenance

import "fmt"

// Table is a provenance tree over one FROM-clause item.
type Table interface {
	// FindColumn resolves an unqualified identifier against the tree.
	FindColumn(ident string) Column
	// FindTableColumn resolves a table-qualified identifier, returning
	// false when no branch carries the qualifier.
	FindTableColumn(table, ident string) (Column, bool)
	String() string

	isTable()
}

// DbTable is a physical table reference.
type DbTable struct {
	Name string
}

// AliasTable renames its source. The alias is transparent for unqualified
// lookups; qualified lookups match the alias name, not the source.
type AliasTable struct {
	Name   string
	Source Table
}

// JoinTable combines two trees. The nullable flags record which side the
// join may null-extend.
type JoinTable struct {
	LeftNullable  bool
	Left          Table
	RightNullable bool
	Right         Table
}

// UnknownTable preserves an unrecognized table factor textually.
type UnknownTable struct {
	SQL string
}

func (DbTable) isTable()      {}
func (AliasTable) isTable()   {}
func (JoinTable) isTable()    {}
func (UnknownTable) isTable() {}

func (t DbTable) FindColumn(ident string) Column {
	return DependsOn{Table: t.Name, Column: ident}
}

func (t AliasTable) FindColumn(ident string) Column {
	return t.Source.FindColumn(ident)
}

func (t JoinTable) FindColumn(ident string) Column {
	left := maybe(t.Left.FindColumn(ident), t.LeftNullable)
	right := maybe(t.Right.FindColumn(ident), t.RightNullable)
	return Either{Left: left, Right: right}
}

func (t UnknownTable) FindColumn(string) Column {
	return UnknownColumn{SQL: t.SQL}
}

func (t DbTable) FindTableColumn(table, ident string) (Column, bool) {
	if t.Name != table {
		return nil, false
	}
	return DependsOn{Table: table, Column: ident}, true
}

func (t AliasTable) FindTableColumn(table, ident string) (Column, bool) {
	if t.Name != table {
		return nil, false
	}
	return t.Source.FindColumn(ident), true
}

func (t JoinTable) FindTableColumn(table, ident string) (Column, bool) {
	left, leftOk := t.Left.FindTableColumn(table, ident)
	right, rightOk := t.Right.FindTableColumn(table, ident)
	if leftOk {
		left = maybe(left, t.LeftNullable)
	}
	if rightOk {
		right = maybe(right, t.RightNullable)
	}
	switch {
	case leftOk && rightOk:
		return Either{Left: left, Right: right}, true
	case leftOk:
		return left, true
	case rightOk:
		return right, true
	}
	return nil, false
}

func (t UnknownTable) FindTableColumn(string, string) (Column, bool) {
	return nil, false
}

func (t DbTable) String() string { return t.Name }

func (t AliasTable) String() string {
	return fmt.Sprintf("%s as %s", t.Source, t.Name)
}

func (t JoinTable) String() string {
	side := func(table Table, nullable bool) string {
		if nullable {
			return fmt.Sprintf("maybe(%s)", table)
		}
		return table.String()
	}
	return fmt.Sprintf("join(%s, %s)", side(t.Left, t.LeftNullable), side(t.Right, t.RightNullable))
}

func (t UnknownTable) String() string { return fmt.Sprintf("unknown(%s)", t.SQL) }
