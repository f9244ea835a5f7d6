// Package provenance builds algebraic descriptions of where a query's
// projected columns come from: physical table columns combined through joins,
// casts, operators and literal values.
package provenance

import (
	"fmt"

	"github.com/pgbind/pgbind/pkg/sqltype"
)

// Column is a provenance expression. Values are immutable once built; both
// sides of an Either may share the same underlying table tree.
type Column interface {
	// Equal is structural equality. Either is commutative: equality holds
	// under either ordering of its children.
	Equal(Column) bool
	String() string

	isColumn()
}

// DependsOn is a projection resolved to a single physical column. It is a
// comparable struct so it can key catalog lookups directly.
type DependsOn struct {
	Table  string
	Column string
}

// Maybe marks a column as potentially null-extended by an outer or cross
// join.
type Maybe struct {
	Inner Column
}

// Either records that the projection could originate from more than one
// candidate.
type Either struct {
	Left  Column
	Right Column
}

// Cast is an explicit CAST(...) or :: expression.
type Cast struct {
	Source   Column
	DataType string
}

// BinaryExpr is a binary expression with operator metadata.
type BinaryExpr struct {
	Op    BinaryOpData
	Left  Column
	Right Column
}

// ValueKind classifies literal values.
type ValueKind int

const (
	ValueBoolean ValueKind = iota
	ValueInt
	ValueFloat
	ValueString
	ValueNull
)

// Value is a literal in the projection.
type Value struct {
	Kind ValueKind
}

// UnknownColumn preserves an unsupported expression shape textually.
type UnknownColumn struct {
	SQL string
}

func (DependsOn) isColumn()     {}
func (Maybe) isColumn()         {}
func (Either) isColumn()        {}
func (Cast) isColumn()          {}
func (BinaryExpr) isColumn()    {}
func (Value) isColumn()         {}
func (UnknownColumn) isColumn() {}

func (c DependsOn) Equal(other Column) bool {
	o, ok := other.(DependsOn)
	return ok && c == o
}

func (c Maybe) Equal(other Column) bool {
	o, ok := other.(Maybe)
	return ok && c.Inner.Equal(o.Inner)
}

func (c Either) Equal(other Column) bool {
	o, ok := other.(Either)
	if !ok {
		return false
	}
	if c.Left.Equal(o.Left) && c.Right.Equal(o.Right) {
		return true
	}
	return c.Left.Equal(o.Right) && c.Right.Equal(o.Left)
}

func (c Cast) Equal(other Column) bool {
	o, ok := other.(Cast)
	return ok && c.DataType == o.DataType && c.Source.Equal(o.Source)
}

func (c BinaryExpr) Equal(other Column) bool {
	o, ok := other.(BinaryExpr)
	return ok && c.Op.Op == o.Op.Op && c.Left.Equal(o.Left) && c.Right.Equal(o.Right)
}

func (c Value) Equal(other Column) bool {
	o, ok := other.(Value)
	return ok && c == o
}

func (c UnknownColumn) Equal(other Column) bool {
	o, ok := other.(UnknownColumn)
	return ok && c == o
}

func (c DependsOn) String() string { return fmt.Sprintf("%s.%s", c.Table, c.Column) }
func (c Maybe) String() string     { return fmt.Sprintf("maybe(%s)", c.Inner) }
func (c Either) String() string    { return fmt.Sprintf("either(%s, %s)", c.Left, c.Right) }
func (c Cast) String() string      { return fmt.Sprintf("cast(%s as %s)", c.Source, c.DataType) }

func (c BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", c.Left, c.Op.Op, c.Right)
}

func (c Value) String() string {
	switch c.Kind {
	case ValueBoolean:
		return "value(bool)"
	case ValueInt:
		return "value(int)"
	case ValueFloat:
		return "value(float)"
	case ValueString:
		return "value(string)"
	}
	return "value(null)"
}

func (c UnknownColumn) String() string { return fmt.Sprintf("unknown(%s)", c.SQL) }

// maybe wraps col when nullable is set; the identity otherwise.
func maybe(col Column, nullable bool) Column {
	if nullable {
		return Maybe{Inner: col}
	}
	return col
}

// OpClass groups binary operators by how their result type is determined.
type OpClass int

const (
	OpUnknown OpClass = iota
	// OpNumeric covers arithmetic; the result takes the higher-ranked
	// operand type.
	OpNumeric
	// OpConcat is ||.
	OpConcat
	// OpConstantType covers comparisons and logical operators, which
	// always produce a known type.
	OpConstantType
)

// BinaryOpData carries the operator text and its classification.
type BinaryOpData struct {
	Op       string
	Class    OpClass
	Constant sqltype.SqlType
}

// ClassifyOperator maps an operator name onto its class.
func ClassifyOperator(op string) BinaryOpData {
	switch op {
	case "+", "-", "*", "/", "%", "^":
		return BinaryOpData{Op: op, Class: OpNumeric}
	case "||":
		return BinaryOpData{Op: op, Class: OpConcat}
	case "=", "<>", "!=", "<", ">", "<=", ">=", "AND", "OR":
		return BinaryOpData{Op: op, Class: OpConstantType, Constant: sqltype.Bool()}
	}
	return BinaryOpData{Op: op, Class: OpUnknown}
}

// TryConstant returns the fixed result type for operators that have one.
func (d BinaryOpData) TryConstant() (sqltype.SqlType, bool) {
	if d.Class == OpConstantType {
		return d.Constant, true
	}
	return sqltype.SqlType{}, false
}

// TryFromOperands derives the result type from the operand types: the higher
// numeric rank for arithmetic, Text for || when either operand is text.
func (d BinaryOpData) TryFromOperands(left, right sqltype.SqlType) (sqltype.SqlType, bool) {
	switch d.Class {
	case OpConstantType:
		return d.Constant, true
	case OpNumeric:
		leftRank, leftOk := left.NumericRank()
		rightRank, rightOk := right.NumericRank()
		if !leftOk || !rightOk {
			return sqltype.SqlType{}, false
		}
		if leftRank >= rightRank {
			return left, true
		}
		return right, true
	case OpConcat:
		if left.IsText() || right.IsText() {
			return sqltype.Text(), true
		}
	}
	return sqltype.SqlType{}, false
}

// NotNull reports whether the operator's result is known to be non-null. The
// second return is false when the operator gives no guarantee either way.
func (d BinaryOpData) NotNull() (bool, bool) {
	if d.Class == OpConstantType {
		return true, true
	}
	return false, false
}
