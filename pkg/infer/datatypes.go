package infer

import (
	"github.com/pgbind/pgbind/pkg/provenance"
	"github.com/pgbind/pgbind/pkg/sqltype"
)

// includesCast reports whether the provenance tree contains an explicit cast.
// The second return is false when the tree cannot answer (operators, values,
// unknown shapes), which callers treat as "do not refine".
func includesCast(column provenance.Column) (bool, bool) {
	switch col := column.(type) {
	case provenance.DependsOn:
		return false, true
	case provenance.Maybe:
		return includesCast(col.Inner)
	case provenance.Either:
		left, leftKnown := includesCast(col.Left)
		right, rightKnown := includesCast(col.Right)
		if !leftKnown || !rightKnown {
			return false, false
		}
		return left || right, true
	case provenance.Cast:
		return true, true
	}
	return false, false
}

// castGuard gates the metadata-copying passes: catalog width and precision
// describe the underlying column, which the projection is only known to
// preserve when it casts explicitly.
func castGuard(schemas *SchemaMap, source provenance.Column) (*InformationSchema, bool) {
	schema, ok := schemas.Get(source)
	if !ok || schema == nil {
		return nil, false
	}
	cast, known := includesCast(source)
	if !known || !cast {
		return nil, false
	}
	return schema, true
}

// TextLength copies character_maximum_length onto char/varchar outputs whose
// provenance includes a cast.
type TextLength struct{}

func (TextLength) Apply(schemas *SchemaMap, source provenance.Column, item *sqltype.QueryItem) {
	schema, ok := castGuard(schemas, source)
	if !ok {
		return
	}
	switch item.SqlType.Kind {
	case sqltype.KindChar, sqltype.KindVarChar:
		if schema.CharacterMaximumLength != nil {
			length := *schema.CharacterMaximumLength
			item.SqlType.Length = &length
		}
	}
}

// DecimalPrecision copies numeric precision metadata onto decimal outputs
// whose provenance includes a cast.
type DecimalPrecision struct{}

func (DecimalPrecision) Apply(schemas *SchemaMap, source provenance.Column, item *sqltype.QueryItem) {
	schema, ok := castGuard(schemas, source)
	if !ok {
		return
	}
	if item.SqlType.Kind != sqltype.KindDecimal {
		return
	}
	if schema.NumericPrecision == nil || schema.NumericPrecisionRadix == nil {
		return
	}
	precision := *schema.NumericPrecision
	radix := *schema.NumericPrecisionRadix
	item.SqlType.Precision = &precision
	item.SqlType.PrecisionRadix = &radix
}
