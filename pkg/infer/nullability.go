package infer

import (
	"github.com/pgbind/pgbind/pkg/provenance"
	"github.com/pgbind/pgbind/pkg/sqltype"
)

// Pass refines one inferred output item using the catalog records collected
// for its provenance expression. Passes are stateless; the driver invokes
// them in registration order.
type Pass interface {
	Apply(schemas *SchemaMap, source provenance.Column, item *sqltype.QueryItem)
}

// ColumnNullability derives nullability as a fold over the provenance
// expression.
type ColumnNullability struct{}

func (ColumnNullability) Apply(schemas *SchemaMap, source provenance.Column, item *sqltype.QueryItem) {
	item.Nullable = columnIsNullable(source, schemas)
}

// NullabilityOf folds a provenance expression against collected catalog
// records without going through a QueryItem.
func NullabilityOf(source provenance.Column, schemas *SchemaMap) sqltype.Nullability {
	return columnIsNullable(source, schemas)
}

func columnIsNullable(column provenance.Column, schemas *SchemaMap) sqltype.Nullability {
	switch col := column.(type) {
	case provenance.DependsOn:
		schema, ok := schemas.Get(col)
		if !ok || schema == nil || schema.IsNullable == nil {
			return sqltype.NullableUnknown
		}
		if *schema.IsNullable {
			return sqltype.NullableTrue
		}
		return sqltype.NullableFalse

	case provenance.Maybe:
		// A null-extended side is nullable regardless of its base column.
		return sqltype.NullableTrue

	case provenance.Either:
		return eitherNullable(col.Left, col.Right, schemas)

	case provenance.Cast:
		return columnIsNullable(col.Source, schemas)

	case provenance.BinaryExpr:
		if notNull, known := col.Op.NotNull(); known && notNull {
			return sqltype.NullableFalse
		}
		return eitherNullable(col.Left, col.Right, schemas)

	case provenance.Value:
		if col.Kind == provenance.ValueNull {
			return sqltype.NullableTrue
		}
		return sqltype.NullableFalse
	}
	return sqltype.NullableUnknown
}

func eitherNullable(left, right provenance.Column, schemas *SchemaMap) sqltype.Nullability {
	switch columnIsNullable(left, schemas) {
	case sqltype.NullableTrue:
		return sqltype.NullableTrue
	case sqltype.NullableFalse:
		return columnIsNullable(right, schemas)
	}
	return sqltype.NullableUnknown
}
