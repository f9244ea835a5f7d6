package infer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pgbind/pgbind/pkg/provenance"
	"github.com/pgbind/pgbind/pkg/sqltype"
)

func boolp(v bool) *bool    { return &v }
func int32p(v int32) *int32 { return &v }

func schemaMapOf(entries map[provenance.DependsOn]*InformationSchema) *SchemaMap {
	schemas := &SchemaMap{}
	for column, schema := range entries {
		schemas.put(column, schema)
	}
	return schemas
}

func applyNullability(t *testing.T, source provenance.Column, schemas *SchemaMap) sqltype.Nullability {
	t.Helper()
	item := sqltype.QueryItem{Name: "out", SqlType: sqltype.Text(), Nullable: sqltype.NullableUnknown}
	ColumnNullability{}.Apply(schemas, source, &item)
	return item.Nullable
}

func TestNullabilityDependsOn(t *testing.T) {
	col := provenance.DependsOn{Table: "users", Column: "name"}

	notNull := schemaMapOf(map[provenance.DependsOn]*InformationSchema{
		col: {IsNullable: boolp(false)},
	})
	assert.Equal(t, sqltype.NullableFalse, applyNullability(t, col, notNull))

	nullable := schemaMapOf(map[provenance.DependsOn]*InformationSchema{
		col: {IsNullable: boolp(true)},
	})
	assert.Equal(t, sqltype.NullableTrue, applyNullability(t, col, nullable))

	assert.Equal(t, sqltype.NullableUnknown, applyNullability(t, col, &SchemaMap{}))
}

func TestNullabilityMaybe(t *testing.T) {
	col := provenance.DependsOn{Table: "b", Column: "x"}
	schemas := schemaMapOf(map[provenance.DependsOn]*InformationSchema{
		col: {IsNullable: boolp(false)},
	})
	// Null extension wins even over a NOT NULL base column.
	assert.Equal(t, sqltype.NullableTrue, applyNullability(t, provenance.Maybe{Inner: col}, schemas))
}

func TestNullabilityEither(t *testing.T) {
	left := provenance.DependsOn{Table: "a", Column: "c"}
	right := provenance.DependsOn{Table: "b", Column: "c"}
	either := provenance.Either{Left: left, Right: right}

	schemas := schemaMapOf(map[provenance.DependsOn]*InformationSchema{
		left:  {IsNullable: boolp(true)},
		right: {IsNullable: boolp(false)},
	})
	assert.Equal(t, sqltype.NullableTrue, applyNullability(t, either, schemas))

	schemas = schemaMapOf(map[provenance.DependsOn]*InformationSchema{
		left:  {IsNullable: boolp(false)},
		right: {IsNullable: boolp(false)},
	})
	assert.Equal(t, sqltype.NullableFalse, applyNullability(t, either, schemas))

	schemas = schemaMapOf(map[provenance.DependsOn]*InformationSchema{
		right: {IsNullable: boolp(false)},
	})
	assert.Equal(t, sqltype.NullableUnknown, applyNullability(t, either, schemas))
}

func TestNullabilityCastPassesThrough(t *testing.T) {
	col := provenance.DependsOn{Table: "items", Column: "price"}
	cast := provenance.Cast{Source: col, DataType: "numeric(10,2)"}
	schemas := schemaMapOf(map[provenance.DependsOn]*InformationSchema{
		col: {IsNullable: boolp(false)},
	})
	assert.Equal(t, sqltype.NullableFalse, applyNullability(t, cast, schemas))
}

func TestNullabilityValues(t *testing.T) {
	assert.Equal(t, sqltype.NullableTrue, applyNullability(t, provenance.Value{Kind: provenance.ValueNull}, &SchemaMap{}))
	assert.Equal(t, sqltype.NullableFalse, applyNullability(t, provenance.Value{Kind: provenance.ValueInt}, &SchemaMap{}))
	assert.Equal(t, sqltype.NullableFalse, applyNullability(t, provenance.Value{Kind: provenance.ValueString}, &SchemaMap{}))
}

func TestNullabilityComparisonIsNotNull(t *testing.T) {
	left := provenance.DependsOn{Table: "t", Column: "a"}
	right := provenance.DependsOn{Table: "t", Column: "b"}
	expr := provenance.BinaryExpr{Op: provenance.ClassifyOperator("="), Left: left, Right: right}
	assert.Equal(t, sqltype.NullableFalse, applyNullability(t, expr, &SchemaMap{}))
}

func TestNullabilityArithmeticFoldsOperands(t *testing.T) {
	left := provenance.DependsOn{Table: "t", Column: "a"}
	right := provenance.DependsOn{Table: "t", Column: "b"}
	expr := provenance.BinaryExpr{Op: provenance.ClassifyOperator("+"), Left: left, Right: right}

	schemas := schemaMapOf(map[provenance.DependsOn]*InformationSchema{
		left:  {IsNullable: boolp(false)},
		right: {IsNullable: boolp(true)},
	})
	assert.Equal(t, sqltype.NullableTrue, applyNullability(t, expr, schemas))

	schemas = schemaMapOf(map[provenance.DependsOn]*InformationSchema{
		left:  {IsNullable: boolp(false)},
		right: {IsNullable: boolp(false)},
	})
	assert.Equal(t, sqltype.NullableFalse, applyNullability(t, expr, schemas))
}

func TestNullabilityUnknownColumn(t *testing.T) {
	source := provenance.UnknownColumn{SQL: "upper(name)"}
	assert.Equal(t, sqltype.NullableUnknown, applyNullability(t, source, &SchemaMap{}))
}
