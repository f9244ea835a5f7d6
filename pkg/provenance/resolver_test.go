package provenance

import (
	"testing"

	pg_query "github.com/pganalyze/pg_query_go/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseOne(t *testing.T, sql string) *pg_query.RawStmt {
	t.Helper()
	stmts, err := ToAST(sql)
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	return stmts[0]
}

func findSource(t *testing.T, sql, field string) Column {
	t.Helper()
	fields, err := FindFields(parseOne(t, sql))
	require.NoError(t, err)
	column, ok := fields[field]
	require.True(t, ok, "field %q missing from %v", field, fields)
	return column
}

func TestBasicIdent(t *testing.T) {
	for _, table := range []string{"a", "b", "users"} {
		for _, column := range []string{"a", "b", "c"} {
			source := findSource(t, "select "+column+" from "+table, column)
			assert.True(t, source.Equal(DependsOn{Table: table, Column: column}), "got %s", source)
		}
	}
}

func TestCompoundIdent(t *testing.T) {
	source := findSource(t, "select t.c from t", "c")
	assert.True(t, source.Equal(DependsOn{Table: "t", Column: "c"}))
}

func TestAliasedProjection(t *testing.T) {
	source := findSource(t, "select c as x from t", "x")
	assert.True(t, source.Equal(DependsOn{Table: "t", Column: "c"}))
}

func TestCompoundIdentWithTableAlias(t *testing.T) {
	source := findSource(t, "select u.name from users u", "name")
	assert.True(t, source.Equal(DependsOn{Table: "users", Column: "name"}))
}

func TestJoinProducesEither(t *testing.T) {
	source := findSource(t, "select c from a join b on true", "c")
	want := Either{
		Left:  DependsOn{Table: "a", Column: "c"},
		Right: DependsOn{Table: "b", Column: "c"},
	}
	assert.True(t, source.Equal(want), "got %s", source)

	// Either equality is commutative.
	flipped := Either{Left: want.Right, Right: want.Left}
	assert.True(t, source.Equal(flipped))
}

func TestLeftJoinWrapsRightInMaybe(t *testing.T) {
	source := findSource(t, "select c from a left join b on true", "c")
	want := Either{
		Left:  DependsOn{Table: "a", Column: "c"},
		Right: Maybe{Inner: DependsOn{Table: "b", Column: "c"}},
	}
	assert.True(t, source.Equal(want), "got %s", source)
}

func TestRightJoinWrapsLeftInMaybe(t *testing.T) {
	source := findSource(t, "select c from a right join b on true", "c")
	want := Either{
		Left:  Maybe{Inner: DependsOn{Table: "a", Column: "c"}},
		Right: DependsOn{Table: "b", Column: "c"},
	}
	assert.True(t, source.Equal(want), "got %s", source)
}

func TestFullOuterJoinWrapsBoth(t *testing.T) {
	source := findSource(t, "select c from a full outer join b on true", "c")
	want := Either{
		Left:  Maybe{Inner: DependsOn{Table: "a", Column: "c"}},
		Right: Maybe{Inner: DependsOn{Table: "b", Column: "c"}},
	}
	assert.True(t, source.Equal(want), "got %s", source)
}

func TestCrossJoinWrapsBoth(t *testing.T) {
	source := findSource(t, "select c from a cross join b", "c")
	want := Either{
		Left:  Maybe{Inner: DependsOn{Table: "a", Column: "c"}},
		Right: Maybe{Inner: DependsOn{Table: "b", Column: "c"}},
	}
	assert.True(t, source.Equal(want), "got %s", source)
}

func TestQualifiedIdentNarrowsJoin(t *testing.T) {
	source := findSource(t, "select t.c from t join x on true", "c")
	assert.True(t, source.Equal(DependsOn{Table: "t", Column: "c"}), "got %s", source)
}

func TestQualifiedIdentOnLeftJoinLeftSide(t *testing.T) {
	source := findSource(t, "select a.x from a left join b on a.id = b.a_id", "x")
	assert.True(t, source.Equal(DependsOn{Table: "a", Column: "x"}), "got %s", source)
}

func TestQualifiedIdentOnLeftJoinRightSide(t *testing.T) {
	source := findSource(t, "select b.x from a left join b on a.id = b.a_id", "x")
	assert.True(t, source.Equal(Maybe{Inner: DependsOn{Table: "b", Column: "x"}}), "got %s", source)
}

func TestTwoFromItemsFoldEither(t *testing.T) {
	source := findSource(t, "select c from a, b", "c")
	want := Either{
		Left:  DependsOn{Table: "a", Column: "c"},
		Right: DependsOn{Table: "b", Column: "c"},
	}
	assert.True(t, source.Equal(want), "got %s", source)
}

func TestCast(t *testing.T) {
	source := findSource(t, "select price::numeric(10,2) as p from items", "p")
	want := Cast{Source: DependsOn{Table: "items", Column: "price"}, DataType: "numeric(10,2)"}
	assert.True(t, source.Equal(want), "got %s", source)
}

func TestCastKeyword(t *testing.T) {
	source := findSource(t, "select cast(name as text) as n from users", "n")
	want := Cast{Source: DependsOn{Table: "users", Column: "name"}, DataType: "text"}
	assert.True(t, source.Equal(want), "got %s", source)
}

func TestCastOfParameterIsDropped(t *testing.T) {
	fields, err := FindFields(parseOne(t, "select $1::text as v"))
	require.NoError(t, err)
	assert.NotContains(t, fields, "v")
}

func TestBinaryArithmetic(t *testing.T) {
	source := findSource(t, "select a + b as s from t", "s")
	expr, ok := source.(BinaryExpr)
	require.True(t, ok, "got %s", source)
	assert.Equal(t, OpNumeric, expr.Op.Class)
	assert.True(t, expr.Left.Equal(DependsOn{Table: "t", Column: "a"}))
	assert.True(t, expr.Right.Equal(DependsOn{Table: "t", Column: "b"}))
}

func TestBinaryConcat(t *testing.T) {
	source := findSource(t, "select first || last as full_name from users", "full_name")
	expr, ok := source.(BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, OpConcat, expr.Op.Class)
}

func TestComparisonIsConstantType(t *testing.T) {
	source := findSource(t, "select a = b as eq from t", "eq")
	expr, ok := source.(BinaryExpr)
	require.True(t, ok)
	constant, hasConstant := expr.Op.TryConstant()
	require.True(t, hasConstant)
	assert.Equal(t, "bool", constant.String())
}

func TestBoolExprFoldsToBinary(t *testing.T) {
	source := findSource(t, "select a and b and c as all_set from t", "all_set")
	expr, ok := source.(BinaryExpr)
	require.True(t, ok, "got %s", source)
	assert.Equal(t, "AND", expr.Op.Op)
	inner, ok := expr.Left.(BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "AND", inner.Op.Op)
}

func TestCountIsIntValue(t *testing.T) {
	source := findSource(t, "select count(*) as n from orders", "n")
	assert.True(t, source.Equal(Value{Kind: ValueInt}), "got %s", source)
}

func TestOtherFunctionIsUnknown(t *testing.T) {
	source := findSource(t, "select upper(name) as n from users", "n")
	unknown, ok := source.(UnknownColumn)
	require.True(t, ok, "got %s", source)
	assert.Contains(t, unknown.SQL, "upper")
}

func TestLiteralValues(t *testing.T) {
	cases := []struct {
		sql   string
		field string
		kind  ValueKind
	}{
		{"select 1 as v", "v", ValueInt},
		{"select 1.5 as v", "v", ValueFloat},
		{"select 'x' as v", "v", ValueString},
		{"select true as v", "v", ValueBoolean},
		{"select null as v", "v", ValueNull},
	}
	for _, tc := range cases {
		t.Run(tc.sql, func(t *testing.T) {
			source := findSource(t, tc.sql, tc.field)
			assert.True(t, source.Equal(Value{Kind: tc.kind}), "got %s", source)
		})
	}
}

func TestWildcardsAreNotMapped(t *testing.T) {
	fields, err := FindFields(parseOne(t, "select *, id from users"))
	require.NoError(t, err)
	assert.Len(t, fields, 1)
	assert.Contains(t, fields, "id")
}

func TestUnnamedExpressionIsDropped(t *testing.T) {
	fields, err := FindFields(parseOne(t, "select id + 1 from users"))
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestInsertReturning(t *testing.T) {
	source := findSource(t, "insert into users (name) values ($1) returning id", "id")
	assert.True(t, source.Equal(DependsOn{Table: "users", Column: "id"}))
}

func TestInsertWithoutReturning(t *testing.T) {
	fields, err := FindFields(parseOne(t, "insert into users (name) values ($1)"))
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestUpdateReturning(t *testing.T) {
	source := findSource(t, "update users set name = $1 where id = $2 returning name", "name")
	assert.True(t, source.Equal(DependsOn{Table: "users", Column: "name"}))
}

func TestDeleteReturning(t *testing.T) {
	source := findSource(t, "delete from users where id = $1 returning id", "id")
	assert.True(t, source.Equal(DependsOn{Table: "users", Column: "id"}))
}

func TestWithClauseUnsupported(t *testing.T) {
	_, err := FindFields(parseOne(t, "with x as (select 1) select * from x"))
	var unsupported *UnsupportedQueryElementError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "with", unsupported.Name)
}

func TestUnionUnsupported(t *testing.T) {
	_, err := FindFields(parseOne(t, "select a from t union select b from u"))
	var unsupported *UnsupportedStatementError
	assert.ErrorAs(t, err, &unsupported)
}

func TestDdlUnsupported(t *testing.T) {
	_, err := FindFields(parseOne(t, "create table t (id int)"))
	var unsupported *UnsupportedStatementError
	assert.ErrorAs(t, err, &unsupported)
}

func TestSubselectFactorIsUnknown(t *testing.T) {
	fields, err := FindFields(parseOne(t, "select v from (select 1 as v) sub"))
	require.NoError(t, err)
	unknown, ok := fields["v"].(UnknownColumn)
	require.True(t, ok, "got %v", fields["v"])
	assert.NotEmpty(t, unknown.SQL)
}

func TestParseErrorWrapped(t *testing.T) {
	_, err := ToAST("select from where")
	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestFindTables(t *testing.T) {
	tables, err := FindTables(parseOne(t, "select c from a left join b on true, x"))
	require.NoError(t, err)
	require.Len(t, tables, 2)
	join, ok := tables[0].(JoinTable)
	require.True(t, ok)
	assert.False(t, join.LeftNullable)
	assert.True(t, join.RightNullable)
	assert.Equal(t, "x", tables[1].String())
}

func TestFindTablesRejectsSubselect(t *testing.T) {
	_, err := FindTables(parseOne(t, "select v from (select 1 as v) sub"))
	var unsupported *UnsupportedTableTypeError
	assert.ErrorAs(t, err, &unsupported)
}

func TestQuotedIdentifiersAreUnescaped(t *testing.T) {
	source := findSource(t, `select "my column" from "my table"`, "my column")
	assert.True(t, source.Equal(DependsOn{Table: "my table", Column: "my column"}))
}
