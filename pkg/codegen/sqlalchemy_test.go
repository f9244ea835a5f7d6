package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgbind/pgbind/pkg/sqltype"
)

func finalize(t *testing.T, gen CodeGen, queries map[string]QueryDefinition) string {
	t.Helper()
	for name, query := range queries {
		require.NoError(t, gen.Push(name, query))
	}
	out, err := gen.Finalize()
	require.NoError(t, err)
	return out
}

func TestSQLAlchemySyncFunction(t *testing.T) {
	out := finalize(t, NewSQLAlchemy(false, ArgumentPositional, TypeGenPython),
		map[string]QueryDefinition{"get_user": getUserDefinition()})

	assert.Contains(t, out, "from sqlalchemy.engine import Connection")
	assert.Contains(t, out, "@dataclass\nclass GetUserOutput:")
	assert.Contains(t, out, "    name: str\n")
	assert.Contains(t, out, "def get_user(conn: Connection, uid: int | None) -> DbOutput[GetUserOutput]:")
	assert.Contains(t, out, `result = conn.execute(text("""select name from users where id = :uid"""), {"uid": uid})`)
	assert.Contains(t, out, "return DbOutput(GetUserOutput(*row) for row in result)")
	assert.NotContains(t, out, "await")
	assert.NotContains(t, out, "async def")
}

func TestSQLAlchemyAsyncFunction(t *testing.T) {
	out := finalize(t, NewSQLAlchemy(true, ArgumentPositional, TypeGenPython),
		map[string]QueryDefinition{"get_user": getUserDefinition()})

	assert.Contains(t, out, "from sqlalchemy.ext.asyncio import AsyncConnection")
	assert.Contains(t, out, "async def get_user(conn: AsyncConnection, uid: int | None) -> DbOutput[GetUserOutput]:")
	assert.Contains(t, out, "result = await conn.execute(")
}

func TestSQLAlchemyKeywordArguments(t *testing.T) {
	out := finalize(t, NewSQLAlchemy(false, ArgumentKeyword, TypeGenPython),
		map[string]QueryDefinition{"get_user": getUserDefinition()})

	assert.Contains(t, out, "def get_user(conn: Connection, *, uid: int | None)")
}

func TestSQLAlchemyNoOutputs(t *testing.T) {
	query := QueryDefinition{
		Query: "delete from users where id = :uid",
		Inputs: []sqltype.QueryItem{
			{Name: "uid", SqlType: sqltype.Int4(), Nullable: sqltype.NullableFalse},
		},
	}
	out := finalize(t, NewSQLAlchemy(false, ArgumentPositional, TypeGenPython),
		map[string]QueryDefinition{"drop_user": query})

	assert.Contains(t, out, "def drop_user(conn: Connection, uid: int) -> None:")
	assert.NotContains(t, out, "class DropUserOutput")
	assert.NotContains(t, out, "return DbOutput")
}

func TestSQLAlchemyNoInputs(t *testing.T) {
	query := QueryDefinition{
		Query: "select count(*) as n from orders",
		Outputs: []sqltype.QueryItem{
			{Name: "n", SqlType: sqltype.Int8(), Nullable: sqltype.NullableFalse},
		},
	}
	out := finalize(t, NewSQLAlchemy(false, ArgumentPositional, TypeGenPython),
		map[string]QueryDefinition{"count_orders": query})

	assert.Contains(t, out, "def count_orders(conn: Connection) -> DbOutput[CountOrdersOutput]:")
	assert.Contains(t, out, `conn.execute(text("""select count(*) as n from orders"""))`)
}

func TestSQLAlchemyPydanticTypes(t *testing.T) {
	query := QueryDefinition{
		Query: "select placed_at from orders",
		Outputs: []sqltype.QueryItem{
			{Name: "placed_at", SqlType: sqltype.Timestamp(true), Nullable: sqltype.NullableFalse},
		},
	}
	out := finalize(t, NewSQLAlchemy(false, ArgumentPositional, TypeGenPydantic),
		map[string]QueryDefinition{"placed": query})

	assert.Contains(t, out, "from pydantic import AwareDatetime, NaiveDatetime")
	assert.Contains(t, out, "placed_at: AwareDatetime\n")
}

func TestSQLAlchemyEnumAndJsonTypes(t *testing.T) {
	query := QueryDefinition{
		Query: "select current_mood, payload from events",
		Outputs: []sqltype.QueryItem{
			{Name: "current_mood", SqlType: sqltype.Enum("mood", []string{"sad", "ok"}), Nullable: sqltype.NullableTrue},
			{Name: "payload", SqlType: sqltype.Jsonb(), Nullable: sqltype.NullableFalse},
		},
	}
	out := finalize(t, NewSQLAlchemy(false, ArgumentPositional, TypeGenPython),
		map[string]QueryDefinition{"events": query})

	assert.Contains(t, out, `current_mood: Literal["sad", "ok"] | None`)
	assert.Contains(t, out, "payload: Json\n")
}

func TestSQLAlchemyFunctionsSorted(t *testing.T) {
	out := finalize(t, NewSQLAlchemy(false, ArgumentPositional, TypeGenPython),
		map[string]QueryDefinition{
			"zeta":  {Query: "select 1"},
			"alpha": {Query: "select 1"},
		})
	assert.Less(t, strings.Index(out, "def alpha("), strings.Index(out, "def zeta("))
}

func TestToPascal(t *testing.T) {
	assert.Equal(t, "GetUserOutput", ToPascal("get_user_output"))
	assert.Equal(t, "MixedCase", ToPascal("mixedCase"))
	assert.Equal(t, "X", ToPascal("x"))
}

func TestEscapeString(t *testing.T) {
	assert.Equal(t, `\"a\" and \'b\'`, EscapeString(`"a" and 'b'`))
}
