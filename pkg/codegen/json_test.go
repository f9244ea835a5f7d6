package codegen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgbind/pgbind/pkg/sqltype"
)

func getUserDefinition() QueryDefinition {
	return QueryDefinition{
		Query: "select name from users where id = :uid",
		Inputs: []sqltype.QueryItem{
			{Name: "uid", SqlType: sqltype.Int4(), Nullable: sqltype.NullableUnknown},
		},
		Outputs: []sqltype.QueryItem{
			{Name: "name", SqlType: sqltype.Text(), Nullable: sqltype.NullableFalse},
		},
	}
}

func TestJSONManifestShape(t *testing.T) {
	gen := NewJSON()
	require.NoError(t, gen.Push("get_user", getUserDefinition()))

	out, err := gen.Finalize()
	require.NoError(t, err)
	assert.JSONEq(t, `{
	  "get_user": {
	    "query": "select name from users where id = :uid",
	    "inputs": [{"name": "uid", "sql_type": "Int4", "nullable": "Unknown"}],
	    "outputs": [{"name": "name", "sql_type": "Text", "nullable": "False"}]
	  }
	}`, out)
}

func TestJSONManifestKeysSorted(t *testing.T) {
	gen := NewJSON()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, gen.Push(name, QueryDefinition{Query: "select 1"}))
	}
	out, err := gen.Finalize()
	require.NoError(t, err)

	alpha := strings.Index(out, `"alpha"`)
	mid := strings.Index(out, `"mid"`)
	zeta := strings.Index(out, `"zeta"`)
	assert.True(t, alpha < mid && mid < zeta, "keys must be lexicographic:\n%s", out)
}

func TestJSONDuplicatePushRejected(t *testing.T) {
	gen := NewJSON()
	require.NoError(t, gen.Push("q", QueryDefinition{Query: "select 1"}))
	assert.Error(t, gen.Push("q", QueryDefinition{Query: "select 2"}))
}
