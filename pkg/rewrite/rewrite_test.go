package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewrite(t *testing.T) {
	cases := []struct {
		name   string
		in     string
		query  string
		params []string
	}{
		{
			name:  "no placeholders passes through",
			in:    "select id, name from users",
			query: "select id, name from users",
		},
		{
			name:   "single placeholder",
			in:     "select name from users where id = :uid",
			query:  "select name from users where id = $1",
			params: []string{"uid"},
		},
		{
			name:   "repeated placeholder reuses index",
			in:     "select * from t where a = :x and b = :x",
			query:  "select * from t where a = $1 and b = $1",
			params: []string{"x"},
		},
		{
			name:   "indices follow first appearance",
			in:     "update t set a = :second where b = :first and c = :second",
			query:  "update t set a = $1 where b = $2 and c = $1",
			params: []string{"second", "first"},
		},
		{
			name:  "cast operator is not a placeholder",
			in:    "select price::text from items",
			query: "select price::text from items",
		},
		{
			name:   "cast after placeholder",
			in:     "select :v::text as v",
			query:  "select $1::text as v",
			params: []string{"v"},
		},
		{
			name:  "single quoted literal untouched",
			in:    "select ':nope' from t",
			query: "select ':nope' from t",
		},
		{
			name:  "double quoted identifier untouched",
			in:    "select \":nope\" from t",
			query: "select \":nope\" from t",
		},
		{
			name:   "leading quote",
			in:     "':a' || :b",
			query:  "':a' || $1",
			params: []string{"b"},
		},
		{
			name:   "doubled quote escape stays literal",
			in:     "select 'it''s :not' where x = :yes",
			query:  "select 'it''s :not' where x = $1",
			params: []string{"yes"},
		},
		{
			name:   "doubled double quote in identifier",
			in:     `select ":a""b" from t where c = :p`,
			query:  `select ":a""b" from t where c = $1`,
			params: []string{"p"},
		},
		{
			name:   "underscore and digits in names",
			in:     "select 1 where a = :_x1 and b = :x_2",
			query:  "select 1 where a = $1 and b = $2",
			params: []string{"_x1", "x_2"},
		},
		{
			name:  "colon followed by digit is not a placeholder",
			in:    "select x from t where y = ':1' and z = 3:2",
			query: "select x from t where y = ':1' and z = 3:2",
		},
		{
			name:   "many placeholders get two digit indices",
			in:     ":a :b :c :d :e :f :g :h :i :j :k",
			query:  "$1 $2 $3 $4 $5 $6 $7 $8 $9 $10 $11",
			params: []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Rewrite(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.query, got.RawQuery)
			assert.Equal(t, tc.params, got.Params)
		})
	}
}

func TestSplitQueryAlternates(t *testing.T) {
	segments := splitQuery(`a 'b' c "d" e`)
	assert.Equal(t, []string{"a ", "'b'", " c ", `"d"`, " e"}, segments)

	// A leading quote produces an empty outside segment to keep parity.
	segments = splitQuery(`'x' y`)
	assert.Equal(t, []string{"", "'x'", " y"}, segments)
}

func TestRewriteIdempotentOnPositional(t *testing.T) {
	query := "select name from users where id = $1"
	got, err := Rewrite(query)
	require.NoError(t, err)
	assert.Equal(t, query, got.RawQuery)
	assert.Empty(t, got.Params)
}
