package provenance

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// parserVersion is the version stamp Deparse expects on a ParseResult; taken
// from an actual parse so synthetic trees carry the right one.
var parserVersion = func() int32 {
	result, err := pg_query.Parse("select 1")
	if err != nil {
		return 0
	}
	return result.GetVersion()
}()

func deparseSelect(sel *pg_query.SelectStmt) (string, bool) {
	tree := &pg_query.ParseResult{
		Version: parserVersion,
		Stmts: []*pg_query.RawStmt{{
			Stmt: &pg_query.Node{Node: &pg_query.Node_SelectStmt{SelectStmt: sel}},
		}},
	}
	out, err := pg_query.Deparse(tree)
	if err != nil {
		return "", false
	}
	return out, true
}

// deparseExpr renders a single expression node back to SQL by wrapping it in
// a one-item SELECT and stripping the keyword.
func deparseExpr(node *pg_query.Node) string {
	sel := &pg_query.SelectStmt{
		TargetList: []*pg_query.Node{{
			Node: &pg_query.Node_ResTarget{ResTarget: &pg_query.ResTarget{Val: node}},
		}},
		Op:          pg_query.SetOperation_SETOP_NONE,
		LimitOption: pg_query.LimitOption_LIMIT_OPTION_DEFAULT,
	}
	if out, ok := deparseSelect(sel); ok {
		return strings.TrimPrefix(out, "SELECT ")
	}
	return node.String()
}

// deparseFromItem renders a FROM-clause item, using the target-less
// SELECT FROM form PostgreSQL allows.
func deparseFromItem(node *pg_query.Node) string {
	sel := &pg_query.SelectStmt{
		FromClause:  []*pg_query.Node{node},
		Op:          pg_query.SetOperation_SETOP_NONE,
		LimitOption: pg_query.LimitOption_LIMIT_OPTION_DEFAULT,
	}
	if out, ok := deparseSelect(sel); ok {
		return strings.TrimPrefix(out, "SELECT FROM ")
	}
	return node.String()
}

// deparseStatement renders a whole statement for error messages.
func deparseStatement(stmt *pg_query.RawStmt) string {
	tree := &pg_query.ParseResult{Version: parserVersion, Stmts: []*pg_query.RawStmt{stmt}}
	out, err := pg_query.Deparse(tree)
	if err != nil {
		return stmt.String()
	}
	return out
}
