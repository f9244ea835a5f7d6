package provenance

import (
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// FindFields maps each named projection of the statement to its provenance
// expression. The map is keyed by the alias when one is given, otherwise by
// the final identifier segment; projections that are neither aliased nor
// identifiers (and wildcards) are absent.
func FindFields(stmt *pg_query.RawStmt) (map[string]Column, error) {
	node := stmt.GetStmt()
	switch {
	case node.GetSelectStmt() != nil:
		sel := node.GetSelectStmt()
		if err := checkSelectShape(stmt, sel); err != nil {
			return nil, err
		}
		tables, err := identifyTables(sel.GetFromClause())
		if err != nil {
			return nil, err
		}
		return fieldsFromItems(sel.GetTargetList(), tables), nil

	case node.GetInsertStmt() != nil:
		ins := node.GetInsertStmt()
		tables := []Table{rangeVarTable(ins.GetRelation())}
		return fieldsFromItems(ins.GetReturningList(), tables), nil

	case node.GetUpdateStmt() != nil:
		upd := node.GetUpdateStmt()
		from, err := identifyTables(upd.GetFromClause())
		if err != nil {
			return nil, err
		}
		tables := append([]Table{rangeVarTable(upd.GetRelation())}, from...)
		return fieldsFromItems(upd.GetReturningList(), tables), nil

	case node.GetDeleteStmt() != nil:
		del := node.GetDeleteStmt()
		using, err := identifyTables(del.GetUsingClause())
		if err != nil {
			return nil, err
		}
		tables := append([]Table{rangeVarTable(del.GetRelation())}, using...)
		return fieldsFromItems(del.GetReturningList(), tables), nil
	}
	return nil, &UnsupportedStatementError{Statement: deparseStatement(stmt)}
}

// FindTables lists the top-level table trees a statement reads or writes.
// Unlike FindFields it rejects factors it cannot name, since the analysis
// output would otherwise be silently incomplete.
func FindTables(stmt *pg_query.RawStmt) ([]Table, error) {
	node := stmt.GetStmt()
	var tables []Table
	var err error
	switch {
	case node.GetSelectStmt() != nil:
		sel := node.GetSelectStmt()
		if err := checkSelectShape(stmt, sel); err != nil {
			return nil, err
		}
		tables, err = identifyTables(sel.GetFromClause())
	case node.GetInsertStmt() != nil:
		tables = []Table{rangeVarTable(node.GetInsertStmt().GetRelation())}
	case node.GetUpdateStmt() != nil:
		upd := node.GetUpdateStmt()
		var from []Table
		from, err = identifyTables(upd.GetFromClause())
		tables = append([]Table{rangeVarTable(upd.GetRelation())}, from...)
	case node.GetDeleteStmt() != nil:
		del := node.GetDeleteStmt()
		var using []Table
		using, err = identifyTables(del.GetUsingClause())
		tables = append([]Table{rangeVarTable(del.GetRelation())}, using...)
	default:
		return nil, &UnsupportedStatementError{Statement: deparseStatement(stmt)}
	}
	if err != nil {
		return nil, err
	}
	for _, table := range tables {
		if sql, ok := findUnknownFactor(table); ok {
			return nil, &UnsupportedTableTypeError{Msg: sql}
		}
	}
	return tables, nil
}

func checkSelectShape(stmt *pg_query.RawStmt, sel *pg_query.SelectStmt) error {
	if sel.GetWithClause() != nil {
		return &UnsupportedQueryElementError{Name: "with"}
	}
	if sel.GetOp() != pg_query.SetOperation_SETOP_NONE || len(sel.GetValuesLists()) > 0 {
		return &UnsupportedStatementError{Statement: deparseStatement(stmt)}
	}
	return nil
}

func findUnknownFactor(table Table) (string, bool) {
	switch t := table.(type) {
	case UnknownTable:
		return t.SQL, true
	case AliasTable:
		return findUnknownFactor(t.Source)
	case JoinTable:
		if sql, ok := findUnknownFactor(t.Left); ok {
			return sql, ok
		}
		return findUnknownFactor(t.Right)
	}
	return "", false
}

// identifyTables builds one provenance tree per FROM-clause item.
func identifyTables(items []*pg_query.Node) ([]Table, error) {
	tables := make([]Table, 0, len(items))
	for _, item := range items {
		table, err := tableFromFactor(item)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, nil
}

func tableFromFactor(node *pg_query.Node) (Table, error) {
	switch {
	case node.GetRangeVar() != nil:
		return rangeVarTable(node.GetRangeVar()), nil
	case node.GetJoinExpr() != nil:
		return joinTree(node)
	}
	return UnknownTable{SQL: deparseFromItem(node)}, nil
}

func rangeVarTable(rv *pg_query.RangeVar) Table {
	table := Table(DbTable{Name: rv.GetRelname()})
	if alias := rv.GetAlias().GetAliasname(); alias != "" {
		table = AliasTable{Name: alias, Source: table}
	}
	return table
}

// joinTree folds a JoinExpr into a JoinTable, encoding which side each join
// kind may null-extend. PostgreSQL's grammar folds CROSS JOIN into an inner
// join with no qualification, so that shape counts as cross here.
func joinTree(node *pg_query.Node) (Table, error) {
	join := node.GetJoinExpr()
	var leftNull, rightNull bool
	switch join.GetJointype() {
	case pg_query.JoinType_JOIN_INNER:
		if isCrossJoin(join) {
			leftNull, rightNull = true, true
		}
	case pg_query.JoinType_JOIN_LEFT:
		rightNull = true
	case pg_query.JoinType_JOIN_RIGHT:
		leftNull = true
	case pg_query.JoinType_JOIN_FULL:
		leftNull, rightNull = true, true
	default:
		return UnknownTable{SQL: deparseFromItem(node)}, nil
	}
	left, err := tableFromFactor(join.GetLarg())
	if err != nil {
		return nil, err
	}
	right, err := tableFromFactor(join.GetRarg())
	if err != nil {
		return nil, err
	}
	table := Table(JoinTable{
		LeftNullable:  leftNull,
		Left:          left,
		RightNullable: rightNull,
		Right:         right,
	})
	if alias := join.GetAlias().GetAliasname(); alias != "" {
		table = AliasTable{Name: alias, Source: table}
	}
	return table, nil
}

func isCrossJoin(join *pg_query.JoinExpr) bool {
	return !join.GetIsNatural() && join.GetQuals() == nil && len(join.GetUsingClause()) == 0
}

func fieldsFromItems(items []*pg_query.Node, tables []Table) map[string]Column {
	fields := make(map[string]Column)
	for _, item := range items {
		target := item.GetResTarget()
		if target == nil {
			continue
		}
		name := target.GetName()
		if name == "" {
			name = lastIdentSegment(target.GetVal())
			if name == "" {
				continue
			}
		}
		column, ok := resolveExpr(target.GetVal(), tables)
		if !ok {
			continue
		}
		fields[name] = column
	}
	return fields
}

// lastIdentSegment names an unaliased projection after its final identifier
// segment; non-identifier expressions stay unnamed.
func lastIdentSegment(node *pg_query.Node) string {
	ref := node.GetColumnRef()
	if ref == nil {
		return ""
	}
	name := ""
	for _, field := range ref.GetFields() {
		str := field.GetString_()
		if str == nil {
			return ""
		}
		name = str.GetSval()
	}
	return name
}

func resolveExpr(node *pg_query.Node, tables []Table) (Column, bool) {
	switch {
	case node == nil:
		return nil, false

	case node.GetColumnRef() != nil:
		return resolveColumnRef(node.GetColumnRef(), tables)

	case node.GetTypeCast() != nil:
		cast := node.GetTypeCast()
		source, ok := resolveExpr(cast.GetArg(), tables)
		if !ok {
			return nil, false
		}
		return Cast{Source: source, DataType: typeNameString(cast.GetTypeName())}, true

	case node.GetAExpr() != nil:
		expr := node.GetAExpr()
		if expr.GetKind() != pg_query.A_Expr_Kind_AEXPR_OP {
			return UnknownColumn{SQL: deparseExpr(node)}, true
		}
		return resolveBinary(operatorName(expr.GetName()), expr.GetLexpr(), expr.GetRexpr(), tables)

	case node.GetBoolExpr() != nil:
		return resolveBoolExpr(node, tables)

	case node.GetAConst() != nil:
		return constValue(node.GetAConst()), true

	case node.GetParamRef() != nil:
		return nil, false

	case node.GetFuncCall() != nil:
		call := node.GetFuncCall()
		if funcName(call) == "count" {
			// count(...) is a non-null integer regardless of arguments.
			return Value{Kind: ValueInt}, true
		}
		return UnknownColumn{SQL: deparseExpr(node)}, true
	}
	return UnknownColumn{SQL: deparseExpr(node)}, true
}

func resolveColumnRef(ref *pg_query.ColumnRef, tables []Table) (Column, bool) {
	var parts []string
	for _, field := range ref.GetFields() {
		str := field.GetString_()
		if str == nil {
			// Wildcards are not inserted into the field map.
			return nil, false
		}
		parts = append(parts, str.GetSval())
	}
	switch {
	case len(parts) == 0 || len(tables) == 0:
		return nil, false
	case len(parts) == 1:
		result := tables[0].FindColumn(parts[0])
		for _, table := range tables[1:] {
			result = Either{Left: result, Right: table.FindColumn(parts[0])}
		}
		return result, true
	}
	tableName, columnName := parts[len(parts)-2], parts[len(parts)-1]
	var result Column
	for _, table := range tables {
		current, ok := table.FindTableColumn(tableName, columnName)
		if !ok {
			continue
		}
		if result == nil {
			result = current
		} else {
			result = Either{Left: result, Right: current}
		}
	}
	return result, result != nil
}

func resolveBinary(op string, left, right *pg_query.Node, tables []Table) (Column, bool) {
	leftCol, ok := resolveExpr(left, tables)
	if !ok {
		return nil, false
	}
	rightCol, ok := resolveExpr(right, tables)
	if !ok {
		return nil, false
	}
	return BinaryExpr{Op: ClassifyOperator(op), Left: leftCol, Right: rightCol}, true
}

// resolveBoolExpr folds AND/OR argument lists left-associatively into binary
// nodes so the operator metadata applies uniformly.
func resolveBoolExpr(node *pg_query.Node, tables []Table) (Column, bool) {
	expr := node.GetBoolExpr()
	var op string
	switch expr.GetBoolop() {
	case pg_query.BoolExprType_AND_EXPR:
		op = "AND"
	case pg_query.BoolExprType_OR_EXPR:
		op = "OR"
	default:
		return UnknownColumn{SQL: deparseExpr(node)}, true
	}
	args := expr.GetArgs()
	if len(args) < 2 {
		return UnknownColumn{SQL: deparseExpr(node)}, true
	}
	result, ok := resolveExpr(args[0], tables)
	if !ok {
		return nil, false
	}
	for _, arg := range args[1:] {
		right, ok := resolveExpr(arg, tables)
		if !ok {
			return nil, false
		}
		result = BinaryExpr{Op: ClassifyOperator(op), Left: result, Right: right}
	}
	return result, true
}

func constValue(c *pg_query.A_Const) Column {
	switch {
	case c.GetIsnull():
		return Value{Kind: ValueNull}
	case c.GetBoolval() != nil:
		return Value{Kind: ValueBoolean}
	case c.GetIval() != nil:
		return Value{Kind: ValueInt}
	case c.GetFval() != nil:
		return Value{Kind: ValueFloat}
	}
	// String and bit-string literal variants.
	return Value{Kind: ValueString}
}

func operatorName(names []*pg_query.Node) string {
	name := ""
	for _, node := range names {
		if str := node.GetString_(); str != nil {
			name = str.GetSval()
		}
	}
	return name
}

func funcName(call *pg_query.FuncCall) string {
	name := ""
	for _, node := range call.GetFuncname() {
		if str := node.GetString_(); str != nil {
			name = strings.ToLower(str.GetSval())
		}
	}
	return name
}

// typeNameString renders a TypeName the way it reads in SQL, dropping the
// implicit pg_catalog qualifier.
func typeNameString(tn *pg_query.TypeName) string {
	var names []string
	for _, node := range tn.GetNames() {
		str := node.GetString_()
		if str == nil || str.GetSval() == "pg_catalog" {
			continue
		}
		names = append(names, str.GetSval())
	}
	out := strings.Join(names, ".")
	if mods := tn.GetTypmods(); len(mods) > 0 {
		var args []string
		for _, mod := range mods {
			args = append(args, deparseExpr(mod))
		}
		out += "(" + strings.Join(args, ",") + ")"
	}
	return out
}
