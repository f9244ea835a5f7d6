package sqltype

// Nullability is trivalent: Unknown is the initial value before inference
// passes run and the conservative fallback on ambiguity.
type Nullability string

const (
	NullableTrue    Nullability = "True"
	NullableFalse   Nullability = "False"
	NullableUnknown Nullability = "Unknown"
)

// QueryItem describes one input parameter or one projected output column.
type QueryItem struct {
	Name     string      `json:"name"`
	SqlType  SqlType     `json:"sql_type"`
	Nullable Nullability `json:"nullable"`
}

// QueryTypes is the full inferred signature of a query. Output order matches
// the projection order; input order matches first appearance of each
// placeholder in the rewritten query.
type QueryTypes struct {
	Input  []QueryItem
	Output []QueryItem
}
