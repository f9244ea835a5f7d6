package codegen

import "encoding/json"

// JSONCodeGen renders the manifest: a top-level object keyed by logical
// query name, keys sorted lexicographically.
type JSONCodeGen struct {
	queries map[string]QueryDefinition
}

func NewJSON() *JSONCodeGen {
	return &JSONCodeGen{queries: make(map[string]QueryDefinition)}
}

func (g *JSONCodeGen) Push(name string, query QueryDefinition) error {
	if _, ok := g.queries[name]; ok {
		return duplicateName(name)
	}
	g.queries[name] = query
	return nil
}

func (g *JSONCodeGen) Finalize() (string, error) {
	// encoding/json writes map keys in sorted order, which is exactly the
	// manifest's key ordering contract.
	out, err := json.MarshalIndent(g.queries, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}
