package codegen

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// ArgumentMode selects how generated functions accept their parameters.
type ArgumentMode string

const (
	ArgumentPositional ArgumentMode = "positional"
	ArgumentKeyword    ArgumentMode = "keyword"
)

// TypeGen selects the annotation vocabulary.
type TypeGen string

const (
	TypeGenPython   TypeGen = "python"
	TypeGenPydantic TypeGen = "pydantic"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var pyTemplates = template.Must(template.ParseFS(templatesFS, "templates/*.tmpl"))

// SQLAlchemyCodeGen emits one typed Python function per query over a shared
// prelude, in sync or asyncio flavor.
type SQLAlchemyCodeGen struct {
	queries      map[string]QueryDefinition
	async        bool
	argumentMode ArgumentMode
	typeGen      TypeGen
}

func NewSQLAlchemy(async bool, argumentMode ArgumentMode, typeGen TypeGen) *SQLAlchemyCodeGen {
	if argumentMode == "" {
		argumentMode = ArgumentPositional
	}
	if typeGen == "" {
		typeGen = TypeGenPython
	}
	return &SQLAlchemyCodeGen{
		queries:      make(map[string]QueryDefinition),
		async:        async,
		argumentMode: argumentMode,
		typeGen:      typeGen,
	}
}

func (g *SQLAlchemyCodeGen) Push(name string, query QueryDefinition) error {
	if _, ok := g.queries[name]; ok {
		return duplicateName(name)
	}
	g.queries[name] = query
	return nil
}

func (g *SQLAlchemyCodeGen) Finalize() (string, error) {
	prelude := "prelude_sync.py.tmpl"
	if g.async {
		prelude = "prelude_async.py.tmpl"
	}
	var out strings.Builder
	err := pyTemplates.ExecuteTemplate(&out, prelude, struct{ Pydantic bool }{
		Pydantic: g.typeGen == TypeGenPydantic,
	})
	if err != nil {
		return "", err
	}

	names := make([]string, 0, len(g.queries))
	for name := range g.queries {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		out.WriteString("\n\n")
		if err := g.writeFunction(&out, name, g.queries[name]); err != nil {
			return "", err
		}
	}
	return out.String(), nil
}

type functionField struct {
	Name string
	Type string
}

type functionData struct {
	Async      bool
	FuncName   string
	ClassName  string
	Params     string
	ReturnType string
	Query      string
	Binds      string
	HasOutput  bool
	Outputs    []functionField
}

func (g *SQLAlchemyCodeGen) writeFunction(out *strings.Builder, name string, query QueryDefinition) error {
	pydantic := g.typeGen == TypeGenPydantic

	connType := "Connection"
	if g.async {
		connType = "AsyncConnection"
	}
	params := []string{"conn: " + connType}
	if len(query.Inputs) > 0 && g.argumentMode == ArgumentKeyword {
		params = append(params, "*")
	}
	var binds []string
	for _, input := range query.Inputs {
		params = append(params, fmt.Sprintf("%s: %s", input.Name, pyInputType(input, pydantic)))
		binds = append(binds, fmt.Sprintf("%q: %s", input.Name, input.Name))
	}

	data := functionData{
		Async:     g.async,
		FuncName:  name,
		ClassName: ToPascal(name + "_output"),
		Params:    strings.Join(params, ", "),
		Query:     query.Query,
		HasOutput: len(query.Outputs) > 0,
	}
	if len(binds) > 0 {
		data.Binds = "{" + strings.Join(binds, ", ") + "}"
	}
	if data.HasOutput {
		data.ReturnType = "DbOutput[" + data.ClassName + "]"
		for _, output := range query.Outputs {
			data.Outputs = append(data.Outputs, functionField{
				Name: output.Name,
				Type: pyOutputType(output, pydantic),
			})
		}
	} else {
		data.ReturnType = "None"
	}
	return pyTemplates.ExecuteTemplate(out, "function.py.tmpl", data)
}
