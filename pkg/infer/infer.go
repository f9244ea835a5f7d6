package infer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pgbind/pgbind/pkg/provenance"
	"github.com/pgbind/pgbind/pkg/rewrite"
	"github.com/pgbind/pgbind/pkg/sqltype"
)

// Builder assembles an Inferrer. Passes run in the order they were added.
type Builder struct {
	passes []Pass
	logger *zap.Logger
}

func NewBuilder() *Builder {
	return &Builder{logger: zap.NewNop()}
}

func (b *Builder) AddInformationSchemaPass(pass Pass) *Builder {
	b.passes = append(b.passes, pass)
	return b
}

func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) Build() *Inferrer {
	return &Inferrer{passes: b.passes, logger: b.logger}
}

// Inferrer runs the full inference pipeline for one rewritten query.
type Inferrer struct {
	passes []Pass
	logger *zap.Logger
}

// InferTypes prepares the rewritten statement to obtain the authoritative
// signature, then enriches the outputs by walking their provenance against
// the catalog. Input items are named after the rewriter's parameter list.
//
// Parse and catalog errors abort the query; an output whose provenance
// cannot be resolved is warned about and left with its prepared type.
func (inf *Inferrer) InferTypes(ctx context.Context, catalog Catalog, query rewrite.ParametrizedQuery) (sqltype.QueryTypes, error) {
	var types sqltype.QueryTypes

	info, err := catalog.Prepare(ctx, query.RawQuery)
	if err != nil {
		return types, err
	}
	if len(info.Params) != len(query.Params) {
		// The rewriter assigned every $N, so a count mismatch means the
		// statement and the parameter list have diverged.
		return types, fmt.Errorf(
			"parameter count mismatch: statement reports %d, rewrite produced %d",
			len(info.Params), len(query.Params),
		)
	}

	types.Input = make([]sqltype.QueryItem, len(info.Params))
	for i, param := range info.Params {
		types.Input[i] = sqltype.QueryItem{
			Name:     query.Params[i],
			SqlType:  param,
			Nullable: sqltype.NullableUnknown,
		}
	}
	types.Output = make([]sqltype.QueryItem, len(info.Columns))
	for i, column := range info.Columns {
		types.Output[i] = sqltype.QueryItem{
			Name:     column.Name,
			SqlType:  column.Type,
			Nullable: sqltype.NullableUnknown,
		}
	}

	statements, err := provenance.ToAST(query.RawQuery)
	if err != nil {
		return types, err
	}
	if len(statements) != 1 {
		return types, fmt.Errorf("expected a single statement, found %d", len(statements))
	}
	fields, err := provenance.FindFields(statements[0])
	if err != nil {
		return types, err
	}

	collector := NewCollector(catalog)
	for i := range types.Output {
		item := &types.Output[i]
		source, ok := fields[item.Name]
		if !ok {
			inf.logger.Warn("no provenance for output column", zap.String("column", item.Name))
			continue
		}
		schemas, err := collector.Collect(ctx, source)
		if err != nil {
			return types, err
		}
		for _, pass := range inf.passes {
			pass.Apply(schemas, source, item)
		}
	}
	return types, nil
}
