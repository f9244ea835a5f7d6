package infer

import (
	"context"

	"github.com/pgbind/pgbind/pkg/provenance"
)

// SchemaMap associates provenance expressions with catalog records. Lookup
// uses provenance equality, so an Either matches under either child order.
type SchemaMap struct {
	entries []schemaEntry
}

type schemaEntry struct {
	column provenance.Column
	schema *InformationSchema
}

func (m *SchemaMap) put(column provenance.Column, schema *InformationSchema) {
	m.entries = append(m.entries, schemaEntry{column: column, schema: schema})
}

// Get returns the record collected for a provenance expression.
func (m *SchemaMap) Get(column provenance.Column) (*InformationSchema, bool) {
	for _, entry := range m.entries {
		if entry.column.Equal(column) {
			return entry.schema, true
		}
	}
	return nil, false
}

func (m *SchemaMap) Len() int { return len(m.entries) }

// Collector walks provenance expressions and gathers the catalog record of
// every physical column they depend on. Lookups are memoized per
// (table, column) for the collector's lifetime, i.e. one inference.
type Collector struct {
	catalog Catalog
	cache   map[provenance.DependsOn]*InformationSchema
}

func NewCollector(catalog Catalog) *Collector {
	return &Collector{
		catalog: catalog,
		cache:   make(map[provenance.DependsOn]*InformationSchema),
	}
}

// Collect walks column and returns the schema map handed to the passes.
func (c *Collector) Collect(ctx context.Context, column provenance.Column) (*SchemaMap, error) {
	schemas := &SchemaMap{}
	if _, err := c.walk(ctx, column, schemas); err != nil {
		return nil, err
	}
	return schemas, nil
}

// walk recurses and returns the node's aggregate record: the leaf record for
// DependsOn, pass-through for Maybe and Cast, the single resolvable side for
// Either (nil when both or neither side resolve), nil for operators, values
// and unknowns.
func (c *Collector) walk(ctx context.Context, column provenance.Column, schemas *SchemaMap) (*InformationSchema, error) {
	switch col := column.(type) {
	case provenance.DependsOn:
		schema, err := c.lookup(ctx, col)
		if err != nil {
			return nil, err
		}
		if schema != nil {
			schemas.put(col, schema)
		}
		return schema, nil

	case provenance.Maybe:
		schema, err := c.walk(ctx, col.Inner, schemas)
		if err != nil {
			return nil, err
		}
		if schema != nil {
			schemas.put(col, schema)
		}
		return schema, nil

	case provenance.Either:
		left, err := c.walk(ctx, col.Left, schemas)
		if err != nil {
			return nil, err
		}
		right, err := c.walk(ctx, col.Right, schemas)
		if err != nil {
			return nil, err
		}
		var aggregate *InformationSchema
		switch {
		case left != nil && right == nil:
			aggregate = left
		case left == nil && right != nil:
			aggregate = right
		}
		if aggregate != nil {
			schemas.put(col, aggregate)
		}
		return aggregate, nil

	case provenance.Cast:
		schema, err := c.walk(ctx, col.Source, schemas)
		if err != nil {
			return nil, err
		}
		if schema != nil {
			schemas.put(col, schema)
		}
		return schema, nil

	case provenance.BinaryExpr:
		if _, err := c.walk(ctx, col.Left, schemas); err != nil {
			return nil, err
		}
		if _, err := c.walk(ctx, col.Right, schemas); err != nil {
			return nil, err
		}
		return nil, nil
	}
	// Values and unknown expressions carry no catalog identity.
	return nil, nil
}

func (c *Collector) lookup(ctx context.Context, col provenance.DependsOn) (*InformationSchema, error) {
	if schema, ok := c.cache[col]; ok {
		return schema, nil
	}
	schema, err := c.catalog.ColumnSchema(ctx, col.Table, col.Column)
	if err != nil {
		return nil, err
	}
	c.cache[col] = schema
	return schema, nil
}
