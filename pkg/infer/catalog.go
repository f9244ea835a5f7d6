// Package infer determines the input and output type signature of a
// parameterized query by preparing it against a live PostgreSQL catalog and
// refining the result through provenance-driven passes.
package infer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/pgbind/pgbind/pkg/sqltype"
)

// InformationSchema is the per-column record fetched from
// information_schema.columns. Absent facts stay nil.
type InformationSchema struct {
	IsNullable             *bool
	CharacterMaximumLength *int32
	NumericPrecision       *int32
	NumericPrecisionRadix  *int32
	NumericScale           *int32
	ColumnDefault          *string
}

// StatementColumn is one output column of a prepared statement.
type StatementColumn struct {
	Name string
	Type sqltype.SqlType
}

// StatementInfo is the authoritative signature PostgreSQL reports for a
// prepared statement.
type StatementInfo struct {
	Columns []StatementColumn
	Params  []sqltype.SqlType
}

// Catalog is the database surface the inference driver needs: a prepare
// round-trip and targeted information_schema lookups.
type Catalog interface {
	Prepare(ctx context.Context, query string) (*StatementInfo, error)
	ColumnSchema(ctx context.Context, table, column string) (*InformationSchema, error)
}

const informationSchemaQuery = `select
    (is_nullable = 'YES') as is_nullable,
    character_maximum_length,
    numeric_precision,
    numeric_precision_radix,
    numeric_scale,
    column_default
from
    information_schema.columns
where
    table_name = $1
    and column_name = $2`

const typeNameQuery = `select
    t.typname,
    t.typtype = 'e' as is_enum,
    coalesce(array_agg(e.enumlabel order by e.enumsortorder)
             filter (where e.enumlabel is not null), '{}') as labels
from pg_type t
left join pg_enum e on e.enumtypid = t.oid
where t.oid = $1
group by t.typname, t.typtype`

// PoolCatalog implements Catalog over a pgx pool.
type PoolCatalog struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPoolCatalog(pool *pgxpool.Pool, logger *zap.Logger) *PoolCatalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PoolCatalog{pool: pool, logger: logger}
}

// Prepare runs the server-side prepare round-trip and maps the reported
// column and parameter OIDs onto SqlTypes.
func (c *PoolCatalog) Prepare(ctx context.Context, query string) (*StatementInfo, error) {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	name := "pgbind_" + uuid.NewString()
	description, err := conn.Conn().Prepare(ctx, name, query)
	if err != nil {
		return nil, fmt.Errorf("prepare statement: %w", err)
	}
	defer func() { _ = conn.Conn().Deallocate(ctx, name) }()

	info := &StatementInfo{
		Columns: make([]StatementColumn, 0, len(description.Fields)),
		Params:  make([]sqltype.SqlType, 0, len(description.ParamOIDs)),
	}
	for _, field := range description.Fields {
		typ, err := c.typeForOID(ctx, conn, field.DataTypeOID)
		if err != nil {
			return nil, err
		}
		info.Columns = append(info.Columns, StatementColumn{Name: field.Name, Type: typ})
	}
	for _, oid := range description.ParamOIDs {
		typ, err := c.typeForOID(ctx, conn, oid)
		if err != nil {
			return nil, err
		}
		info.Params = append(info.Params, typ)
	}
	return info, nil
}

// typeForOID resolves an OID through pgx's type map first and falls back to
// pg_type for user-defined types, where enums surface their label list.
// Names outside the built-in table degrade to Unknown.
func (c *PoolCatalog) typeForOID(ctx context.Context, conn *pgxpool.Conn, oid uint32) (sqltype.SqlType, error) {
	if known, ok := conn.Conn().TypeMap().TypeForOID(oid); ok {
		return c.parseName(known.Name), nil
	}

	var name string
	var isEnum bool
	var labels []string
	row := conn.QueryRow(ctx, typeNameQuery, oid)
	if err := row.Scan(&name, &isEnum, &labels); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.logger.Warn("type oid missing from pg_type", zap.Uint32("oid", oid))
			return sqltype.Unknown(), nil
		}
		return sqltype.SqlType{}, fmt.Errorf("look up type oid %d: %w", oid, err)
	}
	if isEnum {
		return sqltype.Enum(name, labels), nil
	}
	return c.parseName(name), nil
}

func (c *PoolCatalog) parseName(name string) sqltype.SqlType {
	typ, err := sqltype.ParseTypeName(name)
	if err != nil {
		c.logger.Warn("unrecognized catalog type", zap.String("type", name))
	}
	return typ
}

// ColumnSchema fetches the information_schema record for one physical
// column; nil without error when the catalog has no such column.
func (c *PoolCatalog) ColumnSchema(ctx context.Context, table, column string) (*InformationSchema, error) {
	var info InformationSchema
	row := c.pool.QueryRow(ctx, informationSchemaQuery, table, column)
	err := row.Scan(
		&info.IsNullable,
		&info.CharacterMaximumLength,
		&info.NumericPrecision,
		&info.NumericPrecisionRadix,
		&info.NumericScale,
		&info.ColumnDefault,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("information_schema lookup for %s.%s: %w", table, column, err)
	}
	return &info, nil
}
