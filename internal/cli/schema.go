package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/pgbind/pgbind/internal/config"
	"github.com/pgbind/pgbind/internal/schema"
	"github.com/pgbind/pgbind/pkg/infer"
	"github.com/pgbind/pgbind/pkg/rewrite"
	"github.com/pgbind/pgbind/pkg/sqltype"
)

const (
	schemaDisplay = "display"
	schemaLint    = "lint"
)

func newSchemaCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "schema <display|lint> [config]",
		Short: "Introspect every user table and display or lint the result",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			analysis := args[0]
			switch analysis {
			case schemaDisplay, schemaLint:
			default:
				return fmt.Errorf("unknown schema analysis %q", analysis)
			}
			configPath := defaultConfigPath
			if len(args) == 2 {
				configPath = args[1]
			}
			return runSchema(cmd, opts, analysis, configPath)
		},
	}
}

const listTablesQuery = `select table_name
from information_schema.tables
where table_schema not in ('pg_catalog', 'information_schema')
order by table_name`

func listTables(ctx context.Context, pool *pgxpool.Pool) ([]string, error) {
	rows, err := pool.Query(ctx, listTablesQuery)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name *string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		if name != nil {
			tables = append(tables, *name)
		}
	}
	return tables, rows.Err()
}

func runSchema(cmd *cobra.Command, opts *options, analysis, configPath string) error {
	logger := opts.logger()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	pool, err := openPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	catalog := infer.NewPoolCatalog(pool, logger)
	inferrer := buildInferrer(cfg.ExperimentalFeatures, logger)

	tables, err := listTables(ctx, pool)
	if err != nil {
		return err
	}

	var db schema.DbSchema
	for _, table := range tables {
		// Escape double quotes by doubling, per the PostgreSQL
		// identifier quoting rules.
		escaped := strings.ReplaceAll(table, `"`, `""`)
		types, err := inferrer.InferTypes(ctx, catalog, rewrite.ParametrizedQuery{
			RawQuery: `select * from "` + escaped + `"`,
		})
		if err != nil {
			return err
		}
		// A wildcard carries no provenance, so infer again with the columns
		// spelled out to let the passes refine nullability.
		if len(types.Output) > 0 {
			quoted := make([]string, len(types.Output))
			for i, output := range types.Output {
				quoted[i] = `"` + strings.ReplaceAll(output.Name, `"`, `""`) + `"`
			}
			types, err = inferrer.InferTypes(ctx, catalog, rewrite.ParametrizedQuery{
				RawQuery: "select " + strings.Join(quoted, ", ") + ` from "` + escaped + `"`,
			})
			if err != nil {
				return err
			}
		}
		columns := make([]schema.ColumnSchema, 0, len(types.Output))
		for _, output := range types.Output {
			columns = append(columns, schema.ColumnSchema{
				Name:     output.Name,
				DataType: output.SqlType,
				Nullable: output.Nullable == sqltype.NullableTrue,
			})
		}
		db.Tables = append(db.Tables, schema.TableSchema{Name: table, Columns: columns})
	}

	if analysis == schemaDisplay {
		cmd.Print(db.String())
		return nil
	}
	for _, lint := range schema.All() {
		for _, lintError := range lint.Lint(db) {
			cmd.Println(lintError)
		}
	}
	return nil
}
