// Package cli assembles the pgbind command tree.
package cli

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pgbind/pgbind/internal/config"
	"github.com/pgbind/pgbind/pkg/infer"
)

type options struct {
	verbose bool
}

// logger builds the CLI logger: console output on stderr, debug level when
// --verbose is set.
func (o *options) logger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	if o.verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// New returns the root command.
func New() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "pgbind",
		Short: "Typed client bindings for parameterized PostgreSQL queries",
		Long: "pgbind prepares parameterized queries against a live PostgreSQL\n" +
			"catalog and emits typed client-side bindings.",
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	root.AddCommand(newGenerateCmd(opts))
	root.AddCommand(newAnalyzeCmd(opts))
	root.AddCommand(newSchemaCmd(opts))
	return root
}

// openPool connects a single-connection pool using DATABASE_URL.
func openPool(ctx context.Context) (*pgxpool.Pool, error) {
	url, err := config.DBURL()
	if err != nil {
		return nil, err
	}
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 1
	return pgxpool.NewWithConfig(ctx, cfg)
}

// buildInferrer registers the passes the feature flags enable. Order
// matters: later passes observe earlier refinements.
func buildInferrer(features config.Features, logger *zap.Logger) *infer.Inferrer {
	builder := infer.NewBuilder().WithLogger(logger)
	if features.Nullability() {
		builder.AddInformationSchemaPass(infer.ColumnNullability{})
	}
	if features.DecimalPrecision() {
		builder.AddInformationSchemaPass(infer.DecimalPrecision{})
	}
	if features.TextLength() {
		builder.AddInformationSchemaPass(infer.TextLength{})
	}
	return builder.Build()
}
