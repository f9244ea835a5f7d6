package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pgbind/pgbind/internal/config"
	"github.com/pgbind/pgbind/internal/logutil"
	"github.com/pgbind/pgbind/pkg/codegen"
	"github.com/pgbind/pgbind/pkg/infer"
	"github.com/pgbind/pgbind/pkg/rewrite"
)

const defaultConfigPath = "pgbind.toml"

func newGenerateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "generate [config]",
		Short: "Infer types for every query file and write the configured artifact",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := defaultConfigPath
			if len(args) == 1 {
				configPath = args[0]
			}
			return runGenerate(cmd, opts, configPath)
		},
	}
}

func runGenerate(cmd *cobra.Command, opts *options, configPath string) error {
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
	generator := cfg.Generator()

	seen := make(map[string]bool)
	for _, dir := range cfg.Path {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("read query directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".sql") {
				logger.Debug("skipping non-query file", zap.String("file", entry.Name()))
				continue
			}
			name := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
			if seen[name] {
				logger.Error("query name already exists, skipping", logutil.Query(name))
				continue
			}

			raw, err := os.ReadFile(filepath.Join(dir, entry.Name()))
			if err != nil {
				return fmt.Errorf("read query file: %w", err)
			}
			parametrized, err := rewrite.Rewrite(string(raw))
			if err != nil {
				return err
			}

			types, err := inferrer.InferTypes(ctx, catalog, parametrized)
			if err != nil {
				// A failing query is reported and skipped; the batch
				// continues.
				logger.Error("check failed", logutil.Query(name), zap.Error(err))
				continue
			}
			logger.Info("check successful", logutil.Query(name))

			err = generator.Push(name, codegen.QueryDefinition{
				Query:   string(raw),
				Inputs:  types.Input,
				Outputs: types.Output,
			})
			if err != nil {
				logger.Error("emit failed", logutil.Query(name), zap.Error(err))
				continue
			}
			seen[name] = true
		}
	}

	code, err := generator.Finalize()
	if err != nil {
		return err
	}
	if err := os.WriteFile(cfg.Target, []byte(code), 0o644); err != nil {
		return fmt.Errorf("write target: %w", err)
	}
	logger.Info("wrote artifact", logutil.Values(
		zap.String("target", cfg.Target),
		zap.Int("queries", len(seen)),
	))
	return nil
}
