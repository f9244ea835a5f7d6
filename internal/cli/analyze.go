package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pgbind/pgbind/pkg/infer"
	"github.com/pgbind/pgbind/pkg/provenance"
	"github.com/pgbind/pgbind/pkg/rewrite"
)

const (
	analysisColumns       = "columns"
	analysisTables        = "tables"
	analysisColumnsWithDB = "columns-with-db"
)

func newAnalyzeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <columns|tables|columns-with-db> <query-or-file>...",
		Short: "Print provenance information for ad-hoc queries",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			analysis := args[0]
			switch analysis {
			case analysisColumns, analysisTables, analysisColumnsWithDB:
			default:
				return fmt.Errorf("unknown analysis %q", analysis)
			}
			return runAnalyze(cmd, opts, analysis, args[1:])
		},
	}
}

// queryText treats an argument as a file path when one exists, else as
// literal SQL.
func queryText(arg string) (string, error) {
	info, err := os.Stat(arg)
	if err == nil && info.Mode().IsRegular() {
		raw, err := os.ReadFile(arg)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	return arg, nil
}

func runAnalyze(cmd *cobra.Command, opts *options, analysis string, queries []string) error {
	var collector *infer.Collector
	if analysis == analysisColumnsWithDB {
		logger := opts.logger()
		defer func() { _ = logger.Sync() }()
		pool, err := openPool(cmd.Context())
		if err != nil {
			return err
		}
		defer pool.Close()
		collector = infer.NewCollector(infer.NewPoolCatalog(pool, logger))
	}

	for _, arg := range queries {
		text, err := queryText(arg)
		if err != nil {
			return err
		}
		parametrized, err := rewrite.Rewrite(text)
		if err != nil {
			return err
		}
		statements, err := provenance.ToAST(parametrized.RawQuery)
		if err != nil {
			return err
		}
		for _, statement := range statements {
			if analysis == analysisTables {
				tables, err := provenance.FindTables(statement)
				if err != nil {
					return err
				}
				for _, table := range tables {
					cmd.Println(table)
				}
				continue
			}

			fields, err := provenance.FindFields(statement)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(fields))
			for name := range fields {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				source := fields[name]
				if collector == nil {
					cmd.Printf("%s: %s\n", name, source)
					continue
				}
				schemas, err := collector.Collect(cmd.Context(), source)
				if err != nil {
					return err
				}
				facts := []string{fmt.Sprintf("nullable: %s", infer.NullabilityOf(source, schemas))}
				if schema, ok := schemas.Get(source); ok {
					if schema.CharacterMaximumLength != nil {
						facts = append(facts, fmt.Sprintf("length: %d", *schema.CharacterMaximumLength))
					}
					if schema.NumericPrecision != nil && schema.NumericScale != nil {
						facts = append(facts,
							fmt.Sprintf("precision: %d, scale: %d", *schema.NumericPrecision, *schema.NumericScale))
					}
				}
				cmd.Printf("%s: %s (%s)\n", name, source, strings.Join(facts, ", "))
			}
		}
	}
	return nil
}
