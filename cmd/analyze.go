package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/soufianos01/sanitizer-checker/api/schemas"
	"github.com/soufianos01/sanitizer-checker/internal/driver"
	"github.com/soufianos01/sanitizer-checker/internal/evaluator"
	"github.com/soufianos01/sanitizer-checker/internal/observability"
	"github.com/soufianos01/sanitizer-checker/internal/reporting"
	"github.com/soufianos01/sanitizer-checker/internal/store"
	"github.com/soufianos01/sanitizer-checker/pkg/attackpatterns"
	"github.com/soufianos01/sanitizer-checker/pkg/automaton"
	"github.com/soufianos01/sanitizer-checker/pkg/depgraph"
)

// vulnerabilitiesFoundError signals that analysis completed cleanly but at
// least one (field, context) pair came back vulnerable — distinct from an
// input/internal failure so Execute can map it to exit code 1 rather than 2.
type vulnerabilitiesFoundError struct {
	count int
}

func (e *vulnerabilitiesFoundError) Error() string {
	return fmt.Sprintf("%d verdict(s) reported vulnerable", e.count)
}

func newAnalyzeCmd() *cobra.Command {
	var (
		contextNames []string
		outDir       string
		format       string
	)

	analyzeCmd := &cobra.Command{
		Use:   "analyze <depgraph-file> <field>",
		Short: "Runs forward and backward reachability analysis over a dependency graph",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0], args[1], contextNames, outDir, format)
		},
	}

	analyzeCmd.Flags().StringSliceVar(&contextNames, "context", attackpatterns.ContextNames(), "attack contexts to check (repeatable); defaults to every known context")
	analyzeCmd.Flags().StringVar(&outDir, "outdir", "", "directory to write per-context DOT files into (default: none)")
	analyzeCmd.Flags().StringVar(&format, "format", "json", "report format: json or sarif")
	return analyzeCmd
}

func runAnalyze(cmd *cobra.Command, graphPath, field string, contextNames []string, outDir, format string) error {
	ctx := cmd.Context()
	cfg := configFrom(cmd)
	runID := uuid.New().String()
	logger := observability.GetLogger().With(zap.String("run_id", runID))
	logger.Info("starting analysis", zap.String("graph", graphPath), zap.String("field", field))

	f, err := os.Open(graphPath)
	if err != nil {
		return fmt.Errorf("failed to open dependency graph %q: %w", graphPath, err)
	}
	defer f.Close()

	g, err := depgraph.LoadText(f)
	if err != nil {
		return fmt.Errorf("failed to parse dependency graph: %w", err)
	}

	contexts := make([]driver.Context, 0, len(contextNames))
	for _, name := range contextNames {
		ac, ok := attackpatterns.ParseContext(name)
		if !ok {
			return fmt.Errorf("unknown attack context %q", name)
		}
		contexts = append(contexts, driver.FromCatalogue(name, ac))
	}

	limits := evaluator.Limits{
		WideningThreshold:  cfg.Limits().WideningThreshold,
		MaxAutomatonStates: cfg.Limits().MaxAutomatonStates,
	}

	verdicts, err := driver.CombinedAnalysis(ctx, g, field, automaton.AnyString(), contexts, cfg.Engine().WorkerConcurrency, limits)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	recs := make([]schemas.VerdictRecord, 0, len(verdicts))
	vulnerable, unknown := 0, 0
	for _, v := range verdicts {
		rec := reporting.ToRecord(field, v)
		switch rec.Verdict {
		case schemas.VerdictVulnerable:
			vulnerable++
		case schemas.VerdictUnknown:
			unknown++
		}
		recs = append(recs, rec)
	}

	if err := writeReport(recs, outDir, format); err != nil {
		return err
	}

	if dsn := cfg.Store().PostgresDSN; dsn != "" {
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return fmt.Errorf("failed to connect to verdict store: %w", err)
		}
		defer pool.Close()

		s, err := store.New(ctx, pool, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize verdict store: %w", err)
		}
		if err := s.PersistVerdicts(ctx, recs); err != nil {
			return fmt.Errorf("failed to persist verdicts: %w", err)
		}
	}

	if vulnerable > 0 {
		return &vulnerabilitiesFoundError{count: vulnerable}
	}
	if unknown > 0 {
		return fmt.Errorf("%d verdict(s) could not be decided", unknown)
	}
	return nil
}

func writeReport(recs []schemas.VerdictRecord, outDir, format string) error {
	switch format {
	case "sarif":
		reporter := reporting.NewSARIFReporter(nopCloser{os.Stdout}, Version)
		if err := reporter.Write(recs); err != nil {
			return err
		}
		if err := reporter.Close(); err != nil {
			return err
		}
	default:
		if err := reporting.WriteJSON(os.Stdout, recs); err != nil {
			return fmt.Errorf("failed to write JSON report: %w", err)
		}
	}

	if outDir == "" {
		return nil
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create outdir %q: %w", outDir, err)
	}
	for _, rec := range recs {
		if rec.Intersection == "" {
			continue
		}
		path := filepath.Join(outDir, rec.Context+".dot")
		if err := os.WriteFile(path, []byte(rec.Intersection), 0o644); err != nil {
			return fmt.Errorf("failed to write %q: %w", path, err)
		}
	}
	return nil
}

type nopCloser struct{ *os.File }

func (nopCloser) Close() error { return nil }
