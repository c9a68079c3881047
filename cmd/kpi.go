package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fieldops/dispatchd/config"
	"github.com/fieldops/dispatchd/core/dispatch/logging"
	"github.com/fieldops/dispatchd/core/factory"
	infrakpi "github.com/fieldops/dispatchd/infra/kpi"
	"github.com/fieldops/dispatchd/jobs/kpibackfill"
)

var (
	kpiStart string
	kpiEnd   string
)

var kpiCmd = &cobra.Command{
	Use:   "kpi",
	Short: "Dispatch KPI commands",
}

var kpiBackfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Rebuild KPI aggregates from the decision log",
	RunE:  runKPIBackfill,
}

func init() {
	kpiBackfillCmd.Flags().StringVar(&kpiStart, "start", "", "window start (RFC3339)")
	kpiBackfillCmd.Flags().StringVar(&kpiEnd, "end", "", "window end (RFC3339)")
	kpiCmd.AddCommand(kpiBackfillCmd)
	rootCmd.AddCommand(kpiCmd)
}

func runKPIBackfill(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	// The memory backend dies with the process; only sqlite is worth filling.
	if cfg.KPI.Backend != "sqlite" {
		return fmt.Errorf("kpi backfill requires the sqlite backend, config has %q", cfg.KPI.Backend)
	}

	logStore, err := logging.NewStore(factory.ModuleConfig{
		Type: cfg.Logging.Backend,
		Conf: map[string]any{"path": cfg.Logging.Path},
	})
	if err != nil {
		return fmt.Errorf("open log store: %w", err)
	}
	defer func() {
		if err := logStore.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "close log store: %v\n", err)
		}
	}()

	q := logging.LogQuery{}
	if kpiStart != "" {
		t, err := time.Parse(time.RFC3339, kpiStart)
		if err != nil {
			return fmt.Errorf("parse start: %w", err)
		}
		q.Start = t
	}
	if kpiEnd != "" {
		t, err := time.Parse(time.RFC3339, kpiEnd)
		if err != nil {
			return fmt.Errorf("parse end: %w", err)
		}
		q.End = t
	}
	records, err := logStore.Query(cmd.Context(), q)
	if err != nil {
		return err
	}

	store, err := infrakpi.NewSQLiteStore(cfg.KPI.Path)
	if err != nil {
		return fmt.Errorf("open kpi store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "close kpi store: %v\n", err)
		}
	}()

	if err := kpibackfill.Backfill(store, records); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "backfilled %d decision records\n", len(records))
	return nil
}
