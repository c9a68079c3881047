package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldops/dispatchd/core/dispatch"
	"github.com/fieldops/dispatchd/core/geo"
	"github.com/fieldops/dispatchd/core/performance"
	"github.com/fieldops/dispatchd/qa/scenarios"
)

var dispatchFile string

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Score a scenario file offline",
	Long: `Loads a scenario file, runs the scoring engine over its pool and job
and prints the ranked slate as JSON. Runs entirely offline with the default
weight table, the planar distance provider and deterministic tie-breaks.`,
	RunE: runDispatch,
}

func init() {
	dispatchCmd.Flags().StringVarP(&dispatchFile, "file", "f", "", "scenario file")
	_ = dispatchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(dispatchCmd)
}

func runDispatch(cmd *cobra.Command, args []string) error {
	sc, err := scenarios.Load(dispatchFile)
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}
	job, err := sc.Job.ToModel()
	if err != nil {
		return fmt.Errorf("scenario job: %w", err)
	}
	engine, err := dispatch.NewEngine(
		dispatch.DefaultScoringConfig(),
		geo.NewPlanar(),
		performance.NewBucketScorer(),
		dispatch.WithDeterministicTieBreak(),
	)
	if err != nil {
		return err
	}
	res, err := engine.GetTopCandidates(job, sc.Pool())
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
