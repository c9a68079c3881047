package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fieldops/dispatchd/config"
	"github.com/fieldops/dispatchd/infra/mqtt"
)

var poolCmd = &cobra.Command{
	Use:   "pool",
	Short: "Technician pool commands",
}

var poolLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List technicians answering presence pings",
	RunE:  runPoolLs,
}

func init() {
	poolCmd.AddCommand(poolLsCmd)
	rootCmd.AddCommand(poolCmd)
}

func runPoolLs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	discCfg := cfg.MQTT
	suffix := time.Now().UnixNano()
	if discCfg.ClientID != "" {
		discCfg.ClientID = fmt.Sprintf("%s-%d", discCfg.ClientID, suffix)
	} else {
		discCfg.ClientID = fmt.Sprintf("pool-ls-%d", suffix)
	}
	d := cfg.Dispatch.Discovery
	disc, err := mqtt.NewPahoPoolDiscovery(discCfg, d.BroadcastTopic, d.ResponseTopic, d.MagicWord)
	if err != nil {
		return fmt.Errorf("pool discovery: %w", err)
	}
	defer func() {
		if err := disc.Close(); err != nil {
			if _, ferr := fmt.Fprintf(cmd.ErrOrStderr(), "error while closing discovery: %v\n", err); ferr != nil {
				fmt.Println("failed to write to stderr:", ferr)
			}
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	techs, err := disc.Discover(ctx, 2*time.Second)
	if err != nil {
		return err
	}
	for _, t := range techs {
		fmt.Println(t.ID)
	}
	return nil
}
