package main

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/okian/vidtag/internal/seed"
	"github.com/spf13/cobra"
)

// Default seeding constants.
const (
	defaultNumEvents = 200
	defaultWorkers   = 2 // multiplier for runtime.NumCPU()
	defaultTimeout   = 30 * time.Second
	defaultSeedLimit = 10 * time.Minute
)

func seedCommand(cc *cliContext) *cobra.Command {
	cfg := &seed.Config{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Submit generated events to a running server and verify the list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg.Verbose = cc.debug
			ctx, cancel := context.WithTimeout(cmd.Context(), defaultSeedLimit)
			defer cancel()

			stats, err := seed.Run(ctx, cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "submitted %d, accepted %d, listed %d\n", stats.EventsSubmitted, stats.EventsSuccessful, stats.EventsAfter)
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "Base URL of the service")
	cmd.Flags().StringVar(&cfg.VideoPath, "open", "", "Video to open on the server before seeding")
	cmd.Flags().IntVar(&cfg.NumEvents, "events", defaultNumEvents, "Number of events to generate and submit")
	cmd.Flags().IntVar(&cfg.Workers, "workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	cmd.Flags().Int64Var(&cfg.MaxVideoMS, "max-ms", 0, "Upper bound for generated positions")
	cmd.Flags().StringSliceVar(&cfg.Events, "labels", nil, "Event labels to draw from")
	cmd.Flags().StringSliceVar(&cfg.Teams, "teams", nil, "Team labels to draw from")
	cmd.Flags().StringVar(&cfg.OutputFile, "output", "", "Write generated events to this JSON file")

	return cmd
}
