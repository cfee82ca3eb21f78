package main

import (
	"fmt"
	"strings"

	"github.com/okian/vidtag/internal/domain/labels"
	"github.com/spf13/cobra"
)

func labelsCommand(cc *cliContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labels",
		Short: "Print the event and team vocabularies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := cc.svc.Labels(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "events: %s\n", strings.Join(v.Events, ", "))
			fmt.Fprintf(out, "teams: %s\n", strings.Join(v.Teams, ", "))
			return nil
		},
	}

	var v labels.Vocabulary
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Replace the event and team vocabularies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cc.svc.SaveLabels(cmd.Context(), v)
		},
	}
	setCmd.Flags().StringSliceVar(&v.Events, "events", nil, "Event labels, comma separated")
	setCmd.Flags().StringSliceVar(&v.Teams, "teams", nil, "Team labels, comma separated")

	cmd.AddCommand(setCmd)
	return cmd
}
