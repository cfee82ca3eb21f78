package main

import (
	"fmt"
	"strconv"

	app "github.com/okian/vidtag/internal/app"
	"github.com/okian/vidtag/internal/domain/viewport"
	"github.com/spf13/cobra"
)

func listCommand(cc *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the recorded events newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := openVideo(cc, cmd, viewport.Size{})
			if err != nil {
				return err
			}
			printList(cmd, items)
			return nil
		},
	}
}

func addCommand(cc *cliContext) *cobra.Command {
	var (
		pair     app.LabelPair
		position int64
		x, y     int
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an event and merge it into the record file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var coord *viewport.Point
			switch xSet, ySet := cmd.Flags().Changed("x"), cmd.Flags().Changed("y"); {
			case xSet && ySet:
				coord = &viewport.Point{X: x, Y: y}
			case xSet || ySet:
				return fmt.Errorf("--x and --y must be given together")
			}

			if _, err := openVideo(cc, cmd, viewport.Size{}); err != nil {
				return err
			}
			items, err := cc.svc.Add(cmd.Context(), pair, position, coord)
			if err != nil {
				return err
			}
			printList(cmd, items)
			return nil
		},
	}

	cmd.Flags().StringVarP(&pair.Event, "event", "e", "", "Event label")
	cmd.Flags().StringVarP(&pair.Team, "team", "t", "", "Team label")
	cmd.Flags().Int64Var(&position, "ms", 0, "Video position in milliseconds")
	cmd.Flags().IntVar(&x, "x", 0, "Frame x coordinate")
	cmd.Flags().IntVar(&y, "y", 0, "Frame y coordinate")
	_ = cmd.MarkFlagRequired("event")
	_ = cmd.MarkFlagRequired("team")
	_ = cmd.MarkFlagRequired("ms")

	return cmd
}

func deleteCommand(cc *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete INDEX",
		Short: "Delete the event at a display index and rewrite the record file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid index %q: %w", args[0], err)
			}
			if _, err := openVideo(cc, cmd, viewport.Size{}); err != nil {
				return err
			}
			items, err := cc.svc.Delete(cmd.Context(), index)
			if err != nil {
				return err
			}
			printList(cmd, items)
			return nil
		},
	}
}
