package main

import (
	"errors"
	"fmt"
	"os"

	app "github.com/okian/vidtag/internal/app"
	"github.com/okian/vidtag/internal/config"
	"github.com/okian/vidtag/internal/domain/viewport"
	"github.com/okian/vidtag/pkg/logger"
	"github.com/spf13/cobra"
)

// errNoVideo is returned by commands that need --video when it is missing.
var errNoVideo = errors.New("--video is required")

// cliContext carries state shared by all subcommands.
type cliContext struct {
	video string
	fps   float64
	debug bool

	cfg *config.Config
	svc *app.Service
}

// RootCommand creates and returns the root command.
func RootCommand(cc *cliContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "vidtagctl",
		Short:        "Annotate video events from the command line",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cc.video, "video", "v", "", "Video whose record file is edited")
	rootCmd.PersistentFlags().Float64Var(&cc.fps, "fps", 0, "Frame rate of the video (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&cc.debug, "debug", "d", false, "Enable debug output")

	seedCmd := seedCommand(cc)

	rootCmd.AddCommand(
		listCommand(cc),
		addCommand(cc),
		deleteCommand(cc),
		mapCommand(cc),
		overlayCommand(cc),
		labelsCommand(cc),
		seedCmd,
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if err := logger.InitWithWriter(cmd.ErrOrStderr()); err != nil {
			return err
		}
		// seed talks to a server and needs no local service
		if cmd.Name() == seedCmd.Name() {
			return applyLevel(cc, "info")
		}
		return initialize(cc, cmd)
	}
	rootCmd.PersistentPostRun = func(*cobra.Command, []string) {
		if cc.svc != nil {
			cc.svc.Stop()
			cc.svc = nil
		}
	}

	return rootCmd
}

// initialize loads configuration and starts the service.
func initialize(cc *cliContext, cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return err
	}
	cc.cfg = cfg
	if err := applyLevel(cc, cfg.LogLevel); err != nil {
		return err
	}

	opts, err := app.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	svc := app.New(append(opts, app.WithLogger(logger.Get()))...)
	if err := svc.Start(cmd.Context()); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	cc.svc = svc
	return nil
}

func applyLevel(cc *cliContext, level string) error {
	if cc.debug {
		level = "debug"
	}
	return logger.SetLevelString(level)
}

// openVideo opens the --video session and returns its display list.
func openVideo(cc *cliContext, cmd *cobra.Command, frame viewport.Size) ([]string, error) {
	if cc.video == "" {
		return nil, errNoVideo
	}
	if _, err := os.Stat(cc.video); err != nil {
		logger.Get().Debug(cmd.Context(), "video file not readable; using record file only",
			logger.String("video", cc.video), logger.Error(err))
	}
	return cc.svc.Open(cmd.Context(), cc.video, app.OpenOptions{FrameRate: cc.fps, FrameSize: frame})
}

// printList writes one display line per event.
func printList(cmd *cobra.Command, items []string) {
	out := cmd.OutOrStdout()
	for _, line := range items {
		fmt.Fprintln(out, line)
	}
}
