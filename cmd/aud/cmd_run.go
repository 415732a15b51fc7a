package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Ning0612/aud/internal/lock"
	"github.com/Ning0612/aud/internal/logger"
	"github.com/Ning0612/aud/internal/media/ffmpeg"
	"github.com/Ning0612/aud/internal/progress"
	"github.com/Ning0612/aud/internal/service"
	"github.com/Ning0612/aud/internal/state"
)

func newRunCmd(stdout, stderr io.Writer) *cobra.Command {
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline of the profile on its directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(stderr, true)
			if err != nil {
				return err
			}
			log := logger.With("command", "run")

			ops, err := cfg.Operations()
			if err != nil {
				return err
			}
			if len(ops) == 0 {
				return fmt.Errorf("the pipeline of %s is empty", cfg.Directory)
			}

			dirLock, err := lock.NewDirLock(cfg.LockDir(), cfg.Directory)
			if err != nil {
				return err
			}
			if err := dirLock.Acquire("run"); err != nil {
				return err
			}
			defer func() {
				if err := dirLock.Release(); err != nil {
					log.Error("failed to release directory lock", "dir", cfg.Directory, "error", err)
				}
			}()

			opts := service.Options{
				Rules:   cfg.Selection,
				LogFile: cfg.LogFile,
				Backend: ffmpeg.New(ffmpeg.Config{
					FFmpeg:  cfg.Media.FFmpeg,
					FFprobe: cfg.Media.FFprobe,
					Runner:  ffmpeg.ExecRunner{Timeout: cfg.Media.Timeout},
				}),
				VerifyCopies: cfg.VerifyCopies,
				Workers:      cfg.Media.Workers,
				Logger:       log,
			}
			if !noProgress {
				opts.Reporter = newBarReporter(stderr)
			} else {
				opts.Reporter = progress.NullReporter{}
			}
			if cfg.History.Enabled {
				journal, err := state.Open(cfg.HistoryDir())
				if err != nil {
					return err
				}
				defer journal.Close()
				opts.Journal = journal
			}

			d, err := service.NewDirectory(cfg.Directory, opts)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Info("running pipeline", "dir", d.Path(), "files", d.Len(), "steps", len(ops), "run", d.RunID())
			if err := d.Apply(ctx, ops...); err != nil {
				return err
			}

			fmt.Fprintf(stdout, "%s %d steps on %d files in %s\n", //nolint:errcheck
				color.GreenString("done:"), len(ops), d.Len(), d.Path())
			return nil
		},
	}
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "do not draw progress bars")
	return cmd
}
