// aud selects files in a music directory and runs pipelines of renames,
// audio effects and conversions on them.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Ning0612/aud/internal/config"
	"github.com/Ning0612/aud/internal/domain"
	"github.com/Ning0612/aud/internal/logger"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// errExit signals a non-zero exit after the command printed its own error
var errExit = errors.New("exit")

var (
	// configFlag is the profile path. Empty means search the default paths.
	configFlag   string
	logLevelFlag string
)

// run executes the CLI with args and returns the exit code
func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if serr := logger.Shutdown(); serr != nil {
		fmt.Fprintf(stderr, "aud: closing log: %v\n", serr) //nolint:errcheck
	}
	if err != nil {
		if !errors.Is(err, errExit) {
			fmt.Fprintf(stderr, "%s %v\n", color.RedString("aud:"), err) //nolint:errcheck
		}
		return 1
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "aud",
		Short:         "Select audio files and run rename, effect and conversion pipelines on them",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&configFlag, "config", "", "profile to use (default: search for aud.yaml)")
	root.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "diagnostic log level: debug, info, warn or error")
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		newLsCmd(stdout, stderr),
		newPreviewCmd(stdout, stderr),
		newRunCmd(stdout, stderr),
		newHistoryCmd(stdout, stderr),
		newVersionCmd(stdout),
	)
	return root
}

// setup loads the profile and starts diagnostic logging on stderr. When
// required is false a missing profile yields a nil config.
func setup(stderr io.Writer, required bool) (*config.Config, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		if required || configFlag != "" || !errors.Is(err, domain.ErrConfigNotFound) {
			return nil, err
		}
		cfg = nil
	}

	lc := logger.Config{
		Level:   logger.LevelWarn,
		Outputs: []logger.OutputConfig{{Type: logger.OutputStderr}},
	}
	if cfg != nil {
		lc = cfg.LoggerConfig()
	}
	if logLevelFlag != "" {
		lc.Level = logger.ParseLevel(logLevelFlag)
	}
	for i := range lc.Outputs {
		if lc.Outputs[i].Type == logger.OutputStderr {
			lc.Outputs[i].Writer = stderr
		}
	}

	if err := logger.Init(lc); err != nil {
		return nil, err
	}
	return cfg, nil
}
