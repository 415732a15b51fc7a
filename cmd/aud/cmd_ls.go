package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Ning0612/aud/internal/core/selection"
	"github.com/Ning0612/aud/internal/logger"
	"github.com/Ning0612/aud/internal/service"
)

// selectionFlags override the selection rules of the profile
type selectionFlags struct {
	exts         []string
	allow        []string
	allowPattern string
	allowGlobs   []string
	deny         []string
	denyPattern  string
	denyGlobs    []string
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.exts, "ext", "e", nil, "extensions to select, e.g. wav,flac")
	cmd.Flags().StringSliceVar(&f.allow, "allow", nil, "file names always selected")
	cmd.Flags().StringVar(&f.allowPattern, "allow-pattern", "", "regular expression matched at the start of names always selected")
	cmd.Flags().StringSliceVar(&f.allowGlobs, "allow-glob", nil, "glob patterns always selected")
	cmd.Flags().StringSliceVar(&f.deny, "deny", nil, "file names never selected")
	cmd.Flags().StringVar(&f.denyPattern, "deny-pattern", "", "regular expression matched at the start of names never selected")
	cmd.Flags().StringSliceVar(&f.denyGlobs, "deny-glob", nil, "glob patterns never selected")
}

// apply overrides the rules named by the flags that were set
func (f *selectionFlags) apply(cmd *cobra.Command, rules selection.Rules) selection.Rules {
	changed := cmd.Flags().Changed
	if changed("ext") {
		rules.Extensions = f.exts
	}
	if changed("allow") {
		rules.Allow.Names = f.allow
	}
	if changed("allow-pattern") {
		rules.Allow.Pattern = f.allowPattern
	}
	if changed("allow-glob") {
		rules.Allow.Globs = f.allowGlobs
	}
	if changed("deny") {
		rules.Deny.Names = f.deny
	}
	if changed("deny-pattern") {
		rules.Deny.Pattern = f.denyPattern
	}
	if changed("deny-glob") {
		rules.Deny.Globs = f.denyGlobs
	}
	return rules
}

func newLsCmd(stdout, stderr io.Writer) *cobra.Command {
	var flags selectionFlags

	cmd := &cobra.Command{
		Use:   "ls [dir]",
		Short: "List the files the selection rules pick",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(stderr, false)
			if err != nil {
				return err
			}

			dir := "."
			var rules selection.Rules
			if cfg != nil {
				dir, rules = cfg.Directory, cfg.Selection
			}
			if len(args) == 1 {
				dir = args[0]
			}

			d, err := service.NewDirectory(dir, service.Options{
				Rules:  flags.apply(cmd, rules),
				Logger: logger.Get(),
			})
			if err != nil {
				return err
			}

			index := color.New(color.FgCyan)
			for i, f := range d.Files() {
				fmt.Fprintf(stdout, "%s  %s\n", index.Sprintf("%3d", i), f.Name()) //nolint:errcheck
			}
			fmt.Fprintf(stdout, "%d selected in %s\n", d.Len(), d.Path()) //nolint:errcheck
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
