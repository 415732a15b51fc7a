package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Ning0612/aud/internal/config"
	"github.com/Ning0612/aud/internal/core/plan"
	"github.com/Ning0612/aud/internal/domain"
	"github.com/Ning0612/aud/internal/logger"
	"github.com/Ning0612/aud/internal/service"
)

type previewFile struct {
	Original  string   `yaml:"original"`
	Predicted []string `yaml:"predicted"`
}

type previewCollision struct {
	Path    string   `yaml:"path"`
	Sources []string `yaml:"sources"`
}

type previewReport struct {
	Directory  string             `yaml:"directory"`
	Operations []string           `yaml:"operations"`
	Files      []previewFile      `yaml:"files"`
	Outputs    int                `yaml:"outputs"`
	Collisions []previewCollision `yaml:"collisions,omitempty"`
}

func newPreviewCmd(stdout, stderr io.Writer) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show what the pipeline would do without touching any file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "text" && output != "yaml" {
				return fmt.Errorf("unknown output format %q: use text or yaml", output)
			}

			cfg, err := setup(stderr, true)
			if err != nil {
				return err
			}
			report, err := buildPreview(cfg)
			if err != nil {
				return err
			}

			if output == "yaml" {
				enc := yaml.NewEncoder(stdout)
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(report)
			}
			printPreview(stdout, report)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or yaml")
	return cmd
}

func buildPreview(cfg *config.Config) (*previewReport, error) {
	ops, err := cfg.Operations()
	if err != nil {
		return nil, err
	}
	d, err := service.NewDirectory(cfg.Directory, service.Options{
		Rules:  cfg.Selection,
		Logger: logger.Get(),
	})
	if err != nil {
		return nil, err
	}

	previews := d.Preview(ops...)
	report := &previewReport{Directory: d.Path()}
	for _, op := range ops {
		report.Operations = append(report.Operations, string(op.Kind()))
	}
	for _, pv := range previews {
		report.Files = append(report.Files, previewFile{
			Original:  pv.Original.Name(),
			Predicted: relativeTo(d.Path(), pv.Predicted),
		})
	}
	report.Outputs = len(plan.Outputs(previews))
	for _, c := range plan.Collisions(previews) {
		report.Collisions = append(report.Collisions, previewCollision{
			Path:    c.Path,
			Sources: domain.Names(c.Sources),
		})
	}
	return report, nil
}

// relativeTo shows files inside dir by name and others by full path
func relativeTo(dir string, files []domain.File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		if f.Dir() == dir {
			out[i] = f.Name()
		} else {
			out[i] = f.Path()
		}
	}
	return out
}

func printPreview(w io.Writer, r *previewReport) {
	bold := color.New(color.Bold)
	changed := color.New(color.FgGreen)
	same := color.New(color.Faint)

	fmt.Fprintf(w, "%s %s\n", bold.Sprint("directory:"), r.Directory) //nolint:errcheck
	for i, op := range r.Operations {
		fmt.Fprintf(w, "  %d. %s\n", i+1, op) //nolint:errcheck
	}
	fmt.Fprintln(w) //nolint:errcheck

	for _, f := range r.Files {
		for _, p := range f.Predicted {
			if p == f.Original {
				fmt.Fprintf(w, "  %s\n", same.Sprint(f.Original)) //nolint:errcheck
				continue
			}
			fmt.Fprintf(w, "  %s -> %s\n", f.Original, changed.Sprint(p)) //nolint:errcheck
		}
	}

	fmt.Fprintf(w, "\n%d files -> %d outputs\n", len(r.Files), r.Outputs) //nolint:errcheck

	if len(r.Collisions) == 0 {
		return
	}
	warn := color.New(color.FgRed, color.Bold)
	fmt.Fprintf(w, "\n%s\n", warn.Sprintf("%d collisions:", len(r.Collisions))) //nolint:errcheck
	for _, c := range r.Collisions {
		fmt.Fprintf(w, "  %s <- %v\n", filepath.Base(c.Path), c.Sources) //nolint:errcheck
	}
}
