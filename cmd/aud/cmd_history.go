package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/Ning0612/aud/internal/config"
	"github.com/Ning0612/aud/internal/domain"
	"github.com/Ning0612/aud/internal/state"
)

func newHistoryCmd(stdout, stderr io.Writer) *cobra.Command {
	var (
		limit int
		all   bool
	)

	cmd := &cobra.Command{
		Use:   "history [dir]",
		Short: "Show the operations run on a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(stderr, false)
			if err != nil {
				return err
			}

			dataDir, dir := config.DataDir(), "."
			if cfg != nil {
				dataDir, dir = cfg.HistoryDir(), cfg.Directory
			}
			if len(args) == 1 {
				dir = args[0]
			}
			dir = domain.NewFile(dir).Path()

			journal, err := state.Open(dataDir)
			if err != nil {
				return err
			}
			defer journal.Close()

			var records []state.Record
			if all {
				records, err = journal.AllHistory(limit)
			} else {
				records, err = journal.History(dir, limit)
			}
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintf(stdout, "no history for %s\n", dir) //nolint:errcheck
				return nil
			}

			table, err := historyTable(records, all)
			if err != nil {
				return err
			}
			fmt.Fprint(stdout, table) //nolint:errcheck
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of operations to show")
	cmd.Flags().BoolVar(&all, "all", false, "show every directory")
	return cmd
}

func historyTable(records []state.Record, withDir bool) (string, error) {
	header := []string{"Time", "Run", "Action", "Files", "Status", "Duration"}
	if withDir {
		header = append(header, "Directory")
	}
	data := pterm.TableData{header}

	for _, r := range records {
		status := color.GreenString(r.Status)
		if r.Status == state.StatusFailed {
			status = color.RedString(r.Status)
		}
		runID := r.RunID
		if len(runID) > 8 {
			runID = runID[:8]
		}
		row := []string{
			r.StartTime.Local().Format(time.DateTime),
			runID,
			r.Action,
			strconv.Itoa(r.FilesIn) + " -> " + strconv.Itoa(r.FilesOut),
			status,
			r.Duration().Round(time.Millisecond).String(),
		}
		if withDir {
			row = append(row, r.Directory)
		}
		data = append(data, row)
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return "", err
	}
	return table + "\n", nil
}
