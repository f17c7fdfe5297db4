package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rpattn/driverlog/internal/domain"
	"github.com/rpattn/driverlog/internal/export"
)

var exportOpts struct {
	from   string
	to     string
	driver string
	format string
	out    string
}

var exportCmd = &cobra.Command{
	Use:       "export logs|stops",
	Short:     "Write a filtered export to stdout or a file",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(export.KindLogs), string(export.KindStops)},
	RunE:      runExport,
}

func init() {
	flags := exportCmd.Flags()
	flags.StringVar(&exportOpts.from, "from", "", "earliest date, YYYY-MM-DD")
	flags.StringVar(&exportOpts.to, "to", "", "latest date, YYYY-MM-DD")
	flags.StringVar(&exportOpts.driver, "driver", "", "driver name substring")
	flags.StringVar(&exportOpts.format, "format", "csv", "output format: csv, xlsx")
	flags.StringVar(&exportOpts.out, "out", "", "output file (default stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	kind := export.Kind(args[0])
	if kind != export.KindLogs && kind != export.KindStops {
		return fmt.Errorf("unknown export %q, want logs or stops", args[0])
	}
	format, err := export.ParseFormat(exportOpts.format)
	if err != nil {
		return err
	}
	filter := domain.LogFilter{From: exportOpts.from, To: exportOpts.to, Driver: exportOpts.driver}.Normalized()

	a, err := openApp(cmd.Context(), settings)
	if err != nil {
		return err
	}
	defer a.Close()

	var w io.Writer = cmd.OutOrStdout()
	if exportOpts.out != "" {
		file, err := os.Create(exportOpts.out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", exportOpts.out, err)
		}
		defer file.Close()
		w = file
	}

	var rows int
	switch kind {
	case export.KindStops:
		rows, err = a.exports.ExportStops(cmd.Context(), filter, format, w)
	default:
		rows, err = a.exports.ExportLogs(cmd.Context(), filter, format, w)
	}
	if err != nil {
		return err
	}
	if exportOpts.out != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d %s rows to %s\n", rows, kind, exportOpts.out)
	}
	return nil
}
