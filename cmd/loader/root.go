package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ogurasousui/hr-datahub/internal/core/ingest"
	"github.com/ogurasousui/hr-datahub/internal/platform/app"
	"github.com/ogurasousui/hr-datahub/internal/platform/config"
)

type loadOptions struct {
	ConfigPath string
	Dir        string
}

func newRootCmd() *cobra.Command {
	var opts loadOptions

	cmd := &cobra.Command{
		Use:           "loader --dir <folder>",
		Short:         "Append HR source files into the database",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			configPath := opts.ConfigPath
			if configPath == "" {
				configPath = os.Getenv("CONFIG_PATH")
			}
			rt, err := app.Bootstrap(ctx, configPath)
			if err != nil {
				return err
			}
			defer rt.Close()

			svc, err := rt.Ingest(opts.Dir)
			if err != nil {
				return err
			}

			report, err := svc.Load(ctx)
			if report != nil {
				if werr := printReport(cmd.OutOrStdout(), report); werr != nil {
					return werr
				}
			}
			if err != nil {
				return err
			}
			if failed := report.Count(ingest.StatusFailed); failed > 0 {
				return fmt.Errorf("%d source(s) failed to load", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "path to config file (defaults to CONFIG_PATH env or "+config.DefaultPath+")")
	cmd.Flags().StringVar(&opts.Dir, "dir", "", "folder containing the source files (defaults to import.source_dir)")
	return cmd
}

func printReport(w io.Writer, report *ingest.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "run %s\t%s\n", report.RunID, report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	fmt.Fprintln(tw, "TABLE\tSTATUS\tROWS\tDETAIL")
	for _, res := range report.Results {
		detail := res.File
		switch {
		case res.Err != nil:
			detail = res.Err.Error()
		case res.Reason != "":
			detail = res.Reason
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", res.Table, res.Status, res.Rows, detail)
	}
	fmt.Fprintf(tw, "total\t%d loaded, %d skipped, %d failed\t%d\t\n",
		report.Count(ingest.StatusLoaded), report.Count(ingest.StatusSkipped), report.Count(ingest.StatusFailed), report.Rows())
	return tw.Flush()
}

// Execute はルートコマンドを実行します。
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
