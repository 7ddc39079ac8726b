package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/hazardwatch/internal/config"
	"github.com/couchcryptid/hazardwatch/internal/domain"
	"github.com/couchcryptid/hazardwatch/internal/export"
	"github.com/couchcryptid/hazardwatch/internal/observability"
)

type exportOptions struct {
	kind         string
	minIntensity float64
	window       string
	out          string
}

func newExportCommand() *cobra.Command {
	opts := exportOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Run one ingestion cycle and write the filtered events as CSV",
		Example: `  hazardwatch export                              # natural_phenomena_<date>.csv
  hazardwatch export --kind earthquake --window 7d
  MODE=static hazardwatch export --out -           # sample events to stdout`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := observability.NewLoggerTo(cmd.ErrOrStderr(), cfg)
			// export never serves /metrics, so the default registry stays untouched.
			a, err := buildApp(cfg, logger, observability.NewMetricsForTesting(), false)
			if err != nil {
				return err
			}
			defer a.close() //nolint:errcheck // no sinks are opened for export
			return runExport(cmd, a, opts)
		},
	}

	cmd.Flags().StringVar(&opts.kind, "kind", string(domain.KindAll), "event kind to export, or all")
	cmd.Flags().Float64Var(&opts.minIntensity, "min-intensity", 0, "minimum normalized intensity")
	cmd.Flags().StringVar(&opts.window, "window", string(domain.WindowDay), "recency window: 1h, 24h, 7d, 30d, all")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output file, or - for stdout (default natural_phenomena_<date>.csv)")
	return cmd
}

func runExport(cmd *cobra.Command, a *app, opts exportOptions) error {
	ctx := cmd.Context()
	if _, ok := a.refresher.RefreshNow(ctx); !ok {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("ingestion cycle: %w", err)
		}
		return errors.New("ingestion cycle was not committed")
	}

	commands := []struct{ action, value string }{
		{"setKindFilter", opts.kind},
		{"setIntensityFilter", strconv.FormatFloat(opts.minIntensity, 'f', -1, 64)},
		{"setWindow", opts.window},
	}
	for _, c := range commands {
		command, err := domain.ParseCommand(c.action, c.value)
		if err != nil {
			return err
		}
		if _, err := a.dashboard.Dispatch(command); err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	err := export.WriteCSV(&buf, a.dashboard.Visible().Events)
	if errors.Is(err, export.ErrNothingToExport) {
		a.metrics.ExportsTotal.WithLabelValues("empty").Inc()
		fmt.Fprintln(cmd.ErrOrStderr(), "No events to export. Please adjust your filters.")
		return nil
	}
	if err != nil {
		return err
	}
	a.metrics.ExportsTotal.WithLabelValues("written").Inc()

	if opts.out == "-" {
		_, err := io.Copy(cmd.OutOrStdout(), &buf)
		return err
	}
	path := opts.out
	if path == "" {
		path = export.FileName(domain.Now())
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", path)
	return nil
}
