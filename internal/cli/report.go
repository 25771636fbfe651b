package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/connplot/connplot/pkg/pipeline"
	"github.com/connplot/connplot/pkg/render/sink"
)

// newReportCmd creates the report command, which prints one text row per
// connection record instead of drawing a figure.
func newReportCmd() *cobra.Command {
	var (
		output    string
		intensity string
	)

	cmd := &cobra.Command{
		Use:   "report [network file]",
		Short: "Print a table of all connection records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd.Context(), args[0], output, intensity)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&intensity, "intensity", "", "intensity mode: wp (default), p, tcd")

	return cmd
}

func runReport(ctx context.Context, input, output, intensity string) error {
	logger := loggerFromContext(ctx)

	opts := pipeline.Options{Path: input, Intensity: intensity}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	r := pipeline.NewRunner(nil, nil, logger)
	m, _, err := r.BuildModel(ctx, opts)
	if err != nil {
		return err
	}

	table := sink.RenderTable(m)
	if output == "" {
		_, err = os.Stdout.Write(table)
		return err
	}
	if err := os.WriteFile(output, table, 0o644); err != nil {
		return err
	}
	logger.Infof("Generated %s", output)
	return nil
}
