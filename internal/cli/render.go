package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/connplot/connplot/pkg/pipeline"
	"github.com/connplot/connplot/pkg/styles"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output      string   // output file path (or base path for multiple formats)
	formats     []string // output formats: svg, png, json, table
	byLayer     bool     // sum populations away
	bySynapse   bool     // sum synapse types away
	selection   []string // restrict to a synapse-type subset
	intensity   string   // wp, p or tcd
	styleFile   string   // TOML style parameter file
	globalNorm  bool     // one shared color scale across all patches
	limits      string   // explicit color limits "min,max"
	symmetric   bool     // widen explicit limits to be symmetric around zero
	pixelsPerMM float64  // raster density for svg/png
	noLabels    bool     // suppress legend names and tick labels
	noCache     bool     // disable the artifact cache
	refresh     bool     // bypass cached artifacts
	ttl         time.Duration
}

// newRenderCmd creates the render command for generating figures.
//
// Default settings:
//   - format: svg
//   - mode: detailed (one patch per sender/target/synapse combination)
//   - color limits: per patch, from the displayed field
func newRenderCmd() *cobra.Command {
	var formatsStr, selectStr string
	opts := renderOpts{}

	cmd := &cobra.Command{
		Use:   "render [network file]",
		Short: "Render a connectivity pattern figure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			opts.selection = parseList(selectStr)
			return runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, json, table (comma-separated)")
	cmd.Flags().BoolVar(&opts.byLayer, "by-layer", false, "sum populations away (one patch per layer pair and synapse type)")
	cmd.Flags().BoolVar(&opts.bySynapse, "by-synapse", false, "sum synapse types away (signed net effect per population pair)")
	cmd.Flags().StringVar(&selectStr, "select", "", "restrict to the named synapse types (comma-separated)")
	cmd.Flags().StringVar(&opts.intensity, "intensity", "", "intensity mode: wp (default), p, tcd")
	cmd.Flags().StringVar(&opts.styleFile, "style", "", "TOML style parameter file")
	cmd.Flags().BoolVar(&opts.globalNorm, "global-norm", false, "share one color scale across all patches")
	cmd.Flags().StringVar(&opts.limits, "limits", "", "explicit color limits as min,max")
	cmd.Flags().BoolVar(&opts.symmetric, "symmetric", false, "widen explicit limits to be symmetric around zero")
	cmd.Flags().Float64Var(&opts.pixelsPerMM, "pixels-per-mm", 0, "raster density for svg/png output")
	cmd.Flags().BoolVar(&opts.noLabels, "no-labels", false, "suppress legend names and tick labels")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even if a cached artifact exists")
	cmd.Flags().DurationVar(&opts.ttl, "cache-ttl", 0, "artifact cache lifetime (default 24h)")

	return cmd
}

// runRender executes the pipeline and writes one file per format.
func runRender(ctx context.Context, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	logger.Infof("Rendering %s", input)

	pipeOpts, err := buildPipelineOptions(input, opts)
	if err != nil {
		return err
	}

	c, err := newCache(opts.noCache)
	if err != nil {
		return err
	}
	defer c.Close()

	p := newProgress(logger)
	result, err := pipeline.NewRunner(c, nil, logger).Execute(ctx, pipeOpts)
	if err != nil {
		return err
	}

	for _, format := range pipeOpts.Formats {
		path := outputPath(opts.output, input, format, len(pipeOpts.Formats))
		if err := os.WriteFile(path, result.Artifacts[format], 0o644); err != nil {
			return err
		}
		if result.CacheInfo.ArtifactHits[format] {
			logger.Debugf("Served %s from cache", format)
		}
		logger.Infof("Generated %s", path)
	}

	p.done(fmt.Sprintf("Rendered %d format(s), %d patches", len(pipeOpts.Formats), result.Stats.Patches))
	return nil
}

// buildPipelineOptions converts command-line flags into pipeline options.
func buildPipelineOptions(input string, opts *renderOpts) (pipeline.Options, error) {
	pipeOpts := pipeline.Options{
		Path:              input,
		AggregateGroups:   opts.byLayer,
		AggregateSynapses: opts.bySynapse,
		Synapses:          opts.selection,
		Intensity:         opts.intensity,
		Global:            opts.globalNorm,
		Symmetric:         opts.symmetric,
		Formats:           opts.formats,
		PixelsPerMM:       opts.pixelsPerMM,
		NoLabels:          opts.noLabels,
		Refresh:           opts.refresh,
		TTL:               opts.ttl,
	}

	if opts.styleFile != "" {
		style, err := styles.Load(opts.styleFile)
		if err != nil {
			return pipeline.Options{}, err
		}
		pipeOpts.Style = style
	}

	if opts.limits != "" {
		limits, err := parseLimits(opts.limits)
		if err != nil {
			return pipeline.Options{}, err
		}
		pipeOpts.Limits = limits
	}
	return pipeOpts, nil
}

// parseLimits parses a "min,max" flag value.
func parseLimits(s string) (*[2]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid limits %q (want min,max)", s)
	}
	var limits [2]float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid limits %q: %w", s, err)
		}
		limits[i] = v
	}
	return &limits, nil
}

// outputPath derives the output file for a format. With one format the
// --output flag is used verbatim when set; with several, it acts as a
// base path and the format becomes the extension.
func outputPath(output, input, format string, formats int) string {
	if output != "" && formats == 1 {
		return output
	}
	base := output
	if base == "" {
		base = strings.TrimSuffix(input, filepath.Ext(input))
	} else {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	ext := format
	if format == pipeline.FormatTable {
		ext = "txt"
	}
	return base + "." + ext
}
