// Package pipeline provides the complete plotting pipeline: network
// description → connection model → aggregation → layout → plot plan →
// rendered artifacts. CLI and server share it, so both resolve options,
// cache artifacts, and report progress the same way.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Path:    "network.toml",
//	    Formats: []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Stages can also be run individually: [Runner.BuildModel] resolves the
// model only, [Runner.Plan] stops before rendering.
package pipeline

import (
	"time"

	"github.com/connplot/connplot/pkg/errors"
	"github.com/connplot/connplot/pkg/kernel"
	"github.com/connplot/connplot/pkg/model"
	"github.com/connplot/connplot/pkg/netdesc"
	"github.com/connplot/connplot/pkg/plan"
	"github.com/connplot/connplot/pkg/styles"
)

// Format constants for output formats.
const (
	FormatSVG   = "svg"
	FormatPNG   = "png"
	FormatJSON  = "json"
	FormatTable = "table"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:   true,
	FormatPNG:   true,
	FormatJSON:  true,
	FormatTable: true,
}

// DefaultPixelsPerMM is the raster density used when none is configured.
const DefaultPixelsPerMM = 4.0

// DefaultCacheTTL bounds how long rendered artifacts stay cached.
const DefaultCacheTTL = 24 * time.Hour

// Options configure one pipeline run.
type Options struct {
	// Path is the network description file. Exactly one of Path and
	// Description must be set.
	Path string
	// Description is an already-decoded network, for callers that hold
	// one in memory (the preview server, tests).
	Description *netdesc.Description

	// AggregateGroups sums populations away; AggregateSynapses sums
	// synapse types away. Synapses restricts the detailed view to a
	// subset and cannot be combined with either flag.
	AggregateGroups   bool
	AggregateSynapses bool
	Synapses          []string

	// Intensity selects the wp/p/tcd mode ("" defers to the description,
	// then to wp).
	Intensity string

	// Style holds display parameters; the zero value means defaults.
	Style styles.Params

	// Plan settings; see [plan.Options].
	Global    bool
	Limits    *[2]float64
	Symmetric bool
	Ticks     []float64

	// Formats lists the outputs to render (default: svg).
	Formats []string
	// PixelsPerMM is the raster density for svg/png output (0 = default).
	PixelsPerMM float64
	// NoLabels suppresses legend names and tick labels.
	NoLabels bool

	// Refresh bypasses the artifact cache.
	Refresh bool
	// TTL bounds artifact cache entries (0 = DefaultCacheTTL).
	TTL time.Duration
}

// ValidateAndSetDefaults checks option consistency and fills defaults.
func (o *Options) ValidateAndSetDefaults() error {
	if (o.Path == "") == (o.Description == nil) {
		return errors.New(errors.ErrCodeBadNetworkFile, "exactly one of Path and Description must be set")
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	for _, f := range o.Formats {
		if !ValidFormats[f] {
			return errors.New(errors.ErrCodeBadFormat, "unsupported output format %q", f)
		}
	}
	if o.Intensity != "" {
		if _, err := kernel.ParseIntensity(o.Intensity); err != nil {
			return err
		}
	}
	if o.PixelsPerMM == 0 {
		o.PixelsPerMM = DefaultPixelsPerMM
	}
	if o.PixelsPerMM < 0 {
		return errors.New(errors.ErrCodeBadResolution, "pixels per mm must be positive, got %v", o.PixelsPerMM)
	}
	if o.TTL == 0 {
		o.TTL = DefaultCacheTTL
	}

	style, err := styles.New(o.Style)
	if err != nil {
		return err
	}
	o.Style = style
	return nil
}

func (o Options) planOptions() plan.Options {
	return plan.Options{
		Limits:    o.Limits,
		Global:    o.Global,
		Symmetric: o.Symmetric,
		Ticks:     o.Ticks,
	}
}

// Stats reports stage timings and sizes for one run.
type Stats struct {
	ModelTime  time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration

	Records int
	Patches int
}

// CacheInfo reports which artifacts were served from cache.
type CacheInfo struct {
	ArtifactHits map[string]bool
}

// Result bundles everything a pipeline run produced.
type Result struct {
	Model *model.Model
	Plan  *plan.Plan

	// Artifacts maps format name to rendered bytes.
	Artifacts map[string][]byte

	// NetworkHash identifies the input description content.
	NetworkHash string

	Stats     Stats
	CacheInfo CacheInfo
}
