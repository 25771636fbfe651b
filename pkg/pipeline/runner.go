package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/connplot/connplot/pkg/aggregate"
	"github.com/connplot/connplot/pkg/cache"
	"github.com/connplot/connplot/pkg/errors"
	"github.com/connplot/connplot/pkg/kernel"
	"github.com/connplot/connplot/pkg/layout"
	"github.com/connplot/connplot/pkg/model"
	"github.com/connplot/connplot/pkg/netdesc"
	"github.com/connplot/connplot/pkg/observability"
	"github.com/connplot/connplot/pkg/plan"
	"github.com/connplot/connplot/pkg/render/sink"
)

// Runner executes the pipeline with artifact caching. It is stateless
// apart from the cache and logger, so one Runner can serve concurrent
// requests with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// falls back to the default keyer, a nil logger to the default logger.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs the complete model → layout → render pipeline.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{
		Artifacts: make(map[string][]byte),
		CacheInfo: CacheInfo{ArtifactHits: make(map[string]bool)},
	}

	modelStart := time.Now()
	m, hash, err := r.BuildModel(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Model = m
	result.NetworkHash = hash
	result.Stats.ModelTime = time.Since(modelStart)
	result.Stats.Records = len(m.Records)

	r.Logger.Info("resolved network",
		"layers", len(m.Layers),
		"records", len(m.Records),
		"types", len(m.Syn.Types()),
		"duration", result.Stats.ModelTime)

	layoutStart := time.Now()
	pl, err := r.Plan(ctx, m, opts)
	if err != nil {
		return nil, err
	}
	result.Plan = pl
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.Patches = len(pl.Patches)

	r.Logger.Info("planned figure",
		"mode", pl.Mode,
		"patches", len(pl.Patches),
		"duration", result.Stats.LayoutTime)

	renderStart := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	err = r.render(ctx, m, pl, hash, opts, result)
	result.Stats.RenderTime = time.Since(renderStart)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, result.Stats.RenderTime, err)
	if err != nil {
		return nil, err
	}

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// BuildModel loads and resolves the network description. The returned
// hash identifies the description content for cache keys.
func (r *Runner) BuildModel(ctx context.Context, opts Options) (*model.Model, string, error) {
	source := opts.Path
	if source == "" {
		source = "inline"
	}
	observability.Pipeline().OnModelStart(ctx, source)

	start := time.Now()
	m, hash, err := r.buildModel(opts)
	observability.Pipeline().OnModelComplete(ctx, source, records(m), time.Since(start), err)
	return m, hash, err
}

func (r *Runner) buildModel(opts Options) (*model.Model, string, error) {
	var (
		d    *netdesc.Description
		data []byte
		err  error
	)
	if opts.Path != "" {
		data, err = os.ReadFile(opts.Path)
		if err != nil {
			return nil, "", errors.Wrap(errors.ErrCodeBadNetworkFile, err, "reading %s", opts.Path)
		}
		d, err = netdesc.Parse(data, netdesc.FormatForPath(opts.Path))
		if err != nil {
			return nil, "", err
		}
	} else {
		d = opts.Description
		data, err = json.Marshal(d)
		if err != nil {
			return nil, "", errors.Wrap(errors.ErrCodeBadNetworkFile, err, "hashing description")
		}
	}

	intensitySpec := opts.Intensity
	if intensitySpec == "" {
		intensitySpec = d.Options.Intensity
	}
	intensity := kernel.IntensityWP
	if intensitySpec != "" {
		intensity, err = kernel.ParseIntensity(intensitySpec)
		if err != nil {
			return nil, "", err
		}
	}

	m, err := model.Build(d, model.Config{
		Intensity:  intensity,
		Resolution: opts.Style.Resolution,
		Charges:    d.Options.Charges,
		PopRank:    d.Options.PopRank,
	})
	if err != nil {
		return nil, "", err
	}
	return m, cache.Hash(data), nil
}

// Plan aggregates, lays out and resolves the figure without rendering.
func (r *Runner) Plan(ctx context.Context, m *model.Model, opts Options) (*plan.Plan, error) {
	aggOpts := aggregate.Options{
		ByGroup:   opts.AggregateGroups,
		BySynapse: opts.AggregateSynapses,
		Synapses:  opts.Synapses,
	}
	mode, err := aggOpts.Mode()
	if err != nil {
		return nil, err
	}

	items, err := aggregate.Run(m, aggOpts)
	if err != nil {
		return nil, err
	}
	observability.Pipeline().OnLayoutStart(ctx, mode.String(), len(items))

	start := time.Now()
	l, err := layout.Build(m, mode, opts.Style)
	if err != nil {
		observability.Pipeline().OnLayoutComplete(ctx, mode.String(), time.Since(start), err)
		return nil, err
	}
	pl, err := plan.Build(m, items, l, opts.Style, opts.planOptions())
	observability.Pipeline().OnLayoutComplete(ctx, mode.String(), time.Since(start), err)
	return pl, err
}

// render produces every requested format, consulting the artifact cache
// keyed on the description content and all plan-affecting options.
func (r *Runner) render(ctx context.Context, m *model.Model, pl *plan.Plan, hash string, opts Options, result *Result) error {
	planKey := r.Keyer.PlanKey(hash, cache.PlanKeyOpts{
		Mode:        pl.Mode.String(),
		Intensity:   m.Config().Intensity.String(),
		Synapses:    opts.Synapses,
		Resolution:  opts.Style.Resolution,
		PatchSize:   opts.Style.PatchSize,
		Margin:      opts.Style.Margin,
		LegendTicks: opts.Style.LegendTicks,
		Global:      opts.Global,
		Symmetric:   opts.Symmetric,
		Limits:      opts.Limits,
		Ticks:       opts.Ticks,
	})

	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(planKey, cache.ArtifactKeyOpts{
			Format:      format,
			PixelsPerMM: opts.PixelsPerMM,
			Labels:      !opts.NoLabels,
		})

		if !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				observability.Cache().OnCacheHit(ctx, "artifact")
				result.Artifacts[format] = data
				result.CacheInfo.ArtifactHits[format] = true
				r.Logger.Debug("artifact cache hit", "format", format)
				continue
			}
			observability.Cache().OnCacheMiss(ctx, "artifact")
		}

		data, err := r.renderFormat(m, pl, format, opts)
		if err != nil {
			return err
		}
		result.Artifacts[format] = data

		if err := r.Cache.Set(ctx, key, data, opts.TTL); err != nil {
			r.Logger.Warn("artifact cache write failed", "format", format, "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return nil
}

func (r *Runner) renderFormat(m *model.Model, pl *plan.Plan, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatSVG:
		svgOpts := []sink.SVGOption{sink.WithPixelsPerMM(opts.PixelsPerMM)}
		if opts.NoLabels {
			svgOpts = append(svgOpts, sink.WithoutLabels())
		}
		return sink.RenderSVG(pl, svgOpts...), nil
	case FormatPNG:
		pngOpts := []sink.PNGOption{sink.WithPNGPixelsPerMM(opts.PixelsPerMM)}
		if opts.NoLabels {
			pngOpts = append(pngOpts, sink.WithoutPNGLabels())
		}
		return sink.RenderPNG(pl, pngOpts...)
	case FormatJSON:
		return sink.RenderJSON(pl)
	case FormatTable:
		return sink.RenderTable(m), nil
	}
	return nil, errors.New(errors.ErrCodeBadFormat, "unsupported output format %q", format)
}

func records(m *model.Model) int {
	if m == nil {
		return 0
	}
	return len(m.Records)
}
