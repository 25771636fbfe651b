package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connplot/connplot/pkg/cache"
	apperrors "github.com/connplot/connplot/pkg/errors"
	"github.com/connplot/connplot/pkg/netdesc"
	"github.com/connplot/connplot/pkg/styles"
)

func testDescription() *netdesc.Description {
	return &netdesc.Description{
		Layers: []netdesc.Layer{
			{Name: "retina", Extent: []float64{2, 2}},
			{Name: "cortex", Extent: []float64{2, 2}},
		},
		Connections: []netdesc.Connection{
			{
				From:         "retina",
				To:           "cortex",
				SynapseModel: "static",
				Mask:         map[string]any{"circular": map[string]any{"radius": 1.0}},
				Kernel:       map[string]any{"gaussian": map[string]any{"p_center": 1.0, "sigma": 0.5}},
				Weights:      2.0,
			},
			{
				From:         "cortex",
				To:           "retina",
				SynapseModel: "static",
				Mask:         map[string]any{"circular": map[string]any{"radius": 0.5}},
				Kernel:       0.8,
				Weights:      -1.0,
			},
		},
	}
}

func testOptions(formats ...string) Options {
	return Options{
		Description: testDescription(),
		Formats:     formats,
		Style:       styles.Params{Resolution: 16},
	}
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		wantCode apperrors.Code
	}{
		{
			name:     "neither path nor description",
			opts:     Options{},
			wantCode: apperrors.ErrCodeBadNetworkFile,
		},
		{
			name: "both path and description",
			opts: Options{
				Path:        "net.toml",
				Description: testDescription(),
			},
			wantCode: apperrors.ErrCodeBadNetworkFile,
		},
		{
			name: "unknown format",
			opts: Options{
				Description: testDescription(),
				Formats:     []string{"pdf"},
			},
			wantCode: apperrors.ErrCodeBadFormat,
		},
		{
			name: "unknown intensity",
			opts: Options{
				Description: testDescription(),
				Intensity:   "charge",
			},
			wantCode: apperrors.ErrCodeBadMode,
		},
		{
			name: "negative pixel density",
			opts: Options{
				Description: testDescription(),
				PixelsPerMM: -2,
			},
			wantCode: apperrors.ErrCodeBadResolution,
		},
		{
			name: "bad patch size",
			opts: Options{
				Description: testDescription(),
				Style:       styles.Params{PatchSize: -1},
			},
			wantCode: apperrors.ErrCodeBadPatchSize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, tt.wantCode), "got %v, want code %s", err, tt.wantCode)
		})
	}
}

func TestOptions_Defaults(t *testing.T) {
	opts := Options{Description: testDescription()}
	require.NoError(t, opts.ValidateAndSetDefaults())

	assert.Equal(t, []string{FormatSVG}, opts.Formats)
	assert.Equal(t, DefaultPixelsPerMM, opts.PixelsPerMM)
	assert.Equal(t, DefaultCacheTTL, opts.TTL)
	assert.Equal(t, styles.DefaultPatchSize, opts.Style.PatchSize)
	assert.Equal(t, styles.DefaultResolution, opts.Style.Resolution)
}

func TestRunner_Execute(t *testing.T) {
	r := NewRunner(nil, nil, nil)

	result, err := r.Execute(context.Background(), testOptions("svg", "json", "table"))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Stats.Records)
	assert.NotEmpty(t, result.NetworkHash)
	assert.Greater(t, result.Stats.Patches, 0)

	for _, format := range []string{"svg", "json", "table"} {
		assert.NotEmpty(t, result.Artifacts[format], "missing %s artifact", format)
		assert.False(t, result.CacheInfo.ArtifactHits[format], "%s should not be cached", format)
	}
}

func TestRunner_ExecuteFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "net.toml")
	content := `
[[layers]]
name   = "retina"
extent = [2.0, 2.0]

[[layers]]
name   = "cortex"
extent = [2.0, 2.0]

[[connections]]
from          = "retina"
to            = "cortex"
synapse_model = "static"
mask          = { circular = { radius = 1.0 } }
kernel        = { gaussian = { p_center = 1.0, sigma = 0.5 } }
weights       = 2.0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r := NewRunner(nil, nil, nil)
	result, err := r.Execute(context.Background(), Options{
		Path:    path,
		Formats: []string{"json"},
		Style:   styles.Params{Resolution: 16},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Stats.Records)
	assert.NotEmpty(t, result.Artifacts["json"])
}

func TestRunner_ArtifactCache(t *testing.T) {
	c := cache.NewMemoryCache()
	defer c.Close()
	r := NewRunner(c, nil, nil)

	first, err := r.Execute(context.Background(), testOptions("svg"))
	require.NoError(t, err)
	assert.False(t, first.CacheInfo.ArtifactHits["svg"])

	second, err := r.Execute(context.Background(), testOptions("svg"))
	require.NoError(t, err)
	assert.True(t, second.CacheInfo.ArtifactHits["svg"], "second run should hit the artifact cache")
	assert.Equal(t, first.Artifacts["svg"], second.Artifacts["svg"])

	refreshOpts := testOptions("svg")
	refreshOpts.Refresh = true
	third, err := r.Execute(context.Background(), refreshOpts)
	require.NoError(t, err)
	assert.False(t, third.CacheInfo.ArtifactHits["svg"], "refresh should bypass the cache")
}

func TestRunner_CacheKeySeparatesOptions(t *testing.T) {
	c := cache.NewMemoryCache()
	defer c.Close()
	r := NewRunner(c, nil, nil)

	_, err := r.Execute(context.Background(), testOptions("svg"))
	require.NoError(t, err)

	// Same network, different plan options: must not reuse the artifact.
	variants := map[string]func(*Options){
		"global":     func(o *Options) { o.Global = true },
		"select exc": func(o *Options) { o.Synapses = []string{"exc"} },
		"select inh": func(o *Options) { o.Synapses = []string{"inh"} },
		"symmetric":  func(o *Options) { o.Symmetric = true },
		"ticks":      func(o *Options) { o.Ticks = []float64{0, 1, 2} },
		"resolution": func(o *Options) { o.Style.Resolution = 8 },
	}
	for name, mutate := range variants {
		opts := testOptions("svg")
		mutate(&opts)
		result, err := r.Execute(context.Background(), opts)
		require.NoError(t, err, name)
		assert.False(t, result.CacheInfo.ArtifactHits["svg"], name)
	}
}

func TestRunner_Stages(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	opts := testOptions()
	require.NoError(t, opts.ValidateAndSetDefaults())

	m, hash, err := r.BuildModel(context.Background(), opts)
	require.NoError(t, err)
	assert.Len(t, m.Records, 2)
	assert.Len(t, hash, 64)

	pl, err := r.Plan(context.Background(), m, opts)
	require.NoError(t, err)
	assert.NotEmpty(t, pl.Patches)
	assert.NotEmpty(t, pl.ID)
}

func TestRunner_ExpiredArtifactRecomputed(t *testing.T) {
	c := cache.NewMemoryCache()
	defer c.Close()
	r := NewRunner(c, nil, nil)

	opts := testOptions("svg")
	opts.TTL = time.Nanosecond
	_, err := r.Execute(context.Background(), opts)
	require.NoError(t, err)

	time.Sleep(time.Millisecond)
	result, err := r.Execute(context.Background(), opts)
	require.NoError(t, err)
	assert.False(t, result.CacheInfo.ArtifactHits["svg"])
}
