// Package styles holds the validated display parameters shared by layout
// and planning. A Params value is immutable after construction: every
// range check happens in [New], so downstream code never sees a partially
// valid configuration.
package styles

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/connplot/connplot/pkg/errors"
)

// Defaults for the tunable display parameters.
const (
	DefaultPatchSize   = 20.0 // mm edge of the largest patch
	DefaultResolution  = 100  // samples along the longer extent side
	DefaultMargin      = 5.0  // mm outer margin around the whole figure
	DefaultLegendTicks = 4    // maximum tick count per colorbar
)

// Legend geometry constants. A shared colorbar spans a fraction of the
// total figure width; individual bars switch to equal-division spacing
// once more than LegendDenseAfter types are present. Both are capped at
// LegendMaxBar millimeters.
const (
	LegendFraction   = 0.2
	LegendMaxBar     = 100.0
	LegendDenseAfter = 4
)

// Params are the display parameters. Construct with [New] or [Default];
// the zero value is not valid.
type Params struct {
	// PatchSize is the mm length of the longest edge of the largest patch.
	PatchSize float64 `toml:"patch_size"`
	// Resolution is the kernel sample count along the longer extent side.
	Resolution int `toml:"resolution"`
	// Margin is the outer margin in mm.
	Margin float64 `toml:"margin"`
	// LegendTicks is the maximum number of colorbar ticks.
	LegendTicks int `toml:"legend_ticks"`
}

// New validates the parameters and returns them. A zero PatchSize,
// Resolution or LegendTicks means "use the default"; callers that must
// distinguish an explicit zero from an unset field (the TOML loader)
// have to check before calling New.
func New(p Params) (Params, error) {
	if p.PatchSize == 0 {
		p.PatchSize = DefaultPatchSize
	}
	if p.Resolution == 0 {
		p.Resolution = DefaultResolution
	}
	if p.LegendTicks == 0 {
		p.LegendTicks = DefaultLegendTicks
	}

	if p.PatchSize < 0 {
		return Params{}, errors.New(errors.ErrCodeBadPatchSize, "patch size must be positive, got %v", p.PatchSize)
	}
	if p.Resolution < 0 {
		return Params{}, errors.New(errors.ErrCodeBadResolution, "resolution must be positive, got %d", p.Resolution)
	}
	if p.Margin < 0 {
		return Params{}, errors.New(errors.ErrCodeBadMargin, "margin must not be negative, got %v", p.Margin)
	}
	if p.LegendTicks < 2 {
		return Params{}, errors.New(errors.ErrCodeBadLimits, "legend needs at least 2 ticks, got %d", p.LegendTicks)
	}
	return p, nil
}

// Default returns the validated default parameters.
func Default() Params {
	p, err := New(Params{Margin: DefaultMargin})
	if err != nil {
		panic(err) // defaults are always valid
	}
	return p
}

// Load reads TOML display parameters from a file and validates them.
// Unset keys fall back to defaults; Margin defaults only when the key is
// absent, since 0 is a legal explicit margin.
func Load(path string) (Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Params{}, errors.Wrap(errors.ErrCodeBadFormat, err, "reading style file %s", path)
	}
	p := Params{Margin: DefaultMargin}
	md, err := toml.Decode(string(data), &p)
	if err != nil {
		return Params{}, errors.Wrap(errors.ErrCodeBadFormat, err, "parsing style file %s", path)
	}
	// An explicit zero in the file would be indistinguishable from an
	// absent key once New fills defaults, so reject it here.
	if md.IsDefined("patch_size") && p.PatchSize == 0 {
		return Params{}, errors.New(errors.ErrCodeBadPatchSize, "patch_size must be positive, got 0 in %s", path)
	}
	if md.IsDefined("resolution") && p.Resolution == 0 {
		return Params{}, errors.New(errors.ErrCodeBadResolution, "resolution must be positive, got 0 in %s", path)
	}
	if md.IsDefined("legend_ticks") && p.LegendTicks == 0 {
		return Params{}, errors.New(errors.ErrCodeBadLimits, "legend needs at least 2 ticks, got 0 in %s", path)
	}
	return New(p)
}

// BlockGap is the gap between layer-pair blocks, 3/20 of the patch size.
func (p Params) BlockGap() float64 { return p.PatchSize * 3 / 20 }

// PopGap is the gap between population blocks, 2/20 of the patch size.
func (p Params) PopGap() float64 { return p.PatchSize * 2 / 20 }

// SynGap is the gap between synapse-type patches, 0.5/20 of the patch size.
func (p Params) SynGap() float64 { return p.PatchSize * 0.5 / 20 }
