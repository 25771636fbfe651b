package styles

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/connplot/connplot/pkg/errors"
)

func TestNew_Defaults(t *testing.T) {
	p, err := New(Params{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got, want := p.PatchSize, DefaultPatchSize; got != want {
		t.Errorf("PatchSize = %v, want %v", got, want)
	}
	if got, want := p.Resolution, DefaultResolution; got != want {
		t.Errorf("Resolution = %v, want %v", got, want)
	}
	if got, want := p.Margin, 0.0; got != want {
		t.Errorf("Margin = %v, want %v", got, want)
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		p    Params
		code errors.Code
	}{
		{"negative patch size", Params{PatchSize: -1}, errors.ErrCodeBadPatchSize},
		{"negative resolution", Params{Resolution: -5}, errors.ErrCodeBadResolution},
		{"negative margin", Params{Margin: -0.1}, errors.ErrCodeBadMargin},
		{"one tick", Params{LegendTicks: 1}, errors.ErrCodeBadLimits},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.p); !errors.Is(err, tt.code) {
				t.Errorf("New error = %v, want code %v", err, tt.code)
			}
		})
	}
}

func TestGaps_Ratio(t *testing.T) {
	p := Default()
	if got, want := p.BlockGap(), p.PatchSize*0.15; got != want {
		t.Errorf("BlockGap = %v, want %v", got, want)
	}
	if got, want := p.PopGap(), p.PatchSize*0.10; got != want {
		t.Errorf("PopGap = %v, want %v", got, want)
	}
	if got, want := p.SynGap(), p.PatchSize*0.025; got != want {
		t.Errorf("SynGap = %v, want %v", got, want)
	}
	if !(p.BlockGap() > p.PopGap() && p.PopGap() > p.SynGap()) {
		t.Error("gap ordering violated")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "style.toml")
	if err := os.WriteFile(path, []byte("patch_size = 40.0\nlegend_ticks = 6\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.PatchSize != 40 || p.LegendTicks != 6 {
		t.Errorf("loaded = %+v", p)
	}
	if p.Margin != DefaultMargin {
		t.Errorf("Margin = %v, want default %v", p.Margin, DefaultMargin)
	}

	if _, err := Load(filepath.Join(dir, "missing.toml")); !errors.Is(err, errors.ErrCodeBadFormat) {
		t.Errorf("missing file error = %v", err)
	}
}

func TestLoad_ExplicitZeroRejected(t *testing.T) {
	// An explicit zero must not silently become the default.
	cases := []struct {
		body string
		code errors.Code
	}{
		{"patch_size = 0.0\n", errors.ErrCodeBadPatchSize},
		{"resolution = 0\n", errors.ErrCodeBadResolution},
		{"legend_ticks = 0\n", errors.ErrCodeBadLimits},
	}
	for _, tc := range cases {
		path := filepath.Join(t.TempDir(), "style.toml")
		if err := os.WriteFile(path, []byte(tc.body), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); !errors.Is(err, tc.code) {
			t.Errorf("Load(%q) error = %v, want code %v", tc.body, err, tc.code)
		}
	}

	// margin = 0 stays a legal explicit value.
	path := filepath.Join(t.TempDir(), "style.toml")
	if err := os.WriteFile(path, []byte("margin = 0.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Margin != 0 {
		t.Errorf("Margin = %v, want 0", p.Margin)
	}
}
