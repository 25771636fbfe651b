package cli

import (
	"reflect"
	"testing"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", []string{"svg"}},
		{"png", []string{"png"}},
		{"svg,json", []string{"svg", "json"}},
	}

	for _, tt := range tests {
		if got := parseFormats(tt.input); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseList(t *testing.T) {
	if got := parseList(""); got != nil {
		t.Errorf("parseList(\"\") = %v, want nil", got)
	}
	want := []string{"AMPA", "GABA_A"}
	if got := parseList(" AMPA, GABA_A "); !reflect.DeepEqual(got, want) {
		t.Errorf("parseList = %v, want %v", got, want)
	}
}

func TestParseLimits(t *testing.T) {
	limits, err := parseLimits("-1.5, 2")
	if err != nil {
		t.Fatalf("parseLimits failed: %v", err)
	}
	if limits[0] != -1.5 || limits[1] != 2 {
		t.Errorf("parseLimits = %v, want [-1.5 2]", *limits)
	}

	for _, bad := range []string{"1", "1,2,3", "a,b"} {
		if _, err := parseLimits(bad); err == nil {
			t.Errorf("parseLimits(%q) should fail", bad)
		}
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		input   string
		format  string
		formats int
		want    string
	}{
		{"explicit single", "fig.svg", "net.toml", "svg", 1, "fig.svg"},
		{"derived from input", "", "net.toml", "svg", 1, "net.svg"},
		{"multiple formats use base", "out.svg", "net.toml", "png", 2, "out.png"},
		{"table gets txt extension", "", "net.toml", "table", 1, "net.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outputPath(tt.output, tt.input, tt.format, tt.formats); got != tt.want {
				t.Errorf("outputPath = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildPipelineOptions_BadLimits(t *testing.T) {
	opts := renderOpts{limits: "broken"}
	if _, err := buildPipelineOptions("net.toml", &opts); err == nil {
		t.Error("expected error for malformed limits")
	}
}
