package pipeline_test

import (
	"context"
	"fmt"

	"github.com/connplot/connplot/pkg/netdesc"
	"github.com/connplot/connplot/pkg/pipeline"
)

func ExampleRunner_Execute() {
	// A minimal two-layer network with one excitatory projection.
	desc := &netdesc.Description{
		Layers: []netdesc.Layer{
			{Name: "retina", Extent: []float64{2, 2}},
			{Name: "cortex", Extent: []float64{2, 2}},
		},
		Connections: []netdesc.Connection{{
			From:         "retina",
			To:           "cortex",
			SynapseModel: "static",
			Mask:         map[string]any{"circular": map[string]any{"radius": 1.0}},
			Kernel:       map[string]any{"gaussian": map[string]any{"p_center": 1.0, "sigma": 0.5}},
			Weights:      2.0,
		}},
	}

	// A nil cache disables caching; nil keyer and logger use defaults.
	runner := pipeline.NewRunner(nil, nil, nil)
	result, err := runner.Execute(context.Background(), pipeline.Options{
		Description: desc,
		Formats:     []string{pipeline.FormatJSON},
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println("mode:", result.Plan.Mode)
	fmt.Println("records:", result.Stats.Records)
	fmt.Println("patches:", result.Stats.Patches)
	fmt.Println("json rendered:", len(result.Artifacts[pipeline.FormatJSON]) > 0)
	// Output:
	// mode: detailed
	// records: 1
	// patches: 1
	// json rendered: true
}
