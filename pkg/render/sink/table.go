package sink

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/connplot/connplot/pkg/model"
)

// RenderTable formats the raw connection table as an aligned text report,
// one row per resolved record in declaration order.
func RenderTable(m *model.Model) []byte {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "SENDER\tTARGET\tSYNAPSE\tWEIGHT\tMASK\tKERNEL")
	for _, r := range m.Records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			endpoint(r.SenderLayer, r.SenderPop),
			endpoint(r.TargetLayer, r.TargetPop),
			r.Synapse,
			r.Weight.Summary(),
			r.Mask.Summary(),
			r.Kernel.Summary(),
		)
	}
	w.Flush()
	return buf.Bytes()
}

func endpoint(layer, pop string) string {
	if pop == "" {
		return layer
	}
	return layer + "/" + pop
}
