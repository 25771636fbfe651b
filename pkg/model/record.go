package model

import (
	"github.com/connplot/connplot/pkg/kernel"
)

// Record is one resolved connection. Pop fields are empty when the raw
// connection carried no {"model": ...} restriction.
type Record struct {
	SenderLayer string
	SenderPop   string
	TargetLayer string
	TargetPop   string
	// Synapse is the resolved synapse type name (after classification).
	Synapse string

	Mask   kernel.Mask
	Kernel kernel.Kernel
	Weight kernel.Weight

	TargetExtent [2]float64

	eval  kernel.EvalParams
	field *kernel.Field // memoized; never mutated after first computation
}

// Field returns the record's sampled kernel field, computing it on first
// access and reusing the memoized result afterwards. The evaluation is a
// pure function of the record, so the cached field is shared read-only;
// callers that need to modify it must work on a copy (see Field.Scaled,
// kernel.Combine).
func (r *Record) Field() (*kernel.Field, error) {
	if r.field != nil {
		return r.field, nil
	}
	f, err := kernel.Evaluate(r.Mask, r.Kernel, r.eval)
	if err != nil {
		return nil, err
	}
	r.field = f
	return f, nil
}

// Key returns the connection-table key of the record.
func (r *Record) Key() Key {
	return Key{
		SenderLayer: r.SenderLayer,
		SenderPop:   r.SenderPop,
		TargetLayer: r.TargetLayer,
		TargetPop:   r.TargetPop,
		Synapse:     r.Synapse,
	}
}
