package conditions

import (
	"fmt"
	"math"
)

func (d *decoder) threshold(r *Reader) (*Threshold, error) {
	d.depth++
	defer func() { d.depth-- }()

	if d.opts.MaxDepth > 0 && d.depth > d.opts.MaxDepth {
		str := fmt.Sprintf("threshold nesting exceeds max depth %d",
			d.opts.MaxDepth)
		return nil, decodeError(ErrDepthExceeded, str, nil)
	}

	fr, err := r.TakeContainer(0)
	if err != nil {
		return nil, err
	}
	ffills, err := takeMany(fr, d.fulfillment)
	if err != nil {
		return nil, err
	}

	cr, err := r.TakeContainer(1)
	if err != nil {
		return nil, err
	}
	conds, err := takeMany(cr, compactCondition)
	if err != nil {
		return nil, err
	}

	if err := r.AssertEmpty(); err != nil {
		return nil, err
	}

	if d.opts.MixedMode {
		return assembleMixed(ffills, conds)
	}
	return assembleStandard(ffills, conds)
}

// assembleStandard counts every supplied fulfillment towards the threshold.
// Unfulfilled sub-conditions follow the fulfillments.
func assembleStandard(ffills []Condition, conds []*Anon) (*Threshold, error) {
	if len(ffills) > math.MaxUint16 {
		str := fmt.Sprintf("%d fulfillments overflow threshold", len(ffills))
		return nil, decodeError(ErrThresholdOverflow, str, nil)
	}

	return &Threshold{
		Threshold:     uint16(len(ffills)),
		Subconditions: appendCompact(ffills, conds),
	}, nil
}

// assembleMixed takes the threshold from the first byte of a leading
// preimage fulfillment, which is dropped from the result.
func assembleMixed(ffills []Condition, conds []*Anon) (*Threshold, error) {
	if len(ffills) == 0 {
		return nil, decodeError(ErrNoFulfillments, "no fulfillments", nil)
	}

	sentinel, ok := ffills[0].(*Preimage)
	if !ok || len(sentinel.Preimage) == 0 {
		return nil, decodeError(ErrMixedModeCondition,
			"incorrect mixed mode threshold condition", nil)
	}

	t := int(sentinel.Preimage[0])
	rest := ffills[1:]
	if t > len(rest)+len(conds) {
		str := fmt.Sprintf("incorrect mixed mode threshold value %d "+
			"for %d sub-conditions", t, len(rest)+len(conds))
		return nil, decodeError(ErrMixedModeThreshold, str, nil)
	}

	return &Threshold{
		Threshold:     uint16(t),
		Subconditions: appendCompact(rest, conds),
	}, nil
}

func appendCompact(ffills []Condition, conds []*Anon) []Condition {
	subs := make([]Condition, 0, len(ffills)+len(conds))
	subs = append(subs, ffills...)
	for _, c := range conds {
		subs = append(subs, c)
	}
	return subs
}
