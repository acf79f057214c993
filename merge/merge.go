// Package merge combines string tables by an ordered left fold.
//
// Inputs are folded left to right into an accumulator that starts empty. A
// label already present keeps its position and takes the new value; a new
// label is appended. The result therefore keeps the order in which labels
// were first introduced, while the rightmost input defining a label decides
// its text.
//
// Extra payloads are keyed by label the same way: the payload kept for a
// label is the one from the rightmost input whose value carries a payload.
// A later value without a payload does not erase an earlier one.
//
// The merged header is the header of the first input.
package merge

import (
	"fmt"

	"github.com/arloliu/csfkit/errs"
	"github.com/arloliu/csfkit/internal/labelindex"
	"github.com/arloliu/csfkit/section"
	"github.com/arloliu/csfkit/table"
)

// Input is one file taking part in a merge.
type Input struct {
	Header section.Header
	Table  *table.Table
}

// Tables merges inputs in priority order, lowest first.
//
// It fails with *errs.MergeInputError when fewer than two inputs are given,
// when an input has no table, or when an input defines a label twice.
//
// Parameters:
//   - inputs: Decoded files, lowest priority first
//
// Returns:
//   - Input: Merged table with the first input's header and recomputed counts
//   - error: *errs.MergeInputError for an unusable input set
func Tables(inputs ...Input) (Input, error) {
	if len(inputs) < 2 {
		return Input{}, &errs.MergeInputError{Input: -1, Msg: fmt.Sprintf("need at least 2 inputs, got %d", len(inputs))}
	}

	size := 0
	for _, in := range inputs {
		if in.Table != nil {
			size = max(size, in.Table.Len())
		}
	}

	acc := newAccumulator(size)
	for i, in := range inputs {
		if err := acc.fold(i, in.Table); err != nil {
			return Input{}, err
		}
	}

	return acc.result(inputs[0].Header), nil
}

// Into performs a single fold step, merging next over acc. Folding inputs
// one at a time with Into gives the same result as Tables over all of them.
func Into(acc, next Input) (Input, error) {
	return Tables(acc, next)
}

type accumulator struct {
	index  *labelindex.Index
	values []table.Value
}

func newAccumulator(sizeHint int) *accumulator {
	return &accumulator{
		index:  labelindex.New(sizeHint),
		values: make([]table.Value, 0, sizeHint),
	}
}

func (a *accumulator) fold(input int, t *table.Table) error {
	if t == nil {
		return &errs.MergeInputError{Input: input, Msg: "missing table"}
	}
	if dups := t.Duplicates(); len(dups) > 0 {
		return &errs.MergeInputError{Input: input, Label: dups[0], Msg: "label defined more than once"}
	}

	for label, v := range t.All() {
		pos, existed := a.index.Put(label)
		if !existed {
			a.values = append(a.values, v)
			continue
		}
		if !v.HasExtra() {
			v.Extra = a.values[pos].Extra
		}
		a.values[pos] = v
	}

	return nil
}

func (a *accumulator) result(h section.Header) Input {
	b := table.NewBuilder(len(a.values))
	for pos, label := range a.index.Labels() {
		b.Add(label, a.values[pos])
	}
	t := b.Build()

	h.LabelCount = uint32(t.Len()) //nolint:gosec
	h.StringCount = h.LabelCount

	return Input{Header: h, Table: t}
}
