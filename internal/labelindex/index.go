// Package labelindex provides the ordered label index behind tables and merges.
package labelindex

import (
	"github.com/arloliu/csfkit/internal/hash"
)

// Index assigns each distinct label a stable position in first-seen order.
//
// Labels are keyed by their xxHash64. Distinct labels that share a hash are
// chained under the same key and told apart by comparing names, so a hash
// collision never merges two labels.
type Index struct {
	slots        map[uint64][]int // label hash → positions in labels
	labels       []string         // ordered, one per position
	hasCollision bool
}

// New creates an Index with room for sizeHint labels.
func New(sizeHint int) *Index {
	return &Index{
		slots:  make(map[uint64][]int, sizeHint),
		labels: make([]string, 0, sizeHint),
	}
}

// Put returns the position of label, appending it first if it is new.
// existed reports whether the label was already present.
func (x *Index) Put(label string) (pos int, existed bool) {
	id := hash.LabelID(label)

	chain := x.slots[id]
	for _, p := range chain {
		if x.labels[p] == label {
			return p, true
		}
	}
	if len(chain) > 0 {
		x.hasCollision = true
	}

	pos = len(x.labels)
	x.labels = append(x.labels, label)
	x.slots[id] = append(chain, pos)

	return pos, false
}

// Lookup returns the position of label.
func (x *Index) Lookup(label string) (int, bool) {
	for _, p := range x.slots[hash.LabelID(label)] {
		if x.labels[p] == label {
			return p, true
		}
	}

	return 0, false
}

// Labels returns a copy of the labels in position order.
func (x *Index) Labels() []string {
	out := make([]string, len(x.labels))
	copy(out, x.labels)

	return out
}

// Len returns the number of distinct labels.
func (x *Index) Len() int {
	return len(x.labels)
}

// HasCollision reports whether two distinct labels have shared a hash.
func (x *Index) HasCollision() bool {
	return x.hasCollision
}
