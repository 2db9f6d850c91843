package table

import (
	"fmt"
	"slices"
)

// Policy selects how Merge treats a key present in both tables.
type Policy uint8

const (
	// MergeSum combines records with equal keys into one record whose value
	// columns are the column-wise sums. The destination keeps unique keys.
	MergeSum Policy = iota
	// MergeAppend keeps both records, the destination's one last. Equal keys
	// then appear twice in the destination with separate counters.
	MergeAppend
)

func (p Policy) String() string {
	switch p {
	case MergeSum:
		return "sum"
	case MergeAppend:
		return "append"
	default:
		return fmt.Sprintf("Policy(%d)", p)
	}
}

// MergeResult summarizes a completed merge.
type MergeResult struct {
	// Moved is the number of records taken from the source.
	Moved int
	// Combined is the number of source records folded into an existing
	// destination record (always 0 for MergeAppend).
	Combined int
}

// Merge moves every record of src into dst and clears src.
//
// Both tables must have the same key and value widths. The merge is refused
// with a *CapacityError before anything is modified if dst.Len()+src.Len()
// exceeds dst.Cap(), even when combined keys would make the result fit: the
// backward pass needs that room to write into.
//
// The merge walks both tables from their last record towards the first and
// writes the larger key into the last free slot of dst, so it runs in
// O(dst.Len()+src.Len()) without a scratch buffer. With MergeSum a combined
// pair produces one record for two reads, which leaves a gap in front of the
// merged run; the run is shifted down once at the end to close it.
func Merge(src, dst *Table, policy Policy) (MergeResult, error) {
	if src.keyWidth != dst.keyWidth || src.valueWidth != dst.valueWidth {
		return MergeResult{}, fmt.Errorf("%w: src %d+%d, dst %d+%d", ErrLayoutMismatch,
			src.keyWidth, src.valueWidth, dst.keyWidth, dst.valueWidth)
	}
	if dst.size+src.size > dst.capacity {
		return MergeResult{}, &CapacityError{
			KeyWidth: dst.keyWidth,
			DstSize:  dst.size,
			SrcSize:  src.size,
			Capacity: dst.capacity,
		}
	}

	var (
		s    = dst.stride
		n    = dst.keyWidth
		dd   = dst.data
		sd   = src.data
		i    = dst.size - 1
		j    = src.size - 1
		end  = dst.size + src.size
		k    = end - 1
		comb = 0
	)

	for i >= 0 && j >= 0 {
		c := slices.Compare(dd[i*s:i*s+n], sd[j*s:j*s+n])
		switch {
		case c > 0, c == 0 && policy == MergeAppend:
			copy(dd[k*s:(k+1)*s], dd[i*s:(i+1)*s])
			i--
		case c == 0:
			copy(dd[k*s:(k+1)*s], dd[i*s:(i+1)*s])
			for v := n; v < s; v++ {
				dd[k*s+v] += sd[j*s+v]
			}
			i--
			j--
			comb++
		default:
			copy(dd[k*s:(k+1)*s], sd[j*s:(j+1)*s])
			j--
		}
		k--
	}
	for ; j >= 0; j-- {
		copy(dd[k*s:(k+1)*s], sd[j*s:(j+1)*s])
		k--
	}

	// dst[0..i] never moved; the merged run starts at k+1.
	if gap := k - i; gap > 0 {
		copy(dd[(i+1)*s:], dd[(k+1)*s:end*s])
		end -= gap
	}

	res := MergeResult{Moved: src.size, Combined: comb}
	dst.size = end
	src.Clear()
	return res, nil
}
