package table

import (
	"fmt"
	"iter"
	"slices"

	"github.com/hupe1980/gramstore/internal/mem"
)

// Record is a materialized copy of one table row.
type Record struct {
	Key   []int32
	Value []int32
}

// Count returns the occurrence counter (value column 0).
func (r Record) Count() int32 {
	if len(r.Value) == 0 {
		return 0
	}
	return r.Value[0]
}

// Last returns the final key column.
func (r Record) Last() int32 {
	return r.Key[len(r.Key)-1]
}

// Table is a bounded array of fixed-width records kept in ascending key order.
//
// Keys are not deduplicated by Insert; callers keep them unique by looking a
// key up with FindIndex (or FindAndIncrement) before inserting it.
//
// A Table is not safe for concurrent mutation.
type Table struct {
	keyWidth   int
	valueWidth int
	stride     int
	capacity   int
	size       int
	overfill   bool
	data       []int32
}

// BufferBytes returns the size in bytes of the buffer backing a table of the given layout.
func BufferBytes(capacity, keyWidth, valueWidth int) int64 {
	return int64(capacity) * int64(keyWidth+valueWidth) * 4
}

// New allocates an empty table holding up to capacity records of keyWidth key
// columns and valueWidth value columns.
func New(capacity, keyWidth, valueWidth int) (*Table, error) {
	if capacity <= 0 || keyWidth <= 0 || valueWidth <= 0 {
		return nil, fmt.Errorf("%w: capacity=%d keyWidth=%d valueWidth=%d",
			ErrInvalidLayout, capacity, keyWidth, valueWidth)
	}

	stride := keyWidth + valueWidth
	return &Table{
		keyWidth:   keyWidth,
		valueWidth: valueWidth,
		stride:     stride,
		capacity:   capacity,
		data:       mem.AllocAlignedInt32(capacity * stride),
	}, nil
}

// KeyWidth returns the number of key columns (the n-gram order).
func (t *Table) KeyWidth() int { return t.keyWidth }

// ValueWidth returns the number of value columns.
func (t *Table) ValueWidth() int { return t.valueWidth }

// Len returns the number of stored records.
func (t *Table) Len() int { return t.size }

// Cap returns the maximum number of records.
func (t *Table) Cap() int { return t.capacity }

// IsFull reports whether no further record can be inserted.
func (t *Table) IsFull() bool { return t.size >= t.capacity }

// Overfill reports whether an insert was refused since the last Clear.
func (t *Table) Overfill() bool { return t.overfill }

// Clear drops all records. The buffer is kept.
func (t *Table) Clear() {
	t.size = 0
	t.overfill = false
}

// Key returns the key columns of record i. The slice aliases the table buffer
// and is only valid until the next mutation.
func (t *Table) Key(i int) []int32 {
	off := i * t.stride
	return t.data[off : off+t.keyWidth : off+t.keyWidth]
}

// Value returns the value columns of record i. The slice aliases the table
// buffer and is only valid until the next mutation.
func (t *Table) Value(i int) []int32 {
	off := i*t.stride + t.keyWidth
	return t.data[off : off+t.valueWidth : off+t.valueWidth]
}

// Insert writes a record at its sorted position, shifting later records right
// by one stride. Missing value columns are zeroed. It returns false and marks
// the table as overfilled if the table is full.
//
// key must have exactly KeyWidth columns.
func (t *Table) Insert(key, value []int32) bool {
	if t.IsFull() {
		t.overfill = true
		return false
	}

	// Upper bound: equal keys (if a caller ever inserts one) land after existing ones.
	lo, hi := 0, t.size
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if t.compareAt(key, mid, t.keyWidth) < 0 {
			hi = mid
		} else {
			lo = mid + 1
		}
	}

	s := t.stride
	if lo < t.size {
		copy(t.data[(lo+1)*s:(t.size+1)*s], t.data[lo*s:t.size*s])
	}

	rec := t.data[lo*s : (lo+1)*s]
	copy(rec[:t.keyWidth], key)
	vals := rec[t.keyWidth:]
	n := copy(vals, value)
	clear(vals[n:])

	t.size++
	return true
}

// FindIndex returns the position of the record whose key equals key.
func (t *Table) FindIndex(key []int32) (int, bool) {
	return t.search(key, t.keyWidth)
}

// FindPrefixIndex returns the position of any one record whose first
// KeyWidth-1 key columns equal prefix.
//
// For KeyWidth 1 the prefix is empty and every record matches.
func (t *Table) FindPrefixIndex(prefix []int32) (int, bool) {
	return t.search(prefix, t.keyWidth-1)
}

// ExpandPrefixRange returns the first and last position of the contiguous run
// of records sharing prefix with the record at i. i must come from
// FindPrefixIndex for the same prefix; the returned range is then never empty.
func (t *Table) ExpandPrefixRange(prefix []int32, i int) (first, last int) {
	w := t.keyWidth - 1
	first, last = i, i
	for first > 0 && t.compareAt(prefix, first-1, w) == 0 {
		first--
	}
	for last < t.size-1 && t.compareAt(prefix, last+1, w) == 0 {
		last++
	}
	return first, last
}

// CollectRange returns copies of the records in [first, last].
// All returned records share one backing allocation.
func (t *Table) CollectRange(first, last int) []Record {
	if first < 0 || last >= t.size || first > last {
		return nil
	}

	n := last - first + 1
	buf := make([]int32, n*t.stride)
	copy(buf, t.data[first*t.stride:(last+1)*t.stride])

	out := make([]Record, n)
	for r := range out {
		rec := buf[r*t.stride : (r+1)*t.stride : (r+1)*t.stride]
		out[r] = Record{
			Key:   rec[:t.keyWidth:t.keyWidth],
			Value: rec[t.keyWidth:],
		}
	}
	return out
}

// IncrementValue adds amount to the counter of record i.
// It returns false if i is out of range.
func (t *Table) IncrementValue(i int, amount int32) bool {
	if i < 0 || i >= t.size {
		return false
	}
	t.data[i*t.stride+t.keyWidth] += amount
	return true
}

// DecrementValue subtracts amount from the counter of record i without going
// below floor. It returns false if i is out of range.
func (t *Table) DecrementValue(i int, amount, floor int32) bool {
	if i < 0 || i >= t.size {
		return false
	}
	off := i*t.stride + t.keyWidth
	t.data[off] = max(floor, t.data[off]-amount)
	return true
}

// FindAndIncrement adds amount to the counter of the record with the given key.
// It returns false if no such record exists.
func (t *Table) FindAndIncrement(key []int32, amount int32) bool {
	i, ok := t.FindIndex(key)
	if !ok {
		return false
	}
	return t.IncrementValue(i, amount)
}

// All iterates over the stored records in key order. The yielded records alias
// the table buffer and must not be retained across mutations.
func (t *Table) All() iter.Seq2[int, Record] {
	return func(yield func(int, Record) bool) {
		for i := range t.size {
			if !yield(i, Record{Key: t.Key(i), Value: t.Value(i)}) {
				return
			}
		}
	}
}

// CheckOrder verifies that keys are strictly ascending.
func (t *Table) CheckOrder() error {
	for i := 1; i < t.size; i++ {
		if slices.Compare(t.Key(i-1), t.Key(i)) >= 0 {
			return fmt.Errorf("records %d and %d out of order: %v >= %v", i-1, i, t.Key(i-1), t.Key(i))
		}
	}
	return nil
}

func (t *Table) search(key []int32, width int) (int, bool) {
	lo, hi := 0, t.size
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		c := t.compareAt(key, mid, width)
		switch {
		case c == 0:
			return mid, true
		case c < 0:
			hi = mid
		default:
			lo = mid + 1
		}
	}
	return -1, false
}

// compareAt compares the first width columns of key against record i.
func (t *Table) compareAt(key []int32, i, width int) int {
	off := i * t.stride
	return slices.Compare(key[:width], t.data[off:off+width])
}
