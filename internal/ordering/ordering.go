// Package ordering keeps per-partition card positions dense.
//
// Every function works on an in-memory copy of one partition's sequence and
// never mutates its input. Positions are 1-based; a partition of N cards
// always ends up with exactly the positions 1..N.
package ordering

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrOutOfRange = errors.New("position out of range")
	ErrUnknownID  = errors.New("id not in sequence")
)

// RangeError reports a requested position outside [Min, Max].
type RangeError struct {
	Position int
	Min      int
	Max      int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("position %d outside [%d, %d]", e.Position, e.Min, e.Max)
}

func (e *RangeError) Unwrap() error { return ErrOutOfRange }

// Entry is one card as seen by the reconciler.
type Entry struct {
	ID        uint
	SortOrder int
}

// IndexOf returns the 0-based index of id in seq, or -1.
func IndexOf(seq []uint, id uint) int {
	for i, v := range seq {
		if v == id {
			return i
		}
	}
	return -1
}

// Remove drops id from seq. Removing an absent id returns an equal copy.
func Remove(seq []uint, id uint) []uint {
	out := make([]uint, 0, len(seq))
	for _, v := range seq {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Insert places id at position pos, which may be anything from 1 to
// len(seq)+1 (append).
func Insert(seq []uint, id uint, pos int) ([]uint, error) {
	if pos < 1 || pos > len(seq)+1 {
		return nil, &RangeError{Position: pos, Min: 1, Max: len(seq) + 1}
	}
	out := make([]uint, 0, len(seq)+1)
	out = append(out, seq[:pos-1]...)
	out = append(out, id)
	out = append(out, seq[pos-1:]...)
	return out, nil
}

// MoveWithin moves id to position pos inside the same sequence. Cards
// strictly between the old and the new slot shift by one towards the gap.
// Moving to the current position returns an unchanged copy.
func MoveWithin(seq []uint, id uint, pos int) ([]uint, error) {
	from := IndexOf(seq, id)
	if from < 0 {
		return nil, ErrUnknownID
	}
	if pos < 1 || pos > len(seq) {
		return nil, &RangeError{Position: pos, Min: 1, Max: len(seq)}
	}
	if from == pos-1 {
		return append([]uint(nil), seq...), nil
	}
	return Insert(Remove(seq, id), id, pos)
}

// Renumber assigns 1..N in sequence order and returns the entries whose
// position actually changed. It is idempotent.
func Renumber(seq []uint, current map[uint]int) []Entry {
	var changed []Entry
	for i, id := range seq {
		want := i + 1
		if current[id] != want {
			changed = append(changed, Entry{ID: id, SortOrder: want})
		}
	}
	return changed
}

// Normalize orders a partition read from storage. Entries carrying a
// positive position keep their relative order by position; entries without
// one (legacy rows) follow in the order they were read. The result is the
// sequence to renumber.
func Normalize(entries []Entry) []uint {
	sorted := append([]Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].SortOrder, sorted[j].SortOrder
		switch {
		case a <= 0 && b <= 0:
			return false
		case a <= 0:
			return false
		case b <= 0:
			return true
		default:
			return a < b
		}
	})
	seq := make([]uint, len(sorted))
	for i, e := range sorted {
		seq[i] = e.ID
	}
	return seq
}

// IsDense reports whether the positions are exactly the set 1..N, in any
// order.
func IsDense(entries []Entry) bool {
	seen := make(map[int]bool, len(entries))
	for _, e := range entries {
		if e.SortOrder < 1 || e.SortOrder > len(entries) || seen[e.SortOrder] {
			return false
		}
		seen[e.SortOrder] = true
	}
	return true
}

// Positions maps ids to their stored positions.
func Positions(entries []Entry) map[uint]int {
	m := make(map[uint]int, len(entries))
	for _, e := range entries {
		m[e.ID] = e.SortOrder
	}
	return m
}

// IDs returns the ids in entry order.
func IDs(entries []Entry) []uint {
	ids := make([]uint, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}
