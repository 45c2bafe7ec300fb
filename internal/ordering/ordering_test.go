package ordering

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveWithinLastToFirst(t *testing.T) {
	seq, err := MoveWithin([]uint{1, 2, 3}, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint{3, 1, 2}, seq)

	changed := Renumber(seq, map[uint]int{1: 1, 2: 2, 3: 3})
	assert.ElementsMatch(t, []Entry{{ID: 3, SortOrder: 1}, {ID: 1, SortOrder: 2}, {ID: 2, SortOrder: 3}}, changed)
}

func TestMoveWithinFirstToMiddle(t *testing.T) {
	seq, err := MoveWithin([]uint{10, 20, 30, 40}, 10, 3)
	require.NoError(t, err)
	assert.Equal(t, []uint{20, 30, 10, 40}, seq)
}

func TestMoveWithinSamePositionIsNoop(t *testing.T) {
	in := []uint{4, 5, 6}
	seq, err := MoveWithin(in, 5, 2)
	require.NoError(t, err)
	assert.Equal(t, in, seq)
	assert.Empty(t, Renumber(seq, map[uint]int{4: 1, 5: 2, 6: 3}))
}

func TestMoveWithinRejectsOutOfRange(t *testing.T) {
	for _, pos := range []int{0, -1, 4} {
		_, err := MoveWithin([]uint{1, 2, 3}, 1, pos)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrOutOfRange), "pos %d", pos)

		var rerr *RangeError
		require.True(t, errors.As(err, &rerr))
		assert.Equal(t, 3, rerr.Max)
	}
}

func TestMoveWithinUnknownID(t *testing.T) {
	_, err := MoveWithin([]uint{1, 2}, 9, 1)
	assert.ErrorIs(t, err, ErrUnknownID)
}

func TestInsertBounds(t *testing.T) {
	seq, err := Insert([]uint{1, 2}, 7, 3)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2, 7}, seq)

	seq, err = Insert([]uint{1, 2}, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint{7, 1, 2}, seq)

	_, err = Insert([]uint{1, 2}, 7, 4)
	assert.ErrorIs(t, err, ErrOutOfRange)

	seq, err = Insert(nil, 7, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint{7}, seq)
}

func TestRemoveClosesGap(t *testing.T) {
	seq := Remove([]uint{1, 2, 3}, 2)
	assert.Equal(t, []uint{1, 3}, seq)
	changed := Renumber(seq, map[uint]int{1: 1, 3: 3})
	assert.Equal(t, []Entry{{ID: 3, SortOrder: 2}}, changed)
}

func TestRenumberIsIdempotent(t *testing.T) {
	seq := []uint{5, 3, 9}
	first := Renumber(seq, nil)
	require.Len(t, first, 3)

	applied := make(map[uint]int)
	for _, e := range first {
		applied[e.ID] = e.SortOrder
	}
	assert.Empty(t, Renumber(seq, applied))
}

func TestNormalizeKeepsReadOrderForLegacyRows(t *testing.T) {
	entries := []Entry{{ID: 8}, {ID: 2}, {ID: 5}}
	assert.Equal(t, []uint{8, 2, 5}, Normalize(entries))
}

func TestNormalizeMixedPlacesLegacyLast(t *testing.T) {
	entries := []Entry{{ID: 1, SortOrder: 0}, {ID: 2, SortOrder: 5}, {ID: 3, SortOrder: 2}, {ID: 4, SortOrder: 0}}
	assert.Equal(t, []uint{3, 2, 1, 4}, Normalize(entries))
}

func TestNormalizeRepairsDuplicatesStably(t *testing.T) {
	entries := []Entry{{ID: 1, SortOrder: 2}, {ID: 2, SortOrder: 1}, {ID: 3, SortOrder: 2}}
	seq := Normalize(entries)
	assert.Equal(t, []uint{2, 1, 3}, seq)
	assert.Equal(t, []Entry{{ID: 3, SortOrder: 3}}, Renumber(seq, Positions(entries)))
}

func TestIsDense(t *testing.T) {
	assert.True(t, IsDense(nil))
	assert.True(t, IsDense([]Entry{{1, 2}, {2, 1}}))
	assert.False(t, IsDense([]Entry{{1, 1}, {2, 3}}))
	assert.False(t, IsDense([]Entry{{1, 1}, {2, 1}}))
	assert.False(t, IsDense([]Entry{{1, 0}}))
}

// Runs a deterministic mix of operations over one partition and checks
// density after each step.
func TestDensityUnderMixedOperations(t *testing.T) {
	var seq []uint
	pos := map[uint]int{}
	apply := func(next []uint) {
		for _, e := range Renumber(next, pos) {
			pos[e.ID] = e.SortOrder
		}
		for id := range pos {
			if IndexOf(next, id) < 0 {
				delete(pos, id)
			}
		}
		seq = next
		entries := make([]Entry, 0, len(seq))
		for _, id := range seq {
			entries = append(entries, Entry{ID: id, SortOrder: pos[id]})
		}
		require.True(t, IsDense(entries), "sequence %v positions %v", seq, pos)
	}

	for id := uint(1); id <= 6; id++ {
		next, err := Insert(seq, id, len(seq)+1)
		require.NoError(t, err)
		apply(next)
	}
	next, err := MoveWithin(seq, 6, 2)
	require.NoError(t, err)
	apply(next)
	apply(Remove(seq, 3))
	next, err = Insert(seq, 9, 1)
	require.NoError(t, err)
	apply(next)
	next, err = MoveWithin(seq, 9, len(seq))
	require.NoError(t, err)
	apply(next)
	apply(Remove(seq, 1))

	assert.Equal(t, []uint{6, 2, 4, 5, 9}, seq)
}
