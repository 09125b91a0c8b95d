package board

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "agladiator/internal/errors"
)

func place(b *Board, c Color, ps ...Position) {
	for _, p := range ps {
		b[p.X][p.Y] = c
	}
}

// koBoard builds
//
//	y\x 0 1 2 3
//	0   . B W .
//	1   B W . W
//	2   . B W .
//
// Black at (2,1) captures the white stone at (1,1).
func koBoard() Board {
	var b Board
	place(&b, Black, Position{1, 0}, Position{0, 1}, Position{1, 2})
	place(&b, White, Position{2, 0}, Position{1, 1}, Position{3, 1}, Position{2, 2})
	return b
}

func TestFindGroupSingleStone(t *testing.T) {
	var b Board
	place(&b, Black, Position{3, 3})

	group, liberties := b.FindGroup(Position{3, 3}, Black)
	assert.ElementsMatch(t, []Position{{3, 3}}, group)
	assert.ElementsMatch(t, []Position{{2, 3}, {4, 3}, {3, 2}, {3, 4}}, liberties)
}

func TestFindGroupCornerAndChain(t *testing.T) {
	var b Board
	place(&b, White, Position{0, 0}, Position{1, 0}, Position{1, 1})
	place(&b, Black, Position{0, 1})

	group, liberties := b.FindGroup(Position{0, 0}, White)
	assert.ElementsMatch(t, []Position{{0, 0}, {1, 0}, {1, 1}}, group)
	assert.ElementsMatch(t, []Position{{2, 0}, {2, 1}, {1, 2}}, liberties)
}

func TestFindGroupWrongColorOrOffBoard(t *testing.T) {
	var b Board
	place(&b, Black, Position{5, 5})

	group, liberties := b.FindGroup(Position{5, 5}, White)
	assert.Nil(t, group)
	assert.Nil(t, liberties)

	group, liberties = b.FindGroup(Position{-1, 5}, Black)
	assert.Nil(t, group)
	assert.Nil(t, liberties)
}

func TestZeroLibertiesIffSurrounded(t *testing.T) {
	var b Board
	place(&b, White, Position{0, 0}, Position{1, 0})
	place(&b, Black, Position{2, 0}, Position{0, 1})

	_, liberties := b.FindGroup(Position{0, 0}, White)
	assert.ElementsMatch(t, []Position{{1, 1}}, liberties)

	place(&b, Black, Position{1, 1})
	group, liberties := b.FindGroup(Position{0, 0}, White)
	assert.Len(t, group, 2)
	assert.Empty(t, liberties)
	for _, s := range group {
		for _, n := range s.neighbors() {
			if n.InBounds() {
				assert.NotEqual(t, Empty, b.At(n))
			}
		}
	}
}

func TestApplyFirstMove(t *testing.T) {
	var b Board
	captured := b.Apply(Position{3, 3}, Black)

	assert.Empty(t, captured)
	assert.Equal(t, Black, b.At(Position{3, 3}))
	assert.Equal(t, 1, b.Count(Black))
	assert.Equal(t, 0, b.Count(White))
}

func TestApplyCapturesSurroundedStone(t *testing.T) {
	var b Board
	place(&b, White, Position{5, 5})
	place(&b, Black, Position{4, 5}, Position{6, 5}, Position{5, 4})

	require.True(t, b.IsLegal(Position{5, 6}, Black, nil))
	captured := b.Apply(Position{5, 6}, Black)

	assert.Equal(t, []Position{{5, 5}}, captured)
	assert.Equal(t, Empty, b.At(Position{5, 5}))
	assert.Equal(t, 4, b.Count(Black))
	assert.Equal(t, 0, b.Count(White))
}

func TestApplyCapturesOnlyDeadGroups(t *testing.T) {
	var b Board
	// white pair at (0,0),(1,0) with last liberty (2,0); white stone at (3,1)
	// stays alive next to the capturing stone.
	place(&b, White, Position{0, 0}, Position{1, 0}, Position{3, 1})
	place(&b, Black, Position{0, 1}, Position{1, 1})
	before := b

	captured := b.Apply(Position{2, 0}, Black)

	assert.ElementsMatch(t, []Position{{0, 0}, {1, 0}}, captured)
	assert.Equal(t, White, b.At(Position{3, 1}))
	for x := 0; x < Size; x++ {
		for y := 0; y < Size; y++ {
			p := Position{x, y}
			if p == (Position{0, 0}) || p == (Position{1, 0}) || p == (Position{2, 0}) {
				continue
			}
			assert.Equal(t, before.At(p), b.At(p), "cell %v changed", p)
		}
	}
}

func TestApplyCapturesTwoGroupsOnce(t *testing.T) {
	var b Board
	// two separate white stones sharing the last liberty (1,0)
	place(&b, White, Position{0, 0}, Position{2, 0})
	place(&b, Black, Position{0, 1}, Position{2, 1}, Position{3, 0}, Position{1, 1})

	captured := b.Apply(Position{1, 0}, Black)
	assert.ElementsMatch(t, []Position{{0, 0}, {2, 0}}, captured)
}

func TestCheckRejections(t *testing.T) {
	var b Board
	place(&b, Black, Position{3, 3})

	tests := []struct {
		name string
		pos  Position
		c    Color
		want error
	}{
		{"negative x", Position{-1, 0}, White, ErrOutOfBounds},
		{"past edge", Position{0, Size}, White, ErrOutOfBounds},
		{"occupied", Position{3, 3}, White, ErrOccupied},
		{"empty color", Position{4, 4}, Empty, ErrInvalidColor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := b.Check(tt.pos, tt.c, nil)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, apperr.ErrInvalidMove)
			assert.False(t, b.IsLegal(tt.pos, tt.c, nil))
		})
	}
}

func TestSuicideRejected(t *testing.T) {
	var b Board
	place(&b, Black, Position{1, 0}, Position{0, 1})

	err := b.Check(Position{0, 0}, White, nil)
	assert.True(t, errors.Is(err, ErrSuicide))
	assert.Equal(t, Empty, b.At(Position{0, 0}), "check must not mutate the board")
}

func TestSuicideAllowedWhenCapturing(t *testing.T) {
	var b Board
	// white (0,0) surrounded except (1,0); black at (1,0) has no liberty of
	// its own but captures.
	place(&b, White, Position{0, 0}, Position{2, 0}, Position{1, 1})
	place(&b, Black, Position{0, 1})

	require.NoError(t, b.Check(Position{1, 0}, Black, nil))
	captured := b.Apply(Position{1, 0}, Black)
	assert.Equal(t, []Position{{0, 0}}, captured)
}

func TestKoRecaptureRejected(t *testing.T) {
	b0 := koBoard()
	b1 := b0
	captured := b1.Apply(Position{2, 1}, Black)
	require.Equal(t, []Position{{1, 1}}, captured)

	err := b1.Check(Position{1, 1}, White, &b0)
	assert.ErrorIs(t, err, ErrKo)

	// without a snapshot the same recapture is fine
	assert.NoError(t, b1.Check(Position{1, 1}, White, nil))
}

func TestKoRecaptureAfterExchangeElsewhere(t *testing.T) {
	b0 := koBoard()
	b1 := b0
	b1.Apply(Position{2, 1}, Black)

	b2 := b1
	b2.Apply(Position{10, 10}, White)
	b3 := b2
	b3.Apply(Position{15, 15}, Black)

	// ko snapshot is the board before black's last move
	assert.NoError(t, b3.Check(Position{1, 1}, White, &b2))
}

func TestOlderPositionNotRejected(t *testing.T) {
	var older Board
	var current Board
	place(&current, Black, Position{4, 4})
	older = current
	older[9][9] = White

	// placing white at (9,9) recreates older, but only the immediately
	// preceding position is consulted
	var previous Board
	assert.NoError(t, current.Check(Position{9, 9}, White, &previous))
	assert.ErrorIs(t, current.Check(Position{9, 9}, White, &older), ErrKo)
}

func TestGridRoundTrip(t *testing.T) {
	b := koBoard()
	grid := b.Grid()
	require.Len(t, grid, Size)
	assert.Equal(t, int(White), grid[1][1])

	back, err := FromGrid(grid)
	require.NoError(t, err)
	assert.Equal(t, b, back)

	grid[0] = grid[0][:3]
	_, err = FromGrid(grid)
	assert.Error(t, err)
}

func TestPositionSGF(t *testing.T) {
	assert.Equal(t, "aa", Position{0, 0}.SGF())
	assert.Equal(t, "ds", Position{3, 18}.SGF())
}
