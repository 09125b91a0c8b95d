// Package board holds the 19x19 Go board and the rules applied to it:
// group discovery, liberties, captures and legality (suicide and
// single-step ko).
//
// The board is a value type. Copying a Board copies every cell, which is
// how callers take snapshots for ko checks and hand agents a read-only view.
package board

import (
	"fmt"

	apperr "agladiator/internal/errors"
)

const (
	Size     = 19
	Capacity = Size * Size
)

type Color int8

const (
	Empty Color = iota
	Black
	White
)

var (
	ErrOutOfBounds  = fmt.Errorf("%w: position out of bounds", apperr.ErrInvalidMove)
	ErrOccupied     = fmt.Errorf("%w: position occupied", apperr.ErrInvalidMove)
	ErrSuicide      = fmt.Errorf("%w: suicide", apperr.ErrInvalidMove)
	ErrKo           = fmt.Errorf("%w: ko", apperr.ErrInvalidMove)
	ErrInvalidColor = fmt.Errorf("%w: color must be black or white", apperr.ErrInvalidMove)
)

func (c Color) Opponent() Color {
	switch c {
	case Black:
		return White
	case White:
		return Black
	}
	return Empty
}

func (c Color) String() string {
	switch c {
	case Black:
		return "black"
	case White:
		return "white"
	}
	return "empty"
}

// SGF returns the property name used for a move of this color.
func (c Color) SGF() string {
	if c == White {
		return "W"
	}
	return "B"
}

type Position struct {
	X int `json:"x" bson:"x"`
	Y int `json:"y" bson:"y"`
}

func (p Position) InBounds() bool {
	return p.X >= 0 && p.X < Size && p.Y >= 0 && p.Y < Size
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// SGF encodes the position as two lowercase letters, x first.
func (p Position) SGF() string {
	return string([]byte{byte('a' + p.X), byte('a' + p.Y)})
}

func (p Position) index() int {
	return p.X*Size + p.Y
}

// neighbors are visited left, right, up, down. Order only fixes the
// traversal sequence; group and liberty sets do not depend on it.
func (p Position) neighbors() [4]Position {
	return [4]Position{
		{p.X - 1, p.Y},
		{p.X + 1, p.Y},
		{p.X, p.Y - 1},
		{p.X, p.Y + 1},
	}
}

// Board is indexed [x][y].
type Board [Size][Size]Color

func (b *Board) At(p Position) Color {
	return b[p.X][p.Y]
}

// FindGroup returns the stones connected to p that share color c, and the
// empty points adjacent to them. Both are nil when p is off the board or
// does not hold c.
func (b *Board) FindGroup(p Position, c Color) (group, liberties []Position) {
	if !p.InBounds() || b.At(p) != c {
		return nil, nil
	}

	var visited, seenLiberty [Capacity]bool
	stack := []Position{p}
	visited[p.index()] = true

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		group = append(group, cur)

		for _, n := range cur.neighbors() {
			if !n.InBounds() {
				continue
			}
			switch b.At(n) {
			case c:
				if !visited[n.index()] {
					visited[n.index()] = true
					stack = append(stack, n)
				}
			case Empty:
				if !seenLiberty[n.index()] {
					seenLiberty[n.index()] = true
					liberties = append(liberties, n)
				}
			}
		}
	}
	return group, liberties
}

// Check reports why placing c at p is illegal, or nil when it is legal.
// prev is the position the ko rule compares against and may be nil.
func (b *Board) Check(p Position, c Color, prev *Board) error {
	if c != Black && c != White {
		return ErrInvalidColor
	}
	if !p.InBounds() {
		return ErrOutOfBounds
	}
	if b.At(p) != Empty {
		return ErrOccupied
	}

	next := *b
	captured := next.Apply(p, c)
	if len(captured) == 0 {
		if _, liberties := next.FindGroup(p, c); len(liberties) == 0 {
			return ErrSuicide
		}
	}
	if prev != nil && next == *prev {
		return ErrKo
	}
	return nil
}

func (b *Board) IsLegal(p Position, c Color, prev *Board) bool {
	return b.Check(p, c, prev) == nil
}

// Apply places c at p, removes every adjacent enemy group left without
// liberties and returns the removed stones. It does not check legality.
func (b *Board) Apply(p Position, c Color) []Position {
	b[p.X][p.Y] = c
	enemy := c.Opponent()

	var captured []Position
	var removed [Capacity]bool
	for _, n := range p.neighbors() {
		if !n.InBounds() || b.At(n) != enemy || removed[n.index()] {
			continue
		}
		group, liberties := b.FindGroup(n, enemy)
		if len(liberties) > 0 {
			continue
		}
		for _, s := range group {
			removed[s.index()] = true
		}
		captured = append(captured, group...)
	}

	for _, s := range captured {
		b[s.X][s.Y] = Empty
	}
	return captured
}

func (b *Board) Count(c Color) int {
	n := 0
	for x := range b {
		for y := range b[x] {
			if b[x][y] == c {
				n++
			}
		}
	}
	return n
}

// Grid returns the board as grid[x][y] with 0 empty, 1 black, 2 white.
func (b *Board) Grid() [][]int {
	grid := make([][]int, Size)
	for x := range b {
		grid[x] = make([]int, Size)
		for y := range b[x] {
			grid[x][y] = int(b[x][y])
		}
	}
	return grid
}

func FromGrid(grid [][]int) (Board, error) {
	var b Board
	if len(grid) != Size {
		return b, fmt.Errorf("grid has %d columns, want %d", len(grid), Size)
	}
	for x, column := range grid {
		if len(column) != Size {
			return b, fmt.Errorf("grid column %d has %d cells, want %d", x, len(column), Size)
		}
		for y, v := range column {
			if v < int(Empty) || v > int(White) {
				return b, fmt.Errorf("grid cell (%d,%d) has value %d", x, y, v)
			}
			b[x][y] = Color(v)
		}
	}
	return b, nil
}
