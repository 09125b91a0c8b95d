package agent

import (
	"context"
	"math/rand/v2"

	"agladiator/internal/domain/board"
	"agladiator/internal/domain/game"
)

// First plays the first point in x-major scan order that is legal without
// knowledge of the ko snapshot.
func First() Agent {
	return Func(func(ctx context.Context, grid [][]int, player int) ([]int, error) {
		candidates, err := legalPoints(grid, player)
		if err != nil || len(candidates) == 0 {
			return nil, err
		}
		return []int{candidates[0].X, candidates[0].Y}, nil
	})
}

// Random plays uniformly among the points First would consider.
func Random() Agent {
	return Func(func(ctx context.Context, grid [][]int, player int) ([]int, error) {
		candidates, err := legalPoints(grid, player)
		if err != nil || len(candidates) == 0 {
			return nil, err
		}
		p := candidates[rand.IntN(len(candidates))]
		return []int{p.X, p.Y}, nil
	})
}

func legalPoints(grid [][]int, player int) ([]board.Position, error) {
	b, err := board.FromGrid(grid)
	if err != nil {
		return nil, err
	}
	color := game.ColorOf(player)

	var points []board.Position
	for x := 0; x < board.Size; x++ {
		for y := 0; y < board.Size; y++ {
			p := board.Position{X: x, Y: y}
			if b.IsLegal(p, color, nil) {
				points = append(points, p)
			}
		}
	}
	return points, nil
}
