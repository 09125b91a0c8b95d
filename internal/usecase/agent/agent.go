package agent

import (
	"context"
	"fmt"
	"io"
	"time"

	"agladiator/internal/domain/board"
	apperr "agladiator/internal/errors"
)

// Agent picks a move for player (1 black, 2 white) on grid, a private copy
// of the board indexed grid[x][y]. A nil move means the agent has none;
// anything other than exactly two coordinates is a malformed move.
type Agent interface {
	GetMove(ctx context.Context, grid [][]int, player int) ([]int, error)
}

type Func func(ctx context.Context, grid [][]int, player int) ([]int, error)

func (f Func) GetMove(ctx context.Context, grid [][]int, player int) ([]int, error) {
	return f(ctx, grid, player)
}

// Handle is a loaded agent, or the record of a failed load. A failed load
// is ordinary state: Move reports it and the caller decides what to do.
type Handle struct {
	source  string
	agent   Agent
	loadErr error
	timeout time.Duration
}

func NewHandle(source string, a Agent, timeout time.Duration) *Handle {
	return &Handle{source: source, agent: a, timeout: timeout}
}

func Unavailable(source string, err error) *Handle {
	return &Handle{source: source, loadErr: fmt.Errorf("%w: %v", apperr.ErrAgentLoadFailure, err)}
}

func (h *Handle) Source() string {
	return h.source
}

func (h *Handle) Available() bool {
	return h.loadErr == nil && h.agent != nil
}

// LoadErr wraps ErrAgentLoadFailure when the handle is unavailable.
func (h *Handle) LoadErr() error {
	return h.loadErr
}

type moveResult struct {
	move []int
	err  error
}

// Move asks the agent for a move on a copy of b. The call is bounded by the
// handle timeout; a timeout, an agent error or a panic inside the agent all
// come back wrapped in ErrAgentRuntime. b is never touched by the agent.
func (h *Handle) Move(ctx context.Context, b board.Board, player int) ([]int, error) {
	if !h.Available() {
		if h.loadErr != nil {
			return nil, h.loadErr
		}
		return nil, apperr.ErrAgentLoadFailure
	}

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	grid := b.Grid()
	done := make(chan moveResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- moveResult{err: fmt.Errorf("agent panicked: %v", r)}
			}
		}()
		move, err := h.agent.GetMove(ctx, grid, player)
		done <- moveResult{move: move, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("%w: %v", apperr.ErrAgentRuntime, res.err)
		}
		return res.move, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: agent did not answer: %v", apperr.ErrAgentRuntime, ctx.Err())
	}
}

func (h *Handle) Close() error {
	if c, ok := h.agent.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
