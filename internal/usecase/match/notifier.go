package match

import (
	"context"

	"agladiator/internal/domain/game"
)

// Notifier receives every accepted move and clock change. Implementations
// belong to the realtime transport; errors they return are logged by the
// session and never end a match.
type Notifier interface {
	OnBoardUpdate(ctx context.Context, upd game.BoardUpdate) error
	OnClockUpdate(ctx context.Context, upd game.ClockUpdate) error
}

type NopNotifier struct{}

func (NopNotifier) OnBoardUpdate(context.Context, game.BoardUpdate) error { return nil }

func (NopNotifier) OnClockUpdate(context.Context, game.ClockUpdate) error { return nil }
