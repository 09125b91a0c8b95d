package match

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"agladiator/internal/domain/board"
	"agladiator/internal/domain/game"
	apperr "agladiator/internal/errors"
	"agladiator/internal/statuses"
	"agladiator/internal/usecase/agent"
)

const (
	// MaxIllegalAttempts bounds how many well-formed but illegal moves an
	// agent may return within a single ply.
	MaxIllegalAttempts = 3

	msgRetrying      = "illegal move, retrying"
	msgBoardFull     = "board is full"
	msgExceeded      = "exceeded illegal move retries"
	msgMalformed     = "invalid move format"
	msgEndedByHost   = "match ended before completion"
	defaultNotifyTTL = 2 * time.Second
)

type SessionConfig struct {
	MatchID       string
	Player1ID     string
	Player2ID     string
	ClockMinutes  int
	Notifier      Notifier
	NotifyTimeout time.Duration
	Log           *zap.SugaredLogger
}

// Session is one match between two agents. AdvancePly calls are serialized;
// everything else may be called concurrently with a ply in flight.
type Session struct {
	id        string
	player1ID string
	player2ID string
	createdAt time.Time

	notifier      Notifier
	notifyTimeout time.Duration
	log           *zap.SugaredLogger

	advanceMu sync.Mutex

	mu          sync.RWMutex
	agents      [2]*agent.Handle
	status      statuses.Status
	board       board.Board
	prev        *board.Board
	current     int
	history     []game.Move
	message     string
	forfeitedBy int
	clocks      [2]game.Clock
	record      string
	finishedAt  time.Time
}

// NewSession returns a session in the Created state. It accepts no plies
// until Start hands it both agents.
func NewSession(cfg SessionConfig) *Session {
	if cfg.Notifier == nil {
		cfg.Notifier = NopNotifier{}
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = defaultNotifyTTL
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop().Sugar()
	}

	s := &Session{
		id:            cfg.MatchID,
		player1ID:     cfg.Player1ID,
		player2ID:     cfg.Player2ID,
		createdAt:     time.Now().UTC(),
		notifier:      cfg.Notifier,
		notifyTimeout: cfg.NotifyTimeout,
		log:           cfg.Log.With("match_id", cfg.MatchID),
		status:        statuses.StatusCreated,
		current:       game.Player1,
	}
	for i := range s.clocks {
		s.clocks[i] = game.Clock{Minutes: cfg.ClockMinutes}
	}
	s.record = serializeRecord(ptr(prepareRecord(s.header(""), nil)))
	return s
}

func ptr[T any](v T) *T {
	return &v
}

// Start attaches the agents and moves the session to InProgress. Handles
// that failed to load are accepted; the owning player loses on their turn.
func (s *Session) Start(player1, player2 *agent.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents = [2]*agent.Handle{player1, player2}
	if s.status == statuses.StatusCreated {
		s.status = statuses.StatusInProgress
	}
}

func (s *Session) ID() string {
	return s.id
}

// AdvancePly asks the agent to move for the current player and applies the
// first legal answer. Any way the ply ends the match comes back as an
// *errors.PlyError carrying the result message. If ctx ends while the agent
// is thinking, ctx.Err() is returned and the session is left as it was.
func (s *Session) AdvancePly(ctx context.Context) (game.Move, error) {
	s.advanceMu.Lock()
	defer s.advanceMu.Unlock()

	s.mu.RLock()
	status, player, snapshot := s.status, s.current, s.board
	handle := s.agents[player-1]
	s.mu.RUnlock()

	switch {
	case status == statuses.StatusCreated:
		return game.Move{}, apperr.ErrGameNotStarted
	case status.Finished():
		return game.Move{}, s.gameOverErr()
	}

	if handle == nil || !handle.Available() {
		return game.Move{}, s.finish(ctx, statuses.StatusError, apperr.ErrAgentLoadFailure,
			fmt.Sprintf("player %d's agent failed to load", player))
	}

	color := game.ColorOf(player)
	for attempt := 1; attempt <= MaxIllegalAttempts; attempt++ {
		raw, err := handle.Move(ctx, snapshot, player)
		if err != nil {
			// The caller gave up; the agent did not fail.
			if ctxErr := ctx.Err(); ctxErr != nil {
				s.log.Infow("ply abandoned by caller", "player", player, "error", ctxErr)
				return game.Move{}, ctxErr
			}
			return game.Move{}, s.finish(ctx, statuses.StatusError, apperr.ErrAgentRuntime, err.Error())
		}
		if len(raw) != 2 {
			return game.Move{}, s.finish(ctx, statuses.StatusError, apperr.ErrAgentMalformedMove, msgMalformed)
		}
		pos := board.Position{X: raw[0], Y: raw[1]}

		s.mu.Lock()
		if s.status.Finished() {
			s.mu.Unlock()
			return game.Move{}, s.gameOverErr()
		}
		if err := s.board.Check(pos, color, s.prev); err != nil {
			s.message = msgRetrying
			s.mu.Unlock()
			s.log.Infow("illegal move", "player", player, "position", pos.String(), "attempt", attempt, "error", err)
			continue
		}

		before := s.board
		captured := s.board.Apply(pos, color)
		s.prev = &before
		move := game.Move{Position: pos, Player: player, Captured: captured, Seq: len(s.history) + 1}
		s.history = append(s.history, move)
		s.record = appendMoveToRecord(s.record, move)
		s.current = 3 - player
		s.message = ""
		if len(s.history) >= board.Capacity {
			s.status = statuses.StatusCompleted
			s.message = msgBoardFull
			s.finishedAt = time.Now().UTC()
		}
		upd := s.boardUpdateLocked(&move)
		s.mu.Unlock()

		s.notifyBoard(ctx, upd)
		return move, nil
	}

	return game.Move{}, s.finish(ctx, statuses.StatusError, apperr.ErrAgentExceededRetries, msgExceeded)
}

// Forfeit ends the match with player conceding. It does not wait for a ply
// in flight; that ply observes the terminal state before applying anything.
func (s *Session) Forfeit(ctx context.Context, player int) error {
	if player != game.Player1 && player != game.Player2 {
		return apperr.ErrInvalidPlayer
	}
	return s.end(ctx, statuses.StatusForfeited, player, fmt.Sprintf("player %d forfeited", player))
}

// Terminate ends a match the host gives up on. A finished session is left
// as it is.
func (s *Session) Terminate(ctx context.Context) {
	_ = s.end(ctx, statuses.StatusForfeited, 0, msgEndedByHost)
}

func (s *Session) end(ctx context.Context, status statuses.Status, forfeitedBy int, msg string) error {
	s.mu.Lock()
	if s.status.Finished() {
		s.mu.Unlock()
		return apperr.ErrGameOver
	}
	s.status = status
	s.forfeitedBy = forfeitedBy
	s.message = msg
	s.finishedAt = time.Now().UTC()
	upd := s.boardUpdateLocked(nil)
	s.mu.Unlock()

	s.log.Infow("match ended", "status", status, "result", msg)
	s.notifyBoard(ctx, upd)
	return nil
}

func (s *Session) finish(ctx context.Context, status statuses.Status, kind error, msg string) error {
	if err := s.end(ctx, status, 0, msg); err != nil {
		return s.gameOverErr()
	}
	return &apperr.PlyError{Kind: kind, Message: msg}
}

func (s *Session) gameOverErr() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msg := s.message
	if msg == "" {
		msg = apperr.ErrGameOver.Error()
	}
	return &apperr.PlyError{Kind: apperr.ErrGameOver, Message: msg}
}

// UpdateClock stores the remaining time a client reports for player and
// forwards it to the notifier. Clocks are advisory; nothing enforces them.
func (s *Session) UpdateClock(ctx context.Context, player, minutes, seconds int) error {
	if player != game.Player1 && player != game.Player2 {
		return apperr.ErrInvalidPlayer
	}
	if minutes < 0 || seconds < 0 || seconds >= 60 {
		return fmt.Errorf("%w: clock %d:%02d", apperr.ErrInvalidRequest, minutes, seconds)
	}

	s.mu.Lock()
	s.clocks[player-1] = game.Clock{Minutes: minutes, Seconds: seconds}
	s.mu.Unlock()

	s.notify(ctx, "clock", func(ctx context.Context) error {
		return s.notifier.OnClockUpdate(ctx, game.ClockUpdate{
			MatchID: s.id,
			Player:  player,
			Minutes: minutes,
			Seconds: seconds,
		})
	})
	return nil
}

func (s *Session) State() game.State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return game.State{
		MatchID:       s.id,
		Player1ID:     s.player1ID,
		Player2ID:     s.player2ID,
		Status:        s.status,
		Board:         s.board.Grid(),
		CurrentPlayer: s.current,
		MoveHistory:   append([]game.Move(nil), s.history...),
		GameOver:      s.status.Finished(),
		ResultMessage: s.message,
		Clocks:        s.clocks,
	}
}

// BoardUpdate is the notification a late subscriber needs to catch up.
func (s *Session) BoardUpdate() game.BoardUpdate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var last *game.Move
	if n := len(s.history); n > 0 {
		m := s.history[n-1]
		last = &m
	}
	return s.boardUpdateLocked(last)
}

func (s *Session) boardUpdateLocked(last *game.Move) game.BoardUpdate {
	return game.BoardUpdate{
		MatchID:       s.id,
		Board:         s.board.Grid(),
		CurrentPlayer: s.current,
		LastMove:      last,
		GameOver:      s.status.Finished(),
		ResultMessage: s.message,
	}
}

// DetermineWinner counts stones on the board. Forfeits do not change the
// count; Outcome reports who forfeited separately.
func (s *Session) DetermineWinner() (game.Winner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.status.Finished() {
		return "", apperr.ErrGameNotFinished
	}
	return winnerOf(s.board.Count(board.Black), s.board.Count(board.White)), nil
}

func winnerOf(black, white int) game.Winner {
	switch {
	case black > white:
		return game.WinnerBlack
	case white > black:
		return game.WinnerWhite
	}
	return game.WinnerDraw
}

// Record is the SGF text of the moves played so far.
func (s *Session) Record() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record
}

func (s *Session) Outcome() (game.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.status.Finished() {
		return game.Outcome{}, apperr.ErrGameNotFinished
	}

	black, white := s.board.Count(board.Black), s.board.Count(board.White)
	moves := append([]game.Move(nil), s.history...)
	rec := prepareRecord(s.header(recordResult(black, white)), moves)

	return game.Outcome{
		MatchID:       s.id,
		Player1ID:     s.player1ID,
		Player2ID:     s.player2ID,
		Status:        s.status,
		Winner:        winnerOf(black, white),
		ForfeitedBy:   s.forfeitedBy,
		ResultMessage: s.message,
		Moves:         moves,
		BlackStones:   black,
		WhiteStones:   white,
		SGF:           serializeRecord(&rec),
		CreatedAt:     s.createdAt,
		FinishedAt:    s.finishedAt,
	}, nil
}

func (s *Session) header(result string) recordHeader {
	return recordHeader{
		MatchID:   s.id,
		Player1ID: s.player1ID,
		Player2ID: s.player2ID,
		CreatedAt: s.createdAt,
		Result:    result,
	}
}

// Close releases both agents.
func (s *Session) Close() {
	s.mu.RLock()
	handles := s.agents
	s.mu.RUnlock()

	for _, h := range handles {
		if h == nil {
			continue
		}
		if err := h.Close(); err != nil {
			s.log.Warnw("closing agent", "source", h.Source(), "error", err)
		}
	}
}

func (s *Session) notifyBoard(ctx context.Context, upd game.BoardUpdate) {
	s.notify(ctx, "board", func(ctx context.Context) error {
		return s.notifier.OnBoardUpdate(ctx, upd)
	})
}

func (s *Session) notify(ctx context.Context, kind string, call func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			s.log.Errorw("notifier panicked", "kind", kind, "panic", r)
		}
	}()
	if err := call(ctx); err != nil {
		s.log.Errorw("notifier failed", "kind", kind, "error", err)
	}
}
