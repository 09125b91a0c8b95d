package match

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"agladiator/internal/bootstrap"
	"agladiator/internal/domain/game"
	apperr "agladiator/internal/errors"
	"agladiator/internal/usecase/agent"
)

type RecordStore interface {
	SaveRecord(ctx context.Context, matchID string, sgfText string) error
	LoadRecord(ctx context.Context, matchID string) (string, error)
}

type OutcomeStore interface {
	SaveOutcome(ctx context.Context, outcome game.Outcome) error
	GetOutcome(ctx context.Context, matchID string) (game.Outcome, error)
	RecentOutcomes(ctx context.Context, limit int64) ([]game.Outcome, error)
}

type AgentLoader interface {
	Load(ctx context.Context, source string) *agent.Handle
}

// MatchUseCase is what the host talks to. records and outcomes may be nil,
// in which case nothing outlives the process.
type MatchUseCase struct {
	cfg      bootstrap.Config
	log      *zap.SugaredLogger
	registry *Registry
	loader   AgentLoader
	notifier Notifier
	records  RecordStore
	outcomes OutcomeStore
}

func NewMatchUseCase(cfg bootstrap.Config, log *zap.SugaredLogger, registry *Registry, loader AgentLoader,
	notifier Notifier, records RecordStore, outcomes OutcomeStore) *MatchUseCase {
	return &MatchUseCase{
		cfg:      cfg,
		log:      log,
		registry: registry,
		loader:   loader,
		notifier: notifier,
		records:  records,
		outcomes: outcomes,
	}
}

// CreateSession creates the match if the id is new and returns the live
// session either way. Both agents load concurrently; a failed load does not
// fail creation.
func (m *MatchUseCase) CreateSession(ctx context.Context, req game.CreateMatchRequest) (*Session, bool, error) {
	if req.Player1ID == "" || req.Player2ID == "" {
		return nil, false, fmt.Errorf("%w: both player ids are required", apperr.ErrInvalidRequest)
	}
	if req.Agent1 == "" || req.Agent2 == "" {
		return nil, false, fmt.Errorf("%w: both agent sources are required", apperr.ErrInvalidRequest)
	}
	if req.MatchID == "" {
		req.MatchID = uuid.New().String()
	}

	return m.registry.GetOrCreate(ctx, req.MatchID, func(ctx context.Context) (*Session, error) {
		// Other callers wait on this session; only AGENT_LOAD_TIMEOUT bounds
		// the loads, not the creator's request.
		ctx = context.WithoutCancel(ctx)
		s := NewSession(SessionConfig{
			MatchID:       req.MatchID,
			Player1ID:     req.Player1ID,
			Player2ID:     req.Player2ID,
			ClockMinutes:  m.cfg.ClockMinutes,
			Notifier:      m.notifier,
			NotifyTimeout: m.cfg.NotifyTimeout,
			Log:           m.log,
		})

		var handles [2]*agent.Handle
		g, gctx := errgroup.WithContext(ctx)
		for i, source := range []string{req.Agent1, req.Agent2} {
			g.Go(func() error {
				handles[i] = m.loader.Load(gctx, source)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		s.Start(handles[0], handles[1])
		m.saveRecord(ctx, s)
		m.log.Infow("match created", "match_id", req.MatchID,
			"agent1", req.Agent1, "agent1_ok", handles[0].Available(),
			"agent2", req.Agent2, "agent2_ok", handles[1].Available())
		return s, nil
	})
}

func (m *MatchUseCase) AdvancePly(ctx context.Context, matchID string) (game.Move, error) {
	s, err := m.registry.Get(ctx, matchID)
	if err != nil {
		return game.Move{}, err
	}

	move, err := s.AdvancePly(ctx)
	var plyErr *apperr.PlyError
	if err == nil || (errors.As(err, &plyErr) && !errors.Is(err, apperr.ErrGameOver)) {
		m.saveRecord(ctx, s)
	}
	return move, err
}

func (m *MatchUseCase) GetState(ctx context.Context, matchID string) (game.State, error) {
	s, err := m.registry.Get(ctx, matchID)
	if err != nil {
		return game.State{}, err
	}
	return s.State(), nil
}

func (m *MatchUseCase) Session(ctx context.Context, matchID string) (*Session, error) {
	return m.registry.Get(ctx, matchID)
}

func (m *MatchUseCase) UpdateClock(ctx context.Context, matchID string, player, minutes, seconds int) error {
	s, err := m.registry.Get(ctx, matchID)
	if err != nil {
		return err
	}
	return s.UpdateClock(ctx, player, minutes, seconds)
}

func (m *MatchUseCase) Forfeit(ctx context.Context, matchID string, player int) error {
	s, err := m.registry.Get(ctx, matchID)
	if err != nil {
		return err
	}
	return s.Forfeit(ctx, player)
}

// EndSession removes the match from the registry, ending it first if it is
// still running, and hands the outcome to the outcome store.
func (m *MatchUseCase) EndSession(ctx context.Context, matchID string) (game.Outcome, error) {
	s, err := m.registry.Remove(ctx, matchID)
	if err != nil {
		return game.Outcome{}, err
	}
	defer s.Close()

	s.Terminate(ctx)
	outcome, err := s.Outcome()
	if err != nil {
		return game.Outcome{}, err
	}

	if m.records != nil {
		if err := m.records.SaveRecord(ctx, matchID, outcome.SGF); err != nil {
			m.log.Errorw("saving final record", "match_id", matchID, "error", err)
		}
	}
	if m.outcomes != nil {
		if err := m.outcomes.SaveOutcome(ctx, outcome); err != nil {
			m.log.Errorw("saving outcome", "match_id", matchID, "error", err)
		}
	}

	m.log.Infow("match finalized", "match_id", matchID, "status", outcome.Status, "winner", outcome.Winner)
	return outcome, nil
}

func (m *MatchUseCase) ListSessions() []string {
	return m.registry.IDs()
}

// GetRecord serves the live record while the match is registered and the
// stored one afterwards.
func (m *MatchUseCase) GetRecord(ctx context.Context, matchID string) (string, error) {
	if s, err := m.registry.Get(ctx, matchID); err == nil {
		return s.Record(), nil
	}
	if m.records == nil {
		return "", apperr.ErrRecordNotFound
	}
	return m.records.LoadRecord(ctx, matchID)
}

func (m *MatchUseCase) GetOutcome(ctx context.Context, matchID string) (game.Outcome, error) {
	if m.outcomes == nil {
		return game.Outcome{}, apperr.ErrOutcomeNotFound
	}
	return m.outcomes.GetOutcome(ctx, matchID)
}

func (m *MatchUseCase) RecentOutcomes(ctx context.Context, limit int64) ([]game.Outcome, error) {
	if m.outcomes == nil {
		return nil, nil
	}
	return m.outcomes.RecentOutcomes(ctx, limit)
}

func (m *MatchUseCase) saveRecord(ctx context.Context, s *Session) {
	if m.records == nil {
		return
	}
	if err := m.records.SaveRecord(ctx, s.ID(), s.Record()); err != nil {
		m.log.Errorw("saving record", "match_id", s.ID(), "error", err)
	}
}
