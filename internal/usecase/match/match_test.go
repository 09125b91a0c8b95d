package match

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"agladiator/internal/bootstrap"
	"agladiator/internal/domain/game"
	apperr "agladiator/internal/errors"
	"agladiator/internal/statuses"
	"agladiator/internal/usecase/agent"
)

type memoryStore struct {
	mu       sync.Mutex
	records  map[string]string
	outcomes map[string]game.Outcome
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: map[string]string{}, outcomes: map[string]game.Outcome{}}
}

func (m *memoryStore) SaveRecord(_ context.Context, matchID string, sgfText string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[matchID] = sgfText
	return nil
}

func (m *memoryStore) LoadRecord(_ context.Context, matchID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[matchID]
	if !ok {
		return "", apperr.ErrRecordNotFound
	}
	return rec, nil
}

func (m *memoryStore) SaveOutcome(_ context.Context, outcome game.Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[outcome.MatchID] = outcome
	return nil
}

func (m *memoryStore) GetOutcome(_ context.Context, matchID string) (game.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.outcomes[matchID]
	if !ok {
		return game.Outcome{}, apperr.ErrOutcomeNotFound
	}
	return o, nil
}

func (m *memoryStore) RecentOutcomes(_ context.Context, limit int64) ([]game.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []game.Outcome
	for _, o := range m.outcomes {
		if int64(len(out)) == limit {
			break
		}
		out = append(out, o)
	}
	return out, nil
}

func testConfig() bootstrap.Config {
	return bootstrap.Config{
		AgentDir:         "testdata",
		AgentLoadTimeout: time.Second,
		AgentMoveTimeout: time.Second,
		NotifyTimeout:    time.Second,
		ClockMinutes:     5,
	}
}

func newUseCase(store *memoryStore) *MatchUseCase {
	cfg := testConfig()
	log := zap.NewNop().Sugar()
	var records RecordStore
	var outcomes OutcomeStore
	if store != nil {
		records, outcomes = store, store
	}
	return NewMatchUseCase(cfg, log, NewRegistry(), agent.NewLoader(cfg, log), NopNotifier{}, records, outcomes)
}

func firstVsFirst(id string) game.CreateMatchRequest {
	return game.CreateMatchRequest{
		MatchID:   id,
		Player1ID: "alice",
		Player2ID: "bob",
		Agent1:    "builtin:first",
		Agent2:    "builtin:first",
	}
}

func TestCreateSessionValidates(t *testing.T) {
	m := newUseCase(nil)
	ctx := context.Background()

	_, _, err := m.CreateSession(ctx, game.CreateMatchRequest{Agent1: "builtin:first", Agent2: "builtin:first"})
	assert.ErrorIs(t, err, apperr.ErrInvalidRequest)

	_, _, err = m.CreateSession(ctx, game.CreateMatchRequest{Player1ID: "alice", Player2ID: "bob"})
	assert.ErrorIs(t, err, apperr.ErrInvalidRequest)
	assert.Empty(t, m.ListSessions())
}

func TestCreateSessionIsIdempotent(t *testing.T) {
	m := newUseCase(nil)
	ctx := context.Background()

	s, created, err := m.CreateSession(ctx, firstVsFirst("m1"))
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := m.CreateSession(ctx, firstVsFirst("m1"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, s, again)

	st, err := m.GetState(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, statuses.StatusInProgress, st.Status)
	assert.Equal(t, [2]game.Clock{{Minutes: 5}, {Minutes: 5}}, st.Clocks)
}

func TestCreateSessionGeneratesID(t *testing.T) {
	m := newUseCase(nil)

	s, _, err := m.CreateSession(context.Background(), firstVsFirst(""))
	require.NoError(t, err)
	assert.Len(t, s.ID(), 36)
	assert.Equal(t, []string{s.ID()}, m.ListSessions())
}

func TestMatchLifecycle(t *testing.T) {
	store := newMemoryStore()
	m := newUseCase(store)
	ctx := context.Background()

	_, _, err := m.CreateSession(ctx, firstVsFirst("m1"))
	require.NoError(t, err)
	assert.Contains(t, store.records["m1"], "SZ[19]")

	for range 4 {
		_, err := m.AdvancePly(ctx, "m1")
		require.NoError(t, err)
	}
	rec, err := m.GetRecord(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, store.records["m1"], rec)

	require.NoError(t, m.UpdateClock(ctx, "m1", game.Player1, 4, 10))
	require.NoError(t, m.Forfeit(ctx, "m1", game.Player2))

	_, err = m.AdvancePly(ctx, "m1")
	assert.ErrorIs(t, err, apperr.ErrGameOver)

	outcome, err := m.EndSession(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, statuses.StatusForfeited, outcome.Status)
	assert.Equal(t, game.Player2, outcome.ForfeitedBy)
	assert.Len(t, outcome.Moves, 4)

	_, err = m.GetState(ctx, "m1")
	assert.ErrorIs(t, err, apperr.ErrSessionNotFound)
	_, err = m.AdvancePly(ctx, "m1")
	assert.ErrorIs(t, err, apperr.ErrSessionNotFound)
	_, err = m.EndSession(ctx, "m1")
	assert.ErrorIs(t, err, apperr.ErrSessionNotFound)

	saved, err := m.GetOutcome(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, outcome.SGF, saved.SGF)

	rec, err = m.GetRecord(ctx, "m1")
	require.NoError(t, err)
	assert.Contains(t, rec, "RE[")

	recent, err := m.RecentOutcomes(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestUnknownAgentEndsMatchOnItsTurn(t *testing.T) {
	m := newUseCase(nil)
	ctx := context.Background()

	req := firstVsFirst("m1")
	req.Agent1 = "builtin:nobody"
	_, _, err := m.CreateSession(ctx, req)
	require.NoError(t, err)

	_, err = m.AdvancePly(ctx, "m1")
	require.ErrorIs(t, err, apperr.ErrAgentLoadFailure)

	st, err := m.GetState(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, st.GameOver)
	assert.Equal(t, "player 1's agent failed to load", st.ResultMessage)
}

func TestEndSessionOfRunningMatch(t *testing.T) {
	m := newUseCase(nil)
	ctx := context.Background()

	_, _, err := m.CreateSession(ctx, firstVsFirst("m1"))
	require.NoError(t, err)

	outcome, err := m.EndSession(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, statuses.StatusForfeited, outcome.Status)
	assert.Equal(t, "match ended before completion", outcome.ResultMessage)

	_, err = m.GetOutcome(ctx, "m1")
	assert.ErrorIs(t, err, apperr.ErrOutcomeNotFound)
	_, err = m.GetRecord(ctx, "m1")
	assert.ErrorIs(t, err, apperr.ErrRecordNotFound)
}

// gatedLoader holds every load until release closes, failing the load if
// its context ends first.
type gatedLoader struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (l *gatedLoader) Load(ctx context.Context, source string) *agent.Handle {
	l.once.Do(func() { close(l.started) })
	select {
	case <-l.release:
		return agent.NewHandle(source, agent.First(), time.Second)
	case <-ctx.Done():
		return agent.Unavailable(source, ctx.Err())
	}
}

func TestCreatorCancelDoesNotBreakLoading(t *testing.T) {
	cfg := testConfig()
	loader := &gatedLoader{started: make(chan struct{}), release: make(chan struct{})}
	m := NewMatchUseCase(cfg, zap.NewNop().Sugar(), NewRegistry(), loader, NopNotifier{}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	type result struct {
		s   *Session
		err error
	}
	done := make(chan result, 1)
	go func() {
		s, _, err := m.CreateSession(ctx, firstVsFirst("m1"))
		done <- result{s, err}
	}()

	<-loader.started
	cancel()
	close(loader.release)

	res := <-done
	require.NoError(t, res.err)
	require.NotNil(t, res.s)

	move, err := m.AdvancePly(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, game.Player1, move.Player)

	st, err := m.GetState(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, statuses.StatusInProgress, st.Status)
}

func TestSessionsAreIndependent(t *testing.T) {
	m := newUseCase(nil)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		_, _, err := m.CreateSession(ctx, firstVsFirst(id))
		require.NoError(t, err)
	}
	require.NoError(t, m.Forfeit(ctx, "a", game.Player1))

	_, err := m.AdvancePly(ctx, "b")
	require.NoError(t, err)

	st, err := m.GetState(ctx, "b")
	require.NoError(t, err)
	assert.False(t, st.GameOver)
}
