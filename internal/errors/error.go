package errors

import "errors"

var (
	ErrInvalidMove          = errors.New("invalid move")
	ErrAgentLoadFailure     = errors.New("agent failed to load")
	ErrAgentMalformedMove   = errors.New("invalid move format")
	ErrAgentRuntime         = errors.New("agent runtime error")
	ErrAgentExceededRetries = errors.New("exceeded illegal move retries")
	ErrBoardFull            = errors.New("board is full")
	ErrSessionNotFound      = errors.New("session was not found")
	ErrSessionExists        = errors.New("session already exists")
	ErrGameOver             = errors.New("game already over")
	ErrGameNotFinished      = errors.New("game is not finished")
	ErrGameNotStarted       = errors.New("game has not started")
	ErrInvalidRequest       = errors.New("invalid request")
	ErrInvalidPlayer        = errors.New("player must be 1 or 2")
	ErrOutcomeNotFound      = errors.New("outcome not found")
	ErrRecordNotFound       = errors.New("record not found")
	ErrInternal             = errors.New("internal error")
)

// PlyError is returned by a ply that ended the match. Kind is one of the
// sentinels above, Message is what the session recorded as its result.
type PlyError struct {
	Kind    error
	Message string
}

func (e *PlyError) Error() string {
	return e.Message
}

func (e *PlyError) Unwrap() error {
	return e.Kind
}
