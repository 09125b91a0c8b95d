package match

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"agladiator/internal/delivery/ws"
	"agladiator/internal/domain/game"
	apperr "agladiator/internal/errors"
	"agladiator/internal/httpresponse"
	matchuc "agladiator/internal/usecase/match"
	"agladiator/internal/utils"
)

const defaultOutcomeLimit = 20

type MatchHandler struct {
	log     *zap.SugaredLogger
	matchUC *matchuc.MatchUseCase
	hub     *ws.Hub
}

func NewMatchHandler(log *zap.SugaredLogger, matchUC *matchuc.MatchUseCase, hub *ws.Hub) *MatchHandler {
	return &MatchHandler{
		log:     log,
		matchUC: matchUC,
		hub:     hub,
	}
}

func (h *MatchHandler) Router(r chi.Router) {
	r.Route("/matches", func(r chi.Router) {
		r.Post("/", h.HandleCreateMatch)
		r.Get("/", h.HandleListMatches)
		r.Route("/{matchID}", func(r chi.Router) {
			r.Get("/", h.HandleGetState)
			r.Delete("/", h.HandleEndMatch)
			r.Post("/advance", h.HandleAdvance)
			r.Post("/clock", h.HandleClock)
			r.Post("/forfeit", h.HandleForfeit)
			r.Get("/record", h.HandleRecord)
			r.Get("/outcome", h.HandleOutcome)
			r.Get("/ws", h.HandleSubscribe)
		})
	})
	r.Get("/outcomes", h.HandleRecentOutcomes)
}

func (h *MatchHandler) HandleCreateMatch(w http.ResponseWriter, r *http.Request) {
	var req game.CreateMatchRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		h.log.Warnw(httpresponse.MALFORMEDJSON_errorDesc, "error", err)
		httpresponse.WriteErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	s, created, err := h.matchUC.CreateSession(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httpresponse.WriteResponseWithStatus(w, status, game.CreateMatchResponse{MatchID: s.ID()})
}

func (h *MatchHandler) HandleListMatches(w http.ResponseWriter, r *http.Request) {
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, h.matchUC.ListSessions())
}

func (h *MatchHandler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	st, err := h.matchUC.GetState(r.Context(), chi.URLParam(r, "matchID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, st)
}

func (h *MatchHandler) HandleAdvance(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")

	move, err := h.matchUC.AdvancePly(r.Context(), matchID)
	var plyErr *apperr.PlyError
	switch {
	case errors.As(err, &plyErr):
		httpresponse.WriteResponseWithStatus(w, http.StatusConflict, game.PlyErrorResponse{
			Error:         plyErr.Kind.Error(),
			GameOver:      true,
			ResultMessage: plyErr.Message,
		})
		return
	case err != nil:
		h.writeError(w, err)
		return
	}

	st, err := h.matchUC.GetState(r.Context(), matchID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, game.PlyResponse{
		Position:      move.Position,
		Color:         game.ColorOf(move.Player).String(),
		Captured:      len(move.Captured),
		GameOver:      st.GameOver,
		ResultMessage: st.ResultMessage,
	})
}

func (h *MatchHandler) HandleClock(w http.ResponseWriter, r *http.Request) {
	var req game.ClockRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		httpresponse.WriteErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	matchID := chi.URLParam(r, "matchID")
	if err := h.matchUC.UpdateClock(r.Context(), matchID, req.Player, req.Minutes, req.Seconds); err != nil {
		h.writeError(w, err)
		return
	}
	h.HandleGetState(w, r)
}

func (h *MatchHandler) HandleForfeit(w http.ResponseWriter, r *http.Request) {
	var req game.ForfeitRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		httpresponse.WriteErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	matchID := chi.URLParam(r, "matchID")
	if err := h.matchUC.Forfeit(r.Context(), matchID, req.Player); err != nil {
		h.writeError(w, err)
		return
	}
	h.HandleGetState(w, r)
}

func (h *MatchHandler) HandleEndMatch(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.matchUC.EndSession(r.Context(), chi.URLParam(r, "matchID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, outcome)
}

func (h *MatchHandler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.matchUC.GetRecord(r.Context(), chi.URLParam(r, "matchID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/x-go-sgf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(rec))
}

func (h *MatchHandler) HandleOutcome(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.matchUC.GetOutcome(r.Context(), chi.URLParam(r, "matchID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, outcome)
}

func (h *MatchHandler) HandleRecentOutcomes(w http.ResponseWriter, r *http.Request) {
	limit := int64(defaultOutcomeLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			httpresponse.WriteErrorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	outcomes, err := h.matchUC.RecentOutcomes(r.Context(), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if outcomes == nil {
		outcomes = []game.Outcome{}
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, outcomes)
}

// HandleSubscribe streams board and clock events for one match. Clients may
// send {"type":"clock",...} to report remaining time.
func (h *MatchHandler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")
	s, err := h.matchUC.Session(r.Context(), matchID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	err = h.hub.Serve(w, r, matchID, s.BoardUpdate(), func(ctx context.Context, msg game.ClientMessage) {
		if msg.Type != "clock" {
			return
		}
		if err := h.matchUC.UpdateClock(ctx, matchID, msg.Player, msg.Minutes, msg.Seconds); err != nil {
			h.log.Warnw("clock update rejected", "match_id", matchID, "error", err)
		}
	})
	if err != nil {
		h.log.Warnw("subscription ended", "match_id", matchID, "error", err)
	}
}

func (h *MatchHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrSessionNotFound),
		errors.Is(err, apperr.ErrOutcomeNotFound),
		errors.Is(err, apperr.ErrRecordNotFound):
		httpresponse.WriteErrorResponse(w, http.StatusNotFound, err.Error())
	case errors.Is(err, apperr.ErrInvalidRequest),
		errors.Is(err, apperr.ErrInvalidPlayer):
		httpresponse.WriteErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.ErrGameOver),
		errors.Is(err, apperr.ErrGameNotStarted),
		errors.Is(err, apperr.ErrGameNotFinished):
		httpresponse.WriteErrorResponse(w, http.StatusConflict, err.Error())
	default:
		h.log.Error(err)
		httpresponse.WriteInternalErrorResponse(w)
	}
}
