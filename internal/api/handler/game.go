package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/redblue/internal/api/apierr"
	"github.com/mcoot/redblue/internal/api/middleware"
	"github.com/mcoot/redblue/internal/api/request"
	"github.com/mcoot/redblue/internal/api/response"
	"github.com/mcoot/redblue/internal/model"
	"github.com/mcoot/redblue/internal/services/auth"
	"github.com/mcoot/redblue/internal/services/game"
	"github.com/mcoot/redblue/internal/services/presence"
)

// GameHandler handles the snapshot, choice and surrender endpoints
type GameHandler struct {
	gameController *game.Controller
	presence       *presence.Monitor
	logger         *slog.Logger
}

// NewGameHandler creates a new game handler
func NewGameHandler(gameController *game.Controller, presence *presence.Monitor, logger *slog.Logger) *GameHandler {
	return &GameHandler{
		gameController: gameController,
		presence:       presence,
		logger:         logger,
	}
}

// Get handles GET /api/v1/game/{id}. Fetching a snapshot counts as the caller reconnecting.
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())
	id := model.GameID(mux.Vars(r)["id"])

	if h.presence != nil {
		if err := h.presence.Reconnect(r.Context(), id, identity.Role); err != nil && model.KindOf(err) == model.KindInternal {
			h.logger.Warn("failed to record reconnect",
				slog.String("game_id", string(id)),
				slog.String("error", err.Error()),
			)
		}
	}

	g, err := h.gameController.Get(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, h.snapshot(g, identity.Role))
}

// Choose handles POST /api/v1/game/{id}/round/{round}/choice
func (h *GameHandler) Choose(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())
	vars := mux.Vars(r)
	id := model.GameID(vars["id"])

	round, err := strconv.Atoi(vars["round"])
	if err != nil || round < 1 {
		WriteError(w, apierr.NewInvalidRequestError("round number must be a positive integer"))
		return
	}

	var req request.ChoiceRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if err := checkBody(identity, id, req.GameID, req.PlayerName); err != nil {
		WriteError(w, err)
		return
	}
	if req.RoundNumber != 0 && req.RoundNumber != round {
		WriteError(w, apierr.NewInvalidRequestError("round_number does not match the path"))
		return
	}

	g, err := h.gameController.SubmitChoice(r.Context(), id, identity.Role, round, req.Choice)
	if err != nil {
		WriteError(w, err)
		return
	}

	choice, _ := model.ParseChoice(req.Choice)
	response.JSON(w, http.StatusOK, response.ChoiceResponse{
		Message:     "Choice submitted",
		RoundNumber: round,
		Choice:      string(choice),
		Game:        h.snapshot(g, identity.Role),
	})
}

// Abandon handles POST /api/v1/game/{id}/abandon
func (h *GameHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())
	id := model.GameID(mux.Vars(r)["id"])

	var req request.AbandonRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if err := checkBody(identity, id, req.GameID, req.PlayerName); err != nil {
		WriteError(w, err)
		return
	}

	g, err := h.gameController.Surrender(r.Context(), id, identity.Role)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, h.snapshot(g, identity.Role))
}

func (h *GameHandler) snapshot(g *model.Game, viewer model.PlayerRole) response.Game {
	out := response.GameFromModel(g, viewer)
	if g.State == model.GameStateActive {
		if deadline, ok := h.gameController.RoundDeadline(g); ok {
			out.RoundDeadline = &deadline
		}
	}
	return out
}

// checkBody rejects body fields that disagree with the path or the token
func checkBody(identity *auth.PlayerIdentity, id model.GameID, gameID, playerName string) error {
	if gameID != "" && model.GameID(gameID) != id {
		return apierr.NewInvalidRequestError("game_id does not match the path")
	}
	if playerName != "" && playerName != identity.PlayerName {
		return model.ErrForbidden
	}
	return nil
}
