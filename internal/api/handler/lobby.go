package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/redblue/internal/api/apierr"
	"github.com/mcoot/redblue/internal/api/middleware"
	"github.com/mcoot/redblue/internal/api/request"
	"github.com/mcoot/redblue/internal/api/response"
	"github.com/mcoot/redblue/internal/model"
	"github.com/mcoot/redblue/internal/services/lobby"
)

// LobbyHandler handles game creation, joining and the waiting-lobby actions
type LobbyHandler struct {
	lobbyController *lobby.Controller
}

// NewLobbyHandler creates a new lobby handler
func NewLobbyHandler(lobbyController *lobby.Controller) *LobbyHandler {
	return &LobbyHandler{lobbyController: lobbyController}
}

// Create handles POST /api/v1/game/create
func (h *LobbyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateGameRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	var visibility model.Visibility
	switch v := model.Visibility(strings.ToLower(strings.TrimSpace(req.Visibility))); v {
	case "", model.VisibilityPrivate, model.VisibilityPublic:
		visibility = v
	default:
		WriteError(w, apierr.NewInvalidRequestError("visibility must be public or private"))
		return
	}

	seat, err := h.lobbyController.CreateGame(r.Context(), req.Player1Name, visibility)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, seatResponse(seat))
}

// Join handles POST /api/v1/game/join
func (h *LobbyHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req request.JoinGameRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	seat, err := h.lobbyController.JoinGame(r.Context(), req.PlayerName, req.Code)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, seatResponse(seat))
}

// ListPublic handles GET /api/v1/games/public
func (h *LobbyHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	games, err := h.lobbyController.ListPublicGames(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PublicGamesFromModel(games))
}

// ChangeVisibility handles POST /api/v1/game/{id}/change_visibility
func (h *LobbyHandler) ChangeVisibility(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())
	id := model.GameID(mux.Vars(r)["id"])

	visibility, err := h.lobbyController.ChangeVisibility(r.Context(), id, identity.Role)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.VisibilityResponse{
		GameID:     string(id),
		Visibility: string(visibility),
	})
}

// Delete handles DELETE /api/v1/game/{id}/delete
func (h *LobbyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())
	id := model.GameID(mux.Vars(r)["id"])

	if err := h.lobbyController.DeleteLobby(r.Context(), id, identity.Role); err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MessageResponse{Message: "Game deleted"})
}

func seatResponse(seat *lobby.Seat) response.Seat {
	return response.Seat{
		GameID: string(seat.Game.ID),
		Code:   string(seat.Game.Code),
		Role:   string(seat.Role),
		Token:  seat.Token,
	}
}
