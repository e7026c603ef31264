package handler

import (
	"net/http"
	"strconv"

	"github.com/mcoot/redblue/internal/api/request"
	"github.com/mcoot/redblue/internal/api/response"
	"github.com/mcoot/redblue/internal/archive"
	"github.com/mcoot/redblue/internal/model"
	"github.com/mcoot/redblue/internal/services/auth"
	"github.com/mcoot/redblue/internal/services/lobby"
)

// AdminHandler handles admin login, listing, cleanup and history
type AdminHandler struct {
	authService     *auth.Service
	lobbyController *lobby.Controller
	archive         archive.Archiver
}

// NewAdminHandler creates a new admin handler. A nil archive reports an empty history.
func NewAdminHandler(authService *auth.Service, lobbyController *lobby.Controller, archiver archive.Archiver) *AdminHandler {
	if archiver == nil {
		archiver = archive.Nop{}
	}
	return &AdminHandler{
		authService:     authService,
		lobbyController: lobbyController,
		archive:         archiver,
	}
}

// Login handles POST /api/v1/admin/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.AdminLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	token, err := h.authService.AdminLogin(req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AdminLoginResponse{AdminToken: token})
}

// ListGames handles GET /api/v1/games
func (h *AdminHandler) ListGames(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var filter lobby.ListFilter
	var err error
	if filter.Page, err = intParam(q.Get("page")); err != nil {
		WriteError(w, model.ErrInvalidPage)
		return
	}
	if filter.PageSize, err = intParam(q.Get("page_size")); err != nil {
		WriteError(w, model.ErrInvalidPage)
		return
	}
	if s := q.Get("game_state"); s != "" {
		state, ok := model.ParseGameState(s)
		if !ok {
			WriteError(w, model.ErrInvalidState)
			return
		}
		filter.State = state
	}

	games, found, err := h.lobbyController.ListGames(r.Context(), filter)
	if err != nil {
		WriteError(w, err)
		return
	}

	page, pageSize := filter.Page, filter.PageSize
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = lobby.DefaultPageSize
	}
	response.JSON(w, http.StatusOK, response.AdminGamesResponse{
		Games:      response.GamesFromModel(games),
		FoundGames: found,
		Page:       page,
		PageSize:   pageSize,
	})
}

// Cleanup handles POST /api/v1/admin/cleanup
func (h *AdminHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	var req request.AdminRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	removed, err := h.lobbyController.Cleanup(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.CleanupResponse{
		Message: "Cleanup complete",
		Removed: removed,
	})
}

// History handles GET /api/v1/admin/history
func (h *AdminHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query().Get("limit"))
	if err != nil || limit < 0 {
		WriteError(w, model.ErrInvalidPage)
		return
	}

	games, err := h.archive.Recent(r.Context(), limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.HistoryResponse{Games: response.GamesFromModel(games)})
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
