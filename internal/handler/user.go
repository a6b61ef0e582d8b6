package handler

import (
	"net/http"

	"github.com/templui/recipehub/internal/ctxkeys"
	"github.com/templui/recipehub/internal/service"
)

type userHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *userHandler {
	return &userHandler{userService: userService}
}

func (h *userHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.Me(r.Context(), ctxkeys.User(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *userHandler) Favorites(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.userService.Favorites(r.Context(), ctxkeys.User(r.Context()).ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, recipes)
}

func (h *userHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	err := h.userService.AddFavorite(r.Context(), ctxkeys.User(r.Context()).ID, r.PathValue("recipeId"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *userHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	err := h.userService.RemoveFavorite(r.Context(), ctxkeys.User(r.Context()).ID, r.PathValue("recipeId"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
