package handler

import (
	"net/http"

	"github.com/templui/recipehub/internal/ctxkeys"
	"github.com/templui/recipehub/internal/service"
)

type reviewHandler struct {
	reviewService *service.ReviewService
}

func NewReviewHandler(reviewService *service.ReviewService) *reviewHandler {
	return &reviewHandler{reviewService: reviewService}
}

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *reviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req reviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	review, err := h.reviewService.Create(r.Context(), user.ID, r.PathValue("id"), req.Rating, req.Comment)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, review)
}

func (h *reviewHandler) List(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviewService.ByRecipe(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, reviews)
}
