package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/templui/recipehub/internal/apperror"
	"github.com/templui/recipehub/internal/ctxkeys"
	"github.com/templui/recipehub/internal/model"
	"github.com/templui/recipehub/internal/service"
)

const recipeImageField = "recipeImage"

type recipeHandler struct {
	recipeService *service.RecipeService
	maxUploadSize int64
}

func NewRecipeHandler(recipeService *service.RecipeService, maxUploadSize int64) *recipeHandler {
	return &recipeHandler{
		recipeService: recipeService,
		maxUploadSize: maxUploadSize,
	}
}

// Create accepts a multipart form with the recipe fields and a recipeImage file.
func (h *recipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	// Leave headroom for the text fields next to the image
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+(1<<20))
	err := r.ParseMultipartForm(h.maxUploadSize)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, r, apperror.Validation("upload too large"))
			return
		}
		writeError(w, r, apperror.Validation("expected a multipart form"))
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	content, err := contentFromForm(r.MultipartForm)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var image *service.ImageUpload
	file, header, err := r.FormFile(recipeImageField)
	switch {
	case err == nil:
		defer file.Close()
		image = &service.ImageUpload{Filename: header.Filename, Size: header.Size, Content: file}
	case errors.Is(err, http.ErrMissingFile):
	default:
		writeError(w, r, apperror.Validation("invalid recipe image"))
		return
	}

	recipe, err := h.recipeService.Create(r.Context(), user.ID, content, image)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, recipe)
}

func (h *recipeHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, err := queryInt(query.Get("page"))
	if err != nil {
		writeError(w, r, apperror.Validation("page must be a number"))
		return
	}
	limit, err := queryInt(query.Get("limit"))
	if err != nil {
		writeError(w, r, apperror.Validation("limit must be a number"))
		return
	}

	result, err := h.recipeService.List(r.Context(), query.Get("search"), page, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *recipeHandler) Get(w http.ResponseWriter, r *http.Request) {
	recipe, err := h.recipeService.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, recipe)
}

type recipeRequest struct {
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Ingredients  listField `json:"ingredients"`
	Instructions listField `json:"instructions"`
	CookingTime  int       `json:"cookingTime"`
}

// Update replaces every editable field with the JSON body. Authorship is
// checked before the body is read.
func (h *recipeHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := h.recipeService.CheckAuthor(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req recipeRequest
	err = decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	recipe, err := h.recipeService.Update(r.Context(), user.ID, r.PathValue("id"), model.RecipeContent{
		Name:         req.Name,
		Description:  req.Description,
		Ingredients:  req.Ingredients,
		Instructions: req.Instructions,
		CookingTime:  req.CookingTime,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, recipe)
}

func (h *recipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := h.recipeService.Delete(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *recipeHandler) ByUsername(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.recipeService.ByUsername(r.Context(), r.PathValue("username"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, recipes)
}

func contentFromForm(form *multipart.Form) (model.RecipeContent, error) {
	content := model.RecipeContent{
		Name:         formValue(form, "name"),
		Description:  formValue(form, "description"),
		Ingredients:  formList(form, "ingredients"),
		Instructions: formList(form, "instructions"),
	}

	cookingTime, err := queryInt(formValue(form, "cookingTime"))
	if err != nil {
		return content, apperror.Validation("cookingTime must be a whole number of minutes")
	}
	content.CookingTime = cookingTime
	return content, nil
}

func formValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// formList reads repeated fields as items, or splits a single field on commas
// or newlines.
func formList(form *multipart.Form, key string) []string {
	values := form.Value[key]
	if len(values) == 1 {
		return splitList(values[0])
	}
	return values
}

func queryInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
