package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/avdeluca/inkwell-be/internal/services"
)

// CategoryHandler handles HTTP requests for the category registry.
type CategoryHandler struct {
	service services.CategoryServiceProvider
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(service services.CategoryServiceProvider) *CategoryHandler {
	return &CategoryHandler{service: service}
}

// CategoryPayload defines the structure for create/rename requests.
type CategoryPayload struct {
	Name string `json:"name"`
}

// List handles the request to get all categories.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories()
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, categories)
}

// Create handles the request to create a new category.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload CategoryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	category, err := h.service.CreateCategory(payload.Name)
	if err != nil {
		log.Warn().Err(err).Str("name", payload.Name).Msg("Failed to create category")
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, category)
}

// Update handles the request to rename a category.
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var payload CategoryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	category, err := h.service.UpdateCategory(id, payload.Name)
	if err != nil {
		log.Warn().Err(err).Str("category_id", id).Msg("Failed to update category")
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, category)
}

// Delete handles the request to delete a category. Referencing posts
// keep working; their category resolves to null on read.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.DeleteCategory(id); err != nil {
		log.Warn().Err(err).Str("category_id", id).Msg("Failed to delete category")
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"id": id})
}
