package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/avdeluca/inkwell-be/internal/auth"
	"github.com/avdeluca/inkwell-be/internal/services"
)

// maxUploadMemory bounds the in-memory part of multipart parsing.
const maxUploadMemory = 32 << 20

// PostHandler handles HTTP requests for posts and their comments.
type PostHandler struct {
	service         services.PostServiceProvider
	uploads         services.UploadServiceProvider
	defaultPageSize int
	maxPageSize     int
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(service services.PostServiceProvider, uploads services.UploadServiceProvider, defaultPageSize, maxPageSize int) *PostHandler {
	return &PostHandler{
		service:         service,
		uploads:         uploads,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// List handles the paginated post listing with an optional category
// filter. Page numbers below 1 are clamped, not rejected, at this
// layer.
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	page, ok := parsePositiveInt(w, r.URL.Query().Get("page"), 1)
	if !ok {
		return
	}
	pageSize, ok := parsePositiveInt(w, r.URL.Query().Get("pageSize"), h.defaultPageSize)
	if !ok {
		return
	}
	if pageSize > h.maxPageSize {
		pageSize = h.maxPageSize
	}

	posts, err := h.service.ListPosts(page, pageSize, r.URL.Query().Get("category"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, posts)
}

// Get handles retrieving a full post by id or slug.
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.GetPost(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, post)
}

// postPayload is the JSON body for create and update. Pointers tell
// apart "absent" from "set to empty" on update.
type postPayload struct {
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	Excerpt   *string `json:"excerpt"`
	Category  *string `json:"category"`
	Published *bool   `json:"published"`
}

// Create handles post creation from either a JSON body or a multipart
// form carrying a featuredImage file. The author is always the
// authenticated caller.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		respondError(w, r, errMissingCaller)
		return
	}

	payload, filename, ok := h.readPostRequest(w, r)
	if !ok {
		return
	}

	in := services.CreatePostInput{
		AuthorID:      caller.ID,
		FeaturedImage: filename,
		Published:     payload.Published,
	}
	if payload.Title != nil {
		in.Title = *payload.Title
	}
	if payload.Content != nil {
		in.Content = *payload.Content
	}
	if payload.Excerpt != nil {
		in.Excerpt = *payload.Excerpt
	}
	if payload.Category != nil {
		in.CategoryID = *payload.Category
	}

	post, err := h.service.CreatePost(in)
	if err != nil {
		// The upload landed before the record; don't strand the file.
		if filename != "" {
			if rmErr := h.uploads.Remove(filename); rmErr != nil {
				log.Warn().Err(rmErr).Str("file", filename).Msg("Failed to remove upload after aborted create")
			}
		}
		log.Warn().Err(err).Str("author_id", caller.ID).Msg("Failed to create post")
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, post)
}

// Update handles partial post updates; only the author may mutate.
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		respondError(w, r, errMissingCaller)
		return
	}
	id := chi.URLParam(r, "id")

	payload, filename, ok := h.readPostRequest(w, r)
	if !ok {
		return
	}

	in := services.UpdatePostInput{
		Title:      payload.Title,
		Content:    payload.Content,
		Excerpt:    payload.Excerpt,
		CategoryID: payload.Category,
		Published:  payload.Published,
	}
	if filename != "" {
		in.FeaturedImage = &filename
	}

	post, err := h.service.UpdatePost(id, caller.ID, in)
	if err != nil {
		if filename != "" {
			if rmErr := h.uploads.Remove(filename); rmErr != nil {
				log.Warn().Err(rmErr).Str("file", filename).Msg("Failed to remove upload after aborted update")
			}
		}
		log.Warn().Err(err).Str("post_id", id).Msg("Failed to update post")
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, post)
}

// Delete handles post deletion; only the author may delete.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		respondError(w, r, errMissingCaller)
		return
	}
	id := chi.URLParam(r, "id")

	if err := h.service.DeletePost(id, caller.ID); err != nil {
		log.Warn().Err(err).Str("post_id", id).Msg("Failed to delete post")
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"id": id})
}

// AddComment appends a comment to a post. Authentication is optional;
// anonymous comments carry no author.
func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var payload struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	var authorID *string
	if caller, ok := auth.CallerFromContext(r.Context()); ok {
		authorID = &caller.ID
	}

	post, err := h.service.AddComment(id, authorID, payload.Content)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, post)
}

// readPostRequest decodes either a JSON body or a multipart form and,
// for multipart, stores an uploaded featuredImage before returning.
// The bool result is false when a response was already written.
func (h *PostHandler) readPostRequest(w http.ResponseWriter, r *http.Request) (postPayload, string, bool) {
	var payload postPayload

	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			respondBadRequest(w, "invalid request body")
			return payload, "", false
		}
		return payload, "", true
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respondBadRequest(w, "invalid multipart form")
		return payload, "", false
	}

	formValue := func(key string) *string {
		if values, ok := r.MultipartForm.Value[key]; ok && len(values) > 0 {
			return &values[0]
		}
		return nil
	}
	payload.Title = formValue("title")
	payload.Content = formValue("content")
	payload.Excerpt = formValue("excerpt")
	payload.Category = formValue("category")
	if v := formValue("published"); v != nil {
		published, err := strconv.ParseBool(*v)
		if err != nil {
			respondBadRequest(w, "published must be a boolean")
			return payload, "", false
		}
		payload.Published = &published
	}

	file, header, err := r.FormFile("featuredImage")
	if err == http.ErrMissingFile {
		return payload, "", true
	}
	if err != nil {
		respondBadRequest(w, "invalid featuredImage upload")
		return payload, "", false
	}
	defer file.Close()

	// Fail closed: a post may only reference a fully stored file.
	filename, err := h.uploads.SaveFeaturedImage(file, header)
	if err != nil {
		respondError(w, r, err)
		return payload, "", false
	}
	return payload, filename, true
}

// parsePositiveInt parses a query value, applying the fallback when
// absent and clamping values below 1. Non-numeric input is a 400.
func parsePositiveInt(w http.ResponseWriter, raw string, fallback int) (int, bool) {
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		respondBadRequest(w, "page and pageSize must be integers")
		return 0, false
	}
	if n < 1 {
		n = 1
	}
	return n, true
}
