package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/avdeluca/inkwell-be/internal/auth"
	"github.com/avdeluca/inkwell-be/internal/models"
	"github.com/avdeluca/inkwell-be/internal/services"
)

// AuthHandler handles registration, login and identity lookups.
type AuthHandler struct {
	users  services.UserServiceProvider
	tokens *auth.Manager
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users services.UserServiceProvider, tokens *auth.Manager) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authResponse pairs a session token with the public user view.
type authResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Register handles new user registration and signs the first token.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	user, err := h.users.Register(payload.Name, payload.Email, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("email", payload.Email).Msg("Failed to register user")
		respondError(w, r, err)
		return
	}

	token, err := h.tokens.GenerateToken(user)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate token")
		respondError(w, r, err)
		return
	}

	respondData(w, http.StatusCreated, authResponse{Token: token, User: user})
}

// Login handles authentication and token generation.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	user, err := h.users.Authenticate(payload.Email, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("email", payload.Email).Msg("Failed authentication attempt")
		respondError(w, r, err)
		return
	}

	token, err := h.tokens.GenerateToken(user)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate token")
		respondError(w, r, err)
		return
	}

	respondData(w, http.StatusOK, authResponse{Token: token, User: user})
}

// Me returns the identity behind the presented token.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		respondError(w, r, errMissingCaller)
		return
	}

	user, err := h.users.GetUserByID(caller.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, user)
}
