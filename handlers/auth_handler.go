package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"habit21API/internal/auth"
	"habit21API/middleware"
	"habit21API/services"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// GetState returns the current login/signup flow state.
func (h *AuthHandler) GetState(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.authService.State())
}

// SetMode switches the modal between login and signup.
func (h *AuthHandler) SetMode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	mode := auth.Mode(body.Mode)
	if mode != auth.ModeLogin && mode != auth.ModeSignup {
		respondWithError(w, http.StatusBadRequest, "Mode must be login or signup")
		return
	}

	respondWithJSON(w, http.StatusOK, h.authService.SetMode(mode))
}

// Submit handles the credentials form for the current mode.
func (h *AuthHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Email == "" || body.Password == "" {
		respondWithError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	respondWithJSON(w, http.StatusOK, h.authService.Submit(ctx, body.Email, body.Password))
}

// Verify submits the one-time code from the verify screen.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Code == "" {
		respondWithError(w, http.StatusBadRequest, "Verification code is required")
		return
	}

	respondWithJSON(w, http.StatusOK, h.authService.Verify(ctx, body.Code))
}

// Resend asks for a fresh verification code.
func (h *AuthHandler) Resend(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	respondWithJSON(w, http.StatusOK, h.authService.Resend(ctx))
}

// Back returns from the verify screen to the credentials form.
func (h *AuthHandler) Back(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.authService.Back())
}

// OAuth returns the provider redirect URL for the requested OAuth
// provider.
func (h *AuthHandler) OAuth(w http.ResponseWriter, r *http.Request) {
	provider := mux.Vars(r)["provider"]

	url, err := h.authService.OAuthURL(provider)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Unknown OAuth provider")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"url": url})
}

// GetUser returns the identity of the verified bearer token.
func (h *AuthHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.GetIdentity(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}
	respondWithJSON(w, http.StatusOK, id)
}

// AdoptSession installs the token pair delivered by an OAuth redirect.
func (h *AuthHandler) AdoptSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.AccessToken == "" {
		respondWithError(w, http.StatusBadRequest, "access_token is required")
		return
	}

	id, err := h.authService.AdoptSession(body.AccessToken, body.RefreshToken)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "Invalid session token")
		return
	}
	respondWithJSON(w, http.StatusOK, id)
}

// SignOut ends the current session.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	if err := h.authService.SignOut(ctx); err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Signed out"})
}
