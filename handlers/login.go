package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/mzurek/taskpilot/shared"
)

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		shared.SendError(w, "Use POST method for login", shared.CodeBadRequest, http.StatusMethodNotAllowed)
		return
	}

	if h.RateLimiter != nil && !h.RateLimiter.Allow(clientIP(r)) {
		log.Printf("Rate limit exceeded for IP: %s", clientIP(r))
		shared.SendError(w, "Too many login attempts. Please try again later.", shared.CodeRateLimited, http.StatusTooManyRequests)
		return
	}

	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		log.Printf("Error decoding JSON: %v", err)
		shared.SendError(w, "Bad JSON", shared.CodeBadRequest, http.StatusBadRequest)
		return
	}

	user, err := h.Store.Users.GetByUsername(r.Context(), input.Username)
	if err != nil {
		log.Printf("Error retrieving user %s: %v", input.Username, err)
		shared.SendError(w, "Invalid username or password", shared.CodeUnauthorized, http.StatusUnauthorized)
		return
	}
	if err := bcrypt.CompareHashAndPassword(
		[]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		log.Printf("Invalid password for user: %s", input.Username)
		shared.SendError(w, "Invalid username or password", shared.CodeUnauthorized, http.StatusUnauthorized)
		return
	}
	if !user.IsActive {
		shared.SendError(w, "Inactive user", shared.CodeInactiveUser, http.StatusBadRequest)
		return
	}

	accessToken, err := generateAccessToken(user.ID)
	if err != nil {
		log.Printf("Error generating token: %v", err)
		shared.SendError(w, "Cannot create token", shared.CodeInternal, http.StatusInternalServerError)
		return
	}
	refreshToken, err := generateRefreshToken(user.ID)
	if err != nil {
		log.Printf("Error generating refresh token: %v", err)
		shared.SendError(w, "Cannot create token", shared.CodeInternal, http.StatusInternalServerError)
		return
	}

	log.Printf("User logged in: %s", input.Username)
	shared.SendJSON(w, http.StatusOK, map[string]any{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"token_type":    "bearer",
	})
}
