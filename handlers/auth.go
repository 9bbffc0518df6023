package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/mzurek/taskpilot/db"
	"github.com/mzurek/taskpilot/shared"
)

// Refresh exchanges a valid refresh token for a new token pair.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		shared.SendError(w, "Use POST method", shared.CodeBadRequest, http.StatusMethodNotAllowed)
		return
	}

	var input struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		shared.SendError(w, "Bad JSON", shared.CodeBadRequest, http.StatusBadRequest)
		return
	}

	userID, err := parseToken(input.RefreshToken, tokenTypeRefresh)
	if err != nil {
		shared.SendError(w, "Invalid refresh token", shared.CodeUnauthorized, http.StatusUnauthorized)
		return
	}

	user, err := h.Store.Users.GetByID(r.Context(), userID)
	if errors.Is(err, db.ErrNotFound) || (err == nil && !user.IsActive) {
		shared.SendError(w, "User not found or inactive", shared.CodeUnauthorized, http.StatusUnauthorized)
		return
	}
	if err != nil {
		shared.SendError(w, "Failed to load user", shared.CodeInternal, http.StatusInternalServerError)
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

	shared.SendJSON(w, http.StatusOK, map[string]any{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"token_type":    "bearer",
	})
}

// Logout is stateless; the client discards its tokens.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		shared.SendError(w, "Use POST method", shared.CodeBadRequest, http.StatusMethodNotAllowed)
		return
	}
	shared.SendJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		shared.SendError(w, "Use GET method", shared.CodeBadRequest, http.StatusMethodNotAllowed)
		return
	}
	shared.SendJSON(w, http.StatusOK, userFromContext(r.Context()))
}
