package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/mzurek/taskpilot/db"
	"github.com/mzurek/taskpilot/shared"
)

/*
Resolve the bearer token to a user and add it to the request context.
Rejects missing/invalid tokens and inactive users.
*/
func (h *Handler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			shared.SendError(w, "Missing Authorization header", shared.CodeUnauthorized, http.StatusUnauthorized)
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		userID, err := parseToken(tokenString, tokenTypeAccess)
		if err != nil {
			shared.SendError(w, "Invalid access token", shared.CodeUnauthorized, http.StatusUnauthorized)
			return
		}

		user, err := h.Store.Users.GetByID(r.Context(), userID)
		if errors.Is(err, db.ErrNotFound) {
			shared.SendError(w, "User not found", shared.CodeNotFound, http.StatusNotFound)
			return
		}
		if err != nil {
			shared.SendError(w, "Failed to load user", shared.CodeInternal, http.StatusInternalServerError)
			return
		}
		if !user.IsActive {
			shared.SendError(w, "Inactive user", shared.CodeInactiveUser, http.StatusBadRequest)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next(w, r.WithContext(ctx))
	}
}
