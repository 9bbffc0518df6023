package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"regexp"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mzurek/taskpilot/db"
	"github.com/mzurek/taskpilot/models"
	"github.com/mzurek/taskpilot/shared"
)

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		shared.SendError(w, "Use POST method", shared.CodeBadRequest, http.StatusMethodNotAllowed)
		return
	}

	if h.RateLimiter != nil && !h.RateLimiter.Allow(clientIP(r)) {
		log.Printf("Rate limit exceeded for IP: %s", clientIP(r))
		shared.SendError(w, "Too many register attempts. Please try again later.", shared.CodeRateLimited, http.StatusTooManyRequests)
		return
	}

	var input struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		log.Printf("Error decoding JSON: %v", err)
		shared.SendError(w, "Bad JSON", shared.CodeBadRequest, http.StatusBadRequest)
		return
	}
	if input.Username == "" {
		shared.SendError(w, "Username is required", shared.CodeValidation, http.StatusUnprocessableEntity)
		return
	}
	if !isValidEmail(input.Email) {
		shared.SendError(w, "Invalid email", shared.CodeValidation, http.StatusUnprocessableEntity)
		return
	}
	if len(input.Password) < 4 {
		shared.SendError(w, "Password must be at least 4 characters long", shared.CodeValidation, http.StatusUnprocessableEntity)
		return
	}

	ctx := r.Context()
	if _, err := h.Store.Users.GetByUsername(ctx, input.Username); !errors.Is(err, db.ErrNotFound) {
		shared.SendError(w, "Username is already taken", shared.CodeConflict, http.StatusConflict)
		return
	}
	if _, err := h.Store.Users.GetByEmail(ctx, input.Email); !errors.Is(err, db.ErrNotFound) {
		shared.SendError(w, "Email is already taken", shared.CodeConflict, http.StatusConflict)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		shared.SendError(w, "Cannot hash password", shared.CodeInternal, http.StatusInternalServerError)
		return
	}

	now := time.Now().UTC()
	user := &models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hash),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.Store.Users.Create(ctx, user); err != nil {
		log.Printf("Error creating user: %v", err)
		shared.SendError(w, "Cannot save user", shared.CodeInternal, http.StatusInternalServerError)
		return
	}

	log.Printf("User registered: %s", user.Username)
	shared.SendJSON(w, http.StatusCreated, user)
}

func isValidEmail(email string) bool {
	const emailRegex = `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`
	re := regexp.MustCompile(emailRegex)
	return re.MatchString(email)
}
