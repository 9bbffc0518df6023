package handlers

import (
	"net/http"
	"strings"
	"testing"
)

func TestRegister(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		body           string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "valid registration",
			method:         http.MethodPost,
			body:           `{"username": "alice", "email": "alice@example.com", "password": "strongpass"}`,
			expectedStatus: http.StatusCreated,
			expectedBody:   `"username":"alice"`,
		},
		{
			name:           "missing username",
			method:         http.MethodPost,
			body:           `{"email": "alice@example.com", "password": "strongpass"}`,
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "Username is required",
		},
		{
			name:           "invalid email",
			method:         http.MethodPost,
			body:           `{"username": "alice", "email": "not-an-email", "password": "strongpass"}`,
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "Invalid email",
		},
		{
			name:           "short password",
			method:         http.MethodPost,
			body:           `{"username": "alice", "email": "alice@example.com", "password": "abc"}`,
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "Password must be at least 4 characters long",
		},
		{
			name:           "bad json",
			method:         http.MethodPost,
			body:           `{"username": `,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Bad JSON",
		},
		{
			name:           "wrong method",
			method:         http.MethodGet,
			body:           "",
			expectedStatus: http.StatusMethodNotAllowed,
			expectedBody:   "Use POST method",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux, _, _, _ := setupHTTP(t)
			rec := doJSON(t, mux, tt.method, "/auth/register", "", tt.body)
			if rec.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.expectedBody) {
				t.Errorf("Expected body to contain %q, got %s", tt.expectedBody, rec.Body.String())
			}
		})
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	mux, store, _, _ := setupHTTP(t)
	createTestUser(t, store, "alice")

	rec := doJSON(t, mux, http.MethodPost, "/auth/register", "",
		`{"username": "alice", "email": "other@example.com", "password": "strongpass"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Username is already taken") {
		t.Errorf("Unexpected body: %s", rec.Body.String())
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	mux, store, _, _ := setupHTTP(t)
	createTestUser(t, store, "alice")

	rec := doJSON(t, mux, http.MethodPost, "/auth/register", "",
		`{"username": "alice2", "email": "alice@example.com", "password": "strongpass"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Email is already taken") {
		t.Errorf("Unexpected body: %s", rec.Body.String())
	}
}

func TestRegister_HidesPasswordHash(t *testing.T) {
	mux, _, _, _ := setupHTTP(t)

	rec := doJSON(t, mux, http.MethodPost, "/auth/register", "",
		`{"username": "alice", "email": "alice@example.com", "password": "strongpass"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "password") || strings.Contains(rec.Body.String(), "hash") {
		t.Errorf("Password material leaked in response: %s", rec.Body.String())
	}
}
