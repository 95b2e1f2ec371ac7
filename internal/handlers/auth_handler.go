package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/bigtwo-arena/bigtwo-server/internal/auth"
	"github.com/bigtwo-arena/bigtwo-server/internal/repository"
)

const pqUniqueViolation = "23505"

type AuthHandler struct {
	userRepo   *repository.UserRepo
	jwtService *auth.JWTService
}

func NewAuthHandler(userRepo *repository.UserRepo, jwtService *auth.JWTService) *AuthHandler {
	return &AuthHandler{userRepo: userRepo, jwtService: jwtService}
}

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token    string `json:"token"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

func (r *authRequest) validate() string {
	r.Username = strings.TrimSpace(r.Username)
	if len(r.Username) < 3 || len(r.Username) > 20 {
		return "username must be 3-20 characters"
	}
	if len(r.Password) < 6 {
		return "password must be at least 6 characters"
	}
	return ""
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if msg := req.validate(); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	user, err := h.userRepo.Create(r.Context(), req.Username, string(hash))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "username already taken"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create user"})
		return
	}

	h.issueToken(w, http.StatusCreated, user.ID, user.Username)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	user, err := h.userRepo.FindByUsername(r.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		// The same response for unknown users and bad passwords.
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	h.issueToken(w, http.StatusOK, user.ID, user.Username)
}

func (h *AuthHandler) issueToken(w http.ResponseWriter, status int, userID int64, username string) {
	token, err := h.jwtService.GenerateToken(userID, username)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to generate token"})
		return
	}
	writeJSON(w, status, authResponse{Token: token, UserID: userID, Username: username})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
