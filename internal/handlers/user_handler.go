package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/bigtwo-arena/bigtwo-server/internal/auth"
	"github.com/bigtwo-arena/bigtwo-server/internal/repository"
)

type UserHandler struct {
	userRepo *repository.UserRepo
}

func NewUserHandler(userRepo *repository.UserRepo) *UserHandler {
	return &UserHandler{userRepo: userRepo}
}

// Profile returns the authenticated user's stats, win rate included.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetClaims(r)
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	user, err := h.userRepo.FindByID(r.Context(), claims.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load profile"})
		return
	}

	writeJSON(w, http.StatusOK, user.ToProfile())
}
