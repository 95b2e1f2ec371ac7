package game

import (
	"sync"

	"github.com/bigtwo-arena/bigtwo-server/internal/models"
)

// Registry holds the in-memory sessions. Memory is authoritative while a game
// is live; the store only trails it.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*models.GameSession
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*models.GameSession)}
}

func (r *Registry) Get(roomCode string) *models.GameSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[roomCode]
}

func (r *Registry) Put(sess *models.GameSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sess.RoomCode] = sess
}

func (r *Registry) Delete(roomCode string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, roomCode)
}

// ListInfos snapshots the session pointers before taking any session lock.
// Holding the registry lock across session locks would invert the order used
// by engine teardown, which deletes from the registry under the session lock.
func (r *Registry) ListInfos() []models.SessionInfo {
	r.mu.RLock()
	sessions := make([]*models.GameSession, 0, len(r.sessions))
	for _, sess := range r.sessions {
		sessions = append(sessions, sess)
	}
	r.mu.RUnlock()

	infos := make([]models.SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		sess.Lock()
		infos = append(infos, sess.ToInfo())
		sess.Unlock()
	}
	return infos
}
