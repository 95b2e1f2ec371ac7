package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigtwo-arena/bigtwo-server/internal/models"
)

func TestRegistryPutGetDelete(t *testing.T) {
	registry := NewRegistry()
	sess := models.NewGameSession("ROOM10", 1, "alice", models.GameSettings{})

	assert.Nil(t, registry.Get("ROOM10"))
	registry.Put(sess)
	assert.Same(t, sess, registry.Get("ROOM10"))

	registry.Delete("ROOM10")
	assert.Nil(t, registry.Get("ROOM10"))
}

func TestListInfos(t *testing.T) {
	registry := NewRegistry()
	sess := models.NewGameSession("ROOM11", 1, "alice", models.GameSettings{})
	sess.AddPlayer(2, "bob")
	registry.Put(sess)

	infos := registry.ListInfos()
	require.Len(t, infos, 1)
	assert.Equal(t, "ROOM11", infos[0].RoomCode)
	assert.Equal(t, models.StatusWaiting, infos[0].Status)
	assert.Equal(t, 2, infos[0].PlayerCount)
}

// Engine teardown deletes from the registry while holding a session lock, so
// the listing must never hold the registry lock while waiting on a session.
func TestListInfosDoesNotBlockRegistryWrites(t *testing.T) {
	registry := NewRegistry()
	busy := models.NewGameSession("ROOM12", 1, "alice", models.GameSettings{})
	other := models.NewGameSession("ROOM13", 2, "bob", models.GameSettings{})
	registry.Put(busy)
	registry.Put(other)

	busy.Lock()

	listDone := make(chan struct{})
	go func() {
		registry.ListInfos()
		close(listDone)
	}()
	// Let the listing reach the held session lock.
	time.Sleep(20 * time.Millisecond)

	deleteDone := make(chan struct{})
	go func() {
		registry.Delete(other.RoomCode)
		close(deleteDone)
	}()

	select {
	case <-deleteDone:
	case <-time.After(time.Second):
		busy.Unlock()
		t.Fatal("registry delete blocked behind a held session lock")
	}

	busy.Unlock()
	select {
	case <-listDone:
	case <-time.After(time.Second):
		t.Fatal("listing never finished after the session lock was released")
	}
	assert.Nil(t, registry.Get(other.RoomCode))
}
