package game

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/bigtwo-arena/bigtwo-server/internal/models"
	"github.com/bigtwo-arena/bigtwo-server/internal/ws"
)

// HandleMessage is the inbound edge: it resolves the client's session, calls
// the matching transition, and reports rejections to the acting connection
// only.
func (e *Engine) HandleMessage(client *ws.Client, msg ws.Message) {
	switch msg.Type {
	case ws.MsgJoinGame:
		e.handleJoin(client, msg.Payload)
	case ws.MsgStartGame:
		e.handleStart(client)
	case ws.MsgPlayCards:
		e.handlePlay(client, msg.Payload)
	case ws.MsgPassTurn:
		e.handlePass(client)
	case ws.MsgChat:
		e.handleChat(client, msg.Payload)
	}
}

// HandleDisconnect is wired to the hub's unregister path.
func (e *Engine) HandleDisconnect(client *ws.Client) {
	roomCode := client.GetRoom()
	if roomCode == "" {
		return
	}
	sess := e.registry.Get(roomCode)
	if sess == nil {
		return
	}
	e.Disconnect(sess, client.UserID)
}

func (e *Engine) handleJoin(client *ws.Client, payload json.RawMessage) {
	var p ws.JoinGamePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		client.TrySend(ws.NewErrorMessage("invalid join_game payload"))
		return
	}

	sess := e.lookupSession(p.RoomCode)
	if sess == nil {
		client.TrySend(ws.NewErrorMessage(ErrGameNotFound.Error()))
		return
	}

	if err := e.Join(sess, client.UserID, client.Username); err != nil {
		client.TrySend(ws.NewErrorMessage(err.Error()))
		return
	}
	client.SetRoom(p.RoomCode)
	log.Printf("%s joined game %s", client.Username, p.RoomCode)
}

func (e *Engine) handleStart(client *ws.Client) {
	sess := e.clientSession(client)
	if sess == nil {
		client.TrySend(ws.NewErrorMessage(ErrGameNotFound.Error()))
		return
	}
	if err := e.Start(sess, client.UserID); err != nil {
		client.TrySend(ws.NewErrorMessage(err.Error()))
	}
}

func (e *Engine) handlePlay(client *ws.Client, payload json.RawMessage) {
	var p ws.PlayCardsPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		client.TrySend(ws.NewErrorMessage("invalid play payload"))
		return
	}
	sess := e.clientSession(client)
	if sess == nil {
		client.TrySend(ws.NewErrorMessage(ErrGameNotFound.Error()))
		return
	}
	if err := e.PlayCards(sess, client.UserID, p.Cards); err != nil {
		client.TrySend(ws.NewErrorMessage(err.Error()))
	}
}

func (e *Engine) handlePass(client *ws.Client) {
	sess := e.clientSession(client)
	if sess == nil {
		client.TrySend(ws.NewErrorMessage(ErrGameNotFound.Error()))
		return
	}
	if err := e.PassTurn(sess, client.UserID); err != nil {
		client.TrySend(ws.NewErrorMessage(err.Error()))
	}
}

// handleChat relays within the room; the engine never interprets the text.
func (e *Engine) handleChat(client *ws.Client, payload json.RawMessage) {
	var p ws.ChatPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return
	}
	sess := e.clientSession(client)
	if sess == nil {
		return
	}

	data, _ := ws.NewMessage(ws.MsgChatRelay, ws.ChatPayload{
		Message: p.Message,
		Sender:  client.Username,
	})
	sess.Lock()
	e.broadcast(sess, data)
	sess.Unlock()
}

func (e *Engine) clientSession(client *ws.Client) *models.GameSession {
	roomCode := client.GetRoom()
	if roomCode == "" {
		return nil
	}
	return e.registry.Get(roomCode)
}

// lookupSession falls back to the store for sessions not in memory, so a
// waiting room survives a server restart.
func (e *Engine) lookupSession(roomCode string) *models.GameSession {
	if sess := e.registry.Get(roomCode); sess != nil {
		return sess
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sess, err := e.store.LoadState(ctx, roomCode)
	if err != nil || sess == nil {
		return nil
	}
	if sess.Status == models.StatusCompleted || sess.Status == models.StatusAbandoned {
		return nil
	}
	e.registry.Put(sess)
	return sess
}
