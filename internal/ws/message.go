package ws

import (
	"encoding/json"

	"github.com/bigtwo-arena/bigtwo-server/internal/models"
)

type MessageType string

const (
	// Client -> Server
	MsgJoinGame  MessageType = "join_game"
	MsgStartGame MessageType = "start_game"
	MsgPlayCards MessageType = "play"
	MsgPassTurn  MessageType = "pass"
	MsgChat      MessageType = "chat_message"

	// Server -> Client
	MsgGameJoined         MessageType = "game_joined"
	MsgPlayerJoined       MessageType = "player_joined"
	MsgGameStarted        MessageType = "game_started"
	MsgYourHand           MessageType = "your_hand"
	MsgMoveMade           MessageType = "move_made"
	MsgPlayerPassed       MessageType = "player_passed"
	MsgNewTrick           MessageType = "new_trick"
	MsgRoundEnded         MessageType = "round_ended"
	MsgNewRound           MessageType = "new_round"
	MsgGameEnded          MessageType = "game_ended"
	MsgPlayerDisconnected MessageType = "player_disconnected"
	MsgChatRelay          MessageType = "chat_message"
	MsgError              MessageType = "error"
)

type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type JoinGamePayload struct {
	RoomCode string `json:"room_code"`
}

type PlayCardsPayload struct {
	Cards []models.Card `json:"cards"`
}

type ChatPayload struct {
	Message string `json:"message"`
	Sender  string `json:"sender,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"error"`
}

func NewMessage(msgType MessageType, payload interface{}) ([]byte, error) {
	p, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	msg := Message{Type: msgType, Payload: p}
	return json.Marshal(msg)
}

func NewErrorMessage(errMsg string) []byte {
	data, _ := NewMessage(MsgError, ErrorPayload{Message: errMsg})
	return data
}
