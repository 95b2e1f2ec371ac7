package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/bigtwo-arena/bigtwo-server/internal/models"
	"github.com/bigtwo-arena/bigtwo-server/internal/ws"
)

// Notifier delivers a payload to one connected user. Room broadcasts are the
// engine iterating a session's human seats.
type Notifier interface {
	SendToUser(userID int64, data []byte)
}

// SessionStore is the persistence collaborator. The in-memory session is
// authoritative; saves trail committed transitions.
type SessionStore interface {
	SaveState(ctx context.Context, sess *models.GameSession) error
	SaveCompleted(ctx context.Context, sess *models.GameSession, winner int) error
	LoadState(ctx context.Context, roomCode string) (*models.GameSession, error)
}

// Agent picks a play (or nil for pass) for an AI seat. firstPlay signals the
// game's opening play, which must contain the 3 of diamonds.
type Agent interface {
	ChoosePlay(hand []models.Card, toBeat *models.Combination, beatLen int, firstPlay bool) []models.Card
}

var (
	ErrGameNotFound   = errors.New("game not found")
	ErrGameEnded      = errors.New("game has ended")
	ErrGameStarted    = errors.New("game already started")
	ErrGameNotStarted = errors.New("game not in progress")
	ErrGameFull       = errors.New("game is full")
	ErrNotCreator     = errors.New("only the creator can start the game")
	ErrNotEnough      = errors.New("not enough players")
	ErrNotInGame      = errors.New("player not in game")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrCardsNotOwned  = errors.New("you don't have those cards")
	ErrInvalidPlay    = errors.New("invalid play")
	ErrMustPlay       = errors.New("you must play to open the trick")
)

// Engine drives every session transition. All mutation happens with the
// session lock held; deferred AI and deadline callbacks carry the turn
// sequence they were issued for and no-op once the session has moved on.
type Engine struct {
	registry    *Registry
	store       SessionStore
	notifier    Notifier
	agent       Agent
	aiDelay     time.Duration
	turnTimeout time.Duration
	endScore    int
}

func NewEngine(registry *Registry, store SessionStore, notifier Notifier, agent Agent, aiDelay, turnTimeout time.Duration, endScore int) *Engine {
	if endScore <= 0 {
		endScore = DefaultEndScore
	}
	return &Engine{
		registry:    registry,
		store:       store,
		notifier:    notifier,
		agent:       agent,
		aiDelay:     aiDelay,
		turnTimeout: turnTimeout,
		endScore:    endScore,
	}
}

type gameStartedPayload struct {
	Players       []models.PlayerInfo `json:"players"`
	CurrentPlayer int                 `json:"current_player"`
	Round         int                 `json:"round"`
}

type yourHandPayload struct {
	Hand []models.Card `json:"hand"`
}

type moveMadePayload struct {
	Player              int                `json:"player"`
	Username            string             `json:"username"`
	Cards               []models.Card      `json:"cards"`
	CardsLeft           int                `json:"cards_left"`
	CurrentPlayer       int                `json:"current_player"`
	LastPlayCombination models.Combination `json:"last_play_combination"`
}

type playerPassedPayload struct {
	Player        int    `json:"player"`
	Username      string `json:"username"`
	CurrentPlayer int    `json:"current_player"`
}

type newTrickPayload struct {
	StartPlayer int `json:"start_player"`
}

type roundEndedPayload struct {
	Winner      int                    `json:"winner"`
	WinnerName  string                 `json:"winner_name"`
	RoundScores [models.MaxPlayers]int `json:"round_scores"`
	TotalScores [models.MaxPlayers]int `json:"total_scores"`
}

type newRoundPayload struct {
	Round       int `json:"round"`
	StartPlayer int `json:"start_player"`
}

type gameEndedPayload struct {
	Winner      int                    `json:"winner"`
	WinnerName  string                 `json:"winner_name"`
	FinalScores [models.MaxPlayers]int `json:"final_scores"`
	TotalRounds int                    `json:"total_rounds"`
}

type sessionSnapshot struct {
	RoomCode            string                 `json:"room_code"`
	Status              models.SessionStatus   `json:"status"`
	Players             []models.PlayerInfo    `json:"players"`
	CurrentPlayer       int                    `json:"current_player"`
	Round               int                    `json:"round"`
	Scores              [models.MaxPlayers]int `json:"scores"`
	LastPlay            []models.Card          `json:"last_play,omitempty"`
	LastPlayCombination *models.Combination    `json:"last_play_combination,omitempty"`
	Hand                []models.Card          `json:"hand,omitempty"`
}

// Join seats a new player or reconnects an existing one.
func (e *Engine) Join(sess *models.GameSession, userID int64, username string) error {
	sess.Lock()
	defer sess.Unlock()

	if sess.Status == models.StatusCompleted || sess.Status == models.StatusAbandoned {
		return ErrGameEnded
	}

	pos, slot := sess.FindPlayerByUserID(userID)
	if slot != nil {
		slot.Connected = true
	} else {
		if sess.Status != models.StatusWaiting {
			return ErrGameStarted
		}
		newSlot, ok := sess.AddPlayer(userID, username)
		if !ok {
			return ErrGameFull
		}
		pos, slot = newSlot.Position, newSlot
	}

	snap := sessionSnapshot{
		RoomCode:            sess.RoomCode,
		Status:              sess.Status,
		Players:             sess.PlayerInfos(),
		CurrentPlayer:       sess.CurrentPlayer,
		Round:               sess.Round,
		Scores:              sess.Scores,
		LastPlay:            sess.LastPlay,
		LastPlayCombination: sess.LastPlayCombination,
		Hand:                sess.Players[pos].Hand,
	}
	data, _ := ws.NewMessage(ws.MsgGameJoined, snap)
	e.notifier.SendToUser(userID, data)

	joined, _ := ws.NewMessage(ws.MsgPlayerJoined, map[string]interface{}{
		"username": username,
		"position": pos,
	})
	e.broadcastExcept(sess, joined, userID)

	go e.saveState(sess)
	return nil
}

// Start deals hands, fills empty seats with AI when enabled, and hands the
// turn to the holder of the 3 of diamonds.
func (e *Engine) Start(sess *models.GameSession, userID int64) error {
	sess.Lock()
	defer sess.Unlock()

	if sess.Status != models.StatusWaiting {
		return ErrGameStarted
	}
	if sess.CreatorID != userID {
		return ErrNotCreator
	}
	if sess.Settings.AIEnabled {
		for pos := sess.PlayerCount(); pos < models.MaxPlayers; pos++ {
			sess.Players[pos] = &models.PlayerSlot{
				Username:  fmt.Sprintf("AI Player %d", pos),
				Position:  pos,
				IsAI:      true,
				Connected: true,
			}
		}
	}
	if sess.PlayerCount() < models.MaxPlayers {
		return ErrNotEnough
	}

	hands := Deal()
	start := FindStartPlayer(hands)
	for pos := range sess.Players {
		sess.Players[pos].Hand = hands[pos]
	}

	now := time.Now()
	sess.Status = models.StatusInProgress
	sess.StartedAt = &now
	sess.Round = 1
	sess.CurrentPlayer = start
	sess.TrickStartPlayer = start
	sess.AdvanceTurnSeq()

	data, _ := ws.NewMessage(ws.MsgGameStarted, gameStartedPayload{
		Players:       sess.PlayerInfos(),
		CurrentPlayer: start,
		Round:         1,
	})
	e.broadcast(sess, data)
	e.sendHands(sess)
	e.scheduleNext(sess)

	log.Printf("game %s started, first player: position %d", sess.RoomCode, start)
	go e.saveState(sess)
	return nil
}

// PlayCards validates and applies a play by the given user.
func (e *Engine) PlayCards(sess *models.GameSession, userID int64, cards []models.Card) error {
	sess.Lock()
	defer sess.Unlock()

	pos, _ := sess.FindPlayerByUserID(userID)
	if pos < 0 {
		return ErrNotInGame
	}
	return e.playLocked(sess, pos, cards)
}

// PassTurn validates and applies a pass by the given user.
func (e *Engine) PassTurn(sess *models.GameSession, userID int64) error {
	sess.Lock()
	defer sess.Unlock()

	pos, _ := sess.FindPlayerByUserID(userID)
	if pos < 0 {
		return ErrNotInGame
	}
	return e.passLocked(sess, pos)
}

// Disconnect marks the seat as disconnected. Turn order is untouched; the seat
// just cannot act until it reconnects. A session with no connected humans left
// is abandoned.
func (e *Engine) Disconnect(sess *models.GameSession, userID int64) {
	sess.Lock()
	defer sess.Unlock()

	_, slot := sess.FindPlayerByUserID(userID)
	if slot == nil {
		return
	}
	slot.Connected = false

	data, _ := ws.NewMessage(ws.MsgPlayerDisconnected, map[string]interface{}{
		"username": slot.Username,
		"position": slot.Position,
	})
	e.broadcast(sess, data)

	for _, p := range sess.Players {
		if p != nil && !p.IsAI && p.Connected {
			go e.saveState(sess)
			return
		}
	}

	if sess.Status == models.StatusWaiting || sess.Status == models.StatusInProgress {
		now := time.Now()
		sess.Status = models.StatusAbandoned
		sess.CompletedAt = &now
		sess.AdvanceTurnSeq()
		e.registry.Delete(sess.RoomCode)
		log.Printf("game %s abandoned, no connected players", sess.RoomCode)
	}
	go e.saveState(sess)
}

func (e *Engine) playLocked(sess *models.GameSession, pos int, cards []models.Card) error {
	if sess.Status != models.StatusInProgress {
		return ErrGameNotStarted
	}
	if pos != sess.CurrentPlayer {
		return ErrNotYourTurn
	}
	slot := sess.Players[pos]
	if !OwnsCards(slot.Hand, cards) {
		return ErrCardsNotOwned
	}

	opensTrick := sess.LastPlay == nil
	firstPlay := sess.Round == 1 && !sess.PlayOccurred
	combo, ok := ValidatePlay(cards, sess.LastPlayCombination, len(sess.LastPlay), opensTrick, firstPlay)
	if !ok {
		return ErrInvalidPlay
	}

	slot.Hand = models.RemoveCards(slot.Hand, cards)
	sess.LastPlay = cards
	sess.LastPlayCombination = &combo
	sess.LastPlayPlayer = pos
	sess.Trick = append(sess.Trick, models.TrickEntry{Player: pos, Cards: cards})
	sess.ConsecutivePasses = 0
	sess.PlayOccurred = true
	sess.AdvanceTurnSeq()

	if len(slot.Hand) > 0 {
		sess.CurrentPlayer = (pos + 1) % models.MaxPlayers
	}

	data, _ := ws.NewMessage(ws.MsgMoveMade, moveMadePayload{
		Player:              pos,
		Username:            slot.Username,
		Cards:               cards,
		CardsLeft:           len(slot.Hand),
		CurrentPlayer:       sess.CurrentPlayer,
		LastPlayCombination: combo,
	})
	e.broadcast(sess, data)
	e.sendHand(sess, pos)

	if len(slot.Hand) == 0 {
		e.finishRound(sess, pos)
		return nil
	}

	e.scheduleNext(sess)
	go e.saveState(sess)
	return nil
}

func (e *Engine) passLocked(sess *models.GameSession, pos int) error {
	if sess.Status != models.StatusInProgress {
		return ErrGameNotStarted
	}
	if pos != sess.CurrentPlayer {
		return ErrNotYourTurn
	}
	if sess.LastPlay == nil {
		return ErrMustPlay
	}

	sess.ConsecutivePasses++
	sess.AdvanceTurnSeq()

	if sess.ConsecutivePasses >= models.MaxPlayers-1 {
		opener := sess.LastPlayPlayer
		sess.ResetTrick()
		sess.CurrentPlayer = opener
		sess.TrickStartPlayer = opener
		sess.LastPlayPlayer = -1

		data, _ := ws.NewMessage(ws.MsgNewTrick, newTrickPayload{StartPlayer: opener})
		e.broadcast(sess, data)
	} else {
		sess.CurrentPlayer = (pos + 1) % models.MaxPlayers
	}

	data, _ := ws.NewMessage(ws.MsgPlayerPassed, playerPassedPayload{
		Player:        pos,
		Username:      sess.Players[pos].Username,
		CurrentPlayer: sess.CurrentPlayer,
	})
	e.broadcast(sess, data)

	e.scheduleNext(sess)
	go e.saveState(sess)
	return nil
}

// finishRound settles scores for an emptied hand, then either ends the game or
// deals the next round with the round winner opening.
func (e *Engine) finishRound(sess *models.GameSession, winner int) {
	var handSizes [models.MaxPlayers]int
	for pos, p := range sess.Players {
		handSizes[pos] = len(p.Hand)
	}
	roundScores := RoundScores(handSizes, winner)
	for pos := range sess.Scores {
		sess.Scores[pos] += roundScores[pos]
	}

	data, _ := ws.NewMessage(ws.MsgRoundEnded, roundEndedPayload{
		Winner:      winner,
		WinnerName:  sess.Players[winner].Username,
		RoundScores: roundScores,
		TotalScores: sess.Scores,
	})
	e.broadcast(sess, data)

	if GameOver(sess.Scores, e.endScore) {
		e.finishGame(sess)
		return
	}

	sess.Round++
	hands := Deal()
	for pos := range sess.Players {
		sess.Players[pos].Hand = hands[pos]
	}
	sess.ResetTrick()
	sess.CurrentPlayer = winner
	sess.TrickStartPlayer = winner
	sess.LastPlayPlayer = -1
	sess.AdvanceTurnSeq()

	roundData, _ := ws.NewMessage(ws.MsgNewRound, newRoundPayload{
		Round:       sess.Round,
		StartPlayer: winner,
	})
	e.broadcast(sess, roundData)
	e.sendHands(sess)
	e.scheduleNext(sess)
	go e.saveState(sess)
}

// finishGame crowns the lowest cumulative score and tears the session down.
func (e *Engine) finishGame(sess *models.GameSession) {
	winner := GameWinner(sess.Scores)
	now := time.Now()
	sess.Status = models.StatusCompleted
	sess.CompletedAt = &now
	sess.AdvanceTurnSeq()

	data, _ := ws.NewMessage(ws.MsgGameEnded, gameEndedPayload{
		Winner:      winner,
		WinnerName:  sess.Players[winner].Username,
		FinalScores: sess.Scores,
		TotalRounds: sess.Round,
	})
	e.broadcast(sess, data)

	e.registry.Delete(sess.RoomCode)
	log.Printf("game %s ended, winner: %s", sess.RoomCode, sess.Players[winner].Username)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.store.SaveCompleted(ctx, sess, winner); err != nil {
			log.Printf("failed to persist completed game %s: %v", sess.RoomCode, err)
		}
	}()
}

// scheduleNext arms the deferred callback for the new current player: an AI
// think delay for AI seats, a turn deadline for humans. Both carry the current
// turn sequence and are dropped if anything else commits first.
func (e *Engine) scheduleNext(sess *models.GameSession) {
	if sess.Status != models.StatusInProgress {
		return
	}
	pos := sess.CurrentPlayer
	seq := sess.TurnSeq()

	if sess.Players[pos].IsAI {
		time.AfterFunc(e.aiDelay, func() {
			e.runAITurn(sess, pos, seq)
		})
		return
	}
	timeout := e.turnTimeout
	if sess.Settings.TurnTimeout > 0 {
		timeout = time.Duration(sess.Settings.TurnTimeout) * time.Millisecond
	}
	if timeout > 0 {
		time.AfterFunc(timeout, func() {
			e.expireTurn(sess, pos, seq)
		})
	}
}

// runAITurn is the deferred AI callback. It re-validates everything about the
// session before acting; a stale callback silently no-ops.
func (e *Engine) runAITurn(sess *models.GameSession, pos int, seq int64) {
	sess.Lock()
	defer sess.Unlock()

	if !e.callbackValid(sess, pos, seq) || !sess.Players[pos].IsAI {
		return
	}

	firstPlay := sess.Round == 1 && !sess.PlayOccurred
	choice := e.agent.ChoosePlay(sess.Players[pos].Hand, sess.LastPlayCombination, len(sess.LastPlay), firstPlay)
	if choice == nil {
		if err := e.passLocked(sess, pos); err != nil {
			log.Printf("game %s: AI pass at position %d rejected: %v", sess.RoomCode, pos, err)
		}
		return
	}
	if err := e.playLocked(sess, pos, choice); err != nil {
		log.Printf("game %s: AI play at position %d rejected: %v", sess.RoomCode, pos, err)
	}
}

// expireTurn enforces the turn deadline on human seats: auto-pass, or the
// agent's opening choice when passing is illegal.
func (e *Engine) expireTurn(sess *models.GameSession, pos int, seq int64) {
	sess.Lock()
	defer sess.Unlock()

	if !e.callbackValid(sess, pos, seq) || sess.Players[pos].IsAI {
		return
	}

	log.Printf("game %s: turn timeout at position %d", sess.RoomCode, pos)
	if sess.LastPlay == nil {
		choice := e.agent.ChoosePlay(sess.Players[pos].Hand, nil, 0, sess.Round == 1 && !sess.PlayOccurred)
		if err := e.playLocked(sess, pos, choice); err != nil {
			log.Printf("game %s: timeout play at position %d rejected: %v", sess.RoomCode, pos, err)
		}
		return
	}
	if err := e.passLocked(sess, pos); err != nil {
		log.Printf("game %s: timeout pass at position %d rejected: %v", sess.RoomCode, pos, err)
	}
}

func (e *Engine) callbackValid(sess *models.GameSession, pos int, seq int64) bool {
	if e.registry.Get(sess.RoomCode) != sess {
		return false
	}
	if sess.Status != models.StatusInProgress {
		return false
	}
	if sess.CurrentPlayer != pos {
		return false
	}
	return sess.TurnSeq() == seq
}

// broadcast sends to every connected human seat. Caller holds the session lock.
func (e *Engine) broadcast(sess *models.GameSession, data []byte) {
	for _, p := range sess.Players {
		if p != nil && !p.IsAI {
			e.notifier.SendToUser(p.UserID, data)
		}
	}
}

func (e *Engine) broadcastExcept(sess *models.GameSession, data []byte, skipUserID int64) {
	for _, p := range sess.Players {
		if p != nil && !p.IsAI && p.UserID != skipUserID {
			e.notifier.SendToUser(p.UserID, data)
		}
	}
}

// sendHand sends a seat its own cards; never anyone else's.
func (e *Engine) sendHand(sess *models.GameSession, pos int) {
	p := sess.Players[pos]
	if p == nil || p.IsAI {
		return
	}
	data, _ := ws.NewMessage(ws.MsgYourHand, yourHandPayload{Hand: p.Hand})
	e.notifier.SendToUser(p.UserID, data)
}

func (e *Engine) sendHands(sess *models.GameSession) {
	for pos := range sess.Players {
		e.sendHand(sess, pos)
	}
}

func (e *Engine) saveState(sess *models.GameSession) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.store.SaveState(ctx, sess); err != nil {
		log.Printf("failed to save game %s: %v", sess.RoomCode, err)
	}
}
