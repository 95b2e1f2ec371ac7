package game

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigtwo-arena/bigtwo-server/internal/models"
	"github.com/bigtwo-arena/bigtwo-server/internal/ws"
)

type fakeNotifier struct {
	mu   sync.Mutex
	msgs map[int64][]ws.Message
}

func (f *fakeNotifier) SendToUser(userID int64, data []byte) {
	var m ws.Message
	if err := json.Unmarshal(data, &m); err != nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.msgs == nil {
		f.msgs = make(map[int64][]ws.Message)
	}
	f.msgs[userID] = append(f.msgs[userID], m)
}

func (f *fakeNotifier) typesFor(userID int64) []ws.MessageType {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]ws.MessageType, 0, len(f.msgs[userID]))
	for _, m := range f.msgs[userID] {
		types = append(types, m.Type)
	}
	return types
}

func (f *fakeNotifier) sawType(userID int64, want ws.MessageType) bool {
	for _, mt := range f.typesFor(userID) {
		if mt == want {
			return true
		}
	}
	return false
}

type fakeStore struct{}

func (fakeStore) SaveState(context.Context, *models.GameSession) error         { return nil }
func (fakeStore) SaveCompleted(context.Context, *models.GameSession, int) error { return nil }
func (fakeStore) LoadState(context.Context, string) (*models.GameSession, error) {
	return nil, nil
}

// fakeAgent opens with the 3 of diamonds on the game's first play, otherwise
// leads its first card, and passes whenever beating is needed. It records the
// firstPlay flags it was handed.
type fakeAgent struct {
	mu         sync.Mutex
	firstPlays []bool
}

func (a *fakeAgent) ChoosePlay(hand []models.Card, toBeat *models.Combination, beatLen int, firstPlay bool) []models.Card {
	a.mu.Lock()
	a.firstPlays = append(a.firstPlays, firstPlay)
	a.mu.Unlock()
	if toBeat != nil || len(hand) == 0 {
		return nil
	}
	if firstPlay {
		for i, c := range hand {
			if c == models.ThreeOfDiamonds() {
				return hand[i : i+1]
			}
		}
	}
	return hand[:1]
}

func newTestEngine() (*Engine, *Registry, *fakeNotifier) {
	registry := NewRegistry()
	notifier := &fakeNotifier{}
	// A huge AI delay keeps deferred callbacks from firing mid-test.
	e := NewEngine(registry, fakeStore{}, notifier, &fakeAgent{}, time.Hour, 0, DefaultEndScore)
	return e, registry, notifier
}

func fourHumanSession() *models.GameSession {
	sess := models.NewGameSession("ROOM01", 1, "alice", models.GameSettings{})
	sess.AddPlayer(2, "bob")
	sess.AddPlayer(3, "carol")
	sess.AddPlayer(4, "dave")
	return sess
}

// inProgressSession wires a deterministic mid-game state: given hands, seat 0
// to act, nothing on the table yet.
func inProgressSession(t *testing.T, registry *Registry, hands [models.MaxPlayers][]models.Card) *models.GameSession {
	t.Helper()
	sess := fourHumanSession()
	sess.Status = models.StatusInProgress
	sess.Round = 1
	sess.CurrentPlayer = 0
	sess.TrickStartPlayer = 0
	for pos := range sess.Players {
		sess.Players[pos].Hand = hands[pos]
	}
	registry.Put(sess)
	return sess
}

func TestStartDealsAndSetsOpener(t *testing.T) {
	e, registry, notifier := newTestEngine()
	sess := fourHumanSession()
	registry.Put(sess)

	require.NoError(t, e.Start(sess, 1))

	sess.Lock()
	assert.Equal(t, models.StatusInProgress, sess.Status)
	assert.Equal(t, 1, sess.Round)
	assert.NotNil(t, sess.StartedAt)
	for pos, p := range sess.Players {
		assert.Len(t, p.Hand, models.HandSize, "hand %d", pos)
	}
	opener := sess.Players[sess.CurrentPlayer]
	assert.True(t, models.ContainsCard(opener.Hand, models.ThreeOfDiamonds()))
	sess.Unlock()

	for userID := int64(1); userID <= 4; userID++ {
		assert.True(t, notifier.sawType(userID, ws.MsgGameStarted), "user %d missed game_started", userID)
		assert.True(t, notifier.sawType(userID, ws.MsgYourHand), "user %d missed your_hand", userID)
	}

	assert.ErrorIs(t, e.Start(sess, 1), ErrGameStarted)
}

func TestStartGuards(t *testing.T) {
	e, registry, _ := newTestEngine()
	sess := fourHumanSession()
	registry.Put(sess)
	assert.ErrorIs(t, e.Start(sess, 2), ErrNotCreator)

	short := models.NewGameSession("ROOM02", 9, "solo", models.GameSettings{AIEnabled: false})
	registry.Put(short)
	assert.ErrorIs(t, e.Start(short, 9), ErrNotEnough)
}

func TestStartFillsAISeats(t *testing.T) {
	e, registry, _ := newTestEngine()
	sess := models.NewGameSession("ROOM03", 9, "solo", models.GameSettings{AIEnabled: true})
	registry.Put(sess)

	require.NoError(t, e.Start(sess, 9))

	sess.Lock()
	defer sess.Unlock()
	for pos := 1; pos < models.MaxPlayers; pos++ {
		require.NotNil(t, sess.Players[pos])
		assert.True(t, sess.Players[pos].IsAI, "seat %d should be AI", pos)
		assert.Len(t, sess.Players[pos].Hand, models.HandSize)
	}
}

func TestFirstPlayRequiresThreeOfDiamonds(t *testing.T) {
	e, registry, notifier := newTestEngine()
	sess := inProgressSession(t, registry, [models.MaxPlayers][]models.Card{
		cards(t, "3D", "4C", "7H"),
		cards(t, "5D", "8C"),
		cards(t, "6D", "9C"),
		cards(t, "10D", "JC"),
	})

	assert.ErrorIs(t, e.PlayCards(sess, 1, cards(t, "4C")), ErrInvalidPlay)

	require.NoError(t, e.PlayCards(sess, 1, cards(t, "3D")))

	sess.Lock()
	assert.Equal(t, cards(t, "3D"), sess.LastPlay)
	require.NotNil(t, sess.LastPlayCombination)
	assert.Equal(t, models.ComboSingle, sess.LastPlayCombination.Kind)
	assert.Equal(t, 31, sess.LastPlayCombination.Strength)
	assert.Equal(t, 0, sess.LastPlayPlayer)
	assert.Equal(t, 1, sess.CurrentPlayer)
	assert.True(t, sess.PlayOccurred)
	assert.Len(t, sess.Players[0].Hand, 2)
	sess.Unlock()

	for userID := int64(1); userID <= 4; userID++ {
		assert.True(t, notifier.sawType(userID, ws.MsgMoveMade), "user %d missed move_made", userID)
	}
	assert.True(t, notifier.sawType(1, ws.MsgYourHand))
}

func TestPlayGuards(t *testing.T) {
	e, registry, _ := newTestEngine()
	sess := inProgressSession(t, registry, [models.MaxPlayers][]models.Card{
		cards(t, "3D", "4C"),
		cards(t, "5D", "8C"),
		cards(t, "6D", "9C"),
		cards(t, "10D", "JC"),
	})

	assert.ErrorIs(t, e.PlayCards(sess, 99, cards(t, "3D")), ErrNotInGame)
	assert.ErrorIs(t, e.PlayCards(sess, 2, cards(t, "5D")), ErrNotYourTurn)
	assert.ErrorIs(t, e.PlayCards(sess, 1, cards(t, "KS")), ErrCardsNotOwned)

	waiting := fourHumanSession()
	waiting.RoomCode = "ROOM04"
	registry.Put(waiting)
	assert.ErrorIs(t, e.PlayCards(waiting, 1, cards(t, "3D")), ErrGameNotStarted)
}

func TestThreePassesResetTrick(t *testing.T) {
	e, registry, notifier := newTestEngine()
	sess := inProgressSession(t, registry, [models.MaxPlayers][]models.Card{
		cards(t, "3D", "7H"),
		cards(t, "5D", "8C"),
		cards(t, "6D", "9C"),
		cards(t, "10D", "JC"),
	})

	// Passing with an empty table is illegal.
	assert.ErrorIs(t, e.PassTurn(sess, 1), ErrMustPlay)

	require.NoError(t, e.PlayCards(sess, 1, cards(t, "3D")))
	require.NoError(t, e.PassTurn(sess, 2))
	require.NoError(t, e.PassTurn(sess, 3))

	sess.Lock()
	assert.Equal(t, 2, sess.ConsecutivePasses)
	assert.Equal(t, 3, sess.CurrentPlayer)
	sess.Unlock()

	require.NoError(t, e.PassTurn(sess, 4))

	sess.Lock()
	assert.Nil(t, sess.LastPlay)
	assert.Nil(t, sess.LastPlayCombination)
	assert.Equal(t, 0, sess.ConsecutivePasses)
	assert.Equal(t, 0, sess.CurrentPlayer, "trick winner opens the next trick")
	sess.Unlock()

	assert.True(t, notifier.sawType(1, ws.MsgNewTrick))

	// Opening the new trick carries no 3D obligation; the game already saw a play.
	require.NoError(t, e.PlayCards(sess, 1, cards(t, "7H")))
}

func TestRoundEndStartsNewRound(t *testing.T) {
	e, registry, notifier := newTestEngine()
	sess := inProgressSession(t, registry, [models.MaxPlayers][]models.Card{
		cards(t, "3D"),
		cards(t, "5D", "8C"),
		cards(t, "6D", "9C", "6H", "9H", "6S"),
		cards(t, "10D", "JC", "10H", "JH", "10S", "JS", "QC", "QD", "QH", "QS"),
	})

	require.NoError(t, e.PlayCards(sess, 1, cards(t, "3D")))

	sess.Lock()
	assert.Equal(t, [models.MaxPlayers]int{0, 2, 10, 30}, sess.Scores)
	assert.Equal(t, 2, sess.Round)
	assert.Equal(t, 0, sess.CurrentPlayer, "round winner opens the next round")
	assert.Nil(t, sess.LastPlay)
	for pos, p := range sess.Players {
		assert.Len(t, p.Hand, models.HandSize, "hand %d after redeal", pos)
	}
	sess.Unlock()

	assert.True(t, notifier.sawType(2, ws.MsgRoundEnded))
	assert.True(t, notifier.sawType(2, ws.MsgNewRound))
}

func TestGameEndsAtScoreThreshold(t *testing.T) {
	e, registry, notifier := newTestEngine()
	sess := inProgressSession(t, registry, [models.MaxPlayers][]models.Card{
		cards(t, "3D"),
		cards(t, "5D", "8C", "5H"),
		cards(t, "6D", "9C", "6H", "9H", "6S", "9S"),
		cards(t, "10D", "JC", "10H", "JH", "10S", "JS", "QC", "QD", "QH", "QS", "KC"),
	})
	sess.Scores = [models.MaxPlayers]int{0, 98, 0, 0}

	require.NoError(t, e.PlayCards(sess, 1, cards(t, "3D")))

	sess.Lock()
	assert.Equal(t, models.StatusCompleted, sess.Status)
	assert.NotNil(t, sess.CompletedAt)
	assert.Equal(t, [models.MaxPlayers]int{0, 101, 12, 33}, sess.Scores)
	sess.Unlock()

	assert.Nil(t, registry.Get("ROOM01"), "completed game should leave the registry")
	assert.True(t, notifier.sawType(1, ws.MsgGameEnded))
	assert.True(t, notifier.sawType(4, ws.MsgGameEnded))
}

func TestJoinAndReconnect(t *testing.T) {
	e, registry, notifier := newTestEngine()
	sess := models.NewGameSession("ROOM05", 1, "alice", models.GameSettings{})
	registry.Put(sess)

	require.NoError(t, e.Join(sess, 2, "bob"))
	assert.True(t, notifier.sawType(2, ws.MsgGameJoined))
	assert.True(t, notifier.sawType(1, ws.MsgPlayerJoined))

	// A returning user reconnects to the same seat rather than taking a new one.
	sess.Lock()
	sess.Players[1].Connected = false
	sess.Unlock()
	require.NoError(t, e.Join(sess, 2, "bob"))
	sess.Lock()
	assert.Equal(t, 2, sess.PlayerCount())
	assert.True(t, sess.Players[1].Connected)
	sess.Unlock()

	require.NoError(t, e.Join(sess, 3, "carol"))
	require.NoError(t, e.Join(sess, 4, "dave"))
	assert.ErrorIs(t, e.Join(sess, 5, "eve"), ErrGameFull)

	require.NoError(t, e.Start(sess, 1))
	assert.ErrorIs(t, e.Join(sess, 6, "mallory"), ErrGameStarted)

	sess.Lock()
	sess.Status = models.StatusCompleted
	sess.Unlock()
	assert.ErrorIs(t, e.Join(sess, 2, "bob"), ErrGameEnded)
}

func TestDisconnectAbandonsEmptySession(t *testing.T) {
	e, registry, _ := newTestEngine()
	sess := models.NewGameSession("ROOM06", 1, "alice", models.GameSettings{})
	registry.Put(sess)
	require.NoError(t, e.Join(sess, 2, "bob"))

	e.Disconnect(sess, 2)
	sess.Lock()
	assert.Equal(t, models.StatusWaiting, sess.Status, "one human still connected")
	assert.False(t, sess.Players[1].Connected)
	sess.Unlock()

	e.Disconnect(sess, 1)
	sess.Lock()
	assert.Equal(t, models.StatusAbandoned, sess.Status)
	sess.Unlock()
	assert.Nil(t, registry.Get("ROOM06"))
}

func TestStaleCallbacksAreDropped(t *testing.T) {
	e, registry, _ := newTestEngine()
	sess := inProgressSession(t, registry, [models.MaxPlayers][]models.Card{
		cards(t, "3D"), cards(t, "5D"), cards(t, "6D"), cards(t, "10D"),
	})

	seq := sess.TurnSeq()
	assert.True(t, e.callbackValid(sess, 0, seq))

	// Any committed transition advances the sequence and invalidates it.
	sess.AdvanceTurnSeq()
	assert.False(t, e.callbackValid(sess, 0, seq))

	seq = sess.TurnSeq()
	assert.False(t, e.callbackValid(sess, 1, seq), "wrong seat")

	sess.CurrentPlayer = 1
	assert.True(t, e.callbackValid(sess, 1, seq))

	sess.Status = models.StatusCompleted
	assert.False(t, e.callbackValid(sess, 1, seq))
	sess.Status = models.StatusInProgress

	registry.Delete(sess.RoomCode)
	assert.False(t, e.callbackValid(sess, 1, seq), "session no longer registered")
}

func TestAITurnRunsAfterDelay(t *testing.T) {
	registry := NewRegistry()
	notifier := &fakeNotifier{}
	e := NewEngine(registry, fakeStore{}, notifier, &fakeAgent{}, 10*time.Millisecond, 0, DefaultEndScore)

	sess := inProgressSession(t, registry, [models.MaxPlayers][]models.Card{
		cards(t, "3D", "7H"),
		cards(t, "5D", "8C"),
		cards(t, "6D", "9C"),
		cards(t, "10D", "JC"),
	})
	sess.Players[1] = &models.PlayerSlot{
		Username:  "AI Player 1",
		Position:  1,
		IsAI:      true,
		Connected: true,
		Hand:      cards(t, "5D", "8C"),
	}

	// The human play hands the turn to the AI seat and arms its think timer.
	require.NoError(t, e.PlayCards(sess, 1, cards(t, "3D")))

	assert.Eventually(t, func() bool {
		sess.Lock()
		defer sess.Unlock()
		return sess.CurrentPlayer == 2
	}, time.Second, 5*time.Millisecond, "AI seat should pass and hand the turn on")
}

func TestAIOpenerLeadsWithThreeOfDiamonds(t *testing.T) {
	registry := NewRegistry()
	notifier := &fakeNotifier{}
	agent := &fakeAgent{}
	e := NewEngine(registry, fakeStore{}, notifier, agent, time.Hour, 0, DefaultEndScore)

	// An AI seat holds the opener; its lowest pair (4C 4H) omits the 3D.
	sess := inProgressSession(t, registry, [models.MaxPlayers][]models.Card{
		cards(t, "3D", "4C", "4H", "7S", "9D"),
		cards(t, "5D", "8C"),
		cards(t, "6D", "9C"),
		cards(t, "10D", "JC"),
	})
	sess.Players[0] = &models.PlayerSlot{
		Username:  "AI Player 0",
		Position:  0,
		IsAI:      true,
		Connected: true,
		Hand:      cards(t, "3D", "4C", "4H", "7S", "9D"),
	}

	e.runAITurn(sess, 0, sess.TurnSeq())

	sess.Lock()
	assert.True(t, sess.PlayOccurred, "the AI opener must commit a play")
	assert.True(t, models.ContainsCard(sess.LastPlay, models.ThreeOfDiamonds()))
	assert.Equal(t, 1, sess.CurrentPlayer, "the turn must advance past the opener")
	sess.Unlock()

	agent.mu.Lock()
	require.NotEmpty(t, agent.firstPlays)
	assert.True(t, agent.firstPlays[0], "the agent must be told the 3D obligation applies")
	agent.mu.Unlock()
}

func TestHumanTurnTimesOut(t *testing.T) {
	registry := NewRegistry()
	notifier := &fakeNotifier{}
	e := NewEngine(registry, fakeStore{}, notifier, &fakeAgent{}, time.Hour, 20*time.Millisecond, DefaultEndScore)

	sess := inProgressSession(t, registry, [models.MaxPlayers][]models.Card{
		cards(t, "3D", "7H"),
		cards(t, "5D", "8C"),
		cards(t, "6D", "9C"),
		cards(t, "10D", "JC"),
	})

	require.NoError(t, e.PlayCards(sess, 1, cards(t, "3D")))

	// Seat 1 never acts; the deadline auto-passes for it.
	assert.Eventually(t, func() bool {
		return notifier.sawType(1, ws.MsgPlayerPassed)
	}, time.Second, 5*time.Millisecond)
}

func TestRoomTurnTimeoutOverridesGlobal(t *testing.T) {
	registry := NewRegistry()
	notifier := &fakeNotifier{}
	// No global deadline; only the room setting can arm the timer.
	e := NewEngine(registry, fakeStore{}, notifier, &fakeAgent{}, time.Hour, 0, DefaultEndScore)

	sess := inProgressSession(t, registry, [models.MaxPlayers][]models.Card{
		cards(t, "3D", "7H"),
		cards(t, "5D", "8C"),
		cards(t, "6D", "9C"),
		cards(t, "10D", "JC"),
	})
	sess.Settings.TurnTimeout = 20

	require.NoError(t, e.PlayCards(sess, 1, cards(t, "3D")))

	assert.Eventually(t, func() bool {
		return notifier.sawType(1, ws.MsgPlayerPassed)
	}, time.Second, 5*time.Millisecond, "the room deadline should auto-pass seat 1")
}
