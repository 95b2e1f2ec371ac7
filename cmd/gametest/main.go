package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Live smoke test: registers a user, creates a room, fills the other three
// seats with AI, then opens tricks with its lowest card and passes otherwise
// until the game settles. Run against a server started with a short AI delay.

const serverURL = "http://localhost:8080"
const wsURL = "ws://localhost:8080"

type authResp struct {
	Token    string `json:"token"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

type wsMsg struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type card struct {
	Rank string `json:"rank"`
	Suit string `json:"suit"`
}

var (
	mu          sync.Mutex
	hand        []card
	currentSeat int
	mySeat      = -1
	trickOpen   = true

	gameDone = make(chan struct{})
	doneOnce sync.Once
)

func cardStrings(cards []card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.Rank + c.Suit
	}
	return out
}

func register(username, password string) authResp {
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, err := http.Post(serverURL+"/api/auth/register", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("register failed: %v", err)
	}
	resp.Body.Close()

	resp, err = http.Post(serverURL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatalf("login failed: %v", err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	var auth authResp
	json.Unmarshal(data, &auth)
	if auth.Token == "" {
		log.Fatalf("no token in login response: %s", data)
	}
	return auth
}

func createGame(token string) string {
	body, _ := json.Marshal(map[string]interface{}{"ai_enabled": true, "turn_timeout_ms": 10000})
	req, _ := http.NewRequest("POST", serverURL+"/api/games/create", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("create game failed: %v", err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	var created struct {
		RoomCode string `json:"room_code"`
	}
	json.Unmarshal(data, &created)
	if created.RoomCode == "" {
		log.Fatalf("no room code in response: %s", data)
	}
	return created.RoomCode
}

func connectWS(token string) *websocket.Conn {
	u, _ := url.Parse(wsURL + "/ws")
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("ws connect failed: %v", err)
	}
	return conn
}

func send(conn *websocket.Conn, msgType string, payload interface{}) {
	data, _ := json.Marshal(payload)
	raw, _ := json.Marshal(wsMsg{Type: msgType, Payload: data})
	conn.WriteMessage(websocket.TextMessage, raw)
}

// act opens the trick with the lowest card and passes otherwise. The hand
// arrives sorted, so on the very first turn of the game index 0 is the
// required 3 of diamonds when this seat holds it.
func act(conn *websocket.Conn) {
	mu.Lock()
	defer mu.Unlock()
	if currentSeat != mySeat || len(hand) == 0 {
		return
	}
	if trickOpen {
		lowest := hand[0]
		fmt.Printf("  -> playing %s\n", lowest.Rank+lowest.Suit)
		send(conn, "play", map[string]interface{}{"cards": []card{lowest}})
	} else {
		fmt.Println("  -> passing")
		send(conn, "pass", map[string]string{})
	}
}

func handleMessage(conn *websocket.Conn, msg wsMsg) {
	switch msg.Type {
	case "game_joined":
		var p struct {
			RoomCode string `json:"room_code"`
			Players  []struct {
				Username string `json:"username"`
				Position int    `json:"position"`
			} `json:"players"`
		}
		json.Unmarshal(msg.Payload, &p)
		for _, pl := range p.Players {
			if pl.Username == "smoketest" {
				mu.Lock()
				mySeat = pl.Position
				mu.Unlock()
			}
		}
		fmt.Printf("  joined %s as seat %d\n", p.RoomCode, mySeat)

	case "game_started":
		var p struct {
			CurrentPlayer int `json:"current_player"`
			Round         int `json:"round"`
		}
		json.Unmarshal(msg.Payload, &p)
		mu.Lock()
		currentSeat = p.CurrentPlayer
		trickOpen = true
		mu.Unlock()
		fmt.Printf("  game started, round %d, seat %d opens\n", p.Round, p.CurrentPlayer)
		act(conn)

	case "your_hand":
		var p struct {
			Hand []card `json:"hand"`
		}
		json.Unmarshal(msg.Payload, &p)
		mu.Lock()
		hand = p.Hand
		mu.Unlock()
		fmt.Printf("  hand (%d): %v\n", len(p.Hand), cardStrings(p.Hand))

	case "move_made":
		var p struct {
			Player        int    `json:"player"`
			Username      string `json:"username"`
			Cards         []card `json:"cards"`
			CardsLeft     int    `json:"cards_left"`
			CurrentPlayer int    `json:"current_player"`
		}
		json.Unmarshal(msg.Payload, &p)
		mu.Lock()
		currentSeat = p.CurrentPlayer
		trickOpen = false
		mu.Unlock()
		fmt.Printf("  %s played %v (%d left), turn -> seat %d\n",
			p.Username, cardStrings(p.Cards), p.CardsLeft, p.CurrentPlayer)
		act(conn)

	case "player_passed":
		var p struct {
			Username      string `json:"username"`
			CurrentPlayer int    `json:"current_player"`
		}
		json.Unmarshal(msg.Payload, &p)
		mu.Lock()
		currentSeat = p.CurrentPlayer
		mu.Unlock()
		fmt.Printf("  %s passed, turn -> seat %d\n", p.Username, p.CurrentPlayer)
		act(conn)

	case "new_trick":
		var p struct {
			StartPlayer int `json:"start_player"`
		}
		json.Unmarshal(msg.Payload, &p)
		mu.Lock()
		currentSeat = p.StartPlayer
		trickOpen = true
		mu.Unlock()
		fmt.Printf("  trick cleared, seat %d opens\n", p.StartPlayer)
		act(conn)

	case "round_ended":
		var p struct {
			WinnerName  string `json:"winner_name"`
			RoundScores [4]int `json:"round_scores"`
			TotalScores [4]int `json:"total_scores"`
		}
		json.Unmarshal(msg.Payload, &p)
		fmt.Printf("\n  === round won by %s, scores %v (totals %v) ===\n\n",
			p.WinnerName, p.RoundScores, p.TotalScores)

	case "new_round":
		var p struct {
			Round       int `json:"round"`
			StartPlayer int `json:"start_player"`
		}
		json.Unmarshal(msg.Payload, &p)
		mu.Lock()
		currentSeat = p.StartPlayer
		trickOpen = true
		mu.Unlock()
		fmt.Printf("  round %d, seat %d opens\n", p.Round, p.StartPlayer)
		act(conn)

	case "game_ended":
		var p struct {
			WinnerName  string `json:"winner_name"`
			FinalScores [4]int `json:"final_scores"`
			TotalRounds int    `json:"total_rounds"`
		}
		json.Unmarshal(msg.Payload, &p)
		fmt.Printf("\n  === GAME OVER after %d rounds: %s wins, final scores %v ===\n",
			p.TotalRounds, p.WinnerName, p.FinalScores)
		doneOnce.Do(func() { close(gameDone) })

	case "error":
		var p struct {
			Error string `json:"error"`
		}
		json.Unmarshal(msg.Payload, &p)
		fmt.Printf("  ERROR: %s\n", p.Error)
	}
}

func main() {
	fmt.Println("=== BIG TWO GAME FLOW TEST ===")

	fmt.Println("\n1. Registering test user...")
	auth := register("smoketest", "smoketest123")
	fmt.Printf("   smoketest: id=%d\n", auth.UserID)

	fmt.Println("\n2. Creating game...")
	roomCode := createGame(auth.Token)
	fmt.Printf("   room code: %s\n", roomCode)

	fmt.Println("\n3. Connecting and joining...")
	conn := connectWS(auth.Token)
	defer conn.Close()
	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg wsMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			handleMessage(conn, msg)
		}
	}()
	send(conn, "join_game", map[string]string{"room_code": roomCode})
	time.Sleep(500 * time.Millisecond)

	fmt.Println("\n4. Starting game (AI fills remaining seats)...")
	send(conn, "start_game", map[string]string{})

	select {
	case <-gameDone:
	case <-time.After(10 * time.Minute):
		fmt.Println("\n=== TIMEOUT: game did not finish ===")
		return
	}

	fmt.Println("\n5. Checking profile and history...")
	for _, path := range []string{"/api/user/profile", "/api/games/history", "/api/leaderboard"} {
		req, _ := http.NewRequest("GET", serverURL+path, nil)
		req.Header.Set("Authorization", "Bearer "+auth.Token)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			continue
		}
		data, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		fmt.Printf("   %s -> %s\n", path, data)
	}

	fmt.Println("\nDone.")
}
