package api

import (
	"encoding/json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"old-maid-server/internal/auth"
	"old-maid-server/internal/core"
	database "old-maid-server/internal/db"
	"old-maid-server/internal/random"
	"strings"
	"sync"
	"testing"
	"time"
)

type published struct {
	group string
	event string
}

type recordingMirror struct {
	mu     sync.Mutex
	events []published
}

func (m *recordingMirror) Publish(group, event string, _ any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, published{group, event})
}

func (m *recordingMirror) seen(group, event string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.group == group && e.event == event {
			return true
		}
	}
	return false
}

type testServer struct {
	*httptest.Server
	issuer *auth.Issuer
	mirror *recordingMirror
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := database.Open(database.Config{Driver: database.DriverMemory}, zerolog.Nop())
	require.NoError(t, err)
	service := core.NewService(store, random.Source{}, zerolog.Nop())
	issuer := auth.NewIssuer("test-secret", time.Hour)
	mirror := &recordingMirror{}
	hub := NewHub(mirror, zerolog.Nop())

	srv := httptest.NewServer(NewRouter(service, issuer, hub, core.ServerConfig{AllowedOrigins: []string{"*"}}, zerolog.Nop()))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
		_ = store.Close()
	})
	return &testServer{Server: srv, issuer: issuer, mirror: mirror}
}

func (s *testServer) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(s.URL, "http") + "/ws" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

type received struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

func send(t *testing.T, conn *websocket.Conn, event string, payload any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{"event": event, "payload": payload}))
}

// await reads frames until event arrives and decodes its payload into out.
func await(t *testing.T, conn *websocket.Conn, event string, out any) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var frame received
		require.NoError(t, conn.ReadJSON(&frame), "waiting for %s", event)
		if frame.Event != event {
			continue
		}
		if out != nil {
			require.NoError(t, json.Unmarshal(frame.Payload, out))
		}
		return
	}
}

type createdRoom struct {
	WaitingRoom   WaitingRoomWithSecretDto  `json:"waitingRoom"`
	WaitingPlayer WaitingPlayerWithTokenDto `json:"waitingPlayer"`
	Session       string                    `json:"session"`
}

type joinedRoom struct {
	WaitingRoom WaitingRoomWithSecretDto  `json:"waitingRoom"`
	NewPlayer   WaitingPlayerWithTokenDto `json:"newPlayer"`
	Session     string                    `json:"session"`
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLobbyToGameOverWebsocket(t *testing.T) {
	srv := newTestServer(t)
	owner := srv.dial(t, "")
	guest := srv.dial(t, "")

	send(t, owner, "c:waitingRoom:create", nil)
	var created createdRoom
	await(t, owner, "s:waitingRoom:create:ok", &created)
	require.NotEmpty(t, created.WaitingRoom.Secret)
	require.NotEmpty(t, created.Session)

	send(t, guest, "c:waitingRoom:players:join", map[string]any{"secret": created.WaitingRoom.Secret})
	var joined joinedRoom
	await(t, guest, "s:waitingRoom:players:join:ok", &joined)
	assert.Len(t, joined.WaitingRoom.Players, 2)

	var changed struct {
		WaitingRoom map[string]json.RawMessage `json:"waitingRoom"`
	}
	await(t, owner, "s:waitingRoom:changed", &changed)
	assert.NotContains(t, changed.WaitingRoom, "secret", "broadcasts never carry the join code")

	send(t, owner, "c:game:create", map[string]any{
		"waitingRoomId":       created.WaitingRoom.ID,
		"authenticationToken": created.WaitingPlayer.AuthenticationToken,
	})
	var game struct {
		Game GameDto `json:"game"`
	}
	await(t, owner, "s:game:create:ok", &game)
	assert.Equal(t, created.WaitingRoom.ID, game.Game.ID)
	assert.Len(t, game.Game.PlayerIDs, 2)

	await(t, guest, "s:game:changed", nil)
	var private struct {
		Player PlayerWithCardsDto `json:"player"`
	}
	await(t, guest, "s:player:changed", &private)
	assert.Equal(t, joined.NewPlayer.ID, private.Player.ID)
	assert.Len(t, private.Player.CardsInHand, private.Player.CardCount)

	assert.True(t, srv.mirror.seen("game:"+string(game.Game.ID), "s:game:changed"))

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/session", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+joined.Session)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var session struct {
		Game    GameDto                      `json:"game"`
		Players []map[string]json.RawMessage `json:"players"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&session))
	assert.Equal(t, game.Game.ID, session.Game.ID)
	require.Len(t, session.Players, 2)
	for _, p := range session.Players {
		assert.NotContains(t, p, "cardsInHand")
		assert.NotContains(t, p, "authenticationToken")
	}
}

func TestSessionSubscribesSocket(t *testing.T) {
	srv := newTestServer(t)
	owner := srv.dial(t, "")

	send(t, owner, "c:waitingRoom:create", nil)
	var created createdRoom
	await(t, owner, "s:waitingRoom:create:ok", &created)

	viewer := srv.dial(t, "?session="+created.Session)

	guest := srv.dial(t, "")
	send(t, guest, "c:waitingRoom:players:join", map[string]any{"secret": created.WaitingRoom.Secret})
	await(t, guest, "s:waitingRoom:players:join:ok", nil)

	var changed struct {
		WaitingRoom WaitingRoomDto `json:"waitingRoom"`
	}
	await(t, viewer, "s:waitingRoom:changed", &changed)
	assert.Len(t, changed.WaitingRoom.Players, 2)
}

func TestRejectedEvents(t *testing.T) {
	srv := newTestServer(t)
	conn := srv.dial(t, "")

	send(t, conn, "c:game:changeTurn", map[string]any{"gameId": "missing", "playerId": "p", "authenticationToken": "t"})
	var failure ErrorDto
	await(t, conn, "s:game:changeTurn:error", &failure)
	assert.Equal(t, "NotFoundException", string(failure.Name))

	send(t, conn, "c:player:proceedAction", "not an object")
	await(t, conn, "s:player:proceedAction:error", &failure)
	assert.Equal(t, "IllegalParamException", string(failure.Name))

	send(t, conn, "c:nope", nil)
	await(t, conn, "s:error", &failure)
	assert.Equal(t, "IllegalParamException", string(failure.Name))
}

func TestInvalidSessionIsRefused(t *testing.T) {
	srv := newTestServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?session=garbage"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/session", nil)
	require.NoError(t, err)
	sessionResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer sessionResp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, sessionResp.StatusCode)
}
