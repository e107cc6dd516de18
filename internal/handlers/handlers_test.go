package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/inkwell/internal/auth"
	"github.com/jason-s-yu/inkwell/internal/cards"
	"github.com/jason-s-yu/inkwell/internal/database"
	"github.com/jason-s-yu/inkwell/internal/game"
	"github.com/jason-s-yu/inkwell/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubResolver deals a fixed deck of inkable cost-3 characters for any list.
type stubResolver struct{ size int }

func (s stubResolver) ResolveDeck(ctx context.Context, text string) ([]models.Descriptor, error) {
	if strings.TrimSpace(text) == "" {
		return nil, cards.ErrEmptyDeck
	}
	deck := make([]models.Descriptor, s.size)
	for i := range deck {
		deck[i] = models.Descriptor{Name: "Maui", Cost: 3, Inkwell: true, Type: "Character"}
	}
	return deck, nil
}

func newTestServer(t *testing.T) (*GameServer, *httptest.Server) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	signer, err := auth.NewSigner(time.Hour)
	require.NoError(t, err)
	gs := NewGameServer(stubResolver{size: 20}, signer, logger)
	srv := httptest.NewServer(Routes(logger, gs))
	t.Cleanup(srv.Close)
	return gs, srv
}

func createGame(t *testing.T, srv *httptest.Server, names ...string) createGameResponse {
	t.Helper()
	seats := make([]SeatRequest, len(names))
	for i, n := range names {
		seats[i] = SeatRequest{Name: n, Deck: "20 Maui - Hero to All"}
	}
	body, _ := json.Marshal(createGameRequest{Players: seats})
	resp, err := http.Post(srv.URL+"/game/create", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out createGameResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out.Players, len(names))
	return out
}

func doRequest(t *testing.T, method, url, token string, body interface{}) *http.Response {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, rdr)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestCreateGameAndFetchState(t *testing.T) {
	gs, srv := newTestServer(t)
	created := createGame(t, srv, "Ana", "Bo")
	assert.Equal(t, 1, gs.GameStore.Len())

	me := created.Players[0]
	resp := doRequest(t, http.MethodGet, srv.URL+"/game/state/"+created.GameID.String(), me.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var state game.ObfGameState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	assert.Equal(t, created.GameID, state.GameID)
	assert.Len(t, state.OwnCards, 20)
	assert.Empty(t, state.OpponentVisibleCards)
	for _, ps := range state.Players {
		assert.Equal(t, 7, ps.ZoneCounts[models.ZoneHand])
		if ps.PlayerID == me.PlayerID {
			assert.NotNil(t, ps.Zones)
		} else {
			assert.Nil(t, ps.Zones)
		}
	}
}

func TestCreateGameValidation(t *testing.T) {
	_, srv := newTestServer(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/game/create", "", createGameRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, http.MethodPost, srv.URL+"/game/create", "", createGameRequest{
		Players: []SeatRequest{{Name: "Ana", Deck: "  "}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, http.MethodPost, srv.URL+"/game/create", "", createGameRequest{
		Players:    []SeatRequest{{Name: "Ana", Deck: "1 Lantern"}},
		HouseRules: map[string]interface{}{"mysteryFlipTurn": float64(0)},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGameStateAuthorization(t *testing.T) {
	_, srv := newTestServer(t)
	first := createGame(t, srv, "Ana", "Bo")
	second := createGame(t, srv, "Cy")
	url := srv.URL + "/game/state/" + first.GameID.String()

	assert.Equal(t, http.StatusUnauthorized, doRequest(t, http.MethodGet, url, "", nil).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, doRequest(t, http.MethodGet, url, "junk", nil).StatusCode)
	assert.Equal(t, http.StatusForbidden, doRequest(t, http.MethodGet, url, second.Players[0].Token, nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, doRequest(t, http.MethodGet, srv.URL+"/game/state/"+uuid.NewString(), first.Players[0].Token, nil).StatusCode)
	assert.Equal(t, http.StatusBadRequest, doRequest(t, http.MethodGet, srv.URL+"/game/state/nope", first.Players[0].Token, nil).StatusCode)
}

func TestTestGameSetsCookie(t *testing.T) {
	gs, srv := newTestServer(t)
	resp := doRequest(t, http.MethodGet, srv.URL+"/game/test", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		GameID   uuid.UUID         `json:"game_id"`
		PlayerID uuid.UUID         `json:"player_id"`
		State    game.ObfGameState `json:"state"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.State.Players, 3)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == authCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/game/state/"+body.GameID.String(), nil)
	req.AddCookie(cookie)
	stateResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer stateResp.Body.Close()
	assert.Equal(t, http.StatusOK, stateResp.StatusCode)
	assert.Equal(t, 1, gs.GameStore.Len())
}

func TestGameActionEndpoint(t *testing.T) {
	gs, srv := newTestServer(t)
	created := createGame(t, srv, "Ana", "Bo")
	g, ok := gs.GameStore.GetGame(created.GameID)
	require.True(t, ok)

	tokens := map[uuid.UUID]string{}
	for _, p := range created.Players {
		tokens[p.PlayerID] = p.Token
	}
	g.Mu.Lock()
	current := g.CurrentTurnPlayerID
	var other uuid.UUID
	for _, pid := range g.PlayerOrder {
		if pid != current {
			other = pid
		}
	}
	myCard := g.Players[current].Zones[models.ZoneHand][0]
	g.Mu.Unlock()
	url := srv.URL + "/game/action/" + created.GameID.String()

	resp := doRequest(t, http.MethodPost, url, tokens[current], GameMessage{Type: game.ActionDrawCard})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var state game.ObfGameState
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	for _, ps := range state.Players {
		if ps.PlayerID == current {
			assert.Equal(t, 8, ps.ZoneCounts[models.ZoneHand])
		}
	}

	resp = doRequest(t, http.MethodPost, url, tokens[other], GameMessage{Type: game.ActionInkCard, CardID: myCard.String()})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doRequest(t, http.MethodPost, url, tokens[current], GameMessage{Type: game.ActionPlayCard, CardID: myCard.String()})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var rejection map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rejection))
	assert.Equal(t, "Not enough ink. Need 3, have 0", rejection["error"])

	resp = doRequest(t, http.MethodPost, url, tokens[other], GameMessage{Type: game.ActionEndTurn})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = doRequest(t, http.MethodPost, url, tokens[current], GameMessage{Type: game.ActionEndTurn})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDeleteGame(t *testing.T) {
	gs, srv := newTestServer(t)
	created := createGame(t, srv, "Ana")
	url := srv.URL + "/game/" + created.GameID.String()

	assert.Equal(t, http.StatusUnauthorized, doRequest(t, http.MethodDelete, url, "", nil).StatusCode)
	assert.Equal(t, http.StatusNoContent, doRequest(t, http.MethodDelete, url, created.Players[0].Token, nil).StatusCode)
	assert.Zero(t, gs.GameStore.Len())
	assert.Equal(t, http.StatusNotFound, doRequest(t, http.MethodDelete, url, created.Players[0].Token, nil).StatusCode)
}

func TestSweepIdleRemovesStaleGames(t *testing.T) {
	gs, srv := newTestServer(t)
	created := createGame(t, srv, "Ana")

	removed := gs.sweepIdle(context.Background(), time.Hour, time.Now())
	assert.Empty(t, removed)

	removed = gs.sweepIdle(context.Background(), time.Hour, time.Now().Add(2*time.Hour))
	assert.Equal(t, []uuid.UUID{created.GameID}, removed)
	assert.Zero(t, gs.GameStore.Len())
}

func TestUserEndpointsWithoutDatabase(t *testing.T) {
	_, srv := newTestServer(t)
	resp := doRequest(t, http.MethodPost, srv.URL+"/user/create", "", userRequest{Email: "a@b.c", Password: "pw", Username: "a"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp = doRequest(t, http.MethodPost, srv.URL+"/user/create", "", userRequest{Email: "a@b.c"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func wsURL(srv *httptest.Server, gameID uuid.UUID, token string) string {
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/game/ws/" + gameID.String()
	if token != "" {
		u += "?token=" + token
	}
	return u
}

func dialGame(t *testing.T, ctx context.Context, url string) *websocket.Conn {
	t.Helper()
	c, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{Subprotocols: []string{"game"}})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close(websocket.StatusNormalClosure, "") })
	return c
}

func readEvent(t *testing.T, ctx context.Context, c *websocket.Conn) game.GameEvent {
	t.Helper()
	_, data, err := c.Read(ctx)
	require.NoError(t, err)
	var ev game.GameEvent
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

func writeMsg(t *testing.T, ctx context.Context, c *websocket.Conn, msg GameMessage) {
	t.Helper()
	data, _ := json.Marshal(msg)
	require.NoError(t, c.Write(ctx, websocket.MessageText, data))
}

func TestGameSocketFlow(t *testing.T) {
	gs, srv := newTestServer(t)
	created := createGame(t, srv, "Ana", "Bo")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	g, _ := gs.GameStore.GetGame(created.GameID)
	g.Mu.Lock()
	currentID := g.CurrentTurnPlayerID
	g.Mu.Unlock()
	var current, waiting SeatTicket
	for _, p := range created.Players {
		if p.PlayerID == currentID {
			current = p
		} else {
			waiting = p
		}
	}

	a := dialGame(t, ctx, wsURL(srv, created.GameID, current.Token))
	writeMsg(t, ctx, a, GameMessage{Type: game.ActionDrawCard})
	ev := readEvent(t, ctx, a)
	assert.Equal(t, game.EventError, ev.Type)
	assert.Equal(t, "Send a join message first.", ev.Message)

	writeMsg(t, ctx, a, GameMessage{Type: "join"})
	assert.Equal(t, game.EventGameJoined, readEvent(t, ctx, a).Type)
	assert.Equal(t, game.EventGameUpdate, readEvent(t, ctx, a).Type)

	b := dialGame(t, ctx, wsURL(srv, created.GameID, waiting.Token))
	writeMsg(t, ctx, b, GameMessage{Type: "join"})
	assert.Equal(t, game.EventGameJoined, readEvent(t, ctx, b).Type)
	assert.Equal(t, game.EventGameUpdate, readEvent(t, ctx, b).Type)
	assert.Equal(t, game.EventGameUpdate, readEvent(t, ctx, a).Type, "join is broadcast to connected players")

	writeMsg(t, ctx, a, GameMessage{Type: game.ActionDrawCard})
	for _, c := range []*websocket.Conn{a, b} {
		ev := readEvent(t, ctx, c)
		require.Equal(t, game.EventGameUpdate, ev.Type)
		require.NotNil(t, ev.State)
		for _, ps := range ev.State.Players {
			if ps.PlayerID == current.PlayerID {
				assert.Equal(t, 8, ps.ZoneCounts[models.ZoneHand])
			}
		}
	}

	writeMsg(t, ctx, b, GameMessage{Type: game.ActionEndTurn})
	ev = readEvent(t, ctx, b)
	assert.Equal(t, game.EventError, ev.Type)
	assert.Equal(t, "It is not your turn", ev.Message)

	writeMsg(t, ctx, a, GameMessage{Type: "ping"})
	_, data, err := a.Read(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"pong"}`, string(data))
}

func TestGameSocketRejectsBadClients(t *testing.T) {
	_, srv := newTestServer(t)
	created := createGame(t, srv, "Ana")
	other := createGame(t, srv, "Bo")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	noProto, _, err := websocket.Dial(ctx, wsURL(srv, created.GameID, created.Players[0].Token), nil)
	require.NoError(t, err)
	_, _, err = noProto.Read(ctx)
	assert.Equal(t, BadSubprotocolError, websocket.CloseStatus(err))

	noToken := dialGame(t, ctx, wsURL(srv, created.GameID, ""))
	_, _, err = noToken.Read(ctx)
	assert.Equal(t, InvalidAuthTokenError, websocket.CloseStatus(err))

	wrongGame := dialGame(t, ctx, wsURL(srv, created.GameID, other.Players[0].Token))
	_, _, err = wrongGame.Read(ctx)
	assert.Equal(t, NotSeatedError, websocket.CloseStatus(err))

	_, resp, err := websocket.Dial(ctx, wsURL(srv, uuid.New(), created.Players[0].Token), &websocket.DialOptions{Subprotocols: []string{"game"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPlayerConnOverflowClosesConnection(t *testing.T) {
	pc := newPlayerConn(context.Background(), uuid.New(), nil)
	for i := 0; i < outboundQueueSize; i++ {
		require.True(t, pc.enqueue([]byte("{}")))
	}
	assert.False(t, pc.enqueue([]byte("{}")), "a full queue is not skipped over")
	assert.Error(t, pc.ctx.Err(), "overflow cancels the connection")
	assert.False(t, pc.enqueue([]byte("{}")))
}

func TestRoomReplacesConnection(t *testing.T) {
	r := newRoom()
	pid := uuid.New()
	first := newPlayerConn(context.Background(), pid, nil)
	second := newPlayerConn(context.Background(), pid, nil)

	assert.Nil(t, r.attach(first))
	assert.Same(t, first, r.attach(second))
	assert.False(t, r.detach(first), "a replaced connection does not detach its successor")

	r.send(pid, []byte("x"))
	assert.Len(t, second.out, 1)
	assert.Empty(t, first.out)

	assert.Equal(t, []*playerConn{second}, r.closeAll())
	assert.False(t, r.detach(second))
}

func roomCount(gs *GameServer) int {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return len(gs.rooms)
}

func TestRemovedGameReleasesRoom(t *testing.T) {
	gs, srv := newTestServer(t)
	created := createGame(t, srv, "Ana")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := dialGame(t, ctx, wsURL(srv, created.GameID, created.Players[0].Token))
	writeMsg(t, ctx, c, GameMessage{Type: "join"})
	assert.Equal(t, game.EventGameJoined, readEvent(t, ctx, c).Type)
	assert.Equal(t, game.EventGameUpdate, readEvent(t, ctx, c).Type)
	require.Equal(t, 1, roomCount(gs))

	require.True(t, gs.RemoveGame(ctx, created.GameID, database.GameStatusCompleted))
	_, _, err := c.Read(ctx)
	assert.Equal(t, GameClosedError, websocket.CloseStatus(err))

	// give the server side of the socket time to unwind through detach
	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, roomCount(gs))
}
