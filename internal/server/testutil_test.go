package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"unoserver/internal/bot"
	"unoserver/internal/protocol"
	"unoserver/internal/room"
	"unoserver/internal/storage"
)

// --- Test environment ---

type testEnv struct {
	ts    *httptest.Server
	rooms *room.Registry
	store *storage.Store
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := storage.New(":memory:")
	require.NoError(t, err, "open db")
	t.Cleanup(func() { store.Close() })

	logger, _ := test.NewNullLogger()
	rooms := room.NewRegistry(room.RegistryOptions{
		Room: room.Options{
			BotDelay: 0,
			Strategy: bot.FirstLegal{},
		},
		RetainFinished: time.Minute,
		IdleTimeout:    time.Hour,
		Recorder:       store,
		Logger:         logger,
	})
	t.Cleanup(rooms.Close)

	srv := New(Options{Rooms: rooms, Results: store, Logger: logger})
	return &testEnv{ts: newServer(t, srv), rooms: rooms, store: store}
}

func newServer(t *testing.T, h http.Handler) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

// --- Context helpers ---

func timeoutCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// --- REST API helpers ---

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err, "GET %s", url)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v), "decode %s", url)
	}
	return resp.StatusCode
}

// --- WebSocket helpers ---

func wsURL(ts *httptest.Server) string {
	return strings.Replace(ts.URL, "http://", "ws://", 1) + "/ws"
}

// wsDial opens a connection that is closed when the test ends.
func wsDial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(timeoutCtx(t), wsURL(ts), nil)
	require.NoError(t, err, "ws dial")
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func sendCmd(t *testing.T, ctx context.Context, conn *websocket.Conn, cmd protocol.Command) {
	t.Helper()
	data, err := protocol.EncodeCommand(cmd)
	require.NoError(t, err)
	require.NoError(t, conn.Write(ctx, websocket.MessageText, data), "ws write")
}

func sendRaw(t *testing.T, ctx context.Context, conn *websocket.Conn, raw string) {
	t.Helper()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(raw)), "ws write")
}

func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn) protocol.Event {
	t.Helper()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err, "ws read")
	e, err := protocol.DecodeEvent(data)
	require.NoError(t, err, "decode event %s", data)
	return e
}

// expect reads the next event and requires it to be a T.
func expect[T protocol.Event](t *testing.T, ctx context.Context, conn *websocket.Conn) T {
	t.Helper()
	e := readEvent(t, ctx, conn)
	v, ok := e.(T)
	require.True(t, ok, "expected %T, got %#v", *new(T), e)
	return v
}

func readError(t *testing.T, ctx context.Context, conn *websocket.Conn) string {
	t.Helper()
	return expect[protocol.Error](t, ctx, conn).Message
}

// expectSilence requires that nothing arrives for a short while. The
// connection is unusable afterwards.
func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.Error(t, err, "unexpected message %s", data)
}

// --- Room helpers ---

type player struct {
	conn  *websocket.Conn
	id    string
	token string
}

// createRoom opens a room for name and consumes the join events.
func createRoom(t *testing.T, ts *httptest.Server, name string) (player, string) {
	t.Helper()
	ctx := timeoutCtx(t)
	conn := wsDial(t, ts)
	sendCmd(t, ctx, conn, protocol.CreateRoom{PlayerName: name})
	joined := expect[protocol.RoomJoined](t, ctx, conn)
	expect[protocol.StateUpdate](t, ctx, conn)
	return player{conn: conn, id: joined.PlayerID, token: joined.Token}, joined.RoomID
}

// joinRoom seats name in roomID and consumes the join events on the new
// connection and on every earlier one.
func joinRoom(t *testing.T, ts *httptest.Server, roomID, name string, others ...player) player {
	t.Helper()
	ctx := timeoutCtx(t)
	conn := wsDial(t, ts)
	sendCmd(t, ctx, conn, protocol.JoinRoom{RoomID: roomID, PlayerName: name})
	joined := expect[protocol.RoomJoined](t, ctx, conn)
	expect[protocol.StateUpdate](t, ctx, conn)
	for _, o := range others {
		expect[protocol.StateUpdate](t, ctx, o.conn)
	}
	return player{conn: conn, id: joined.PlayerID, token: joined.Token}
}

// startedRoom returns a two-player room that has been dealt, with the
// start events consumed. It also returns each player's hand.
func startedRoom(t *testing.T, ts *httptest.Server) (string, player, player, protocol.HandUpdate, protocol.HandUpdate) {
	t.Helper()
	ctx := timeoutCtx(t)
	alice, roomID := createRoom(t, ts, "alice")
	bob := joinRoom(t, ts, roomID, "bob", alice)

	sendCmd(t, ctx, alice.conn, protocol.StartGame{RoomID: roomID})
	expect[protocol.StateUpdate](t, ctx, alice.conn)
	ah := expect[protocol.HandUpdate](t, ctx, alice.conn)
	expect[protocol.StateUpdate](t, ctx, bob.conn)
	bh := expect[protocol.HandUpdate](t, ctx, bob.conn)
	return roomID, alice, bob, ah, bh
}
