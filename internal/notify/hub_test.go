package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/hostpanel/internal/model"
)

type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func newTestHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(zerolog.Nop(), nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.URL.Query().Get("user"), 10, 64)
		hub.Serve(w, r, id)
	}))
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, userID int64) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=" + strconv.FormatInt(userID, 10)
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })

	f := read(t, conn)
	require.Equal(t, EventConnected, f.Type)
	var hello struct {
		UserID       int64  `json:"userId"`
		ConnectionID string `json:"connectionId"`
	}
	require.NoError(t, json.Unmarshal(f.Data, &hello))
	require.Equal(t, userID, hello.UserID)
	require.Len(t, hello.ConnectionID, 36)
	return conn
}

func read(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var f frame
	require.NoError(t, wsjson.Read(ctx, conn, &f))
	return f
}

func readNotification(t *testing.T, conn *websocket.Conn) model.Notification {
	t.Helper()
	f := read(t, conn)
	require.Equal(t, EventNotification, f.Type)
	var n model.Notification
	require.NoError(t, json.Unmarshal(f.Data, &n))
	return n
}

func TestHub_DeliversToRecipientOnly(t *testing.T) {
	hub, srv := newTestHub(t)
	alice := dial(t, srv, 1)
	bob := dial(t, srv, 2)

	uid := int64(1)
	hub.Publish(context.Background(), &model.Notification{ID: 10, UserID: &uid, Title: "for alice"})
	hub.Publish(context.Background(), &model.Notification{ID: 11, Title: "everyone"})

	got := readNotification(t, alice)
	assert.Equal(t, int64(10), got.ID)
	got = readNotification(t, alice)
	assert.Equal(t, int64(11), got.ID)

	// Bob's first event is the broadcast; the user-scoped one never reached him.
	got = readNotification(t, bob)
	assert.Equal(t, int64(11), got.ID)
	assert.Equal(t, "everyone", got.Title)
}

func TestHub_MultipleConnectionsPerUser(t *testing.T) {
	hub, srv := newTestHub(t)
	first := dial(t, srv, 7)
	second := dial(t, srv, 7)
	assert.Equal(t, 2, hub.Connections(7))

	uid := int64(7)
	hub.Publish(context.Background(), &model.Notification{ID: 3, UserID: &uid})

	assert.Equal(t, int64(3), readNotification(t, first).ID)
	assert.Equal(t, int64(3), readNotification(t, second).ID)
}

func TestHub_PublishWithoutRecipientIsDropped(t *testing.T) {
	hub := NewHub(zerolog.Nop(), nil)
	uid := int64(42)
	assert.NotPanics(t, func() {
		hub.Publish(context.Background(), &model.Notification{ID: 1, UserID: &uid})
		hub.Publish(context.Background(), &model.Notification{ID: 2})
	})
	assert.Equal(t, 0, hub.Connections(42))
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub, srv := newTestHub(t)
	conn := dial(t, srv, 5)
	require.Equal(t, 1, hub.Connections(5))

	conn.Close(websocket.StatusNormalClosure, "bye")

	assert.Eventually(t, func() bool { return hub.Connections(5) == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestHub_SlowClientDropsExcessEvents(t *testing.T) {
	hub := NewHub(zerolog.Nop(), nil)
	c := hub.register(9)
	defer hub.unregister(c)

	uid := int64(9)
	for i := 0; i < clientBuffer+5; i++ {
		hub.Publish(context.Background(), &model.Notification{ID: int64(i), UserID: &uid})
	}
	assert.Len(t, c.events, clientBuffer)
}

func TestHub_DropWarningsAreThrottled(t *testing.T) {
	var logs bytes.Buffer
	hub := NewHub(zerolog.New(&logs), nil)
	c := hub.register(11)
	defer hub.unregister(c)

	uid := int64(11)
	for i := 0; i < clientBuffer+10; i++ {
		hub.Publish(context.Background(), &model.Notification{ID: int64(i), UserID: &uid})
	}
	assert.Equal(t, 1, strings.Count(logs.String(), "notification dropped for slow client"))
}

func TestOriginPatterns(t *testing.T) {
	got := originPatterns([]string{"http://localhost:5173", "https://panel.example.com", "", "*.example.org"})
	assert.Equal(t, []string{"localhost:5173", "panel.example.com", "*.example.org"}, got)
}
