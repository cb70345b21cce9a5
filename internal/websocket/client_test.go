package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openSettingsPage serves a single upgraded connection and hands the server side
// to the test as a Client registered on hub.
func openSettingsPage(t *testing.T, hub *Hub, startPumps bool) (*Client, *websocket.Conn) {
	t.Helper()

	clients := make(chan *Client, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := (&websocket.Upgrader{}).Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(conn, hub, "203.0.113.7")
		hub.Register(client)
		if startPumps {
			go client.WritePump()
			go client.ReadPump()
		}
		clients <- client
	}))
	t.Cleanup(server.Close)

	page, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { page.Close() })

	select {
	case client := <-clients:
		return client, page
	case <-time.After(2 * time.Second):
		t.Fatal("settings page was not accepted")
		return nil, nil
	}
}

func TestClient_PushesEventsToPage(t *testing.T) {
	hub := NewHub()
	client, page := openSettingsPage(t, hub, true)

	assert.Equal(t, "203.0.113.7", client.RemoteAddr())
	require.NoError(t, client.Send([]byte(`{"type":"settings.cleared"}`)))

	require.NoError(t, page.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := page.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"settings.cleared"}`, string(data))
}

func TestClient_PageCloseUnregisters(t *testing.T) {
	hub := NewHub()
	client, page := openSettingsPage(t, hub, true)
	require.Equal(t, 1, hub.ClientCount())

	require.NoError(t, page.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "tab closed")))

	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.True(t, client.IsClosed())
	assert.ErrorIs(t, client.Send([]byte(`{}`)), ErrClientClosed)
}

func TestClient_StalledPageIsDropped(t *testing.T) {
	hub := NewHub()
	client, _ := openSettingsPage(t, hub, false)

	for range sendBuffer {
		require.NoError(t, client.Send([]byte(`{}`)))
	}
	assert.ErrorIs(t, client.Send([]byte(`{}`)), ErrClientClosed)
}

func TestClient_CloseTwice(t *testing.T) {
	hub := NewHub()
	client, _ := openSettingsPage(t, hub, false)

	require.NoError(t, client.Close())
	assert.NotPanics(t, func() { client.Close() })
	assert.True(t, client.IsClosed())
}
