package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedServer(t *testing.T, subs chan<- string) *httptest.Server {
	up := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("token"))
		conn, err := up.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		var sub map[string]string
		require.NoError(t, conn.ReadJSON(&sub))
		subs <- sub["symbol"]

		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"bar","data":[{"s":"QQQ","c":440.5,"t":1715040000000}]}`))
		time.Sleep(50 * time.Millisecond)
	}))
}

func TestClientStreamsBars(t *testing.T) {
	subs := make(chan string, 1)
	srv := feedServer(t, subs)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c := New("secret", "ws"+strings.TrimPrefix(srv.URL, "http"), []string{"QQQ"}, time.Millisecond, time.Second, nil)
	require.NoError(t, c.Connect(ctx))
	require.NoError(t, c.Subscribe(ctx))
	assert.True(t, c.IsConnected())
	assert.Equal(t, "QQQ", <-subs)

	bars, _ := c.Read(ctx)
	select {
	case b := <-bars:
		require.NotNil(t, b)
		assert.Equal(t, "QQQ", b.Symbol)
		assert.Equal(t, 440.5, b.Close)
		assert.Equal(t, time.Date(2024, 5, 7, 0, 0, 0, 0, time.UTC), b.Time)
	case <-ctx.Done():
		t.Fatal("no bar received")
	}

	require.NoError(t, c.Close())
	assert.False(t, c.IsConnected())
}

func TestSubscribeRequiresConnection(t *testing.T) {
	c := New("", "ws://localhost:0", []string{"QQQ"}, 0, 0, nil)
	assert.Error(t, c.Subscribe(context.Background()))
}
