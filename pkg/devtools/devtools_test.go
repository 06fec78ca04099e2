package devtools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/sweetstate/pkg/store"
)

type counter struct {
	Count int `json:"count"`
}

type counterActions struct {
	Increment func() any
}

func newCounterStore() *store.Store[counter, counterActions] {
	return store.Create(store.Config[counter, counterActions]{
		Name: "counter",
		Actions: func(d *store.Dispatcher[counter, counterActions]) counterActions {
			return counterActions{
				Increment: func() any {
					return d.Named("increment", func(api *store.API[counter, counterActions], _ any) any {
						api.SetState(func(c *counter) { c.Count++ })
						return nil
					})
				},
			}
		},
	})
}

func enableDevtools(t *testing.T) {
	t.Helper()
	prev := store.Defaults.Devtools
	store.Defaults.Devtools = true
	t.Cleanup(func() { store.Defaults.Devtools = prev })
}

func newTestServer(t *testing.T) (*store.Registry, *Hub, *httptest.Server) {
	t.Helper()
	r := store.NewRegistry()
	hub := NewHub()
	detach := Attach(r, hub)
	srv := httptest.NewServer(Handler(r, hub))
	t.Cleanup(func() {
		detach()
		hub.Close()
		srv.Close()
	})
	return r, hub, srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.ClientCount() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestStream_InitThenLifecycleAndUpdates(t *testing.T) {
	enableDevtools(t)
	r, hub, srv := newTestServer(t)
	s := newCounterStore()
	existing := store.GetStore(r, s, "existing")
	existing.Actions().Increment()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readMessage(t, conn)
	assert.Equal(t, TypeInit, first.Type)
	require.Len(t, first.Stores, 1)
	assert.Equal(t, existing.State().ID(), first.Stores[0].ID)
	assert.Equal(t, "existing", first.Stores[0].Scope)
	assert.Equal(t, map[string]any{"count": float64(1)}, first.Stores[0].State)
	waitForClients(t, hub, 1)

	inst := store.GetStore(r, s, store.GlobalScope)
	created := readMessage(t, conn)
	assert.Equal(t, TypeCreated, created.Type)
	assert.Equal(t, inst.State().ID(), created.Store)
	assert.Equal(t, "counter", created.Name)

	inst.Actions().Increment()
	update := readMessage(t, conn)
	assert.Equal(t, TypeUpdate, update.Type)
	assert.Equal(t, "increment", update.Action)
	assert.Equal(t, store.GlobalScope, update.Scope)
	assert.Equal(t, uint64(1), update.Version)
	assert.Equal(t, map[string]any{"count": float64(1)}, update.State)

	store.DeleteStore(r, s, store.GlobalScope)
	deleted := readMessage(t, conn)
	assert.Equal(t, TypeDeleted, deleted.Type)
	assert.Equal(t, inst.State().ID(), deleted.Store)
}

func TestMiddleware_InactiveWithoutDefaultsFlag(t *testing.T) {
	prev := store.Defaults.Devtools
	store.Defaults.Devtools = false
	t.Cleanup(func() { store.Defaults.Devtools = prev })

	r, hub, srv := newTestServer(t)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, TypeInit, readMessage(t, conn).Type)
	waitForClients(t, hub, 1)

	inst := store.GetStore(r, newCounterStore(), "")
	assert.Equal(t, TypeCreated, readMessage(t, conn).Type)

	inst.Actions().Increment()
	// Lifecycle events still flow; updates do not.
	store.DeleteStore(r, inst.Store(), "")
	assert.Equal(t, TypeDeleted, readMessage(t, conn).Type)
}

func TestHandler_Stores(t *testing.T) {
	r, _, srv := newTestServer(t)
	s := newCounterStore()
	store.GetStore(r, s, "b").Actions().Increment()
	a := store.GetStore(r, s, "a")

	resp, err := http.Get(srv.URL + "/stores")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var infos []StoreInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&infos))
	require.Len(t, infos, 2)
	assert.Equal(t, "a", infos[0].Scope)
	assert.Equal(t, "b", infos[1].Scope)
	assert.Equal(t, []string{"counter", s.Key()[1]}, infos[0].Key)

	resp2, err := http.Get(srv.URL + "/stores/" + a.State().ID())
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)

	var info StoreInfo
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&info))
	assert.Equal(t, a.State().ID(), info.ID)
	assert.Equal(t, map[string]any{"count": float64(0)}, info.State)
}

func TestHandler_StoreNotFound(t *testing.T) {
	_, _, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/stores/missing@nowhere")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "S402", body["code"])
}

func TestHub_PublishWithoutClients(t *testing.T) {
	hub := NewHub()
	assert.NotPanics(t, func() { hub.Publish(Message{Type: TypeUpdate}) })
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	_, hub, srv := newTestServer(t)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()
	readMessage(t, conn)
	waitForClients(t, hub, 1)

	hub.Close()
	assert.Equal(t, 0, hub.ClientCount())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}

func TestWatch(t *testing.T) {
	enableDevtools(t)
	r, hub, srv := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs := make(chan Message, 16)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, wsURL(srv), func(m Message) { msgs <- m })
	}()

	select {
	case m := <-msgs:
		assert.Equal(t, TypeInit, m.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("no init message")
	}
	waitForClients(t, hub, 1)

	store.GetStore(r, newCounterStore(), "").Actions().Increment()

	var types []MessageType
	for len(types) < 2 {
		select {
		case m := <-msgs:
			types = append(types, m.Type)
		case <-time.After(2 * time.Second):
			t.Fatalf("got %v, want created and update", types)
		}
	}
	assert.Equal(t, []MessageType{TypeCreated, TypeUpdate}, types)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatch_DialError(t *testing.T) {
	err := Watch(context.Background(), "ws://127.0.0.1:1/ws", func(Message) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S401")
}
