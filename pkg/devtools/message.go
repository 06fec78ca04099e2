package devtools

import (
	"time"

	"github.com/vango-dev/sweetstate/pkg/store"
)

// MessageType identifies a devtools message.
type MessageType string

const (
	TypeInit    MessageType = "init"
	TypeUpdate  MessageType = "update"
	TypeCreated MessageType = "created"
	TypeDeleted MessageType = "deleted"
)

// Message is sent to devtools clients as a JSON text frame.
type Message struct {
	Type    MessageType `json:"type"`
	Store   string      `json:"store,omitempty"`
	Name    string      `json:"name,omitempty"`
	Scope   string      `json:"scope,omitempty"`
	Action  string      `json:"action,omitempty"`
	State   any         `json:"state,omitempty"`
	Version uint64      `json:"version,omitempty"`
	Stores  []StoreInfo `json:"stores,omitempty"`
	Time    time.Time   `json:"time"`
}

// StoreInfo describes one live instance.
type StoreInfo struct {
	ID        string   `json:"id"`
	Key       []string `json:"key"`
	Name      string   `json:"name,omitempty"`
	Scope     string   `json:"scope"`
	Version   uint64   `json:"version"`
	Listeners int      `json:"listeners"`
	State     any      `json:"state"`
}

// Describe snapshots an instance.
func Describe(s store.Inspector) StoreInfo {
	return StoreInfo{
		ID:        s.ID(),
		Key:       s.Key(),
		Name:      s.Name(),
		Scope:     s.ScopeID(),
		Version:   s.Version(),
		Listeners: s.Listeners(),
		State:     s.Snapshot(),
	}
}

// describeAll snapshots every live instance of r.
func describeAll(r *store.Registry) []StoreInfo {
	stores := r.Stores()
	out := make([]StoreInfo, 0, len(stores))
	for _, s := range stores {
		out = append(out, Describe(s))
	}
	return out
}

func lifecycleMessage(ev store.Event) Message {
	t := TypeCreated
	if ev.Type == store.EventDeleted {
		t = TypeDeleted
	}
	return Message{
		Type:    t,
		Store:   ev.State.ID(),
		Name:    ev.State.Name(),
		Scope:   ev.State.ScopeID(),
		State:   ev.State.Snapshot(),
		Version: ev.State.Version(),
		Time:    time.Now(),
	}
}
