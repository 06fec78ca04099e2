package devtools

import (
	"context"
	"encoding/json"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/sweetstate/internal/errors"
)

// Watch connects to a devtools stream at url (ws:// or wss://) and calls
// fn for every message until ctx is done or the connection fails. It
// returns nil when ctx ends the stream.
func Watch(ctx context.Context, url string, fn func(Message)) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return errors.New("S401").WithDetail("Could not connect to " + url + ".").Wrap(err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.New("S401").WithDetail("Connection to " + url + " closed.").Wrap(err)
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		fn(msg)
	}
}
