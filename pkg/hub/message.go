// Package hub fans JSON messages out to websocket clients. Each client gets
// its own writer goroutine; slow clients are dropped rather than blocking
// the broadcaster.
package hub

import "encoding/json"

// Message is one pre-encoded JSON payload.
type Message struct {
	Data []byte
}

// Encode marshals v into a Message.
func Encode(v interface{}) (Message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Message{}, err
	}
	return Message{Data: data}, nil
}
