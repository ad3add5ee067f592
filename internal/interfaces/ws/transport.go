// internal/interfaces/ws/transport.go
package ws

import (
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// socket adapts a gorilla websocket connection to Transport
type socket struct {
	conn *websocket.Conn
}

// NewTransport wraps a websocket connection
func NewTransport(conn *websocket.Conn) Transport {
	return &socket{conn: conn}
}

func (s *socket) ReadMessage() ([]byte, error) {
	for {
		kind, data, err := s.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if kind == websocket.TextMessage || kind == websocket.BinaryMessage {
			return data, nil
		}
	}
}

func (s *socket) WriteJSON(v interface{}) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(v)
}

func (s *socket) Close() error {
	return s.conn.Close()
}
