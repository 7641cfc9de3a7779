package transport

import (
	"io"

	"github.com/gorilla/websocket"
)

// WSConn adapts a *websocket.Conn (message-oriented) into io.Reader/
// io.Writer (stream-oriented), so WriteMessage/ReadMessage's fixed-header
// framing works the same whether the underlying transport is a TCP socket
// or a WebSocket connection. Each Write call sends exactly one binary
// WebSocket message; reads are served out of a buffer holding the most
// recently received message until it is exhausted, then the next
// ReadMessage call pulls the next WebSocket frame.
type WSConn struct {
	conn    *websocket.Conn
	readBuf []byte
}

// NewWSConn wraps conn for use as an io.ReadWriter.
func NewWSConn(conn *websocket.Conn) *WSConn {
	return &WSConn{conn: conn}
}

// Write sends p as one binary WebSocket message.
func (c *WSConn) Write(p []byte) (int, error) {
	if err := c.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Read fills p from the current buffered WebSocket message, pulling a new
// one via ReadMessage when the buffer is empty.
func (c *WSConn) Read(p []byte) (int, error) {
	for len(c.readBuf) == 0 {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			return 0, err
		}
		if msgType != websocket.BinaryMessage {
			continue // ignore text/ping/pong frames, this transport is binary-only
		}
		c.readBuf = data
	}
	n := copy(p, c.readBuf)
	c.readBuf = c.readBuf[n:]
	return n, nil
}

// Close closes the underlying connection.
func (c *WSConn) Close() error { return c.conn.Close() }

var _ io.ReadWriteCloser = (*WSConn)(nil)
