package transport

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestWSConnReadWriteRoundTrip(t *testing.T) {
	upgrader := websocket.Upgrader{}
	serverDone := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("server upgrade: %v", err)
			close(serverDone)
			return
		}
		ws := NewWSConn(conn)
		defer ws.Close()

		buf := make([]byte, headerSize)
		if _, err := readFull(ws, buf); err != nil {
			t.Errorf("server read header: %v", err)
		}
		if _, err := ws.Write([]byte("pong")); err != nil {
			t.Errorf("server write: %v", err)
		}
		close(serverDone)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	clientConn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("client dial: %v", err)
	}
	defer clientConn.Close()
	client := NewWSConn(clientConn)

	if _, err := client.Write(make([]byte, headerSize)); err != nil {
		t.Fatalf("client write: %v", err)
	}

	clientConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	reply := make([]byte, 4)
	if _, err := readFull(client, reply); err != nil {
		t.Fatalf("client read: %v", err)
	}
	if string(reply) != "pong" {
		t.Fatalf("reply = %q, want %q", reply, "pong")
	}

	<-serverDone
}

// readFull reads exactly len(buf) bytes from r, looping over WSConn's
// per-message Read boundaries.
func readFull(r interface{ Read([]byte) (int, error) }, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
