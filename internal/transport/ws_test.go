package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/corvale/chorus/internal/core"
	"github.com/corvale/chorus/internal/protocol"
)

// TestWebSocketCarriesLargeEnvelopes exercises frames well past 32KiB in
// both directions. A full catalogue announcement for a few hundred tracks
// is an ordinary envelope, and neither end may drop the connection for it.
func TestWebSocketCarriesLargeEnvelopes(t *testing.T) {
	type received struct {
		env protocol.Envelope
		err error
	}
	fromServer := make(chan received, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			fromServer <- received{err: err}
			return
		}
		conn := NewWebSocketConn(ws)
		env, err := conn.Receive()
		if err == nil {
			// Echo the envelope back so the client side read path is
			// exercised with the same oversized frame.
			err = conn.Send(env)
		}
		fromServer <- received{env: env, err: err}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"))
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	files := make([]core.Track, 400)
	for i := range files {
		files[i] = core.Track{
			ID:   fmt.Sprintf("track-%04d", i),
			Name: strings.Repeat("n", 100) + fmt.Sprintf("-%04d.mp3", i),
			Tags: []string{"ambient", "field-recordings"},
		}
	}
	env, err := protocol.New(protocol.TypeFilesAvailable, "tab-1", protocol.FilesAvailable{Files: files})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if len(env.Data) <= 32*1024 {
		t.Fatalf("envelope payload = %d bytes, want > 32KiB to exceed the default frame limit", len(env.Data))
	}

	if err := conn.Send(env); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	var got received
	select {
	case got = <-fromServer:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the server to receive the envelope")
	}
	if got.err != nil {
		t.Fatalf("server Receive/Send error = %v", got.err)
	}
	var serverPayload protocol.FilesAvailable
	if err := json.Unmarshal(got.env.Data, &serverPayload); err != nil {
		t.Fatalf("unmarshal server payload: %v", err)
	}
	if len(serverPayload.Files) != len(files) {
		t.Errorf("server received %d files, want %d", len(serverPayload.Files), len(files))
	}

	echo, err := conn.Receive()
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	var clientPayload protocol.FilesAvailable
	if err := json.Unmarshal(echo.Data, &clientPayload); err != nil {
		t.Fatalf("unmarshal echoed payload: %v", err)
	}
	if len(clientPayload.Files) != len(files) {
		t.Errorf("client received %d files, want %d", len(clientPayload.Files), len(files))
	}
}
