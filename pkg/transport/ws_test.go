package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// echoServer upgrades every request and echoes text frames back.
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(msgType, data); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestDialSendReceive(t *testing.T) {
	srv := echoServer(t)

	ws, err := Dial(context.Background(), wsURL(srv), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer ws.Close()

	if !ws.IsOpen() {
		t.Error("transport should be open after dial")
	}

	if err := ws.Send([]byte(`{"type":"publish","method":"x"}`)); err != nil {
		t.Fatalf("Send: %v", err)
	}
	data, err := ws.Receive()
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if string(data) != `{"type":"publish","method":"x"}` {
		t.Errorf("echo = %s", data)
	}
}

func TestDialFailure(t *testing.T) {
	_, err := Dial(context.Background(), "ws://127.0.0.1:1/ws", &DialOptions{
		HandshakeTimeout: time.Second,
	})
	var de *DialError
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want DialError", err)
	}
}

func TestDialRejectedUpgrade(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no websockets here", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := Dial(context.Background(), wsURL(srv), nil)
	var de *DialError
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want DialError", err)
	}
	if !strings.Contains(de.Status, "403") {
		t.Errorf("Status = %q, want 403", de.Status)
	}
}

func TestLocalCloseReportsNormalClosure(t *testing.T) {
	srv := echoServer(t)

	ws, err := Dial(context.Background(), wsURL(srv), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}

	received := make(chan error, 1)
	go func() {
		_, err := ws.Receive()
		received <- err
	}()

	time.Sleep(20 * time.Millisecond)
	if err := ws.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if ws.IsOpen() {
		t.Error("transport still open after Close")
	}
	// Second close is a no-op.
	if err := ws.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	select {
	case err := <-received:
		var ce *CloseError
		if !errors.As(err, &ce) {
			t.Fatalf("Receive err = %v, want CloseError", err)
		}
		if ce.Code != websocket.CloseNormalClosure {
			t.Errorf("close code = %d, want %d", ce.Code, websocket.CloseNormalClosure)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Receive did not return after Close")
	}
}

func TestPeerCloseCarriesCodeAndReason(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "maintenance"))
		conn.Close()
	}))
	defer srv.Close()

	ws, err := Dial(context.Background(), wsURL(srv), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer ws.Close()

	_, err = ws.Receive()
	var ce *CloseError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want CloseError", err)
	}
	if ce.Code != websocket.CloseGoingAway || ce.Reason != "maintenance" {
		t.Errorf("close = %d %q, want 1001 maintenance", ce.Code, ce.Reason)
	}
}

func TestBinaryFramesSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.BinaryMessage, []byte{0xde, 0xad})
		conn.WriteMessage(websocket.TextMessage, []byte("after"))
		// Hold the connection open until the client is done.
		conn.ReadMessage()
	}))
	defer srv.Close()

	ws, err := Dial(context.Background(), wsURL(srv), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer ws.Close()

	data, err := ws.Receive()
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if string(data) != "after" {
		t.Errorf("Receive = %q, want the text frame after the binary one", data)
	}
}

func TestSendAfterClose(t *testing.T) {
	srv := echoServer(t)

	ws, err := Dial(context.Background(), wsURL(srv), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	ws.Close()

	if err := ws.Send([]byte("x")); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Send after Close = %v, want ErrNotOpen", err)
	}
}
