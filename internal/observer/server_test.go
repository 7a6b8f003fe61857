package observer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestPublishReachesObserver(t *testing.T) {
	srv := NewServer(nil)
	ts := httptest.NewServer(srv.WSHandler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for srv.Clients() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("observer never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	srv.Publish("EPISODE", map[string]int{"episode": 3})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg struct {
		Type string         `json:"type"`
		Data map[string]int `json:"data"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != "EPISODE" || msg.Data["episode"] != 3 {
		t.Fatalf("msg = %+v", msg)
	}
}

func TestPublishWithoutObservers(t *testing.T) {
	srv := NewServer(nil)
	srv.Publish("DIAGNOSTICS", map[string]int{"steps": 1})

	rec := httptest.NewRecorder()
	srv.LatestHandler()(rec, httptest.NewRequest(http.MethodGet, "/latest", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"DIAGNOSTICS"`) {
		t.Fatalf("latest: %d %s", rec.Code, rec.Body.String())
	}
}

func TestLatestEmpty(t *testing.T) {
	srv := NewServer(nil)
	rec := httptest.NewRecorder()
	srv.LatestHandler()(rec, httptest.NewRequest(http.MethodGet, "/latest", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("code = %d", rec.Code)
	}
}

func TestRejectsNonLoopback(t *testing.T) {
	srv := NewServer(nil)
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.RemoteAddr = "10.1.2.3:4567"
	rec := httptest.NewRecorder()
	srv.WSHandler()(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("code = %d, want 403", rec.Code)
	}
}
