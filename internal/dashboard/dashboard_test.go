package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/f1sherman/gphotos-sync/internal/syncer"
)

func startTestServer(t *testing.T) *Server {
	t.Helper()
	server := NewServer(&Config{
		Port:   0, // random available port
		Logger: log.New(io.Discard, "", 0),
	})
	if err := server.Start(); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	t.Cleanup(func() { _ = server.Stop() })
	return server
}

func dialTestClient(t *testing.T, server *Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws://"+server.Addr()+"/ws", nil)
	if err != nil {
		t.Fatalf("Dial() failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	return msg
}

func TestServer_StartStop(t *testing.T) {
	server := startTestServer(t)
	if server.Addr() == "" {
		t.Fatal("Addr() is empty after Start()")
	}
	if err := server.Stop(); err != nil {
		t.Fatalf("Stop() failed: %v", err)
	}
}

func TestServer_BroadcastReachesClient(t *testing.T) {
	server := startTestServer(t)
	conn := dialTestClient(t, server)

	// The connection registers asynchronously after the upgrade.
	time.Sleep(100 * time.Millisecond)

	data, _ := json.Marshal(ItemSyncedData{RemoteID: "r1", FileName: "IMG.jpg"})
	server.Broadcast(Message{Type: MessageTypeItemSynced, Data: data})

	msg := readMessage(t, conn)
	if msg.Type != MessageTypeItemSynced {
		t.Errorf("message type = %q, want %q", msg.Type, MessageTypeItemSynced)
	}
	if msg.Timestamp.IsZero() {
		t.Error("broadcast did not stamp the message")
	}

	var payload ItemSyncedData
	if err := json.Unmarshal(msg.Data, &payload); err != nil {
		t.Fatalf("payload unmarshal failed: %v", err)
	}
	if payload.RemoteID != "r1" || payload.FileName != "IMG.jpg" {
		t.Errorf("payload = %+v, want the broadcast item", payload)
	}
}

func TestEvents_TranslatesSyncEvents(t *testing.T) {
	server := startTestServer(t)
	conn := dialTestClient(t, server)
	time.Sleep(100 * time.Millisecond)

	events := NewEvents(server)
	events.ItemFailed("r9", "BAD.jpg", errors.New("boom"))
	events.RunComplete(syncer.RunStats{Synced: 3, Skipped: 2, Failed: 1})

	msg := readMessage(t, conn)
	if msg.Type != MessageTypeItemFailed {
		t.Fatalf("first message type = %q, want %q", msg.Type, MessageTypeItemFailed)
	}
	var failed ItemFailedData
	if err := json.Unmarshal(msg.Data, &failed); err != nil {
		t.Fatalf("payload unmarshal failed: %v", err)
	}
	if failed.Name != "BAD.jpg" || failed.Error != "boom" {
		t.Errorf("failed payload = %+v", failed)
	}

	msg = readMessage(t, conn)
	if msg.Type != MessageTypeRunComplete {
		t.Fatalf("second message type = %q, want %q", msg.Type, MessageTypeRunComplete)
	}
	var stats RunCompleteData
	if err := json.Unmarshal(msg.Data, &stats); err != nil {
		t.Fatalf("payload unmarshal failed: %v", err)
	}
	if stats.Synced != 3 || stats.Skipped != 2 || stats.Failed != 1 {
		t.Errorf("stats payload = %+v", stats)
	}
}

func TestServer_HealthEndpoint(t *testing.T) {
	server := startTestServer(t)

	resp, err := http.Get("http://" + server.Addr() + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("health body read failed: %v", err)
	}
	var body struct {
		Status  string `json:"status"`
		Clients int    `json:"clients"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("health body unmarshal failed: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("health status = %q, want ok", body.Status)
	}
}
