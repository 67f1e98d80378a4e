package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	ws "coop-backoffice/internal/transport/websocket"

	"github.com/gorilla/websocket"
)

func dialSessionHub(t *testing.T, hub *ws.Hub, sessionID int64) *websocket.Conn {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.HandleWebSocket(w, r, sessionID)
	}))
	t.Cleanup(server.Close)

	wsURL := "ws" + server.URL[4:]
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	// give the hub time to register the connection
	time.Sleep(100 * time.Millisecond)
	return conn
}

func readData(t *testing.T, conn *websocket.Conn) (ws.Message, map[string]interface{}) {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	var received ws.Message
	if err := conn.ReadJSON(&received); err != nil {
		t.Fatalf("Failed to read message: %v", err)
	}

	dataBytes, err := json.Marshal(received.Data)
	if err != nil {
		t.Fatalf("Failed to marshal data: %v", err)
	}
	var data map[string]interface{}
	if err := json.Unmarshal(dataBytes, &data); err != nil {
		t.Fatalf("Failed to unmarshal data: %v", err)
	}
	return received, data
}

func TestWebSocketClient_NotifyTaskProgress(t *testing.T) {
	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go hub.Run(ctx)
	conn := dialSessionHub(t, hub, 1)

	client := NewWebSocketClient(hub)
	if err := client.NotifyTaskProgress(context.Background(), 1, "exports:abc", 50.5, "generating"); err != nil {
		t.Fatalf("Failed to notify progress: %v", err)
	}

	received, data := readData(t, conn)

	if received.Type != "task_progress" {
		t.Errorf("Expected type 'task_progress', got '%s'", received.Type)
	}
	if received.SessionID != 1 {
		t.Errorf("Expected session 1, got %d", received.SessionID)
	}
	if received.Channel != "session#1" {
		t.Errorf("Expected channel 'session#1', got '%s'", received.Channel)
	}
	if data["id"] != "exports:abc" {
		t.Errorf("Expected id 'exports:abc', got '%v'", data["id"])
	}
	if data["progress"].(float64) != 50.5 {
		t.Errorf("Expected progress 50.5, got %v", data["progress"])
	}
	if data["stage"] != "generating" {
		t.Errorf("Expected stage 'generating', got '%v'", data["stage"])
	}
}

func TestWebSocketClient_NotifyTaskComplete(t *testing.T) {
	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go hub.Run(ctx)
	conn := dialSessionHub(t, hub, 1)

	client := NewWebSocketClient(hub)
	err := client.NotifyTaskComplete(context.Background(), 1, "exports:abc", "https://example.com/file.xlsx", "pagos_20260101.xlsx")
	if err != nil {
		t.Fatalf("Failed to notify complete: %v", err)
	}

	received, data := readData(t, conn)

	if received.Type != "task_complete" {
		t.Errorf("Expected type 'task_complete', got '%s'", received.Type)
	}
	if received.Channel != "session#1" {
		t.Errorf("Expected channel 'session#1', got '%s'", received.Channel)
	}
	if data["url"] != "https://example.com/file.xlsx" {
		t.Errorf("Expected url 'https://example.com/file.xlsx', got '%v'", data["url"])
	}
	if data["filename"] != "pagos_20260101.xlsx" {
		t.Errorf("Expected filename 'pagos_20260101.xlsx', got '%v'", data["filename"])
	}
}

func TestWebSocketClient_NotifyTaskFailed(t *testing.T) {
	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go hub.Run(ctx)
	conn := dialSessionHub(t, hub, 1)

	client := NewWebSocketClient(hub)
	if err := client.NotifyTaskFailed(context.Background(), 1, "exports:abc", "upload failed"); err != nil {
		t.Fatalf("Failed to notify failed: %v", err)
	}

	received, data := readData(t, conn)

	if received.Type != "task_failed" {
		t.Errorf("Expected type 'task_failed', got '%s'", received.Type)
	}
	if data["id"] != "exports:abc" {
		t.Errorf("Expected id 'exports:abc', got '%v'", data["id"])
	}
	if data["message"] != "upload failed" {
		t.Errorf("Expected message 'upload failed', got '%v'", data["message"])
	}
}

func TestWebSocketClient_NotifyRepairDone(t *testing.T) {
	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go hub.Run(ctx)
	conn := dialSessionHub(t, hub, 7)

	client := NewWebSocketClient(hub)
	if err := client.NotifyRepairDone(context.Background(), 7, 12, 340); err != nil {
		t.Fatalf("Failed to notify repair done: %v", err)
	}

	received, data := readData(t, conn)

	if received.Type != "repair_done" {
		t.Errorf("Expected type 'repair_done', got '%s'", received.Type)
	}
	if received.Channel != "session#7" {
		t.Errorf("Expected channel 'session#7', got '%s'", received.Channel)
	}
	if int(data["corrected"].(float64)) != 12 {
		t.Errorf("Expected corrected 12, got %v", data["corrected"])
	}
	if int(data["scanned"].(float64)) != 340 {
		t.Errorf("Expected scanned 340, got %v", data["scanned"])
	}
}

func TestWebSocketClient_NilHub(t *testing.T) {
	client := NewWebSocketClient(nil)

	if err := client.NotifyTaskProgress(context.Background(), 1, "exports:abc", 50.5, ""); err != nil {
		t.Errorf("Should not return error with nil hub, got: %v", err)
	}
	if err := client.NotifyTaskComplete(context.Background(), 1, "exports:abc", "https://example.com/file.xlsx", "file.xlsx"); err != nil {
		t.Errorf("Should not return error with nil hub, got: %v", err)
	}
	if err := client.NotifyRepairDone(context.Background(), 1, 0, 0); err != nil {
		t.Errorf("Should not return error with nil hub, got: %v", err)
	}
}

func TestWebSocketClient_MultipleProgressUpdates(t *testing.T) {
	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go hub.Run(ctx)
	conn := dialSessionHub(t, hub, 1)

	client := NewWebSocketClient(hub)

	progresses := []float64{10.0, 25.0, 50.0, 75.0, 100.0}
	for _, progress := range progresses {
		if err := client.NotifyTaskProgress(context.Background(), 1, "exports:abc", progress, ""); err != nil {
			t.Fatalf("Failed to notify progress: %v", err)
		}

		_, data := readData(t, conn)
		if data["progress"].(float64) != progress {
			t.Errorf("Expected progress %.1f, got %.1f", progress, data["progress"].(float64))
		}
	}
}
