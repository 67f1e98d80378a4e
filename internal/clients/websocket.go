package clients

import (
	"context"
	"fmt"

	ws "coop-backoffice/internal/transport/websocket"
)

// WebSocketClient pushes long-running task updates (exports, repair sweeps)
// to the operator session that started them.
type WebSocketClient struct {
	hub *ws.Hub
}

func NewWebSocketClient(hub *ws.Hub) *WebSocketClient {
	return &WebSocketClient{hub: hub}
}

func sessionChannel(sessionID int64) string {
	return fmt.Sprintf("session#%d", sessionID)
}

func (c *WebSocketClient) NotifyTaskProgress(ctx context.Context, sessionID int64, taskID string, progress float64, stage string) error {
	if c.hub == nil {
		return nil
	}

	data := map[string]interface{}{
		"id":       taskID,
		"progress": progress,
	}
	if stage != "" {
		data["stage"] = stage
	}

	c.hub.Broadcast(sessionID, &ws.Message{
		Type:    "task_progress",
		Channel: sessionChannel(sessionID),
		Data:    data,
	})
	return nil
}

func (c *WebSocketClient) NotifyTaskComplete(ctx context.Context, sessionID int64, taskID, url, filename string) error {
	if c.hub == nil {
		return nil
	}

	c.hub.Broadcast(sessionID, &ws.Message{
		Type:    "task_complete",
		Channel: sessionChannel(sessionID),
		Data: map[string]interface{}{
			"id":       taskID,
			"url":      url,
			"filename": filename,
		},
	})
	return nil
}

func (c *WebSocketClient) NotifyTaskFailed(ctx context.Context, sessionID int64, taskID, errMsg string) error {
	if c.hub == nil {
		return nil
	}

	c.hub.Broadcast(sessionID, &ws.Message{
		Type:    "task_failed",
		Channel: sessionChannel(sessionID),
		Data: map[string]interface{}{
			"id":      taskID,
			"message": errMsg,
		},
	})
	return nil
}

// NotifyRepairDone reports a finished repair sweep to the operator who
// triggered it.
func (c *WebSocketClient) NotifyRepairDone(ctx context.Context, sessionID int64, corrected, scanned int) error {
	if c.hub == nil {
		return nil
	}

	c.hub.Broadcast(sessionID, &ws.Message{
		Type:    "repair_done",
		Channel: sessionChannel(sessionID),
		Data: map[string]interface{}{
			"corrected": corrected,
			"scanned":   scanned,
		},
	})
	return nil
}
