package websocket

import (
	"encoding/json"
	"time"

	"collab-platform-be/pkg/events"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Inbound actions a connected client may send.
const (
	ActionJoinWorkspace  = "join_workspace"
	ActionLeaveWorkspace = "leave_workspace"
	ActionFileChange     = "file_change"
	ActionCursorMove     = "cursor_move"
	ActionActivityUpdate = "activity_update"
)

// ClientMessage is the inbound wire format.
type ClientMessage struct {
	Action      string                 `json:"action"`
	WorkspaceId string                 `json:"workspace_id,omitempty"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// Client is one authenticated real-time session: the middleman between a
// websocket connection and the hub.
type Client struct {
	Hub *Hub

	Conn *websocket.Conn

	SessionId uuid.UUID
	UserId    uuid.UUID
	UserName  string

	// Current workspace room, empty when not joined. Guarded by Hub.mu.
	room string

	// Buffered channel of outbound frames.
	Send chan []byte
}

// readPump pumps messages from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("Client", "Unexpected close", map[string]interface{}{
					"session_id": c.SessionId,
					"error":      err,
				})
			}
			break
		}
		c.handleMessage(raw)
	}
}

func (c *Client) handleMessage(raw []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("Invalid message format")
		return
	}

	switch msg.Action {
	case ActionJoinWorkspace:
		if msg.WorkspaceId == "" {
			c.sendError("join_workspace requires workspace_id")
			return
		}
		c.Hub.Join(c, msg.WorkspaceId)

	case ActionLeaveWorkspace:
		if msg.WorkspaceId == "" {
			c.sendError("leave_workspace requires workspace_id")
			return
		}
		c.Hub.Leave(c, msg.WorkspaceId)

	case ActionFileChange:
		c.emitOrReject(events.FileChanged, msg.Data)

	case ActionCursorMove:
		c.emitOrReject(events.CursorMoved, msg.Data)

	case ActionActivityUpdate:
		c.emitOrReject(events.ActivityUpdate, msg.Data)

	default:
		c.sendError("Unknown action")
	}
}

func (c *Client) emitOrReject(eventType string, data map[string]interface{}) {
	if !c.Hub.Emit(c, eventType, data) {
		c.sendError("Not in a workspace")
	}
}

// sendError pushes a soft error frame; the connection stays open.
func (c *Client) sendError(message string) {
	frame, _ := json.Marshal(map[string]interface{}{
		"type":    "error",
		"message": message,
	})
	select {
	case c.Send <- frame:
	default:
	}
}

// writePump pumps frames from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
