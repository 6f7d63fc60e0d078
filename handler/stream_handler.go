package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/tieubaoca/lawchat-be/service"
	"github.com/tieubaoca/lawchat-be/types"
)

// StreamHandler delivers streamed answers over a websocket connection.
type StreamHandler struct {
	stream   *service.StreamService
	upgrader websocket.Upgrader
}

// NewStreamHandler builds the websocket endpoint. The upgrader honors the
// same configured origin as the CORS middleware.
func NewStreamHandler(stream *service.StreamService, allowedOrigin string) *StreamHandler {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	return &StreamHandler{
		stream: stream,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "*" {
					return true
				}
				return r.Header.Get("Origin") == allowedOrigin
			},
		},
	}
}

func (h *StreamHandler) HandleStream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("Upgrade error:", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(512 * 1024) // 512KB max message size
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	for {
		_, p, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var req types.WebsocketRequest
		if err := json.Unmarshal(p, &req); err != nil {
			log.Println("Unmarshal error:", err)
			h.writeError(conn, "Invalid message")
			continue
		}

		switch req.Type {
		case types.TypeWebsocketPing:
			if err := conn.WriteJSON(types.WebsocketResponse{Type: types.TypeWebsocketPong}); err != nil {
				log.Println("Write error:", err)
			}
		case types.TypeWebsocketAsk:
			payloadBytes, err := json.Marshal(req.Payload)
			if err != nil {
				h.writeError(conn, "Invalid payload")
				continue
			}
			var payload types.WebsocketAskPayload
			if err := json.Unmarshal(payloadBytes, &payload); err != nil {
				log.Println("Unmarshal error:", err)
				h.writeError(conn, "Invalid payload")
				continue
			}
			h.streamAnswer(ctx, conn, payload)
		default:
			log.Println("Invalid message type:", req.Type)
		}
	}
}

// streamAnswer forwards every stream event to the client. The event
// channel always ends with one terminal event.
func (h *StreamHandler) streamAnswer(ctx context.Context, conn *websocket.Conn, payload types.WebsocketAskPayload) {
	events := h.stream.AnswerStream(ctx, payload.Question, payload.Messages)
	for event := range events {
		if err := conn.WriteJSON(types.WebsocketResponse{
			Type:    event.Type,
			Payload: event,
		}); err != nil {
			log.Println("Write error:", err)
			return
		}
	}
}

func (h *StreamHandler) writeError(conn *websocket.Conn, message string) {
	err := conn.WriteJSON(types.WebsocketResponse{
		Type:    types.TypeStreamError,
		Payload: types.StreamEvent{Type: types.TypeStreamError, Error: message},
	})
	if err != nil {
		log.Println("Write error:", err)
	}
}
