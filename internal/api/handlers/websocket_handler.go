package handlers

import (
	"context"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/facultyinsight/backend/internal/llm"
	"github.com/facultyinsight/backend/internal/metrics"
	"github.com/facultyinsight/backend/internal/roster"
	"github.com/facultyinsight/backend/pkg/logger"
)

type WebSocketHandler struct {
	pipeline Evaluator
}

func NewWebSocketHandler(pipeline Evaluator) *WebSocketHandler {
	return &WebSocketHandler{pipeline: pipeline}
}

// HandleConnection runs one chat session: each incoming user message is
// answered with a stream of token frames followed by a complete frame.
// History accumulates per connection, never across connections.
func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	var history []llm.Message

	for {
		var msg struct {
			Teacher string `json:"teacher"`
			Message string `json:"message"`
		}

		if err := c.ReadJSON(&msg); err != nil {
			logger.Debug("WebSocket read ended", zap.Error(err))
			return
		}

		if msg.Message == "" {
			h.sendError(c, "message is required")
			continue
		}

		history = append(history, llm.Message{Role: llm.RoleUser, Content: msg.Message})

		reply, err := h.streamAnswer(ctx, c, history, roster.Key(msg.Teacher))
		if err != nil {
			logger.Error("Failed to stream answer", zap.Error(err))
			h.sendError(c, "Failed to process message")
			continue
		}

		history = append(history, llm.Message{Role: llm.RoleAssistant, Content: reply})
	}
}

func (h *WebSocketHandler) streamAnswer(ctx context.Context, c *websocket.Conn, history []llm.Message, teacherKey string) (string, error) {
	out, err := h.pipeline.EvaluateStreamWithHistory(ctx, history, teacherKey)
	if err != nil {
		return "", err
	}

	var full string
	for chunk := range out {
		if chunk.Err != nil {
			return full, chunk.Err
		}

		full += chunk.Content
		metrics.StreamChunks.Inc()

		err := c.WriteJSON(map[string]interface{}{
			"type":    "chunk",
			"content": chunk.Content,
		})
		if err != nil {
			return full, err
		}
	}

	err = c.WriteJSON(map[string]interface{}{
		"type": "complete",
	})
	return full, err
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	c.WriteJSON(map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	})
}
