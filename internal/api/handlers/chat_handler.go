package handlers

import (
	"bufio"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/facultyinsight/backend/internal/api/httperr"
	"github.com/facultyinsight/backend/internal/llm"
	"github.com/facultyinsight/backend/internal/metrics"
	"github.com/facultyinsight/backend/internal/review"
	"github.com/facultyinsight/backend/internal/roster"
	"github.com/facultyinsight/backend/pkg/logger"
)

type ChatHandler struct {
	pipeline Evaluator
}

func NewChatHandler(pipeline Evaluator) *ChatHandler {
	return &ChatHandler{pipeline: pipeline}
}

// HandleChat is the streaming variant. The body is either the simple
// payload {teacher, reviews, courses_taught} or a prior-message array
// ending in a user turn (the retrieval-augmented variant). Output is a
// chunked text/plain token stream.
func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	body := c.Body()

	var history []llm.Message
	if err := json.Unmarshal(body, &history); err == nil && len(history) > 0 {
		return h.streamHistory(c, history)
	}

	var req review.Request
	if err := c.BodyParser(&req); err != nil {
		return httperr.Respond(c, httperr.Validationf("malformed request body"))
	}
	if req.Teacher == "" {
		return httperr.Respond(c, httperr.Validationf("teacher is required"))
	}

	out, err := h.pipeline.EvaluateStream(c.Context(), req)
	if err != nil {
		return httperr.Respond(c, err)
	}

	return relayStream(c, out)
}

func (h *ChatHandler) streamHistory(c *fiber.Ctx, history []llm.Message) error {
	teacherKey := roster.Key(c.Query("teacher"))

	out, err := h.pipeline.EvaluateStreamWithHistory(c.Context(), history, teacherKey)
	if err != nil {
		return httperr.Respond(c, err)
	}

	return relayStream(c, out)
}

// relayStream pipes the completion channel to the response body without
// buffering the whole result. Errors before this point got a non-2xx
// JSON body; an error after the first byte aborts the stream, which the
// chunked encoding surfaces to the client as truncation.
func relayStream(c *fiber.Ctx, out <-chan llm.StreamChunk) error {
	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	c.Set(fiber.HeaderCacheControl, "no-cache")

	conn := c.Context().Conn()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		for chunk := range out {
			if chunk.Err != nil {
				logger.Error("Stream aborted", zap.Error(chunk.Err))
				// Closing the connection keeps the terminating chunk off the
				// wire, so the client sees truncation instead of a clean end.
				conn.Close()
				return
			}
			if _, err := w.WriteString(chunk.Content); err != nil {
				// Client went away; the producer stops via context cancellation.
				logger.Debug("Stream write failed", zap.Error(err))
				return
			}
			if err := w.Flush(); err != nil {
				logger.Debug("Stream flush failed", zap.Error(err))
				return
			}
			metrics.StreamChunks.Inc()
		}
	})

	return nil
}
