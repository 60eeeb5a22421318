package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/facultyinsight/backend/internal/api/httperr"
	"github.com/facultyinsight/backend/internal/llm"
	"github.com/facultyinsight/backend/internal/review"
)

// Evaluator is the review pipeline as seen by the HTTP layer.
type Evaluator interface {
	Evaluate(ctx context.Context, req review.Request) (*review.Summary, error)
	EvaluateStream(ctx context.Context, req review.Request) (<-chan llm.StreamChunk, error)
	EvaluateStreamWithHistory(ctx context.Context, history []llm.Message, teacherKey string) (<-chan llm.StreamChunk, error)
}

type ReviewHandler struct {
	pipeline Evaluator
}

func NewReviewHandler(pipeline Evaluator) *ReviewHandler {
	return &ReviewHandler{pipeline: pipeline}
}

// HandleReview is the structured variant: one JSON-constrained evaluation
// returned as a zero-or-one element array (the unwrapped Review array).
// An empty review list is valid input, not an error.
func (h *ReviewHandler) HandleReview(c *fiber.Ctx) error {
	var req review.Request
	if err := c.BodyParser(&req); err != nil {
		return httperr.Respond(c, httperr.Validationf("malformed request body"))
	}

	if req.Teacher == "" {
		return httperr.Respond(c, httperr.Validationf("teacher is required"))
	}

	summary, err := h.pipeline.Evaluate(c.Context(), req)
	if err != nil {
		return httperr.Respond(c, err)
	}

	return c.JSON([]review.Summary{*summary})
}
