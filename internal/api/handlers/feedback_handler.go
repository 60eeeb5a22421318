package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/facultyinsight/backend/internal/api/httperr"
	"github.com/facultyinsight/backend/internal/mail"
	"github.com/facultyinsight/backend/internal/metrics"
	"github.com/facultyinsight/backend/internal/store/models"
	"github.com/facultyinsight/backend/pkg/logger"
)

// FeedbackSender delivers one feedback email.
type FeedbackSender interface {
	Send(f mail.Feedback) error
}

// FeedbackLog records submissions; optional.
type FeedbackLog interface {
	InsertFeedback(ctx context.Context, f *models.Feedback) error
}

type FeedbackHandler struct {
	sender FeedbackSender
	log    FeedbackLog
}

func NewFeedbackHandler(sender FeedbackSender, log FeedbackLog) *FeedbackHandler {
	return &FeedbackHandler{sender: sender, log: log}
}

// HandleFeedback validates the submission before any side effect: a bad
// rating or missing field is rejected with a 4xx and nothing is emailed.
func (h *FeedbackHandler) HandleFeedback(c *fiber.Ctx) error {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Rating   int    `json:"rating"`
		Comments string `json:"comments"`
	}
	if err := c.BodyParser(&req); err != nil {
		return httperr.Respond(c, httperr.Validationf("malformed request body"))
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Comments = strings.TrimSpace(req.Comments)
	req.Email = strings.TrimSpace(req.Email)

	if req.Name == "" {
		return httperr.Respond(c, httperr.Validationf("name is required"))
	}
	if !validEmail(req.Email) {
		return httperr.Respond(c, httperr.Validationf("a valid email is required"))
	}
	if req.Rating < 1 || req.Rating > 5 {
		return httperr.Respond(c, httperr.Validationf("rating must be between 1 and 5"))
	}
	if req.Comments == "" {
		return httperr.Respond(c, httperr.Validationf("comments are required"))
	}

	if h.sender == nil {
		return httperr.Respond(c, httperr.ErrNotConfigured)
	}

	err := h.sender.Send(mail.Feedback{
		Name:     req.Name,
		Email:    req.Email,
		Rating:   req.Rating,
		Comments: req.Comments,
	})
	if err != nil {
		metrics.FeedbackEmails.WithLabelValues("error").Inc()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Error sending feedback.",
		})
	}

	if h.log != nil {
		record := &models.Feedback{
			Name:     req.Name,
			Email:    req.Email,
			Rating:   req.Rating,
			Comments: req.Comments,
		}
		if err := h.log.InsertFeedback(c.Context(), record); err != nil {
			logger.Warn("Failed to log feedback", zap.Error(err))
		}
	}

	metrics.FeedbackEmails.WithLabelValues("ok").Inc()

	return c.JSON(fiber.Map{
		"message": "Feedback sent successfully!",
	})
}
