package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/facultyinsight/backend/internal/api/httperr"
	"github.com/facultyinsight/backend/internal/metrics"
	"github.com/facultyinsight/backend/internal/roster"
	"github.com/facultyinsight/backend/pkg/logger"
)

// TeacherStore is the review store as seen by the roster routes.
type TeacherStore interface {
	GetReviews(ctx context.Context, teacherKey string) ([]string, error)
	AppendReview(ctx context.Context, teacherKey, displayName, text string) error
	AddWaitlistEmail(ctx context.Context, listName, email string) error
}

// SummaryInvalidator drops cached evaluations after the underlying
// evidence changes. Optional; nil disables it.
type SummaryInvalidator interface {
	InvalidateSummaries(ctx context.Context) error
}

type TeacherHandler struct {
	store  TeacherStore
	roster *roster.Roster
	cache  SummaryInvalidator
}

func NewTeacherHandler(store TeacherStore, r *roster.Roster, cache SummaryInvalidator) *TeacherHandler {
	return &TeacherHandler{store: store, roster: r, cache: cache}
}

func (h *TeacherHandler) ListTeachers(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"teachers": h.roster.Names(),
	})
}

func (h *TeacherHandler) GetTeacher(c *fiber.Ctx) error {
	key := c.Params("key")

	name, ok := h.roster.DisplayName(key)
	if !ok {
		return httperr.Respond(c, httperr.Validationf("unknown teacher %q", key))
	}

	reviews, err := h.store.GetReviews(c.Context(), key)
	if err != nil {
		return httperr.Respond(c, err)
	}

	return c.JSON(fiber.Map{
		"teacher":        name,
		"teacher_key":    key,
		"courses_taught": h.roster.Courses(key),
		"reviews":        reviews,
	})
}

// SubmitReview union-appends one review text for a teacher. Repeating an
// identical submission leaves the record unchanged.
func (h *TeacherHandler) SubmitReview(c *fiber.Ctx) error {
	key := c.Params("key")

	name, ok := h.roster.DisplayName(key)
	if !ok {
		return httperr.Respond(c, httperr.Validationf("unknown teacher %q", key))
	}

	var req struct {
		Review string `json:"review"`
	}
	if err := c.BodyParser(&req); err != nil {
		return httperr.Respond(c, httperr.Validationf("malformed request body"))
	}

	text := strings.TrimSpace(req.Review)
	if text == "" {
		return httperr.Respond(c, httperr.Validationf("review text is required"))
	}

	if err := h.store.AppendReview(c.Context(), key, name, text); err != nil {
		return httperr.Respond(c, err)
	}

	if h.cache != nil {
		if err := h.cache.InvalidateSummaries(c.Context()); err != nil {
			logger.Warn("Failed to invalidate summary cache", zap.Error(err))
		}
	}

	metrics.ReviewsSubmitted.Inc()

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Review submitted",
	})
}

// JoinWaitlist union-appends an email into the signup list and accepts an
// optional pending review submitted alongside.
func (h *TeacherHandler) JoinWaitlist(c *fiber.Ctx) error {
	var req struct {
		Email       string `json:"email"`
		StudentType string `json:"student_type"`
		Review      *struct {
			Teacher string `json:"teacher"`
			Review  string `json:"review"`
		} `json:"review"`
	}
	if err := c.BodyParser(&req); err != nil {
		return httperr.Respond(c, httperr.Validationf("malformed request body"))
	}

	email := strings.TrimSpace(req.Email)
	if !validEmail(email) {
		return httperr.Respond(c, httperr.Validationf("a valid email is required"))
	}

	list := "non-iba"
	if req.StudentType == "iba" {
		list = "iba-students"
	}

	if err := h.store.AddWaitlistEmail(c.Context(), list, email); err != nil {
		return httperr.Respond(c, err)
	}

	if req.Review != nil && strings.TrimSpace(req.Review.Review) != "" {
		key := roster.Key(req.Review.Teacher)
		if name, ok := h.roster.DisplayName(key); ok {
			if err := h.store.AppendReview(c.Context(), key, name, strings.TrimSpace(req.Review.Review)); err != nil {
				logger.Warn("Failed to append waitlist review", zap.Error(err))
			} else {
				metrics.ReviewsSubmitted.Inc()
			}
		}
	}

	metrics.WaitlistSignups.WithLabelValues(list).Inc()

	return c.JSON(fiber.Map{
		"message": "Added to waitlist",
		"list":    list,
	})
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.ContainsAny(email, " \t\n")
}
