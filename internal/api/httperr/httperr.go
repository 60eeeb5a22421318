// Package httperr is the single error-to-response mapping layer shared by
// every route. Handlers and pipeline code return wrapped sentinel errors;
// the mapping to status codes lives here and nowhere else.
package httperr

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/facultyinsight/backend/pkg/logger"
)

var (
	// ErrUpstreamUnavailable covers outright LLM or embedding call failures
	// (network, auth, rate limit). Callers may re-submit; no automatic retry
	// beyond the client's own policy.
	ErrUpstreamUnavailable = errors.New("upstream model service unavailable")

	// ErrMalformedResponse means structured-mode output was not the expected
	// JSON shape. Surfaced as a user-visible retryable error.
	ErrMalformedResponse = errors.New("error retrieving the review")

	// ErrValidation marks a rejected request body; always wrapped with the
	// field-level reason.
	ErrValidation = errors.New("invalid request")

	// ErrNotConfigured means a required credential or backing service for
	// this route is absent.
	ErrNotConfigured = errors.New("service not configured")

	// ErrMissingQuestion is the retrieval precondition violation: no user
	// turn to embed.
	ErrMissingQuestion = errors.New("conversation contains no user question")
)

// Validationf wraps ErrValidation with a reason.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Respond converts any pipeline error into a JSON error response. The
// mapping is deterministic; unknown errors become a generic 500.
func Respond(c *fiber.Ctx, err error) error {
	status := statusFor(err)

	if status >= fiber.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	} else {
		logger.Warn("Request rejected",
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}

	return c.Status(status).JSON(fiber.Map{
		"error": publicMessage(err),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrMissingQuestion):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrMalformedResponse):
		return fiber.StatusBadGateway
	case errors.Is(err, ErrUpstreamUnavailable):
		return fiber.StatusBadGateway
	case errors.Is(err, ErrNotConfigured):
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusInternalServerError
	}
}

// publicMessage keeps internal causes out of the response body; the full
// chain is logged instead.
func publicMessage(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return err.Error()
	case errors.Is(err, ErrMissingQuestion):
		return ErrMissingQuestion.Error()
	case errors.Is(err, ErrMalformedResponse):
		return ErrMalformedResponse.Error()
	case errors.Is(err, ErrUpstreamUnavailable):
		return ErrUpstreamUnavailable.Error()
	case errors.Is(err, ErrNotConfigured):
		return ErrNotConfigured.Error()
	default:
		return "internal server error"
	}
}
