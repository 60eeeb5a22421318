package httperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validationf("teacher is required"), fiber.StatusBadRequest},
		{ErrMissingQuestion, fiber.StatusBadRequest},
		{ErrMalformedResponse, fiber.StatusBadGateway},
		{ErrUpstreamUnavailable, fiber.StatusBadGateway},
		{fmt.Errorf("completion failed: %w", ErrUpstreamUnavailable), fiber.StatusBadGateway},
		{ErrNotConfigured, fiber.StatusInternalServerError},
		{errors.New("something unexpected"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Errorf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestPublicMessage_HidesInternals(t *testing.T) {
	err := fmt.Errorf("dial tcp 10.0.0.5:6379: %w", errors.New("connection refused"))
	if got := publicMessage(err); got != "internal server error" {
		t.Errorf("unknown error must map to a generic message, got %q", got)
	}

	wrapped := fmt.Errorf("stream open: %w", ErrUpstreamUnavailable)
	if got := publicMessage(wrapped); got != ErrUpstreamUnavailable.Error() {
		t.Errorf("wrapped sentinel must keep its public message, got %q", got)
	}
}

func TestValidationf(t *testing.T) {
	err := Validationf("rating must be between %d and %d", 1, 5)
	if !errors.Is(err, ErrValidation) {
		t.Fatal("Validationf must wrap ErrValidation")
	}
	if err.Error() != "invalid request: rating must be between 1 and 5" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}
