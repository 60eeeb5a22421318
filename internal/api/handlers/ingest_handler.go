package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/facultyinsight/backend/internal/api/httperr"
	"github.com/facultyinsight/backend/internal/roster"
)

// PassageIngestor indexes raw review material for the retrieval path.
type PassageIngestor interface {
	IngestHTML(ctx context.Context, teacherKey, html string) (int, error)
	IngestText(ctx context.Context, teacherKey, text string) (int, error)
}

type IngestHandler struct {
	processor PassageIngestor
	roster    *roster.Roster
}

func NewIngestHandler(processor PassageIngestor, r *roster.Roster) *IngestHandler {
	return &IngestHandler{processor: processor, roster: r}
}

// IngestPassages indexes raw review material (HTML export or plain text)
// for the retrieval path. Unavailable when no vector index is configured.
func (h *IngestHandler) IngestPassages(c *fiber.Ctx) error {
	if h.processor == nil {
		return httperr.Respond(c, httperr.ErrNotConfigured)
	}

	var req struct {
		Teacher string `json:"teacher"`
		HTML    string `json:"html"`
		Text    string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return httperr.Respond(c, httperr.Validationf("malformed request body"))
	}

	if req.Teacher == "" {
		return httperr.Respond(c, httperr.Validationf("teacher is required"))
	}

	html := strings.TrimSpace(req.HTML)
	text := strings.TrimSpace(req.Text)
	if html == "" && text == "" {
		return httperr.Respond(c, httperr.Validationf("html or text is required"))
	}

	key := roster.Key(req.Teacher)

	var count int
	var err error
	if html != "" {
		count, err = h.processor.IngestHTML(c.Context(), key, html)
	} else {
		count, err = h.processor.IngestText(c.Context(), key, text)
	}
	if err != nil {
		return httperr.Respond(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"teacher_key": key,
		"passages":    count,
	})
}
