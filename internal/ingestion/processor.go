package ingestion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/jdkato/prose/v2"
	"go.uber.org/zap"

	"github.com/facultyinsight/backend/internal/metrics"
	"github.com/facultyinsight/backend/internal/store/models"
	"github.com/facultyinsight/backend/internal/store/sqlite"
	"github.com/facultyinsight/backend/internal/vector/milvus"
	"github.com/facultyinsight/backend/pkg/logger"
)

// Embedder computes embeddings for passage chunks in order.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

const (
	minPassageChars = 20
	maxPassageChars = 1000
)

// Processor turns raw review material into indexed passages: extract
// text, segment into sentence-bounded chunks, embed, then write to the
// vector index and the passage table.
type Processor struct {
	db       *sqlite.Client
	vectorDB *milvus.Client
	embedder Embedder
}

func NewProcessor(db *sqlite.Client, vectorDB *milvus.Client, embedder Embedder) *Processor {
	return &Processor{
		db:       db,
		vectorDB: vectorDB,
		embedder: embedder,
	}
}

// IngestHTML extracts visible text from an HTML review export and indexes
// it for a teacher.
func (p *Processor) IngestHTML(ctx context.Context, teacherKey, html string) (int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, nav, header, footer").Remove()
	text := strings.TrimSpace(doc.Find("body").Text())
	if text == "" {
		text = strings.TrimSpace(doc.Text())
	}

	return p.IngestText(ctx, teacherKey, text)
}

// IngestText chunks plain text into passages and indexes them.
func (p *Processor) IngestText(ctx context.Context, teacherKey, text string) (int, error) {
	chunks, err := chunkSentences(text)
	if err != nil {
		return 0, fmt.Errorf("failed to segment text: %w", err)
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	embeddings, err := p.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("failed to embed passages: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return 0, fmt.Errorf("embedding count %d does not match chunk count %d", len(embeddings), len(chunks))
	}

	now := time.Now()
	passages := make([]milvus.Passage, len(chunks))
	for i, chunk := range chunks {
		passages[i] = milvus.Passage{
			ID:         uuid.New().String(),
			Embedding:  embeddings[i],
			Text:       chunk,
			TeacherKey: teacherKey,
			CreatedAt:  now,
		}
	}

	if err := p.vectorDB.Insert(ctx, passages); err != nil {
		return 0, fmt.Errorf("failed to index passages: %w", err)
	}

	for _, passage := range passages {
		record := &models.Passage{
			ID:         passage.ID,
			TeacherKey: teacherKey,
			Text:       passage.Text,
			CreatedAt:  now,
		}
		if err := p.db.InsertPassage(ctx, record); err != nil {
			logger.Warn("Failed to record passage", zap.Error(err))
		}
	}

	metrics.PassagesIngested.Add(float64(len(passages)))

	logger.Info("Passages ingested",
		zap.String("teacher_key", teacherKey),
		zap.Int("count", len(passages)),
	)

	return len(passages), nil
}

// chunkSentences groups sentences into passages no longer than
// maxPassageChars, skipping fragments too short to carry signal.
func chunkSentences(text string) ([]string, error) {
	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, err
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		chunk := strings.TrimSpace(current.String())
		if len(chunk) >= minPassageChars {
			chunks = append(chunks, chunk)
		}
		current.Reset()
	}

	for _, sentence := range doc.Sentences() {
		s := strings.TrimSpace(sentence.Text)
		if s == "" {
			continue
		}
		if current.Len()+len(s)+1 > maxPassageChars {
			flush()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(s)
	}
	flush()

	return chunks, nil
}
