package rag

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/facultyinsight/backend/internal/api/httperr"
	"github.com/facultyinsight/backend/internal/llm"
	"github.com/facultyinsight/backend/internal/vector/milvus"
	"github.com/facultyinsight/backend/pkg/logger"
	"github.com/facultyinsight/backend/pkg/utils"
)

// Embedder computes a single embedding vector for a question.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher queries the passage index.
type Searcher interface {
	Search(ctx context.Context, queryEmbedding []float32, topK int, teacherKey string) ([]milvus.SearchResult, error)
}

// EmbeddingCache is optional; a nil cache disables it.
type EmbeddingCache interface {
	GetEmbedding(ctx context.Context, textHash string) ([]float32, bool, error)
	SetEmbedding(ctx context.Context, textHash string, embedding []float32, ttl time.Duration) error
}

const embeddingTTL = 24 * time.Hour

// Augmentor retrieves review passages relevant to the latest user
// question and produces the context block spliced into the prompt.
type Augmentor struct {
	embedder    Embedder
	searcher    Searcher
	cache       EmbeddingCache
	topK        int
	spliceLimit int
}

func NewAugmentor(embedder Embedder, searcher Searcher, cache EmbeddingCache, topK, spliceLimit int) *Augmentor {
	if topK <= 0 {
		topK = 310
	}
	if spliceLimit <= 0 {
		spliceLimit = 10
	}
	return &Augmentor{
		embedder:    embedder,
		searcher:    searcher,
		cache:       cache,
		topK:        topK,
		spliceLimit: spliceLimit,
	}
}

// Question extracts the latest user turn from history. An absent user
// turn is a precondition violation, never an empty-input query.
func Question(history []llm.Message) (string, error) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == llm.RoleUser && history[i].Content != "" {
			return history[i].Content, nil
		}
	}
	return "", httperr.ErrMissingQuestion
}

// Augment embeds the latest question, queries the index, and returns a
// bounded prefix of the matched passage texts. topK controls recall; only
// spliceLimit passages reach the prompt so its size stays bounded.
func (a *Augmentor) Augment(ctx context.Context, history []llm.Message, teacherKey string) ([]string, error) {
	question, err := Question(history)
	if err != nil {
		return nil, err
	}

	embedding, err := a.questionEmbedding(ctx, question)
	if err != nil {
		return nil, err
	}

	results, err := a.searcher.Search(ctx, embedding, a.topK, teacherKey)
	if err != nil {
		return nil, err
	}

	limit := a.spliceLimit
	if limit > len(results) {
		limit = len(results)
	}

	passages := make([]string, 0, limit)
	for _, r := range results[:limit] {
		passages = append(passages, r.Text)
	}

	logger.Debug("Retrieval completed",
		zap.Int("matches", len(results)),
		zap.Int("spliced", len(passages)),
	)

	return passages, nil
}

func (a *Augmentor) questionEmbedding(ctx context.Context, question string) ([]float32, error) {
	if a.cache == nil {
		return a.embedder.Embed(ctx, question)
	}

	hash := utils.HashStrings(question)
	if cached, ok, err := a.cache.GetEmbedding(ctx, hash); err == nil && ok {
		return cached, nil
	} else if err != nil {
		logger.Warn("Embedding cache read failed", zap.Error(err))
	}

	embedding, err := a.embedder.Embed(ctx, question)
	if err != nil {
		return nil, err
	}

	if err := a.cache.SetEmbedding(ctx, hash, embedding, embeddingTTL); err != nil {
		logger.Warn("Embedding cache write failed", zap.Error(err))
	}

	return embedding, nil
}
