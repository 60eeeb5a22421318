package milvus

import (
	"context"
	"fmt"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"

	"github.com/facultyinsight/backend/pkg/logger"
)

type Client struct {
	client         client.Client
	collectionName string
	vectorDim      int
}

// Passage is one review excerpt stored in the similarity index.
type Passage struct {
	ID         string
	Embedding  []float32
	Text       string
	TeacherKey string
	CreatedAt  time.Time
}

type SearchResult struct {
	PassageID  string
	Text       string
	TeacherKey string
	Score      float32
}

func NewClient(endpoint, apiKey, collectionName string, vectorDim int) (*Client, error) {
	c, err := client.NewGrpcClient(
		context.Background(),
		endpoint,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client: %w", err)
	}

	logger.Info("Milvus client initialized",
		zap.String("endpoint", endpoint),
		zap.String("collection", collectionName),
	)

	return &Client{
		client:         c,
		collectionName: collectionName,
		vectorDim:      vectorDim,
	}, nil
}

func (m *Client) Close() error {
	return m.client.Close()
}

func (m *Client) CreateCollection(ctx context.Context) error {
	has, err := m.client.HasCollection(ctx, m.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if has {
		logger.Info("Collection already exists", zap.String("collection", m.collectionName))
		return nil
	}

	schema := &entity.Schema{
		CollectionName: m.collectionName,
		Description:    "Student review passage embeddings",
		Fields: []*entity.Field{
			{
				Name:       "passage_id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "embedding",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": fmt.Sprintf("%d", m.vectorDim),
				},
			},
			{
				Name:     "text",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "4096",
				},
			},
			{
				Name:     "teacher_key",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "128",
				},
			},
			{
				Name:     "created_at",
				DataType: entity.FieldTypeInt64,
			},
		},
	}

	if err := m.client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx, err := entity.NewIndexIvfFlat(entity.L2, 1024)
	if err != nil {
		return fmt.Errorf("failed to build index spec: %w", err)
	}
	if err := m.client.CreateIndex(ctx, m.collectionName, "embedding", idx, false); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	if err := m.client.LoadCollection(ctx, m.collectionName, false); err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	logger.Info("Collection created and loaded", zap.String("collection", m.collectionName))

	return nil
}

func (m *Client) Insert(ctx context.Context, passages []Passage) error {
	if len(passages) == 0 {
		return nil
	}

	ids := make([]string, len(passages))
	embeddings := make([][]float32, len(passages))
	texts := make([]string, len(passages))
	teacherKeys := make([]string, len(passages))
	createdAts := make([]int64, len(passages))

	for i, p := range passages {
		ids[i] = p.ID
		embeddings[i] = p.Embedding
		texts[i] = p.Text
		teacherKeys[i] = p.TeacherKey
		createdAts[i] = p.CreatedAt.Unix()
	}

	_, err := m.client.Insert(
		ctx,
		m.collectionName,
		"",
		entity.NewColumnVarChar("passage_id", ids),
		entity.NewColumnFloatVector("embedding", m.vectorDim, embeddings),
		entity.NewColumnVarChar("text", texts),
		entity.NewColumnVarChar("teacher_key", teacherKeys),
		entity.NewColumnInt64("created_at", createdAts),
	)
	if err != nil {
		return fmt.Errorf("failed to insert passages: %w", err)
	}

	if err := m.client.Flush(ctx, m.collectionName, false); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}

	logger.Info("Passages inserted into vector index", zap.Int("count", len(passages)))

	return nil
}

// Search returns the nearest passages for an embedding, optionally
// restricted to one teacher key.
func (m *Client) Search(ctx context.Context, queryEmbedding []float32, topK int, teacherKey string) ([]SearchResult, error) {
	expr := ""
	if teacherKey != "" {
		expr = fmt.Sprintf(`teacher_key == "%s"`, teacherKey)
	}

	sp, _ := entity.NewIndexIvfFlatSearchParam(16)

	searchResult, err := m.client.Search(
		ctx,
		m.collectionName,
		[]string{},
		expr,
		[]string{"passage_id", "text", "teacher_key"},
		[]entity.Vector{entity.FloatVector(queryEmbedding)},
		"embedding",
		entity.L2,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	results := make([]SearchResult, 0)
	for _, sr := range searchResult {
		for i := 0; i < sr.ResultCount; i++ {
			idCol := sr.Fields.GetColumn("passage_id")
			textCol := sr.Fields.GetColumn("text")
			keyCol := sr.Fields.GetColumn("teacher_key")

			id, _ := idCol.Get(i)
			text, _ := textCol.Get(i)
			key, _ := keyCol.Get(i)

			results = append(results, SearchResult{
				PassageID:  id.(string),
				Text:       text.(string),
				TeacherKey: key.(string),
				Score:      sr.Scores[i],
			})
		}
	}

	logger.Info("Vector search completed",
		zap.Int("topK", topK),
		zap.Int("results", len(results)),
		zap.String("filter", expr),
	)

	return results, nil
}
