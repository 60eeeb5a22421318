package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/facultyinsight/backend/pkg/circuitbreaker"
	"github.com/facultyinsight/backend/pkg/logger"
	"github.com/facultyinsight/backend/pkg/retry"
)

// ErrNotConfigured is returned when the API credential is absent.
var ErrNotConfigured = errors.New("llm: missing API key")

const (
	RoleSystem    = openai.ChatMessageRoleSystem
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
)

// Message is one turn in a chat request. Ordering is meaningful: the
// system message comes first, then context in submission order.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StreamChunk is one fragment of a streamed completion. A non-nil Err is
// the terminal signal for an upstream failure; the channel is closed
// exactly once after the final chunk either way.
type StreamChunk struct {
	Content string
	Err     error
}

type CompletionResponse struct {
	Content string
	Usage   Usage
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type Client struct {
	client         *openai.Client
	model          string
	embeddingModel string
	temperature    float32
	maxTokens      int
	timeout        time.Duration
	cb             *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

func NewClient(apiKey, model, embeddingModel string, temperature float32, maxTokens, timeoutSec int) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}

	cb := circuitbreaker.New("llm", circuitbreaker.Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      30 * time.Second,
		Logger:           logger.GetLogger(),
	})

	retryConfig := retry.Config{
		MaxAttempts:    3,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Logger:         logger.GetLogger(),
	}

	if timeoutSec <= 0 {
		timeoutSec = 60
	}

	logger.Info("LLM client initialized",
		zap.String("model", model),
		zap.String("embedding_model", embeddingModel),
	)

	return &Client{
		client:         openai.NewClient(apiKey),
		model:          model,
		embeddingModel: embeddingModel,
		temperature:    temperature,
		maxTokens:      maxTokens,
		timeout:        time.Duration(timeoutSec) * time.Second,
		cb:             cb,
		retryConfig:    retryConfig,
	}, nil
}

func toOpenAI(msgs []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(msgs))
	for i, m := range msgs {
		out[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return out
}

// Complete requests a JSON-constrained completion and returns the raw
// model output. Callers parse and validate the JSON themselves.
func (c *Client) Complete(ctx context.Context, msgs []Message) (*CompletionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var result *CompletionResponse

	err := c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			resp, err := c.client.CreateChatCompletion(
				ctx,
				openai.ChatCompletionRequest{
					Model:       c.model,
					Messages:    toOpenAI(msgs),
					Temperature: c.temperature,
					MaxTokens:   c.maxTokens,
					ResponseFormat: &openai.ChatCompletionResponseFormat{
						Type: openai.ChatCompletionResponseFormatTypeJSONObject,
					},
				},
			)
			if err != nil {
				return fmt.Errorf("failed to create completion: %w", err)
			}
			if len(resp.Choices) == 0 {
				return fmt.Errorf("completion returned no choices")
			}

			logger.Debug("Completion generated",
				zap.Int("prompt_tokens", resp.Usage.PromptTokens),
				zap.Int("completion_tokens", resp.Usage.CompletionTokens),
			)

			result = &CompletionResponse{
				Content: resp.Choices[0].Message.Content,
				Usage: Usage{
					PromptTokens:     resp.Usage.PromptTokens,
					CompletionTokens: resp.Usage.CompletionTokens,
					TotalTokens:      resp.Usage.TotalTokens,
				},
			}
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return result, nil
}

// Stream opens a token stream and forwards text fragments in arrival
// order on the returned channel. Opening errors are returned directly;
// mid-stream errors arrive as the final chunk. The channel is closed
// exactly once, and cancelling ctx releases the upstream subscription.
func (c *Client) Stream(ctx context.Context, msgs []Message) (<-chan StreamChunk, error) {
	var stream *openai.ChatCompletionStream

	err := c.cb.Execute(ctx, func() error {
		var err error
		stream, err = c.client.CreateChatCompletionStream(
			ctx,
			openai.ChatCompletionRequest{
				Model:       c.model,
				Messages:    toOpenAI(msgs),
				Temperature: c.temperature,
				MaxTokens:   c.maxTokens,
				Stream:      true,
			},
		)
		if err != nil {
			return fmt.Errorf("failed to open completion stream: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make(chan StreamChunk)

	go func() {
		defer close(out)
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				select {
				case out <- StreamChunk{Err: fmt.Errorf("stream read failed: %w", err)}:
				case <-ctx.Done():
				}
				return
			}

			if len(resp.Choices) == 0 {
				continue
			}
			content := resp.Choices[0].Delta.Content
			if content == "" {
				continue
			}

			select {
			case out <- StreamChunk{Content: content}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// Embed computes a single embedding vector for text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	var embedding []float32

	err := c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			resp, err := c.client.CreateEmbeddings(
				ctx,
				openai.EmbeddingRequest{
					Input: []string{text},
					Model: openai.EmbeddingModel(c.embeddingModel),
				},
			)
			if err != nil {
				return fmt.Errorf("failed to generate embedding: %w", err)
			}
			if len(resp.Data) == 0 {
				return fmt.Errorf("embedding response was empty")
			}

			embedding = make([]float32, len(resp.Data[0].Embedding))
			copy(embedding, resp.Data[0].Embedding)
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return embedding, nil
}

// EmbedBatch computes embeddings for texts in submission order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	embeddings := make([][]float32, 0, len(texts))

	batchSize := 100
	for i := 0; i < len(texts); i += batchSize {
		end := i + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[i:end]

		err := c.cb.Execute(ctx, func() error {
			return retry.Do(ctx, c.retryConfig, func() error {
				resp, err := c.client.CreateEmbeddings(
					ctx,
					openai.EmbeddingRequest{
						Input: batch,
						Model: openai.EmbeddingModel(c.embeddingModel),
					},
				)
				if err != nil {
					return fmt.Errorf("failed to generate batch embeddings: %w", err)
				}

				for _, data := range resp.Data {
					embedding := make([]float32, len(data.Embedding))
					copy(embedding, data.Embedding)
					embeddings = append(embeddings, embedding)
				}
				return nil
			})
		})
		if err != nil {
			return nil, err
		}
	}

	logger.Debug("Batch embeddings generated", zap.Int("count", len(embeddings)))

	return embeddings, nil
}
