package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/facultyinsight/backend/internal/api/httperr"
	"github.com/facultyinsight/backend/internal/llm"
	"github.com/facultyinsight/backend/internal/metrics"
	"github.com/facultyinsight/backend/internal/prompt"
	"github.com/facultyinsight/backend/internal/rag"
	"github.com/facultyinsight/backend/internal/roster"
	"github.com/facultyinsight/backend/pkg/logger"
	"github.com/facultyinsight/backend/pkg/utils"
)

// Completer is the completion client the pipeline talks to.
type Completer interface {
	Complete(ctx context.Context, msgs []llm.Message) (*llm.CompletionResponse, error)
	Stream(ctx context.Context, msgs []llm.Message) (<-chan llm.StreamChunk, error)
}

// ReviewStore reads stored review texts; a missing record yields an empty
// slice, never an error.
type ReviewStore interface {
	GetReviews(ctx context.Context, teacherKey string) ([]string, error)
}

// SummaryCache is optional; a nil cache disables it.
type SummaryCache interface {
	GetSummary(ctx context.Context, hash string, summary interface{}) (bool, error)
	SetSummary(ctx context.Context, hash string, summary interface{}, ttl time.Duration) error
}

const summaryTTL = time.Hour

// Pipeline is the review-generation request path: store read, prompt
// build, completion call, parse/relay. Stateless per request; all clients
// are injected at construction.
type Pipeline struct {
	completer Completer
	store     ReviewStore
	roster    *roster.Roster
	cache     SummaryCache
	augmentor *rag.Augmentor
}

func NewPipeline(completer Completer, store ReviewStore, r *roster.Roster, cache SummaryCache, augmentor *rag.Augmentor) *Pipeline {
	return &Pipeline{
		completer: completer,
		store:     store,
		roster:    r,
		cache:     cache,
		augmentor: augmentor,
	}
}

// Evaluate runs the structured variant: one JSON-constrained completion
// parsed into a Summary. A response that is not the expected shape is a
// retryable malformed-response error, surfaced to the caller rather than
// crashing the route.
func (p *Pipeline) Evaluate(ctx context.Context, req Request) (*Summary, error) {
	start := time.Now()

	reviews, courses, err := p.resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	hash := utils.HashStrings(req.Teacher, strings.Join(courses, ","), strings.Join(reviews, "\n"))
	if p.cache != nil {
		var cached Summary
		if ok, err := p.cache.GetSummary(ctx, hash, &cached); err == nil && ok {
			metrics.CacheHits.WithLabelValues("summary").Inc()
			return &cached, nil
		} else if err != nil {
			logger.Warn("Summary cache read failed", zap.Error(err))
		}
		metrics.CacheMisses.WithLabelValues("summary").Inc()
	}

	msgs := prompt.ReviewMessages(req.Teacher, courses, reviews)

	resp, err := p.completer.Complete(ctx, msgs)
	if err != nil {
		metrics.ReviewRequests.WithLabelValues("structured", "upstream_error").Inc()
		return nil, fmt.Errorf("%w: %v", httperr.ErrUpstreamUnavailable, err)
	}

	metrics.LLMTokensUsed.WithLabelValues("prompt").Add(float64(resp.Usage.PromptTokens))
	metrics.LLMTokensUsed.WithLabelValues("completion").Add(float64(resp.Usage.CompletionTokens))

	summary, err := parseSummary(resp.Content)
	if err != nil {
		metrics.ReviewRequests.WithLabelValues("structured", "malformed").Inc()
		logger.Error("Model returned malformed review",
			zap.String("teacher", req.Teacher),
			zap.Error(err),
		)
		return nil, err
	}

	if summary.TeacherName == "" {
		summary.TeacherName = req.Teacher
	}
	summary.Overall = deriveOverall(summary.Learning, summary.Workload, summary.Difficulty)

	if p.cache != nil {
		if err := p.cache.SetSummary(ctx, hash, summary, summaryTTL); err != nil {
			logger.Warn("Summary cache write failed", zap.Error(err))
		}
	}

	metrics.ReviewRequests.WithLabelValues("structured", "ok").Inc()
	metrics.ReviewDuration.WithLabelValues("structured").Observe(time.Since(start).Seconds())

	logger.Info("Review evaluated",
		zap.String("teacher", req.Teacher),
		zap.Int("reviews", len(reviews)),
		zap.Int("overall", summary.Overall),
	)

	return summary, nil
}

// EvaluateStream runs the streaming variant for the simple payload. The
// returned channel is the completion client's: chunks in arrival order,
// closed exactly once, with mid-stream errors delivered on it.
func (p *Pipeline) EvaluateStream(ctx context.Context, req Request) (<-chan llm.StreamChunk, error) {
	reviews, courses, err := p.resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	msgs := prompt.ChatMessages(req.Teacher, courses, reviews)

	out, err := p.completer.Stream(ctx, msgs)
	if err != nil {
		metrics.ReviewRequests.WithLabelValues("streaming", "upstream_error").Inc()
		return nil, fmt.Errorf("%w: %v", httperr.ErrUpstreamUnavailable, err)
	}

	metrics.ReviewRequests.WithLabelValues("streaming", "ok").Inc()
	return out, nil
}

// EvaluateStreamWithHistory runs the retrieval-augmented streaming variant
// on a prior-message array ending in a user turn. Without a configured
// vector index it degrades to plain history.
func (p *Pipeline) EvaluateStreamWithHistory(ctx context.Context, history []llm.Message, teacherKey string) (<-chan llm.StreamChunk, error) {
	history = boundHistory(history, 6)

	var passages []string
	if p.augmentor != nil {
		var err error
		passages, err = p.augmentor.Augment(ctx, history, teacherKey)
		if err != nil {
			if errors.Is(err, httperr.ErrMissingQuestion) {
				return nil, err
			}
			// Retrieval failure degrades the answer, it does not fail the chat.
			logger.Warn("Retrieval failed, continuing without context", zap.Error(err))
		}
	} else if _, err := rag.Question(history); err != nil {
		return nil, err
	}

	msgs := prompt.WithContext(passages, history)

	out, err := p.completer.Stream(ctx, msgs)
	if err != nil {
		metrics.ReviewRequests.WithLabelValues("streaming", "upstream_error").Inc()
		return nil, fmt.Errorf("%w: %v", httperr.ErrUpstreamUnavailable, err)
	}

	metrics.ReviewRequests.WithLabelValues("streaming", "ok").Inc()
	return out, nil
}

// resolve fills reviews and courses from the store and roster when the
// caller did not supply them. An unknown teacher is served with empty
// evidence, not rejected.
func (p *Pipeline) resolve(ctx context.Context, req Request) ([]string, []string, error) {
	if req.Teacher == "" {
		return nil, nil, httperr.Validationf("teacher is required")
	}

	reviews := req.Reviews
	if reviews == nil {
		key := roster.Key(req.Teacher)
		stored, err := p.store.GetReviews(ctx, key)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load reviews: %w", err)
		}
		reviews = stored
	}

	courses := req.Courses
	if courses == nil && p.roster != nil {
		courses = p.roster.Courses(roster.Key(req.Teacher))
	}

	return reviews, courses, nil
}

func parseSummary(content string) (*Summary, error) {
	var env envelope
	if err := json.Unmarshal([]byte(content), &env); err != nil {
		return nil, fmt.Errorf("%w: %v", httperr.ErrMalformedResponse, err)
	}
	if len(env.Review) == 0 {
		return nil, fmt.Errorf("%w: empty Review array", httperr.ErrMalformedResponse)
	}

	summary := env.Review[0]
	for name, score := range map[string]int{
		"leniency":   summary.Leniency,
		"workload":   summary.Workload,
		"difficulty": summary.Difficulty,
		"grading":    summary.Grading,
		"learning":   summary.Learning,
	} {
		if score < 1 || score > 10 {
			return nil, fmt.Errorf("%w: %s score %d out of range", httperr.ErrMalformedResponse, name, score)
		}
	}

	return &summary, nil
}

// deriveOverall recomputes the overall score so the invariant holds even
// when the model miscomputes it: the rounded mean of learning, workload
// and difficulty, excluding leniency and grading.
func deriveOverall(learning, workload, difficulty int) int {
	return int(math.Round(float64(learning+workload+difficulty) / 3.0))
}

func boundHistory(history []llm.Message, n int) []llm.Message {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
