package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/facultyinsight/backend/internal/api/httperr"
	"github.com/facultyinsight/backend/internal/llm"
)

type fakeCompleter struct {
	content    string
	err        error
	chunks     []string
	streamErr  error
	openErr    error
	lastMsgs   []llm.Message
	completeCt int
}

func (f *fakeCompleter) Complete(ctx context.Context, msgs []llm.Message) (*llm.CompletionResponse, error) {
	f.lastMsgs = msgs
	f.completeCt++
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.content}, nil
}

func (f *fakeCompleter) Stream(ctx context.Context, msgs []llm.Message) (<-chan llm.StreamChunk, error) {
	f.lastMsgs = msgs
	if f.openErr != nil {
		return nil, f.openErr
	}
	out := make(chan llm.StreamChunk)
	go func() {
		defer close(out)
		for _, c := range f.chunks {
			out <- llm.StreamChunk{Content: c}
		}
		if f.streamErr != nil {
			out <- llm.StreamChunk{Err: f.streamErr}
		}
	}()
	return out, nil
}

type fakeStore struct {
	reviews map[string][]string
	err     error
}

func (f *fakeStore) GetReviews(ctx context.Context, teacherKey string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	if r, ok := f.reviews[teacherKey]; ok {
		return r, nil
	}
	return []string{}, nil
}

func validContent(name string, leniency, workload, difficulty, grading, learning, overall int) string {
	return fmt.Sprintf(`{"Review":[{"TeacherName":%q,"leniency":%d,"workload":%d,"difficulty":%d,"grading":%d,"learning":%d,"overall":%d,"summary":"Tough but fair."}]}`,
		name, leniency, workload, difficulty, grading, learning, overall)
}

func TestEvaluate_ParsesStructuredResponse(t *testing.T) {
	completer := &fakeCompleter{content: validContent("Imran Khan", 4, 8, 7, 5, 9, 8)}
	p := NewPipeline(completer, &fakeStore{}, nil, nil, nil)

	summary, err := p.Evaluate(context.Background(), Request{
		Teacher: "Imran Khan",
		Reviews: []string{"Tough grader", "Heavy workload"},
		Courses: []string{"CS101"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.TeacherName != "Imran Khan" {
		t.Errorf("expected TeacherName %q, got %q", "Imran Khan", summary.TeacherName)
	}
	if summary.Learning != 9 || summary.Workload != 8 || summary.Difficulty != 7 {
		t.Errorf("category scores not carried through: %+v", summary)
	}
}

func TestEvaluate_RecomputesOverall(t *testing.T) {
	// Model claims overall 1; the derived value must win:
	// round(mean(9, 8, 7)) == 8.
	completer := &fakeCompleter{content: validContent("Imran Khan", 4, 8, 7, 5, 9, 1)}
	p := NewPipeline(completer, &fakeStore{}, nil, nil, nil)

	summary, err := p.Evaluate(context.Background(), Request{Teacher: "Imran Khan", Reviews: []string{"x"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Overall != 8 {
		t.Errorf("expected overall 8, got %d", summary.Overall)
	}
}

func TestDeriveOverall_ExcludesLeniencyAndGrading(t *testing.T) {
	cases := []struct {
		learning, workload, difficulty int
		want                           int
	}{
		{10, 10, 10, 10},
		{1, 1, 1, 1},
		{9, 8, 7, 8},
		{5, 4, 4, 4},
		{5, 5, 4, 5},
	}
	for _, tc := range cases {
		got := deriveOverall(tc.learning, tc.workload, tc.difficulty)
		if got != tc.want {
			t.Errorf("deriveOverall(%d, %d, %d) = %d, want %d",
				tc.learning, tc.workload, tc.difficulty, got, tc.want)
		}
	}
}

func TestEvaluate_MalformedJSON(t *testing.T) {
	completer := &fakeCompleter{content: "sorry, I cannot do that"}
	p := NewPipeline(completer, &fakeStore{}, nil, nil, nil)

	_, err := p.Evaluate(context.Background(), Request{Teacher: "Imran Khan", Reviews: []string{}})
	if !errors.Is(err, httperr.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestEvaluate_EmptyReviewArray(t *testing.T) {
	completer := &fakeCompleter{content: `{"Review":[]}`}
	p := NewPipeline(completer, &fakeStore{}, nil, nil, nil)

	_, err := p.Evaluate(context.Background(), Request{Teacher: "Imran Khan", Reviews: []string{}})
	if !errors.Is(err, httperr.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestEvaluate_ScoreOutOfRange(t *testing.T) {
	completer := &fakeCompleter{content: validContent("Imran Khan", 4, 8, 11, 5, 9, 8)}
	p := NewPipeline(completer, &fakeStore{}, nil, nil, nil)

	_, err := p.Evaluate(context.Background(), Request{Teacher: "Imran Khan", Reviews: []string{"x"}})
	if !errors.Is(err, httperr.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse for score out of range, got %v", err)
	}
}

func TestEvaluate_UpstreamError(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("connection refused")}
	p := NewPipeline(completer, &fakeStore{}, nil, nil, nil)

	_, err := p.Evaluate(context.Background(), Request{Teacher: "Imran Khan", Reviews: []string{"x"}})
	if !errors.Is(err, httperr.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestEvaluate_EmptyEvidenceStillCompletes(t *testing.T) {
	completer := &fakeCompleter{content: validContent("Hina Javed", 5, 5, 5, 5, 5, 5)}
	p := NewPipeline(completer, &fakeStore{}, nil, nil, nil)

	summary, err := p.Evaluate(context.Background(), Request{Teacher: "Hina Javed", Reviews: []string{}})
	if err != nil {
		t.Fatalf("empty review list must not error: %v", err)
	}
	if summary == nil {
		t.Fatal("expected a summary on empty evidence")
	}
	if completer.completeCt != 1 {
		t.Errorf("expected exactly one completion call, got %d", completer.completeCt)
	}
}

func TestEvaluate_MissingTeacherRejected(t *testing.T) {
	p := NewPipeline(&fakeCompleter{}, &fakeStore{}, nil, nil, nil)

	_, err := p.Evaluate(context.Background(), Request{Reviews: []string{"x"}})
	if !errors.Is(err, httperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEvaluate_NilReviewsLoadedFromStore(t *testing.T) {
	completer := &fakeCompleter{content: validContent("Imran Khan", 4, 8, 7, 5, 9, 8)}
	store := &fakeStore{reviews: map[string][]string{
		"imrankhan": {"Very strict attendance"},
	}}
	p := NewPipeline(completer, store, nil, nil, nil)

	_, err := p.Evaluate(context.Background(), Request{Teacher: "Imran Khan"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var found bool
	for _, m := range completer.lastMsgs {
		if strings.Contains(m.Content, "Very strict attendance") {
			found = true
		}
	}
	if !found {
		t.Error("stored reviews were not spliced into the prompt")
	}
}

func TestEvaluateStream_PreservesOrder(t *testing.T) {
	completer := &fakeCompleter{chunks: []string{"The ", "teacher ", "is ", "strict."}}
	p := NewPipeline(completer, &fakeStore{}, nil, nil, nil)

	out, err := p.EvaluateStream(context.Background(), Request{Teacher: "Imran Khan", Reviews: []string{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var b strings.Builder
	for chunk := range out {
		if chunk.Err != nil {
			t.Fatalf("unexpected stream error: %v", chunk.Err)
		}
		b.WriteString(chunk.Content)
	}

	if b.String() != "The teacher is strict." {
		t.Errorf("chunk concatenation mismatch: %q", b.String())
	}
}

func TestEvaluateStream_DeliversTerminalError(t *testing.T) {
	completer := &fakeCompleter{chunks: []string{"partial "}, streamErr: errors.New("upstream reset")}
	p := NewPipeline(completer, &fakeStore{}, nil, nil, nil)

	out, err := p.EvaluateStream(context.Background(), Request{Teacher: "Imran Khan", Reviews: []string{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var sawErr bool
	var text string
	for chunk := range out {
		if chunk.Err != nil {
			sawErr = true
			continue
		}
		text += chunk.Content
	}

	if !sawErr {
		t.Error("mid-stream failure must surface on the channel, not truncate silently")
	}
	if text != "partial " {
		t.Errorf("chunks before the error must still arrive, got %q", text)
	}
}

func TestEvaluateStreamWithHistory_NoUserTurn(t *testing.T) {
	p := NewPipeline(&fakeCompleter{}, &fakeStore{}, nil, nil, nil)

	history := []llm.Message{{Role: llm.RoleAssistant, Content: "hello"}}
	_, err := p.EvaluateStreamWithHistory(context.Background(), history, "imrankhan")
	if !errors.Is(err, httperr.ErrMissingQuestion) {
		t.Fatalf("expected ErrMissingQuestion, got %v", err)
	}
}

func TestBoundHistory(t *testing.T) {
	history := make([]llm.Message, 10)
	for i := range history {
		history[i] = llm.Message{Role: llm.RoleUser, Content: fmt.Sprintf("m%d", i)}
	}

	bounded := boundHistory(history, 6)
	if len(bounded) != 6 {
		t.Fatalf("expected 6 messages, got %d", len(bounded))
	}
	if bounded[len(bounded)-1].Content != "m9" {
		t.Errorf("bounding must keep the most recent turns, got %q", bounded[len(bounded)-1].Content)
	}
}
