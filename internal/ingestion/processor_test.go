package ingestion

import (
	"strings"
	"testing"
)

func TestChunkSentences_ShortFragmentSkipped(t *testing.T) {
	chunks, err := chunkSentences("Ok.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("fragments under the minimum must be dropped, got %v", chunks)
	}
}

func TestChunkSentences_SingleChunk(t *testing.T) {
	text := "The teacher explains concepts very clearly. Homework load is manageable for most students."

	chunks, err := chunkSentences(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected one chunk, got %d: %v", len(chunks), chunks)
	}
	if !strings.Contains(chunks[0], "explains concepts") {
		t.Errorf("chunk lost content: %q", chunks[0])
	}
}

func TestChunkSentences_RespectsMaxLength(t *testing.T) {
	sentence := "This sentence describes the grading policy of the course in considerable detail for students. "
	text := strings.Repeat(sentence, 40)

	chunks, err := chunkSentences(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("long text must split into multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > maxPassageChars {
			t.Errorf("chunk %d exceeds the limit: %d chars", i, len(c))
		}
	}
}

func TestChunkSentences_EmptyInput(t *testing.T) {
	chunks, err := chunkSentences("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected no chunks, got %v", chunks)
	}
}
