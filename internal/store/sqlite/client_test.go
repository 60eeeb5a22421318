package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/facultyinsight/backend/internal/store/models"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	client, err := NewClient(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	if err := client.InitSchema(); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}
	return client
}

func TestGetReviews_MissingTeacher(t *testing.T) {
	client := newTestClient(t)

	reviews, err := client.GetReviews(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("missing teacher must not error: %v", err)
	}
	if reviews == nil {
		t.Fatal("expected an empty slice, got nil")
	}
	if len(reviews) != 0 {
		t.Errorf("expected no reviews, got %v", reviews)
	}
}

func TestAppendReview_UnionSemantics(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := client.AppendReview(ctx, "imrankhan", "Imran Khan", "Tough grader"); err != nil {
			t.Fatalf("append %d failed: %v", i, err)
		}
	}
	if err := client.AppendReview(ctx, "imrankhan", "Imran Khan", "Heavy workload"); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	reviews, err := client.GetReviews(ctx, "imrankhan")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(reviews) != 2 {
		t.Fatalf("identical text must be stored once, got %v", reviews)
	}
	if reviews[0] != "Tough grader" || reviews[1] != "Heavy workload" {
		t.Errorf("insertion order not preserved: %v", reviews)
	}
}

func TestAppendReview_IsolatedByTeacher(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	if err := client.AppendReview(ctx, "imrankhan", "Imran Khan", "Strict"); err != nil {
		t.Fatal(err)
	}
	if err := client.AppendReview(ctx, "hinajaved", "Hina Javed", "Strict"); err != nil {
		t.Fatal(err)
	}

	reviews, err := client.GetReviews(ctx, "hinajaved")
	if err != nil {
		t.Fatal(err)
	}
	if len(reviews) != 1 {
		t.Errorf("same text under a different teacher is a distinct record, got %v", reviews)
	}
}

func TestWaitlist_UnionSemantics(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := client.AddWaitlistEmail(ctx, "iba-students", "a@khi.iba.edu.pk"); err != nil {
			t.Fatalf("add %d failed: %v", i, err)
		}
	}
	if err := client.AddWaitlistEmail(ctx, "non-iba", "a@khi.iba.edu.pk"); err != nil {
		t.Fatal(err)
	}

	iba, err := client.ListWaitlistEmails(ctx, "iba-students")
	if err != nil {
		t.Fatal(err)
	}
	if len(iba) != 1 {
		t.Errorf("duplicate signup must collapse, got %v", iba)
	}

	non, err := client.ListWaitlistEmails(ctx, "non-iba")
	if err != nil {
		t.Fatal(err)
	}
	if len(non) != 1 {
		t.Errorf("lists are independent, got %v", non)
	}
}

func TestInsertFeedback(t *testing.T) {
	client := newTestClient(t)

	err := client.InsertFeedback(context.Background(), &models.Feedback{
		Name:     "Ali",
		Email:    "ali@example.com",
		Rating:   4,
		Comments: "Helpful summaries",
	})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
}
