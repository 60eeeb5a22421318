package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/facultyinsight/backend/internal/store/models"
	"github.com/facultyinsight/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS teachers (
		teacher_key TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS reviews (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		teacher_key TEXT NOT NULL,
		review_text TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		UNIQUE(teacher_key, review_text)
	);
	CREATE INDEX IF NOT EXISTS idx_reviews_teacher ON reviews(teacher_key);

	CREATE TABLE IF NOT EXISTS waitlist (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		list_name TEXT NOT NULL,
		email TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		UNIQUE(list_name, email)
	);
	CREATE INDEX IF NOT EXISTS idx_waitlist_list ON waitlist(list_name);

	CREATE TABLE IF NOT EXISTS passages (
		id TEXT PRIMARY KEY,
		teacher_key TEXT NOT NULL,
		text TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_passages_teacher ON passages(teacher_key);

	CREATE TABLE IF NOT EXISTS feedback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		rating INTEGER NOT NULL,
		comments TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_feedback_created ON feedback(created_at);
	`

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

// GetReviews returns the stored review texts for a teacher key. A missing
// record is not an error: the result is an empty slice.
func (c *Client) GetReviews(ctx context.Context, teacherKey string) ([]string, error) {
	query := `SELECT review_text FROM reviews WHERE teacher_key = ? ORDER BY id`

	rows, err := c.db.QueryContext(ctx, query, teacherKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}
	defer rows.Close()

	reviews := []string{}
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("failed to scan review row: %w", err)
		}
		reviews = append(reviews, text)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate review rows: %w", err)
	}

	return reviews, nil
}

// AppendReview creates the teacher record if absent and unions the text
// into it. Re-submitting identical text is a no-op: the UNIQUE constraint
// plus INSERT OR IGNORE gives the set-union property.
func (c *Client) AppendReview(ctx context.Context, teacherKey, displayName, text string) error {
	now := time.Now().Unix()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO teachers (teacher_key, display_name, created_at) VALUES (?, ?, ?)`,
		teacherKey, displayName, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert teacher: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO reviews (teacher_key, review_text, created_at) VALUES (?, ?, ?)`,
		teacherKey, text, now,
	)
	if err != nil {
		return fmt.Errorf("failed to append review: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit review: %w", err)
	}

	logger.Debug("Review appended", zap.String("teacher_key", teacherKey))
	return nil
}

// AddWaitlistEmail union-appends an email into the named waitlist.
func (c *Client) AddWaitlistEmail(ctx context.Context, listName, email string) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO waitlist (list_name, email, created_at) VALUES (?, ?, ?)`,
		listName, email, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to add waitlist email: %w", err)
	}

	logger.Debug("Waitlist email added", zap.String("list", listName))
	return nil
}

func (c *Client) ListWaitlistEmails(ctx context.Context, listName string) ([]string, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT email FROM waitlist WHERE list_name = ? ORDER BY id`, listName)
	if err != nil {
		return nil, fmt.Errorf("failed to list waitlist emails: %w", err)
	}
	defer rows.Close()

	emails := []string{}
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("failed to scan waitlist row: %w", err)
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate waitlist rows: %w", err)
	}

	return emails, nil
}

func (c *Client) InsertPassage(ctx context.Context, p *models.Passage) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO passages (id, teacher_key, text, created_at) VALUES (?, ?, ?, ?)`,
		p.ID, p.TeacherKey, p.Text, p.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert passage: %w", err)
	}
	return nil
}

func (c *Client) InsertFeedback(ctx context.Context, f *models.Feedback) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO feedback (name, email, rating, comments, created_at) VALUES (?, ?, ?, ?, ?)`,
		f.Name, f.Email, f.Rating, f.Comments, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}

	logger.Info("Feedback logged",
		zap.String("name", f.Name),
		zap.Int("rating", f.Rating),
	)
	return nil
}
