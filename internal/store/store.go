// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists generated lessons and builds a retrieval index.
// Implements: prd004-lesson-store (R1-R4);
//
//	docs/ARCHITECTURE § Lesson Store.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/edu-engine/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "edu.db"
)

// createdAtLayout is RFC 3339 with fixed-width nanoseconds. RFC3339Nano
// trims trailing zeros, which breaks lexicographic ORDER BY for lessons
// created within the same second.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned when a lesson ID does not exist.
var ErrNotFound = errors.New("lesson not found")

// Store manages the lesson SQLite database.
type Store struct {
	db         *sql.DB
	dataDir    string
	maxResults int
}

// NewStore opens or creates the lesson database at dataDir/index/edu.db.
// It creates the schema if it does not exist (R1.1, R1.2).
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.DataDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		dataDir:    cfg.DataDir,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS lessons (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			topic TEXT NOT NULL,
			title TEXT NOT NULL,
			summary TEXT,
			body TEXT,
			difficulty TEXT,
			model TEXT,
			sections TEXT NOT NULL,
			quiz TEXT,
			sources TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_lessons_topic ON lessons(topic)`,
		`CREATE INDEX IF NOT EXISTS idx_lessons_difficulty ON lessons(difficulty)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='lessons_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE lessons_fts USING fts5(title, summary, body, content=lessons, content_rowid=rowid)`,
			`CREATE TRIGGER lessons_ai AFTER INSERT ON lessons BEGIN
				INSERT INTO lessons_fts(rowid, title, summary, body) VALUES (new.rowid, new.title, new.summary, new.body);
			END`,
			`CREATE TRIGGER lessons_ad AFTER DELETE ON lessons BEGIN
				INSERT INTO lessons_fts(lessons_fts, rowid, title, summary, body) VALUES('delete', old.rowid, old.title, old.summary, old.body);
			END`,
			`CREATE TRIGGER lessons_au AFTER UPDATE ON lessons BEGIN
				INSERT INTO lessons_fts(lessons_fts, rowid, title, summary, body) VALUES('delete', old.rowid, old.title, old.summary, old.body);
				INSERT INTO lessons_fts(rowid, title, summary, body) VALUES (new.rowid, new.title, new.summary, new.body);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// Save upserts a lesson (R1.3). Sections, quiz, and sources are stored as
// JSON columns; the body column concatenates section text for indexing.
func (s *Store) Save(ctx context.Context, l *types.Lesson) error {
	if l.ID == "" {
		return fmt.Errorf("lesson has no ID")
	}

	sectionsJSON, err := json.Marshal(l.Sections)
	if err != nil {
		return fmt.Errorf("marshaling sections: %w", err)
	}
	quizJSON, _ := json.Marshal(l.Quiz)
	sourcesJSON, _ := json.Marshal(l.Sources)

	createdAt := l.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO lessons (id, topic, title, summary, body, difficulty, model, sections, quiz, sources, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			topic=excluded.topic, title=excluded.title, summary=excluded.summary,
			body=excluded.body, difficulty=excluded.difficulty, model=excluded.model,
			sections=excluded.sections, quiz=excluded.quiz, sources=excluded.sources,
			created_at=excluded.created_at`,
		l.ID, l.Topic, l.Title, l.Summary, sectionBody(l.Sections),
		string(l.Difficulty), l.Model, string(sectionsJSON), string(quizJSON),
		string(sourcesJSON), createdAt.UTC().Format(createdAtLayout),
	)
	if err != nil {
		return fmt.Errorf("upserting lesson %s: %w", l.ID, err)
	}
	return nil
}

// Get returns the lesson with the given ID, or ErrNotFound (R2.1).
func (s *Store) Get(ctx context.Context, id string) (*types.Lesson, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, topic, title, summary, difficulty, model, sections, quiz, sources, created_at
		 FROM lessons WHERE id = ?`, id)

	l, err := scanLesson(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("looking up lesson %s: %w", id, err)
	}
	return l, nil
}

// sectionBody concatenates section headings and bodies for the FTS index.
func sectionBody(sections []types.Section) string {
	var b strings.Builder
	for _, sec := range sections {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(sec.Heading)
		b.WriteByte('\n')
		b.WriteString(sec.Body)
	}
	return b.String()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanLesson(row rowScanner) (*types.Lesson, error) {
	var (
		l            types.Lesson
		difficulty   string
		sectionsJSON string
		quizJSON     sql.NullString
		sourcesJSON  sql.NullString
		createdAt    string
	)

	if err := row.Scan(
		&l.ID, &l.Topic, &l.Title, &l.Summary, &difficulty, &l.Model,
		&sectionsJSON, &quizJSON, &sourcesJSON, &createdAt,
	); err != nil {
		return nil, err
	}

	l.Difficulty = types.Difficulty(difficulty)

	if err := json.Unmarshal([]byte(sectionsJSON), &l.Sections); err != nil {
		return nil, fmt.Errorf("parsing sections: %w", err)
	}
	if quizJSON.Valid {
		if err := json.Unmarshal([]byte(quizJSON.String), &l.Quiz); err != nil {
			return nil, fmt.Errorf("parsing quiz: %w", err)
		}
	}
	if sourcesJSON.Valid {
		if err := json.Unmarshal([]byte(sourcesJSON.String), &l.Sources); err != nil {
			return nil, fmt.Errorf("parsing sources: %w", err)
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		l.CreatedAt = t
	}

	return &l, nil
}
