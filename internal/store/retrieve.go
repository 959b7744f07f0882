// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/edu-engine/pkg/types"
)

// QueryOptions filters lesson retrieval (R2.2).
type QueryOptions struct {
	Query      string // full-text match against title, summary, and body
	Topic      string // exact topic match
	Difficulty string // exact difficulty match
	MaxResults int    // 0 means the store default
}

// Retrieve returns lessons matching the options. Full-text queries are
// ordered by FTS rank; plain listings come back newest first.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]*types.Lesson, error) {
	limit := opts.MaxResults
	if limit <= 0 {
		limit = s.maxResults
	}

	var (
		where []string
		args  []any
	)

	base := `SELECT l.id, l.topic, l.title, l.summary, l.difficulty, l.model,
		l.sections, l.quiz, l.sources, l.created_at FROM lessons l`
	order := `ORDER BY l.created_at DESC`

	if opts.Query != "" {
		base += ` JOIN lessons_fts f ON f.rowid = l.rowid`
		where = append(where, `lessons_fts MATCH ?`)
		args = append(args, ftsQuery(opts.Query))
		order = `ORDER BY f.rank`
	}
	if opts.Topic != "" {
		where = append(where, `l.topic = ?`)
		args = append(args, opts.Topic)
	}
	if opts.Difficulty != "" {
		where = append(where, `l.difficulty = ?`)
		args = append(args, opts.Difficulty)
	}

	query := base
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ` + order + ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying lessons: %w", err)
	}
	defer rows.Close()

	var lessons []*types.Lesson
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning lesson row: %w", err)
		}
		lessons = append(lessons, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lesson rows: %w", err)
	}

	return lessons, nil
}

// Count returns the total number of stored lessons.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM lessons`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting lessons: %w", err)
	}
	return n, nil
}

// ftsQuery quotes each term so user input cannot inject FTS5 operators.
func ftsQuery(q string) string {
	terms := strings.Fields(q)
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		quoted = append(quoted, `"`+strings.ReplaceAll(t, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " ")
}
