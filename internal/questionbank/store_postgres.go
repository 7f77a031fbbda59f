package questionbank

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/p-n-ai/pai-papers/internal/bloom"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed Store implementation. Every call
// acquires a pooled connection for its own duration.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed question bank. The schema
// must already exist.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) SaveDocument(ctx context.Context, doc Document) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	uploadedAt := doc.UploadedAt
	if uploadedAt.IsZero() {
		uploadedAt = time.Now()
	}

	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO documents (filename, document_type, content, uploaded_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		doc.Filename,
		doc.DocumentType,
		doc.Text,
		uploadedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert document: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) GetDocument(ctx context.Context, id int64) (*Document, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var doc Document
	err := s.pool.QueryRow(ctx,
		`SELECT id, filename, document_type, content, uploaded_at
		 FROM documents
		 WHERE id = $1`,
		id,
	).Scan(&doc.ID, &doc.Filename, &doc.DocumentType, &doc.Text, &doc.UploadedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("document %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("query document: %w", err)
	}
	return &doc, nil
}

func (s *PostgresStore) SaveQuestions(ctx context.Context, questions []Question) ([]Question, error) {
	for _, q := range questions {
		if err := validateQuestion(q); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	saved := make([]Question, len(questions))
	for i, q := range questions {
		createdAt := q.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		err := tx.QueryRow(ctx,
			`INSERT INTO questions (document_id, unit, question_text, marks, bloom_level, difficulty, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING id, created_at`,
			nullIfZero(q.DocumentID),
			q.Unit,
			q.Text,
			q.Marks,
			string(q.BloomLevel),
			string(q.Difficulty),
			createdAt,
		).Scan(&q.ID, &q.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("insert question: %w", err)
		}
		saved[i] = q
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit questions: %w", err)
	}
	return saved, nil
}

func (s *PostgresStore) Questions(ctx context.Context, filter Filter) ([]Question, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var (
		where []string
		args  []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if filter.Unit != "" {
		add("unit", filter.Unit)
	}
	if filter.BloomLevel != "" {
		add("bloom_level", string(filter.BloomLevel))
	}
	if filter.Difficulty != "" {
		add("difficulty", string(filter.Difficulty))
	}
	if filter.Marks != 0 {
		add("marks", filter.Marks)
	}

	query := `SELECT id, COALESCE(document_id, 0), unit, question_text, marks, bloom_level, difficulty, created_at
		 FROM questions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id ASC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	out := []Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Question(ctx context.Context, id int64) (*Question, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := s.pool.QueryRow(ctx,
		`SELECT id, COALESCE(document_id, 0), unit, question_text, marks, bloom_level, difficulty, created_at
		 FROM questions
		 WHERE id = $1`,
		id,
	)
	q, err := scanQuestion(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("question %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &q, nil
}

// DeleteDocument removes a document. Its questions go with it through the
// ON DELETE CASCADE foreign key.
func (s *PostgresStore) DeleteDocument(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("document %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) DeleteQuestion(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := s.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("question %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ClearAll(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if _, err := s.pool.Exec(ctx, `TRUNCATE questions, documents RESTART IDENTITY`); err != nil {
		return fmt.Errorf("clear question bank: %w", err)
	}
	return nil
}

func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT unit, bloom_level, difficulty, marks, COUNT(*)
		 FROM questions
		 GROUP BY unit, bloom_level, difficulty, marks`,
	)
	if err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	st := newStats()
	for rows.Next() {
		var (
			q          Question
			level, dif string
			n          int
		)
		if err := rows.Scan(&q.Unit, &level, &dif, &q.Marks, &n); err != nil {
			return Stats{}, fmt.Errorf("scan stats: %w", err)
		}
		q.BloomLevel = bloom.Level(level)
		q.Difficulty = bloom.Difficulty(dif)
		st.add(q, n)
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("iterate stats: %w", err)
	}
	return st, nil
}

func scanQuestion(row pgx.Row) (Question, error) {
	var (
		q          Question
		level, dif string
	)
	if err := row.Scan(&q.ID, &q.DocumentID, &q.Unit, &q.Text, &q.Marks, &level, &dif, &q.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Question{}, err
		}
		return Question{}, fmt.Errorf("scan question: %w", err)
	}
	q.BloomLevel = bloom.Level(level)
	q.Difficulty = bloom.Difficulty(dif)
	return q, nil
}

func nullIfZero(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}
