package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/prepdesk/exam-platform/internal/question"
)

type questionStore interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QuestionRepository contains DB helpers for the curated question pool.
type QuestionRepository struct {
	store questionStore
}

// NewQuestionRepository constructs a repository over a pgx pool or tx.
func NewQuestionRepository(store questionStore) *QuestionRepository {
	return &QuestionRepository{store: store}
}

const fetchBatchSQL = `
SELECT COALESCE(NULLIF(source_id, ''), id::text),
       prompt, options, answer, explanation, exam_type, exam_year,
       image_url, section, passage
FROM questions
WHERE subject = $1 AND ($3 = '' OR exam_year = $3)
ORDER BY id
LIMIT $2`

// FetchBatch reads up to count raw records for a subject, optionally pinned
// to an exam year. The rows come back in insertion order so repeated reads
// of an unchanged pool are stable.
func (r *QuestionRepository) FetchBatch(ctx context.Context, subject string, count int, year string) ([]question.RawRecord, error) {
	rows, err := r.store.Query(ctx, fetchBatchSQL, subject, count, year)
	if err != nil {
		return nil, fmt.Errorf("fetch question batch: %w", err)
	}
	defer rows.Close()

	var records []question.RawRecord
	for rows.Next() {
		var (
			rec      question.RawRecord
			id       string
			options  []byte
			examYear string
		)
		if err := rows.Scan(&id, &rec.Question, &options, &rec.Answer, &rec.Solution,
			&rec.Examtype, &examYear, &rec.Image, &rec.Section, &rec.Passage); err != nil {
			return nil, fmt.Errorf("scan question row: %w", err)
		}
		rec.ID = id
		rec.Examyear = examYear
		if len(options) > 0 {
			if err := json.Unmarshal(options, &rec.Option); err != nil {
				return nil, fmt.Errorf("decode options for %s: %w", id, err)
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

const insertSQL = `
INSERT INTO questions (source_id, subject, prompt, options, answer, explanation,
                       exam_type, exam_year, image_url, section, passage, generated)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (source_id) DO NOTHING`

// Insert stores a downloaded question in the curated pool; offline download
// runs promote their third-party records through here. Duplicate source ids
// are ignored.
func (r *QuestionRepository) Insert(ctx context.Context, q question.Question) error {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	_, err = r.store.Exec(ctx, insertSQL,
		q.ID, q.Subject, q.Prompt, options, q.AnswerKey, q.Explanation,
		q.ExamType, q.ExamYear, q.ImageURL, q.Section, q.Passage, q.Generated)
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

// CountBySubject reports the curated pool size for a subject, surfaced by the
// offline status endpoint alongside the stored variants.
func (r *QuestionRepository) CountBySubject(ctx context.Context, subject string) (int, error) {
	var n int
	err := r.store.QueryRow(ctx, `SELECT count(*) FROM questions WHERE subject = $1`, subject).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return n, nil
}
