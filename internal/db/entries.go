package db

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/agentpress/agentpress/internal/entry"
	"github.com/agentpress/agentpress/internal/errors"
)

// entryColumns are the columns selected for entry reads. The embedding
// itself is never read back; similarity scores are computed in SQL.
const entryColumns = "id, title, summary, content, agent, project_id, tags, lessons_learned, created_at, updated_at"

// InsertEntry stores a new entry. The embedding may be nil when generation
// failed; the content write still proceeds. Server-assigned fields are
// filled in on return.
func (s *Store) InsertEntry(ctx context.Context, e *entry.Entry) error {
	var vec *pgvector.Vector
	if e.HasEmbedding() {
		v := pgvector.NewVector(e.Embedding)
		vec = &v
	}

	query := `
		INSERT INTO memory_entries (title, summary, content, agent, project_id, tags, lessons_learned, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := s.pool.QueryRow(ctx, query,
		e.Title, e.Summary, e.Content, e.Agent, e.ProjectID, e.Tags, e.LessonsLearned, vec,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return errors.NewInternal(err)
	}

	return nil
}

// GetEntry retrieves an entry by id.
func (s *Store) GetEntry(ctx context.Context, id int64) (*entry.Entry, error) {
	query := "SELECT " + entryColumns + " FROM memory_entries WHERE id = $1"

	e, err := scanEntry(s.pool.QueryRow(ctx, query, id))
	if stderrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.NewNotFound(strconv.FormatInt(id, 10))
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	return e, nil
}

// UpdateEntry persists the mutable fields of an entry. When newVector is
// non-nil it replaces the stored embedding; otherwise the prior embedding is
// retained, even if it no longer matches the content (backfill reconciles).
func (s *Store) UpdateEntry(ctx context.Context, e *entry.Entry, newVector []float32) error {
	var vec *pgvector.Vector
	if len(newVector) > 0 {
		v := pgvector.NewVector(newVector)
		vec = &v
	}

	query := `
		UPDATE memory_entries
		SET title = $1, summary = $2, content = $3, agent = $4, project_id = $5,
			tags = $6, lessons_learned = $7,
			embedding = COALESCE($8, embedding),
			updated_at = NOW()
		WHERE id = $9
		RETURNING updated_at
	`

	err := s.pool.QueryRow(ctx, query,
		e.Title, e.Summary, e.Content, e.Agent, e.ProjectID, e.Tags, e.LessonsLearned, vec, e.ID,
	).Scan(&e.UpdatedAt)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return errors.NewNotFound(strconv.FormatInt(e.ID, 10))
	}
	if err != nil {
		return errors.NewInternal(err)
	}

	return nil
}

// DeleteEntry removes an entry permanently.
func (s *Store) DeleteEntry(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM memory_entries WHERE id = $1", id)
	if err != nil {
		return errors.NewInternal(err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NewNotFound(strconv.FormatInt(id, 10))
	}
	return nil
}

// ListEntries returns a page of entries matching the filter, newest first,
// plus the total count of matching rows.
func (s *Store) ListEntries(ctx context.Context, f entry.ListFilter) ([]entry.Entry, int, error) {
	where := ""
	args := []any{}
	if f.Tag != "" {
		args = append(args, f.Tag)
		where = fmt.Sprintf(" WHERE $%d = ANY(tags)", len(args))
	} else if f.Agent != "" {
		args = append(args, f.Agent)
		where = fmt.Sprintf(" WHERE agent = $%d", len(args))
	}

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM memory_entries"+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(
		"SELECT "+entryColumns+" FROM memory_entries%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		where, len(args)-1, len(args),
	)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	return entries, total, nil
}

// SearchEntriesText performs a case-insensitive substring search over
// title, summary, and lessons_learned.
func (s *Store) SearchEntriesText(ctx context.Context, query string, limit int) ([]entry.Entry, error) {
	pattern := "%" + query + "%"

	sql := "SELECT " + entryColumns + ` FROM memory_entries
		WHERE title ILIKE $1 OR summary ILIKE $1 OR lessons_learned ILIKE $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, sql, pattern, limit)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	return entries, nil
}

// SearchEntriesSimilarity ranks entries by cosine similarity to the query
// vector, restricted to rows with an embedding and the optional filters,
// keeping rows at or above MinSimilarity. The filter predicates are built
// with parameter placeholders; values never end up in the SQL text.
func (s *Store) SearchEntriesSimilarity(ctx context.Context, q entry.SimilarityQuery) ([]entry.SimilarityMatch, error) {
	vec := pgvector.NewVector(q.Vector)

	sql := "SELECT " + entryColumns + `, 1 - (embedding <=> $1) AS similarity_score
		FROM memory_entries
		WHERE embedding IS NOT NULL`
	args := []any{vec}

	if q.Agent != nil {
		args = append(args, *q.Agent)
		sql += fmt.Sprintf(" AND agent = $%d", len(args))
	}
	if q.ProjectID != nil {
		args = append(args, *q.ProjectID)
		sql += fmt.Sprintf(" AND project_id = $%d", len(args))
	}
	if len(q.Tags) > 0 {
		args = append(args, q.Tags)
		sql += fmt.Sprintf(" AND tags && $%d", len(args))
	}

	args = append(args, q.MinSimilarity)
	sql += fmt.Sprintf(" AND 1 - (embedding <=> $1) >= $%d", len(args))

	args = append(args, q.Limit)
	sql += fmt.Sprintf(" ORDER BY similarity_score DESC LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var matches []entry.SimilarityMatch
	for rows.Next() {
		var m entry.SimilarityMatch
		if err := scanEntryFields(rows, &m.Entry, &m.Score); err != nil {
			return nil, errors.NewInternal(err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return matches, nil
}

// EntriesMissingEmbedding returns up to limit entries with no embedding.
func (s *Store) EntriesMissingEmbedding(ctx context.Context, limit int) ([]entry.Entry, error) {
	query := "SELECT " + entryColumns + " FROM memory_entries WHERE embedding IS NULL ORDER BY id LIMIT $1"

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	return entries, nil
}

// CountMissingEmbedding returns how many entries still lack an embedding.
func (s *Store) CountMissingEmbedding(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM memory_entries WHERE embedding IS NULL").Scan(&count)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return count, nil
}

// SetEntryEmbedding stores a freshly computed embedding for an entry.
func (s *Store) SetEntryEmbedding(ctx context.Context, id int64, vector []float32) error {
	vec := pgvector.NewVector(vector)
	tag, err := s.pool.Exec(ctx,
		"UPDATE memory_entries SET embedding = $1, updated_at = NOW() WHERE id = $2", vec, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NewNotFound(strconv.FormatInt(id, 10))
	}
	return nil
}

// rowScanner abstracts pgx.Row and pgx.Rows for the scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanEntry scans a single row into an Entry.
func scanEntry(row rowScanner) (*entry.Entry, error) {
	var e entry.Entry
	if err := scanEntryFields(row, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// scanEntryFields scans the entry columns plus any trailing extras
// (e.g. a similarity score).
func scanEntryFields(row rowScanner, e *entry.Entry, extra ...any) error {
	dest := []any{
		&e.ID, &e.Title, &e.Summary, &e.Content, &e.Agent,
		&e.ProjectID, &e.Tags, &e.LessonsLearned, &e.CreatedAt, &e.UpdatedAt,
	}
	dest = append(dest, extra...)
	return row.Scan(dest...)
}

// scanEntries drains rows into a slice of entries.
func scanEntries(rows pgx.Rows) ([]entry.Entry, error) {
	var entries []entry.Entry
	for rows.Next() {
		var e entry.Entry
		if err := scanEntryFields(rows, &e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
