package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const itemColumns = "id, title, source, parts, duration_seconds, status, canonical_title, artifact_path, error_message, run_id, created_at, updated_at"

// NewEpisode inserts a freshly discovered episode for the given run.
func (s *Store) NewEpisode(ctx context.Context, title, source string, parts, durationSeconds int, runID string) (*Item, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO episodes (
            title, source, parts, duration_seconds, status,
            run_id, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		title,
		source,
		parts,
		durationSeconds,
		StatusDiscovered,
		nullableString(runID),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert episode: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a ledger item by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM episodes WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get episode: %w", err)
	}
	return item, nil
}

// LatestByTitle returns the most recent item recorded for a title.
func (s *Store) LatestByTitle(ctx context.Context, title string) (*Item, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+itemColumns+` FROM episodes WHERE title = ? ORDER BY id DESC LIMIT 1`,
		title,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by title: %w", err)
	}
	return item, nil
}

// Update persists changes to an existing ledger item.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE episodes
         SET title = ?, source = ?, parts = ?, duration_seconds = ?, status = ?,
             canonical_title = ?, artifact_path = ?, error_message = ?, run_id = ?,
             updated_at = ?
         WHERE id = ?`,
		item.Title,
		item.Source,
		item.Parts,
		item.DurationSeconds,
		item.Status,
		nullableString(item.CanonicalTitle),
		nullableString(item.ArtifactPath),
		nullableString(item.ErrorMessage),
		nullableString(item.RunID),
		item.UpdatedAt.Format(time.RFC3339Nano),
		item.ID,
	); err != nil {
		return fmt.Errorf("update episode: %w", err)
	}
	return nil
}

// List returns ledger items filtered by status set (or all items when no status is provided).
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + itemColumns + ` FROM episodes`
	orderClause := ` ORDER BY created_at`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ListByRun returns all items recorded under a run identifier.
func (s *Store) ListByRun(ctx context.Context, runID string) ([]*Item, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+itemColumns+` FROM episodes WHERE run_id = ? ORDER BY created_at`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list run episodes: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// SummaryForRun aggregates disposition counts for a run.
func (s *Store) SummaryForRun(ctx context.Context, runID string) (Summary, error) {
	items, err := s.ListByRun(ctx, runID)
	if err != nil {
		return Summary{}, err
	}
	return summarize(items), nil
}

// SummaryAll aggregates disposition counts across the entire ledger.
func (s *Store) SummaryAll(ctx context.Context) (Summary, error) {
	items, err := s.List(ctx)
	if err != nil {
		return Summary{}, err
	}
	return summarize(items), nil
}

func summarize(items []*Item) Summary {
	var summary Summary
	summary.Total = len(items)
	for _, item := range items {
		switch item.Status {
		case StatusArchived:
			summary.Archived++
		case StatusDuplicate:
			summary.Duplicate++
		case StatusAlreadyArchived:
			summary.AlreadyArchived++
		case StatusKnownDuplicate:
			summary.KnownDuplicate++
		case StatusFailed:
			summary.Failed++
		default:
			summary.InFlight++
		}
	}
	return summary
}

// Clear removes all episode rows while leaving the duplicate registry intact.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM episodes`)
	if err != nil {
		return 0, fmt.Errorf("clear episodes: %w", err)
	}
	return res.RowsAffected()
}

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id             int64
		title          string
		source         string
		parts          int
		duration       int
		statusStr      string
		canonicalTitle sql.NullString
		artifactPath   sql.NullString
		errorMessage   sql.NullString
		runID          sql.NullString
		createdRaw     sql.NullString
		updatedRaw     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&title,
		&source,
		&parts,
		&duration,
		&statusStr,
		&canonicalTitle,
		&artifactPath,
		&errorMessage,
		&runID,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:              id,
		Title:           title,
		Source:          source,
		Parts:           parts,
		DurationSeconds: duration,
		Status:          Status(statusStr),
		CanonicalTitle:  canonicalTitle.String,
		ArtifactPath:    artifactPath.String,
		ErrorMessage:    errorMessage.String,
		RunID:           runID.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
