package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// RegisterDuplicate records an alias to canonical-title mapping. Re-registering
// an existing alias overwrites the canonical title, so repeated runs converge
// on the latest vote outcome.
func (s *Store) RegisterDuplicate(ctx context.Context, aliasTitle, canonicalTitle string) error {
	if aliasTitle == "" {
		return errors.New("alias title is empty")
	}
	if canonicalTitle == "" {
		return errors.New("canonical title is empty")
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO duplicates (alias_title, canonical_title, updated_at)
         VALUES (?, ?, ?)
         ON CONFLICT(alias_title) DO UPDATE SET
             canonical_title = excluded.canonical_title,
             updated_at = excluded.updated_at`,
		aliasTitle,
		canonicalTitle,
		timestamp,
	); err != nil {
		return fmt.Errorf("register duplicate: %w", err)
	}
	return nil
}

// LookupDuplicate returns the canonical title for an alias, or ok=false when
// the alias has never been registered.
func (s *Store) LookupDuplicate(ctx context.Context, aliasTitle string) (string, bool, error) {
	var canonical string
	err := s.db.QueryRowContext(
		ctx,
		`SELECT canonical_title FROM duplicates WHERE alias_title = ?`,
		aliasTitle,
	).Scan(&canonical)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup duplicate: %w", err)
	}
	return canonical, true, nil
}

// Duplicates returns the full registry ordered by alias.
func (s *Store) Duplicates(ctx context.Context) ([]DuplicateEntry, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT alias_title, canonical_title, updated_at FROM duplicates ORDER BY alias_title`,
	)
	if err != nil {
		return nil, fmt.Errorf("list duplicates: %w", err)
	}
	defer rows.Close()

	var entries []DuplicateEntry
	for rows.Next() {
		var (
			entry      DuplicateEntry
			updatedRaw string
		)
		if err := rows.Scan(&entry.AliasTitle, &entry.CanonicalTitle, &updatedRaw); err != nil {
			return nil, fmt.Errorf("scan duplicate: %w", err)
		}
		if updated, err := parseTimeString(updatedRaw); err == nil {
			entry.UpdatedAt = updated
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
