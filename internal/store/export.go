package store

import (
	"context"

	"github.com/dialogroute/dialogroute/internal/model"
)

// ExportEntries returns all entries including inactive ones, oldest first,
// so the supersession chain survives a round trip.
func (s *SQLiteStore) ExportEntries(ctx context.Context) ([]model.MemoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, selectEntry+` ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.MemoryEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ImportEntries stores entries from an export through the reinforce-or-create
// path, so re-importing an export reinforces rather than duplicates. Inactive
// entries are skipped: superseded knowledge stays retired.
func (s *SQLiteStore) ImportEntries(ctx context.Context, entries []model.MemoryEntry) (int, error) {
	imported := 0
	for _, e := range entries {
		if !e.Active {
			continue
		}
		_, err := s.ReinforceOrCreate(ctx, Candidate{
			Type:     e.Type,
			Title:    e.Title,
			Content:  e.Content,
			Metadata: e.Metadata,
			Priority: e.Priority,
		})
		if err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}
