package store

import (
	"context"
	"os"
	"time"

	"github.com/dialogroute/dialogroute/internal/model"
)

// Stats aggregates the statistics consumed by the maturity engine.
// Confidence is averaged over the trailing 30 days and reported on a 0-100
// scale as the success proxy.
func (s *SQLiteStore) Stats(ctx context.Context) (*model.Stats, error) {
	st := &model.Stats{EntriesByType: map[string]int{}}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&st.TotalEntries)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries WHERE active = 1`).Scan(&st.ActiveEntries)

	rows, err := s.db.QueryContext(ctx,
		`SELECT type, COUNT(*) FROM entries WHERE active = 1 GROUP BY type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		st.EntriesByType[t] = n
	}
	st.CategoryCount = len(st.EntriesByType)

	since := time.Now().UTC().AddDate(0, 0, -30).Format(time.RFC3339)
	var avg *float64
	s.db.QueryRowContext(ctx,
		`SELECT AVG(confidence) FROM conversations WHERE created_at > ?`, since).Scan(&avg)
	if avg != nil {
		st.AvgConfidence = *avg * 100
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversations`).Scan(&st.Conversations)
	s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversations WHERE feedback = 'positive'`).Scan(&st.PositiveFeedback)
	s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversations WHERE feedback = 'negative'`).Scan(&st.NegativeFeedback)

	// Supervised-training depth: corrections plus proactively taught rules.
	var corrections, rules int
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM corrections`).Scan(&corrections)
	s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM entries WHERE type = ?`, string(model.TypeRule)).Scan(&rules)
	st.TrainingCount = corrections + rules

	return st, nil
}

// Info describes the database file behind the store.
type Info struct {
	DBPath      string `json:"db_path"`
	DBSizeBytes int64  `json:"db_size_bytes"`
}

// Info returns database file details for diagnostics output.
func (s *SQLiteStore) Info(dbPath string) Info {
	info := Info{DBPath: dbPath}
	if fi, err := os.Stat(dbPath); err == nil {
		info.DBSizeBytes = fi.Size()
	}
	return info
}
