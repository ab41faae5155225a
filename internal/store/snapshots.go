package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dialogroute/dialogroute/internal/model"
)

// InsertSnapshot persists a maturity snapshot. Snapshots are insert-only;
// there is no update path, which keeps the history immutable.
func (s *SQLiteStore) InsertSnapshot(ctx context.Context, snap model.MaturitySnapshot) (string, error) {
	id := snap.ID
	if id == "" {
		id = s.newID()
	}
	createdAt := snap.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	factors, _ := json.Marshal(snap.Factors)
	strengths, _ := json.Marshal(snap.Strengths)
	weaknesses, _ := json.Marshal(snap.Weaknesses)
	recs, _ := json.Marshal(snap.Recommendations)
	stats, _ := json.Marshal(snap.Stats)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, level, score, factors, strengths, weaknesses,
		                        recommendations, stats, analyzed_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, string(snap.Level), snap.Score, string(factors), string(strengths),
		string(weaknesses), string(recs), string(stats), snap.AnalyzedBy,
		createdAt.Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("insert snapshot: %w", err)
	}
	return id, nil
}

// ListSnapshots returns the most recent snapshots, newest first.
func (s *SQLiteStore) ListSnapshots(ctx context.Context, limit int) ([]model.MaturitySnapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, level, score, factors, strengths, weaknesses, recommendations,
		        stats, analyzed_by, created_at
		 FROM snapshots ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MaturitySnapshot
	for rows.Next() {
		var snap model.MaturitySnapshot
		var level, createdAt string
		var factors, strengths, recs string
		var weaknesses, analyzedBy sql.NullString
		if err := rows.Scan(&snap.ID, &level, &snap.Score, &factors, &strengths,
			&weaknesses, &recs, &statsScanner{&snap.Stats}, &analyzedBy, &createdAt); err != nil {
			return nil, err
		}
		snap.Level = model.MaturityLevel(level)
		json.Unmarshal([]byte(factors), &snap.Factors)
		json.Unmarshal([]byte(strengths), &snap.Strengths)
		if weaknesses.Valid {
			json.Unmarshal([]byte(weaknesses.String), &snap.Weaknesses)
		}
		json.Unmarshal([]byte(recs), &snap.Recommendations)
		snap.AnalyzedBy = analyzedBy.String
		snap.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, snap)
	}
	return out, rows.Err()
}

// statsScanner unmarshals the stats JSON column during row scans.
type statsScanner struct {
	dst *model.Stats
}

func (s *statsScanner) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		return json.Unmarshal([]byte(v), s.dst)
	case []byte:
		return json.Unmarshal(v, s.dst)
	case nil:
		return nil
	}
	return fmt.Errorf("unsupported stats column type %T", src)
}
