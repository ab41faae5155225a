package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/dialogroute/dialogroute/internal/keywords"
	"github.com/dialogroute/dialogroute/internal/model"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	logger  *zap.Logger
	entropy *rand.Rand
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		logger:  logger,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		id            TEXT PRIMARY KEY,
		type          TEXT NOT NULL,
		title         TEXT NOT NULL DEFAULT '',
		content       TEXT NOT NULL,
		keywords      TEXT,
		metadata      TEXT,
		usage_count   INTEGER NOT NULL DEFAULT 0,
		success_rate  REAL NOT NULL DEFAULT 0,
		priority      INTEGER NOT NULL DEFAULT 70,
		active        INTEGER NOT NULL DEFAULT 1,
		superseded_by TEXT,
		content_hash  TEXT NOT NULL,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_entries_type ON entries(type, active);
	CREATE INDEX IF NOT EXISTS idx_entries_priority ON entries(priority DESC);
	-- One active entry per canonical content hash and type. Closes the
	-- read-then-write race between concurrent first sightings: the loser's
	-- insert fails and falls back to reinforcement.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_active_hash
		ON entries(type, content_hash) WHERE active = 1;

	CREATE TABLE IF NOT EXISTS corrections (
		id                 TEXT PRIMARY KEY,
		conversation_ref   TEXT,
		original_response  TEXT NOT NULL,
		corrected_response TEXT NOT NULL,
		admin_id           TEXT NOT NULL,
		reason             TEXT,
		priority           TEXT NOT NULL,
		status             TEXT NOT NULL,
		applied_at         TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS conversations (
		id         TEXT PRIMARY KEY,
		message    TEXT NOT NULL,
		response   TEXT,
		intent     TEXT NOT NULL,
		confidence REAL NOT NULL,
		role       TEXT,
		module     TEXT,
		feedback   TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_conversations_created ON conversations(created_at DESC);

	CREATE TABLE IF NOT EXISTS snapshots (
		id              TEXT PRIMARY KEY,
		level           TEXT NOT NULL,
		score           INTEGER NOT NULL,
		factors         TEXT NOT NULL,
		strengths       TEXT NOT NULL,
		weaknesses      TEXT,
		recommendations TEXT NOT NULL,
		stats           TEXT NOT NULL,
		analyzed_by     TEXT,
		created_at      TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// QueryMemory retrieves active entries relevant to the query. Entries whose
// keyword sets intersect the query keywords rank before substring-only
// matches; within each group order is priority, success rate, then usage.
func (s *SQLiteStore) QueryMemory(ctx context.Context, p QueryParams) ([]model.MemoryEntry, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
		if p.Category != "" {
			limit = ScopedQueryLimit
		}
	}

	queryKws := keywords.Extract(p.Query)

	candidates, err := s.activeEntries(ctx, p.Category)
	if err != nil {
		return nil, err
	}

	type scored struct {
		entry   model.MemoryEntry
		overlap int
	}
	var matches []scored
	for _, e := range candidates {
		ov := keywords.Overlap(e.Keywords, queryKws)
		if ov == 0 &&
			!keywords.MatchesText(e.Title, queryKws) &&
			!keywords.MatchesText(e.Content, queryKws) {
			continue
		}
		matches = append(matches, scored{entry: e, overlap: ov})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if (a.overlap > 0) != (b.overlap > 0) {
			return a.overlap > 0
		}
		if a.entry.Priority != b.entry.Priority {
			return a.entry.Priority > b.entry.Priority
		}
		if a.entry.SuccessRate != b.entry.SuccessRate {
			return a.entry.SuccessRate > b.entry.SuccessRate
		}
		return a.entry.UsageCount > b.entry.UsageCount
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]model.MemoryEntry, len(matches))
	for i, m := range matches {
		out[i] = m.entry
	}
	return out, nil
}

// ReinforceOrCreate reinforces an equivalent active entry of the same type,
// or inserts a new one. Equivalence is keyword-set overlap or a substring
// match between the candidate content and the entry's title/content.
func (s *SQLiteStore) ReinforceOrCreate(ctx context.Context, c Candidate) (string, error) {
	if !model.ValidEntryTypes[c.Type] {
		return "", fmt.Errorf("invalid entry type %q", c.Type)
	}
	if strings.TrimSpace(c.Content) == "" {
		return "", fmt.Errorf("candidate content is required")
	}

	kws := keywords.Extract(c.Content)

	existing, err := s.activeEntries(ctx, c.Type)
	if err != nil {
		return "", err
	}
	for _, e := range existing {
		if keywords.Overlap(e.Keywords, kws) > 0 ||
			keywords.MatchesText(e.Title, kws) ||
			keywords.MatchesText(e.Content, kws) {
			if err := s.reinforce(ctx, &e, c.Metadata); err != nil {
				return "", err
			}
			return e.ID, nil
		}
	}

	id, err := s.insertEntry(ctx, c, kws)
	if err == nil {
		return id, nil
	}

	// Unique-index conflict means a concurrent first sighting won the
	// insert; reinforce the winner instead.
	if strings.Contains(err.Error(), "UNIQUE") {
		winner, werr := s.entryByHash(ctx, c.Type, keywords.Hash(kws))
		if werr == nil {
			s.logger.Debug("reinforce-or-create lost insert race, reinforcing winner",
				zap.String("id", winner.ID))
			if rerr := s.reinforce(ctx, winner, c.Metadata); rerr != nil {
				return "", rerr
			}
			return winner.ID, nil
		}
	}
	return "", err
}

// reinforce applies the fixed-weight update in place: usage_count increments,
// success rate moves toward the optimistic prior of 80, metadata shallow-merges
// with new keys winning. Priority is never changed by reinforcement.
func (s *SQLiteStore) reinforce(ctx context.Context, e *model.MemoryEntry, meta map[string]string) error {
	rate := 80.0
	if e.SuccessRate != 0 {
		rate = (e.SuccessRate + 80) / 2
	}
	rate = clampRate(rate)

	merged := map[string]string{}
	for k, v := range e.Metadata {
		merged[k] = v
	}
	for k, v := range meta {
		merged[k] = v
	}
	metaJSON, _ := json.Marshal(merged)

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`UPDATE entries SET usage_count = usage_count + 1, success_rate = ?, metadata = ?, updated_at = ?
		 WHERE id = ?`, rate, string(metaJSON), now, e.ID)
	if err != nil {
		return fmt.Errorf("reinforce entry %s: %w", e.ID, err)
	}
	return nil
}

func (s *SQLiteStore) insertEntry(ctx context.Context, c Candidate, kws []string) (string, error) {
	id := s.newID()
	now := time.Now().UTC().Format(time.RFC3339)

	priority := c.Priority
	if priority <= 0 {
		priority = PriorityInteraction
	}
	if priority > 100 {
		priority = 100
	}

	kwsJSON, _ := json.Marshal(kws)
	var metaJSON *string
	if len(c.Metadata) > 0 {
		b, _ := json.Marshal(c.Metadata)
		v := string(b)
		metaJSON = &v
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (id, type, title, content, keywords, metadata, usage_count, success_rate,
		                      priority, active, content_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, 1, 80, ?, 1, ?, ?, ?)`,
		id, string(c.Type), c.Title, c.Content, string(kwsJSON), metaJSON,
		priority, keywords.Hash(kws), now, now)
	if err != nil {
		return "", fmt.Errorf("insert entry: %w", err)
	}
	return id, nil
}

// Supersede deactivates active entries whose content overlaps originalText
// and links them to byID. Admin-authored learnings are excluded so a
// correction never suppresses other corrections. The match is heuristic;
// callers treat it as best-effort cleanup.
func (s *SQLiteStore) Supersede(ctx context.Context, originalText, byID string) (int, error) {
	kws := keywords.Extract(originalText)
	if len(kws) == 0 {
		return 0, nil
	}

	candidates, err := s.activeEntries(ctx, "")
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	n := 0
	for _, e := range candidates {
		if e.Type == model.TypeAdminLearning || e.ID == byID {
			continue
		}
		if keywords.Overlap(e.Keywords, kws) == 0 &&
			!keywords.MatchesText(e.Content, kws) {
			continue
		}
		_, err := s.db.ExecContext(ctx,
			`UPDATE entries SET active = 0, superseded_by = ?, updated_at = ? WHERE id = ? AND active = 1`,
			byID, now, e.ID)
		if err != nil {
			return n, fmt.Errorf("supersede entry %s: %w", e.ID, err)
		}
		n++
	}

	if n > 0 {
		s.logger.Info("superseded conflicting entries",
			zap.Int("count", n), zap.String("superseded_by", byID))
	}
	return n, nil
}

// GetEntry fetches a single entry by id.
func (s *SQLiteStore) GetEntry(ctx context.Context, id string) (*model.MemoryEntry, error) {
	row := s.db.QueryRowContext(ctx, selectEntry+` WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("entry not found: %s", id)
		}
		return nil, err
	}
	return &e, nil
}

// ListEntries lists entries matching the given filters, newest first.
func (s *SQLiteStore) ListEntries(ctx context.Context, p ListParams) ([]model.MemoryEntry, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 50
	}

	where := []string{"1=1"}
	args := []interface{}{}
	if !p.IncludeClosed {
		where = append(where, "active = 1")
	}
	if p.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(p.Type))
	}

	query := selectEntry + ` WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
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

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// activeEntries loads all active entries, optionally filtered by type.
func (s *SQLiteStore) activeEntries(ctx context.Context, t model.EntryType) ([]model.MemoryEntry, error) {
	query := selectEntry + ` WHERE active = 1`
	args := []interface{}{}
	if t != "" {
		query += ` AND type = ?`
		args = append(args, string(t))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
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

func (s *SQLiteStore) entryByHash(ctx context.Context, t model.EntryType, hash string) (*model.MemoryEntry, error) {
	row := s.db.QueryRowContext(ctx,
		selectEntry+` WHERE type = ? AND content_hash = ? AND active = 1`, string(t), hash)
	e, err := scanEntry(row)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

const selectEntry = `SELECT id, type, title, content, keywords, metadata, usage_count,
	success_rate, priority, active, superseded_by, content_hash, created_at, updated_at
	FROM entries`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row scanner) (model.MemoryEntry, error) {
	var e model.MemoryEntry
	var typ string
	var kwsJSON, metaJSON, supersededBy sql.NullString
	var active int
	var createdAt, updatedAt string

	err := row.Scan(
		&e.ID, &typ, &e.Title, &e.Content, &kwsJSON, &metaJSON,
		&e.UsageCount, &e.SuccessRate, &e.Priority, &active,
		&supersededBy, &e.ContentHash, &createdAt, &updatedAt,
	)
	if err != nil {
		return e, err
	}

	e.Type = model.EntryType(typ)
	e.Active = active == 1
	if supersededBy.Valid {
		e.SupersededBy = supersededBy.String
	}
	if kwsJSON.Valid {
		json.Unmarshal([]byte(kwsJSON.String), &e.Keywords)
	}
	if metaJSON.Valid {
		json.Unmarshal([]byte(metaJSON.String), &e.Metadata)
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return e, nil
}

func clampRate(r float64) float64 {
	if r < 0 {
		return 0
	}
	if r > 100 {
		return 100
	}
	return r
}
