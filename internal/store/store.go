// Package store provides the knowledge storage interface and SQLite implementation.
package store

import (
	"context"

	"github.com/dialogroute/dialogroute/internal/model"
)

// Default result caps for memory queries.
const (
	DefaultQueryLimit = 10 // unscoped queries
	ScopedQueryLimit  = 5  // category-scoped queries
)

// Priority defaults by knowledge source.
const (
	PriorityAdmin       = 100 // admin-authored corrections
	PriorityRule        = 95  // proactive rules and patterns
	PriorityInteraction = 70  // user-interaction-derived knowledge
)

// QueryParams holds parameters for ranked memory retrieval.
type QueryParams struct {
	Query    string
	Category model.EntryType // optional; narrows type and tightens the cap
	Limit    int             // 0 means the default cap
}

// Candidate holds a prospective memory entry for reinforce-or-create.
type Candidate struct {
	Type     model.EntryType
	Title    string
	Content  string
	Metadata map[string]string
	Priority int // 0 means PriorityInteraction
}

// ListParams holds parameters for listing entries.
type ListParams struct {
	Type          model.EntryType
	IncludeClosed bool // include superseded (inactive) entries
	Limit         int
}

// Store defines the persistence surface consumed by the orchestrator,
// training subsystem and maturity engine.
type Store interface {
	// QueryMemory returns active entries relevant to query, ranked by
	// overlap, priority, success rate and usage.
	QueryMemory(ctx context.Context, p QueryParams) ([]model.MemoryEntry, error)

	// ReinforceOrCreate reinforces an equivalent active entry in place, or
	// inserts a new one. Returns the entry id.
	ReinforceOrCreate(ctx context.Context, c Candidate) (string, error)

	// Supersede deactivates active entries overlapping originalText and
	// links them to byID. Best-effort heuristic; returns the count.
	Supersede(ctx context.Context, originalText, byID string) (int, error)

	// GetEntry fetches a single entry by id.
	GetEntry(ctx context.Context, id string) (*model.MemoryEntry, error)

	// ListEntries lists entries matching the given filters.
	ListEntries(ctx context.Context, p ListParams) ([]model.MemoryEntry, error)

	// InsertCorrection appends a correction audit record.
	InsertCorrection(ctx context.Context, c model.Correction) (string, error)

	// InsertConversation appends a conversation audit record.
	InsertConversation(ctx context.Context, c model.Conversation) (string, error)

	// RecordFeedback attaches positive/negative feedback to a conversation.
	RecordFeedback(ctx context.Context, conversationID, feedback string) error

	// InsertSnapshot persists an immutable maturity snapshot.
	InsertSnapshot(ctx context.Context, s model.MaturitySnapshot) (string, error)

	// ListSnapshots returns the most recent snapshots, newest first.
	ListSnapshots(ctx context.Context, limit int) ([]model.MaturitySnapshot, error)

	// Stats aggregates the statistics consumed by the maturity engine.
	Stats(ctx context.Context) (*model.Stats, error)

	// Close closes the store.
	Close() error
}
