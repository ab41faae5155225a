// Package training implements the supervised-correction subsystem: admin
// corrections, proactive rules and patterns, and the offline knowledge
// harvester. Unlike the routing path, failures here propagate: silently
// dropping an explicit admin action would itself be a defect.
package training

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dialogroute/dialogroute/internal/model"
	"github.com/dialogroute/dialogroute/internal/store"
)

// Storage is the slice of the store the trainer needs.
type Storage interface {
	InsertCorrection(ctx context.Context, c model.Correction) (string, error)
	ReinforceOrCreate(ctx context.Context, c store.Candidate) (string, error)
	Supersede(ctx context.Context, originalText, byID string) (int, error)
}

// Trainer ingests admin corrections and rules into the memory store.
type Trainer struct {
	storage Storage
	logger  *zap.Logger
}

// NewTrainer builds a trainer over the given storage.
func NewTrainer(storage Storage, logger *zap.Logger) *Trainer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trainer{storage: storage, logger: logger}
}

// ApplyCorrection persists the correction record and reinforces the corrected
// response as admin-authored knowledge. High and critical priority also
// supersede entries conflicting with the original response. Corrections are
// trusted: the admin gate already restricted who reaches this path, so the
// record lands with status "applied" and no review state.
func (t *Trainer) ApplyCorrection(ctx context.Context, c model.Correction) (string, error) {
	if strings.TrimSpace(c.CorrectedResponse) == "" {
		return "", fmt.Errorf("corrected response is required")
	}
	if c.Priority == "" {
		c.Priority = model.PriorityMedium
	}
	if !model.ValidCorrectionPriorities[c.Priority] {
		return "", fmt.Errorf("invalid correction priority %q", c.Priority)
	}
	c.Status = "applied"

	correctionID, err := t.storage.InsertCorrection(ctx, c)
	if err != nil {
		return "", fmt.Errorf("persist correction: %w", err)
	}

	entryID, err := t.storage.ReinforceOrCreate(ctx, store.Candidate{
		Type:    model.TypeAdminLearning,
		Title:   "Correction by " + c.AdminID,
		Content: c.CorrectedResponse,
		Metadata: map[string]string{
			"trainingType": "correction",
			"correctionId": correctionID,
			"adminId":      c.AdminID,
		},
		Priority: store.PriorityAdmin,
	})
	if err != nil {
		return "", fmt.Errorf("store corrected knowledge: %w", err)
	}

	if c.Priority.Suppresses() && strings.TrimSpace(c.OriginalResponse) != "" {
		n, err := t.storage.Supersede(ctx, c.OriginalResponse, entryID)
		if err != nil {
			return "", fmt.Errorf("supersede conflicting entries: %w", err)
		}
		t.logger.Info("correction applied with suppression",
			zap.String("correction_id", correctionID),
			zap.String("priority", string(c.Priority)),
			zap.Int("superseded", n))
	} else {
		t.logger.Info("correction applied",
			zap.String("correction_id", correctionID),
			zap.String("priority", string(c.Priority)))
	}

	return correctionID, nil
}

// Rule is a proactively taught fact or policy.
type Rule struct {
	Title    string
	Content  string
	Category model.EntryType // defaults to the rule type
	Metadata map[string]string
}

// InsertRule writes a rule directly to the memory store at near-maximum
// priority. No correction record and no suppression: this is proactive
// teaching, distinct from reactive correction.
func (t *Trainer) InsertRule(ctx context.Context, r Rule) (string, error) {
	if strings.TrimSpace(r.Content) == "" {
		return "", fmt.Errorf("rule content is required")
	}
	category := r.Category
	if category == "" {
		category = model.TypeRule
	}

	meta := map[string]string{"trainingType": "rule"}
	for k, v := range r.Metadata {
		meta[k] = v
	}

	id, err := t.storage.ReinforceOrCreate(ctx, store.Candidate{
		Type:     category,
		Title:    r.Title,
		Content:  r.Content,
		Metadata: meta,
		Priority: store.PriorityRule,
	})
	if err != nil {
		return "", fmt.Errorf("insert rule: %w", err)
	}
	t.logger.Info("rule inserted", zap.String("id", id))
	return id, nil
}

// SavePattern stores a reusable conversation pattern at near-maximum
// priority, parallel to InsertRule.
func (t *Trainer) SavePattern(ctx context.Context, title, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("pattern content is required")
	}
	id, err := t.storage.ReinforceOrCreate(ctx, store.Candidate{
		Type:     model.TypeConversationPattern,
		Title:    title,
		Content:  content,
		Metadata: map[string]string{"trainingType": "pattern"},
		Priority: store.PriorityRule,
	})
	if err != nil {
		return "", fmt.Errorf("save pattern: %w", err)
	}
	t.logger.Info("pattern saved", zap.String("id", id))
	return id, nil
}
