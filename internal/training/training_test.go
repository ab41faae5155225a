package training

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dialogroute/dialogroute/internal/model"
	"github.com/dialogroute/dialogroute/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestApplyCorrectionCriticalSupersedes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	trainer := NewTrainer(s, zap.NewNop())

	// Pre-existing wrong knowledge.
	wrongID, err := s.ReinforceOrCreate(ctx, store.Candidate{
		Type:    model.TypeSupportPattern,
		Content: "Resetting the router fixes billing disputes",
	})
	require.NoError(t, err)

	corrID, err := trainer.ApplyCorrection(ctx, model.Correction{
		OriginalResponse:  "Resetting the router fixes billing disputes",
		CorrectedResponse: "Billing disputes go to the accounts team, never to troubleshooting",
		AdminID:           "ops-1",
		Priority:          model.PriorityCritical,
	})
	require.NoError(t, err)
	require.NotEmpty(t, corrID)

	wrong, err := s.GetEntry(ctx, wrongID)
	require.NoError(t, err)
	assert.False(t, wrong.Active)
	require.NotEmpty(t, wrong.SupersededBy)

	replacement, err := s.GetEntry(ctx, wrong.SupersededBy)
	require.NoError(t, err)
	assert.Equal(t, model.TypeAdminLearning, replacement.Type)
	assert.Equal(t, store.PriorityAdmin, replacement.Priority)
	assert.Equal(t, "correction", replacement.Metadata["trainingType"])
}

func TestApplyCorrectionLowOnlyReinforces(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	trainer := NewTrainer(s, zap.NewNop())

	existingID, err := s.ReinforceOrCreate(ctx, store.Candidate{
		Type:    model.TypeSupportPattern,
		Content: "Resetting the router fixes connectivity drops",
	})
	require.NoError(t, err)

	_, err = trainer.ApplyCorrection(ctx, model.Correction{
		OriginalResponse:  "Resetting the router fixes connectivity drops",
		CorrectedResponse: "Suggest a firmware update before a router reset",
		AdminID:           "ops-1",
		Priority:          model.PriorityLow,
	})
	require.NoError(t, err)

	existing, err := s.GetEntry(ctx, existingID)
	require.NoError(t, err)
	assert.True(t, existing.Active, "low-priority corrections never deactivate")
	assert.Empty(t, existing.SupersededBy)
}

func TestApplyCorrectionPersistsAppliedRecord(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	trainer := NewTrainer(s, zap.NewNop())

	id, err := trainer.ApplyCorrection(ctx, model.Correction{
		CorrectedResponse: "Warranty claims need a proof of purchase",
		AdminID:           "ops-2",
		Priority:          model.PriorityHigh,
		Reason:            "missing policy detail",
	})
	require.NoError(t, err)

	records, err := s.ListCorrections(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, id, records[0].ID)
	assert.Equal(t, "applied", records[0].Status, "corrections have no pending state")
	assert.Equal(t, "ops-2", records[0].AdminID)
}

func TestApplyCorrectionValidation(t *testing.T) {
	ctx := context.Background()
	trainer := NewTrainer(newTestStore(t), zap.NewNop())

	_, err := trainer.ApplyCorrection(ctx, model.Correction{
		CorrectedResponse: " ",
		Priority:          model.PriorityHigh,
	})
	assert.Error(t, err)

	_, err = trainer.ApplyCorrection(ctx, model.Correction{
		CorrectedResponse: "something",
		Priority:          "urgent",
	})
	assert.Error(t, err)
}

func TestApplyCorrectionDefaultsToMedium(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	trainer := NewTrainer(s, zap.NewNop())

	_, err := trainer.ApplyCorrection(ctx, model.Correction{
		CorrectedResponse: "Orders ship within two business days",
		AdminID:           "ops-1",
	})
	require.NoError(t, err)

	records, err := s.ListCorrections(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.PriorityMedium, records[0].Priority)
}

func TestInsertRuleWritesAtRulePriority(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	trainer := NewTrainer(s, zap.NewNop())

	id, err := trainer.InsertRule(ctx, Rule{
		Title:   "Currency",
		Content: "Always quote prices in the customer's local currency",
	})
	require.NoError(t, err)

	e, err := s.GetEntry(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.TypeRule, e.Type)
	assert.Equal(t, store.PriorityRule, e.Priority)
	assert.Equal(t, "rule", e.Metadata["trainingType"])
}

func TestSavePattern(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	trainer := NewTrainer(s, zap.NewNop())

	id, err := trainer.SavePattern(ctx, "greeting", "Welcome the customer by name before troubleshooting")
	require.NoError(t, err)

	e, err := s.GetEntry(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.TypeConversationPattern, e.Type)
	assert.Equal(t, "pattern", e.Metadata["trainingType"])
}

type fakeGenerator struct {
	text string
	err  error
}

func (f fakeGenerator) Generate(_ context.Context, _ string) (string, error) {
	return f.text, f.err
}

func TestHarvestStoresGeneratedCandidates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	h := NewHarvester(fakeGenerator{text: "- The hub bridges zigbee and matter devices\n" +
		"* Firmware updates install overnight automatically\n" +
		"ok\n"}, s, zap.NewNop())

	n, err := h.Harvest(ctx, []string{"smart hub"})
	require.NoError(t, err)
	assert.Equal(t, 2, n, "short lines are dropped")

	entries, err := s.ListEntries(ctx, store.ListParams{Type: model.TypeGenerated})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "smart hub", entries[0].Title)
	assert.Equal(t, "harvest", entries[0].Metadata["trainingType"])
}
