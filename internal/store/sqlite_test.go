package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dialogroute/dialogroute/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestReinforceOrCreateInsertsWithOptimisticPrior(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.ReinforceOrCreate(ctx, Candidate{
		Type:    model.TypeProductKnowledge,
		Title:   "Refund policy",
		Content: "Refunds are accepted within 30 days of purchase",
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	e, err := s.GetEntry(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, e.UsageCount)
	assert.Equal(t, 80.0, e.SuccessRate)
	assert.Equal(t, PriorityInteraction, e.Priority)
	assert.True(t, e.Active)
	assert.NotEmpty(t, e.ContentHash)
	assert.Contains(t, e.Keywords, "refunds")
}

func TestReinforceOrCreateReinforcesEquivalentContent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first, err := s.ReinforceOrCreate(ctx, Candidate{
		Type:    model.TypeSupportPattern,
		Content: "Restart the device to clear the sensor fault",
	})
	require.NoError(t, err)

	second, err := s.ReinforceOrCreate(ctx, Candidate{
		Type:    model.TypeSupportPattern,
		Content: "Clearing a sensor fault usually needs a device restart",
	})
	require.NoError(t, err)
	assert.Equal(t, first, second, "equivalent content must reinforce, not duplicate")

	e, err := s.GetEntry(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, 2, e.UsageCount)
	assert.Equal(t, 80.0, e.SuccessRate)

	all, err := s.ListEntries(ctx, ListParams{Type: model.TypeSupportPattern})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestReinforceDoesNotChangePriority(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.ReinforceOrCreate(ctx, Candidate{
		Type:     model.TypeRule,
		Content:  "Always quote shipping fees in the customer currency",
		Priority: PriorityRule,
	})
	require.NoError(t, err)

	_, err = s.ReinforceOrCreate(ctx, Candidate{
		Type:     model.TypeRule,
		Content:  "Shipping fees must use the customer currency",
		Priority: 10,
	})
	require.NoError(t, err)

	e, err := s.GetEntry(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, PriorityRule, e.Priority)
}

func TestReinforceMergesMetadataNewKeysWin(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.ReinforceOrCreate(ctx, Candidate{
		Type:     model.TypeProductKnowledge,
		Content:  "The gateway supports zigbee pairing",
		Metadata: map[string]string{"source": "chat", "lang": "en"},
	})
	require.NoError(t, err)

	_, err = s.ReinforceOrCreate(ctx, Candidate{
		Type:     model.TypeProductKnowledge,
		Content:  "Zigbee pairing works on the gateway",
		Metadata: map[string]string{"source": "correction"},
	})
	require.NoError(t, err)

	e, err := s.GetEntry(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "correction", e.Metadata["source"])
	assert.Equal(t, "en", e.Metadata["lang"])
}

func TestReinforceOrCreateSeparateTypesStaySeparate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a, err := s.ReinforceOrCreate(ctx, Candidate{
		Type:    model.TypeProductKnowledge,
		Content: "Battery life is roughly eighteen months",
	})
	require.NoError(t, err)

	b, err := s.ReinforceOrCreate(ctx, Candidate{
		Type:    model.TypeSupportPattern,
		Content: "Battery life complaints: check firmware first",
	})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestReinforceOrCreateRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.ReinforceOrCreate(ctx, Candidate{Type: "bogus", Content: "x"})
	assert.Error(t, err)

	_, err = s.ReinforceOrCreate(ctx, Candidate{Type: model.TypeRule, Content: "   "})
	assert.Error(t, err)
}

func TestQueryMemoryRanksOverlapBeforeSubstring(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// Keyword-overlap match on "warranty".
	overlapID, err := s.ReinforceOrCreate(ctx, Candidate{
		Type:    model.TypeProductKnowledge,
		Content: "Warranty covers manufacturing defects",
	})
	require.NoError(t, err)

	// No keyword overlap with the query, but the title substring-matches
	// the short query token.
	_, err = s.ReinforceOrCreate(ctx, Candidate{
		Type:     model.TypeProductKnowledge,
		Title:    "warrantyfaq",
		Content:  "See document eleven for coverage details",
		Priority: 99,
	})
	require.NoError(t, err)

	results, err := s.QueryMemory(ctx, QueryParams{Query: "warranty question"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, overlapID, results[0].ID,
		"set-overlap matches rank before substring-only matches regardless of priority")
}

func TestQueryMemoryOrdersByPriorityThenSuccessThenUsage(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	low, err := s.ReinforceOrCreate(ctx, Candidate{
		Type: model.TypeSupportPattern, Content: "Pairing issues: reset the hub", Priority: 60,
	})
	require.NoError(t, err)
	high, err := s.ReinforceOrCreate(ctx, Candidate{
		Type: model.TypeAdminLearning, Content: "Pairing failures are fixed by firmware 2.1", Priority: 100,
	})
	require.NoError(t, err)

	results, err := s.QueryMemory(ctx, QueryParams{Query: "pairing"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, high, results[0].ID)
	assert.Equal(t, low, results[1].ID)
}

func TestQueryMemoryCategoryScope(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.ReinforceOrCreate(ctx, Candidate{
		Type: model.TypeProductKnowledge, Content: "Camera resolution is 4k ultra",
	})
	require.NoError(t, err)
	_, err = s.ReinforceOrCreate(ctx, Candidate{
		Type: model.TypeSupportPattern, Content: "Camera offline? power cycle it",
	})
	require.NoError(t, err)

	results, err := s.QueryMemory(ctx, QueryParams{
		Query: "camera", Category: model.TypeSupportPattern,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, model.TypeSupportPattern, results[0].Type)
}

func TestQueryMemoryCapsResults(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for i := 0; i < 15; i++ {
		_, err := s.insertEntry(ctx, Candidate{
			Type:    model.TypeProductKnowledge,
			Content: "firmware notes release " + string(rune('a'+i)) + "edition",
		}, []string{"firmware", "release", "edition" + string(rune('a'+i))})
		require.NoError(t, err)
	}

	results, err := s.QueryMemory(ctx, QueryParams{Query: "firmware release"})
	require.NoError(t, err)
	assert.Len(t, results, DefaultQueryLimit)

	scoped, err := s.QueryMemory(ctx, QueryParams{
		Query: "firmware release", Category: model.TypeProductKnowledge,
	})
	require.NoError(t, err)
	assert.Len(t, scoped, ScopedQueryLimit)
}

func TestQueryMemoryIgnoresInactive(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	old, err := s.ReinforceOrCreate(ctx, Candidate{
		Type: model.TypeSupportPattern, Content: "Downgrade the firmware to fix pairing",
	})
	require.NoError(t, err)
	repl, err := s.ReinforceOrCreate(ctx, Candidate{
		Type: model.TypeAdminLearning, Content: "Never downgrade; update the hub app instead",
	})
	require.NoError(t, err)

	_, err = s.Supersede(ctx, "Downgrade the firmware to fix pairing", repl)
	require.NoError(t, err)

	results, err := s.QueryMemory(ctx, QueryParams{Query: "downgrade firmware pairing"})
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, old, r.ID, "superseded entries must not be retrieved")
	}
}

func TestSupersedeDeactivatesAndLinks(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	old, err := s.ReinforceOrCreate(ctx, Candidate{
		Type: model.TypeConversationPattern, Content: "Tell customers refunds take ninety days",
	})
	require.NoError(t, err)
	repl, err := s.ReinforceOrCreate(ctx, Candidate{
		Type: model.TypeAdminLearning, Content: "Refunds are processed within fourteen days",
	})
	require.NoError(t, err)

	n, err := s.Supersede(ctx, "refunds take ninety days", repl)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	e, err := s.GetEntry(ctx, old)
	require.NoError(t, err)
	assert.False(t, e.Active)
	assert.Equal(t, repl, e.SupersededBy)
}

func TestSupersedeSkipsAdminLearnings(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	prior, err := s.ReinforceOrCreate(ctx, Candidate{
		Type: model.TypeAdminLearning, Content: "Escalate warranty disputes to tier two",
	})
	require.NoError(t, err)
	repl, err := s.ReinforceOrCreate(ctx, Candidate{
		Type: model.TypeAdminLearning, Content: "Warranty disputes go to the legal queue",
	})
	require.NoError(t, err)

	n, err := s.Supersede(ctx, "warranty disputes", repl)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	e, err := s.GetEntry(ctx, prior)
	require.NoError(t, err)
	assert.True(t, e.Active, "admin learnings never self-suppress")
}

func TestSupersedeEmptyOriginalIsNoop(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	n, err := s.Supersede(ctx, "the of and", "some-id")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.ReinforceOrCreate(ctx, Candidate{
		Type: model.TypeProductKnowledge, Content: "Hub supports matter protocol bridging",
	})
	require.NoError(t, err)

	exported, err := s.ExportEntries(ctx)
	require.NoError(t, err)
	require.Len(t, exported, 1)

	dst := newTestStore(t)
	n, err := dst.ImportEntries(ctx, exported)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Re-import into the same store reinforces instead of duplicating.
	n, err = dst.ImportEntries(ctx, exported)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	all, err := dst.ListEntries(ctx, ListParams{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 2, all[0].UsageCount)
}
