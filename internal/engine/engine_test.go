package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dialogroute/dialogroute/internal/model"
	"github.com/dialogroute/dialogroute/internal/store"
)

type fakeStorage struct {
	mu            sync.Mutex
	queries       int
	conversations []model.Conversation
	memory        []model.MemoryEntry
	queryErr      error
	insertErr     error
}

func (f *fakeStorage) QueryMemory(_ context.Context, _ store.QueryParams) ([]model.MemoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.memory, nil
}

func (f *fakeStorage) InsertConversation(_ context.Context, c model.Conversation) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return "", f.insertErr
	}
	f.conversations = append(f.conversations, c)
	return "conv-1", nil
}

func (f *fakeStorage) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries
}

func (f *fakeStorage) audited() []model.Conversation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Conversation(nil), f.conversations...)
}

func newTestEngine(storage Storage) *Engine {
	return New(Options{Storage: storage})
}

func TestRouteForbiddenForNonAdmin(t *testing.T) {
	fake := &fakeStorage{}
	e := newTestEngine(fake)

	res := e.Route(context.Background(), "teach me a new correction rule", model.Context{Role: "user"})
	e.Drain()

	assert.Equal(t, model.IntentForbidden, res.Intent)
	assert.Equal(t, 1.0, res.Confidence)
	assert.True(t, res.Metadata.WasRedirected)
	assert.Equal(t, 0, fake.queryCount(), "admin gate must short-circuit before any store read")
}

func TestRouteAdminPassesGate(t *testing.T) {
	fake := &fakeStorage{}
	e := newTestEngine(fake)

	res := e.Route(context.Background(), "teach me a new correction rule", model.Context{Role: "admin"})
	e.Drain()

	assert.Equal(t, model.IntentTraining, res.Intent)
	assert.Equal(t, 1, fake.queryCount())
}

func TestRouteBlendsConfidenceWithCeiling(t *testing.T) {
	fake := &fakeStorage{}
	reg := DefaultRegistry()
	reg.Register(model.IntentPricing, HandlerFunc(func(_ context.Context, _ Request) (Response, error) {
		return Response{Response: "quoted", Confidence: 0.9, Module: "pricing"}, nil
	}))
	e := New(Options{Storage: fake, Registry: reg})

	// Five pricing hits saturate the classifier at 1.0; blended with 0.9
	// that is 0.95, exactly the ceiling.
	res := e.Route(context.Background(), "price pricing cost discount fee", model.Context{})
	e.Drain()

	assert.Equal(t, model.IntentPricing, res.Intent)
	assert.InDelta(t, 0.95, res.Confidence, 1e-9)
}

func TestRouteDefaultsHandlerConfidence(t *testing.T) {
	fake := &fakeStorage{}
	reg := DefaultRegistry()
	reg.Register(model.IntentPricing, HandlerFunc(func(_ context.Context, _ Request) (Response, error) {
		return Response{Response: "quoted", Module: "pricing"}, nil // no confidence stated
	}))
	e := New(Options{Storage: fake, Registry: reg})

	res := e.Route(context.Background(), "price pricing cost discount fee", model.Context{})
	e.Drain()

	// (1.0 + 0.7) / 2
	assert.InDelta(t, 0.85, res.Confidence, 1e-9)
}

func TestRouteDegradesOnStorageOutage(t *testing.T) {
	fake := &fakeStorage{queryErr: errors.New("store unreachable")}
	e := newTestEngine(fake)

	res := e.Route(context.Background(), "how much does shipping cost?", model.Context{})
	e.Drain()

	assert.NotEqual(t, model.IntentError, res.Intent,
		"a memory outage degrades to empty results, it is not a routing failure")
	assert.NotEmpty(t, res.Response)
	assert.Equal(t, 0, res.Metadata.MemoryResultsCount)
}

func TestRouteUsesRankedMemory(t *testing.T) {
	fake := &fakeStorage{memory: []model.MemoryEntry{
		{ID: "m1", Content: "Standard shipping takes three to five days"},
		{ID: "m2", Content: "Express shipping is next day"},
	}}
	e := newTestEngine(fake)

	res := e.Route(context.Background(), "shipping delivery tracking order refund", model.Context{})
	e.Drain()

	assert.Equal(t, "Standard shipping takes three to five days", res.Response)
	assert.Equal(t, []string{"m1"}, res.Metadata.KnowledgeUsed)
	assert.Equal(t, 2, res.Metadata.MemoryResultsCount)
}

func TestRouteHandlerErrorBecomesErrorResult(t *testing.T) {
	fake := &fakeStorage{}
	reg := DefaultRegistry()
	reg.Register(model.IntentSupport, HandlerFunc(func(_ context.Context, _ Request) (Response, error) {
		return Response{}, errors.New("generator offline")
	}))
	e := New(Options{Storage: fake, Registry: reg})

	res := e.Route(context.Background(), "help my device is broken", model.Context{})
	e.Drain()

	assert.Equal(t, model.IntentError, res.Intent)
	assert.Equal(t, 0.0, res.Confidence)
	assert.Contains(t, res.Metadata.Error, "generator offline")
}

func TestRouteHandlerPanicIsAbsorbed(t *testing.T) {
	fake := &fakeStorage{}
	reg := DefaultRegistry()
	reg.Register(model.IntentSupport, HandlerFunc(func(_ context.Context, _ Request) (Response, error) {
		panic("boom")
	}))
	e := New(Options{Storage: fake, Registry: reg})

	res := e.Route(context.Background(), "help my device is broken", model.Context{})
	e.Drain()

	assert.Equal(t, model.IntentError, res.Intent)
	assert.Equal(t, 0.0, res.Confidence)
}

func TestRouteWritesAuditRecord(t *testing.T) {
	fake := &fakeStorage{}
	e := newTestEngine(fake)

	res := e.Route(context.Background(), "how much does shipping cost?", model.Context{Role: "customer"})
	e.Drain()

	audited := fake.audited()
	require.Len(t, audited, 1)
	assert.Equal(t, "how much does shipping cost?", audited[0].Message)
	assert.Equal(t, res.Intent, audited[0].Intent)
	assert.Equal(t, "customer", audited[0].Role)
}

func TestRouteAuditFailureNeverSurfaces(t *testing.T) {
	fake := &fakeStorage{insertErr: errors.New("disk full")}
	e := newTestEngine(fake)

	res := e.Route(context.Background(), "hello there", model.Context{})
	e.Drain()

	assert.NotEqual(t, model.IntentError, res.Intent)
	assert.NotEmpty(t, res.Response)
}

func TestRouteOfftopicRedirect(t *testing.T) {
	fake := &fakeStorage{}
	e := newTestEngine(fake)

	res := e.Route(context.Background(), "who wins the election", model.Context{})
	e.Drain()

	assert.Equal(t, model.IntentOfftopic, res.Intent)
	assert.True(t, res.Metadata.WasRedirected)
}

func TestBuildPromptIsPure(t *testing.T) {
	p := Persona{Name: "Robin", Company: "Acme", Tone: "warm"}
	ctx := model.Context{Role: "customer", History: []string{"hi", "hello!"}}

	first := BuildPrompt(p, ctx)
	assert.Equal(t, first, BuildPrompt(p, ctx))
	assert.Contains(t, first, "Robin")
	assert.Contains(t, first, "Acme")
	assert.Contains(t, first, "customer")
	assert.Contains(t, first, "- hi")
}

func TestBuildPromptTruncatesHistory(t *testing.T) {
	history := []string{"one", "two", "three", "four", "five", "six", "seven"}
	prompt := BuildPrompt(Persona{Name: "Robin"}, model.Context{History: history})

	assert.NotContains(t, prompt, "- one")
	assert.Contains(t, prompt, "- seven")
}
