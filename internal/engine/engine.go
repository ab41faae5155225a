// Package engine implements the dialogue orchestrator: classify, gate,
// retrieve, dispatch, blend confidence and audit, in that order, with every
// failure absorbed into a well-formed result.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dialogroute/dialogroute/internal/classifier"
	"github.com/dialogroute/dialogroute/internal/model"
	"github.com/dialogroute/dialogroute/internal/store"
)

const (
	// defaultHandlerConfidence applies when a handler omits its confidence.
	defaultHandlerConfidence = 0.7
	// confidenceCeiling is the maximum blended confidence ever reported.
	confidenceCeiling = 0.95
	// defaultIOTimeout bounds each store call so an unresponsive backend
	// degrades the request instead of hanging it.
	defaultIOTimeout = 3 * time.Second
)

// Storage is the slice of the store the orchestrator needs.
type Storage interface {
	QueryMemory(ctx context.Context, p store.QueryParams) ([]model.MemoryEntry, error)
	InsertConversation(ctx context.Context, c model.Conversation) (string, error)
}

// Metadata is the diagnostic block attached to every routing result.
type Metadata struct {
	Intent             model.Intent `json:"intent"`
	Reasoning          string       `json:"reasoning,omitempty"`
	Module             string       `json:"module,omitempty"`
	KnowledgeUsed      []string     `json:"knowledge_used,omitempty"`
	MemoryResultsCount int          `json:"memory_results_count"`
	WasRedirected      bool         `json:"was_redirected"`
	Error              string       `json:"error,omitempty"`
}

// Result is the unified routing output. Callers always receive one; routing
// never returns an error or panics across the package boundary.
type Result struct {
	Response   string       `json:"response"`
	Intent     model.Intent `json:"intent"`
	Confidence float64      `json:"confidence"`
	Metadata   Metadata     `json:"metadata"`
}

// Engine sequences one orchestration run per inbound message. It holds no
// mutable state, so concurrent runs are safe.
type Engine struct {
	classifier *classifier.Classifier
	storage    Storage
	registry   *Registry
	persona    Persona
	adminRoles map[string]bool
	ioTimeout  time.Duration
	logger     *zap.Logger

	auditWG sync.WaitGroup
}

// Options configures an Engine.
type Options struct {
	Classifier *classifier.Classifier
	Storage    Storage
	Registry   *Registry
	Persona    Persona
	AdminRoles []string
	IOTimeout  time.Duration
	Logger     *zap.Logger
}

// New builds an engine. Unset options fall back to defaults.
func New(opts Options) *Engine {
	if opts.Classifier == nil {
		opts.Classifier = classifier.New(nil, nil, nil)
	}
	if opts.Registry == nil {
		opts.Registry = DefaultRegistry()
	}
	if opts.IOTimeout <= 0 {
		opts.IOTimeout = defaultIOTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	admin := map[string]bool{}
	if len(opts.AdminRoles) == 0 {
		opts.AdminRoles = []string{"admin", "owner"}
	}
	for _, r := range opts.AdminRoles {
		admin[r] = true
	}
	return &Engine{
		classifier: opts.Classifier,
		storage:    opts.Storage,
		registry:   opts.Registry,
		persona:    opts.Persona,
		adminRoles: admin,
		ioTimeout:  opts.IOTimeout,
		logger:     opts.Logger,
	}
}

// Classify exposes the classifier through the engine facade.
func (e *Engine) Classify(message string, ctx model.Context) model.ClassificationResult {
	return e.classifier.Classify(message, ctx)
}

// Route runs the full pipeline for one message. The single top-level catch
// converts panics and handler failures into an error-intent result; storage
// failures degrade inside the pipeline and never reach it.
func (e *Engine) Route(ctx context.Context, message string, convCtx model.Context) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("routing panicked", zap.Any("panic", r))
			res = errorResult(fmt.Sprintf("%v", r))
		}
	}()

	res, err := e.route(ctx, message, convCtx)
	if err != nil {
		e.logger.Error("routing failed", zap.Error(err))
		return errorResult(err.Error())
	}
	return res
}

func (e *Engine) route(ctx context.Context, message string, convCtx model.Context) (Result, error) {
	prompt := BuildPrompt(e.persona, convCtx)

	cls := e.classifier.Classify(message, convCtx)

	// Admin gate: restricted intents short-circuit before any I/O.
	if model.AdminIntents[cls.Intent] && !e.adminRoles[convCtx.Role] {
		return Result{
			Response:   "That operation is restricted to administrators.",
			Intent:     model.IntentForbidden,
			Confidence: 1.0,
			Metadata: Metadata{
				Intent:        model.IntentForbidden,
				Reasoning:     fmt.Sprintf("%s intent requires an admin role", cls.Intent),
				WasRedirected: true,
			},
		}, nil
	}

	memory := e.queryMemory(ctx, message)

	handler := e.registry.Get(cls.Intent)
	hres, err := handler.Handle(ctx, Request{
		Message: message,
		Context: convCtx,
		Prompt:  prompt,
		Memory:  memory,
	})
	if err != nil {
		return Result{}, fmt.Errorf("handler %s: %w", cls.Intent, err)
	}

	handlerConf := hres.Confidence
	if handlerConf == 0 {
		handlerConf = defaultHandlerConfidence
	}
	confidence := (cls.Confidence + handlerConf) / 2
	if confidence > confidenceCeiling {
		confidence = confidenceCeiling
	}

	result := Result{
		Response:   hres.Response,
		Intent:     cls.Intent,
		Confidence: confidence,
		Metadata: Metadata{
			Intent:             cls.Intent,
			Reasoning:          cls.Reasoning,
			Module:             hres.Module,
			KnowledgeUsed:      hres.KnowledgeUsed,
			MemoryResultsCount: len(memory),
			WasRedirected:      cls.Intent == model.IntentOfftopic,
		},
	}

	e.writeAudit(message, result, convCtx)
	return result, nil
}

// queryMemory retrieves prior knowledge for the raw message. Any storage
// failure degrades to an empty result list.
func (e *Engine) queryMemory(ctx context.Context, message string) []model.MemoryEntry {
	if e.storage == nil {
		return nil
	}
	qctx, cancel := context.WithTimeout(ctx, e.ioTimeout)
	defer cancel()

	memory, err := e.storage.QueryMemory(qctx, store.QueryParams{Query: message})
	if err != nil {
		e.logger.Warn("memory query degraded to empty results", zap.Error(err))
		return nil
	}
	return memory
}

// writeAudit records the conversation fire-and-forget. The write runs on its
// own context so a cancelled request doesn't abort it, and failures are
// logged, never surfaced.
func (e *Engine) writeAudit(message string, res Result, convCtx model.Context) {
	if e.storage == nil {
		return
	}
	e.auditWG.Add(1)
	go func() {
		defer e.auditWG.Done()
		actx, cancel := context.WithTimeout(context.Background(), e.ioTimeout)
		defer cancel()
		_, err := e.storage.InsertConversation(actx, model.Conversation{
			Message:    message,
			Response:   res.Response,
			Intent:     res.Intent,
			Confidence: res.Confidence,
			Role:       convCtx.Role,
			Module:     res.Metadata.Module,
		})
		if err != nil {
			e.logger.Warn("conversation audit write failed", zap.Error(err))
		}
	}()
}

// Drain blocks until in-flight audit writes settle. Call before shutdown.
func (e *Engine) Drain() {
	e.auditWG.Wait()
}

func errorResult(msg string) Result {
	return Result{
		Response:   "Something went wrong while handling that message.",
		Intent:     model.IntentError,
		Confidence: 0.0,
		Metadata: Metadata{
			Intent: model.IntentError,
			Error:  msg,
		},
	}
}
