package engine

import (
	"context"
	"fmt"

	"github.com/dialogroute/dialogroute/internal/model"
)

// Request is the input every intent handler receives.
type Request struct {
	Message string
	Context model.Context
	Prompt  string              // persona system prompt
	Memory  []model.MemoryEntry // ranked prior knowledge for the message
}

// Response is the common output contract for intent handlers.
type Response struct {
	Response      string
	Confidence    float64 // 0 means "not stated"; the orchestrator defaults it
	Module        string
	KnowledgeUsed []string
}

// Handler generates a response for one intent.
type Handler interface {
	Handle(ctx context.Context, req Request) (Response, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, req Request) (Response, error)

func (f HandlerFunc) Handle(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// Registry maps intents to handlers. Unknown intents fall back to the
// registered fallback handler.
type Registry struct {
	handlers map[model.Intent]Handler
	fallback Handler
}

// NewRegistry creates an empty registry with the given fallback.
func NewRegistry(fallback Handler) *Registry {
	return &Registry{
		handlers: map[model.Intent]Handler{},
		fallback: fallback,
	}
}

// Register binds a handler to an intent, replacing any previous binding.
func (r *Registry) Register(intent model.Intent, h Handler) {
	r.handlers[intent] = h
}

// Get returns the handler for an intent, or the fallback.
func (r *Registry) Get(intent model.Intent) Handler {
	if h, ok := r.handlers[intent]; ok {
		return h
	}
	return r.fallback
}

// templateHandler is the built-in canned-response generator: it answers from
// the highest-ranked memory entry when one exists, else with its template.
type templateHandler struct {
	module   string
	template string
}

func (h templateHandler) Handle(_ context.Context, req Request) (Response, error) {
	if len(req.Memory) > 0 {
		top := req.Memory[0]
		return Response{
			Response:      top.Content,
			Confidence:    0.8,
			Module:        h.module,
			KnowledgeUsed: []string{top.ID},
		}, nil
	}
	return Response{
		Response:   fmt.Sprintf(h.template, req.Message),
		Confidence: 0.7,
		Module:     h.module,
	}, nil
}

// DefaultRegistry wires the built-in template handlers for every intent.
// Deployments replace individual bindings with richer generators.
func DefaultRegistry() *Registry {
	r := NewRegistry(templateHandler{
		module:   "support",
		template: "I want to make sure I get this right. Could you tell me a bit more about %q?",
	})
	r.Register(model.IntentProduct, templateHandler{
		module:   "product",
		template: "Happy to help with product questions. What would you like to know about %q?",
	})
	r.Register(model.IntentPricing, templateHandler{
		module:   "pricing",
		template: "Pricing depends on plan and region. Let me check the details for %q.",
	})
	r.Register(model.IntentOrder, templateHandler{
		module:   "orders",
		template: "I can help with orders and shipping. Could you share your order number for %q?",
	})
	r.Register(model.IntentSupport, templateHandler{
		module:   "support",
		template: "Sorry you're running into trouble. Let's work through %q together.",
	})
	r.Register(model.IntentFeedback, templateHandler{
		module:   "feedback",
		template: "Thanks for the feedback on %q, it goes straight to the team.",
	})
	r.Register(model.IntentSmalltalk, templateHandler{
		module:   "smalltalk",
		template: "Hello! How can I help you today? (%.0s)",
	})
	r.Register(model.IntentTraining, templateHandler{
		module:   "training",
		template: "Training mode: use the learn commands to teach me. (%.0s)",
	})
	r.Register(model.IntentAnalytics, templateHandler{
		module:   "analytics",
		template: "Analytics mode: run a maturity analysis for the full picture. (%.0s)",
	})
	r.Register(model.IntentOfftopic, templateHandler{
		module:   "scope_guard",
		template: "That's outside what I can help with, but I'm glad to answer product, order or support questions. (%.0s)",
	})
	return r
}
