package classifier

import "github.com/dialogroute/dialogroute/internal/model"

// Category pairs an intent with its keyword list. The order categories are
// declared in is the tie-break order: on equal scores the earlier category
// wins. Keep new categories at the end unless they should outrank peers.
type Category struct {
	Intent   model.Intent
	Keywords []string
}

// DefaultCategories is the built-in intent taxonomy.
func DefaultCategories() []Category {
	return []Category{
		{model.IntentProduct, []string{
			"product", "feature", "features", "spec", "specification",
			"catalog", "item", "available", "availability", "stock", "compatible",
		}},
		{model.IntentPricing, []string{
			"price", "pricing", "cost", "costs", "discount", "quote",
			"subscription", "plan", "fee", "cheaper", "expensive",
		}},
		{model.IntentOrder, []string{
			"order", "shipping", "delivery", "track", "tracking", "return",
			"refund", "cancel", "invoice", "purchase", "payment",
		}},
		{model.IntentSupport, []string{
			"help", "support", "problem", "issue", "broken", "error",
			"fix", "trouble", "crash", "working", "install",
		}},
		{model.IntentFeedback, []string{
			"feedback", "complaint", "suggestion", "review", "rating",
			"experience", "improve", "disappointed",
		}},
		{model.IntentSmalltalk, []string{
			"hello", "thanks", "thank", "bye", "goodbye", "morning",
			"afternoon", "evening", "greetings",
		}},
		{model.IntentTraining, []string{
			"teach", "train", "training", "correct", "correction",
			"learn", "rule", "knowledge",
		}},
		{model.IntentAnalytics, []string{
			"analytics", "stats", "statistics", "report", "maturity",
			"metrics", "performance", "dashboard",
		}},
	}
}

// DefaultOutOfScope are topics the engine refuses to engage with.
func DefaultOutOfScope() []string {
	return []string{
		"weather", "politics", "election", "football", "lottery",
		"horoscope", "recipe", "celebrity", "crypto", "gambling",
	}
}

var interrogatives = map[string]bool{
	"what": true, "how": true, "why": true, "when": true, "where": true,
	"who": true, "which": true, "can": true, "could": true, "would": true,
	"does": true, "do": true, "is": true, "are": true,
}
