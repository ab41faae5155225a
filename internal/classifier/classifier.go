// Package classifier implements the deterministic keyword-scoring intent
// classifier. It performs no I/O and cannot fail: every input, including
// malformed ones, yields a well-formed ClassificationResult.
package classifier

import (
	"fmt"
	"strings"

	"github.com/dialogroute/dialogroute/internal/model"
)

const (
	// saturationHits is the hit count at which confidence reaches 1.0.
	saturationHits = 5
	// floorConfidence is the minimum reported confidence for a classified
	// message.
	floorConfidence = 0.5
	// downgradeBelow sends weak classifications to the generic support
	// intent instead of reporting a low-confidence guess.
	downgradeBelow = 0.3
)

// Classifier scores messages against a fixed keyword taxonomy.
type Classifier struct {
	categories  []Category
	outOfScope  []string
	brandTokens []string
}

// New builds a classifier. Nil slices fall back to the defaults; brand
// tokens have no default and should name the deployment's own brand so
// brand mentions override the out-of-scope filter.
func New(categories []Category, outOfScope, brandTokens []string) *Classifier {
	if categories == nil {
		categories = DefaultCategories()
	}
	if outOfScope == nil {
		outOfScope = DefaultOutOfScope()
	}
	return &Classifier{
		categories:  categories,
		outOfScope:  outOfScope,
		brandTokens: brandTokens,
	}
}

// Classify scores message against every category and returns the winning
// intent with a normalized confidence. ctx is accepted for contract parity
// with routing; the scoring itself depends only on the message text.
func (c *Classifier) Classify(message string, ctx model.Context) model.ClassificationResult {
	if strings.TrimSpace(message) == "" {
		return model.ClassificationResult{
			Intent:     model.IntentOfftopic,
			Confidence: 1.0,
			Reasoning:  "empty or malformed message",
		}
	}

	text := strings.ToLower(strings.TrimSpace(message))
	brand := c.mentionsBrand(text)

	if !brand {
		for _, kw := range c.outOfScope {
			if strings.Contains(text, kw) {
				return model.ClassificationResult{
					Intent:          model.IntentOfftopic,
					Confidence:      0.9,
					Reasoning:       fmt.Sprintf("out-of-scope topic %q with no brand mention", kw),
					MatchedKeywords: []string{kw},
				}
			}
		}
	}

	// Independent per-category hit counts. A keyword may score for more
	// than one category; ties resolve by declaration order.
	best := -1
	bestHits := 0
	var bestMatched []string
	for i, cat := range c.categories {
		hits := 0
		var matched []string
		for _, kw := range cat.Keywords {
			if strings.Contains(text, kw) {
				hits++
				matched = append(matched, kw)
			}
		}
		if hits > bestHits {
			best, bestHits = i, hits
			bestMatched = matched
		}
	}

	if bestHits == 0 {
		if brand {
			return model.ClassificationResult{
				Intent:     model.IntentProduct,
				Confidence: 0.7,
				Reasoning:  "brand mention without category keywords",
			}
		}
		if isInterrogative(text) {
			return model.ClassificationResult{
				Intent:     model.IntentSupport,
				Confidence: 0.6,
				Reasoning:  "interrogative form without category keywords",
			}
		}
		return model.ClassificationResult{
			Intent:     model.IntentSupport,
			Confidence: floorConfidence,
			Reasoning:  "no keyword matches; defaulted to support",
		}
	}

	confidence := float64(bestHits) / saturationHits
	if confidence > 1.0 {
		confidence = 1.0
	}

	intent := c.categories[best].Intent
	if confidence < downgradeBelow && intent != model.IntentOfftopic {
		return model.ClassificationResult{
			Intent:          model.IntentSupport,
			Confidence:      floorConfidence,
			Reasoning:       fmt.Sprintf("weak %s signal downgraded to support", intent),
			MatchedKeywords: bestMatched,
		}
	}
	if confidence < floorConfidence {
		confidence = floorConfidence
	}

	return model.ClassificationResult{
		Intent:          intent,
		Confidence:      confidence,
		Reasoning:       fmt.Sprintf("matched %d %s keyword(s)", bestHits, intent),
		MatchedKeywords: bestMatched,
	}
}

func (c *Classifier) mentionsBrand(text string) bool {
	for _, b := range c.brandTokens {
		if b != "" && strings.Contains(text, strings.ToLower(b)) {
			return true
		}
	}
	return false
}

func isInterrogative(text string) bool {
	if strings.Contains(text, "?") {
		return true
	}
	first, _, _ := strings.Cut(text, " ")
	return interrogatives[first]
}
