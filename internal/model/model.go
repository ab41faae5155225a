// Package model defines the core dialogue and knowledge data types.
package model

import "time"

// Intent is a discrete category describing an incoming message's purpose.
type Intent string

// Dialogue intents, in taxonomy declaration order. Declaration order is the
// documented tie-break when two categories score equally.
const (
	IntentProduct   Intent = "product"
	IntentPricing   Intent = "pricing"
	IntentOrder     Intent = "order"
	IntentSupport   Intent = "support"
	IntentFeedback  Intent = "feedback"
	IntentSmalltalk Intent = "smalltalk"
	IntentTraining  Intent = "training"
	IntentAnalytics Intent = "analytics"
	IntentOfftopic  Intent = "offtopic"
)

// Synthetic intents produced by the orchestrator, never by the classifier.
const (
	IntentForbidden Intent = "forbidden"
	IntentError     Intent = "error"
)

// AdminIntents are the intents restricted to privileged roles.
var AdminIntents = map[Intent]bool{
	IntentTraining:  true,
	IntentAnalytics: true,
}

// ClassificationResult is the transient output of the intent classifier.
type ClassificationResult struct {
	Intent          Intent   `json:"intent"`
	Confidence      float64  `json:"confidence"`
	Reasoning       string   `json:"reasoning"`
	MatchedKeywords []string `json:"matched_keywords,omitempty"`
}

// EntryType is the knowledge-category taxonomy for memory entries.
type EntryType string

const (
	TypeProductKnowledge    EntryType = "product_knowledge"
	TypeSupportPattern      EntryType = "support_pattern"
	TypeConversationPattern EntryType = "conversation_pattern"
	TypeAdminLearning       EntryType = "admin_learning"
	TypeRule                EntryType = "rule"
	TypeGenerated           EntryType = "generated"
)

// ValidEntryTypes are the allowed memory entry types.
var ValidEntryTypes = map[EntryType]bool{
	TypeProductKnowledge:    true,
	TypeSupportPattern:      true,
	TypeConversationPattern: true,
	TypeAdminLearning:       true,
	TypeRule:                true,
	TypeGenerated:           true,
}

// MemoryEntry is a persisted, rankable, reinforceable unit of knowledge.
// Entries are never hard-deleted: supersession flips Active off and links
// the replacement via SupersededBy, preserving the audit chain.
type MemoryEntry struct {
	ID           string            `json:"id"`
	Type         EntryType         `json:"type"`
	Title        string            `json:"title"`
	Content      string            `json:"content"`
	Keywords     []string          `json:"keywords,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	UsageCount   int               `json:"usage_count"`
	SuccessRate  float64           `json:"success_rate"`
	Priority     int               `json:"priority"`
	Active       bool              `json:"active"`
	SupersededBy string            `json:"superseded_by,omitempty"`
	ContentHash  string            `json:"content_hash,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// CorrectionPriority controls whether a correction also suppresses
// conflicting knowledge (high, critical) or only reinforces (low, medium).
type CorrectionPriority string

const (
	PriorityLow      CorrectionPriority = "low"
	PriorityMedium   CorrectionPriority = "medium"
	PriorityHigh     CorrectionPriority = "high"
	PriorityCritical CorrectionPriority = "critical"
)

// ValidCorrectionPriorities are the allowed correction priority levels.
var ValidCorrectionPriorities = map[CorrectionPriority]bool{
	PriorityLow:      true,
	PriorityMedium:   true,
	PriorityHigh:     true,
	PriorityCritical: true,
}

// Suppresses reports whether a correction at this priority triggers
// supersession of conflicting entries.
func (p CorrectionPriority) Suppresses() bool {
	return p == PriorityHigh || p == PriorityCritical
}

// Correction is an append-only audit record of a supervised correction.
type Correction struct {
	ID                string             `json:"id"`
	ConversationRef   string             `json:"conversation_ref,omitempty"`
	OriginalResponse  string             `json:"original_response"`
	CorrectedResponse string             `json:"corrected_response"`
	AdminID           string             `json:"admin_id"`
	Reason            string             `json:"reason,omitempty"`
	Priority          CorrectionPriority `json:"priority"`
	Status            string             `json:"status"`
	AppliedAt         time.Time          `json:"applied_at"`
}

// Conversation is a best-effort audit record of one orchestration run.
type Conversation struct {
	ID         string    `json:"id"`
	Message    string    `json:"message"`
	Response   string    `json:"response"`
	Intent     Intent    `json:"intent"`
	Confidence float64   `json:"confidence"`
	Role       string    `json:"role,omitempty"`
	Module     string    `json:"module,omitempty"`
	Feedback   string    `json:"feedback,omitempty"` // "", "positive" or "negative"
	CreatedAt  time.Time `json:"created_at"`
}

// Context carries caller-supplied conversation context into classification
// and routing.
type Context struct {
	Role    string   `json:"role,omitempty"`
	UserID  string   `json:"user_id,omitempty"`
	History []string `json:"history,omitempty"`
}

// MaturityLevel is the coarse self-assessment tier.
type MaturityLevel string

const (
	LevelBeginner     MaturityLevel = "beginner"
	LevelIntermediate MaturityLevel = "intermediate"
	LevelAdvanced     MaturityLevel = "advanced"
	LevelExpert       MaturityLevel = "expert"
)

// Factor is one of the four capped components of a maturity score.
type Factor struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"` // capped at 25
}

// Stats aggregates store statistics consumed by the maturity engine.
type Stats struct {
	TotalEntries     int            `json:"total_entries"`
	ActiveEntries    int            `json:"active_entries"`
	EntriesByType    map[string]int `json:"entries_by_type,omitempty"`
	CategoryCount    int            `json:"category_count"`
	AvgConfidence    float64        `json:"avg_confidence"` // trailing 30 days, 0-100 scale
	PositiveFeedback int            `json:"positive_feedback"`
	NegativeFeedback int            `json:"negative_feedback"`
	TrainingCount    int            `json:"training_count"`
	Conversations    int            `json:"conversations"`
}

// MaturitySnapshot is an immutable point-in-time self-assessment.
type MaturitySnapshot struct {
	ID              string        `json:"id"`
	Level           MaturityLevel `json:"level"`
	Score           int           `json:"score"`
	Factors         []Factor      `json:"factors"`
	Strengths       []string      `json:"strengths"`
	Weaknesses      []string      `json:"weaknesses,omitempty"`
	Recommendations []string      `json:"recommendations"`
	Stats           Stats         `json:"stats"`
	AnalyzedBy      string        `json:"analyzed_by,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}
