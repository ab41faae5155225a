// Package maturity implements the self-assessment engine: a weighted score
// over aggregated store statistics, persisted as immutable snapshots.
package maturity

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/dialogroute/dialogroute/internal/model"
)

// factorCap is the maximum contribution of each of the four factors.
const factorCap = 25.0

// Level thresholds over the 0-100 score.
const (
	expertThreshold       = 75
	advancedThreshold     = 50
	intermediateThreshold = 25
)

// Normalization divisors: the stat value at which a factor saturates.
const (
	memoryFullAt    = 100.0 // active entries
	trainingFullAt  = 50.0  // corrections + rules
	diversityFullAt = 10.0  // distinct knowledge categories
)

// SnapshotStore is the persistence surface the engine needs.
type SnapshotStore interface {
	Stats(ctx context.Context) (*model.Stats, error)
	InsertSnapshot(ctx context.Context, s model.MaturitySnapshot) (string, error)
}

// Engine computes and persists maturity snapshots.
type Engine struct {
	store  SnapshotStore
	logger *zap.Logger
}

// NewEngine builds a maturity engine over the given store.
func NewEngine(store SnapshotStore, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: store, logger: logger}
}

// AnalyzeMaturity aggregates store statistics, scores them and persists the
// snapshot. The returned snapshot carries the id of the persisted record.
func (e *Engine) AnalyzeMaturity(ctx context.Context, analyzedBy string) (*model.MaturitySnapshot, error) {
	stats, err := e.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("aggregate stats: %w", err)
	}

	snap := Analyze(*stats, analyzedBy)

	id, err := e.store.InsertSnapshot(ctx, snap)
	if err != nil {
		return nil, fmt.Errorf("persist snapshot: %w", err)
	}
	snap.ID = id

	e.logger.Info("maturity analyzed",
		zap.String("level", string(snap.Level)),
		zap.Int("score", snap.Score))
	return &snap, nil
}

// Analyze scores a stats snapshot. Pure: the same stats always produce the
// same snapshot (modulo timestamps, which the store assigns on insert).
func Analyze(stats model.Stats, analyzedBy string) model.MaturitySnapshot {
	memory := capped(float64(stats.ActiveEntries) / memoryFullAt * factorCap)
	success := capped(stats.AvgConfidence / 100 * factorCap)
	training := capped(float64(stats.TrainingCount) / trainingFullAt * factorCap)
	diversity := capped(float64(stats.CategoryCount) / diversityFullAt * factorCap)

	score := int(math.Round(memory + success + training + diversity))
	if score > 100 {
		score = 100
	}

	snap := model.MaturitySnapshot{
		Level: levelFor(score),
		Score: score,
		Factors: []model.Factor{
			{Name: "memory", Score: round2(memory)},
			{Name: "success", Score: round2(success)},
			{Name: "training", Score: round2(training)},
			{Name: "diversity", Score: round2(diversity)},
		},
		Stats:      stats,
		AnalyzedBy: analyzedBy,
	}

	snap.Strengths, snap.Weaknesses = assess(stats)
	snap.Recommendations = recommend(snap.Level, snap.Weaknesses)
	return snap
}

// assess applies the independent per-stat strength/weakness thresholds.
func assess(stats model.Stats) (strengths, weaknesses []string) {
	if stats.ActiveEntries > 100 {
		strengths = append(strengths, "broad knowledge base")
	} else if stats.ActiveEntries < 50 {
		weaknesses = append(weaknesses, "small knowledge base")
	}

	if stats.AvgConfidence > 80 {
		strengths = append(strengths, "high response confidence")
	} else if stats.AvgConfidence < 60 {
		weaknesses = append(weaknesses, "low response confidence")
	}

	if stats.TrainingCount > 20 {
		strengths = append(strengths, "well trained")
	} else if stats.TrainingCount < 10 {
		weaknesses = append(weaknesses, "little supervised training")
	}

	if stats.CategoryCount >= 8 {
		strengths = append(strengths, "diverse knowledge categories")
	} else if stats.CategoryCount < 4 {
		weaknesses = append(weaknesses, "narrow category coverage")
	}

	if stats.PositiveFeedback > 50 {
		strengths = append(strengths, "strong positive feedback")
	}
	if stats.NegativeFeedback > 10 {
		weaknesses = append(weaknesses, "notable negative feedback")
	}

	if len(strengths) == 0 {
		strengths = append(strengths, "early development: learning from every interaction")
	}
	return strengths, weaknesses
}

// highPriorityFixes maps weaknesses to their remediation recommendation.
var highPriorityFixes = map[string]string{
	"small knowledge base":       "seed more knowledge entries via rules or the harvester",
	"low response confidence":    "review low-confidence conversations and apply corrections",
	"little supervised training": "schedule regular admin correction sessions",
	"narrow category coverage":   "teach rules across more knowledge categories",
	"notable negative feedback":  "audit negative-feedback conversations for recurring gaps",
}

var levelAdvice = map[model.MaturityLevel]string{
	model.LevelBeginner:     "focus on seeding core knowledge before tuning quality",
	model.LevelIntermediate: "balance new knowledge with corrections of weak answers",
	model.LevelAdvanced:     "prioritize precision: supersede outdated entries",
	model.LevelExpert:       "maintain quality with periodic audits and pruning rules",
}

// recommend produces exactly one tiered recommendation for the level plus
// one fix per flagged weakness.
func recommend(level model.MaturityLevel, weaknesses []string) []string {
	recs := []string{levelAdvice[level]}
	for _, w := range weaknesses {
		if fix, ok := highPriorityFixes[w]; ok {
			recs = append(recs, fix)
		}
	}
	return recs
}

func levelFor(score int) model.MaturityLevel {
	switch {
	case score >= expertThreshold:
		return model.LevelExpert
	case score >= advancedThreshold:
		return model.LevelAdvanced
	case score >= intermediateThreshold:
		return model.LevelIntermediate
	default:
		return model.LevelBeginner
	}
}

func capped(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > factorCap {
		return factorCap
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
