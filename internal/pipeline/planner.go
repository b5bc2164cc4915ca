package pipeline

import (
	"context"
	"log"

	"github.com/DreamCats/docqa/internal/lm"
)

// PlannerLM classifies a question into a routing label.
type PlannerLM interface {
	Classify(ctx context.Context, question string) (lm.Plan, error)
}

// ResolvePlan classifies the question, falling back to the single-hop plan
// when the model fails or emits garbage. Planning errors never fail a query.
func ResolvePlan(ctx context.Context, model PlannerLM, question string) lm.Plan {
	plan, err := model.Classify(ctx, question)
	if err != nil {
		log.Printf("Warning: plan classification failed, defaulting to single: %v", err)
		return lm.PlanSingle
	}
	return plan
}
