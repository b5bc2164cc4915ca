// Package lm is the client for the external language-model service. Every
// pipeline decision that needs generation or judgment goes through here; the
// package implements no inference of its own.
package lm

// Plan is the routing label the planner assigns to a question.
type Plan string

const (
	PlanSingle        Plan = "single"
	PlanMulti         Plan = "multi"
	PlanNeedsCalc     Plan = "needs_calc"
	PlanNeedsSQL      Plan = "needs_sql"
	PlanNotAnswerable Plan = "not_answerable"
)

// ParsePlan maps a raw model response to a known plan label.
func ParsePlan(raw string) (Plan, bool) {
	switch Plan(raw) {
	case PlanSingle, PlanMulti, PlanNeedsCalc, PlanNeedsSQL, PlanNotAnswerable:
		return Plan(raw), true
	}
	return "", false
}

// SupportJudgment is the model's verdict on whether evidence supports a claim.
type SupportJudgment struct {
	Supported   bool
	Probability float64
}

// StreamResult carries a streamed completion with its latency metrics.
// TTFTMillis is -1 and TokensPerSecond is 0 when the stream produced no
// content tokens.
type StreamResult struct {
	Text            string
	TTFTMillis      float64
	TokensPerSecond float64
}

// ToolCall is a tool invocation emitted by the model.
type ToolCall struct {
	Name      string
	Arguments string
}
