package pipeline

import (
	"context"
	"log"

	"github.com/DreamCats/docqa/internal/config"
	"github.com/DreamCats/docqa/internal/lm"
	"github.com/DreamCats/docqa/internal/retrieval"
)

// VerifyLM is the slice of the language model the verify loop needs.
type VerifyLM interface {
	ExtractClaims(ctx context.Context, draft string) ([]string, error)
	JudgeSupport(ctx context.Context, claim, evidence string) (lm.SupportJudgment, error)
	Synthesize(ctx context.Context, question, contextText string) (string, error)
	SynthesizeStream(ctx context.Context, question, contextText string) (lm.StreamResult, error)
}

// VerifyResult is the verified answer with its attribution accounting. After
// a resynthesis the counts describe the resynthesized answer; the draft's
// counts are discarded.
type VerifyResult struct {
	Answer          string
	Claims          int
	Supported       int
	Precision       float64
	TTFTMillis      float64
	TokensPerSecond float64
	Resynthesized   bool
}

// Verifier drafts an answer, checks its claims against evidence, and redrafts
// once with wider context when attribution is poor and no tool vouches for
// the answer.
type Verifier struct {
	lm  VerifyLM
	cfg *config.VerifyConfig
}

func NewVerifier(model VerifyLM, cfg *config.VerifyConfig) *Verifier {
	return &Verifier{lm: model, cfg: cfg}
}

// Run executes the draft, verify, and conditional resynthesis sequence.
// Model failures along the way degrade the result instead of failing it: a
// dead drafting call yields an empty answer, a dead claim extraction yields
// zero claims, a dead support check counts the claim as unsupported.
func (v *Verifier) Run(ctx context.Context, question, draftContext string, items []retrieval.Retrieved, toolText string, toolOK bool) VerifyResult {
	fullContext := draftContext
	if toolText != "" {
		fullContext += "\n\nTOOL RESULTS:\n" + toolText
	}

	result := VerifyResult{TTFTMillis: -1}
	stream, err := v.lm.SynthesizeStream(ctx, question, fullContext)
	if err != nil {
		log.Printf("Warning: streaming draft failed, retrying without stream: %v", err)
		answer, err := v.lm.Synthesize(ctx, question, fullContext)
		if err != nil {
			log.Printf("Warning: drafting failed entirely: %v", err)
			answer = ""
		}
		result.Answer = answer
	} else {
		result.Answer = stream.Text
		result.TTFTMillis = stream.TTFTMillis
		result.TokensPerSecond = stream.TokensPerSecond
	}

	evidence := evidenceWindow(items, v.cfg.EvidenceChunks)
	result.Claims, result.Supported = v.checkClaims(ctx, result.Answer, evidence)
	result.Precision = precision(result.Claims, result.Supported)

	if result.Precision >= v.cfg.PrecisionThreshold || toolOK {
		return result
	}

	// Poor attribution and nothing authoritative from a tool: one redraft
	// with wider context and forced citations, then re-verify. The redraft
	// replaces the draft even if its own numbers come out worse.
	wideContext := contextBlocks(items, v.cfg.ResynthesisChunks)
	if toolText != "" {
		wideContext += "\n\nTOOL RESULTS:\n" + toolText
	}
	answer, err := v.lm.Synthesize(ctx, question, wideContext)
	if err != nil {
		log.Printf("Warning: resynthesis failed, keeping the draft: %v", err)
		return result
	}
	answer = forceCitations(answer, topIDs(items, 3))

	wideEvidence := evidenceWindow(items, v.cfg.WideEvidenceChunks)
	claims, supported := v.checkClaims(ctx, answer, wideEvidence)

	return VerifyResult{
		Answer:          answer,
		Claims:          claims,
		Supported:       supported,
		Precision:       precision(claims, supported),
		TTFTMillis:      result.TTFTMillis,
		TokensPerSecond: result.TokensPerSecond,
		Resynthesized:   true,
	}
}

// checkClaims extracts claims from the answer and counts the supported ones.
// A claim is supported only when the judgment says yes with probability
// above 0.5.
func (v *Verifier) checkClaims(ctx context.Context, answer, evidence string) (claims, supported int) {
	if answer == "" {
		return 0, 0
	}
	extracted, err := v.lm.ExtractClaims(ctx, answer)
	if err != nil {
		log.Printf("Warning: claim extraction failed, treating the answer as claim-free: %v", err)
		return 0, 0
	}

	for _, claim := range extracted {
		judgment, err := v.lm.JudgeSupport(ctx, claim, evidence)
		if err != nil {
			log.Printf("Warning: support check failed for a claim: %v", err)
			continue
		}
		if judgment.Supported && judgment.Probability > 0.5 {
			supported++
		}
	}
	return len(extracted), supported
}

// precision is the supported fraction, vacuously 1 with no claims.
func precision(claims, supported int) float64 {
	if claims == 0 {
		return 1
	}
	return float64(supported) / float64(claims)
}
