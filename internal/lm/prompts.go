package lm

const (
	plannerPrompt = `You are a planner. Output exactly one label:
- single
- multi
- needs_calc
- needs_sql
- not_answerable
If multiple apply, choose the most specific one. Only output the label.`

	decomposePrompt = `Decompose the question into at most %d independent sub-questions that can each be answered from a document corpus. Return a JSON array of short strings. If the question needs no decomposition, return a one-element array with the question itself.`

	claimsPrompt = `Extract the atomic factual claims (no opinions). Return a JSON array of short strings.`

	supportPrompt = `Decide if the context supports the claim.
Answer with JSON: {"support": "yes"|"no", "prob": 0..1}.
Only use the context provided.`

	synthesizePrompt = `Answer using ONLY the provided CONTEXT.
- Quote verbatim short phrases.
- Add citations like [CIT:chunkId].
- If insufficient evidence, say so explicitly.`
)
