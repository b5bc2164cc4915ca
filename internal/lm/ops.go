package lm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Classify routes a question to a plan label. An unknown or empty response is
// an error; the caller decides the fallback.
func (c *Client) Classify(ctx context.Context, question string) (Plan, error) {
	content, err := c.complete(ctx, systemUser(plannerPrompt, question), 0)
	if err != nil {
		return "", err
	}
	plan, ok := ParsePlan(strings.ToLower(strings.TrimSpace(content)))
	if !ok {
		return "", fmt.Errorf("unknown plan label %q", strings.TrimSpace(content))
	}
	return plan, nil
}

// Decompose splits a question into at most maxSubQuestions sub-questions.
func (c *Client) Decompose(ctx context.Context, question string, maxSubQuestions int) ([]string, error) {
	sys := fmt.Sprintf(decomposePrompt, maxSubQuestions)
	content, err := c.complete(ctx, systemUser(sys, question), 0)
	if err != nil {
		return nil, err
	}
	subs, err := parseStringArray(content)
	if err != nil {
		return nil, fmt.Errorf("parse sub-questions: %w", err)
	}
	if len(subs) > maxSubQuestions {
		subs = subs[:maxSubQuestions]
	}
	return subs, nil
}

// ExtractClaims pulls atomic factual claims out of a draft answer.
func (c *Client) ExtractClaims(ctx context.Context, draft string) ([]string, error) {
	content, err := c.complete(ctx, systemUser(claimsPrompt, draft), 0)
	if err != nil {
		return nil, err
	}
	claims, err := parseStringArray(content)
	if err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}
	return claims, nil
}

// JudgeSupport asks whether the evidence context supports a single claim.
func (c *Client) JudgeSupport(ctx context.Context, claim, evidence string) (SupportJudgment, error) {
	user := fmt.Sprintf("CONTEXT: %s\n\nCLAIM: %s", evidence, claim)
	content, err := c.complete(ctx, systemUser(supportPrompt, user), 0)
	if err != nil {
		return SupportJudgment{}, err
	}
	judgment, err := parseSupport(content)
	if err != nil {
		return SupportJudgment{}, fmt.Errorf("parse support judgment: %w", err)
	}
	return judgment, nil
}

// Synthesize drafts an answer from the assembled context, non-streaming.
func (c *Client) Synthesize(ctx context.Context, question, contextText string) (string, error) {
	user := fmt.Sprintf("CONTEXT: %s\n\nQUESTION: %s", contextText, question)
	return c.complete(ctx, systemUser(synthesizePrompt, user), 0.2)
}

// SynthesizeStream drafts an answer as a token stream and measures
// time-to-first-token and output tokens per second. Each non-empty content
// delta counts as one token.
func (c *Client) SynthesizeStream(ctx context.Context, question, contextText string) (StreamResult, error) {
	user := fmt.Sprintf("CONTEXT: %s\n\nQUESTION: %s", contextText, question)

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	stream, err := c.api.CreateChatCompletionStream(callCtx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    systemUser(synthesizePrompt, user),
		Temperature: 0.2,
		Stream:      true,
	})
	if err != nil {
		return StreamResult{}, fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	var (
		text   strings.Builder
		tokens int
		first  time.Time
	)
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return StreamResult{}, fmt.Errorf("read stream: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		if tokens == 0 {
			first = time.Now()
		}
		tokens++
		text.WriteString(delta)
	}
	end := time.Now()

	result := StreamResult{Text: text.String(), TTFTMillis: -1}
	if tokens > 0 {
		result.TTFTMillis = float64(first.Sub(start)) / float64(time.Millisecond)
		if gen := end.Sub(first).Seconds(); gen > 0 {
			result.TokensPerSecond = float64(tokens) / gen
		}
	}
	return result, nil
}

// RequestToolCall offers the model a set of tools and returns the first tool
// call it emits, or nil when it answers in plain text instead.
func (c *Client) RequestToolCall(ctx context.Context, question string, tools []openai.Tool) (*ToolCall, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: question},
		},
		Temperature: 0,
		Tools:       tools,
		ToolChoice:  "auto",
	})
	if err != nil {
		return nil, fmt.Errorf("tool call request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no completion choices returned")
	}

	calls := resp.Choices[0].Message.ToolCalls
	if len(calls) == 0 {
		return nil, nil
	}
	return &ToolCall{
		Name:      calls[0].Function.Name,
		Arguments: calls[0].Function.Arguments,
	}, nil
}

// parseStringArray decodes a JSON array of strings, tolerating the markdown
// code fences some models wrap JSON in.
func parseStringArray(content string) ([]string, error) {
	var out []string
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func parseSupport(content string) (SupportJudgment, error) {
	var raw struct {
		Support string  `json:"support"`
		Prob    float64 `json:"prob"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &raw); err != nil {
		return SupportJudgment{}, err
	}
	return SupportJudgment{
		Supported:   strings.EqualFold(strings.TrimSpace(raw.Support), "yes"),
		Probability: raw.Prob,
	}, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
