package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/DreamCats/docqa/internal/lm"
)

// RouterLM is the slice of the language model the router needs: table
// selection, query generation, and tool-call emission.
type RouterLM interface {
	SelectTables(ctx context.Context, question, tableSummaries string, max int) ([]string, error)
	GenerateSQL(ctx context.Context, question, schema string) (string, error)
	RequestToolCall(ctx context.Context, question string, tools []openai.Tool) (*lm.ToolCall, error)
}

const maxSelectedTables = 3

// Router dispatches a planned question to its deterministic backend. Every
// outcome, including LM failures along the way, becomes a timed Invocation;
// Route itself never fails.
type Router struct {
	lm     RouterLM
	math   Tool
	sql    Tool
	tables []TableInfo
}

func NewRouter(model RouterLM, db *DB, tables []TableInfo) *Router {
	r := &Router{lm: model, math: MathTool{}, tables: tables}
	if db != nil {
		r.sql = NewSQLTool(db)
	}
	return r
}

// Route runs the tool branch for the plan. Plans without a tool branch
// return no invocations.
func (r *Router) Route(ctx context.Context, question string, plan lm.Plan) []Invocation {
	switch plan {
	case lm.PlanNeedsCalc:
		return []Invocation{r.routeMath(ctx, question)}
	case lm.PlanNeedsSQL:
		return []Invocation{r.routeSQL(ctx, question)}
	}
	return nil
}

// routeMath prefers direct expression extraction; only when the question
// holds no recognizable expression does it ask the model to emit a tool call.
func (r *Router) routeMath(ctx context.Context, question string) Invocation {
	if expression, ok := ExtractExpression(question); ok {
		return r.invoke(ctx, r.math, mathArgs(expression))
	}

	call, err := r.lm.RequestToolCall(ctx, question, mathToolSpec())
	if err != nil {
		return r.failed(r.math.Name(), fmt.Sprintf("tool call request failed: %v", err))
	}
	if call == nil || call.Name != r.math.Name() {
		return r.failed(r.math.Name(), "no arithmetic expression found")
	}
	return r.invoke(ctx, r.math, call.Arguments)
}

func (r *Router) routeSQL(ctx context.Context, question string) Invocation {
	if r.sql == nil || len(r.tables) == 0 {
		return r.failed("sql_query", "no tables loaded")
	}

	summaries := make([]string, len(r.tables))
	byAlias := make(map[string]TableInfo, len(r.tables))
	for i, t := range r.tables {
		summaries[i] = t.Summary()
		byAlias[t.Alias] = t
	}

	aliases, err := r.lm.SelectTables(ctx, question, strings.Join(summaries, "\n"), maxSelectedTables)
	if err != nil {
		return r.failed(r.sql.Name(), fmt.Sprintf("table selection failed: %v", err))
	}

	var target *TableInfo
	for _, alias := range aliases {
		if t, ok := byAlias[alias]; ok {
			target = &t
			break
		}
	}
	if target == nil {
		return r.failed(r.sql.Name(), "no relevant table")
	}

	query, err := r.lm.GenerateSQL(ctx, question, target.Schema())
	if err != nil {
		return r.failed(r.sql.Name(), fmt.Sprintf("query generation failed: %v", err))
	}

	args, _ := json.Marshal(map[string]string{"sql": query})
	return r.invoke(ctx, r.sql, string(args))
}

func (r *Router) invoke(ctx context.Context, tool Tool, argsJSON string) Invocation {
	start := time.Now()
	result := tool.Invoke(ctx, argsJSON)
	return Invocation{
		Name:          tool.Name(),
		Ok:            !IsError(result),
		LatencyMillis: float64(time.Since(start)) / float64(time.Millisecond),
		Result:        result,
	}
}

func (r *Router) failed(name, reason string) Invocation {
	return Invocation{
		Name:   name,
		Ok:     false,
		Result: fmt.Sprintf("%s %s", ErrorPrefix, reason),
	}
}

func mathArgs(expression string) string {
	args, _ := json.Marshal(map[string]string{"expr": expression})
	return string(args)
}

func mathToolSpec() []openai.Tool {
	return []openai.Tool{{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        "math_eval",
			Description: "Evaluate an arithmetic expression and return the numeric result.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"expr": {"type": "string", "description": "The arithmetic expression to evaluate"}
				},
				"required": ["expr"]
			}`),
		},
	}}
}
