package assistant

import (
	"context"
	"fmt"
	"strings"

	"fairbot/internal/corrections"
	"fairbot/internal/knowledge"
	"fairbot/internal/llm"
	"fairbot/internal/logger"
	"fairbot/internal/metrics"
)

const DefaultMaxSteps = 4

// CorrectionFinder looks up past admin corrections relevant to a query.
type CorrectionFinder interface {
	Find(ctx context.Context, query string, limit int) ([]corrections.Correction, error)
}

// Agent answers one question with the help of the knowledge base and past
// corrections.
type Agent struct {
	client       llm.Client
	retriever    knowledge.Retriever
	corrections  CorrectionFinder
	systemPrompt string
	maxSteps     int
}

type AgentOption func(*Agent)

func WithSystemPrompt(prompt string) AgentOption {
	return func(a *Agent) {
		if prompt != "" {
			a.systemPrompt = prompt
		}
	}
}

func WithMaxSteps(n int) AgentOption {
	return func(a *Agent) {
		if n > 0 {
			a.maxSteps = n
		}
	}
}

func NewAgent(client llm.Client, retriever knowledge.Retriever, finder CorrectionFinder, opts ...AgentOption) *Agent {
	a := &Agent{
		client:       client,
		retriever:    retriever,
		corrections:  finder,
		systemPrompt: DefaultSystemPrompt,
		maxSteps:     DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Answer produces the reply text. Providers with function calling drive the
// tools themselves for up to maxSteps rounds; others get both tool outputs
// up front.
func (a *Agent) Answer(ctx context.Context, question string) (string, error) {
	if tc, ok := a.client.(llm.ToolCaller); ok {
		return a.answerWithTools(ctx, tc, question)
	}
	return a.answerPrefetched(ctx, question)
}

func (a *Agent) answerWithTools(ctx context.Context, tc llm.ToolCaller, question string) (string, error) {
	log := logger.Get(ctx)
	msgs := []llm.Message{
		{Role: llm.RoleSystem, Content: a.systemPrompt},
		{Role: llm.RoleUser, Content: question},
	}
	tools := llm.AgentTools()

	for step := 0; step < a.maxSteps; step++ {
		resp, err := tc.GenerateWithTools(ctx, msgs, tools)
		if err != nil {
			return "", fmt.Errorf("generate: %w", err)
		}
		if len(resp.ToolCalls) == 0 {
			return resp.Content, nil
		}

		msgs = append(msgs, llm.Message{Role: llm.RoleAssistant, Content: resp.Content, ToolCalls: resp.ToolCalls})
		for _, call := range resp.ToolCalls {
			log.Infow("tool call", "tool", call.Function.Name, "step", step+1)
			msgs = append(msgs, llm.Message{
				Role:       llm.RoleTool,
				ToolCallID: call.ID,
				Content:    a.runTool(ctx, call, question),
			})
		}
	}

	// Out of tool rounds: ask for a final answer from what was gathered.
	log.Warnw("agent step limit reached", "max_steps", a.maxSteps)
	resp, err := a.client.Generate(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return resp.Content, nil
}

func (a *Agent) answerPrefetched(ctx context.Context, question string) (string, error) {
	var b strings.Builder
	b.WriteString(question)
	b.WriteString("\n\n")
	b.WriteString(a.lookupKnowledge(ctx, question))
	b.WriteString("\n\n")
	b.WriteString(a.lookupCorrections(ctx, question))

	resp, err := a.client.Generate(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: a.systemPrompt},
		{Role: llm.RoleUser, Content: b.String()},
	})
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return resp.Content, nil
}

func (a *Agent) runTool(ctx context.Context, call llm.ToolCall, question string) string {
	switch call.Function.Name {
	case llm.ToolKnowledgeBase:
		q := call.Function.StringArg("query")
		if q == "" {
			q = question
		}
		return a.lookupKnowledge(ctx, q)
	case llm.ToolAdminCorrections:
		q := call.Function.StringArg("user_query")
		if q == "" {
			q = question
		}
		return a.lookupCorrections(ctx, q)
	default:
		metrics.ToolCalls.WithLabelValues("unknown").Inc()
		return fmt.Sprintf("Unknown tool: %s", call.Function.Name)
	}
}

// Lookup failures become tool text; the model still answers.
func (a *Agent) lookupKnowledge(ctx context.Context, query string) string {
	metrics.ToolCalls.WithLabelValues(llm.ToolKnowledgeBase).Inc()
	if a.retriever == nil {
		return knowledge.NoResultsText
	}
	passages, err := a.retriever.Retrieve(ctx, query)
	if err != nil {
		logger.Get(ctx).Errorw("knowledge base lookup failed", "error", err)
		return knowledge.RenderError(err)
	}
	return knowledge.Render(passages)
}

func (a *Agent) lookupCorrections(ctx context.Context, query string) string {
	metrics.ToolCalls.WithLabelValues(llm.ToolAdminCorrections).Inc()
	if a.corrections == nil {
		return corrections.NoMatchText
	}
	found, err := a.corrections.Find(ctx, query, corrections.DefaultLimit)
	if err != nil {
		logger.Get(ctx).Errorw("correction lookup failed", "error", err)
		return corrections.RenderError(err)
	}
	return corrections.Render(found)
}
