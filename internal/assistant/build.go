package assistant

import (
	"context"
	"fmt"

	"fairbot/internal/config"
	"fairbot/internal/knowledge"
	"fairbot/internal/llm"
	"fairbot/internal/logger"
)

// FromConfig wires the chat service from configuration. It fails when the
// configured LLM provider cannot be built; a missing KNOWLEDGE_URL only
// disables the knowledge base tool.
func FromConfig(ctx context.Context, cfg *config.Config, rec Recorder, finder CorrectionFinder) (*Service, error) {
	client, err := llm.NewFactory(cfg).CreateClient(string(cfg.LLMProvider), "")
	if err != nil {
		return nil, fmt.Errorf("create llm client: %w", err)
	}
	prompt, err := LoadSystemPrompt(cfg.SystemPromptPath)
	if err != nil {
		return nil, err
	}

	var retriever knowledge.Retriever
	if cfg.KnowledgeURL != "" {
		retriever = knowledge.NewHTTPRetriever(cfg.KnowledgeURL, cfg.KnowledgeResults)
	} else {
		logger.Get(ctx).Warn("KNOWLEDGE_URL not set, answering without the knowledge base")
	}

	agent := NewAgent(client, retriever, finder,
		WithSystemPrompt(prompt),
		WithMaxSteps(cfg.AgentMaxSteps),
	)
	return NewService(rec, agent), nil
}
