package llm

const (
	ToolKnowledgeBase    = "get_knowledge_base_information"
	ToolAdminCorrections = "get_relevant_admin_corrections"
)

// AgentTools returns the tools offered to the assistant model.
func AgentTools() []Tool {
	return []Tool{
		{
			Type: "function",
			Function: Function{
				Name:        ToolKnowledgeBase,
				Description: "Retrieves information about the company's services, policies and procedures from the knowledge base. Use it for any question about rentals, vehicles, pricing or rules.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"query": map[string]interface{}{
							"type":        "string",
							"description": "The user's question or search query",
						},
					},
					"required": []string{"query"},
				},
			},
		},
		{
			Type: "function",
			Function: Function{
				Name:        ToolAdminCorrections,
				Description: "Returns past administrator corrections to similar questions. Corrections override the knowledge base when they apply.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"user_query": map[string]interface{}{
							"type":        "string",
							"description": "The user's current question",
						},
					},
					"required": []string{"user_query"},
				},
			},
		},
	}
}
