package llm

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

type Message struct {
	Role    string
	Content string
	// ToolCalls is set on assistant messages that requested tools.
	ToolCalls []ToolCall
	// ToolCallID links a tool result message to its call.
	ToolCallID string
}

type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	ToolCalls        []ToolCall
}

type Client interface {
	Generate(ctx context.Context, messages []Message) (Response, error)
}

// ToolCaller is implemented by providers that support function calling.
type ToolCaller interface {
	Client
	GenerateWithTools(ctx context.Context, messages []Message, tools []Tool) (Response, error)
}

type Tool struct {
	Type     string
	Function Function
}

type Function struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

type ToolCall struct {
	ID       string
	Type     string
	Function FunctionCall
}

type FunctionCall struct {
	Name      string
	Arguments map[string]interface{}
	// RawArguments is the provider's original JSON, echoed back on follow-up turns.
	RawArguments string
}

// StringArg returns a string argument or "" when absent.
func (f FunctionCall) StringArg(name string) string {
	v, _ := f.Arguments[name].(string)
	return v
}
