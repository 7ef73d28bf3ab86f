package mcptools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"fairbot/internal/apperrors"
	"fairbot/internal/assistant"
	"fairbot/internal/corrections"
	"fairbot/internal/history"
	"fairbot/internal/logger"
	"fairbot/internal/logstore"
)

type MatchCorrectionsParams struct {
	Query string `json:"query" mcp:"the user question to match against past corrections"`
	Limit int    `json:"limit,omitempty" mcp:"maximum number of corrections to return (default: 3)"`
}

type GetHistoryParams struct {
	SessionID string `json:"session_id,omitempty" mcp:"only return this session's interactions (optional)"`
	Page      int    `json:"page,omitempty" mcp:"1-based page number (default: 1)"`
	Limit     int    `json:"limit,omitempty" mcp:"interaction groups per page (default: 20)"`
}

type RecordCorrectionParams struct {
	SessionID           string `json:"session_id" mcp:"session of the corrected interaction"`
	InteractionID       string `json:"interaction_id" mcp:"id of the corrected interaction"`
	UserQuestion        string `json:"user_question" mcp:"the question the user asked"`
	OriginalAIResponse  string `json:"original_ai_response" mcp:"the answer that was given"`
	CorrectedAIResponse string `json:"corrected_ai_response" mcp:"the answer that should have been given"`
	AdminID             string `json:"admin_id,omitempty" mcp:"who made the correction (optional)"`
}

type AskParams struct {
	Question  string `json:"question" mcp:"the visitor's question"`
	SessionID string `json:"session_id,omitempty" mcp:"session to continue (optional)"`
}

type (
	CorrectionFinder interface {
		Find(ctx context.Context, query string, limit int) ([]corrections.Correction, error)
	}
	HistoryReader interface {
		GetHistory(ctx context.Context, sessionID string, page, pageSize int) (history.Page, error)
	}
	CorrectionWriter interface {
		RecordCorrection(ctx context.Context, in logstore.CorrectionInput) (logstore.Entry, error)
	}
	Chatter interface {
		Ask(ctx context.Context, sessionID, question string) (assistant.Reply, error)
	}
)

// Tools exposes the interaction log over MCP. Chat is optional; without it
// the ask tool is not registered.
type Tools struct {
	Matcher     CorrectionFinder
	History     HistoryReader
	Corrections CorrectionWriter
	Chat        Chatter
}

// Register adds the tools to server.
func (t *Tools) Register(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "match_corrections",
		Description: "Finds past admin corrections that share keywords with a question",
	}, t.MatchCorrections)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_history",
		Description: "Returns logged interactions grouped by exchange, most recent activity first",
	}, t.GetHistory)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "record_correction",
		Description: "Stores an admin correction for a past answer",
	}, t.RecordCorrection)

	if t.Chat != nil {
		mcp.AddTool(server, &mcp.Tool{
			Name:        "ask",
			Description: "Asks the rental assistant a question and logs the exchange",
		}, t.Ask)
	}
}

func (t *Tools) MatchCorrections(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[MatchCorrectionsParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	if args.Query == "" {
		return errorResult("query parameter is required"), nil
	}
	found, err := t.Matcher.Find(ctx, args.Query, args.Limit)
	if err != nil {
		logger.Get(ctx).Errorw("mcp match_corrections failed", "error", err)
		return errorResult(corrections.RenderError(err)), nil
	}
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{Text: corrections.Render(found)}},
		Meta:    map[string]interface{}{"count": len(found)},
	}, nil
}

func (t *Tools) GetHistory(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[GetHistoryParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	page, limit := args.Page, args.Limit
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = 20
	}
	out, err := t.History.GetHistory(ctx, args.SessionID, page, limit)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to retrieve history: %v", err)), nil
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal history: %w", err)
	}
	return textResult(string(data)), nil
}

func (t *Tools) RecordCorrection(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[RecordCorrectionParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	entry, err := t.Corrections.RecordCorrection(ctx, logstore.CorrectionInput{
		SessionID:        args.SessionID,
		InteractionID:    args.InteractionID,
		UserQuestion:     args.UserQuestion,
		OriginalResponse: args.OriginalAIResponse,
		CorrectedText:    args.CorrectedAIResponse,
		CorrectorID:      args.AdminID,
	})
	if err != nil {
		if fields := apperrors.MissingFields(err); fields != nil {
			return errorResult(fmt.Sprintf("Missing required fields for admin correction: %v", fields)), nil
		}
		return errorResult(fmt.Sprintf("Failed to save admin correction: %v", err)), nil
	}
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{Text: "Admin correction saved successfully."}},
		Meta: map[string]interface{}{
			"session_id":     entry.SessionID,
			"interaction_id": entry.InteractionID,
			"timestamp":      entry.Timestamp,
		},
	}, nil
}

func (t *Tools) Ask(ctx context.Context, _ *mcp.ServerSession, params *mcp.CallToolParamsFor[AskParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	if args.Question == "" {
		return errorResult("question parameter is required"), nil
	}
	reply, err := t.Chat.Ask(ctx, args.SessionID, args.Question)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to answer: %v", err)), nil
	}
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{Text: reply.Response}},
		Meta: map[string]interface{}{
			"session_id":     reply.SessionID,
			"interaction_id": reply.InteractionID,
		},
	}, nil
}

func textResult(text string) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResultFor[any] {
	return &mcp.CallToolResultFor[any]{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}
