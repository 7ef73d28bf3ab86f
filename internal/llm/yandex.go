package llm

import (
	"context"
	"fmt"

	"github.com/Morwran/yagpt"
)

// YandexClient talks to YandexGPT. It has no function calling, so it only
// implements Client.
type YandexClient struct {
	ya       yagpt.YaGPTFace
	iamToken string
}

func NewYandex(oauthToken, folderID string) (*YandexClient, error) {
	iam, err := yagpt.NewYaIam(oauthToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init yandex iam: %w", err)
	}
	resp, err := iam.Create()
	if err != nil {
		return nil, fmt.Errorf("failed to create iam token: %w", err)
	}

	ya, err := yagpt.NewYagpt(folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to init yagpt: %w", err)
	}

	return &YandexClient{
		ya:       ya,
		iamToken: resp.IamToken,
	}, nil
}

func (c *YandexClient) Generate(ctx context.Context, messages []Message) (Response, error) {
	resp, err := c.ya.CompletionWithCtx(ctx, c.iamToken, toYandexMessages(messages))
	if err != nil {
		return Response{}, fmt.Errorf("yagpt completion failed: %w", err)
	}
	if resp == nil || len(resp.Alternatives) == 0 {
		return Response{}, fmt.Errorf("yagpt returned empty response")
	}
	out := Response{Content: resp.Alternatives[0].Message.Content, Model: yagpt.YaModelLite}
	out.PromptTokens = int(resp.Usage.InputTextTokens)
	out.CompletionTokens = int(resp.Usage.CompletionTokens)
	out.TotalTokens = int(resp.Usage.TotalTokens)
	return out, nil
}

func (c *YandexClient) GenerateText(ctx context.Context, systemPrompt string, prompt string) (Response, error) {
	var messages []Message
	if systemPrompt != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: systemPrompt})
	}
	messages = append(messages, Message{Role: RoleUser, Content: prompt})
	return c.Generate(ctx, messages)
}

// toYandexMessages maps roles onto the three YandexGPT understands. Tool
// results become user turns; empty assistant tool-call turns are dropped.
func toYandexMessages(messages []Message) []yagpt.Message {
	out := make([]yagpt.Message, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, yagpt.Message{Role: RoleSystem, Content: m.Content})
		case RoleAssistant:
			if m.Content == "" {
				continue
			}
			out = append(out, yagpt.Message{Role: RoleAssistant, Content: m.Content})
		default:
			out = append(out, yagpt.Message{Role: RoleUser, Content: m.Content})
		}
	}
	return out
}
