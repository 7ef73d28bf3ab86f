package telegram

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"fairbot/internal/assistant"
)

const (
	resetCmd = "new_session"

	startText   = "Hi! I'm FairBot. Ask me anything about renting a car with Fairental."
	resetText   = "Started a new conversation."
	failureText = "Sorry, something went wrong. Please try again."
)

type Chatter interface {
	Ask(ctx context.Context, sessionID, question string) (assistant.Reply, error)
}

// Bot relays Telegram chats to the assistant. Each chat keeps one session
// until the user starts a new one.
type Bot struct {
	api  *tgbotapi.BotAPI
	s    sender
	chat Chatter
	log  *zap.SugaredLogger

	mu       sync.Mutex
	sessions map[int64]string
}

func New(botToken string, chat Chatter, log *zap.SugaredLogger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	b := newBot(botAPISender{api: api}, chat, log)
	b.api = api
	return b, nil
}

func newBot(s sender, chat Chatter, log *zap.SugaredLogger) *Bot {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Bot{
		s:        s,
		chat:     chat,
		log:      log,
		sessions: make(map[int64]string),
	}
}

// Start polls for updates until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.log.Infow("telegram bot started", "username", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message != nil {
		b.handleIncomingMessage(ctx, update.Message)
		return
	}
	if update.CallbackQuery != nil {
		b.handleCallback(update.CallbackQuery)
	}
}

func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start":
		b.sendMessage(chatID, startText)
		return
	case "new":
		b.resetSession(chatID)
		b.sendMessage(chatID, resetText)
		return
	}
	if msg.Text == "" {
		return
	}

	reply, err := b.chat.Ask(ctx, b.session(chatID), msg.Text)
	if err != nil {
		b.log.Errorw("chat request failed", "chat_id", chatID, "error", err)
		b.sendMessage(chatID, failureText)
		return
	}
	b.setSession(chatID, reply.SessionID)

	out := tgbotapi.NewMessage(chatID, reply.Response)
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("New conversation", resetCmd),
		),
	)
	if _, err := b.s.Send(out); err != nil {
		b.log.Errorw("failed to send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	if cb.Data != resetCmd || cb.Message == nil {
		return
	}
	b.resetSession(cb.Message.Chat.ID)
	b.sendMessage(cb.Message.Chat.ID, resetText)
}

// SendReport posts a plain-text report to chatID.
func (b *Bot) SendReport(chatID int64, text string) error {
	_, err := b.s.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (b *Bot) session(chatID int64) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessions[chatID]
}

func (b *Bot) setSession(chatID int64, sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions[chatID] = sessionID
}

func (b *Bot) resetSession(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sessions, chatID)
}

func (b *Bot) sendMessage(chatID int64, text string) {
	if _, err := b.s.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.log.Errorw("failed to send message", "chat_id", chatID, "error", err)
	}
}
