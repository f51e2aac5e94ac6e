// Package handlers routes Telegram updates for the three bots. Every bot has a
// single HandleUpdate entry point; callbacks go through one payload table and
// free text through one table keyed by session step.
package handlers

import (
	"context"
	"runtime/debug"

	"medical-bots/internal/messages"
	"medical-bots/internal/relay"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	ackNotFound = "❌ Не знайдено"
	ackStale    = "⌛ Ця кнопка вже неактуальна"
	ackError    = "❌ Помилка, спробуйте пізніше"
)

// UpdateHandler is implemented by every bot.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, upd tgbotapi.Update)
}

// Listen drains updates one at a time until ctx is done or the channel closes.
func Listen(ctx context.Context, updates <-chan tgbotapi.Update, h UpdateHandler) {
	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			h.HandleUpdate(ctx, upd)
		}
	}
}

// callbackFunc handles one callback action and returns the acknowledgment text.
type callbackFunc func(ctx context.Context, cq *tgbotapi.CallbackQuery, param string) string

type base struct {
	bot relay.Sender
	log *zap.Logger
}

// guard swallows a handler panic after logging it.
func (b *base) guard(upd tgbotapi.Update) {
	if r := recover(); r != nil {
		b.log.Error("handler panic",
			zap.Int("update_id", upd.UpdateID),
			zap.Any("panic", r),
			zap.ByteString("stack", debug.Stack()))
	}
}

// dispatch routes a callback through routes and always answers it, even when
// the handler panics.
func (b *base) dispatch(ctx context.Context, cq *tgbotapi.CallbackQuery, routes map[string]callbackFunc) {
	ack := ""
	defer func() { b.answer(cq.ID, ack) }()

	action, param, ok := messages.ParsePayload(cq.Data)
	h, found := routes[action]
	if !ok || !found {
		b.log.Debug("unknown callback", zap.String("data", cq.Data))
		ack = ackNotFound
		return
	}
	ack = h(ctx, cq, param)
}

func (b *base) answer(id, text string) {
	if _, err := b.bot.Request(tgbotapi.NewCallback(id, text)); err != nil {
		b.log.Warn("answer callback", zap.Error(err))
	}
}

// send posts a Markdown message. markup may be nil.
func (b *base) send(chatID int64, text string, markup any) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := b.bot.Send(msg); err != nil {
		b.log.Warn("send", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// edit replaces the text of the message carrying the pressed button, or sends
// a new message when there is nothing to edit.
func (b *base) edit(cq *tgbotapi.CallbackQuery, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	if cq.Message == nil {
		if kb != nil {
			b.send(cq.From.ID, text, *kb)
		} else {
			b.send(cq.From.ID, text, nil)
		}
		return
	}
	var cfg tgbotapi.EditMessageTextConfig
	if kb != nil {
		cfg = tgbotapi.NewEditMessageTextAndMarkup(cq.Message.Chat.ID, cq.Message.MessageID, text, *kb)
	} else {
		cfg = tgbotapi.NewEditMessageText(cq.Message.Chat.ID, cq.Message.MessageID, text)
	}
	cfg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.bot.Send(cfg); err != nil {
		b.log.Warn("edit", zap.Int64("chat_id", cq.Message.Chat.ID), zap.Error(err))
	}
}

// chatOf is the chat a callback came from.
func chatOf(cq *tgbotapi.CallbackQuery) int64 {
	if cq.Message != nil {
		return cq.Message.Chat.ID
	}
	return cq.From.ID
}

func kbPtr(kb tgbotapi.InlineKeyboardMarkup) *tgbotapi.InlineKeyboardMarkup { return &kb }
