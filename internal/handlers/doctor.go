package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"medical-bots/internal/messages"
	"medical-bots/internal/models"
	"medical-bots/internal/relay"
	"medical-bots/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type AnswerRelay interface {
	RelayAnswer(ctx context.Context, q *models.Question, answer string) relay.AnswerResult
}

// DoctorBot lets doctors read, answer and archive patient questions. It works
// in private chats and in the doctor channel, so sessions are keyed by chat.
type DoctorBot struct {
	base
	ledger   storage.Ledger
	sessions storage.Sessions
	relay    AnswerRelay
	now      func() time.Time

	routes map[string]callbackFunc
}

func NewDoctorBot(bot relay.Sender, ledger storage.Ledger, sessions storage.Sessions, ar AnswerRelay, log *zap.Logger) *DoctorBot {
	d := &DoctorBot{
		base:     base{bot: bot, log: log.Named("doctor")},
		ledger:   ledger,
		sessions: sessions,
		relay:    ar,
		now:      time.Now,
	}
	d.routes = map[string]callbackFunc{
		messages.ActAnswer:       d.onAnswer,
		messages.ActViewQuestion: d.onView,
		messages.ActArchive:      d.onArchive,
		messages.CbPending:       d.onPending,
	}
	return d
}

func (d *DoctorBot) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	defer d.guard(upd)

	switch {
	case upd.Message != nil:
		d.handleMessage(ctx, upd.Message)
	case upd.ChannelPost != nil:
		d.handleMessage(ctx, upd.ChannelPost)
	case upd.CallbackQuery != nil:
		d.dispatch(ctx, upd.CallbackQuery, d.routes)
	}
}

// handleMessage serves private messages and channel posts alike; From is nil
// for channel posts.
func (d *DoctorBot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			d.drop(ctx, chatID)
			d.send(chatID, doctorWelcome, nil)
		case "pending":
			d.sendPending(ctx, chatID)
		}
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	s, err := d.sessions.Get(ctx, chatID)
	if err != nil {
		d.log.Error("load session", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	if s.Active() && s.Step == models.StepAwaitingAnswer {
		d.submitAnswer(ctx, chatID, s, text)
		return
	}

	if id, ok := messages.ParseCardID(text); ok {
		q, err := d.ledger.Get(ctx, id)
		if err != nil {
			d.send(chatID, "❌ Питання не знайдено", nil)
			return
		}
		d.send(chatID, messages.QuestionDetails(q), messages.QuestionDetailsKeyboard(q))
		return
	}
	d.send(chatID, doctorHint, nil)
}

const (
	doctorWelcome = "👩‍⚕️ *Бот лікаря*\n\n" +
		"Сюди надходять питання пацієнтів. Натисніть «💬 Відповісти» під питанням, " +
		"щоб надіслати відповідь.\n\n/pending - питання без відповіді"
	doctorHint = "💡 Щоб відповісти пацієнту, натисніть «💬 Відповісти» під його питанням."
)

// submitAnswer ends the answer session whatever the outcome; the doctor can
// press the answer button again.
func (d *DoctorBot) submitAnswer(ctx context.Context, chatID int64, s *models.Session, answer string) {
	d.drop(ctx, chatID)

	q, err := d.ledger.Get(ctx, s.QuestionID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			d.log.Error("load question", zap.String("question_id", s.QuestionID), zap.Error(err))
		}
		d.send(chatID, "❌ Питання не знайдено", nil)
		return
	}

	res := d.relay.RelayAnswer(ctx, q, answer)
	switch {
	case !res.Delivered():
		d.send(chatID, "❌ Не вдалося доставити відповідь пацієнту. Спробуйте пізніше.",
			messages.QuestionDetailsKeyboard(q))
	case res.Ledger.Err != nil:
		d.send(chatID, "⚠️ Відповідь доставлено, але статус питання не оновлено.", nil)
	default:
		d.send(chatID, "✅ *Відповідь відправлена пацієнту*", nil)
	}
}

func (d *DoctorBot) sendPending(ctx context.Context, chatID int64) {
	qs, err := d.ledger.ListPending(ctx)
	if err != nil {
		d.log.Error("list pending", zap.Error(err))
		d.send(chatID, ackError, nil)
		return
	}
	d.send(chatID, messages.PendingDigest(qs, d.now()), messages.PendingKeyboard(qs))
}

func (d *DoctorBot) drop(ctx context.Context, chatID int64) {
	if err := d.sessions.Delete(ctx, chatID); err != nil {
		d.log.Error("delete session", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// ---------- callbacks -------------------------------------------------------

func (d *DoctorBot) onAnswer(ctx context.Context, cq *tgbotapi.CallbackQuery, id string) string {
	q, err := d.ledger.Get(ctx, id)
	if err != nil {
		return "❌ Питання не знайдено"
	}
	chatID := chatOf(cq)
	s := &models.Session{Key: chatID, Step: models.StepAwaitingAnswer, QuestionID: q.ID}
	if err := d.sessions.Put(ctx, s); err != nil {
		d.log.Error("save session", zap.Int64("chat_id", chatID), zap.Error(err))
		return ackError
	}
	d.edit(cq, messages.AnswerPrompt(q), kbPtr(messages.AnswerPromptKeyboard(q.ID)))
	return ""
}

func (d *DoctorBot) onView(ctx context.Context, cq *tgbotapi.CallbackQuery, id string) string {
	d.drop(ctx, chatOf(cq))
	q, err := d.ledger.Get(ctx, id)
	if err != nil {
		return "❌ Питання не знайдено"
	}
	d.edit(cq, messages.QuestionDetails(q), kbPtr(messages.QuestionDetailsKeyboard(q)))
	return ""
}

func (d *DoctorBot) onArchive(ctx context.Context, cq *tgbotapi.CallbackQuery, id string) string {
	err := d.ledger.UpdateStatus(ctx, id, models.QuestionArchived)
	if errors.Is(err, storage.ErrNotFound) {
		return "❌ Питання не знайдено"
	}
	if err != nil {
		d.log.Error("archive question", zap.String("question_id", id), zap.Error(err))
		return ackError
	}
	d.log.Info("question archived", zap.String("question_id", id))
	d.edit(cq, messages.Archived(), kbPtr(messages.ArchivedKeyboard(id)))
	return "✅ Питання архівовано"
}

func (d *DoctorBot) onPending(ctx context.Context, cq *tgbotapi.CallbackQuery, _ string) string {
	d.sendPending(ctx, chatOf(cq))
	return ""
}
