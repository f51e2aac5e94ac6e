package handlers

import (
	"context"
	"errors"

	"medical-bots/internal/booking"
	"medical-bots/internal/messages"
	"medical-bots/internal/models"
	"medical-bots/internal/relay"
	"medical-bots/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// reissueAttempts bounds id regeneration when a new booking id collides.
const reissueAttempts = 3

// BookingBot runs the table booking forms; sessions are keyed by user.
type BookingBot struct {
	base
	wizard   *booking.Wizard
	bookings storage.Bookings
	sessions storage.Sessions

	routes map[string]callbackFunc
}

type selectFunc func(s *models.Session, value string) (booking.Result, error)

func NewBookingBot(bot relay.Sender, w *booking.Wizard, bookings storage.Bookings, sessions storage.Sessions, log *zap.Logger) *BookingBot {
	b := &BookingBot{
		base:     base{bot: bot, log: log.Named("booking")},
		wizard:   w,
		bookings: bookings,
		sessions: sessions,
	}
	b.routes = map[string]callbackFunc{
		messages.CbAddBooking:     b.startFlow(models.FlowButtons),
		messages.CbAddBookingText: b.startFlow(models.FlowText),
		messages.ActSelectDate:    b.selectStep(w.SelectDate),
		messages.ActSelectTime:    b.selectStep(w.SelectTime),
		messages.ActSelectPeople:  b.selectStep(w.SelectPeople),
		messages.CbSkipPhone:      b.onSkipPhone,
		messages.CbCancelFlow:     b.onMenu,
		messages.CbBackToMain:     b.onMenu,
		messages.CbViewBookings:   b.onViewBookings,
		messages.ActCancelBooking: b.onCancelBooking,
	}
	return b
}

func (b *BookingBot) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	defer b.guard(upd)

	switch {
	case upd.Message != nil:
		b.handleMessage(ctx, upd.Message)
	case upd.CallbackQuery != nil:
		b.dispatch(ctx, upd.CallbackQuery, b.routes)
	}
}

func (b *BookingBot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	userID, chatID := msg.From.ID, msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start", "menu":
			b.drop(ctx, userID)
			b.sendMenu(ctx, chatID, userID)
		case "cancel":
			b.drop(ctx, userID)
			b.send(chatID, "❌ Бронювання скасовано", messages.MainMenuKeyboard())
		}
		return
	}

	s, err := b.sessions.Get(ctx, userID)
	if err != nil {
		b.log.Error("load session", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	if !s.Active() || s.Flow != models.FlowText {
		b.send(chatID, "💡 Скористайтеся меню, щоб створити бронь.", messages.MainMenuKeyboard())
		return
	}

	res, err := b.wizard.Input(s, msg.Text)
	var verr *booking.ValidationError
	switch {
	case errors.As(err, &verr):
		b.send(chatID, invalidText(s.Step), messages.CancelFlowKeyboard())
		return
	case err != nil:
		b.log.Error("booking input", zap.Int64("user_id", userID), zap.Error(err))
		b.send(chatID, ackError, messages.MainMenuKeyboard())
		return
	}
	b.advance(ctx, chatID, s, res)
}

// advance persists the session after a transition, or the booking once the
// form is complete.
func (b *BookingBot) advance(ctx context.Context, chatID int64, s *models.Session, res booking.Result) {
	if res.Done() {
		b.persist(ctx, chatID, res.Booking)
		return
	}
	if err := b.sessions.Put(ctx, s); err != nil {
		b.log.Error("save session", zap.Int64("user_id", s.Key), zap.Error(err))
		b.send(chatID, ackError, messages.MainMenuKeyboard())
		return
	}
	text, kb := b.prompt(s)
	b.send(chatID, text, kb)
}

func (b *BookingBot) persist(ctx context.Context, chatID int64, bk *models.Booking) {
	b.drop(ctx, bk.UserID)

	var err error
	for i := 0; i < reissueAttempts; i++ {
		if err = b.bookings.Add(ctx, bk); !errors.Is(err, storage.ErrDuplicate) {
			break
		}
		b.wizard.Reissue(bk)
	}
	if err != nil {
		b.log.Error("save booking", zap.Int64("user_id", bk.UserID), zap.Error(err))
		b.send(chatID, "❌ Не вдалося зберегти бронь. Спробуйте ще раз.", messages.MainMenuKeyboard())
		return
	}
	b.log.Info("booking created",
		zap.String("booking_id", bk.ID),
		zap.Int64("user_id", bk.UserID),
		zap.String("status", string(bk.Status)))
	b.send(chatID, messages.BookingCreated(bk), messages.MainMenuKeyboard())
}

// prompt is the question and keyboard for the step s waits in.
func (b *BookingBot) prompt(s *models.Session) (string, any) {
	n, total := booking.StepNumber(s.Flow, s.Step)
	buttons := s.Flow == models.FlowButtons
	switch s.Step {
	case models.StepAwaitingDate:
		if buttons {
			return messages.PromptDate(s.Flow, n, total), messages.DateKeyboard(booking.DateOptions(b.wizard.Now()))
		}
		return messages.PromptDate(s.Flow, n, total), messages.CancelFlowKeyboard()
	case models.StepAwaitingTime:
		if buttons {
			return messages.PromptTime(s.Flow, n, total), messages.TimeKeyboard(booking.TimeSlots())
		}
		return messages.PromptTime(s.Flow, n, total), messages.CancelFlowKeyboard()
	case models.StepAwaitingPartySize:
		if buttons {
			return messages.PromptPartySize(s.Flow, n, total), messages.PartySizeKeyboard(booking.PartySizes())
		}
		return messages.PromptPartySize(s.Flow, n, total), messages.CancelFlowKeyboard()
	case models.StepAwaitingPhone:
		return messages.PromptPhone(n, total), messages.PhoneKeyboard()
	}
	return "Оберіть дію:", messages.MainMenuKeyboard()
}

func invalidText(step models.Step) string {
	switch step {
	case models.StepAwaitingDate:
		return messages.InvalidDate()
	case models.StepAwaitingTime:
		return messages.InvalidTime()
	case models.StepAwaitingPartySize:
		return messages.InvalidPartySize()
	}
	return messages.InvalidPhone()
}

func (b *BookingBot) sendMenu(ctx context.Context, chatID, userID int64) {
	text, kb := b.menu(ctx, userID)
	b.send(chatID, text, kb)
}

func (b *BookingBot) menu(ctx context.Context, userID int64) (string, tgbotapi.InlineKeyboardMarkup) {
	active, err := storage.ActiveBookings(ctx, b.bookings, userID)
	if err != nil {
		b.log.Error("list bookings", zap.Int64("user_id", userID), zap.Error(err))
	}
	return messages.BookingMenu(active), messages.BookingMenuKeyboard(len(active) > 0)
}

func (b *BookingBot) drop(ctx context.Context, userID int64) {
	if err := b.sessions.Delete(ctx, userID); err != nil {
		b.log.Error("delete session", zap.Int64("user_id", userID), zap.Error(err))
	}
}

// ---------- callbacks -------------------------------------------------------

// startFlow opens a new form, replacing any form already in progress.
func (b *BookingBot) startFlow(flow models.Flow) callbackFunc {
	return func(ctx context.Context, cq *tgbotapi.CallbackQuery, _ string) string {
		s := b.wizard.Start(userOf(cq.From), flow)
		if err := b.sessions.Put(ctx, s); err != nil {
			b.log.Error("save session", zap.Int64("user_id", s.Key), zap.Error(err))
			return ackError
		}
		text, kb := b.prompt(s)
		if ikb, ok := kb.(tgbotapi.InlineKeyboardMarkup); ok {
			b.edit(cq, text, &ikb)
		} else {
			b.send(chatOf(cq), text, kb)
		}
		return ""
	}
}

// selectStep applies a button choice. Buttons left over from an earlier form
// hit ErrWrongStep and only get a notice.
func (b *BookingBot) selectStep(apply selectFunc) callbackFunc {
	return func(ctx context.Context, cq *tgbotapi.CallbackQuery, value string) string {
		s, err := b.sessions.Get(ctx, cq.From.ID)
		if err != nil {
			b.log.Error("load session", zap.Int64("user_id", cq.From.ID), zap.Error(err))
			return ackError
		}
		res, err := apply(s, value)
		var verr *booking.ValidationError
		switch {
		case errors.Is(err, booking.ErrWrongStep):
			return ackStale
		case errors.As(err, &verr):
			return "❌ Невірне значення"
		case err != nil:
			b.log.Error("booking select", zap.Int64("user_id", cq.From.ID), zap.Error(err))
			return ackError
		}
		b.advance(ctx, chatOf(cq), s, res)
		return ""
	}
}

func (b *BookingBot) onSkipPhone(ctx context.Context, cq *tgbotapi.CallbackQuery, _ string) string {
	s, err := b.sessions.Get(ctx, cq.From.ID)
	if err != nil {
		return ackError
	}
	res, err := b.wizard.SkipPhone(s)
	if errors.Is(err, booking.ErrWrongStep) {
		return ackStale
	}
	if err != nil {
		b.log.Error("skip phone", zap.Int64("user_id", cq.From.ID), zap.Error(err))
		return ackError
	}
	b.advance(ctx, chatOf(cq), s, res)
	return ""
}

func (b *BookingBot) onMenu(ctx context.Context, cq *tgbotapi.CallbackQuery, _ string) string {
	b.drop(ctx, cq.From.ID)
	text, kb := b.menu(ctx, cq.From.ID)
	b.edit(cq, text, &kb)
	return ""
}

func (b *BookingBot) onViewBookings(ctx context.Context, cq *tgbotapi.CallbackQuery, _ string) string {
	active, err := storage.ActiveBookings(ctx, b.bookings, cq.From.ID)
	if err != nil {
		b.log.Error("list bookings", zap.Int64("user_id", cq.From.ID), zap.Error(err))
		return ackError
	}
	b.edit(cq, messages.BookingList(active), kbPtr(messages.BookingListKeyboard(active)))
	return ""
}

// onCancelBooking only reaches bookings of the pressing user.
func (b *BookingBot) onCancelBooking(ctx context.Context, cq *tgbotapi.CallbackQuery, id string) string {
	err := b.bookings.Cancel(ctx, cq.From.ID, id)
	if errors.Is(err, storage.ErrNotFound) {
		return "❌ Бронь не знайдена"
	}
	if err != nil {
		b.log.Error("cancel booking", zap.String("booking_id", id), zap.Error(err))
		return ackError
	}
	b.log.Info("booking cancelled", zap.String("booking_id", id), zap.Int64("user_id", cq.From.ID))
	b.onViewBookings(ctx, cq, "")
	return "✅ Бронь скасована"
}
