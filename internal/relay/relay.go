// Package relay moves questions from patients to the doctor channel and
// answers back to patients.
package relay

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"medical-bots/internal/messages"
	"medical-bots/internal/models"
	"medical-bots/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Cause classifies a failed delivery.
type Cause string

const (
	CauseNone            Cause = ""
	CauseChannelNotFound Cause = "channel_not_found"
	CauseForbidden       Cause = "forbidden"
	CauseMalformed       Cause = "malformed_request"
	CauseUnknown         Cause = "unknown"
)

// Classify maps a Telegram send error to a Cause.
func Classify(err error) Cause {
	if err == nil {
		return CauseNone
	}
	msg := strings.ToLower(err.Error())
	code := 0
	var te *tgbotapi.Error
	if errors.As(err, &te) {
		code = te.Code
		msg = strings.ToLower(te.Message)
	}
	switch {
	case strings.Contains(msg, "chat not found"):
		return CauseChannelNotFound
	case code == 403 || strings.Contains(msg, "forbidden"):
		return CauseForbidden
	case code == 400 || strings.Contains(msg, "bad request"):
		return CauseMalformed
	}
	return CauseUnknown
}

type Config struct {
	// ChannelID is the primary destination: a numeric chat id or "@channel".
	ChannelID string
	// ChatID is the doctor's private chat; empty or equal to ChannelID disables the copy.
	ChatID   string
	Attempts int
	Backoff  time.Duration
	// SiteURL is appended to answers sent to patients.
	SiteURL string
}

// Delivery is the outcome of RelayQuestion. Only the channel send decides
// Delivered; the private copy is reported on its own.
type Delivery struct {
	Delivered bool
	Attempts  int
	Cause     Cause
	Err       error

	PrivateAttempted bool
	PrivateDelivered bool
	PrivateErr       error
}

// StepResult is one step of the answer saga.
type StepResult struct {
	Done    bool
	Skipped bool
	Err     error
}

// AnswerResult records each saga step. A failed later step never reverts an
// earlier one.
type AnswerResult struct {
	Patient StepResult
	Ledger  StepResult
	Channel StepResult
}

func (r AnswerResult) Delivered() bool { return r.Patient.Done }

// Relay speaks to the doctor side through the doctor bot and to patients
// through the patient bot, since a bot can only message users who started it.
type Relay struct {
	doctor  Sender
	patient Sender
	ledger  storage.Ledger
	cfg     Config
	log     *zap.Logger
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
}

func New(doctor, patient Sender, ledger storage.Ledger, cfg Config, log *zap.Logger) *Relay {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	return &Relay{
		doctor:  doctor,
		patient: patient,
		ledger:  ledger,
		cfg:     cfg,
		log:     log.Named("relay"),
		now:     time.Now,
		sleep:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RelayQuestion posts the question card to the doctor channel, retrying with a
// fixed backoff, then copies it to the doctor's private chat when configured.
func (r *Relay) RelayQuestion(ctx context.Context, q *models.Question) Delivery {
	text := messages.QuestionCard(q)
	kb := messages.QuestionCardKeyboard(q.ID)
	log := r.log.With(zap.String("question_id", q.ID), zap.Int64("user_id", q.UserID))

	var d Delivery
	for d.Attempts < r.cfg.Attempts {
		d.Attempts++
		_, err := r.doctor.Send(card(r.cfg.ChannelID, text, kb))
		if err == nil {
			d.Delivered, d.Err = true, nil
			break
		}
		d.Err = err
		log.Warn("send to doctor channel failed", zap.Int("attempt", d.Attempts), zap.Error(err))
		if d.Attempts < r.cfg.Attempts {
			if err := r.sleep(ctx, r.cfg.Backoff); err != nil {
				break
			}
		}
	}

	if d.Delivered {
		log.Info("question sent to doctor channel", zap.Int("attempts", d.Attempts))
	} else {
		d.Cause = Classify(d.Err)
		log.Error("question not delivered",
			zap.String("cause", string(d.Cause)),
			zap.Int("attempts", d.Attempts),
			zap.Error(d.Err))
	}

	if r.cfg.ChatID != "" && r.cfg.ChatID != r.cfg.ChannelID {
		d.PrivateAttempted = true
		if _, err := r.doctor.Send(card(r.cfg.ChatID, text, kb)); err != nil {
			d.PrivateErr = err
			log.Warn("private copy failed", zap.String("cause", string(Classify(err))), zap.Error(err))
		} else {
			d.PrivateDelivered = true
		}
	}
	return d
}

// RelayAnswer sends the doctor's answer to the patient, marks the question
// answered and notifies the channel. When the patient send fails nothing else
// runs; a ledger failure does not stop the channel notice.
func (r *Relay) RelayAnswer(ctx context.Context, q *models.Question, answer string) AnswerResult {
	var res AnswerResult
	at := r.now()
	log := r.log.With(zap.String("question_id", q.ID), zap.Int64("user_id", q.UserID))

	chat := q.ChatID
	if chat == 0 {
		chat = q.UserID
	}
	msg := tgbotapi.NewMessage(chat, messages.AnswerToPatient(q, answer, at, r.cfg.SiteURL))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := r.patient.Send(msg); err != nil {
		res.Patient.Err = err
		res.Ledger.Skipped = true
		res.Channel.Skipped = true
		log.Error("answer not delivered to patient", zap.String("cause", string(Classify(err))), zap.Error(err))
		return res
	}
	res.Patient.Done = true

	if err := r.ledger.UpdateStatus(ctx, q.ID, models.QuestionAnswered); err != nil {
		res.Ledger.Err = err
		log.Error("mark answered failed", zap.Error(err))
	} else {
		res.Ledger.Done = true
	}

	notice := messages.AnswerNotice(q, at)
	if _, err := r.doctor.Send(card(r.cfg.ChannelID, notice, nil)); err != nil {
		res.Channel.Err = err
		log.Warn("answer notice failed", zap.String("cause", string(Classify(err))), zap.Error(err))
	} else {
		res.Channel.Done = true
	}

	log.Info("answer relayed",
		zap.Bool("ledger", res.Ledger.Done),
		zap.Bool("channel", res.Channel.Done))
	return res
}

// Notify posts a plain Markdown message to the doctor channel.
func (r *Relay) Notify(text string, kb *tgbotapi.InlineKeyboardMarkup) error {
	var markup any
	if kb != nil {
		markup = *kb
	}
	_, err := r.doctor.Send(card(r.cfg.ChannelID, text, markup))
	return err
}

// card addresses a Markdown message to a numeric chat id or a @channel name.
func card(dest, text string, markup any) tgbotapi.MessageConfig {
	var msg tgbotapi.MessageConfig
	if id, err := strconv.ParseInt(dest, 10, 64); err == nil {
		msg = tgbotapi.NewMessage(id, text)
	} else {
		msg = tgbotapi.NewMessageToChannel(dest, text)
	}
	msg.ParseMode = tgbotapi.ModeMarkdown
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	return msg
}
