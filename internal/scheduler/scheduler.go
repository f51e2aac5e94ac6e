// Package scheduler runs the periodic jobs: dropping idle sessions and posting
// the pending question digest to the doctor channel.
package scheduler

import (
	"context"
	"time"

	"medical-bots/internal/messages"
	"medical-bots/internal/storage"

	"github.com/go-co-op/gocron/v2"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const sweepInterval = time.Minute

// Notifier posts to the doctor channel.
type Notifier interface {
	Notify(text string, kb *tgbotapi.InlineKeyboardMarkup) error
}

type Options struct {
	// Sessions are swept every minute when SweepSessions is set.
	Sessions      []storage.Sessions
	SweepSessions bool

	// DigestInterval 0 disables the digest.
	DigestInterval time.Duration
	Ledger         storage.Ledger
	Notifier       Notifier
}

// Start registers the enabled jobs and starts the scheduler.
func Start(opts Options, log *zap.Logger) (gocron.Scheduler, error) {
	log = log.Named("scheduler")
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	if opts.SweepSessions && len(opts.Sessions) > 0 {
		_, err = s.NewJob(
			gocron.DurationJob(sweepInterval),
			gocron.NewTask(func() {
				Sweep(context.Background(), opts.Sessions, time.Now(), log)
			}),
		)
		if err != nil {
			return nil, err
		}
	}

	if opts.DigestInterval > 0 && opts.Ledger != nil && opts.Notifier != nil {
		_, err = s.NewJob(
			gocron.DurationJob(opts.DigestInterval),
			gocron.NewTask(func() {
				if _, err := Digest(context.Background(), opts.Ledger, opts.Notifier, time.Now()); err != nil {
					log.Warn("pending digest", zap.Error(err))
				}
			}),
		)
		if err != nil {
			return nil, err
		}
	}

	s.Start()
	return s, nil
}

// Sweep drops expired sessions from every store and returns how many went.
func Sweep(ctx context.Context, stores []storage.Sessions, now time.Time, log *zap.Logger) int {
	total := 0
	for _, st := range stores {
		n, err := st.Sweep(ctx, now)
		if err != nil {
			log.Warn("sweep sessions", zap.Error(err))
			continue
		}
		total += n
	}
	if total > 0 {
		log.Info("idle sessions dropped", zap.Int("count", total))
	}
	return total
}

// Digest posts the list of pending questions. Nothing is sent when there are
// none; the returned count is the number of pending questions.
func Digest(ctx context.Context, ledger storage.Ledger, n Notifier, now time.Time) (int, error) {
	qs, err := ledger.ListPending(ctx)
	if err != nil {
		return 0, err
	}
	if len(qs) == 0 {
		return 0, nil
	}
	kb := messages.PendingKeyboard(qs)
	if err := n.Notify(messages.PendingDigest(qs, now), &kb); err != nil {
		return 0, err
	}
	return len(qs), nil
}
