package relay

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

// Sender is the part of *tgbotapi.BotAPI the bots use.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Limited spaces outbound calls to stay under Telegram flood limits.
type Limited struct {
	Sender
	lim *rate.Limiter
}

// NewLimited wraps s with a limiter of perSec calls per second. perSec <= 0
// disables limiting.
func NewLimited(s Sender, perSec float64) *Limited {
	lim := rate.NewLimiter(rate.Inf, 0)
	if perSec > 0 {
		lim = rate.NewLimiter(rate.Limit(perSec), 1)
	}
	return &Limited{Sender: s, lim: lim}
}

func (l *Limited) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if err := l.lim.Wait(context.Background()); err != nil {
		return tgbotapi.Message{}, err
	}
	return l.Sender.Send(c)
}

func (l *Limited) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if err := l.lim.Wait(context.Background()); err != nil {
		return nil, err
	}
	return l.Sender.Request(c)
}
