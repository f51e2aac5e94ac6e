package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"medical-bots/internal/api"
	"medical-bots/internal/booking"
	"medical-bots/internal/config"
	"medical-bots/internal/handlers"
	"medical-bots/internal/relay"
	"medical-bots/internal/scheduler"
	"medical-bots/internal/server"
	"medical-bots/internal/storage"
	"medical-bots/internal/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load() // BOT1_TOKEN etc.

	cfg, err := config.Load()
	utils.Must(err)

	log, err := utils.NewLogger(cfg.IsProduction(), cfg.LogLevel)
	utils.Must(err)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ledger, bookings, closeStore := openStores(cfg, log)
	defer closeStore()
	newSessions := sessionStores(ctx, cfg, log)

	patientAPI := newBotAPI(cfg.PatientToken, "patient", log)
	doctorAPI := newBotAPI(cfg.DoctorToken, "doctor", log)
	patientTG := relay.NewLimited(patientAPI, cfg.SendRatePerSec)
	doctorTG := relay.NewLimited(doctorAPI, cfg.SendRatePerSec)

	rel := relay.New(doctorTG, patientTG, ledger, relay.Config{
		ChannelID: cfg.DoctorChannelID,
		ChatID:    cfg.DoctorChatID,
		Attempts:  cfg.RelayAttempts,
		Backoff:   cfg.RelayBackoff,
		SiteURL:   cfg.FrontendURL,
	}, log)

	content := api.NewClient(cfg.APIBaseURL, api.WithTimeout(cfg.HTTPTimeout))
	patientSessions := newSessions("patient")
	doctorSessions := newSessions("doctor")

	patient := handlers.NewPatientBot(patientTG, content, ledger, patientSessions, rel, handlers.PatientConfig{
		FrontendURL:   cfg.FrontendURL,
		ContactMirror: cfg.ContactMirror,
	}, log)
	doctor := handlers.NewDoctorBot(doctorTG, ledger, doctorSessions, rel, log)

	bots := []*server.Bot{
		{Key: "bot1", Name: "Article Search Bot", Username: username(cfg.PatientUsername, patientAPI)},
		{Key: "bot2", Name: "Doctor Questions Bot", Username: username(cfg.DoctorUsername, doctorAPI)},
		{Key: "bot3", Name: "Table Booking Bot", Username: cfg.BookingUsername},
	}
	sessions := []storage.Sessions{patientSessions, doctorSessions}
	apis := []*tgbotapi.BotAPI{patientAPI, doctorAPI}

	var wg sync.WaitGroup
	listen(ctx, &wg, patientAPI, patient, bots[0])
	listen(ctx, &wg, doctorAPI, doctor, bots[1])

	if cfg.BookingToken != "" {
		bookingAPI := newBotAPI(cfg.BookingToken, "booking", log)
		bookingSessions := newSessions("booking")
		b := handlers.NewBookingBot(relay.NewLimited(bookingAPI, cfg.SendRatePerSec),
			booking.NewWizard(nil), bookings, bookingSessions, log)
		bots[2].Username = username(cfg.BookingUsername, bookingAPI)
		sessions = append(sessions, bookingSessions)
		apis = append(apis, bookingAPI)
		listen(ctx, &wg, bookingAPI, b, bots[2])
	} else {
		log.Warn("BOT3_TOKEN not set, booking bot disabled")
	}

	sched, err := scheduler.Start(scheduler.Options{
		Sessions:       sessions,
		SweepSessions:  cfg.SessionBackend == "memory" && cfg.SessionIdleTimeout > 0,
		DigestInterval: cfg.PendingDigestInterval,
		Ledger:         ledger,
		Notifier:       rel,
	}, log)
	utils.Must(err)

	srv := server.New(server.Options{
		Bots:          bots,
		Ledger:        ledger,
		Environment:   cfg.Env,
		DoctorChannel: cfg.DoctorChannelID,
		APIURL:        cfg.APIBaseURL,
	}, log)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Run(ctx, ":"+cfg.Port); err != nil {
			log.Error("http server", zap.Error(err))
			stop()
		}
	}()

	log.Info("bots started",
		zap.String("env", cfg.Env),
		zap.String("doctor_channel", cfg.DoctorChannelID),
		zap.String("storage", cfg.StorageDriver),
		zap.String("sessions", cfg.SessionBackend))

	<-ctx.Done()
	log.Info("shutting down")
	for _, a := range apis {
		a.StopReceivingUpdates()
	}
	if err := sched.Shutdown(); err != nil {
		log.Warn("scheduler shutdown", zap.Error(err))
	}
	wg.Wait()
}

func newBotAPI(token, name string, log *zap.Logger) *tgbotapi.BotAPI {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		log.Fatal("telegram login", zap.String("bot", name), zap.Error(err))
	}
	log.Info("authorized", zap.String("bot", name), zap.String("username", bot.Self.UserName))
	return bot
}

func username(configured string, bot *tgbotapi.BotAPI) string {
	if configured != "" {
		return configured
	}
	return bot.Self.UserName
}

// listen runs the update loop of one bot until ctx is done.
func listen(ctx context.Context, wg *sync.WaitGroup, bot *tgbotapi.BotAPI, h handlers.UpdateHandler, b *server.Bot) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)

	b.Running.Store(true)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer b.Running.Store(false)
		handlers.Listen(ctx, updates, h)
	}()
}

func openStores(cfg config.Config, log *zap.Logger) (storage.Ledger, storage.Bookings, func()) {
	if cfg.StorageDriver != "sqlite" {
		return storage.NewMemoryLedger(nil), storage.NewMemoryBookings(), func() {}
	}
	db, err := storage.New(cfg.SQLitePath)
	if err != nil {
		log.Fatal("open sqlite", zap.String("path", cfg.SQLitePath), zap.Error(err))
	}
	return db.Ledger(), db.Bookings(), func() { _ = db.Close() }
}

// sessionStores returns a constructor giving each bot its own namespace.
func sessionStores(ctx context.Context, cfg config.Config, log *zap.Logger) func(ns string) storage.Sessions {
	if cfg.SessionBackend != "redis" {
		return func(string) storage.Sessions {
			return storage.NewMemorySessions(cfg.SessionIdleTimeout, nil)
		}
	}
	client, err := storage.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal("connect redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	return func(ns string) storage.Sessions {
		return storage.NewRedisSessions(client, ns, cfg.SessionIdleTimeout)
	}
}
