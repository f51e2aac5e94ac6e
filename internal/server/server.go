// Package server exposes the read-only health and stats endpoints.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"medical-bots/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Bot describes one bot for /health and /stats. Running is flipped by the
// update loop of that bot.
type Bot struct {
	Key      string
	Name     string
	Username string
	Running  atomic.Bool
}

func (b *Bot) status() string {
	if b.Running.Load() {
		return "running"
	}
	return "stopped"
}

type Options struct {
	Bots          []*Bot
	Ledger        storage.Ledger
	Environment   string
	DoctorChannel string
	APIURL        string
}

type Server struct {
	opts   Options
	engine *gin.Engine
	log    *zap.Logger
	now    func() time.Time
}

func New(opts Options, log *zap.Logger) *Server {
	s := &Server{opts: opts, log: log.Named("http"), now: time.Now}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))
	r.GET("/health", s.health)
	r.GET("/stats", s.stats)
	s.engine = r
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info("listening", zap.String("addr", addr))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)))
	}
}

func (s *Server) health(c *gin.Context) {
	bots := make(map[string]string, len(s.opts.Bots))
	for _, b := range s.opts.Bots {
		bots[b.Key] = b.status()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      "OK",
		"timestamp":   s.now().UTC().Format(time.RFC3339Nano),
		"bots":        bots,
		"environment": s.opts.Environment,
	})
}

func (s *Server) stats(c *gin.Context) {
	bots := make(map[string]gin.H, len(s.opts.Bots))
	for _, b := range s.opts.Bots {
		bots[b.Key] = gin.H{"name": b.Name, "status": b.status(), "username": b.Username}
	}
	pending, err := s.opts.Ledger.ListPending(c.Request.Context())
	if err != nil {
		s.log.Error("stats: list pending", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"timestamp":        s.now().UTC().Format(time.RFC3339Nano),
		"bots":             bots,
		"doctorChannel":    s.opts.DoctorChannel,
		"apiUrl":           s.opts.APIURL,
		"pendingQuestions": len(pending),
	})
}
