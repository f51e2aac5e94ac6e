package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"medical-bots/internal/models"
	"medical-bots/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"
)

func init() { gin.SetMode(gin.TestMode) }

type brokenLedger struct{ storage.Ledger }

func (brokenLedger) ListPending(context.Context) ([]models.Question, error) {
	return nil, errors.New("database is locked")
}

func newTestServer(t *testing.T, ledger storage.Ledger) (*Server, []*Bot) {
	t.Helper()
	bots := []*Bot{
		{Key: "bot1", Name: "Article Search Bot", Username: "med_articles_bot"},
		{Key: "bot2", Name: "Doctor Questions Bot", Username: "med_doctor_bot"},
		{Key: "bot3", Name: "Table Booking Bot", Username: "med_booking_bot"},
	}
	bots[0].Running.Store(true)
	bots[1].Running.Store(true)
	s := New(Options{
		Bots:          bots,
		Ledger:        ledger,
		Environment:   "test",
		DoctorChannel: "@clinic_doctors",
		APIURL:        "http://api.local",
	}, zaptest.NewLogger(t))
	s.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	return s, bots
}

func get(t *testing.T, s *Server, path string) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("GET %s: bad json %q: %v", path, rec.Body.String(), err)
	}
	return rec.Code, body
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, storage.NewMemoryLedger(nil))

	code, body := get(t, s, "/health")
	if code != http.StatusOK || body["status"] != "OK" || body["environment"] != "test" {
		t.Fatalf("GET /health = %d %v", code, body)
	}
	if body["timestamp"] != "2026-03-10T12:00:00Z" {
		t.Errorf("timestamp = %v", body["timestamp"])
	}
	bots := body["bots"].(map[string]any)
	if bots["bot1"] != "running" || bots["bot2"] != "running" || bots["bot3"] != "stopped" {
		t.Errorf("bots = %v", bots)
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	ledger := storage.NewMemoryLedger(nil)
	for _, text := range []string{"Перше", "Друге", "Третє"} {
		if _, err := ledger.Save(ctx, &models.Question{UserID: 1, Text: text}); err != nil {
			t.Fatal(err)
		}
	}
	qs, _ := ledger.ListPending(ctx)
	if err := ledger.UpdateStatus(ctx, qs[0].ID, models.QuestionAnswered); err != nil {
		t.Fatal(err)
	}
	s, bots := newTestServer(t, ledger)
	bots[0].Running.Store(false)

	code, body := get(t, s, "/stats")
	if code != http.StatusOK {
		t.Fatalf("GET /stats = %d", code)
	}
	if body["pendingQuestions"] != float64(2) {
		t.Errorf("pendingQuestions = %v, want 2", body["pendingQuestions"])
	}
	if body["doctorChannel"] != "@clinic_doctors" || body["apiUrl"] != "http://api.local" {
		t.Errorf("body = %v", body)
	}
	b1 := body["bots"].(map[string]any)["bot1"].(map[string]any)
	if b1["status"] != "stopped" || b1["username"] != "med_articles_bot" || b1["name"] != "Article Search Bot" {
		t.Errorf("bot1 = %v", b1)
	}
}

func TestStatsLedgerError(t *testing.T) {
	s, _ := newTestServer(t, brokenLedger{})
	code, body := get(t, s, "/stats")
	if code != http.StatusInternalServerError || body["error"] != "Failed to get stats" {
		t.Errorf("GET /stats = %d %v", code, body)
	}
}

func TestCORS(t *testing.T) {
	s, _ := newTestServer(t, storage.NewMemoryLedger(nil))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://clinic.example")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s, _ := newTestServer(t, storage.NewMemoryLedger(nil))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}
