package handlers

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"medical-bots/internal/api"
	"medical-bots/internal/messages"
	"medical-bots/internal/models"
	"medical-bots/internal/relay"
	"medical-bots/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap/zaptest"
)

type fakeArticles struct {
	mu       sync.Mutex
	list     []models.Article
	err      error
	panics   bool
	contacts []models.ContactMessage
}

func (f *fakeArticles) SearchArticles(_ context.Context, q string) ([]models.Article, error) {
	if f.panics {
		panic("search exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	return api.Filter(f.list, q), nil
}

func (f *fakeArticles) GetArticle(_ context.Context, id int) (*models.Article, error) {
	for i := range f.list {
		if f.list[i].ID == id {
			a := f.list[i]
			return &a, nil
		}
	}
	return nil, api.ErrNotFound
}

func (f *fakeArticles) ByCategory(_ context.Context, c string) ([]models.Article, error) {
	if f.panics {
		panic("category exploded")
	}
	var res []models.Article
	for _, a := range f.list {
		if strings.EqualFold(a.Category, c) {
			res = append(res, a)
		}
	}
	return res, nil
}

func (f *fakeArticles) SendContact(_ context.Context, m models.ContactMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contacts = append(f.contacts, m)
	return nil
}

var catalog = []models.Article{
	{ID: 1, Title: "Рентген грудної клітки", Excerpt: "Коли його призначають", Category: "Діагностика"},
	{ID: 2, Title: "Реабілітація після операції", Excerpt: "Перші тижні", Category: "Реабілітація"},
}

type patientFixture struct {
	bot      *PatientBot
	patient  *fakeSender
	doctor   *fakeSender
	articles *fakeArticles
	ledger   *storage.MemoryLedger
	sessions *storage.MemorySessions
}

func newPatientFixture(t *testing.T, cfg PatientConfig) *patientFixture {
	t.Helper()
	f := &patientFixture{
		patient:  &fakeSender{},
		doctor:   &fakeSender{},
		articles: &fakeArticles{list: catalog},
		ledger:   storage.NewMemoryLedger(nil),
		sessions: storage.NewMemorySessions(0, nil),
	}
	log := zaptest.NewLogger(t)
	r := relay.New(f.doctor, f.patient, f.ledger,
		relay.Config{ChannelID: "-1001", Attempts: 3, Backoff: time.Millisecond}, log)
	f.bot = NewPatientBot(f.patient, f.articles, f.ledger, f.sessions, r, cfg, log)
	return f
}

func (f *patientFixture) handle(upd tgbotapi.Update) {
	f.bot.HandleUpdate(context.Background(), upd)
}

func (f *patientFixture) pending(t *testing.T) []models.Question {
	t.Helper()
	qs, err := f.ledger.ListPending(context.Background())
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	return qs
}

func TestPatientQuestionDelivered(t *testing.T) {
	f := newPatientFixture(t, PatientConfig{})

	f.handle(callbackUpdate(42, 42, messages.CbAskDoctor))
	if got := f.patient.last(t); got != messages.AskDoctorPrompt() {
		t.Fatalf("prompt = %q", got)
	}
	f.handle(textUpdate(42, "кашель 2 тижні, мій номер +380671234567"))

	qs := f.pending(t)
	if len(qs) != 1 {
		t.Fatalf("pending = %d, want 1", len(qs))
	}
	q := qs[0]
	if q.Text != "кашель 2 тижні, мій номер +380671234567" || q.UserID != 42 || q.Username != "olena" {
		t.Errorf("question = %+v", q)
	}
	if q.ContactInfo != "+380671234567" {
		t.Errorf("contact info = %q", q.ContactInfo)
	}
	if got := f.patient.last(t); got != messages.QuestionSent() {
		t.Errorf("patient got %q, want the success text", got)
	}
	if n := len(f.doctor.texts()); n != 1 {
		t.Errorf("doctor channel got %d messages, want 1", n)
	}
	if f.sessions.Len() != 0 {
		t.Error("ask mode must end after the question is captured")
	}
}

func TestPatientQuestionRelayFails(t *testing.T) {
	f := newPatientFixture(t, PatientConfig{})
	f.doctor.fail = func(tgbotapi.Chattable) error {
		return &tgbotapi.Error{Code: 403, Message: "Forbidden: bot is not a member of the channel chat"}
	}

	f.handle(callbackUpdate(42, 42, messages.CbAskDoctor))
	f.handle(textUpdate(42, "кашель 2 тижні"))

	qs := f.pending(t)
	if len(qs) != 1 || qs[0].Text != "кашель 2 тижні" || qs[0].Status != models.QuestionPending {
		t.Fatalf("ledger = %+v, want one pending question", qs)
	}
	if f.doctor.calls != 3 {
		t.Errorf("relay attempts = %d, want 3", f.doctor.calls)
	}
	if got := f.patient.last(t); got != messages.QuestionFailed() {
		t.Errorf("patient got %q, want the failure text", got)
	}
}

func TestPatientAskModeIdempotent(t *testing.T) {
	f := newPatientFixture(t, PatientConfig{})

	f.handle(callbackUpdate(42, 42, messages.CbAskDoctor))
	f.handle(callbackUpdate(42, 42, messages.CbAskDoctor))
	f.handle(textUpdate(42, "Запитати лікаря"))
	f.handle(textUpdate(42, "болить спина"))
	f.handle(textUpdate(42, "рентген"))

	qs := f.pending(t)
	if len(qs) != 1 || qs[0].Text != "болить спина" {
		t.Fatalf("pending = %+v, want exactly one question", qs)
	}
	want := messages.SearchResults("рентген", api.Filter(catalog, "рентген"))
	if got := f.patient.last(t); got != want {
		t.Errorf("text after the question went to %q, want a search", got)
	}
}

func TestPatientReplyButtonsLeaveAskMode(t *testing.T) {
	f := newPatientFixture(t, PatientConfig{})

	f.handle(callbackUpdate(42, 42, messages.CbAskDoctor))
	f.handle(textUpdate(42, messages.BtnCats))
	if got := f.patient.last(t); got != messages.CategoryList() {
		t.Errorf("after %q got %q, want the category list", messages.BtnCats, got)
	}

	f.handle(textUpdate(42, messages.BtnAskDoctor))
	f.handle(textUpdate(42, messages.BtnSearch))
	if got := f.patient.last(t); got != searchPrompt {
		t.Errorf("after %q got %q, want the search prompt", messages.BtnSearch, got)
	}

	if qs := f.pending(t); len(qs) != 0 {
		t.Fatalf("pending = %+v, reply buttons must not become questions", qs)
	}
	if n := len(f.doctor.texts()); n != 0 {
		t.Errorf("doctor channel got %d messages, want 0", n)
	}
	if f.sessions.Len() != 0 {
		t.Error("reply buttons must end ask mode")
	}
}

func TestPatientSearch(t *testing.T) {
	f := newPatientFixture(t, PatientConfig{})

	f.handle(textUpdate(42, "рентген"))
	if got, want := f.patient.last(t), messages.SearchResults("рентген", catalog[:1]); got != want {
		t.Errorf("results = %q, want %q", got, want)
	}

	f.handle(textUpdate(42, "мігрень"))
	if got := f.patient.last(t); got != messages.NoResults("мігрень") {
		t.Errorf("no results = %q", got)
	}

	f.articles.err = errors.New("connection refused")
	f.handle(textUpdate(42, "рентген"))
	if got := f.patient.last(t); !strings.Contains(got, "Спробуйте пізніше") {
		t.Errorf("gateway failure = %q", got)
	}
}

func TestPatientArticleAndCategory(t *testing.T) {
	f := newPatientFixture(t, PatientConfig{FrontendURL: "https://clinic.example"})

	f.handle(callbackUpdate(42, 42, messages.Payload(messages.ActArticle, "1")))
	if got := f.patient.lastAck(t); got != "" {
		t.Errorf("ack = %q", got)
	}
	if got := f.patient.last(t); got != messages.ArticleView(&catalog[0], "https://clinic.example") {
		t.Errorf("article = %q", got)
	}

	for _, id := range []string{"99", "abc"} {
		f.handle(callbackUpdate(42, 42, messages.Payload(messages.ActArticle, id)))
		if got := f.patient.lastAck(t); got != "❌ Статтю не знайдено" {
			t.Errorf("article %s ack = %q", id, got)
		}
	}

	f.handle(callbackUpdate(42, 42, messages.Payload(messages.ActCategory, "Реабілітація")))
	if got := f.patient.last(t); got != messages.CategoryArticles("Реабілітація", catalog[1:]) {
		t.Errorf("category = %q", got)
	}
}

func TestPatientUnknownPayload(t *testing.T) {
	f := newPatientFixture(t, PatientConfig{})
	for _, data := range []string{"bogus", "article_", messages.CbAddBooking} {
		f.handle(callbackUpdate(42, 42, data))
		if got := f.patient.lastAck(t); got != ackNotFound {
			t.Errorf("%q ack = %q, want %q", data, got, ackNotFound)
		}
	}
}

func TestPatientPanicRecovered(t *testing.T) {
	f := newPatientFixture(t, PatientConfig{})
	f.articles.panics = true

	f.handle(textUpdate(42, "рентген"))
	f.handle(callbackUpdate(42, 42, messages.Payload(messages.ActCategory, "Хірургія")))
	if f.patient.ackCount() != 1 {
		t.Error("a panicking callback must still be answered")
	}
}

func TestPatientContactMirror(t *testing.T) {
	f := newPatientFixture(t, PatientConfig{ContactMirror: true})

	f.handle(callbackUpdate(42, 42, messages.CbAskDoctor))
	f.handle(textUpdate(42, "Чи потрібен рентген? olena@example.com"))

	if len(f.articles.contacts) != 1 {
		t.Fatalf("contacts = %d, want 1", len(f.articles.contacts))
	}
	c := f.articles.contacts[0]
	if c.Name != "Олена" || c.Email != "olena@example.com" || c.Message != "Чи потрібен рентген? olena@example.com" {
		t.Errorf("contact = %+v", c)
	}
}

func TestPatientStartClearsAskMode(t *testing.T) {
	f := newPatientFixture(t, PatientConfig{})

	f.handle(callbackUpdate(42, 42, messages.CbAskDoctor))
	f.handle(commandUpdate(42, "start"))
	f.handle(textUpdate(42, "рентген"))

	if qs := f.pending(t); len(qs) != 0 {
		t.Errorf("pending = %d, /start must leave ask mode", len(qs))
	}
}
