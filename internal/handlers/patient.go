package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"medical-bots/internal/api"
	"medical-bots/internal/messages"
	"medical-bots/internal/models"
	"medical-bots/internal/relay"
	"medical-bots/internal/storage"

	"github.com/go-playground/validator/v10"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

var validate = validator.New()

// Articles is the content backend the patient bot reads from.
type Articles interface {
	SearchArticles(ctx context.Context, query string) ([]models.Article, error)
	GetArticle(ctx context.Context, id int) (*models.Article, error)
	ByCategory(ctx context.Context, category string) ([]models.Article, error)
	SendContact(ctx context.Context, msg models.ContactMessage) error
}

type QuestionRelay interface {
	RelayQuestion(ctx context.Context, q *models.Question) relay.Delivery
}

type PatientConfig struct {
	FrontendURL string
	// ContactMirror also files every captured question in the site's contact inbox.
	ContactMirror bool
}

// PatientBot searches articles and takes questions for the doctor.
type PatientBot struct {
	base
	articles Articles
	ledger   storage.Ledger
	sessions storage.Sessions
	relay    QuestionRelay
	cfg      PatientConfig

	routes map[string]callbackFunc
	steps  map[models.Step]textFunc
}

// textFunc handles free text for a session waiting in a given step.
type textFunc func(ctx context.Context, msg *tgbotapi.Message, s *models.Session)

func NewPatientBot(bot relay.Sender, articles Articles, ledger storage.Ledger, sessions storage.Sessions,
	qr QuestionRelay, cfg PatientConfig, log *zap.Logger) *PatientBot {
	p := &PatientBot{
		base:     base{bot: bot, log: log.Named("patient")},
		articles: articles,
		ledger:   ledger,
		sessions: sessions,
		relay:    qr,
		cfg:      cfg,
	}
	p.routes = map[string]callbackFunc{
		messages.CbSearchArticles: p.onSearch,
		messages.CbCategories:     p.onCategories,
		messages.ActCategory:      p.onCategory,
		messages.ActArticle:       p.onArticle,
		messages.CbAskDoctor:      p.onAskDoctor,
		messages.CbBackToMain:     p.onBackToMain,
	}
	p.steps = map[models.Step]textFunc{
		models.StepAwaitingQuestion: p.captureQuestion,
	}
	return p
}

func (p *PatientBot) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	defer p.guard(upd)

	switch {
	case upd.Message != nil:
		p.handleMessage(ctx, upd.Message)
	case upd.CallbackQuery != nil:
		p.dispatch(ctx, upd.CallbackQuery, p.routes)
	}
}

func (p *PatientBot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			p.drop(ctx, msg.From.ID)
			p.send(chatID, messages.Welcome(), messages.MainReplyKeyboard())
		case "help":
			p.send(chatID, messages.Help(p.cfg.FrontendURL), messages.MainReplyKeyboard())
		}
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	// A trigger typed while already asking re-enters ask mode instead of
	// becoming the question.
	if isAskTrigger(text) {
		p.enterAskMode(ctx, msg.From.ID)
		p.send(chatID, messages.AskDoctorPrompt(), messages.BackKeyboard())
		return
	}

	// The reply keyboard stays visible in ask mode; its buttons leave it
	// rather than becoming the question.
	switch text {
	case messages.BtnSearch:
		p.drop(ctx, msg.From.ID)
		p.send(chatID, searchPrompt, tgbotapi.NewRemoveKeyboard(true))
		return
	case messages.BtnCats:
		p.drop(ctx, msg.From.ID)
		p.send(chatID, messages.CategoryList(), messages.CategoryKeyboard())
		return
	}

	s, err := p.sessions.Get(ctx, msg.From.ID)
	if err != nil {
		p.log.Error("load session", zap.Int64("user_id", msg.From.ID), zap.Error(err))
	}
	if s.Active() {
		if h, ok := p.steps[s.Step]; ok {
			h(ctx, msg, s)
			return
		}
	}
	p.search(ctx, chatID, text)
}

const searchPrompt = "🔍 Напишіть ключові слова для пошуку статей:"

func (p *PatientBot) search(ctx context.Context, chatID int64, query string) {
	p.send(chatID, "🔍 Шукаю інформацію...", tgbotapi.NewRemoveKeyboard(true))

	found, err := p.articles.SearchArticles(ctx, query)
	if err != nil {
		p.log.Error("search articles", zap.String("query", query), zap.Error(err))
		p.send(chatID, "❌ Помилка при пошуку. Спробуйте пізніше.", messages.MainReplyKeyboard())
		return
	}
	if len(found) == 0 {
		p.send(chatID, messages.NoResults(query), messages.NoResultsKeyboard())
		return
	}
	p.send(chatID, messages.SearchResults(query, found), messages.SearchResultsKeyboard(found))
}

// enterAskMode overwrites any session of the user, so asking twice still
// captures one question.
func (p *PatientBot) enterAskMode(ctx context.Context, userID int64) {
	s := &models.Session{Key: userID, Step: models.StepAwaitingQuestion}
	if err := p.sessions.Put(ctx, s); err != nil {
		p.log.Error("save session", zap.Int64("user_id", userID), zap.Error(err))
	}
}

func (p *PatientBot) drop(ctx context.Context, userID int64) {
	if err := p.sessions.Delete(ctx, userID); err != nil {
		p.log.Error("delete session", zap.Int64("user_id", userID), zap.Error(err))
	}
}

// captureQuestion takes the message as the question body. Ask mode ends here
// whether or not delivery works.
func (p *PatientBot) captureQuestion(ctx context.Context, msg *tgbotapi.Message, _ *models.Session) {
	p.drop(ctx, msg.From.ID)
	chatID := msg.Chat.ID
	u := userOf(msg.From)

	q := &models.Question{
		UserID:      u.ID,
		ChatID:      chatID,
		Username:    u.Username,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Text:        strings.TrimSpace(msg.Text),
		ContactInfo: contactInfo(msg.Text),
	}
	if err := validate.Struct(q); err != nil {
		p.send(chatID, messages.QuestionFailed(), messages.MainInlineKeyboard())
		return
	}
	id, err := p.ledger.Save(ctx, q)
	if err != nil {
		p.log.Error("save question", zap.Int64("user_id", u.ID), zap.Error(err))
		p.send(chatID, messages.QuestionFailed(), messages.MainInlineKeyboard())
		return
	}
	log := p.log.With(zap.String("question_id", id), zap.Int64("user_id", u.ID))
	log.Info("question captured")

	d := p.relay.RelayQuestion(ctx, q)
	if !d.Delivered {
		p.send(chatID, messages.QuestionFailed(), messages.MainInlineKeyboard())
	} else {
		p.send(chatID, messages.QuestionSent(), messages.MainInlineKeyboard())
	}

	if p.cfg.ContactMirror {
		phone, email := contacts(q.Text)
		cm := models.ContactMessage{Name: displayName(u), Email: email, Phone: phone, Message: q.Text}
		if err := p.articles.SendContact(ctx, cm); err != nil {
			log.Warn("mirror question to contact inbox", zap.Error(err))
		}
	}
}

// ---------- callbacks -------------------------------------------------------

func (p *PatientBot) onSearch(ctx context.Context, cq *tgbotapi.CallbackQuery, _ string) string {
	p.drop(ctx, cq.From.ID)
	p.send(chatOf(cq), searchPrompt, tgbotapi.NewRemoveKeyboard(true))
	return ""
}

func (p *PatientBot) onCategories(_ context.Context, cq *tgbotapi.CallbackQuery, _ string) string {
	p.edit(cq, messages.CategoryList(), kbPtr(messages.CategoryKeyboard()))
	return ""
}

func (p *PatientBot) onCategory(ctx context.Context, cq *tgbotapi.CallbackQuery, category string) string {
	list, err := p.articles.ByCategory(ctx, category)
	if err != nil {
		p.log.Error("category articles", zap.String("category", category), zap.Error(err))
		return "❌ Помилка при завантаженні статей"
	}
	p.edit(cq, messages.CategoryArticles(category, list), kbPtr(messages.CategoryArticlesKeyboard(list)))
	return ""
}

func (p *PatientBot) onArticle(ctx context.Context, cq *tgbotapi.CallbackQuery, param string) string {
	id, err := strconv.Atoi(param)
	if err != nil {
		return "❌ Статтю не знайдено"
	}
	a, err := p.articles.GetArticle(ctx, id)
	if errors.Is(err, api.ErrNotFound) {
		return "❌ Статтю не знайдено"
	}
	if err != nil {
		p.log.Error("get article", zap.Int("article_id", id), zap.Error(err))
		return "❌ Помилка при завантаженні статті"
	}
	p.edit(cq, messages.ArticleView(a, p.cfg.FrontendURL), kbPtr(messages.ArticleKeyboard(a, p.cfg.FrontendURL)))
	return ""
}

func (p *PatientBot) onAskDoctor(ctx context.Context, cq *tgbotapi.CallbackQuery, _ string) string {
	p.enterAskMode(ctx, cq.From.ID)
	p.edit(cq, messages.AskDoctorPrompt(), kbPtr(messages.BackKeyboard()))
	return ""
}

func (p *PatientBot) onBackToMain(ctx context.Context, cq *tgbotapi.CallbackQuery, _ string) string {
	p.drop(ctx, cq.From.ID)
	p.edit(cq, "🏥 *Медичний бот*", kbPtr(messages.MainInlineKeyboard()))
	return ""
}
