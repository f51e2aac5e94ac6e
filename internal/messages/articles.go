package messages

import (
	"fmt"
	"strconv"
	"strings"

	"medical-bots/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MaxResults caps every article list.
const MaxResults = 5

type Category struct {
	Name  string
	Emoji string
	Desc  string
}

var Categories = []Category{
	{"Діагностика", "🔍", "Методи діагностики раку легень"},
	{"Лікування", "💊", "Сучасні методи лікування"},
	{"Профілактика", "🛡", "Профілактика захворювань"},
	{"Хірургія", "⚕️", "Хірургічні процедури"},
	{"Інновації", "🚀", "Новітні технології"},
	{"Реабілітація", "🏥", "Відновлення після лікування"},
}

const (
	BtnSearch    = "🔍 Пошук статей"
	BtnCats      = "📋 Категорії"
	BtnAskDoctor = "❓ Запитати у лікаря"
)

func Welcome() string {
	return "🏥 *Вітаємо в медичному боті!*\n\n" +
		"Я допоможу вам знайти корисну інформацію про:\n" +
		"• Рак легень та його діагностику\n" +
		"• Сучасні методи лікування\n" +
		"• Профілактику захворювань\n" +
		"• Хірургічні процедури\n" +
		"• Реабілітацію після лікування\n\n" +
		"🔍 *Як користуватися:*\n" +
		"• Напишіть ключові слова для пошуку\n" +
		"• Використовуйте кнопки нижче для швидкого доступу\n" +
		"• Якщо не знайшли потрібну інформацію, натисніть \"Запитати у лікаря\""
}

func Help(frontendURL string) string {
	var b strings.Builder
	b.WriteString("📖 *Довідка по боту*\n\n")
	b.WriteString("🔍 *Пошук статей:*\n• Напишіть будь-яке питання або ключові слова\n")
	b.WriteString("• Наприклад: \"симптоми раку\", \"діагностика\", \"лікування\"\n\n")
	b.WriteString("📋 *Категорії статей:*\n")
	for _, c := range Categories {
		b.WriteString("• " + c.Name + "\n")
	}
	b.WriteString("\n❓ *Якщо не знайшли відповідь:*\n• Натисніть \"Запитати у лікаря\"\n")
	b.WriteString("• Ваше питання буде передано доктору\n• Ви отримаєте персональну відповідь")
	if frontendURL != "" {
		b.WriteString("\n\n🌐 *Повна інформація на сайті:*\n" + Esc(frontendURL))
	}
	return b.String()
}

func MainReplyKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(BtnSearch),
			tgbotapi.NewKeyboardButton(BtnCats),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(BtnAskDoctor),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func MainInlineKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(BtnSearch, CbSearchArticles)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(BtnCats, CbCategories)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(BtnAskDoctor, CbAskDoctor)),
	)
}

func NoResults(query string) string {
	return "😔 *Не знайшов статей за запитом: \"" + Esc(query) + "\"*\n\n" +
		"💡 *Спробуйте:*\n" +
		"• Використати інші ключові слова\n" +
		"• Переглянути категорії статей\n" +
		"• Запитати у лікаря персонально"
}

func NoResultsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔍 Спробувати інший пошук", CbSearchArticles)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📋 Переглянути категорії", CbCategories)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(BtnAskDoctor, CbAskDoctor)),
	)
}

// SearchResults lists at most MaxResults articles, with a footer when more matched.
func SearchResults(query string, articles []models.Article) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔍 *Знайшов %d статей за запитом: \"%s\"*\n\n", len(articles), Esc(query))
	for i, a := range first(articles) {
		fmt.Fprintf(&b, "%d. *%s*\n", i+1, Esc(a.Title))
		b.WriteString("📅 " + Esc(a.Date) + " • ⏱ " + Esc(a.ReadTime) + "\n")
		b.WriteString("📝 " + Esc(a.Excerpt) + "\n\n")
	}
	if len(articles) > MaxResults {
		fmt.Fprintf(&b, "\n_Показано %d з %d статей. Уточніть пошук для більш точних результатів._",
			MaxResults, len(articles))
	}
	return b.String()
}

func SearchResultsKeyboard(articles []models.Article) tgbotapi.InlineKeyboardMarkup {
	rows := articleRows(articles)
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(BtnAskDoctor, CbAskDoctor)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(btnBack, CbBackToMain)),
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func ArticleURL(frontendURL string, id int) string {
	return strings.TrimRight(frontendURL, "/") + "/article/" + strconv.Itoa(id)
}

func ArticleView(a *models.Article, frontendURL string) string {
	var b strings.Builder
	b.WriteString("📖 *" + Esc(a.Title) + "*\n\n")
	b.WriteString("📅 " + Esc(a.Date) + " • ⏱ " + Esc(a.ReadTime) + "\n")
	b.WriteString("🏷 Категорія: " + Esc(a.Category) + "\n\n")
	if a.Content.Intro != "" {
		b.WriteString("📝 *Вступ:*\n" + Esc(a.Content.Intro) + "\n\n")
	}
	if len(a.Content.Sections) > 0 {
		b.WriteString("📋 *Основні розділи:*\n")
		for i, s := range a.Content.Sections {
			fmt.Fprintf(&b, "%d. %s\n", i+1, Esc(s.Heading))
		}
	}
	b.WriteString("\n🌐 *Читати повну статтю на сайті:*\n" + Esc(ArticleURL(frontendURL, a.ID)))
	return b.String()
}

func ArticleKeyboard(a *models.Article, frontendURL string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("🌐 Читати на сайті", ArticleURL(frontendURL, a.ID))),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(BtnAskDoctor, CbAskDoctor)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🔙 Назад до пошуку", CbBackToMain)),
	)
}

func CategoryList() string {
	var b strings.Builder
	b.WriteString("📋 *Категорії статей:*\n\n")
	for _, c := range Categories {
		b.WriteString(c.Emoji + " *" + c.Name + "*\n" + c.Desc + "\n\n")
	}
	return b.String()
}

func CategoryKeyboard() tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(Categories)+1)
	for _, c := range Categories {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(c.Emoji+" "+c.Name, Payload(ActCategory, c.Name))))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(btnBack, CbBackToMain)))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func CategoryArticles(category string, articles []models.Article) string {
	if len(articles) == 0 {
		return "😔 *В категорії \"" + Esc(category) + "\" поки немає статей.*"
	}
	var b strings.Builder
	b.WriteString("📋 *Категорія: " + Esc(category) + "*\n\n")
	for _, a := range first(articles) {
		b.WriteString("📖 *" + Esc(a.Title) + "*\n")
		b.WriteString("📅 " + Esc(a.Date) + " • ⏱ " + Esc(a.ReadTime) + "\n\n")
	}
	return b.String()
}

func CategoryArticlesKeyboard(articles []models.Article) tgbotapi.InlineKeyboardMarkup {
	rows := articleRows(articles)
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔙 Назад до категорій", CbCategories)))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func AskDoctorPrompt() string {
	return "❓ *Запитати у лікаря*\n\n" +
		"Якщо ви не знайшли потрібну інформацію в статтях, можете задати персональне питання лікарю.\n\n" +
		"📝 *Напишіть ваше питання:*\n" +
		"• Опишіть симптоми або проблему\n" +
		"• Вкажіть ваші контактні дані (телефон, email)\n" +
		"• Додайте будь-яку додаткову інформацію\n\n" +
		"⏰ *Час відповіді:* 24-48 годин"
}

func BackKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(btnBack, CbBackToMain)))
}

func QuestionSent() string {
	return "✅ *Ваше питання відправлено лікарю!*\n\n" +
		"⏰ Ви отримаєте відповідь протягом 24-48 годин.\n\n" +
		"💡 А поки що можете переглянути корисні статті:"
}

func QuestionFailed() string {
	return "❌ *Не вдалося передати питання лікарю.*\n\n" +
		"Спробуйте ще раз трохи пізніше."
}

func first(articles []models.Article) []models.Article {
	if len(articles) > MaxResults {
		return articles[:MaxResults]
	}
	return articles
}

func articleRows(articles []models.Article) [][]tgbotapi.InlineKeyboardButton {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, a := range first(articles) {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📖 "+a.Title, Payload(ActArticle, strconv.Itoa(a.ID)))))
	}
	return rows
}
