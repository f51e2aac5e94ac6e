// Package messages renders the texts and inline keyboards the bots send.
// Everything user supplied is escaped for Telegram Markdown.
package messages

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"medical-bots/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MaxPending caps the pending list; a long backlog would break Telegram's
// message and keyboard size limits.
const MaxPending = 10

const (
	stampLayout = "02.01.2006 15:04"

	// CardHeader opens every question card; the doctor bot recognizes
	// pasted cards by it.
	CardHeader = "❓ *НОВЕ ПИТАННЯ ВІД ПАЦІЄНТА*"

	btnAnswer  = "💬 Відповісти"
	btnDetails = "📋 Деталі"
	btnArchive = "📁 Архів"
	btnBack    = "🔙 Назад"
	btnCancel  = "❌ Скасувати"
)

var cardIDRx = regexp.MustCompile(`ID питання:\*?\s*([0-9A-Za-z-]+)`)

// Esc escapes s for ModeMarkdown.
func Esc(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func Stamp(t time.Time) string { return t.Format(stampLayout) }

// UserInfo is the multi-line patient block of question cards.
func UserInfo(u models.User) string {
	var b strings.Builder
	b.WriteString("🆔 ID: " + strconv.FormatInt(u.ID, 10) + "\n")
	if u.FirstName != "" {
		b.WriteString("👤 Ім'я: " + Esc(u.FirstName))
		if u.LastName != "" {
			b.WriteString(" " + Esc(u.LastName))
		}
		b.WriteString("\n")
	}
	if u.Username != "" {
		b.WriteString("📱 Username: @" + Esc(u.Username) + "\n")
	}
	return b.String()
}

// ---------- questions -------------------------------------------------------

func QuestionCard(q *models.Question) string {
	var b strings.Builder
	b.WriteString(CardHeader + "\n\n")
	b.WriteString("🆔 *ID питання:* " + q.ID + "\n")
	b.WriteString("📅 *Дата:* " + Stamp(q.Timestamp) + "\n\n")
	b.WriteString("👤 *Пацієнт:*\n" + UserInfo(q.Asker()) + "\n")
	b.WriteString("❓ *Питання:*\n" + Esc(q.Text) + "\n\n")
	if q.ContactInfo != "" {
		b.WriteString("📞 *Контакти:* " + Esc(q.ContactInfo) + "\n")
	}
	b.WriteString("📊 *Статус:* Очікує відповіді")
	return b.String()
}

func QuestionCardKeyboard(id string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(btnAnswer, Payload(ActAnswer, id))),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(btnDetails, Payload(ActViewQuestion, id))),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(btnArchive, Payload(ActArchive, id))),
	)
}

// ParseCardID pulls the question id out of a pasted question card.
func ParseCardID(text string) (string, bool) {
	if !strings.Contains(text, "НОВЕ ПИТАННЯ ВІД ПАЦІЄНТА") {
		return "", false
	}
	m := cardIDRx.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

var statusLabel = map[models.QuestionStatus]string{
	models.QuestionPending:  "⏳ Очікує відповіді",
	models.QuestionAnswered: "✅ Відповідь надана",
	models.QuestionArchived: "📁 В архіві",
}

func QuestionDetails(q *models.Question) string {
	var b strings.Builder
	b.WriteString("📋 *Деталі питання " + q.ID + "*\n\n")
	label, ok := statusLabel[q.Status]
	if !ok {
		label = Esc(string(q.Status))
	}
	b.WriteString("*Статус:* " + label + "\n")
	b.WriteString("📅 *Дата:* " + Stamp(q.Timestamp) + "\n\n")
	b.WriteString("👤 *Пацієнт:*\n" + UserInfo(q.Asker()) + "\n")
	b.WriteString("❓ *Питання:*\n" + Esc(q.Text) + "\n")
	if q.ContactInfo != "" {
		b.WriteString("\n📞 *Контакти:* " + Esc(q.ContactInfo) + "\n")
	}
	return b.String()
}

// QuestionDetailsKeyboard offers answering only while the question is pending.
func QuestionDetailsKeyboard(q *models.Question) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	if q.Status == models.QuestionPending {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnAnswer, Payload(ActAnswer, q.ID))))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(btnArchive, Payload(ActArchive, q.ID))))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func AnswerPrompt(q *models.Question) string {
	return "💬 *Відповідь на питання " + q.ID + "*\n\n" +
		"👤 *Пацієнт:* " + strconv.FormatInt(q.UserID, 10) + "\n" +
		"❓ *Питання:* " + Esc(q.Text) + "\n\n" +
		"📝 *Напишіть вашу відповідь:*"
}

func AnswerPromptKeyboard(id string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(btnCancel, Payload(ActViewQuestion, id))))
}

func Archived() string { return "📁 *Питання архівовано*" }

func ArchivedKeyboard(id string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(btnBack, Payload(ActViewQuestion, id))))
}

// AnswerToPatient is the doctor's reply as the patient sees it.
func AnswerToPatient(q *models.Question, answer string, at time.Time, siteURL string) string {
	var b strings.Builder
	b.WriteString("👩‍⚕️ *Відповідь від лікаря*\n\n")
	b.WriteString("❓ *Ваше питання:*\n" + Esc(q.Text) + "\n\n")
	b.WriteString("💬 *Відповідь:*\n" + Esc(answer) + "\n\n")
	b.WriteString("📅 *Дата відповіді:* " + Stamp(at) + "\n\n")
	b.WriteString("⚠️ *Важливо:* Ця відповідь не замінює очну консультацію. " +
		"При необхідності зверніться до лікаря особисто.")
	if siteURL != "" {
		b.WriteString("\n\n🌐 *Більше інформації на сайті:*\n" + Esc(siteURL))
	}
	return b.String()
}

// AnswerNotice tells the doctor channel an answer went out.
func AnswerNotice(q *models.Question, at time.Time) string {
	return "✅ *Відповідь відправлена пацієнту*\n\n" +
		"🆔 *ID питання:* " + q.ID + "\n" +
		"👤 *Пацієнт:* " + strconv.FormatInt(q.UserID, 10) + "\n" +
		"📅 *Час відповіді:* " + Stamp(at)
}

// PendingDigest lists the oldest MaxPending open questions and counts the rest.
func PendingDigest(qs []models.Question, now time.Time) string {
	if len(qs) == 0 {
		return "✅ *Немає питань, що очікують відповіді*"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "⏳ *Питань без відповіді: %d*\n\n", len(qs))
	for i, q := range firstPending(qs) {
		waited := now.Sub(q.Timestamp).Round(time.Minute)
		fmt.Fprintf(&b, "%d. %s (%s, чекає %s)\n", i+1, Esc(excerpt(q.Text, 60)), Stamp(q.Timestamp), waited)
	}
	if rest := len(qs) - MaxPending; rest > 0 {
		fmt.Fprintf(&b, "\n_…і ще %d. Відповідайте на найстаріші першими._", rest)
	}
	return b.String()
}

func PendingKeyboard(qs []models.Question) tgbotapi.InlineKeyboardMarkup {
	qs = firstPending(qs)
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(qs))
	for i, q := range qs {
		label := strconv.Itoa(i+1) + ". " + excerpt(q.Text, 30)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, Payload(ActViewQuestion, q.ID))))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func firstPending(qs []models.Question) []models.Question {
	if len(qs) > MaxPending {
		return qs[:MaxPending]
	}
	return qs
}

func excerpt(s string, n int) string {
	r := []rune(strings.Join(strings.Fields(s), " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "…"
}
