package messages

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"medical-bots/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const qid = "01972f3e-7a4b-7c5d-8e9f-0a1b2c3d4e5f"

var asked = time.Date(2026, time.March, 10, 9, 15, 0, 0, time.UTC)

func question() *models.Question {
	return &models.Question{
		ID: qid, UserID: 42, ChatID: 42, Username: "olena_k", FirstName: "Олена",
		Text: "Кашель *2 тижні*", ContactInfo: "+380123456789",
		Status: models.QuestionPending, Timestamp: asked,
	}
}

func TestParsePayload(t *testing.T) {
	tests := []struct {
		data, action, param string
		ok                  bool
	}{
		{"answer_" + qid, ActAnswer, qid, true},
		{"view_question_" + qid, ActViewQuestion, qid, true},
		{"archive_abc", ActArchive, "abc", true},
		{"article_12", ActArticle, "12", true},
		{"category_Хірургія", ActCategory, "Хірургія", true},
		{"select_date_15.03.2026", ActSelectDate, "15.03.2026", true},
		{"select_time_19:30", ActSelectTime, "19:30", true},
		{"select_people_4", ActSelectPeople, "4", true},
		{"cancel_booking_lx1abcd", ActCancelBooking, "lx1abcd", true},
		{"add_booking", CbAddBooking, "", true},
		{"add_booking_text", CbAddBookingText, "", true},
		{"view_bookings", CbViewBookings, "", true},
		{"cancel_flow", CbCancelFlow, "", true},
		{"answer_", "", "", false},
		{"bogus", "", "", false},
		{"", "", "", false},
	}
	for _, tt := range tests {
		a, p, ok := ParsePayload(tt.data)
		if a != tt.action || p != tt.param || ok != tt.ok {
			t.Errorf("ParsePayload(%q) = %q, %q, %v; want %q, %q, %v", tt.data, a, p, ok, tt.action, tt.param, tt.ok)
		}
	}
}

func callbackData(kb tgbotapi.InlineKeyboardMarkup) []string {
	var res []string
	for _, row := range kb.InlineKeyboard {
		for _, b := range row {
			if b.CallbackData != nil {
				res = append(res, *b.CallbackData)
			}
		}
	}
	return res
}

func TestKeyboardsFitCallbackLimit(t *testing.T) {
	now := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	var dates []string
	for i := 0; i < 14; i++ {
		dates = append(dates, now.AddDate(0, 0, i).Format("02.01.2006"))
	}
	kbs := []tgbotapi.InlineKeyboardMarkup{
		QuestionCardKeyboard(qid),
		QuestionDetailsKeyboard(question()),
		CategoryKeyboard(),
		DateKeyboard(dates),
		TimeKeyboard([]string{"09:00", "22:00"}),
		PartySizeKeyboard([]int{1, 20}),
		BookingListKeyboard([]models.Booking{{ID: "mmkq0x9z3f7k2p1a"}}),
	}
	for i, kb := range kbs {
		for _, d := range callbackData(kb) {
			if len(d) > 64 {
				t.Errorf("keyboard %d: callback %q is %d bytes", i, d, len(d))
			}
			if _, _, ok := ParsePayload(d); !ok {
				t.Errorf("keyboard %d: callback %q does not parse", i, d)
			}
		}
	}
}

func TestQuestionCard(t *testing.T) {
	card := QuestionCard(question())
	if !strings.HasPrefix(card, CardHeader) {
		t.Fatalf("card header missing:\n%s", card)
	}
	for _, want := range []string{qid, "10.03.2026 09:15", `olena\_k`, `Кашель \*2 тижні\*`, "+380123456789"} {
		if !strings.Contains(card, want) {
			t.Errorf("card lacks %q:\n%s", want, card)
		}
	}

	got := callbackData(QuestionCardKeyboard(qid))
	want := []string{"answer_" + qid, "view_question_" + qid, "archive_" + qid}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("card buttons = %v, want %v", got, want)
	}
}

func TestParseCardID(t *testing.T) {
	// a forwarded card arrives with markdown stripped
	plain := strings.ReplaceAll(QuestionCard(question()), "*", "")
	if id, ok := ParseCardID(plain); !ok || id != qid {
		t.Fatalf("ParseCardID(plain) = %q, %v", id, ok)
	}
	if id, ok := ParseCardID(QuestionCard(question())); !ok || id != qid {
		t.Fatalf("ParseCardID(markdown) = %q, %v", id, ok)
	}
	if _, ok := ParseCardID("ID питання: 123"); ok {
		t.Fatal("ParseCardID accepted text without the card header")
	}
}

func TestQuestionDetailsKeyboard(t *testing.T) {
	q := question()
	if n := len(callbackData(QuestionDetailsKeyboard(q))); n != 2 {
		t.Fatalf("pending details buttons = %d, want 2", n)
	}
	q.Status = models.QuestionAnswered
	got := callbackData(QuestionDetailsKeyboard(q))
	if len(got) != 1 || got[0] != "archive_"+qid {
		t.Fatalf("answered details buttons = %v", got)
	}
}

func TestSearchResults(t *testing.T) {
	var arts []models.Article
	for i := 1; i <= 7; i++ {
		arts = append(arts, models.Article{ID: i, Title: "Стаття " + strconv.Itoa(i)})
	}
	text := SearchResults("рак", arts)
	if !strings.Contains(text, "Знайшов 7 статей") || !strings.Contains(text, "Показано 5 з 7") {
		t.Fatalf("SearchResults:\n%s", text)
	}
	if strings.Contains(text, "Стаття 6") {
		t.Fatalf("SearchResults shows more than 5:\n%s", text)
	}
	if n := len(callbackData(SearchResultsKeyboard(arts))); n != 7 {
		t.Fatalf("SearchResultsKeyboard buttons = %d, want 5 articles + 2", n)
	}

	short := SearchResults("рак", arts[:3])
	if strings.Contains(short, "Показано") {
		t.Fatalf("footer shown for 3 results:\n%s", short)
	}
}

func TestArticleView(t *testing.T) {
	a := &models.Article{ID: 9, Title: "Біопсія", Category: "Діагностика",
		Content: models.ArticleContent{Intro: "Вступ", Sections: []models.ArticleSection{{Heading: "Підготовка"}}}}
	text := ArticleView(a, "https://example.com/")
	if !strings.Contains(text, "1. Підготовка") || !strings.Contains(text, "example.com/article/9") {
		t.Fatalf("ArticleView:\n%s", text)
	}
	kb := ArticleKeyboard(a, "https://example.com/")
	if u := kb.InlineKeyboard[0][0].URL; u == nil || *u != "https://example.com/article/9" {
		t.Fatalf("article URL button = %v", u)
	}
}

func TestAnswerToPatient(t *testing.T) {
	at := asked.Add(3 * time.Hour)
	text := AnswerToPatient(question(), "Пийте _тепле_", at, "https://example.com")
	for _, want := range []string{`Кашель \*2 тижні\*`, `Пийте \_тепле\_`, "10.03.2026 12:15", "не замінює очну консультацію"} {
		if !strings.Contains(text, want) {
			t.Errorf("answer lacks %q:\n%s", want, text)
		}
	}
	notice := AnswerNotice(question(), at)
	if !strings.Contains(notice, qid) || !strings.Contains(notice, "42") {
		t.Fatalf("AnswerNotice:\n%s", notice)
	}
}

func TestPendingDigest(t *testing.T) {
	if !strings.Contains(PendingDigest(nil, asked), "Немає питань") {
		t.Fatal("empty digest")
	}
	qs := []models.Question{*question(), *question()}
	text := PendingDigest(qs, asked.Add(90*time.Minute))
	if !strings.Contains(text, "Питань без відповіді: 2") || !strings.Contains(text, "1h30m") {
		t.Fatalf("PendingDigest:\n%s", text)
	}
	if n := len(callbackData(PendingKeyboard(qs))); n != 2 {
		t.Fatalf("PendingKeyboard buttons = %d", n)
	}
}

func TestPendingDigestCapped(t *testing.T) {
	qs := make([]models.Question, 40)
	for i := range qs {
		q := question()
		q.ID = strconv.Itoa(i)
		q.Text = strings.Repeat("Болить горло і температура ", 20)
		qs[i] = *q
	}
	text := PendingDigest(qs, asked.Add(time.Hour))
	if !strings.Contains(text, "Питань без відповіді: 40") {
		t.Fatalf("PendingDigest header:\n%s", text)
	}
	if !strings.Contains(text, "і ще 30") {
		t.Fatalf("PendingDigest lacks the remainder line:\n%s", text)
	}
	if strings.Contains(text, "\n11. ") {
		t.Fatalf("PendingDigest lists past %d:\n%s", MaxPending, text)
	}
	if n := len([]rune(text)); n > 4096 {
		t.Fatalf("PendingDigest length = %d, want <= 4096", n)
	}
	kb := PendingKeyboard(qs)
	if n := len(kb.InlineKeyboard); n != MaxPending {
		t.Fatalf("PendingKeyboard rows = %d, want %d", n, MaxPending)
	}
	if got := kb.InlineKeyboard[0][0].CallbackData; got == nil || *got != Payload(ActViewQuestion, "0") {
		t.Fatalf("first button = %v, want oldest question", got)
	}

	short := PendingDigest(qs[:MaxPending], asked)
	if strings.Contains(short, "і ще") {
		t.Fatalf("PendingDigest at the cap adds a remainder line:\n%s", short)
	}
}

func TestBookingTexts(t *testing.T) {
	b := &models.Booking{ID: "mmkq0x9z3f7k2p1a", Date: "15.03.2026", Time: "19:30",
		NumberOfPeople: 4, Status: models.BookingConfirmed}
	text := BookingCreated(b)
	for _, want := range []string{"15.03.2026", "19:30", "Кількість осіб: 4", b.ID, "Підтверджено"} {
		if !strings.Contains(text, want) {
			t.Errorf("BookingCreated lacks %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "Телефон") {
		t.Error("BookingCreated shows an empty phone")
	}

	if !strings.Contains(BookingMenu(nil), "немає активних броней") {
		t.Error("BookingMenu(nil)")
	}
	if !strings.Contains(BookingMenu([]models.Booking{*b}), "*1* активних броней") {
		t.Error("BookingMenu(1)")
	}
	if n := len(callbackData(BookingMenuKeyboard(false))); n != 2 {
		t.Errorf("BookingMenuKeyboard(false) = %d buttons", n)
	}

	if !strings.Contains(PromptDate(models.FlowText, 1, 4), "Крок 1 з 4") {
		t.Error("PromptDate step header")
	}
}
