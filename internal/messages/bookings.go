package messages

import (
	"fmt"
	"strconv"
	"strings"

	"medical-bots/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	btnAddBooking = "➕ Додати бронь"
	btnAddText    = "⌨️ Ввести вручну"
	btnViewAll    = "📋 Переглянути броні"
	btnMainMenu   = "🏠 Головне меню"
	btnSkipPhone  = "⏭ Пропустити"
	btnCancelFlow = "❌ Скасувати"
)

const (
	datesPerRow     = 2
	timesPerRow     = 4
	partySizePerRow = 5
)

var bookingStatus = map[models.BookingStatus]string{
	models.BookingPending:   "⏳ Очікує підтвердження",
	models.BookingConfirmed: "✅ Підтверджено",
	models.BookingCancelled: "❌ Скасовано",
}

func BookingStatusLabel(s models.BookingStatus) string {
	if l, ok := bookingStatus[s]; ok {
		return l
	}
	return "❓ Невідомо"
}

// BookingMenu is the booking bot main screen with the user's active bookings.
func BookingMenu(active []models.Booking) string {
	var b strings.Builder
	b.WriteString("🍽 *Система бронювання столів*\n\n")
	if len(active) == 0 {
		b.WriteString("📝 У вас поки немає активних броней\n\n")
	} else {
		fmt.Fprintf(&b, "📋 У вас *%d* активних броней\n\n🔍 *Ваші броні:*\n", len(active))
		for i, bk := range active {
			fmt.Fprintf(&b, "%d. 📅 %s о %s\n   👥 %d осіб\n", i+1, bk.Date, bk.Time, bk.NumberOfPeople)
		}
		b.WriteString("\n")
	}
	b.WriteString("Оберіть дію:")
	return b.String()
}

func BookingMenuKeyboard(hasActive bool) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(btnAddBooking, CbAddBooking)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(btnAddText, CbAddBookingText)),
	}
	if hasActive {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnViewAll, CbViewBookings)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// ---------- step prompts ----------------------------------------------------

func stepHeader(n, total int, title string) string {
	return fmt.Sprintf("*Крок %d з %d: %s*\n\n", n, total, title)
}

func PromptDate(flow models.Flow, n, total int) string {
	s := "📅 " + stepHeader(n, total, "Дата бронювання")
	if flow == models.FlowText {
		return s + "Введіть дату у форматі ДД.ММ.РРРР\nНаприклад: 25.10.2026"
	}
	return s + "Оберіть дату:"
}

func PromptTime(flow models.Flow, n, total int) string {
	s := "🕐 " + stepHeader(n, total, "Час бронювання")
	if flow == models.FlowText {
		return s + "Введіть час у форматі ГГ:ХХ\nНаприклад: 19:30"
	}
	return s + "Оберіть час:"
}

func PromptPartySize(flow models.Flow, n, total int) string {
	s := "👥 " + stepHeader(n, total, "Кількість осіб")
	if flow == models.FlowText {
		return s + "Введіть кількість осіб (від 1 до 20)\nНаприклад: 4"
	}
	return s + "Оберіть кількість осіб:"
}

func PromptPhone(n, total int) string {
	return "📱 " + stepHeader(n, total, "Контактний телефон") +
		"Введіть ваш номер телефону\nНаприклад: +380123456789\n\n" +
		"Або введіть \"пропустити\", якщо не хочете вказувати"
}

func InvalidDate() string {
	return "❌ Невірна дата. Використовуйте формат ДД.ММ.РРРР (наприклад: 25.10.2026), дата не може бути в минулому."
}

func InvalidTime() string {
	return "❌ Невірний формат часу. Використовуйте формат ГГ:ХХ (наприклад: 19:30)"
}

func InvalidPartySize() string { return "❌ Введіть коректне число від 1 до 20" }

func InvalidPhone() string {
	return "❌ Невірний формат телефону. Введіть номер у форматі +380XXXXXXXXX або \"пропустити\""
}

func CancelFlowKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(btnCancelFlow, CbCancelFlow)))
}

func PhoneKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(btnSkipPhone, CbSkipPhone)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(btnCancelFlow, CbCancelFlow)),
	)
}

func DateKeyboard(dates []string) tgbotapi.InlineKeyboardMarkup {
	return choiceKeyboard(dates, ActSelectDate, datesPerRow)
}

func TimeKeyboard(slots []string) tgbotapi.InlineKeyboardMarkup {
	return choiceKeyboard(slots, ActSelectTime, timesPerRow)
}

func PartySizeKeyboard(sizes []int) tgbotapi.InlineKeyboardMarkup {
	vals := make([]string, len(sizes))
	for i, n := range sizes {
		vals[i] = strconv.Itoa(n)
	}
	return choiceKeyboard(vals, ActSelectPeople, partySizePerRow)
}

func choiceKeyboard(values []string, action string, perRow int) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, v := range values {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(v, Payload(action, v)))
		if len(row) == perRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(btnCancelFlow, CbCancelFlow)))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// ---------- results ---------------------------------------------------------

func BookingCreated(b *models.Booking) string {
	var s strings.Builder
	s.WriteString("✅ *Бронь успішно створено!*\n\n📋 *Деталі бронювання:*\n")
	s.WriteString("📅 Дата: " + b.Date + "\n")
	s.WriteString("🕐 Час: " + b.Time + "\n")
	fmt.Fprintf(&s, "👥 Кількість осіб: %d\n", b.NumberOfPeople)
	if b.PhoneNumber != "" {
		s.WriteString("📱 Телефон: " + Esc(b.PhoneNumber) + "\n")
	}
	s.WriteString("📊 Статус: " + BookingStatusLabel(b.Status) + "\n")
	s.WriteString("\n🆔 Номер броні: " + b.ID + "\n\n")
	s.WriteString("💡 Ви можете переглянути або скасувати бронь у головному меню")
	return s.String()
}

func MainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(btnMainMenu, CbBackToMain)))
}

func BookingList(active []models.Booking) string {
	if len(active) == 0 {
		return "📝 У вас немає активних броней"
	}
	var s strings.Builder
	s.WriteString("📋 *Ваші броні:*\n\n")
	for i, b := range active {
		fmt.Fprintf(&s, "%d. *Бронь #%s*\n", i+1, b.ID)
		fmt.Fprintf(&s, "📅 %s о %s\n👥 %d осіб\n", b.Date, b.Time, b.NumberOfPeople)
		if b.PhoneNumber != "" {
			s.WriteString("📱 " + Esc(b.PhoneNumber) + "\n")
		}
		s.WriteString("📊 Статус: " + BookingStatusLabel(b.Status) + "\n\n")
	}
	return s.String()
}

func BookingListKeyboard(active []models.Booking) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, b := range active {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(
			"❌ Скасувати бронь #"+b.ID, Payload(ActCancelBooking, b.ID))))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("➕ Додати ще", CbAddBooking)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(btnMainMenu, CbBackToMain)),
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
