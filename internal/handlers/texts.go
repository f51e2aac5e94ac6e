package handlers

import (
	"regexp"
	"strings"

	"medical-bots/internal/messages"
	"medical-bots/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var (
	phoneRx = regexp.MustCompile(`\+?\d[\d\s\-()]{8,}\d`)
	emailRx = regexp.MustCompile(`[\w.+\-]+@[\w\-]+(\.[\w\-]+)+`)
)

// askTriggers are typed phrases that open ask mode, compared after lowercasing.
var askTriggers = map[string]bool{
	"запитати лікаря":   true,
	"запитати у лікаря": true,
	"питання лікарю":    true,
}

func isAskTrigger(text string) bool {
	t := strings.TrimSpace(text)
	return t == messages.BtnAskDoctor || askTriggers[strings.ToLower(t)]
}

// contacts pulls a phone number and an email out of free text.
func contacts(text string) (phone, email string) {
	phone = strings.TrimSpace(phoneRx.FindString(text))
	email = emailRx.FindString(text)
	return phone, email
}

func contactInfo(text string) string {
	phone, email := contacts(text)
	switch {
	case phone != "" && email != "":
		return phone + ", " + email
	case phone != "":
		return phone
	}
	return email
}

func userOf(u *tgbotapi.User) models.User {
	if u == nil {
		return models.User{}
	}
	return models.User{ID: u.ID, Username: u.UserName, FirstName: u.FirstName, LastName: u.LastName}
}

func displayName(u models.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	switch {
	case name != "":
		return name
	case u.Username != "":
		return "@" + u.Username
	}
	return "Telegram user"
}
