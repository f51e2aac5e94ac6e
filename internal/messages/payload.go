package messages

import "strings"

// Callback actions that carry a parameter: "<action>_<param>".
const (
	ActAnswer        = "answer"
	ActArchive       = "archive"
	ActViewQuestion  = "view_question"
	ActArticle       = "article"
	ActCategory      = "category"
	ActSelectDate    = "select_date"
	ActSelectTime    = "select_time"
	ActSelectPeople  = "select_people"
	ActCancelBooking = "cancel_booking"
)

// Callback actions without a parameter.
const (
	CbAddBooking     = "add_booking"
	CbAddBookingText = "add_booking_text"
	CbViewBookings   = "view_bookings"
	CbBackToMain     = "back_to_main"
	CbSkipPhone      = "skip_phone"
	CbCancelFlow     = "cancel_flow"
	CbSearchArticles = "search_articles"
	CbCategories     = "categories"
	CbAskDoctor      = "ask_doctor"
	CbPending        = "pending_questions"
)

var paramActions = []string{
	ActAnswer, ActArchive, ActViewQuestion, ActArticle, ActCategory,
	ActSelectDate, ActSelectTime, ActSelectPeople, ActCancelBooking,
}

var exactActions = map[string]bool{
	CbAddBooking: true, CbAddBookingText: true, CbViewBookings: true, CbBackToMain: true,
	CbSkipPhone: true, CbCancelFlow: true, CbSearchArticles: true, CbCategories: true,
	CbAskDoctor: true, CbPending: true,
}

// Payload builds the callback data for a parameterized action.
func Payload(action, param string) string {
	return action + "_" + param
}

// ParsePayload splits callback data into a known action and its parameter.
// Exact actions come back with an empty param. ok is false for anything else.
func ParsePayload(data string) (action, param string, ok bool) {
	if exactActions[data] {
		return data, "", true
	}
	for _, a := range paramActions {
		if p, found := strings.CutPrefix(data, a+"_"); found && p != "" {
			return a, p, true
		}
	}
	return "", "", false
}
