package models

import "time"

// Step is the stage of a multi-step form a session is waiting in.
type Step string

const (
	StepNone              Step = "none"
	StepAwaitingDate      Step = "awaiting_date"
	StepAwaitingTime      Step = "awaiting_time"
	StepAwaitingPartySize Step = "awaiting_party_size"
	StepAwaitingPhone     Step = "awaiting_phone"
	StepAwaitingQuestion  Step = "awaiting_question"
	StepAwaitingAnswer    Step = "awaiting_answer" // doctor side
)

// Flow selects the booking variant a session runs.
type Flow string

const (
	FlowButtons Flow = "buttons"
	FlowText    Flow = "text"
)

// Session is the in-progress form of one user (or, on the doctor side, one chat).
type Session struct {
	Key        int64     `json:"key"`
	Step       Step      `json:"step"`
	Flow       Flow      `json:"flow,omitempty"`
	Draft      Booking   `json:"draft"`
	QuestionID string    `json:"question_id,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Active reports whether the session is waiting for input.
func (s *Session) Active() bool {
	return s != nil && s.Step != "" && s.Step != StepNone
}
