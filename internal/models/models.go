package models

import "time"

// User is the identity of the person behind an update.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Article is one entry of the remote catalog.
type Article struct {
	ID        int            `json:"id"`
	Title     string         `json:"title"`
	Excerpt   string         `json:"excerpt"`
	Category  string         `json:"category"`
	Image     string         `json:"image,omitempty"`
	Content   ArticleContent `json:"content"`
	Date      string         `json:"date"`
	ReadTime  string         `json:"readTime"`
	Published bool           `json:"published"`
	CreatedAt string         `json:"createdAt"`
	UpdatedAt string         `json:"updatedAt"`
}

type ArticleContent struct {
	Intro    string           `json:"intro"`
	Sections []ArticleSection `json:"sections"`
}

type ArticleSection struct {
	Heading string `json:"heading"`
	Text    string `json:"text"`
}

// ContactMessage is the body of POST /contact.
type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Message string `json:"message"`
}

type QuestionStatus string

const (
	QuestionPending  QuestionStatus = "pending"
	QuestionAnswered QuestionStatus = "answered"
	QuestionArchived QuestionStatus = "archived"
)

// Question is a patient question kept in the ledger.
type Question struct {
	ID          string         `db:"id"           json:"id"`
	UserID      int64          `db:"user_id"      json:"user_id"`
	ChatID      int64          `db:"chat_id"      json:"chat_id"`
	Username    string         `db:"username"     json:"username,omitempty"`
	FirstName   string         `db:"first_name"   json:"first_name,omitempty"`
	LastName    string         `db:"last_name"    json:"last_name,omitempty"`
	Text        string         `db:"text"         json:"question" validate:"required"`
	ContactInfo string         `db:"contact_info" json:"contact_info,omitempty"`
	Status      QuestionStatus `db:"status"       json:"status"`
	Timestamp   time.Time      `db:"timestamp"    json:"timestamp"`
}

// Asker returns the identity fields of the question author.
func (q *Question) Asker() User {
	return User{ID: q.UserID, Username: q.Username, FirstName: q.FirstName, LastName: q.LastName}
}

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// Booking is a table reservation. Date is dd.mm.yyyy, Time is HH:MM.
type Booking struct {
	ID             string        `db:"id"               json:"id"               validate:"required"`
	UserID         int64         `db:"user_id"          json:"user_id"          validate:"required"`
	Username       string        `db:"username"         json:"username,omitempty"`
	FirstName      string        `db:"first_name"       json:"first_name,omitempty"`
	LastName       string        `db:"last_name"        json:"last_name,omitempty"`
	Date           string        `db:"date"             json:"date"             validate:"required"`
	Time           string        `db:"time"             json:"time"             validate:"required"`
	NumberOfPeople int           `db:"number_of_people" json:"number_of_people" validate:"min=1,max=20"`
	PhoneNumber    string        `db:"phone_number"     json:"phone_number,omitempty"`
	Status         BookingStatus `db:"status"           json:"status"           validate:"oneof=pending confirmed cancelled"`
	CreatedAt      time.Time     `db:"created_at"       json:"created_at"`
}

// Active reports whether the booking still counts for the user.
func (b *Booking) Active() bool {
	return b.Status == BookingPending || b.Status == BookingConfirmed
}
