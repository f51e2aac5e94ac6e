package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"time"

	_ "modernc.org/sqlite"

	"medical-bots/internal/models"
)

//go:embed schema.sql
var ddl embed.FS

// DB is the sqlite backend for the question ledger and the bookings.
type DB struct {
	*sql.DB
	now func() time.Time
}

// New opens (or creates) the database at path and applies the schema.
// ":memory:" gives a throwaway database.
func New(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one connection: sqlite serializes writers anyway, and ":memory:" is per connection
	db.SetMaxOpenConns(1)
	if err = migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{DB: db, now: time.Now}, nil
}

func migrate(db *sql.DB) error {
	b, err := ddl.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(string(b))
	return err
}

// ClearData wipes every table.
func (d *DB) ClearData(ctx context.Context) error {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{"DELETE FROM questions", "DELETE FROM bookings"} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Ledger and Bookings views over the same database.
func (d *DB) Ledger() Ledger     { return sqlLedger{d} }
func (d *DB) Bookings() Bookings { return sqlBookings{d} }

// ---------- questions -------------------------------------------------------

type sqlLedger struct{ d *DB }

const questionCols = `id, user_id, chat_id, username, first_name, last_name, text, contact_info, status, timestamp`

func (l sqlLedger) Save(ctx context.Context, q *models.Question) (string, error) {
	if err := stampQuestion(q, l.d.now()); err != nil {
		return "", err
	}
	res, err := l.d.ExecContext(ctx, `
        INSERT INTO questions (`+questionCols+`)
        VALUES (?,?,?,?,?,?,?,?,?,?)
        ON CONFLICT(id) DO NOTHING
    `, q.ID, q.UserID, q.ChatID, q.Username, q.FirstName, q.LastName,
		q.Text, q.ContactInfo, string(q.Status), q.Timestamp.UnixNano())
	if err != nil {
		return "", err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", ErrDuplicate
	}
	return q.ID, nil
}

func (l sqlLedger) Get(ctx context.Context, id string) (*models.Question, error) {
	row := l.d.QueryRowContext(ctx, `SELECT `+questionCols+` FROM questions WHERE id=?`, id)
	q, err := scanQuestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (l sqlLedger) UpdateStatus(ctx context.Context, id string, status models.QuestionStatus) error {
	res, err := l.d.ExecContext(ctx, `UPDATE questions SET status=? WHERE id=?`, string(status), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (l sqlLedger) ListPending(ctx context.Context) ([]models.Question, error) {
	rows, err := l.d.QueryContext(ctx, `
        SELECT `+questionCols+` FROM questions
        WHERE status=? ORDER BY timestamp, seq`, string(models.QuestionPending))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []models.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *q)
	}
	return res, rows.Err()
}

type scanner interface{ Scan(dest ...any) error }

func scanQuestion(sc scanner) (*models.Question, error) {
	var (
		q      models.Question
		status string
		ts     int64
	)
	if err := sc.Scan(&q.ID, &q.UserID, &q.ChatID, &q.Username, &q.FirstName, &q.LastName,
		&q.Text, &q.ContactInfo, &status, &ts); err != nil {
		return nil, err
	}
	q.Status = models.QuestionStatus(status)
	q.Timestamp = time.Unix(0, ts)
	return &q, nil
}

// ---------- bookings --------------------------------------------------------

type sqlBookings struct{ d *DB }

func (b sqlBookings) Add(ctx context.Context, bk *models.Booking) error {
	res, err := b.d.ExecContext(ctx, `
        INSERT INTO bookings
          (id, user_id, username, first_name, last_name, date, time, number_of_people, phone_number, status, created_at)
        VALUES (?,?,?,?,?,?,?,?,?,?,?)
        ON CONFLICT(id) DO NOTHING
    `, bk.ID, bk.UserID, bk.Username, bk.FirstName, bk.LastName, bk.Date, bk.Time,
		bk.NumberOfPeople, bk.PhoneNumber, string(bk.Status), bk.CreatedAt.UnixNano())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrDuplicate
	}
	return nil
}

func (b sqlBookings) ListByUser(ctx context.Context, userID int64) ([]models.Booking, error) {
	rows, err := b.d.QueryContext(ctx, `
        SELECT id, user_id, username, first_name, last_name, date, time, number_of_people, phone_number, status, created_at
        FROM bookings WHERE user_id=? ORDER BY seq`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []models.Booking{}
	for rows.Next() {
		var (
			bk      models.Booking
			status  string
			created int64
		)
		if err := rows.Scan(&bk.ID, &bk.UserID, &bk.Username, &bk.FirstName, &bk.LastName,
			&bk.Date, &bk.Time, &bk.NumberOfPeople, &bk.PhoneNumber, &status, &created); err != nil {
			return nil, err
		}
		bk.Status = models.BookingStatus(status)
		bk.CreatedAt = time.Unix(0, created)
		res = append(res, bk)
	}
	return res, rows.Err()
}

func (b sqlBookings) Cancel(ctx context.Context, userID int64, id string) error {
	res, err := b.d.ExecContext(ctx, `UPDATE bookings SET status=? WHERE id=? AND user_id=?`,
		string(models.BookingCancelled), id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
