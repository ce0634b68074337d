package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/watchfloor/opschain/internal/ref"
)

// IDStamp is the (id, timestamp) projection of one record, the minimum a
// caller needs to build a record reference.
type IDStamp struct {
	ID    int64
	Stamp string
}

// IDsAndStamps returns the (id, timestamp) pairs of every record in a
// table, in id order. NULL timestamps come back as empty strings so the
// normalizer can classify them as malformed.
func (s *Store) IDsAndStamps(ctx context.Context, table string) ([]IDStamp, error) {
	ok, err := s.tableExists(ctx, table)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("ids and stamps: unknown table %q", table)
	}

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, timestamp FROM %s ORDER BY id ASC`, table))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out []IDStamp
	for rows.Next() {
		var rec IDStamp
		var stamp sql.NullString
		if err := rows.Scan(&rec.ID, &stamp); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		rec.Stamp = stamp.String
		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}

	if out == nil {
		out = []IDStamp{}
	}
	return out, nil
}

// CreatedAtStamps returns every created_at value in a table, in id order.
// Used by activity summaries; NULLs come back as empty strings.
func (s *Store) CreatedAtStamps(ctx context.Context, table string) ([]string, error) {
	ok, err := s.tableExists(ctx, table)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("created stamps: unknown table %q", table)
	}

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT created_at FROM %s ORDER BY id ASC`, table))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var stamp sql.NullString
		if err := rows.Scan(&stamp); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		out = append(out, stamp.String)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}

	if out == nil {
		out = []string{}
	}
	return out, nil
}

// RecordDetails returns all column values of one record as a column->value
// map. The second return value is false when the table is unknown or the
// record does not exist; a dangling reference is not an error here, the
// caller renders a placeholder instead.
func (s *Store) RecordDetails(ctx context.Context, table string, id int64) (map[string]any, bool, error) {
	ok, err := s.tableExists(ctx, table)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT * FROM %s WHERE id = ?`, table), id)
	if err != nil {
		return nil, false, fmt.Errorf("query %s row %d: %w", table, id, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, false, fmt.Errorf("columns of %s: %w", table, err)
	}

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, false, fmt.Errorf("iterate %s: %w", table, err)
		}
		return nil, false, nil
	}

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, false, fmt.Errorf("scan %s row %d: %w", table, id, err)
	}

	details := make(map[string]any, len(cols))
	for i, col := range cols {
		// TEXT affinity comes back as []byte through database/sql;
		// normalize to string for callers.
		if b, isBytes := values[i].([]byte); isBytes {
			details[col] = string(b)
			continue
		}
		details[col] = values[i]
	}
	return details, true, nil
}

// EmailLog carries the fields of one email record for insertion.
type EmailLog struct {
	LogType    string
	Sender     string
	Recipient  string
	Subject    string
	Stamp      string
	ExtraField string
	MsgPath    string
}

// PhoneLog carries the fields of one phone-call record for insertion.
type PhoneLog struct {
	CallType     string
	CallerName   string
	SiteCode     string
	TicketNumber string
	Address      string
	AlarmType    string
	IssueType    string
	IssueSubtype string
	Message      string
	Stamp        string
}

// RadioLog carries the fields of one radio-dispatch record for insertion.
type RadioLog struct {
	Unit     string
	Location string
	Reason   string
	Arrived  bool
	Departed bool
	Stamp    string
}

// EverbridgeLog carries the fields of one mass-notification record for
// insertion.
type EverbridgeLog struct {
	SiteCode string
	Message  string
	Stamp    string
}

// InsertEmailLog persists a new email record and returns its id.
func (s *Store) InsertEmailLog(ctx context.Context, rec EmailLog) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO email_logs (
			log_type, sender, recipient, subject, timestamp,
			extra_field, msg_path, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.LogType, rec.Sender, rec.Recipient, rec.Subject, rec.Stamp,
		rec.ExtraField, rec.MsgPath, nowStamp(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert email log: %w", err)
	}
	return lastID(res, "insert email log")
}

// InsertPhoneLog persists a new phone-call record and returns its id.
func (s *Store) InsertPhoneLog(ctx context.Context, rec PhoneLog) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO phone_logs (
			call_type, caller_name, site_code, ticket_number, address,
			alarm_type, issue_type, issue_subtype, message, timestamp, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.CallType, rec.CallerName, rec.SiteCode, rec.TicketNumber, rec.Address,
		rec.AlarmType, rec.IssueType, rec.IssueSubtype, rec.Message, rec.Stamp, nowStamp(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert phone log: %w", err)
	}
	return lastID(res, "insert phone log")
}

// InsertRadioLog persists a new radio-dispatch record and returns its id.
func (s *Store) InsertRadioLog(ctx context.Context, rec RadioLog) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO radio_logs (
			unit, location, reason, arrived, departed, timestamp, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		rec.Unit, rec.Location, rec.Reason, rec.Arrived, rec.Departed, rec.Stamp, nowStamp(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert radio log: %w", err)
	}
	return lastID(res, "insert radio log")
}

// InsertEverbridgeLog persists a new mass-notification record and returns
// its id.
func (s *Store) InsertEverbridgeLog(ctx context.Context, rec EverbridgeLog) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO everbridge_logs (
			site_code, message, timestamp, created_at
		) VALUES (?, ?, ?, ?)
	`,
		rec.SiteCode, rec.Message, rec.Stamp, nowStamp(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert everbridge log: %w", err)
	}
	return lastID(res, "insert everbridge log")
}

func nowStamp() string {
	return ref.FormatStamp(time.Now())
}

func lastID(res sql.Result, op string) (int64, error) {
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: last insert id: %w", op, err)
	}
	return id, nil
}
