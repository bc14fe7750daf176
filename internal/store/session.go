package store

import (
	"database/sql"
	"errors"
	"time"
)

// SessionStatus is the lifecycle state of a stored interaction.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionFinished  SessionStatus = "finished"
	SessionCancelled SessionStatus = "cancelled"
)

// Session is one interaction with the questionnaire.
type Session struct {
	ID        string        `json:"id"`
	Status    SessionStatus `json:"status"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   *time.Time    `json:"ended_at,omitempty"`
	Answers   int           `json:"answers"`
}

// SessionRepository provides operations for stored sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts an active session. StartedAt defaults to now.
func (r *SessionRepository) Create(sess *Session) error {
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now()
	}
	sess.Status = SessionActive
	sess.EndedAt = nil

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, status, started_at) VALUES (?, ?, ?)`,
		sess.ID, string(sess.Status), sess.StartedAt,
	)
	return err
}

// End marks a session finished or cancelled. Ending an already ended
// session keeps the first end.
func (r *SessionRepository) End(id string, status SessionStatus, at time.Time) error {
	result, err := r.db.Exec(
		`UPDATE sessions SET status = ?, ended_at = ? WHERE id = ? AND ended_at IS NULL`,
		string(status), at, id,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		if _, err := r.GetByID(id); err != nil {
			return err
		}
	}
	return nil
}

const sessionColumns = `s.id, s.status, s.started_at, s.ended_at,
	(SELECT COUNT(*) FROM answers a WHERE a.session_id = s.id)`

func scanSession(row interface{ Scan(...any) error }) (*Session, error) {
	sess := &Session{}
	var status string
	var ended sql.NullTime

	if err := row.Scan(&sess.ID, &status, &sess.StartedAt, &ended, &sess.Answers); err != nil {
		return nil, err
	}

	sess.Status = SessionStatus(status)
	if ended.Valid {
		t := ended.Time
		sess.EndedAt = &t
	}
	return sess, nil
}

// GetByID retrieves a session with its answer count.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	sess, err := scanSession(r.db.QueryRow(
		`SELECT `+sessionColumns+` FROM sessions s WHERE s.id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sess, nil
}

// List returns the most recent sessions first. limit <= 0 means no limit.
func (r *SessionRepository) List(limit int) ([]*Session, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(
		`SELECT `+sessionColumns+` FROM sessions s ORDER BY s.started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}
