package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/headnod/internal/questions"
)

// Answer is a stored yes/no answer given during a session.
type Answer struct {
	ID         string           `json:"id"`
	SessionID  string           `json:"session_id"`
	NodeID     string           `json:"node_id"`
	Prompt     string           `json:"prompt"`
	Choice     questions.Choice `json:"choice"`
	NextID     string           `json:"next_id,omitempty"`
	Terminal   bool             `json:"terminal"`
	AnsweredAt time.Time        `json:"answered_at"`
}

// FromNavigator converts a navigator answer for sessionID.
func FromNavigator(sessionID string, a questions.Answer) *Answer {
	return &Answer{
		SessionID:  sessionID,
		NodeID:     a.NodeID,
		Prompt:     a.Prompt,
		Choice:     a.Choice,
		NextID:     a.NextID,
		Terminal:   a.Terminal,
		AnsweredAt: a.At,
	}
}

// AnswerRepository provides operations for answers.
type AnswerRepository struct {
	db *sql.DB
}

// Answers returns the answer repository for this store.
func (s *Store) Answers() *AnswerRepository {
	return &AnswerRepository{db: s.db}
}

// Create inserts an answer. A missing ID is generated and a zero
// AnsweredAt becomes now. The session must exist.
func (r *AnswerRepository) Create(a *Answer) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.AnsweredAt.IsZero() {
		a.AnsweredAt = time.Now()
	}

	terminal := 0
	if a.Terminal {
		terminal = 1
	}

	_, err := r.db.Exec(
		`INSERT INTO answers (id, session_id, node_id, prompt, choice, next_id, terminal, answered_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.SessionID, a.NodeID, a.Prompt, string(a.Choice), a.NextID, terminal, a.AnsweredAt,
	)
	return err
}

// ListBySession returns the answers of a session in the order given.
func (r *AnswerRepository) ListBySession(sessionID string) ([]*Answer, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, node_id, prompt, choice, next_id, terminal, answered_at
		 FROM answers WHERE session_id = ? ORDER BY answered_at, rowid`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []*Answer
	for rows.Next() {
		a := &Answer{}
		var choice string
		var terminal int

		err := rows.Scan(&a.ID, &a.SessionID, &a.NodeID, &a.Prompt, &choice, &a.NextID, &terminal, &a.AnsweredAt)
		if err != nil {
			return nil, err
		}

		a.Choice = questions.Choice(choice)
		a.Terminal = terminal != 0
		answers = append(answers, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return answers, nil
}
