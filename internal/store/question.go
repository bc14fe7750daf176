package store

import (
	"database/sql"
	"fmt"

	"github.com/ayusman/headnod/internal/questions"
)

// QuestionNode is one stored node of the question tree. Children are
// referenced by id; an empty id means the branch ends the interaction.
type QuestionNode struct {
	ID       string `json:"id"`
	Prompt   string `json:"prompt"`
	Audio    string `json:"audio,omitempty"`
	YesID    string `json:"yes_id,omitempty"`
	NoID     string `json:"no_id,omitempty"`
	Root     bool   `json:"root"`
	Position int    `json:"position"`
}

// QuestionRepository stores the active question tree.
type QuestionRepository struct {
	db *sql.DB
}

// Questions returns the question repository for this store.
func (s *Store) Questions() *QuestionRepository {
	return &QuestionRepository{db: s.db}
}

// ReplaceTree validates root and stores it in place of the current tree.
func (r *QuestionRepository) ReplaceTree(root *questions.Node) error {
	if err := questions.Validate(root); err != nil {
		return err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM question_nodes`); err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO question_nodes (id, prompt, audio, yes_id, no_id, is_root, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	position := 0
	err = questions.Walk(root, func(n *questions.Node, _ int) error {
		isRoot := 0
		if n == root {
			isRoot = 1
		}
		_, err := stmt.Exec(n.ID, n.Prompt, n.Audio, childID(n.Yes), childID(n.No), isRoot, position)
		position++
		return err
	})
	if err != nil {
		return err
	}

	return tx.Commit()
}

func childID(n *questions.Node) sql.NullString {
	if n == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: n.ID, Valid: true}
}

// List returns the stored nodes in walk order.
func (r *QuestionRepository) List() ([]*QuestionNode, error) {
	rows, err := r.db.Query(
		`SELECT id, prompt, audio, yes_id, no_id, is_root, position
		 FROM question_nodes ORDER BY position`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []*QuestionNode
	for rows.Next() {
		q := &QuestionNode{}
		var yes, no sql.NullString
		var isRoot int

		if err := rows.Scan(&q.ID, &q.Prompt, &q.Audio, &yes, &no, &isRoot, &q.Position); err != nil {
			return nil, err
		}

		q.YesID = yes.String
		q.NoID = no.String
		q.Root = isRoot != 0
		nodes = append(nodes, q)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return nodes, nil
}

// Root rebuilds the stored tree. It returns ErrNotFound when no tree has
// been stored.
func (r *QuestionRepository) Root() (*questions.Node, error) {
	rows, err := r.List()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}

	nodes := make(map[string]*questions.Node, len(rows))
	var root *questions.Node
	for _, q := range rows {
		n := &questions.Node{ID: q.ID, Prompt: q.Prompt, Audio: q.Audio}
		nodes[q.ID] = n
		if q.Root {
			root = n
		}
	}
	if root == nil {
		return nil, fmt.Errorf("%w: no root node stored", questions.ErrInvalidTree)
	}

	link := func(id string) (*questions.Node, error) {
		if id == "" {
			return nil, nil
		}
		n, ok := nodes[id]
		if !ok {
			return nil, fmt.Errorf("%w: dangling child %q", questions.ErrInvalidTree, id)
		}
		return n, nil
	}
	for _, q := range rows {
		n := nodes[q.ID]
		if n.Yes, err = link(q.YesID); err != nil {
			return nil, err
		}
		if n.No, err = link(q.NoID); err != nil {
			return nil, err
		}
	}

	if err := questions.Validate(root); err != nil {
		return nil, err
	}
	return root, nil
}
