package app

import (
	"errors"
	"fmt"

	"github.com/ayusman/headnod/internal/log"
	"github.com/ayusman/headnod/internal/questions"
	"github.com/ayusman/headnod/internal/store"
)

// LoadTree picks the question tree: the file when one is named, otherwise
// the tree stored last time, otherwise the built-in tree. A tree read from
// a file or the built-in one is written back to the store.
func LoadTree(s *store.Store, file string) (*questions.Node, error) {
	var (
		root   *questions.Node
		source string
		err    error
	)

	switch {
	case file != "":
		root, err = questions.LoadTreeFile(file)
		if err != nil {
			return nil, fmt.Errorf("load questions: %w", err)
		}
		source = file
	case s != nil:
		root, err = s.Questions().Root()
		if err == nil {
			source = "store"
			break
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("load stored questions: %w", err)
		}
		fallthrough
	default:
		root = questions.DefaultTree()
		source = "default"
	}

	if s != nil && source != "store" {
		if err := s.Questions().ReplaceTree(root); err != nil {
			return nil, fmt.Errorf("store questions: %w", err)
		}
	}

	log.Info(log.Fields{"source": source, "questions": questions.Count(root)}, "question tree loaded")
	return root, nil
}
