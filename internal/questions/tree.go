// Package questions holds the binary question tree and the navigator that
// walks it on yes/no answers.
package questions

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
)

var (
	// ErrEmptyTree is returned when a tree has no root.
	ErrEmptyTree = errors.New("question tree is empty")

	// ErrInvalidTree is returned when a tree fails validation.
	ErrInvalidTree = errors.New("invalid question tree")
)

//go:embed default.json
var defaultTree []byte

// Choice is a yes or no answer.
type Choice string

const (
	ChoiceYes Choice = "yes"
	ChoiceNo  Choice = "no"
)

// Node is one question. A node without children is terminal.
type Node struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt"`
	// Audio is a path to the spoken prompt, relative to the audio dir.
	Audio string `json:"audio,omitempty"`
	Yes   *Node  `json:"yes,omitempty"`
	No    *Node  `json:"no,omitempty"`
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return n.Yes == nil && n.No == nil
}

// Child returns the node reached by choice, or nil.
func (n *Node) Child(c Choice) *Node {
	switch c {
	case ChoiceYes:
		return n.Yes
	case ChoiceNo:
		return n.No
	default:
		return nil
	}
}

// Walk visits every node depth first, yes before no. It stops at the
// first error returned by fn.
func Walk(root *Node, fn func(n *Node, depth int) error) error {
	return walk(root, 0, fn)
}

func walk(n *Node, depth int, fn func(*Node, int) error) error {
	if n == nil {
		return nil
	}
	if err := fn(n, depth); err != nil {
		return err
	}
	if err := walk(n.Yes, depth+1, fn); err != nil {
		return err
	}
	return walk(n.No, depth+1, fn)
}

// Count returns the number of nodes.
func Count(root *Node) int {
	n := 0
	Walk(root, func(*Node, int) error {
		n++
		return nil
	})
	return n
}

// Find returns the node with the given ID, or nil.
func Find(root *Node, id string) *Node {
	var found *Node
	errStop := errors.New("stop")
	Walk(root, func(n *Node, _ int) error {
		if n.ID == id {
			found = n
			return errStop
		}
		return nil
	})
	return found
}

// Validate checks that the tree is non-empty, acyclic, every prompt is set
// and IDs are unique. Missing IDs are filled with random UUIDs.
func Validate(root *Node) error {
	if root == nil {
		return ErrEmptyTree
	}

	seen := make(map[*Node]bool)
	ids := make(map[string]bool)

	var check func(n *Node, path string) error
	check = func(n *Node, path string) error {
		if n == nil {
			return nil
		}
		if seen[n] {
			return fmt.Errorf("%w: cycle at %s", ErrInvalidTree, path)
		}
		seen[n] = true

		if n.Prompt == "" {
			return fmt.Errorf("%w: empty prompt at %s", ErrInvalidTree, path)
		}
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		if ids[n.ID] {
			return fmt.Errorf("%w: duplicate id %q at %s", ErrInvalidTree, n.ID, path)
		}
		ids[n.ID] = true

		if err := check(n.Yes, path+".yes"); err != nil {
			return err
		}
		return check(n.No, path+".no")
	}

	return check(root, "root")
}

// LoadTree decodes and validates a JSON tree.
func LoadTree(r io.Reader) (*Node, error) {
	var root *Node
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("decode question tree: %w", err)
	}
	if err := Validate(root); err != nil {
		return nil, err
	}
	return root, nil
}

// LoadTreeFile reads a JSON tree from path.
func LoadTreeFile(path string) (*Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open question tree: %w", err)
	}
	defer f.Close()

	return LoadTree(f)
}

// DefaultTree returns the built-in sample questionnaire.
func DefaultTree() *Node {
	root, err := LoadTree(bytes.NewReader(defaultTree))
	if err != nil {
		panic(fmt.Sprintf("questions: built-in tree: %v", err))
	}
	return root
}
