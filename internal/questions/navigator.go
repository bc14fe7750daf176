package questions

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/headnod/internal/log"
)

// Answer records one taken edge of the tree.
type Answer struct {
	NodeID string `json:"node_id"`
	Prompt string `json:"prompt"`
	Choice Choice `json:"choice"`
	// NextID is empty when the answer ended the interaction.
	NextID   string    `json:"next_id,omitempty"`
	Terminal bool      `json:"terminal"`
	At       time.Time `json:"at"`
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithAudioDir resolves relative audio paths against dir.
func WithAudioDir(dir string) Option {
	return func(n *Navigator) {
		n.audioDir = dir
	}
}

// WithLogger sets the navigator's logger.
func WithLogger(entry *logrus.Entry) Option {
	return func(n *Navigator) {
		n.log = entry
	}
}

// WithClock overrides time.Now for answer timestamps.
func WithClock(now func() time.Time) Option {
	return func(n *Navigator) {
		n.now = now
	}
}

// Navigator walks a question tree on yes/no answers and plays each
// node's prompt. It is safe for concurrent use.
type Navigator struct {
	mu       sync.Mutex
	root     *Node
	current  *Node
	player   Player
	audioDir string
	started  bool
	finished bool
	history  []Answer
	handlers []func(Answer)
	log      *logrus.Entry
	now      func() time.Time
}

// NewNavigator creates a stopped Navigator. player may be nil, in which
// case prompts are only logged.
func NewNavigator(root *Node, player Player, opts ...Option) (*Navigator, error) {
	if err := Validate(root); err != nil {
		return nil, err
	}

	n := &Navigator{
		root:    root,
		current: root,
		player:  player,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.log == nil {
		n.log = log.WithComponent("questions")
	}
	return n, nil
}

// OnAnswer registers fn to be called after every taken edge.
func (n *Navigator) OnAnswer(fn func(Answer)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers = append(n.handlers, fn)
}

// Start moves to the root and plays its prompt.
func (n *Navigator) Start() error {
	n.mu.Lock()
	n.current = n.root
	n.started = true
	n.finished = false
	n.history = nil
	root := n.root
	n.mu.Unlock()

	n.play(root)
	return nil
}

// Stop halts playback. Branch calls are ignored until the next Start.
func (n *Navigator) Stop() error {
	n.mu.Lock()
	n.started = false
	n.mu.Unlock()

	if n.player != nil {
		return n.player.Stop()
	}
	return nil
}

// TakeYesBranch answers the current question with yes.
func (n *Navigator) TakeYesBranch() error {
	return n.take(ChoiceYes)
}

// TakeNoBranch answers the current question with no.
func (n *Navigator) TakeNoBranch() error {
	return n.take(ChoiceNo)
}

func (n *Navigator) take(c Choice) error {
	n.mu.Lock()
	if !n.started || n.finished {
		n.mu.Unlock()
		return nil
	}

	from := n.current
	ans := Answer{
		NodeID: from.ID,
		Prompt: from.Prompt,
		Choice: c,
		At:     n.now(),
	}

	next := from.Child(c)
	if next == nil {
		ans.Terminal = true
		n.finished = true
	} else {
		ans.NextID = next.ID
		n.current = next
	}
	n.history = append(n.history, ans)
	handlers := append(([]func(Answer))(nil), n.handlers...)
	n.mu.Unlock()

	n.log.WithFields(logrus.Fields{
		"node":     ans.NodeID,
		"choice":   ans.Choice,
		"next":     ans.NextID,
		"terminal": ans.Terminal,
	}).Info("answer taken")

	if next != nil {
		n.play(next)
	}
	for _, fn := range handlers {
		fn(ans)
	}
	return nil
}

func (n *Navigator) play(node *Node) {
	if n.player == nil || node.Audio == "" {
		n.log.WithField("node", node.ID).Info(node.Prompt)
		return
	}

	path := node.Audio
	if !filepath.IsAbs(path) && n.audioDir != "" {
		path = filepath.Join(n.audioDir, path)
	}
	if err := n.player.Play(context.Background(), path); err != nil {
		n.log.WithError(err).WithField("audio", path).Warn("prompt playback failed")
	}
}

// Root returns the tree root.
func (n *Navigator) Root() *Node {
	return n.root
}

// Current returns the node awaiting an answer.
func (n *Navigator) Current() *Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Started reports whether the navigator accepts answers.
func (n *Navigator) Started() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.started
}

// Finished reports whether a terminal answer was given.
func (n *Navigator) Finished() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.finished
}

// History returns the answers since the last Start.
func (n *Navigator) History() []Answer {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Answer(nil), n.history...)
}
