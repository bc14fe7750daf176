package questions

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNoPlayer is returned when no audio player binary is installed.
var ErrNoPlayer = errors.New("no audio player found")

// Player plays prompt audio. Play returns once playback has started.
type Player interface {
	Play(ctx context.Context, path string) error
	Stop() error
}

// DefaultPlayers are tried in order by NewExecPlayer.
var DefaultPlayers = []string{"afplay", "paplay", "aplay", "ffplay"}

// ExecPlayer plays files with a system audio command. Starting a new
// file stops the previous one.
type ExecPlayer struct {
	bin string
	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewExecPlayer picks the first candidate found in PATH, or
// DefaultPlayers when none are given.
func NewExecPlayer(candidates ...string) (*ExecPlayer, error) {
	if len(candidates) == 0 {
		candidates = DefaultPlayers
	}
	for _, name := range candidates {
		if bin, err := exec.LookPath(name); err == nil {
			return &ExecPlayer{bin: bin}, nil
		}
	}
	return nil, fmt.Errorf("%w: tried %v", ErrNoPlayer, candidates)
}

// Binary returns the resolved player path.
func (p *ExecPlayer) Binary() string {
	return p.bin
}

// Play starts playing path in the background.
func (p *ExecPlayer) Play(ctx context.Context, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()

	cmd := exec.CommandContext(ctx, p.bin, playerArgs(p.bin, path)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", p.bin, err)
	}
	p.cmd = cmd

	go func() {
		cmd.Wait()
		p.mu.Lock()
		if p.cmd == cmd {
			p.cmd = nil
		}
		p.mu.Unlock()
	}()
	return nil
}

// Stop kills the current playback, if any.
func (p *ExecPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	return nil
}

// Playing reports whether a file is being played.
func (p *ExecPlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cmd != nil
}

func (p *ExecPlayer) stopLocked() {
	if p.cmd != nil && p.cmd.Process != nil {
		p.cmd.Process.Kill()
	}
	p.cmd = nil
}

func playerArgs(bin, path string) []string {
	if strings.HasPrefix(filepath.Base(bin), "ffplay") {
		return []string{"-nodisp", "-autoexit", "-loglevel", "quiet", path}
	}
	return []string{path}
}

// MockPlayer records the files it was asked to play.
type MockPlayer struct {
	mu     sync.Mutex
	played []string
	stops  int
	err    error
}

// NewMockPlayer creates a new MockPlayer instance.
func NewMockPlayer() *MockPlayer {
	return &MockPlayer{}
}

// SetError makes Play fail with err.
func (m *MockPlayer) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Play records path.
func (m *MockPlayer) Play(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.played = append(m.played, path)
	return nil
}

// Stop counts the call.
func (m *MockPlayer) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	return nil
}

// Played returns the recorded paths in order.
func (m *MockPlayer) Played() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.played...)
}

// Stops returns how many times Stop was called.
func (m *MockPlayer) Stops() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}
