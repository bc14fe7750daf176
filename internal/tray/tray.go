// Package tray provides a system tray menu for headnod: pause and resume,
// restart the questionnaire, show the last answer and quit.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/headnod/internal/log"
	"github.com/ayusman/headnod/internal/questions"
)

// maxPromptLen keeps menu titles short.
const maxPromptLen = 40

// Tray represents the system tray application.
type Tray struct {
	onToggle  func(enabled bool)
	onRestart func()
	onViewer  func()
	onQuit    func()
	enabled   bool
	mu        sync.RWMutex

	// Menu items stored for later updates
	menuToggle     *systray.MenuItem
	menuLastAnswer *systray.MenuItem
}

// New creates a new Tray instance with enabled state set to true by default.
func New() *Tray {
	return &Tray{
		enabled: true,
	}
}

// OnToggle sets the callback function to be called when detection is paused or resumed.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnRestart sets the callback for the restart menu item.
func (t *Tray) OnRestart(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onRestart = fn
}

// OnViewer sets the callback for the open viewer menu item.
func (t *Tray) OnViewer(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onViewer = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray from outside the menu.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("headnod")
	systray.SetTooltip("Answer yes or no with your head")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Pause or resume detection")
	t.mu.Unlock()
	menuRestart := systray.AddMenuItem("Restart", "Start the questionnaire over")
	systray.AddSeparator()

	t.mu.Lock()
	t.menuLastAnswer = systray.AddMenuItem("Last: none", "Last answer")
	t.menuLastAnswer.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuViewer := systray.AddMenuItem("Open Viewer...", "Open the live preview in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit headnod")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuRestart.ClickedCh:
				t.handleRestart()
			case <-menuViewer.ClickedCh:
				t.handleViewer()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {
	log.WithComponent("tray").Debug("tray exited")
}

// handleToggle flips the enabled state and tells the callback.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	t.menuToggle.SetTitle(toggleTitle(enabled))
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleRestart handles the restart menu item click.
func (t *Tray) handleRestart() {
	t.mu.RLock()
	callback := t.onRestart
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleViewer handles the open viewer menu item click.
func (t *Tray) handleViewer() {
	t.mu.RLock()
	callback := t.onViewer
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetLastAnswer updates the last answer display in the menu.
func (t *Tray) SetLastAnswer(ans *questions.Answer) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuLastAnswer != nil {
		t.menuLastAnswer.SetTitle(AnswerTitle(ans))
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Listening"
	}
	return "○ Paused"
}

// AnswerTitle formats an answer for the menu. nil means none yet.
func AnswerTitle(ans *questions.Answer) string {
	if ans == nil {
		return "Last: none"
	}

	prompt := []rune(ans.Prompt)
	if len(prompt) > maxPromptLen {
		prompt = append(prompt[:maxPromptLen-3], []rune("...")...)
	}
	title := fmt.Sprintf("Last: %s (%s)", ans.Choice, string(prompt))
	if ans.Terminal {
		title += " done"
	}
	return title
}
