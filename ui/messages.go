package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dgnsrekt/speak/tts"
)

const statusMessageTimeout = 3 * time.Second

type (
	// snapshotMsg carries a controller snapshot into the Bubble Tea loop.
	snapshotMsg tts.Snapshot

	// documentMsg is a (re)loaded text file.
	documentMsg struct {
		text   string
		source string
		reload bool
	}

	// statusMsg is a transient note for the status bar.
	statusMsg struct {
		text  string
		isErr bool
	}

	statusMessageTimeoutMsg struct{ id int }

	previewRenderedMsg string

	errMsg struct{ err error }
)

func (e errMsg) Error() string { return e.err.Error() }

// snapshotFeed bridges controller notifications, which arrive on the
// controller's loop, into tea commands. A full buffer drops the oldest
// snapshot so the controller never blocks on the UI.
type snapshotFeed struct {
	ch          chan tts.Snapshot
	unsubscribe func()
}

const feedBuffer = 32

func newSnapshotFeed(c *tts.Controller) *snapshotFeed {
	f := &snapshotFeed{ch: make(chan tts.Snapshot, feedBuffer)}
	f.unsubscribe = c.Subscribe(f.push)
	return f
}

func (f *snapshotFeed) push(s tts.Snapshot) {
	for {
		select {
		case f.ch <- s:
			return
		default:
		}
		select {
		case <-f.ch:
		default:
		}
	}
}

// wait returns a command that delivers the next snapshot.
func (f *snapshotFeed) wait() tea.Cmd {
	return func() tea.Msg {
		s, ok := <-f.ch
		if !ok {
			return nil
		}
		return snapshotMsg(s)
	}
}

func (f *snapshotFeed) close() {
	f.unsubscribe()
}

func statusTimeout(id int) tea.Cmd {
	return tea.Tick(statusMessageTimeout, func(time.Time) tea.Msg {
		return statusMessageTimeoutMsg{id: id}
	})
}
