// Package recovery gates incremental order book updates behind
// snapshot recovery.
package recovery

import (
	"github.com/quantrail/mdcore/internal/book"
	"github.com/quantrail/mdcore/internal/decoder"
)

// Manager owns a book and tracks whether it is safe to apply
// incremental updates to it. Not safe for concurrent use — it lives on
// a single symbol's pipeline goroutine.
type Manager struct {
	book           *book.Book
	state          State
	lastApplied    uint32
	hasLastApplied bool
}

// NewManager returns a Manager in StateEmpty, owning b.
func NewManager(b *book.Book) *Manager {
	return &Manager{book: b, state: StateEmpty}
}

// Book returns the manager's owned book.
func (m *Manager) Book() *book.Book { return m.book }

// State returns the manager's current recovery state.
func (m *Manager) State() State { return m.state }

// NeedsRecovery reports whether incremental updates are currently
// refused.
func (m *Manager) NeedsRecovery() bool { return m.state.needsRecovery() }

// ApplyUpdate is the gated entry point for incremental (non-snapshot)
// messages. It refuses with ErrNeedsRecovery if the manager is not in
// StateRecovered; a detected sequence gap transitions to
// StateAwaitingSnapshot and also refuses the update that revealed the
// gap.
func (m *Manager) ApplyUpdate(view decoder.View) error {
	if m.state.needsRecovery() {
		return ErrNeedsRecovery
	}

	seq := view.Sequence()
	if m.hasLastApplied && seq > m.lastApplied+1 {
		m.state = StateAwaitingSnapshot
		return ErrNeedsRecovery
	}

	if err := m.book.Apply(view); err != nil {
		return err
	}
	if seq > m.lastApplied {
		m.lastApplied = seq
	}
	m.hasLastApplied = true
	return nil
}

// MarkGap forces a transition to StateAwaitingSnapshot, for use when an
// upstream gap detector observes a gap this manager has not yet seen
// directly (e.g. a gap later reconciled out from under a late arrival).
func (m *Manager) MarkGap() {
	if m.state == StateRecovered {
		m.state = StateAwaitingSnapshot
	}
}

// ApplySnapshot installs view into the owned book and transitions to
// StateRecovered. The first-ever snapshot is always accepted
// regardless of sequence; a later one is accepted only if its sequence
// is at least the last-applied sequence, and
// is otherwise ignored as stale.
func (m *Manager) ApplySnapshot(view decoder.SnapshotView, sequence uint32) {
	if m.hasLastApplied && sequence < m.lastApplied {
		return
	}
	m.book.ApplySnapshot(view)
	m.lastApplied = sequence
	m.hasLastApplied = true
	m.state = StateRecovered
}
