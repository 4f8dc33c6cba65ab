package tui

import (
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"insights/internal/domain"
)

// Notifier routes notices to a running program's status line, or to a fallback before
// a program is attached.
type Notifier struct {
	p        atomic.Pointer[tea.Program]
	fallback domain.Notifier
}

// NewNotifier returns a notifier that uses fallback until Attach is called.
func NewNotifier(fallback domain.Notifier) *Notifier {
	if fallback == nil {
		fallback = domain.NopNotifier{}
	}
	return &Notifier{fallback: fallback}
}

// Attach starts routing notices to p.
func (n *Notifier) Attach(p *tea.Program) { n.p.Store(p) }

// Notify implements domain.Notifier.
func (n *Notifier) Notify(msg string) {
	if p := n.p.Load(); p != nil {
		// Send blocks until the program reads it; never stall the caller.
		go p.Send(NoticeMsg(msg))
		return
	}
	n.fallback.Notify(msg)
}
