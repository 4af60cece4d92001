package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/Mohsinsiddi/coffee/internal/connect"
)

// Toaster prints notifications to a terminal. A loading notification with
// an ID shows a spinner until the next notification with the same ID
// replaces it.
type Toaster struct {
	out io.Writer

	mu       sync.Mutex
	spinners map[string]*Spinner
}

// NewToaster writes notifications to out.
func NewToaster(out io.Writer) *Toaster {
	return &Toaster{out: out, spinners: make(map[string]*Spinner)}
}

// Notify implements connect.Notifier.
func (t *Toaster) Notify(n connect.Notification) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n.ID != "" {
		if s, ok := t.spinners[n.ID]; ok {
			s.Stop()
			delete(t.spinners, n.ID)
		}
	}

	if n.Kind == connect.Loading && n.ID != "" {
		s := NewSpinner(t.out, n.Message)
		t.spinners[n.ID] = s
		s.Start()
		return
	}
	fmt.Fprintln(t.out, FormatNotification(n))
}

// Close stops any spinner still running.
func (t *Toaster) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, s := range t.spinners {
		s.Stop()
		delete(t.spinners, id)
	}
}

// FormatNotification styles a notification by kind.
func FormatNotification(n connect.Notification) string {
	switch n.Kind {
	case connect.Success:
		return Success(n.Message)
	case connect.Error:
		return Err(n.Message)
	default:
		return Info(n.Message)
	}
}

var _ connect.Notifier = (*Toaster)(nil)
