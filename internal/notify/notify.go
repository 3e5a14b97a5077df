// Package notify carries the user-facing notices raised after a state
// transition completes.
package notify

import (
	"context"
	"sync"

	"kitchensync/internal/logger"
)

type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

type Notice struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Variant     Variant `json:"variant"`
}

func Info(title, description string) Notice {
	return Notice{Title: title, Description: description, Variant: VariantDefault}
}

func Failure(title, description string) Notice {
	return Notice{Title: title, Description: description, Variant: VariantDestructive}
}

type Notifier interface {
	Notify(Notice)
}

// Recorder keeps notices until they are drained.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *Recorder) Notify(n Notice) {
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()
}

// Drain returns the recorded notices and forgets them.
func (r *Recorder) Drain() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.notices
	r.notices = nil
	if out == nil {
		out = []Notice{}
	}
	return out
}

// Log writes every notice to the application log.
type Log struct{}

func (Log) Notify(n Notice) {
	if n.Variant == VariantDestructive {
		logger.Warn("Notice", "title", n.Title, "description", n.Description)
		return
	}
	logger.Debug("Notice", "title", n.Title, "description", n.Description)
}

// Multi fans a notice out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(n Notice) {
	for _, target := range m {
		target.Notify(n)
	}
}

// Discard drops every notice.
type Discard struct{}

func (Discard) Notify(Notice) {}

type ctxKey struct{}

// WithNotifier returns a context whose notices also reach n.
func WithNotifier(ctx context.Context, n Notifier) context.Context {
	return context.WithValue(ctx, ctxKey{}, n)
}

// FromContext returns the notifier attached to ctx, or Discard.
func FromContext(ctx context.Context) Notifier {
	if n, ok := ctx.Value(ctxKey{}).(Notifier); ok {
		return n
	}
	return Discard{}
}
