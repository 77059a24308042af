// Package notify defines the notifier abstraction rules dispatch through,
// plus a registry keyed by rule name.
package notify

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/telhawk-systems/telhawk-iris/internal/events"
)

// Notifier delivers a set of matches somewhere. The IRIS alerter is the main
// implementation; LogNotifier exists for dry runs.
type Notifier interface {
	Send(ctx context.Context, matches []events.Match) error
	Type() string
	Info() map[string]any
}

// LogNotifier writes dispatches to the log instead of submitting them.
type LogNotifier struct {
	RuleName string
	Log      *slog.Logger
}

func (l *LogNotifier) Type() string { return "LogNotifier" }

func (l *LogNotifier) Info() map[string]any {
	return map[string]any{"type": "LogNotifier"}
}

func (l *LogNotifier) Send(ctx context.Context, matches []events.Match) error {
	log := l.Log
	if log == nil {
		log = slog.Default()
	}
	log.InfoContext(ctx, "dry-run dispatch",
		slog.String("rule", l.RuleName),
		slog.Int("matches", len(matches)))
	return nil
}

// Registry maps rule names to their notifiers. Reads may come from the HTTP
// surface while the intake loop dispatches, hence the lock.
type Registry struct {
	mu        sync.RWMutex
	notifiers map[string]Notifier
}

func NewRegistry() *Registry {
	return &Registry{notifiers: make(map[string]Notifier)}
}

// Register binds a rule name to a notifier, replacing any previous binding.
func (r *Registry) Register(rule string, n Notifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifiers[rule] = n
}

// Get returns the notifier for a rule.
func (r *Registry) Get(rule string) (Notifier, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.notifiers[rule]
	return n, ok
}

// Names returns the registered rule names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.notifiers))
	for name := range r.notifiers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Descriptors returns one diagnostics entry per registered rule, sorted by
// rule name.
func (r *Registry) Descriptors() []map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.notifiers))
	for name := range r.notifiers {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]map[string]any, 0, len(names))
	for _, name := range names {
		info := r.notifiers[name].Info()
		desc := make(map[string]any, len(info)+1)
		for k, v := range info {
			desc[k] = v
		}
		desc["rule"] = name
		out = append(out, desc)
	}
	return out
}
