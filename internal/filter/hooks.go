package filter

import (
	"context"
	"fmt"
	"sync"
)

// Event names a point in a pipeline where hooks run.
type Event string

const (
	BeforeTextareaInput   Event = "beforeFilterTextareaInput"
	AfterTextareaInput    Event = "afterFilterTextareaInput"
	BeforeTextareaDisplay Event = "beforeFilterTextareaDisplay"
	AfterTextareaDisplay  Event = "afterFilterTextareaDisplay"
	BeforeHTMLInput       Event = "beforeFilterHTMLinput"
	AfterHTMLInput        Event = "afterFilterHTMLinput"
	BeforeHTMLDisplay     Event = "beforeFilterHTMLdisplay"
	AfterHTMLDisplay      Event = "afterFilterHTMLdisplay"
)

// Hook may rewrite the text passing through an event.
type Hook func(ctx context.Context, event Event, text string) (string, error)

// Hooks is a set of subscribers keyed by event.
type Hooks struct {
	mu    sync.RWMutex
	hooks map[Event][]Hook
}

func NewHooks() *Hooks {
	return &Hooks{hooks: make(map[Event][]Hook)}
}

// On subscribes fn to event. Hooks run in subscription order.
func (h *Hooks) On(event Event, fn Hook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks[event] = append(h.hooks[event], fn)
}

// Trigger runs every hook for event, feeding each the previous one's output.
func (h *Hooks) Trigger(ctx context.Context, event Event, text string) (string, error) {
	if h == nil {
		return text, nil
	}

	h.mu.RLock()
	fns := h.hooks[event]
	h.mu.RUnlock()

	var err error
	for _, fn := range fns {
		if text, err = fn(ctx, event, text); err != nil {
			return "", fmt.Errorf("hook %s: %w", event, err)
		}
	}
	return text, nil
}
