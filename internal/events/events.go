// Package events defines the typed browser events that drive the background
// worker and an in-memory source for them.
package events

import (
	"context"
	"log/slog"
	"sync"
)

// Event is one of the payload types below.
type Event interface {
	Name() string
}

// TabUpdated reports a tab load state change. Status is "loading" or
// "complete".
type TabUpdated struct {
	TabID  int    `json:"tabId"`
	Status string `json:"status"`
}

// StatusComplete is the TabUpdated status of a finished page load.
const StatusComplete = "complete"

// Complete reports whether the page finished loading.
func (e TabUpdated) Complete() bool { return e.Status == StatusComplete }

// TabActivated reports that a tab became the active one.
type TabActivated struct {
	TabID int `json:"tabId"`
}

// TabRemoved reports that a tab was closed.
type TabRemoved struct {
	TabID int `json:"tabId"`
}

// InputChanged carries the current omnibox text.
type InputChanged struct {
	Text string `json:"text"`
}

// InputEntered carries the accepted omnibox text.
type InputEntered struct {
	Text string `json:"text"`
}

// Configure sets the API location and token.
type Configure struct {
	APIURL   string `json:"apiUrl"`
	APIToken string `json:"apiToken"`
}

// CheckTab asks for the active tab to be checked again.
type CheckTab struct{}

func (TabUpdated) Name() string   { return "tabUpdated" }
func (TabActivated) Name() string { return "tabActivated" }
func (TabRemoved) Name() string   { return "tabRemoved" }
func (InputChanged) Name() string { return "inputChanged" }
func (InputEntered) Name() string { return "inputEntered" }
func (Configure) Name() string    { return "apiInfo" }
func (CheckTab) Name() string     { return "checkTab" }

// Handler receives events.
type Handler func(ctx context.Context, ev Event)

// Source delivers events to subscribers. The returned function removes the
// subscription.
type Source interface {
	Subscribe(h Handler) (unsubscribe func())
}

// Bus is an in-memory Source. Publish calls every current handler in
// subscription order on the caller's goroutine.
type Bus struct {
	mu       sync.RWMutex
	next     int
	handlers map[int]Handler
	order    []int
}

var _ Source = (*Bus)(nil)

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[int]Handler)}
}

func (b *Bus) Subscribe(h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	b.handlers[id] = h
	b.order = append(b.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.handlers, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish delivers ev to every subscriber. A panicking handler is logged
// and does not stop delivery to the rest.
func (b *Bus) Publish(ctx context.Context, ev Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.order))
	for _, id := range b.order {
		handlers = append(handlers, b.handlers[id])
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		deliver(ctx, h, ev)
	}
}

func deliver(ctx context.Context, h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event handler panicked",
				slog.String("event", ev.Name()),
				slog.Any("panic", r),
			)
		}
	}()
	h(ctx, ev)
}
