// Package background routes browser events to the tab status resolver and
// the omnibox aggregator.
package background

import (
	"context"
	"log/slog"
	"sync"

	"github.com/BrainAxe/linkace-extension-modern/internal/events"
	"github.com/BrainAxe/linkace-extension-modern/internal/omnibox"
)

// TabChecker is implemented by *tabstatus.Resolver.
type TabChecker interface {
	OnUpdated(ctx context.Context, tabID int, complete bool)
	OnActivated(ctx context.Context, tabID int)
	OnRemoved(tabID int)
	CheckActive(ctx context.Context)
}

// Omnibox is implemented by *omnibox.Aggregator.
type Omnibox interface {
	Input(ctx context.Context, text string, sink omnibox.SuggestFunc)
	Entered(ctx context.Context, text string) error
	Stop()
}

// Configurer is implemented by *linksvc.Service.
type Configurer interface {
	Reconfigure(baseURL, token string)
}

// Worker dispatches events. Lookups run on their own goroutines so the
// event source is never blocked by network calls; tab lookups on the
// native messaging host depend on that.
type Worker struct {
	tabs    TabChecker
	omni    Omnibox
	config  Configurer
	suggest omnibox.SuggestFunc

	// life is cancelled by Stop and bounds every lookup the worker starts.
	life   context.Context
	cancel context.CancelFunc

	wg          sync.WaitGroup
	mu          sync.Mutex
	unsubscribe func()
}

// New creates a Worker that delivers suggestions to suggest.
func New(tabs TabChecker, omni Omnibox, config Configurer, suggest omnibox.SuggestFunc) *Worker {
	life, cancel := context.WithCancel(context.Background())
	return &Worker{
		tabs:    tabs,
		omni:    omni,
		config:  config,
		suggest: suggest,
		life:    life,
		cancel:  cancel,
	}
}

// Start subscribes the worker to src.
func (w *Worker) Start(src events.Source) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.unsubscribe != nil {
		w.unsubscribe()
	}
	w.unsubscribe = src.Subscribe(w.Handle)
}

// Stop unsubscribes, cancels pending input and delayed tab checks, and
// waits for running lookups.
func (w *Worker) Stop() {
	w.mu.Lock()
	if w.unsubscribe != nil {
		w.unsubscribe()
		w.unsubscribe = nil
	}
	w.mu.Unlock()
	w.cancel()
	w.omni.Stop()
	w.wg.Wait()
}

// Wait blocks until every lookup started so far has finished.
func (w *Worker) Wait() {
	w.wg.Wait()
}

// Handle routes one event.
func (w *Worker) Handle(ctx context.Context, ev events.Event) {
	slog.Debug("event received", slog.String("event", ev.Name()))

	switch e := ev.(type) {
	case events.TabUpdated:
		if !e.Complete() {
			return
		}
		w.async(ctx, ev, func(ctx context.Context) { w.tabs.OnUpdated(ctx, e.TabID, true) })
	case events.TabActivated:
		w.async(ctx, ev, func(ctx context.Context) { w.tabs.OnActivated(ctx, e.TabID) })
	case events.TabRemoved:
		w.tabs.OnRemoved(e.TabID)
	case events.InputChanged:
		w.omni.Input(ctx, e.Text, w.suggest)
	case events.InputEntered:
		if err := w.omni.Entered(ctx, e.Text); err != nil {
			slog.Warn("failed to open suggestion", slog.String("error", err.Error()))
		}
	case events.Configure:
		w.config.Reconfigure(e.APIURL, e.APIToken)
		slog.Info("api configured", slog.String("api_url", e.APIURL))
	case events.CheckTab:
		w.async(ctx, ev, func(ctx context.Context) { w.tabs.CheckActive(ctx) })
	default:
		slog.Warn("unhandled event", slog.String("event", ev.Name()))
	}
}

// async runs fn on a tracked goroutine. Its context ends when either ctx or
// the worker is done.
func (w *Worker) async(ctx context.Context, ev events.Event, fn func(ctx context.Context)) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		stop := context.AfterFunc(w.life, cancel)
		defer stop()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("event handler panicked",
					slog.String("event", ev.Name()),
					slog.Any("panic", r),
				)
			}
		}()
		fn(ctx)
	}()
}
