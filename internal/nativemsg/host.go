package nativemsg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BrainAxe/linkace-extension-modern/internal/events"
	"github.com/BrainAxe/linkace-extension-modern/internal/omnibox"
	"github.com/BrainAxe/linkace-extension-modern/internal/tabstatus"
)

// DefaultRequestTimeout bounds how long the host waits for a tabInfo reply.
const DefaultRequestTimeout = 5 * time.Second

// ErrClosed is returned by tab lookups once the stream has ended.
var ErrClosed = errors.New("native messaging host closed")

// Host speaks native messaging on a reader/writer pair, normally stdin and
// stdout. Inbound messages are published as events; the host also serves
// as the browser-side collaborator of the resolver and the aggregator.
type Host struct {
	r       io.Reader
	w       io.Writer
	wmu     sync.Mutex
	bus     *events.Bus
	timeout time.Duration

	nextID  atomic.Uint64
	mu      sync.Mutex
	pending map[string]chan Inbound
	closed  bool
}

var (
	_ events.Source         = (*Host)(nil)
	_ tabstatus.Tabs        = (*Host)(nil)
	_ tabstatus.BadgeSink   = (*Host)(nil)
	_ tabstatus.StatusStore = (*Host)(nil)
	_ omnibox.Navigator     = (*Host)(nil)
)

// HostOption configures a Host.
type HostOption func(*Host)

// WithRequestTimeout overrides DefaultRequestTimeout.
func WithRequestTimeout(d time.Duration) HostOption {
	return func(h *Host) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// NewHost creates a Host reading from r and writing to w.
func NewHost(r io.Reader, w io.Writer, opts ...HostOption) *Host {
	h := &Host{
		r:       r,
		w:       w,
		bus:     events.NewBus(),
		timeout: DefaultRequestTimeout,
		pending: make(map[string]chan Inbound),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers an event handler.
func (h *Host) Subscribe(handler events.Handler) func() {
	return h.bus.Subscribe(handler)
}

// Run reads messages until the stream ends or ctx is cancelled. A clean
// end of stream, which is how the browser disconnects, returns nil.
func (h *Host) Run(ctx context.Context) error {
	defer h.close()

	msgs := make(chan []byte)
	errc := make(chan error, 1)
	go func() {
		for {
			body, err := ReadMessage(h.r)
			if err != nil {
				errc <- err
				return
			}
			select {
			case msgs <- body:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errc:
			if errors.Is(err, io.EOF) {
				slog.Info("browser closed the native messaging stream")
				return nil
			}
			return err
		case body := <-msgs:
			h.handle(ctx, body)
		}
	}
}

func (h *Host) handle(ctx context.Context, body []byte) {
	var msg Inbound
	if err := json.Unmarshal(body, &msg); err != nil {
		slog.Warn("dropping malformed native message", slog.String("error", err.Error()))
		return
	}
	slog.Debug("native message received",
		slog.String("type", msg.Type),
		slog.String("request_id", msg.RequestID),
	)

	if msg.Type == TypeTabInfo {
		h.resolvePending(msg)
		return
	}

	ev, err := toEvent(msg)
	if err != nil {
		slog.Warn("ignoring native message", slog.String("error", err.Error()))
		h.respond(ctx, msg.RequestID, err)
		return
	}
	h.bus.Publish(ctx, ev)
	h.respond(ctx, msg.RequestID, nil)
}

func toEvent(msg Inbound) (events.Event, error) {
	switch msg.Type {
	case TypeTabUpdated:
		return events.TabUpdated{TabID: msg.TabID, Status: msg.Status}, nil
	case TypeTabActivated:
		return events.TabActivated{TabID: msg.TabID}, nil
	case TypeTabRemoved:
		return events.TabRemoved{TabID: msg.TabID}, nil
	case TypeInputChanged:
		return events.InputChanged{Text: msg.Text}, nil
	case TypeInputEntered:
		return events.InputEntered{Text: msg.Text}, nil
	case TypeAPIInfo:
		if msg.Content == nil {
			return nil, fmt.Errorf("apiInfo message without content")
		}
		return events.Configure{APIURL: msg.Content.APIURL, APIToken: msg.Content.APIToken}, nil
	case TypeCheckTab:
		return events.CheckTab{}, nil
	default:
		return nil, fmt.Errorf("unknown message type %q", msg.Type)
	}
}

// respond acknowledges a message that carried a request id.
func (h *Host) respond(ctx context.Context, requestID string, err error) {
	if requestID == "" {
		return
	}
	resp := response{Type: TypeResponse, RequestID: requestID, Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	if err := h.send(ctx, resp); err != nil {
		slog.Warn("failed to send response", slog.String("error", err.Error()))
	}
}

func (h *Host) send(ctx context.Context, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.wmu.Lock()
	defer h.wmu.Unlock()
	return WriteMessage(h.w, v)
}

// SetBadge sends a setBadge command.
func (h *Host) SetBadge(ctx context.Context, tabID int, badge tabstatus.Badge) error {
	return h.send(ctx, setBadgeCommand{Type: TypeSetBadge, TabID: tabID, Text: badge.Text, Color: badge.Color})
}

// SetPersistedStatus sends a setStorage command.
func (h *Host) SetPersistedStatus(ctx context.Context, key string, value int) error {
	return h.send(ctx, setStorageCommand{Type: TypeSetStorage, Key: key, Value: value})
}

// Navigate sends a navigate command for the current tab.
func (h *Host) Navigate(ctx context.Context, url string) error {
	return h.send(ctx, navigateCommand{Type: TypeNavigate, URL: url})
}

// Suggest sends omnibox suggestions. It matches omnibox.SuggestFunc.
func (h *Host) Suggest(ctx context.Context, suggestions []omnibox.Suggestion) {
	if suggestions == nil {
		suggestions = []omnibox.Suggestion{}
	}
	if err := h.send(ctx, suggestCommand{Type: TypeSuggest, Suggestions: suggestions}); err != nil {
		slog.Warn("failed to send suggestions", slog.String("error", err.Error()))
	}
}

// Tab asks the extension for a tab by id.
func (h *Host) Tab(ctx context.Context, tabID int) (tabstatus.Tab, error) {
	reply, err := h.request(ctx, tabRequest{Type: TypeGetTab, TabID: tabID})
	if err != nil {
		return tabstatus.Tab{}, fmt.Errorf("getting tab %d: %w", tabID, err)
	}
	if reply.Tab == nil {
		return tabstatus.Tab{}, fmt.Errorf("getting tab %d: not found", tabID)
	}
	return *reply.Tab, nil
}

// ActiveTab asks the extension for the active tab of the current window.
func (h *Host) ActiveTab(ctx context.Context) (tabstatus.Tab, bool, error) {
	reply, err := h.request(ctx, tabRequest{Type: TypeGetActiveTab})
	if err != nil {
		return tabstatus.Tab{}, false, fmt.Errorf("getting active tab: %w", err)
	}
	if reply.Tab == nil {
		return tabstatus.Tab{}, false, nil
	}
	return *reply.Tab, true, nil
}

func (h *Host) request(ctx context.Context, req tabRequest) (Inbound, error) {
	req.RequestID = strconv.FormatUint(h.nextID.Add(1), 10)
	ch := make(chan Inbound, 1)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return Inbound{}, ErrClosed
	}
	h.pending[req.RequestID] = ch
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.pending, req.RequestID)
		h.mu.Unlock()
	}()

	if err := h.send(ctx, req); err != nil {
		return Inbound{}, err
	}

	timer := time.NewTimer(h.timeout)
	defer timer.Stop()

	select {
	case reply, ok := <-ch:
		if !ok {
			return Inbound{}, ErrClosed
		}
		if reply.Error != "" {
			return Inbound{}, errors.New(reply.Error)
		}
		return reply, nil
	case <-timer.C:
		return Inbound{}, fmt.Errorf("no reply to %s after %s: %w", req.Type, h.timeout, context.DeadlineExceeded)
	case <-ctx.Done():
		return Inbound{}, ctx.Err()
	}
}

func (h *Host) resolvePending(msg Inbound) {
	h.mu.Lock()
	ch, ok := h.pending[msg.RequestID]
	delete(h.pending, msg.RequestID)
	h.mu.Unlock()
	if !ok {
		slog.Debug("dropping unsolicited tabInfo", slog.String("request_id", msg.RequestID))
		return
	}
	ch <- msg
}

func (h *Host) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, ch := range h.pending {
		close(ch)
		delete(h.pending, id)
	}
}
