package app

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrainAxe/linkace-extension-modern/internal/config"
	"github.com/BrainAxe/linkace-extension-modern/internal/linksvc/linksvctest"
	"github.com/BrainAxe/linkace-extension-modern/internal/nativemsg"
	"github.com/BrainAxe/linkace-extension-modern/pkg/client"
)

func testConfig() *config.Config {
	return &config.Config{
		CacheTTL:        time.Minute,
		CacheMaxItems:   64,
		Debounce:        time.Millisecond,
		ActivateSettle:  time.Millisecond,
		SuggestionLimit: 10,
	}
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestNew_ClientFromConfig(t *testing.T) {
	cfg := testConfig()
	a, err := New(cfg)
	require.NoError(t, err)
	assert.False(t, a.Service.Configured())

	cfg.APIURL = "https://links.test/"
	cfg.APIToken = "token"
	cfg.ValidateResponses = true
	a, err = New(cfg)
	require.NoError(t, err)
	assert.True(t, a.Service.Configured())
}

func TestApp_MCPServer(t *testing.T) {
	a, err := New(testConfig(), WithBackend(linksvctest.NewConfigured()))
	require.NoError(t, err)

	srv, err := a.MCPServer()
	require.NoError(t, err)
	assert.NotNil(t, srv.MCPServer())

	deps := a.ToolDeps()
	assert.Same(t, a.Service, deps.Service)
	assert.Same(t, a.Config, deps.Config)
}

// browser drives the extension side of ServeNative.
type browser struct {
	t    *testing.T
	out  *io.PipeWriter
	cmds chan map[string]any
}

func (b *browser) send(msg map[string]any) {
	b.t.Helper()
	require.NoError(b.t, nativemsg.WriteMessage(b.out, msg))
}

// next returns the next command of the given type, skipping others.
func (b *browser) next(typ string) map[string]any {
	b.t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case cmd, ok := <-b.cmds:
			require.True(b.t, ok, "host output closed")
			if cmd["type"] == typ {
				return cmd
			}
		case <-timeout:
			b.t.Fatalf("timed out waiting for %s", typ)
			return nil
		}
	}
}

func serve(t *testing.T, backend *linksvctest.Backend) (*browser, <-chan error) {
	t.Helper()
	a, err := New(testConfig(), WithBackend(backend))
	require.NoError(t, err)

	hostIn, browserOut := io.Pipe()
	browserIn, hostOut := io.Pipe()
	b := &browser{t: t, out: browserOut, cmds: make(chan map[string]any, 64)}

	go func() {
		defer close(b.cmds)
		for {
			body, err := nativemsg.ReadMessage(browserIn)
			if err != nil {
				return
			}
			var cmd map[string]any
			if json.Unmarshal(body, &cmd) == nil {
				b.cmds <- cmd
			}
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- a.ServeNative(ctx, hostIn, hostOut, nativemsg.WithRequestTimeout(time.Second))
	}()
	t.Cleanup(func() {
		cancel()
		browserOut.Close()
		hostOut.Close()
	})
	return b, done
}

func TestServeNative_TabStatus(t *testing.T) {
	backend := linksvctest.NewConfigured()
	backend.Links = map[string][]client.Link{"https://example.com": linksvctest.Links(42)}
	b, _ := serve(t, backend)

	b.send(map[string]any{"type": "tabUpdated", "tabId": 1, "status": "complete"})

	req := b.next("getTab")
	assert.Equal(t, float64(1), req["tabId"])
	b.send(map[string]any{
		"type":      "tabInfo",
		"requestId": req["requestId"],
		"tab":       map[string]any{"id": 1, "url": "https://example.com/"},
	})

	badge := b.next("setBadge")
	assert.Equal(t, "✓", badge["text"])
	stored := b.next("setStorage")
	assert.Equal(t, "linkacePageStatus:1", stored["key"])
	assert.Equal(t, float64(42), stored["value"])
}

func TestServeNative_Omnibox(t *testing.T) {
	backend := linksvctest.NewConfigured()
	backend.Links = map[string][]client.Link{"golang": linksvctest.Links(7)}
	b, _ := serve(t, backend)

	b.send(map[string]any{"type": "inputChanged", "text": "golang"})

	cmd := b.next("suggest")
	suggestions, ok := cmd["suggestions"].([]any)
	require.True(t, ok)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "https://example.com/7", suggestions[0].(map[string]any)["content"])

	b.send(map[string]any{"type": "inputEntered", "text": "https://example.com/7"})
	nav := b.next("navigate")
	assert.Equal(t, "https://example.com/7", nav["url"])
}

func TestServeNative_Configure(t *testing.T) {
	backend := &linksvctest.Backend{}
	b, _ := serve(t, backend)

	b.send(map[string]any{
		"type":      "apiInfo",
		"requestId": "cfg",
		"content":   map[string]any{"apiUrl": "https://links.test", "apiToken": "tok"},
	})
	resp := b.next("response")
	assert.Equal(t, true, resp["success"])
	assert.True(t, backend.Configured())
}

func TestServeNative_EndsOnEOF(t *testing.T) {
	b, done := serve(t, linksvctest.NewConfigured())
	require.NoError(t, b.out.Close())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("host did not stop")
	}
}
