package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(WithBaseURL(srv.URL+"/"), WithToken("secret")), srv
}

func TestClient_Unconfigured(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL))
	assert.False(t, c.Configured())

	_, err := c.SearchLinks(context.Background(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnconfigured)
	assert.Equal(t, int32(0), hits.Load())

	c.Configure(srv.URL, "token")
	assert.True(t, c.Configured())
}

func TestClient_SearchLinks(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v2/search/links", r.URL.Path)
		assert.Equal(t, "https://example.com", r.URL.Query().Get("query"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = io.WriteString(w, `{"data":[{"id":42,"url":"https://example.com","title":"Example","is_private":false}]}`)
	})

	links, err := c.SearchLinks(context.Background(), "https://example.com")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, 42, links[0].ID)
	assert.Equal(t, "Example", links[0].Title)

	// Unknown fields survive a round trip.
	out, err := json.Marshal(links[0])
	require.NoError(t, err)
	assert.Contains(t, string(out), `"is_private":false`)
}

func TestClient_SearchTags_PreservesResponseOrder(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/search/tags", r.URL.Path)
		_, _ = io.WriteString(w, `{"9":"golang","3":"go"}`)
	})

	matches, err := c.SearchTags(context.Background(), "go")
	require.NoError(t, err)
	assert.Equal(t, Matches{{ID: 9, Name: "golang"}, {ID: 3, Name: "go"}}, matches)

	first, ok := matches.First()
	require.True(t, ok)
	assert.Equal(t, Match{ID: 3, Name: "go"}, first)
}

func TestMatches_FirstIsLowestID(t *testing.T) {
	var matches Matches
	require.NoError(t, json.Unmarshal([]byte(`{"7":"barista","3":"bar","12":"bars"}`), &matches))

	first, ok := matches.First()
	require.True(t, ok)
	assert.Equal(t, Match{ID: 3, Name: "bar"}, first)
}

func TestClient_SearchLists_EmptyArray(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/search/lists", r.URL.Path)
		_, _ = io.WriteString(w, `[]`)
	})

	matches, err := c.SearchLists(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Empty(t, matches)
	_, ok := matches.First()
	assert.False(t, ok)
}

func TestClient_CollectionLinks(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2/tags/7/links":
			_, _ = io.WriteString(w, `{"data":[{"id":1,"url":"https://a.test","title":"A"}]}`)
		case "/api/v2/lists/5/links":
			_, _ = io.WriteString(w, `{"data":[{"id":2,"url":"https://b.test","title":"B"}]}`)
		default:
			http.NotFound(w, r)
		}
	})

	tagLinks, err := c.GetTagLinks(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 1, tagLinks[0].ID)

	listLinks, err := c.GetListLinks(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, 2, listLinks[0].ID)
}

func TestClient_LinkCRUD(t *testing.T) {
	var methods []string
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method+" "+r.URL.Path)
		switch r.Method {
		case http.MethodPost, http.MethodPatch:
			var in LinkInput
			if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&in)) {
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"id": 11, "url": in.URL, "title": in.Title})
		case http.MethodGet:
			_, _ = io.WriteString(w, `{"id":11,"url":"https://c.test","title":"C"}`)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	})
	ctx := context.Background()

	created, err := c.CreateLink(ctx, LinkInput{URL: "https://c.test", Title: "C"})
	require.NoError(t, err)
	assert.Equal(t, 11, created.ID)

	updated, err := c.UpdateLink(ctx, 11, LinkInput{Title: "C2"})
	require.NoError(t, err)
	assert.Equal(t, "C2", updated.Title)

	got, err := c.GetLink(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, "https://c.test", got.URL)

	require.NoError(t, c.DeleteLink(ctx, 11))

	assert.Equal(t, []string{
		"POST /api/v2/links",
		"PATCH /api/v2/links/11",
		"GET /api/v2/links/11",
		"DELETE /api/v2/links/11",
	}, methods)
}

func TestClient_APIError(t *testing.T) {
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"message":"Unauthenticated."}`)
	})

	_, err := c.SearchLinks(context.Background(), "x")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Unauthenticated.", apiErr.Message)
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL), WithToken("t"), WithTimeout(20*time.Millisecond))
	_, err := c.SearchLinks(context.Background(), "slow")
	require.Error(t, err)
}

type rejectAll struct{ paths []string }

func (r *rejectAll) Validate(path string, _ []byte) error {
	r.paths = append(r.paths, path)
	return errors.New("bad shape")
}

func TestClient_Validator(t *testing.T) {
	v := &rejectAll{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":"oops"}`)
	}))
	defer srv.Close()

	c := New(WithBaseURL(srv.URL), WithToken("t"), WithValidator(v))
	_, err := c.SearchLinks(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validating response")
	assert.Equal(t, []string{PathSearchLinks}, v.paths)
}
