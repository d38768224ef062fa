package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/docs-hub/docs-hub/internal/cache"
	"github.com/docs-hub/docs-hub/internal/docs"
	"github.com/docs-hub/docs-hub/internal/server"
)

const samplePage = `<html><body><div id="rustdoc_body_wrapper">Struct Serializer docs</div></body></html>`

func TestFetchDocumentMissThenHit(t *testing.T) {
	var upstreamCalls atomic.Int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstreamCalls.Add(1)
		if r.URL.Path != "/serde/1.0/index.html" {
			t.Errorf("unexpected upstream path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(samplePage))
	}))
	defer upstream.Close()

	app, store := newTestHandlerApp(t, upstream.URL)

	resp := postFetch(t, app, `{"crate_name":"serde","version":"1.0","path":"index.html"}`)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 on miss, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get(HeaderCacheHit); got != "false" {
		t.Fatalf("expected cache hit header false, got %q", got)
	}
	var content docs.PageContent
	decodeBody(t, resp, &content)
	if content.Content != "Struct Serializer docs" {
		t.Fatalf("unexpected content: %q", content.Content)
	}
	if store.Len() != 1 {
		t.Fatalf("expected one cached entry, got %d", store.Len())
	}

	resp = postFetch(t, app, `{"crate_name":"serde","version":"1.0","path":"index.html"}`)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 on hit, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get(HeaderCacheHit); got != "true" {
		t.Fatalf("expected cache hit header true, got %q", got)
	}
	if calls := upstreamCalls.Load(); calls != 1 {
		t.Fatalf("expected single upstream call, got %d", calls)
	}
}

func TestFetchDocumentNotFound(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer upstream.Close()

	app, store := newTestHandlerApp(t, upstream.URL)

	resp := postFetch(t, app, `{"crate_name":"ghost","version":"0.1","path":"index.html"}`)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	var payload map[string]string
	decodeBody(t, resp, &payload)
	if payload["error"] != "page_not_found" {
		t.Fatalf("unexpected error payload: %v", payload)
	}
	if store.Len() != 0 {
		t.Fatalf("missing page must not be cached")
	}
}

func TestFetchDocumentUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close()

	app, _ := newTestHandlerApp(t, upstream.URL)

	resp := postFetch(t, app, `{"crate_name":"serde","version":"1.0","path":"index.html"}`)
	if resp.StatusCode != fiber.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
	var payload map[string]string
	decodeBody(t, resp, &payload)
	if payload["error"] != "upstream_failed" {
		t.Fatalf("unexpected error payload: %v", payload)
	}
}

func TestFetchDocumentRejectsBadBody(t *testing.T) {
	app, _ := newTestHandlerApp(t, "http://127.0.0.1:0")

	resp := postFetch(t, app, `{"crate_name": 42}`)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", resp.StatusCode)
	}

	resp = postFetch(t, app, `{"version":"1.0","path":"index.html"}`)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for empty crate name, got %d", resp.StatusCode)
	}
}

func TestCacheDiagnosticsEndpoints(t *testing.T) {
	app, store := newTestHandlerApp(t, "http://127.0.0.1:0")
	store.Insert(docs.PageRequest{CrateName: "serde", Version: "1.0", Path: "index.html"},
		docs.PageContent{Content: "serde docs"})
	store.Insert(docs.PageRequest{CrateName: "tokio", Version: "1.40", Path: "index.html"},
		docs.PageContent{Content: "tokio docs"})

	resp, err := app.Test(httptest.NewRequest("GET", "http://docs.hub.local/-/cache", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	var stats struct {
		Entries int            `json:"entries"`
		Crates  map[string]int `json:"crates"`
	}
	decodeBody(t, resp, &stats)
	if stats.Entries != 2 {
		t.Fatalf("expected 2 entries, got %d", stats.Entries)
	}
	if stats.Crates["serde"] != 1 || stats.Crates["tokio"] != 1 {
		t.Fatalf("unexpected crate stats: %v", stats.Crates)
	}

	resp, err = app.Test(httptest.NewRequest("POST", "http://docs.hub.local/-/cache/save", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("save endpoint should succeed, got %d", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest("DELETE", "http://docs.hub.local/-/cache", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("clear endpoint should succeed, got %d", resp.StatusCode)
	}
	if store.Len() != 0 {
		t.Fatalf("expected cleared cache, got %d entries", store.Len())
	}
}

func newTestHandlerApp(t *testing.T, upstreamURL string) (*fiber.App, *cache.MemoryCache) {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := cache.NewMemoryCache(t.TempDir(), logger)
	client := docs.NewClient(nil, upstreamURL)
	handler := NewHandler(store, client, logger)

	app, err := server.NewApp(server.AppOptions{Logger: logger})
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}
	app.Post("/api/fetch_document", handler.FetchDocument)
	app.Get("/-/cache", handler.CacheStats)
	app.Post("/-/cache/save", handler.SaveCache)
	app.Delete("/-/cache", handler.ClearCache)
	return app, store
}

func postFetch(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest("POST", "http://docs.hub.local/api/fetch_document", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}
