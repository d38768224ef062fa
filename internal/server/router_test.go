package server

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/docs-hub/docs-hub/internal/config"
)

func TestNewAppRequiresLogger(t *testing.T) {
	if _, err := NewApp(AppOptions{}); err == nil {
		t.Fatalf("expected error without logger")
	}
}

func TestRequestIDAssigned(t *testing.T) {
	app := newTestApp(t)
	app.Get("/ping", func(c fiber.Ctx) error {
		if RequestID(c) == "" {
			t.Errorf("request id missing in handler context")
		}
		return c.SendString("pong")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "http://docs.hub.local/ping", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}
}

func TestErrorHandlerRendersJSON(t *testing.T) {
	app := newTestApp(t)
	app.Get("/boom", func(c fiber.Ctx) error {
		return fiber.NewError(fiber.StatusBadGateway, "upstream_failed")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "http://docs.hub.local/boom", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var payload map[string]string
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("error body should be json: %v (%s)", err, string(body))
	}
	if payload["error"] != "upstream_failed" {
		t.Fatalf("unexpected error payload: %v", payload)
	}
}

func TestNewUpstreamClientUsesConfiguredTimeout(t *testing.T) {
	cfg := &config.Config{UpstreamTimeout: config.Duration(5 * time.Second)}
	client := NewUpstreamClient(cfg)
	if client.Timeout != 5*time.Second {
		t.Fatalf("timeout mismatch: %v", client.Timeout)
	}

	fallback := NewUpstreamClient(nil)
	if fallback.Timeout != 30*time.Second {
		t.Fatalf("default timeout mismatch: %v", fallback.Timeout)
	}
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	app, err := NewApp(AppOptions{Logger: logger})
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}
	return app
}
