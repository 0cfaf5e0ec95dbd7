package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

const testConfig = `
service:
  id: tiplinks-test
  http_port: 8081
chain:
  rpc_url: http://rpc.invalid
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestNewRuntime(t *testing.T) {

	t.Run("serves from memory storage", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		t.Setenv("REDIS_URL", "")
		t.Setenv("KAFKA_BROKERS", "")

		rt, err := NewRuntime(context.Background(), writeConfig(t, testConfig))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer rt.close()

		if rt.httpServer.Addr != ":8081" {
			t.Errorf("expected addr :8081, got %s", rt.httpServer.Addr)
		}

		w := httptest.NewRecorder()
		rt.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
		}

		body := strings.NewReader(`{"creatorAddress":"0x0000000000000000000000000000000000000002","defaultAmount":"1"}`)
		w = httptest.NewRecorder()
		rt.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/create-tip-link", body))
		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}
	})

	t.Run("wires the redis registry cache", func(t *testing.T) {
		mr := miniredis.RunT(t)
		t.Setenv("DATABASE_URL", "")
		t.Setenv("REDIS_URL", "redis://"+mr.Addr())
		t.Setenv("KAFKA_BROKERS", "")

		rt, err := NewRuntime(context.Background(), writeConfig(t, testConfig))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer rt.close()

		body := strings.NewReader(`{"creatorAddress":"0x0000000000000000000000000000000000000002","defaultAmount":"1"}`)
		w := httptest.NewRecorder()
		rt.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/create-tip-link", body))
		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}
		if keys := mr.Keys(); len(keys) != 1 {
			t.Errorf("expected 1 cached tip, got %v", keys)
		}
	})

	t.Run("fails without an rpc url", func(t *testing.T) {
		t.Setenv("RPC_URL", "")

		_, err := NewRuntime(context.Background(), writeConfig(t, "service:\n  id: tiplinks-test\n"))
		if err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestRunAPIShutdown(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("HTTP_PORT", "0")

	rt, err := NewRuntime(context.Background(), writeConfig(t, testConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rt.logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := rt.RunAPI(ctx); err != nil {
		t.Fatalf("expected clean shutdown, got %v", err)
	}
}
