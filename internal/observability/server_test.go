package observability

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

func startedServer(t *testing.T, ready ReadinessChecker) *Server {
	t.Helper()

	server := NewServer("127.0.0.1:0", ready)
	if _, err := server.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Stop(ctx)
	})
	return server
}

func getBody(t *testing.T, url string) (int, string) {
	t.Helper()

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("failed to GET %s: %v", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func TestServer_Metrics(t *testing.T) {
	server := startedServer(t, func() bool { return true })

	addr := server.Addr()
	if addr == "" {
		t.Fatal("server address is empty")
	}

	status, body := getBody(t, "http://"+addr+"/metrics")
	if status != http.StatusOK {
		t.Errorf("expected status 200, got %d", status)
	}

	// Prometheus exposition format with runtime collectors
	if !strings.Contains(body, "# HELP") {
		t.Error("expected Prometheus format with HELP comments")
	}
	if !strings.Contains(body, "go_") {
		t.Error("expected go_* metrics")
	}
	if !strings.Contains(body, "process_") {
		t.Error("expected process_* metrics")
	}

	// Custom metrics appear once used
	metrics := server.Metrics()
	metrics.RegistrationsTotal.Inc()
	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	metrics.SessionsCreated.Inc()
	metrics.RequestsTotal.WithLabelValues("GET /api/v1/status", "200").Inc()

	_, body = getBody(t, "http://"+addr+"/metrics")
	for _, metric := range []string{
		"gatehouse_registrations_total",
		"gatehouse_login_attempts_total",
		"gatehouse_sessions_created_total",
		"gatehouse_requests_total",
	} {
		if !strings.Contains(body, metric) {
			t.Errorf("expected %s metric", metric)
		}
	}
}

func TestServer_LivenessReturns200(t *testing.T) {
	server := startedServer(t, nil)

	status, body := getBody(t, "http://"+server.Addr()+"/healthz/liveness")
	if status != http.StatusOK {
		t.Errorf("expected status 200, got %d", status)
	}
	if strings.TrimSpace(body) != "ok" {
		t.Errorf("expected body 'ok', got %q", body)
	}
}

func TestServer_Readiness(t *testing.T) {
	ready := false
	server := startedServer(t, func() bool { return ready })

	status, _ := getBody(t, "http://"+server.Addr()+"/healthz/readiness")
	if status != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", status)
	}

	ready = true
	status, _ = getBody(t, "http://"+server.Addr()+"/healthz/readiness")
	if status != http.StatusOK {
		t.Errorf("expected status 200, got %d", status)
	}
}

func TestServer_DoubleStart(t *testing.T) {
	server := startedServer(t, nil)

	if _, err := server.Start(); err == nil {
		t.Error("expected error starting an already-running server")
	}
}

func TestServer_StopIdempotent(t *testing.T) {
	server := NewServer("127.0.0.1:0", nil)
	if _, err := server.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		t.Fatalf("first stop failed: %v", err)
	}
	if err := server.Stop(ctx); err != nil {
		t.Fatalf("second stop failed: %v", err)
	}
}
