package tunnels

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	logger "gitlab.com/maplesense1/homeant.bot/src/production/HAB.Logger"
	habmodels "gitlab.com/maplesense1/homeant.bot/src/production/HAB.Models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTunnelServer(t *testing.T, handler gin.HandlerFunc) *httptest.Server {
	t.Helper()
	router := gin.New()
	router.GET("/api/tunnels", handler)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func respondWith(tunnels ...habmodels.Tunnel) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, habmodels.TunnelsResponse{Tunnels: tunnels})
	}
}

// unreachableEndpoint returns the address of a server that has been shut down
func unreachableEndpoint(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL + "/api/tunnels"
	srv.Close()
	return url
}

func TestReporter_TwoTunnelsInOrder(t *testing.T) {
	srv := newTunnelServer(t, respondWith(
		habmodels.Tunnel{Name: "ssh", PublicURL: "tcp://0.tcp.ngrok.io:12345"},
		habmodels.Tunnel{Name: "web", PublicURL: "https://abc.ngrok.app"},
	))
	r := NewReporter([]string{srv.URL + "/api/tunnels"}, time.Second, logger.NewNop())

	want := "⛰️ ssh: tcp://0.tcp.ngrok.io:12345\n⛰️ web: https://abc.ngrok.app"
	if got := r.Report(context.Background()); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestReporter_NoReachableEndpoints(t *testing.T) {
	r := NewReporter([]string{unreachableEndpoint(t), unreachableEndpoint(t)}, time.Second, logger.NewNop())

	if got := r.Report(context.Background()); got != noResponseText {
		t.Errorf("expected %q, got %q", noResponseText, got)
	}
}

func TestReporter_AnsweredWithoutTunnels(t *testing.T) {
	srv := newTunnelServer(t, respondWith())
	r := NewReporter([]string{srv.URL + "/api/tunnels"}, time.Second, logger.NewNop())

	if got := r.Report(context.Background()); got != noTunnelsText {
		t.Errorf("expected %q, got %q", noTunnelsText, got)
	}
}

func TestReporter_SkipsFailingEndpoints(t *testing.T) {
	broken := newTunnelServer(t, func(c *gin.Context) {
		c.String(http.StatusOK, "{not json")
	})
	failing := newTunnelServer(t, func(c *gin.Context) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "agent offline"})
	})
	healthy := newTunnelServer(t, respondWith(habmodels.Tunnel{Name: "command_line", PublicURL: "https://abc.ngrok.app"}))

	r := NewReporter([]string{
		broken.URL + "/api/tunnels",
		unreachableEndpoint(t),
		failing.URL + "/api/tunnels",
		healthy.URL + "/api/tunnels",
	}, time.Second, logger.NewNop())

	want := "⛰️ command\\_line: https://abc.ngrok.app"
	if got := r.Report(context.Background()); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	statuses := r.BreakerStatuses()
	if len(statuses) != 4 {
		t.Fatalf("expected 4 breaker statuses, got %d", len(statuses))
	}
	for i, wantFailures := range []int{1, 1, 1, 0} {
		if statuses[i].FailureCount != wantFailures {
			t.Errorf("endpoint %d: expected %d failures, got %d", i, wantFailures, statuses[i].FailureCount)
		}
	}
}

func TestClient_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	var calls atomic.Int32
	srv := newTunnelServer(t, func(c *gin.Context) {
		calls.Add(1)
		c.Status(http.StatusInternalServerError)
	})
	client := NewClient(srv.URL+"/api/tunnels", time.Second)
	now := time.Now()
	client.circuitBreaker.now = func() time.Time { return now }

	for i := 0; i < maxFailures; i++ {
		if _, err := client.FetchTunnels(context.Background()); err == nil {
			t.Fatalf("attempt %d: expected error, got nil", i)
		}
	}
	if _, err := client.FetchTunnels(context.Background()); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if calls.Load() != maxFailures {
		t.Errorf("expected %d requests while open, got %d", maxFailures, calls.Load())
	}
	if got := client.GetCircuitBreakerStatus().State; got != "open" {
		t.Errorf("expected open breaker, got %q", got)
	}

	now = now.Add(resetTimeout + time.Second)
	if _, err := client.FetchTunnels(context.Background()); errors.Is(err, ErrCircuitOpen) {
		t.Fatal("expected a trial request after the reset timeout")
	}
	if calls.Load() != maxFailures+1 {
		t.Errorf("expected the trial request to reach the endpoint, got %d calls", calls.Load())
	}
}

func TestReporter_RecoveredEndpointReturnsOnNextPress(t *testing.T) {
	var healthy atomic.Bool
	srv := newTunnelServer(t, func(c *gin.Context) {
		if !healthy.Load() {
			c.Status(http.StatusBadGateway)
			return
		}
		c.JSON(http.StatusOK, habmodels.TunnelsResponse{Tunnels: []habmodels.Tunnel{{Name: "ssh", PublicURL: "tcp://0.tcp.ngrok.io:1234"}}})
	})
	r := NewReporter([]string{srv.URL + "/api/tunnels"}, time.Second, logger.NewNop())
	now := time.Now()
	r.clients[0].circuitBreaker.now = func() time.Time { return now }

	for i := 0; i < maxFailures; i++ {
		if got := r.Report(context.Background()); got != noResponseText {
			t.Fatalf("press %d: expected %q, got %q", i, noResponseText, got)
		}
	}
	healthy.Store(true)

	// the breaker still skips the endpoint right after opening
	if got := r.Report(context.Background()); got != noResponseText {
		t.Fatalf("expected %q while open, got %q", noResponseText, got)
	}

	if resetTimeout > 10*time.Second {
		t.Fatalf("expected an open breaker to retry within seconds, reset timeout is %v", resetTimeout)
	}
	now = now.Add(resetTimeout + time.Millisecond)
	want := "⛰️ ssh: tcp://0.tcp.ngrok.io:1234"
	if got := r.Report(context.Background()); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if got := r.BreakerStatuses()[0].State; got != "closed" {
		t.Errorf("expected closed breaker after recovery, got %q", got)
	}
}
