package tunnels

import (
	"context"
	"fmt"
	"strings"
	"time"

	logger "gitlab.com/maplesense1/homeant.bot/src/production/HAB.Logger"
	habmodels "gitlab.com/maplesense1/homeant.bot/src/production/HAB.Models"
)

const (
	noResponseText = "‼️ No api response"
	noTunnelsText  = "No active tunnels"
)

// Reporter lists the active tunnels across all configured endpoints
type Reporter struct {
	clients []*Client
	logger  *logger.Logger
}

func NewReporter(endpoints []string, timeout time.Duration, log *logger.Logger) *Reporter {
	clients := make([]*Client, 0, len(endpoints))
	for _, endpoint := range endpoints {
		clients = append(clients, NewClient(endpoint, timeout))
	}
	return &Reporter{
		clients: clients,
		logger:  log.WithComponent("tunnels"),
	}
}

// Report returns one line per tunnel in endpoint order. Failing endpoints are skipped.
func (r *Reporter) Report(ctx context.Context) string {
	var lines []string
	answered := 0

	for _, client := range r.clients {
		tunnels, err := client.FetchTunnels(ctx)
		if err != nil {
			r.logger.Logger.Warn().Err(err).Str("endpoint", client.Endpoint()).Msg("Tunnel status endpoint unavailable")
			continue
		}
		answered++
		for _, t := range tunnels {
			lines = append(lines, fmt.Sprintf("⛰️ %s: %s", habmodels.EscapeMarkdown(t.Name), habmodels.EscapeMarkdown(t.PublicURL)))
		}
	}

	switch {
	case answered == 0:
		return noResponseText
	case len(lines) == 0:
		return noTunnelsText
	default:
		return strings.Join(lines, "\n")
	}
}

// BreakerStatuses reports the circuit breaker of every endpoint
func (r *Reporter) BreakerStatuses() []BreakerStatus {
	statuses := make([]BreakerStatus, 0, len(r.clients))
	for _, client := range r.clients {
		statuses = append(statuses, client.GetCircuitBreakerStatus())
	}
	return statuses
}
