package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gitlab.com/maplesense1/homeant.bot/src/production/HAB.BotService/relay"
	"gitlab.com/maplesense1/homeant.bot/src/production/HAB.BotService/tunnels"
)

// BrokerStatus reports the state of the telemetry relay's broker session
type BrokerStatus interface {
	Status() string
}

// BreakerReporter reports the circuit breakers of the tunnel endpoints
type BreakerReporter interface {
	BreakerStatuses() []tunnels.BreakerStatus
}

// HealthController serves liveness and readiness checks
type HealthController struct {
	broker   BrokerStatus
	breakers BreakerReporter
}

func NewHealthController(broker BrokerStatus, breakers BreakerReporter) *HealthController {
	return &HealthController{
		broker:   broker,
		breakers: breakers,
	}
}

// RegisterRoutes registers the health routes with Gin
func (c *HealthController) RegisterRoutes(router *gin.Engine) {
	router.GET("/health/live", c.HealthLive)
	router.GET("/health/ready", c.HealthReady)
}

func (c *HealthController) HealthLive(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// HealthReady fails only while a telemetry session is open without a broker
// connection. Tunnel breakers are informational.
func (c *HealthController) HealthReady(ctx *gin.Context) {
	mqtt := c.broker.Status()

	status, code := "ready", http.StatusOK
	if mqtt == relay.StatusDisconnected {
		status, code = "degraded", http.StatusServiceUnavailable
	}

	ctx.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services": gin.H{
			"mqtt": mqtt,
		},
		"tunnels": c.breakers.BreakerStatuses(),
	})
}
