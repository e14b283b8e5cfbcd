package health

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	config "gitlab.com/maplesense1/homeant.bot/src/production/HAB.Config"
	logger "gitlab.com/maplesense1/homeant.bot/src/production/HAB.Logger"
)

// Server exposes the health routes over HTTP
type Server struct {
	srv    *http.Server
	logger *logger.Logger
}

func NewServer(cfg config.ServerConfig, controller *HealthController, log *logger.Logger) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	controller.RegisterRoutes(router)

	return &Server{
		srv: &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		logger: log.WithComponent("health"),
	}
}

// Start serves in the background. A listener failure is logged, not fatal.
func (s *Server) Start() {
	go func() {
		s.logger.Info("Health server starting on " + s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.ErrorWithError(err, "Health server stopped")
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
