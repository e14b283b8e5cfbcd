package container

import (
	"context"
	"fmt"
	"sync"

	"gitlab.com/maplesense1/homeant.bot/src/production/HAB.BotService/chat"
	config "gitlab.com/maplesense1/homeant.bot/src/production/HAB.Config"
	logger "gitlab.com/maplesense1/homeant.bot/src/production/HAB.Logger"
)

// BotContainer manages dependencies of the bot and their lifecycle
type BotContainer struct {
	config  *config.BotConfig
	logger  *logger.Logger
	gateway *chat.TelegramGateway

	// Mutex for thread-safe access
	mu sync.Mutex

	// Cleanup functions, run in reverse order on shutdown
	cleanupFuncs []func() error
}

// NewBotContainer loads configuration and builds the logger
func NewBotContainer() (*BotContainer, error) {
	cfg, err := config.LoadBotConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load bot configuration: %w", err)
	}

	return &BotContainer{
		config: cfg,
		logger: logger.NewLogger(&cfg.Logging),
	}, nil
}

// GetConfig returns the configuration
func (c *BotContainer) GetConfig() *config.BotConfig {
	return c.config
}

// GetLogger returns the logger
func (c *BotContainer) GetLogger() *logger.Logger {
	return c.logger
}

// GetGateway returns the Telegram gateway, authenticating on first use
func (c *BotContainer) GetGateway() (*chat.TelegramGateway, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gateway == nil {
		gateway, err := chat.NewTelegramGateway(c.config.Telegram, c.logger)
		if err != nil {
			return nil, err
		}
		c.gateway = gateway
	}

	return c.gateway, nil
}

// AddCleanupFunc adds a cleanup function
func (c *BotContainer) AddCleanupFunc(fn func() error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupFuncs = append(c.cleanupFuncs, fn)
}

// Shutdown runs the cleanup functions in reverse registration order
func (c *BotContainer) Shutdown(ctx context.Context) error {
	c.logger.Info("Shutting down container...")

	c.mu.Lock()
	funcs := c.cleanupFuncs
	c.cleanupFuncs = nil
	c.mu.Unlock()

	for i := len(funcs) - 1; i >= 0; i-- {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := funcs[i](); err != nil {
			c.logger.ErrorWithError(err, "Error during cleanup")
		}
	}

	c.logger.Info("Container shutdown complete")
	return nil
}
