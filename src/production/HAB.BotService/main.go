package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"gitlab.com/maplesense1/homeant.bot/src/production/HAB.BotService/health"
	"gitlab.com/maplesense1/homeant.bot/src/production/HAB.BotService/metrics"
	"gitlab.com/maplesense1/homeant.bot/src/production/HAB.BotService/relay"
	"gitlab.com/maplesense1/homeant.bot/src/production/HAB.BotService/router"
	"gitlab.com/maplesense1/homeant.bot/src/production/HAB.BotService/tunnels"
	container "gitlab.com/maplesense1/homeant.bot/src/production/HAB.Container"
	habmodels "gitlab.com/maplesense1/homeant.bot/src/production/HAB.Models"
)

func main() {
	// Initialize dependency injection container
	ctr, err := container.NewBotContainer()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize container: %v", err))
	}
	defer ctr.Shutdown(context.Background())

	logger := ctr.GetLogger()
	logger.Info("Starting Home-Ant bot")

	config := ctr.GetConfig()

	gateway, err := ctr.GetGateway()
	if err != nil {
		logger.FatalWithError(err, "Failed to create Telegram client")
	}

	// Telemetry relay, edited in place through the gateway
	topics := habmodels.BuildTopicSpecs(config.Relay.MainsTopic, config.Relay.RelayTopics, config.Relay.BatteryTopics)
	solar := relay.New(relay.Options{
		Topics:      topics,
		FlushWindow: config.Relay.FlushWindow,
		ResetOnOpen: config.Relay.ResetOnOpen,
		Keyboard:    router.BackKeyboard(),
	}, relay.NewPahoDialer(config.MQTT, logger), gateway, logger)
	ctr.AddCleanupFunc(func() error {
		solar.CloseSession()
		return nil
	})

	system := metrics.NewReporter(
		metrics.NewHostSource(config.Metrics.UptimeCommand, config.Metrics.CommandTimeout),
		config.Metrics.DiskPath,
		logger,
	)
	tunnelReporter := tunnels.NewReporter(config.Tunnels.Endpoints, config.Tunnels.Timeout, logger)

	menu := router.New(gateway, system, tunnelReporter, solar, config.AuthorizedIDs, logger)

	if config.Server.Port != "" {
		srv := health.NewServer(config.Server, health.NewHealthController(solar, tunnelReporter), logger)
		srv.Start()
		ctr.AddCleanupFunc(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notifyReady(logger)
	go runWatchdog(ctx, logger)

	logger.Info("Home-Ant bot running... press Ctrl+C to stop")
	gateway.Listen(ctx, menu.Dispatch)

	notifyStopping(logger)
	logger.Info("Shutting down...")
}
