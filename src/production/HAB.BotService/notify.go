package main

import (
	"context"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	logger "gitlab.com/maplesense1/homeant.bot/src/production/HAB.Logger"
)

func notifyReady(log *logger.Logger) {
	sdNotify(log, daemon.SdNotifyReady, "ready")
}

func notifyStopping(log *logger.Logger) {
	sdNotify(log, daemon.SdNotifyStopping, "stopping")
}

func sdNotify(log *logger.Logger, state, name string) {
	supported, err := daemon.SdNotify(false, state)
	if err != nil {
		log.Logger.Error().Err(err).Str("event", "SystemdNotify").Str("notification", name).Msg("Failed to notify systemd")
		return
	}
	if supported {
		log.Logger.Info().Str("event", "SystemdNotify").Str("notification", name).Msg("Systemd notification sent")
	}
}

// runWatchdog pings the systemd watchdog at half its interval when the unit enables it
func runWatchdog(ctx context.Context, log *logger.Logger) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		log.ErrorWithError(err, "Failed to read systemd watchdog settings")
		return
	}
	if interval == 0 {
		return
	}

	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := daemon.SdNotify(false, daemon.SdNotifyWatchdog); err != nil {
				log.ErrorWithError(err, "Failed to ping systemd watchdog")
			}
		}
	}
}
