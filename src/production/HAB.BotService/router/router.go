package router

import (
	"context"

	"github.com/google/uuid"
	logger "gitlab.com/maplesense1/homeant.bot/src/production/HAB.Logger"
	habmodels "gitlab.com/maplesense1/homeant.bot/src/production/HAB.Models"
)

const (
	MenuText         = "Home-Ant"
	UnauthorizedText = "You are not authorized to use this bot"
	solarWaitingText = "*============SOLAR============*\nWaiting for telemetry..."
	solarFailedText  = "‼️ Failed to connect to the MQTT broker"
)

// Gateway is the chat transport used by the handlers
type Gateway interface {
	Send(ctx context.Context, chatID int64, text string, keyboard habmodels.Keyboard) (habmodels.ChatTarget, error)
	EditMessage(ctx context.Context, target habmodels.ChatTarget, text string, keyboard habmodels.Keyboard) error
	AnswerCallback(ctx context.Context, callbackID string) error
}

// Reporter produces a one-shot text report
type Reporter interface {
	Report(ctx context.Context) string
}

// Session is the live telemetry view
type Session interface {
	OpenSession(ctx context.Context, target habmodels.ChatTarget) error
	CloseSession()
}

// Handler serves one authorized interaction. log carries the chat and request id
// of the interaction.
type Handler func(ctx context.Context, in habmodels.Inbound, log *logger.Logger)

// Router checks the allow-list and dispatches interactions to their handlers
type Router struct {
	gateway    Gateway
	system     Reporter
	tunnels    Reporter
	relay      Session
	authorized map[int64]struct{}
	handlers   map[Command]Handler
	logger     *logger.Logger
}

func New(gateway Gateway, system, tunnels Reporter, relay Session, authorizedIDs []int64, log *logger.Logger) *Router {
	authorized := make(map[int64]struct{}, len(authorizedIDs))
	for _, id := range authorizedIDs {
		authorized[id] = struct{}{}
	}

	r := &Router{
		gateway:    gateway,
		system:     system,
		tunnels:    tunnels,
		relay:      relay,
		authorized: authorized,
		logger:     log.WithComponent("router"),
	}
	r.handlers = map[Command]Handler{
		CommandStart:      r.handleStart,
		CommandSystemInfo: r.handleSystemInfo,
		CommandTunnels:    r.handleTunnels,
		CommandSolar:      r.handleSolar,
		CommandMenu:       r.handleMenu,
	}
	return r
}

// Dispatch serves one interaction. Nothing is returned: every failure ends as a
// log entry or a message to the user. Every entry logged while serving it shares
// one request id.
func (r *Router) Dispatch(ctx context.Context, in habmodels.Inbound) {
	log := r.logger.WithRequestID(uuid.NewString()).WithChat(in.ChatID, in.UserID)

	if in.Kind == habmodels.InboundCallback && in.CallbackID != "" {
		if err := r.gateway.AnswerCallback(ctx, in.CallbackID); err != nil {
			log.WithError(err).Warn("Failed to answer callback")
		}
	}

	if !r.isAuthorized(in.UserID) {
		log.Logger.Warn().Str("user", in.UserName).Msg("Rejected unauthorized sender")
		if _, err := r.gateway.Send(ctx, in.ChatID, UnauthorizedText, nil); err != nil {
			log.ErrorWithError(err, "Failed to send rejection")
		}
		return
	}

	cmd := ParseCommand(in)
	handler, ok := r.handlers[cmd]
	if !ok {
		log.Logger.Warn().Str("command", in.Command).Str("data", in.Data).Msg("Ignoring unknown interaction")
		return
	}

	log.Logger.Info().Str("user", in.UserName).Stringer("command", cmd).Msg("Dispatching command")
	handler(ctx, in, log)
}

func (r *Router) isAuthorized(userID int64) bool {
	_, ok := r.authorized[userID]
	return ok
}

func (r *Router) handleStart(ctx context.Context, in habmodels.Inbound, log *logger.Logger) {
	r.showView(ctx, in, MenuText, MainMenu(), log)
}

func (r *Router) handleMenu(ctx context.Context, in habmodels.Inbound, log *logger.Logger) {
	r.relay.CloseSession()
	r.showView(ctx, in, MenuText, MainMenu(), log)
}

func (r *Router) handleSystemInfo(ctx context.Context, in habmodels.Inbound, log *logger.Logger) {
	r.showView(ctx, in, r.system.Report(ctx), BackKeyboard(), log)
}

func (r *Router) handleTunnels(ctx context.Context, in habmodels.Inbound, log *logger.Logger) {
	r.showView(ctx, in, r.tunnels.Report(ctx), BackKeyboard(), log)
}

// handleSolar turns the pressed message into the live telemetry view
func (r *Router) handleSolar(ctx context.Context, in habmodels.Inbound, log *logger.Logger) {
	target, ok := r.showView(ctx, in, solarWaitingText, BackKeyboard(), log)
	if !ok {
		return
	}
	if err := r.relay.OpenSession(ctx, target); err != nil {
		log.WithError(err).Warn("Telemetry view unavailable")
		if editErr := r.gateway.EditMessage(ctx, target, solarFailedText, BackKeyboard()); editErr != nil {
			log.WithError(editErr).Warn("Failed to show broker failure notice")
		}
	}
}

// showView edits the message the interaction arrived on and falls back to sending
// a new message when the edit is rejected. It returns where the view ended up.
func (r *Router) showView(ctx context.Context, in habmodels.Inbound, text string, keyboard habmodels.Keyboard, log *logger.Logger) (habmodels.ChatTarget, bool) {
	target := in.Target()
	err := r.gateway.EditMessage(ctx, target, text, keyboard)
	if err == nil {
		return target, true
	}
	log.WithError(err).WithField("message_id", in.MessageID).Debug("Edit rejected, sending a new message")

	sent, err := r.gateway.Send(ctx, in.ChatID, text, keyboard)
	if err != nil {
		log.ErrorWithError(err, "Failed to send message")
		return habmodels.ChatTarget{}, false
	}
	return sent, true
}
