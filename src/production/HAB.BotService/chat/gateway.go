package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	config "gitlab.com/maplesense1/homeant.bot/src/production/HAB.Config"
	logger "gitlab.com/maplesense1/homeant.bot/src/production/HAB.Logger"
	habmodels "gitlab.com/maplesense1/homeant.bot/src/production/HAB.Models"
)

// ErrMessageGone is returned when the message to edit no longer exists or can no longer be edited
var ErrMessageGone = errors.New("message can no longer be edited")

// requestMargin is added to the long-poll timeout to bound every Bot API request
const requestMargin = 15 * time.Second

// InboundHandler handles one interaction. It runs to completion before the next is read.
type InboundHandler func(ctx context.Context, in habmodels.Inbound)

// TelegramGateway talks to the Telegram Bot API
type TelegramGateway struct {
	bot         *tgbotapi.BotAPI
	pollTimeout int
	logger      *logger.Logger
}

// NewTelegramGateway authenticates against the Bot API with the configured token
func NewTelegramGateway(cfg config.TelegramConfig, log *logger.Logger) (*TelegramGateway, error) {
	return newTelegramGateway(cfg, tgbotapi.APIEndpoint, log)
}

func newTelegramGateway(cfg config.TelegramConfig, apiEndpoint string, log *logger.Logger) (*TelegramGateway, error) {
	client := &http.Client{
		Timeout: time.Duration(cfg.PollTimeout)*time.Second + requestMargin,
	}
	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, apiEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram client: %w", err)
	}
	bot.Debug = cfg.Debug

	g := &TelegramGateway{
		bot:         bot,
		pollTimeout: cfg.PollTimeout,
		logger:      log.WithComponent("telegram"),
	}
	g.logger.Logger.Info().Str("username", bot.Self.UserName).Msg("Authorized on Telegram")
	return g, nil
}

// Send posts a new Markdown message and returns its location
func (g *TelegramGateway) Send(ctx context.Context, chatID int64, text string, keyboard habmodels.Keyboard) (habmodels.ChatTarget, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if len(keyboard) > 0 {
		msg.ReplyMarkup = inlineMarkup(keyboard)
	}

	resp, err := g.request(ctx, msg)
	if err != nil {
		return habmodels.ChatTarget{}, fmt.Errorf("failed to send message to chat %d: %w", chatID, err)
	}
	var sent tgbotapi.Message
	if err := json.Unmarshal(resp.Result, &sent); err != nil {
		return habmodels.ChatTarget{}, fmt.Errorf("failed to decode sent message: %w", err)
	}
	return habmodels.ChatTarget{ChatID: chatID, MessageID: sent.MessageID}, nil
}

// EditMessage replaces the text and keyboard of an existing message
func (g *TelegramGateway) EditMessage(ctx context.Context, target habmodels.ChatTarget, text string, keyboard habmodels.Keyboard) error {
	var edit tgbotapi.EditMessageTextConfig
	if len(keyboard) > 0 {
		edit = tgbotapi.NewEditMessageTextAndMarkup(target.ChatID, target.MessageID, text, inlineMarkup(keyboard))
	} else {
		edit = tgbotapi.NewEditMessageText(target.ChatID, target.MessageID, text)
	}
	edit.ParseMode = tgbotapi.ModeMarkdown

	if _, err := g.request(ctx, edit); err != nil {
		return classifyEditError(err)
	}
	return nil
}

// AnswerCallback acknowledges a button press so the client stops its spinner
func (g *TelegramGateway) AnswerCallback(ctx context.Context, callbackID string) error {
	if _, err := g.request(ctx, tgbotapi.NewCallback(callbackID, "")); err != nil {
		return fmt.Errorf("failed to answer callback %s: %w", callbackID, err)
	}
	return nil
}

// Listen long-polls for updates and hands them to handle one at a time until ctx is done
func (g *TelegramGateway) Listen(ctx context.Context, handle InboundHandler) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = g.pollTimeout
	updates := g.bot.GetUpdatesChan(u)
	defer g.bot.StopReceivingUpdates()

	g.logger.Info("Listening for Telegram updates")
	for {
		select {
		case <-ctx.Done():
			g.logger.Info("Stopped listening for Telegram updates")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			in, ok := toInbound(update)
			if !ok {
				continue
			}
			handle(ctx, in)
		}
	}
}

// request performs a Bot API call but stops waiting once ctx is done. An
// abandoned call is still bounded by the HTTP client timeout.
func (g *TelegramGateway) request(ctx context.Context, c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	type result struct {
		resp *tgbotapi.APIResponse
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := g.bot.Request(c)
		done <- result{resp: resp, err: err}
	}()

	select {
	case r := <-done:
		return r.resp, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// classifyEditError maps rejections of a vanished or frozen message onto ErrMessageGone.
// Editing a message to identical content is not an error.
func classifyEditError(err error) error {
	desc := err.Error()
	switch {
	case strings.Contains(desc, "message is not modified"):
		return nil
	case strings.Contains(desc, "message to edit not found"),
		strings.Contains(desc, "message can't be edited"),
		strings.Contains(desc, "MESSAGE_ID_INVALID"):
		return fmt.Errorf("%w: %s", ErrMessageGone, desc)
	default:
		return fmt.Errorf("failed to edit message: %w", err)
	}
}

func toInbound(update tgbotapi.Update) (habmodels.Inbound, bool) {
	switch {
	case update.CallbackQuery != nil:
		q := update.CallbackQuery
		in := habmodels.Inbound{
			Kind:       habmodels.InboundCallback,
			Data:       q.Data,
			CallbackID: q.ID,
		}
		if q.From != nil {
			in.UserID = q.From.ID
			in.UserName = q.From.FirstName
		}
		if q.Message != nil {
			in.MessageID = q.Message.MessageID
			if q.Message.Chat != nil {
				in.ChatID = q.Message.Chat.ID
			}
		}
		if in.ChatID == 0 {
			in.ChatID = in.UserID
		}
		return in, true

	case update.Message != nil && update.Message.IsCommand():
		m := update.Message
		in := habmodels.Inbound{
			Kind:      habmodels.InboundCommand,
			MessageID: m.MessageID,
			Command:   m.Command(),
		}
		if m.From != nil {
			in.UserID = m.From.ID
			in.UserName = m.From.FirstName
		}
		if m.Chat != nil {
			in.ChatID = m.Chat.ID
		}
		return in, true

	default:
		return habmodels.Inbound{}, false
	}
}

func inlineMarkup(keyboard habmodels.Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(keyboard))
	for _, row := range keyboard {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		rows = append(rows, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
