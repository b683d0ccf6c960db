package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-drop-bot/internal/application"
	"telegram-drop-bot/internal/config"
	"telegram-drop-bot/internal/domain/ports/adapter"
	"telegram-drop-bot/internal/infra/metrics"
	red "telegram-drop-bot/internal/infra/redis"
)

// Redemptions allowed per chat per minute. Admin traffic is exempt.
const (
	redeemLimit  = 10
	redeemWindow = time.Minute
)

var _ adapter.MediaGateway = (*RealBotAdapter)(nil)

// RealBotAdapter wraps tgbotapi as the MediaGateway and routes inbound
// updates (polling or webhook) to the BotFacade.
type RealBotAdapter struct {
	bot         *tgbotapi.BotAPI
	cfg         *config.BotConfig
	rateLimiter *red.RateLimiter
	log         *zerolog.Logger

	facade     *application.BotFacade
	updateChan chan tgbotapi.Update
}

func NewRealBotAdapter(cfg *config.BotConfig, rateLimiter *red.RateLimiter, logger *zerolog.Logger) (*RealBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	l := logger.With().Str("component", "TelegramBot").Logger()
	return &RealBotAdapter{
		bot:         bot,
		cfg:         cfg,
		rateLimiter: rateLimiter,
		log:         &l,
		updateChan:  make(chan tgbotapi.Update, 100),
	}, nil
}

// SetFacade wires the command handlers. Called once in main, after the
// usecases (which need this adapter as their gateway) exist.
func (r *RealBotAdapter) SetFacade(f *application.BotFacade) { r.facade = f }

// ---- MediaGateway ----

func (r *RealBotAdapter) SendMedia(ctx context.Context, chatID int64, fileID, caption string) (adapter.SentMessage, error) {
	select {
	case <-ctx.Done():
		return adapter.SentMessage{}, ctx.Err()
	default:
	}

	v := tgbotapi.NewVideo(chatID, tgbotapi.FileID(fileID))
	v.Caption = caption
	v.SupportsStreaming = true
	sent, err := r.bot.Send(v)
	if err != nil {
		return adapter.SentMessage{}, fmt.Errorf("send media: %w", err)
	}
	return adapter.SentMessage{ChatID: sent.Chat.ID, MessageID: sent.MessageID}, nil
}

func (r *RealBotAdapter) SendText(ctx context.Context, chatID int64, text string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	_, err := r.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (r *RealBotAdapter) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	_, err := r.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}

// ResolveChannelFile extracts a reusable video file id from a channel
// message. The Bot API has no direct message fetch, so the message is
// forwarded to the admin chat, inspected, and the forwarded copy removed
// again.
func (r *RealBotAdapter) ResolveChannelFile(ctx context.Context, channelID, messageID int64) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	fwd, err := r.bot.Send(tgbotapi.NewForward(r.cfg.AdminID, channelID, int(messageID)))
	if err != nil {
		return "", fmt.Errorf("forward channel message: %w", err)
	}
	defer func() {
		_, _ = r.bot.Request(tgbotapi.NewDeleteMessage(r.cfg.AdminID, fwd.MessageID))
	}()

	return videoFileID(&fwd)
}

// videoFileID returns the reusable file id of a video message. Telegram file
// ids are bound to the method that produced them and redemption replays the
// id through sendVideo, so anything but a video is rejected here instead of
// persisting a reference that can never be delivered.
func videoFileID(msg *tgbotapi.Message) (string, error) {
	if msg.Video == nil {
		return "", errors.New("channel message is not a video")
	}
	return msg.Video.FileID, nil
}

func (r *RealBotAdapter) Identity(ctx context.Context) (adapter.BotIdentity, error) {
	// tgbotapi resolves getMe during construction.
	return adapter.BotIdentity{ID: r.bot.Self.ID, Username: r.bot.Self.UserName}, nil
}

// ---- Update transport ----

// StartPolling consumes long-poll updates until ctx is cancelled.
func (r *RealBotAdapter) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.bot.GetUpdatesChan(u)

	go r.runWorkers(ctx)

	for {
		select {
		case <-ctx.Done():
			r.bot.StopReceivingUpdates()
			return ctx.Err()
		case up := <-updates:
			r.updateChan <- up
		}
	}
}

// WebhookPath is where the platform posts updates in webhook mode.
func (r *RealBotAdapter) WebhookPath() string {
	return "/webhook/" + r.bot.Token
}

// RegisterWebhook points the platform at baseURL+WebhookPath and starts the
// update workers. The returned handler is mounted by the HTTP server.
func (r *RealBotAdapter) RegisterWebhook(ctx context.Context, baseURL string) (http.Handler, error) {
	wh, err := tgbotapi.NewWebhook(strings.TrimRight(baseURL, "/") + r.WebhookPath())
	if err != nil {
		return nil, fmt.Errorf("build webhook config: %w", err)
	}
	if _, err := r.bot.Request(wh); err != nil {
		return nil, fmt.Errorf("set webhook: %w", err)
	}

	go r.runWorkers(ctx)

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		up, err := r.bot.HandleUpdate(req)
		if err != nil {
			r.log.Warn().Err(err).Msg("bad webhook payload")
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		select {
		case r.updateChan <- *up:
		default:
			r.log.Warn().Msg("update queue full; dropping webhook update")
		}
		w.WriteHeader(http.StatusOK)
	}), nil
}

func (r *RealBotAdapter) runWorkers(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < r.cfg.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case up := <-r.updateChan:
					if err := r.handleUpdate(ctx, up); err != nil {
						r.log.Error().Err(err).Int("worker", id).Msg("update handling failed")
					}
				}
			}
		}(i)
	}
	wg.Wait()
}

func (r *RealBotAdapter) isAdmin(from *tgbotapi.User) bool {
	return from != nil && from.ID == r.cfg.AdminID
}

func (r *RealBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return nil
	}
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			return r.handleStart(ctx, chatID, msg)

		case "additem":
			if !r.isAdmin(msg.From) {
				return r.SendText(ctx, chatID, application.RefusalText)
			}
			reply, err := r.facade.HandleAddItem(ctx, msg.CommandArguments())
			if err != nil {
				r.log.Error().Err(err).Msg("additem failed")
				reply = "❌ Failed to add item."
			}
			return r.SendText(ctx, chatID, reply)

		case "delitem":
			if !r.isAdmin(msg.From) {
				return r.SendText(ctx, chatID, application.RefusalText)
			}
			reply, err := r.facade.HandleDeleteItem(ctx, msg.CommandArguments())
			if err != nil {
				r.log.Error().Err(err).Msg("delitem failed")
				reply = "❌ Failed to delete item."
			}
			return r.SendText(ctx, chatID, reply)

		case "items":
			if !r.isAdmin(msg.From) {
				return r.SendText(ctx, chatID, application.RefusalText)
			}
			reply, err := r.facade.HandleListItems(ctx)
			if err != nil {
				r.log.Error().Err(err).Msg("items failed")
				reply = "❌ Failed to list items."
			}
			return r.SendText(ctx, chatID, reply)
		}
	}

	// Catch-all: admins get a short help, everyone else the fixed refusal.
	if r.isAdmin(msg.From) {
		return r.SendText(ctx, chatID, "Commands:\n/additem KEY | Title | FileID or ChannelMsgID | hours\n/delitem KEY\n/items")
	}
	return r.SendText(ctx, chatID, application.RefusalText)
}

func (r *RealBotAdapter) handleStart(ctx context.Context, chatID int64, msg *tgbotapi.Message) error {
	if r.rateLimiter != nil && !r.isAdmin(msg.From) {
		allowed, err := r.rateLimiter.Allow(ctx, red.RedeemKey(chatID), redeemLimit, redeemWindow)
		if err == nil && !allowed {
			metrics.IncRedemptionRejected("rate_limited")
			return r.SendText(ctx, chatID, "Too many requests. Try again in a minute.")
		}
	}

	reply, err := r.facade.HandleRedeem(ctx, chatID, msg.CommandArguments())
	if err != nil {
		r.log.Error().Err(err).Int64("chat_id", chatID).Msg("redemption failed")
	}
	if reply == "" {
		return nil
	}
	return r.SendText(ctx, chatID, reply)
}
