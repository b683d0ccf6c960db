package telegram

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"telegram-drop-bot/internal/domain/ports/adapter"
)

var _ adapter.MediaGateway = (*NoopBotAdapter)(nil)

// NoopBotAdapter implements adapter.MediaGateway for local/dev runs. It logs
// calls instead of talking to Telegram and hands out fake message ids.
type NoopBotAdapter struct {
	log    *zerolog.Logger
	nextID int64
}

func NewNoopBotAdapter(logger *zerolog.Logger) *NoopBotAdapter {
	l := logger.With().Str("component", "NoopBot").Logger()
	return &NoopBotAdapter{log: &l}
}

func (b *NoopBotAdapter) SendMedia(ctx context.Context, chatID int64, fileID, caption string) (adapter.SentMessage, error) {
	id := int(atomic.AddInt64(&b.nextID, 1))
	b.log.Info().Int64("chat_id", chatID).Str("file_id", fileID).Str("caption", caption).
		Int("message_id", id).Msg("noop send media")
	return adapter.SentMessage{ChatID: chatID, MessageID: id}, nil
}

func (b *NoopBotAdapter) SendText(ctx context.Context, chatID int64, text string) error {
	b.log.Info().Int64("chat_id", chatID).Str("text", text).Msg("noop send text")
	return nil
}

func (b *NoopBotAdapter) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	b.log.Info().Int64("chat_id", chatID).Int("message_id", messageID).Msg("noop delete")
	return nil
}

func (b *NoopBotAdapter) ResolveChannelFile(ctx context.Context, channelID, messageID int64) (string, error) {
	return fmt.Sprintf("noop-file-%d-%d", channelID, messageID), nil
}

func (b *NoopBotAdapter) Identity(ctx context.Context) (adapter.BotIdentity, error) {
	return adapter.BotIdentity{ID: 1, Username: "noop_bot"}, nil
}
