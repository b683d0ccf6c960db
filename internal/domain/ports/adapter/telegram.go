package adapter

import "context"

// SentMessage identifies a message the gateway delivered, as needed to
// target its later deletion.
type SentMessage struct {
	ChatID    int64
	MessageID int
}

// BotIdentity is the gateway's own account, used to build deep links.
type BotIdentity struct {
	ID       int64
	Username string
}

// MediaGateway is the port for the messaging platform client. Implementations
// are thin wrappers over the platform API; every call is a network operation
// that may fail independently of local state.
type MediaGateway interface {
	// SendMedia resends previously uploaded media by its platform file id.
	SendMedia(ctx context.Context, chatID int64, fileID, caption string) (SentMessage, error)
	SendText(ctx context.Context, chatID int64, text string) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	// ResolveChannelFile extracts a reusable video file id from a message in
	// the configured source channel. Non-video messages are an error: the id
	// must stay replayable through SendMedia.
	ResolveChannelFile(ctx context.Context, channelID, messageID int64) (string, error)
	Identity(ctx context.Context) (BotIdentity, error)
}
