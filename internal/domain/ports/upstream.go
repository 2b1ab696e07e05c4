package ports

import (
	"context"

	"reelstream/internal/domain"
)

// MediaSession is one authenticated channel to a data center, used
// exclusively for file reads.
type MediaSession interface {
	// ImportAuthorization installs an authorization exported from the
	// primary session. Returns domain.ErrAuthBytesInvalid when the bytes
	// are rejected (retriable).
	ImportAuthorization(ctx context.Context, auth domain.ExportedAuth) error
	// GetFile fetches up to limit bytes starting at offset. An empty
	// result signals end of file.
	GetFile(ctx context.Context, loc domain.FileLocator, offset int64, limit int) ([]byte, error)
	Close() error
}

// Client is one authenticated upstream worker connection.
type Client interface {
	SlotID() int
	HomeDC() int
	// ResolveFile resolves a chat message to its file locator.
	// Returns domain.ErrNotFound when the message carries no media.
	ResolveFile(ctx context.Context, chatID int64, messageID int) (domain.FileLocator, error)
	// ExportAuthorization exports an authorization from the primary
	// session for the given data center.
	ExportAuthorization(ctx context.Context, dcID int) (domain.ExportedAuth, error)
	// OpenMediaSession opens a media session bound to dcID. For the home
	// data center the session reuses the primary auth key and needs no
	// import step.
	OpenMediaSession(ctx context.Context, dcID int) (MediaSession, error)
	Close() error
}

// Messenger is the chat-side surface used by ingestion, delivery and
// notification. Implementations surface *domain.FloodWaitError on
// upstream rate limits.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string) (int, error)
	SendPhoto(ctx context.Context, chatID int64, photoURL, caption string) (int, error)
	ForwardMessage(ctx context.Context, toChat int64, fromChat int64, messageID int, dropAuthor bool) (int, error)
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	// GetMessage fetches one message of a chat; ok is false when the
	// message exists but carries no media attachment.
	GetMessage(ctx context.Context, chat domain.ChatRef, messageID int) (domain.InboundMedia, bool, error)
}
