package notify

import (
	"context"
	"fmt"
	"log/slog"

	"reelstream/internal/domain/ports"
)

// Notifier mirrors operational events into the configured log chat so
// the operator sees failures without tailing server logs. A zero chat
// id disables delivery; every method stays safe to call.
type Notifier struct {
	messenger ports.Messenger
	chatID    int64
	logger    *slog.Logger
}

func New(messenger ports.Messenger, chatID int64, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{messenger: messenger, chatID: chatID, logger: logger}
}

func (n *Notifier) Infof(ctx context.Context, format string, args ...any) {
	n.send(ctx, fmt.Sprintf(format, args...))
}

func (n *Notifier) Errorf(ctx context.Context, format string, args ...any) {
	n.send(ctx, "❌ "+fmt.Sprintf(format, args...))
}

func (n *Notifier) send(ctx context.Context, text string) {
	if n == nil || n.messenger == nil || n.chatID == 0 {
		return
	}
	if _, err := n.messenger.SendMessage(ctx, n.chatID, text); err != nil {
		n.logger.Warn("log chat notification failed", "error", err)
	}
}
