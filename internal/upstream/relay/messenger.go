package relay

import (
	"context"
	"errors"
	"net/http"

	"reelstream/internal/domain"
	"reelstream/internal/domain/ports"
)

type messageResponse struct {
	MessageID int `json:"message_id"`
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) (int, error) {
	req := map[string]any{"chat_id": chatID, "text": text}
	var resp messageResponse
	if err := c.call(ctx, http.MethodPost, "/v1/messages/send", req, &resp); err != nil {
		return 0, err
	}
	return resp.MessageID, nil
}

func (c *Client) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string) (int, error) {
	req := map[string]any{"chat_id": chatID, "photo_url": photoURL, "caption": caption}
	var resp messageResponse
	if err := c.call(ctx, http.MethodPost, "/v1/messages/photo", req, &resp); err != nil {
		return 0, err
	}
	return resp.MessageID, nil
}

func (c *Client) ForwardMessage(ctx context.Context, toChat, fromChat int64, messageID int, dropAuthor bool) (int, error) {
	req := map[string]any{
		"to_chat":     toChat,
		"from_chat":   fromChat,
		"message_id":  messageID,
		"drop_author": dropAuthor,
	}
	var resp messageResponse
	if err := c.call(ctx, http.MethodPost, "/v1/messages/forward", req, &resp); err != nil {
		return 0, err
	}
	return resp.MessageID, nil
}

func (c *Client) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	req := map[string]any{"chat_id": chatID, "message_id": messageID}
	return c.call(ctx, http.MethodPost, "/v1/messages/delete", req, nil)
}

type wireMessage struct {
	ChatID    int64        `json:"chat_id"`
	MessageID int          `json:"message_id"`
	Caption   string       `json:"caption"`
	Media     *wireLocator `json:"media"`
	FileID    string       `json:"file_id"`
}

func (m wireMessage) inbound() domain.InboundMedia {
	item := domain.InboundMedia{
		ChatID:    m.ChatID,
		MessageID: m.MessageID,
		Caption:   m.Caption,
		FileID:    m.FileID,
	}
	if m.Media != nil {
		item.Kind = domain.FileKind(m.Media.Kind)
		item.FileName = m.Media.FileName
		item.MimeType = m.Media.MimeType
		item.FileSize = m.Media.FileSize
		item.UniqueID = m.Media.UniqueID
	}
	return item
}

// GetMessage fetches one message by chat reference. ok is false when the
// message exists but carries no media attachment.
func (c *Client) GetMessage(ctx context.Context, chat domain.ChatRef, messageID int) (domain.InboundMedia, bool, error) {
	req := map[string]any{"message_id": messageID}
	if chat.Username != "" {
		req["username"] = chat.Username
	} else {
		req["chat_id"] = chat.ID
	}

	var resp wireMessage
	if err := c.call(ctx, http.MethodPost, "/v1/messages/get", req, &resp); err != nil {
		return domain.InboundMedia{}, false, err
	}
	if resp.Media == nil {
		return domain.InboundMedia{}, false, nil
	}
	return resp.inbound(), true, nil
}

var _ ports.Messenger = (*Client)(nil)

// Update is one long-polled chat event from the gateway.
type Update struct {
	Offset    int64       `json:"offset"`
	ChatID    int64       `json:"chat_id"`
	UserID    int64       `json:"user_id"`
	Username  string      `json:"username"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Text      string      `json:"text"`
	Message   wireMessage `json:"message"`
}

// Media returns the attached media item, or nil for text-only updates.
func (u Update) Media() *domain.InboundMedia {
	if u.Message.Media == nil {
		return nil
	}
	item := u.Message.inbound()
	return &item
}

// PollUpdates long-polls the gateway for the next batch of chat events.
// An empty batch after the poll window is not an error.
func (c *Client) PollUpdates(ctx context.Context, offset int64) ([]Update, error) {
	req := map[string]any{"offset": offset, "timeout_seconds": 25}
	var resp struct {
		Updates []Update `json:"updates"`
	}
	if err := c.call(ctx, http.MethodPost, "/v1/updates", req, &resp); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, nil
		}
		return nil, err
	}
	return resp.Updates, nil
}
