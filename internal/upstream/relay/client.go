// Package relay implements the upstream ports over the HTTP/JSON API of
// a relay gateway daemon. One Client maps to one authenticated bot slot
// on the daemon; media reads run over per-data-center sessions opened
// through the same gateway.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"reelstream/internal/domain"
	"reelstream/internal/domain/ports"
)

const (
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 4 << 10
)

type Client struct {
	baseURL string
	token   string
	slotID  int
	homeDC  int
	http    *http.Client
}

// Dial authenticates the bot token against the relay gateway and returns
// a client bound to the given worker slot.
func Dial(ctx context.Context, baseURL, token string, slotID int) (*Client, error) {
	c := &Client{
		baseURL: baseURL,
		token:   token,
		slotID:  slotID,
		http:    &http.Client{Timeout: defaultTimeout},
	}

	var info struct {
		HomeDC int `json:"home_dc"`
	}
	if err := c.call(ctx, http.MethodGet, "/v1/me", nil, &info); err != nil {
		return nil, fmt.Errorf("relay auth: %w", err)
	}
	c.homeDC = info.HomeDC
	return c, nil
}

func (c *Client) SlotID() int { return c.slotID }
func (c *Client) HomeDC() int { return c.homeDC }

type wireLocator struct {
	DCID          int    `json:"dc_id"`
	MediaID       int64  `json:"media_id"`
	AccessHash    int64  `json:"access_hash"`
	FileReference []byte `json:"file_reference"`
	Kind          string `json:"kind"`
	UniqueID      string `json:"unique_id"`
	FileName      string `json:"file_name"`
	FileSize      int64  `json:"file_size"`
	MimeType      string `json:"mime_type"`
}

func (w wireLocator) locator() domain.FileLocator {
	return domain.FileLocator{
		DCID:          w.DCID,
		MediaID:       w.MediaID,
		AccessHash:    w.AccessHash,
		FileReference: w.FileReference,
		Kind:          domain.FileKind(w.Kind),
		UniqueID:      w.UniqueID,
		FileName:      w.FileName,
		FileSize:      w.FileSize,
		MimeType:      w.MimeType,
	}
}

func toWire(loc domain.FileLocator) wireLocator {
	return wireLocator{
		DCID:          loc.DCID,
		MediaID:       loc.MediaID,
		AccessHash:    loc.AccessHash,
		FileReference: loc.FileReference,
		Kind:          string(loc.Kind),
		UniqueID:      loc.UniqueID,
		FileName:      loc.FileName,
		FileSize:      loc.FileSize,
		MimeType:      loc.MimeType,
	}
}

func (c *Client) ResolveFile(ctx context.Context, chatID int64, messageID int) (domain.FileLocator, error) {
	req := map[string]any{"chat_id": chatID, "message_id": messageID}
	var resp wireLocator
	if err := c.call(ctx, http.MethodPost, "/v1/files/resolve", req, &resp); err != nil {
		return domain.FileLocator{}, err
	}
	return resp.locator(), nil
}

func (c *Client) ExportAuthorization(ctx context.Context, dcID int) (domain.ExportedAuth, error) {
	req := map[string]any{"dc_id": dcID}
	var resp struct {
		DCID  int    `json:"dc_id"`
		ID    int64  `json:"id"`
		Bytes []byte `json:"bytes"`
	}
	if err := c.call(ctx, http.MethodPost, "/v1/auth/export", req, &resp); err != nil {
		return domain.ExportedAuth{}, err
	}
	return domain.ExportedAuth{DCID: resp.DCID, ID: resp.ID, Bytes: resp.Bytes}, nil
}

func (c *Client) OpenMediaSession(ctx context.Context, dcID int) (ports.MediaSession, error) {
	req := map[string]any{"dc_id": dcID}
	var resp struct {
		SessionID string `json:"session_id"`
	}
	if err := c.call(ctx, http.MethodPost, "/v1/sessions", req, &resp); err != nil {
		return nil, err
	}
	return &mediaSession{client: c, id: resp.SessionID}, nil
}

func (c *Client) Close() error {
	return c.call(context.Background(), http.MethodPost, "/v1/close", nil, nil)
}

// call issues one JSON round trip. Non-2xx responses decode into the
// gateway's error envelope and map onto the domain error set.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// callRaw is call for endpoints returning raw bytes instead of JSON.
func (c *Client) callRaw(ctx context.Context, method, path string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.decodeError(resp)
	}
	return io.ReadAll(resp.Body)
}

type errorBody struct {
	Error struct {
		Code       string `json:"code"`
		Message    string `json:"message"`
		RetryAfter int    `json:"retry_after,omitempty"`
	} `json:"error"`
}

func (c *Client) decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var envelope errorBody
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Code != "" {
		switch envelope.Error.Code {
		case "flood_wait":
			seconds := envelope.Error.RetryAfter
			if seconds <= 0 {
				seconds, _ = strconv.Atoi(resp.Header.Get("Retry-After"))
			}
			return &domain.FloodWaitError{Seconds: seconds}
		case "not_found":
			return fmt.Errorf("%w: %s", domain.ErrNotFound, envelope.Error.Message)
		case "auth_bytes_invalid":
			return domain.ErrAuthBytesInvalid
		default:
			return fmt.Errorf("relay %s: %s", envelope.Error.Code, envelope.Error.Message)
		}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		seconds, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return &domain.FloodWaitError{Seconds: seconds}
	}
	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	return fmt.Errorf("relay status %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
}

var _ ports.Client = (*Client)(nil)

type mediaSession struct {
	client *Client
	id     string
}

func (s *mediaSession) ImportAuthorization(ctx context.Context, auth domain.ExportedAuth) error {
	req := map[string]any{"dc_id": auth.DCID, "id": auth.ID, "bytes": auth.Bytes}
	return s.client.call(ctx, http.MethodPost, "/v1/sessions/"+s.id+"/auth", req, nil)
}

func (s *mediaSession) GetFile(ctx context.Context, loc domain.FileLocator, offset int64, limit int) ([]byte, error) {
	req := map[string]any{
		"location": toWire(loc),
		"offset":   offset,
		"limit":    limit,
	}
	return s.client.callRaw(ctx, http.MethodPost, "/v1/sessions/"+s.id+"/file", req)
}

func (s *mediaSession) Close() error {
	return s.client.call(context.Background(), http.MethodDelete, "/v1/sessions/"+s.id, nil, nil)
}

var _ ports.MediaSession = (*mediaSession)(nil)
