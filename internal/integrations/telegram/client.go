// Package telegram is a focused Bot API client: it decodes webhook updates and
// delivers dispatcher responses.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pharmacy-bot/internal/domain"
)

const (
	defaultBaseURL = "https://api.telegram.org"
	captionLimit   = 1024
)

// TokenSource yields the bot token. paramstore.Secret satisfies it.
type TokenSource interface {
	Value(ctx context.Context) (string, error)
}

// HTTPStatusError captures non-2xx Bot API responses.
type HTTPStatusError struct {
	StatusCode int
	Method     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("telegram: unexpected status %d from %s: %s", e.StatusCode, e.Method, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// apiResponse is the envelope every Bot API method answers with.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenSource
}

type Option func(*Client)

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client. The token is resolved on the first call.
func NewClient(token TokenSource, opts ...Option) (*Client, error) {
	if token == nil {
		return nil, errors.New("telegram: token source must not be nil")
	}
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		token:      token,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) resolvedHTTPClient() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

func methodURL(baseURL, token, method string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	return base + "/bot" + token + "/" + method
}

// Deliver sends resp to chatID the way resp.Kind asks for.
func (c *Client) Deliver(ctx context.Context, chatID int64, resp domain.Response) error {
	switch resp.Kind {
	case domain.ResponseEdit:
		err := c.EditMessageText(ctx, chatID, resp.MessageID, resp.Text, resp.ParseMode, resp.Keyboard)
		switch {
		case err == nil, isNotModified(err):
			return nil
		case isBadRequest(err):
			// media messages carry no text to edit
			return c.SendMessage(ctx, chatID, resp.Text, resp.ParseMode, resp.Keyboard)
		}
		return err
	case domain.ResponseSendWithMedia:
		if len([]rune(resp.Text)) > captionLimit {
			if err := c.SendPhoto(ctx, chatID, resp.MediaURL, "", "", nil); err != nil {
				return err
			}
			return c.SendMessage(ctx, chatID, resp.Text, resp.ParseMode, resp.Keyboard)
		}
		return c.SendPhoto(ctx, chatID, resp.MediaURL, resp.Text, resp.ParseMode, resp.Keyboard)
	}
	return c.SendMessage(ctx, chatID, resp.Text, resp.ParseMode, resp.Keyboard)
}

type sendMessageRequest struct {
	ChatID      int64  `json:"chat_id"`
	Text        string `json:"text"`
	ParseMode   string `json:"parse_mode,omitempty"`
	ReplyMarkup any    `json:"reply_markup,omitempty"`
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text, parseMode string, kb *domain.Keyboard) error {
	return c.call(ctx, "sendMessage", sendMessageRequest{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   parseMode,
		ReplyMarkup: replyMarkup(kb),
	})
}

type editMessageTextRequest struct {
	ChatID      int64                 `json:"chat_id"`
	MessageID   int                   `json:"message_id"`
	Text        string                `json:"text"`
	ParseMode   string                `json:"parse_mode,omitempty"`
	ReplyMarkup *inlineKeyboardMarkup `json:"reply_markup,omitempty"`
}

// EditMessageText replaces a message in place. Only inline layouts can be
// attached to an edit; a reply layout is dropped.
func (c *Client) EditMessageText(ctx context.Context, chatID int64, messageID int, text, parseMode string, kb *domain.Keyboard) error {
	req := editMessageTextRequest{ChatID: chatID, MessageID: messageID, Text: text, ParseMode: parseMode}
	if kb != nil && len(kb.Inline) > 0 {
		req.ReplyMarkup = inlineMarkup(kb.Inline)
	}
	return c.call(ctx, "editMessageText", req)
}

type sendPhotoRequest struct {
	ChatID      int64  `json:"chat_id"`
	Photo       string `json:"photo"`
	Caption     string `json:"caption,omitempty"`
	ParseMode   string `json:"parse_mode,omitempty"`
	ReplyMarkup any    `json:"reply_markup,omitempty"`
}

// SendPhoto sends a photo by URL with an optional caption.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, photoURL, caption, parseMode string, kb *domain.Keyboard) error {
	if strings.TrimSpace(photoURL) == "" {
		return errors.New("telegram: photo URL must not be empty")
	}
	return c.call(ctx, "sendPhoto", sendPhotoRequest{
		ChatID:      chatID,
		Photo:       photoURL,
		Caption:     caption,
		ParseMode:   parseMode,
		ReplyMarkup: replyMarkup(kb),
	})
}

type answerCallbackQueryRequest struct {
	CallbackQueryID string `json:"callback_query_id"`
}

// AnswerCallbackQuery stops the client-side progress indicator of a button.
func (c *Client) AnswerCallbackQuery(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("telegram: callback query id must not be empty")
	}
	return c.call(ctx, "answerCallbackQuery", answerCallbackQueryRequest{CallbackQueryID: id})
}

func (c *Client) call(ctx context.Context, method string, payload any) error {
	token, err := c.token.Value(ctx)
	if err != nil {
		return fmt.Errorf("telegram: resolve token: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: marshal %s request: %w", method, err)
	}

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, methodURL(c.baseURL, token, method), bytes.NewReader(body))
	if reqErr != nil {
		return fmt.Errorf("telegram: create %s request: %w", method, reqErr)
	}
	req.Header.Set("Content-Type", "application/json")

	raw, err := c.doJSONRequest(req, method)
	if err != nil {
		return fmt.Errorf("telegram: %s failed: %w", method, err)
	}

	var res apiResponse
	if decErr := json.Unmarshal(raw, &res); decErr != nil {
		return fmt.Errorf("telegram: decode %s response: %w", method, decErr)
	}
	if !res.OK {
		return fmt.Errorf("telegram: %s rejected: %s", method, res.Description)
	}
	return nil
}

// doJSONRequest never includes the request URL in errors since it embeds the
// bot token.
func (c *Client) doJSONRequest(req *http.Request, method string) ([]byte, error) {
	res, doErr := c.resolvedHTTPClient().Do(req)
	if doErr != nil {
		var uerr *url.Error
		if errors.As(doErr, &uerr) {
			return nil, fmt.Errorf("%s %s: %w", uerr.Op, method, uerr.Err)
		}
		return nil, doErr
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			Method:     method,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}

func isBadRequest(err error) bool {
	var se *HTTPStatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusBadRequest
}

// isNotModified reports the rejection of an edit that changes nothing.
func isNotModified(err error) bool {
	var se *HTTPStatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusBadRequest &&
		strings.Contains(se.Body, "message is not modified")
}
