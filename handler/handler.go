// Package handler receives Telegram webhook deliveries, either through API
// Gateway on Lambda or as a plain HTTP endpoint.
package handler

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"pharmacy-bot/internal/domain"
	"pharmacy-bot/internal/integrations/telegram"
	"pharmacy-bot/internal/logging"
)

const (
	secretHeader      = "X-Telegram-Bot-Api-Secret-Token"
	correlationHeader = "X-Correlation-Id"
	maxBodyBytes      = 1 << 20
)

type Dispatcher interface {
	HandleEvent(ctx context.Context, ev domain.Event) domain.Response
}

// Deliverer sends the dispatcher's answer back to the chat.
type Deliverer interface {
	Deliver(ctx context.Context, chatID int64, resp domain.Response) error
	AnswerCallbackQuery(ctx context.Context, id string) error
}

// SecretSource yields the webhook secret registered with setWebhook.
type SecretSource interface {
	Value(ctx context.Context) (string, error)
}

// Deduper reports whether an update id is seen for the first time.
type Deduper interface {
	First(ctx context.Context, updateID int64) (bool, error)
}

// Recorder counts deliveries by outcome.
type Recorder interface {
	Update(outcome string, d time.Duration)
}

const (
	outcomeHandled     = "handled"
	outcomeIgnored     = "ignored"
	outcomeDuplicate   = "duplicate"
	outcomeBadRequest  = "bad_request"
	outcomeBadSecret   = "unauthorized"
	outcomeUnavailable = "unavailable"
	outcomeUndelivered = "delivery_failed"
)

type Handler struct {
	dispatcher Dispatcher
	out        Deliverer
	secret     SecretSource
	dedup      Deduper
	metrics    Recorder
	log        *slog.Logger
}

type Option func(*Handler)

// WithDeduper drops redelivered updates. Without it every delivery is handled.
func WithDeduper(d Deduper) Option {
	return func(h *Handler) {
		h.dedup = d
	}
}

func WithRecorder(r Recorder) Option {
	return func(h *Handler) {
		h.metrics = r
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

func NewHandler(d Dispatcher, out Deliverer, secret SecretSource, opts ...Option) (*Handler, error) {
	if d == nil {
		return nil, errors.New("handler: dispatcher must not be nil")
	}
	if out == nil {
		return nil, errors.New("handler: deliverer must not be nil")
	}
	if secret == nil {
		return nil, errors.New("handler: secret source must not be nil")
	}
	h := &Handler{dispatcher: d, out: out, secret: secret, log: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Handle is the Lambda entry point behind API Gateway.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	correlationID := headerValue(req.Headers, correlationHeader)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	status := h.serve(ctx, correlationID, headerValue(req.Headers, secretHeader), []byte(req.Body))
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: correlationID,
		},
		Body: statusBody(status),
	}, nil
}

// ServeHTTP serves the same webhook for long-running deployments.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	correlationID := r.Header.Get(correlationHeader)
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(correlationHeader, correlationID)

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = io.WriteString(w, statusBody(http.StatusMethodNotAllowed))
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	status := http.StatusBadRequest
	if err == nil {
		status = h.serve(r.Context(), correlationID, r.Header.Get(secretHeader), body)
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, statusBody(status))
}

func (h *Handler) serve(ctx context.Context, correlationID, secret string, body []byte) int {
	start := time.Now()
	status, outcome := h.process(ctx, correlationID, secret, body)
	if h.metrics != nil {
		h.metrics.Update(outcome, time.Since(start))
	}
	return status
}

// process answers 200 for every authenticated, decodable delivery. Failures
// after that point are reported to the user, never to the platform, so a
// delivery is never retried into a second state change.
func (h *Handler) process(ctx context.Context, correlationID, secret string, body []byte) (int, string) {
	ctx = logging.WithCorrelationID(ctx, correlationID)

	want, err := h.secret.Value(ctx)
	if err != nil {
		h.log.ErrorContext(ctx, "handler: webhook secret unavailable", "err", err)
		return http.StatusServiceUnavailable, outcomeUnavailable
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(want)) != 1 {
		h.log.WarnContext(ctx, "handler: rejected delivery with bad secret")
		return http.StatusUnauthorized, outcomeBadSecret
	}

	var u telegram.Update
	if err := json.Unmarshal(body, &u); err != nil {
		h.log.WarnContext(ctx, "handler: undecodable update", "err", err)
		return http.StatusBadRequest, outcomeBadRequest
	}
	ctx = logging.WithUpdateID(ctx, u.UpdateID)

	in, ok := telegram.Decode(u)
	if !ok {
		h.log.DebugContext(ctx, "handler: ignored update")
		return http.StatusOK, outcomeIgnored
	}
	ctx = logging.WithUserID(ctx, in.Event.UserID)

	if h.dedup != nil {
		first, err := h.dedup.First(ctx, u.UpdateID)
		switch {
		case err != nil:
			h.log.WarnContext(ctx, "handler: redelivery check failed", "err", err)
		case !first:
			h.log.InfoContext(ctx, "handler: dropped redelivered update")
			return http.StatusOK, outcomeDuplicate
		}
	}

	outcome := outcomeHandled
	resp := h.dispatcher.HandleEvent(ctx, in.Event)
	if err := h.out.Deliver(ctx, in.ChatID, resp); err != nil {
		outcome = outcomeUndelivered
		h.log.ErrorContext(ctx, "handler: deliver response", "kind", string(resp.Kind), "err", err)
	}
	if in.CallbackQueryID != "" {
		if err := h.out.AnswerCallbackQuery(ctx, in.CallbackQueryID); err != nil {
			h.log.WarnContext(ctx, "handler: answer callback query", "err", err)
		}
	}
	h.log.InfoContext(ctx, "handler: update handled", "kind", string(in.Event.Kind), "response", string(resp.Kind))
	return http.StatusOK, outcome
}

// headerValue looks the header up case-insensitively, as API Gateway keeps the
// client's spelling.
func headerValue(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func statusBody(status int) string {
	if status == http.StatusOK {
		return `{"ok":true}`
	}
	b, _ := json.Marshal(map[string]any{"ok": false, "error": http.StatusText(status)})
	return string(b)
}
