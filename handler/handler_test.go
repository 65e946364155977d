package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"

	"pharmacy-bot/internal/domain"
	"pharmacy-bot/internal/logging"
)

const secret = "s3cret"

type stubDispatcher struct {
	resp   domain.Response
	events []domain.Event
	corrs  []string
}

func (s *stubDispatcher) HandleEvent(ctx context.Context, ev domain.Event) domain.Response {
	s.events = append(s.events, ev)
	s.corrs = append(s.corrs, logging.CorrelationID(ctx))
	return s.resp
}

type delivery struct {
	chatID int64
	resp   domain.Response
}

type stubDeliverer struct {
	delivered []delivery
	answered  []string
	err       error
}

func (s *stubDeliverer) Deliver(_ context.Context, chatID int64, resp domain.Response) error {
	s.delivered = append(s.delivered, delivery{chatID: chatID, resp: resp})
	return s.err
}

func (s *stubDeliverer) AnswerCallbackQuery(_ context.Context, id string) error {
	s.answered = append(s.answered, id)
	return s.err
}

type stubSecret struct {
	val string
	err error
}

func (s stubSecret) Value(context.Context) (string, error) { return s.val, s.err }

type stubDeduper struct {
	seen map[int64]bool
	err  error
}

func (s *stubDeduper) First(_ context.Context, id int64) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	if s.seen[id] {
		return false, nil
	}
	s.seen[id] = true
	return true, nil
}

type fixture struct {
	h    *Handler
	disp *stubDispatcher
	out  *stubDeliverer
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	disp := &stubDispatcher{resp: domain.Response{Kind: domain.ResponseSend, Text: "hi"}}
	out := &stubDeliverer{}
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	h, err := NewHandler(disp, out, stubSecret{val: secret}, opts...)
	require.NoError(t, err)
	return &fixture{h: h, disp: disp, out: out}
}

func makeEvent(body string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       "/webhook",
		Headers: map[string]string{
			"Content-Type":                    "application/json",
			"x-telegram-bot-api-secret-token": secret,
		},
		Body: body,
	}
}

const textUpdate = `{"update_id":1001,"message":{"message_id":5,"from":{"id":42,"first_name":"Ann"},"chat":{"id":900},"text":"/start"}}`

func TestNewHandler_ValidatesDependencies(t *testing.T) {
	_, err := NewHandler(nil, &stubDeliverer{}, stubSecret{})
	require.Error(t, err)
	_, err = NewHandler(&stubDispatcher{}, nil, stubSecret{})
	require.Error(t, err)
	_, err = NewHandler(&stubDispatcher{}, &stubDeliverer{}, nil)
	require.Error(t, err)
}

func TestHandle_HappyPath(t *testing.T) {
	f := newFixture(t)

	resp, err := f.h.Handle(context.Background(), makeEvent(textUpdate))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, resp.Headers["X-Correlation-Id"])

	require.Equal(t, []domain.Event{{UserID: 42, FirstName: "Ann", Kind: domain.EventText, Text: "/start"}}, f.disp.events)
	require.Equal(t, []delivery{{chatID: 900, resp: f.disp.resp}}, f.out.delivered)
	require.Empty(t, f.out.answered)
	require.Equal(t, resp.Headers["X-Correlation-Id"], f.disp.corrs[0])
}

func TestHandle_CallbackIsAnswered(t *testing.T) {
	f := newFixture(t)

	resp, err := f.h.Handle(context.Background(), makeEvent(
		`{"update_id":1002,"callback_query":{"id":"cq-1","from":{"id":42},"message":{"message_id":77,"chat":{"id":900}},"data":"basket_view"}}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 77, f.disp.events[0].MessageID)
	require.Equal(t, []string{"cq-1"}, f.out.answered)
}

func TestHandle_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*events.APIGatewayProxyRequest)
		status int
	}{
		{name: "missing secret", mutate: func(r *events.APIGatewayProxyRequest) {
			delete(r.Headers, "x-telegram-bot-api-secret-token")
		}, status: http.StatusUnauthorized},
		{name: "wrong secret", mutate: func(r *events.APIGatewayProxyRequest) {
			r.Headers["x-telegram-bot-api-secret-token"] = "guess"
		}, status: http.StatusUnauthorized},
		{name: "bad body", mutate: func(r *events.APIGatewayProxyRequest) {
			r.Body = "not-json"
		}, status: http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			req := makeEvent(textUpdate)
			tc.mutate(&req)

			resp, err := f.h.Handle(context.Background(), req)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
			require.Contains(t, resp.Body, `"ok":false`)
			require.Empty(t, f.disp.events)
			require.Empty(t, f.out.delivered)
		})
	}
}

func TestHandle_SecretUnavailable(t *testing.T) {
	h, err := NewHandler(&stubDispatcher{}, &stubDeliverer{}, stubSecret{err: errors.New("ssm down")},
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), makeEvent(textUpdate))
	require.NoError(t, err)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHandle_IgnoredUpdate(t *testing.T) {
	f := newFixture(t)
	resp, err := f.h.Handle(context.Background(), makeEvent(`{"update_id":1003,"edited_message":{"message_id":1}}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, f.disp.events)
}

func TestHandle_DropsRedelivery(t *testing.T) {
	f := newFixture(t, WithDeduper(&stubDeduper{seen: map[int64]bool{}}))

	for range 2 {
		resp, err := f.h.Handle(context.Background(), makeEvent(textUpdate))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	require.Len(t, f.disp.events, 1)
	require.Len(t, f.out.delivered, 1)
}

func TestHandle_DeduperFailureFailsOpen(t *testing.T) {
	f := newFixture(t, WithDeduper(&stubDeduper{err: errors.New("redis down")}))

	resp, err := f.h.Handle(context.Background(), makeEvent(textUpdate))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, f.disp.events, 1)
}

func TestHandle_DeliveryFailureStillAcknowledged(t *testing.T) {
	f := newFixture(t)
	f.out.err = errors.New("telegram down")

	resp, err := f.h.Handle(context.Background(), makeEvent(textUpdate))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandle_UsesProvidedCorrelationID_CaseInsensitive(t *testing.T) {
	f := newFixture(t)
	req := makeEvent(textUpdate)
	req.Headers["x-correlation-id"] = "corr-123"

	resp, err := f.h.Handle(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "corr-123", resp.Headers["X-Correlation-Id"])
	require.Equal(t, "corr-123", f.disp.corrs[0])
}

func TestServeHTTP(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.h)
	defer srv.Close()

	req, err := http.NewRequest(http.MethodPost, srv.URL, strings.NewReader(textUpdate))
	require.NoError(t, err)
	req.Header.Set("X-Telegram-Bot-Api-Secret-Token", secret)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = res.Body.Close() }()
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NotEmpty(t, res.Header.Get("X-Correlation-Id"))
	require.Len(t, f.out.delivered, 1)

	res, err = http.Get(srv.URL)
	require.NoError(t, err)
	_ = res.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
}

type stubRecorder struct{ outcomes []string }

func (s *stubRecorder) Update(outcome string, _ time.Duration) { s.outcomes = append(s.outcomes, outcome) }

func TestHandle_RecordsOutcomes(t *testing.T) {
	rec := &stubRecorder{}
	f := newFixture(t, WithRecorder(rec), WithDeduper(&stubDeduper{seen: map[int64]bool{}}))

	bad := makeEvent(textUpdate)
	bad.Headers["x-telegram-bot-api-secret-token"] = "guess"
	for _, req := range []events.APIGatewayProxyRequest{makeEvent(textUpdate), makeEvent(textUpdate), bad, makeEvent("{")} {
		_, err := f.h.Handle(context.Background(), req)
		require.NoError(t, err)
	}
	f.out.err = errors.New("telegram down")
	_, err := f.h.Handle(context.Background(), makeEvent(`{"update_id":2000,"message":{"message_id":5,"from":{"id":42},"chat":{"id":900},"text":"hi"}}`))
	require.NoError(t, err)

	require.Equal(t, []string{"handled", "duplicate", "unauthorized", "bad_request", "delivery_failed"}, rec.outcomes)
}
