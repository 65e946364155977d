package dispatch

import (
	"context"
	"errors"

	"pharmacy-bot/internal/domain"
	"pharmacy-bot/internal/i18n"
	"pharmacy-bot/internal/usecase"
)

var errorMessages = map[usecase.ErrorCode]i18n.Key{
	usecase.ErrorProductNotFound:         i18n.ProductNotFound,
	usecase.ErrorEmptyBasket:             i18n.EmptyBasket,
	usecase.ErrorInvalidStatusTransition: i18n.InvalidStatusTransition,
	usecase.ErrorOrderNotFound:           i18n.OrderNotFound,
	usecase.ErrorInvalidCallback:         i18n.InvalidCallback,
	usecase.ErrorInvalidInput:            i18n.InvalidInput,
}

// errorCode classifies err, treating grammar failures as INVALID_CALLBACK.
func errorCode(err error) usecase.ErrorCode {
	if errors.Is(err, ErrInvalidCallback) {
		return usecase.ErrorInvalidCallback
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		if usecase.Code(err) == usecase.ErrorInternal {
			return usecase.ErrorUnavailable
		}
	}
	return usecase.Code(err)
}

func (d *Dispatcher) failure(ctx context.Context, ev domain.Event, locale string, err error) domain.Response {
	code := errorCode(err)
	key, ok := errorMessages[code]
	if !ok {
		key = i18n.ErrorMessage
	}

	attrs := []any{"user_id", ev.UserID, "kind", string(ev.Kind), "code", string(code), "err", err}
	switch code {
	case usecase.ErrorInternal, usecase.ErrorUnavailable, usecase.ErrorConflict:
		d.log.ErrorContext(ctx, "dispatch: event failed", attrs...)
	default:
		d.log.InfoContext(ctx, "dispatch: event rejected", attrs...)
	}

	// an edit drops the old buttons
	if ev.Kind == domain.EventCallback {
		return edit(ev, i18n.T(locale, key), backKeyboard(locale))
	}
	return send(i18n.T(locale, key), nil)
}
