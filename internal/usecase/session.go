package usecase

import (
	"context"
	"errors"

	"pharmacy-bot/internal/domain"
	"pharmacy-bot/internal/i18n"
	"pharmacy-bot/internal/locker"
)

// Session returns the stored session, UNKNOWN_USER when the user never
// contacted the bot.
func (s *Shop) Session(ctx context.Context, userID int64) (domain.Session, error) {
	sess, err := s.sessions.GetSession(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Session{}, newError(ErrorUnknownUser, "session_not_found", err)
	}
	if err != nil {
		return domain.Session{}, storeError("session_read_error", err)
	}
	return sess, nil
}

// EnsureSession returns the user's session, creating it in IDLE with the
// default locale on first contact. created reports whether this call made it.
func (s *Shop) EnsureSession(ctx context.Context, userID int64, name string) (sess domain.Session, created bool, err error) {
	sess, err = s.Session(ctx, userID)
	if Code(err) != ErrorUnknownUser {
		return sess, false, err
	}

	unlock, err := s.lock(ctx, locker.UserKey(userID))
	if err != nil {
		return domain.Session{}, false, err
	}
	defer unlock()

	sess, err = s.Session(ctx, userID)
	if Code(err) != ErrorUnknownUser {
		return sess, false, err
	}
	sess, err = s.sessions.CreateSession(ctx, domain.NewSession(userID, name, s.defaultLocale, s.now()))
	if errors.Is(err, domain.ErrConflict) {
		// another instance created it first
		sess, err = s.Session(ctx, userID)
		return sess, false, err
	}
	if err != nil {
		return domain.Session{}, false, storeError("session_create_error", err)
	}
	return sess, true, nil
}

// SetLocale switches the user's locale to one of the supported codes.
func (s *Shop) SetLocale(ctx context.Context, userID int64, locale string) (domain.Session, error) {
	code, ok := i18n.Normalize(locale)
	if !ok {
		return domain.Session{}, newError(ErrorInvalidInput, "unsupported_locale", nil)
	}
	return s.updateSession(ctx, userID, func(sess *domain.Session) error {
		sess.Locale = code
		return nil
	})
}

// CancelCheckout leaves contact collection and returns the session to IDLE.
// The basket is not touched.
func (s *Shop) CancelCheckout(ctx context.Context, userID int64) (domain.Session, error) {
	return s.updateSession(ctx, userID, func(sess *domain.Session) error {
		sess.State = domain.StateIdle
		return nil
	})
}

func (s *Shop) updateSession(ctx context.Context, userID int64, fn func(*domain.Session) error) (domain.Session, error) {
	unlock, err := s.lock(ctx, locker.UserKey(userID))
	if err != nil {
		return domain.Session{}, err
	}
	defer unlock()

	var saved domain.Session
	err = s.retryConflict(ctx, func() error {
		sess, err := s.Session(ctx, userID)
		if err != nil {
			return err
		}
		if err := fn(&sess); err != nil {
			return err
		}
		saved, err = s.saveSession(ctx, sess)
		return err
	})
	if err != nil {
		return domain.Session{}, err
	}
	return saved, nil
}

func (s *Shop) saveSession(ctx context.Context, sess domain.Session) (domain.Session, error) {
	sess.UpdatedAt = s.now()
	saved, err := s.sessions.SaveSession(ctx, sess)
	if err != nil {
		return domain.Session{}, storeError("session_write_error", err)
	}
	return saved, nil
}
