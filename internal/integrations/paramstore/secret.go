package paramstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Decoder extracts the secret from a raw parameter value.
type Decoder func(raw string) (string, error)

// tokenPayload is the JSON shape the bot token parameter is stored in.
type tokenPayload struct {
	Token string `json:"token"`
}

// JSONToken decodes values shaped {"token":"..."}.
func JSONToken(raw string) (string, error) {
	var tp tokenPayload
	if err := json.Unmarshal([]byte(raw), &tp); err != nil {
		return "", fmt.Errorf("unmarshal parameter value as JSON: %w", err)
	}
	if strings.TrimSpace(tp.Token) == "" {
		return "", errors.New("token is empty")
	}
	return tp.Token, nil
}

// Plain uses the trimmed value as is.
func Plain(raw string) (string, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", errors.New("value is empty")
	}
	return v, nil
}

// Secret is one parameter fetched on first use and kept for the lifetime of
// the process. A failed fetch is retried on the next call.
type Secret struct {
	getter Getter
	name   string
	decode Decoder

	mu    sync.Mutex
	value string
}

func NewSecret(getter Getter, name string, decode Decoder) (*Secret, error) {
	if getter == nil {
		return nil, errors.New("paramstore: getter must not be nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("paramstore: secret name must not be empty")
	}
	if decode == nil {
		decode = Plain
	}
	return &Secret{getter: getter, name: name, decode: decode}, nil
}

// Name joins a prefix such as "/pharmacy-bot/" and a parameter name.
func Name(prefix, name string) string {
	return strings.TrimRight(strings.TrimSpace(prefix), "/") + "/" + strings.TrimLeft(name, "/")
}

func (s *Secret) Value(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.value != "" {
		return s.value, nil
	}
	raw, err := s.getter.GetParameter(ctx, s.name)
	if err != nil {
		return "", fmt.Errorf("paramstore: fetch %s: %w", s.name, err)
	}
	v, err := s.decode(raw)
	if err != nil {
		return "", fmt.Errorf("paramstore: decode %s: %w", s.name, err)
	}
	s.value = v
	return v, nil
}
