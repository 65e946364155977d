package dispatch

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"pharmacy-bot/internal/i18n"
)

// Action is the operation a callback token selects.
type Action string

const (
	ActionAddToBasket    Action = "add_to_basket"
	ActionIncrease       Action = "basket_increase"
	ActionDecrease       Action = "basket_decrease"
	ActionRemove         Action = "basket_remove"
	ActionClearBasket    Action = "basket_clear"
	ActionCheckout       Action = "basket_checkout"
	ActionViewBasket     Action = "basket_view"
	ActionCategory       Action = "category"
	ActionProduct        Action = "product"
	ActionOrderStatus    Action = "order"
	ActionChangeLanguage Action = "lang"
	ActionMenu           Action = "menu"
)

// Order verbs carried by order tokens.
const (
	VerbConfirm = "confirm"
	VerbCancel  = "cancel"
)

var ErrInvalidCallback = errors.New("dispatch: invalid callback token")

// Callback is a parsed callback token.
type Callback struct {
	Action  Action
	ID      int64
	OrderID string
	Verb    string
	Locale  string
}

type argKind int

const (
	argNone argKind = iota
	argID
	argOrderVerb
	argLocale
)

type rule struct {
	prefix Action
	arg    argKind
}

// rules is the token grammar <domain>[_<subaction>]_<id>[_<verb>], sorted so
// the longest fixed prefix is tried first.
var rules = func() []rule {
	r := []rule{
		{ActionAddToBasket, argID},
		{ActionIncrease, argID},
		{ActionDecrease, argID},
		{ActionRemove, argID},
		{ActionClearBasket, argNone},
		{ActionCheckout, argNone},
		{ActionViewBasket, argNone},
		{ActionCategory, argID},
		{ActionProduct, argID},
		{ActionOrderStatus, argOrderVerb},
		{ActionChangeLanguage, argLocale},
		{ActionMenu, argNone},
	}
	sort.SliceStable(r, func(i, j int) bool { return len(r[i].prefix) > len(r[j].prefix) })
	return r
}()

// ParseCallback resolves token against the grammar. Unknown or malformed
// tokens return ErrInvalidCallback.
func ParseCallback(token string) (Callback, error) {
	for _, r := range rules {
		prefix := string(r.prefix)
		if r.arg == argNone {
			if token == prefix {
				return Callback{Action: r.prefix}, nil
			}
			continue
		}
		rest, ok := strings.CutPrefix(token, prefix+"_")
		if !ok {
			continue
		}
		cb, err := parseArg(r, rest)
		if err != nil {
			return Callback{}, fmt.Errorf("%w: %q: %v", ErrInvalidCallback, token, err)
		}
		return cb, nil
	}
	return Callback{}, fmt.Errorf("%w: %q", ErrInvalidCallback, token)
}

func parseArg(r rule, rest string) (Callback, error) {
	cb := Callback{Action: r.prefix}
	switch r.arg {
	case argID:
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil || id <= 0 {
			return Callback{}, errors.New("bad id")
		}
		cb.ID = id
	case argOrderVerb:
		i := strings.LastIndexByte(rest, '_')
		if i <= 0 {
			return Callback{}, errors.New("missing verb")
		}
		id, verb := rest[:i], rest[i+1:]
		if err := uuid.Validate(id); err != nil {
			return Callback{}, err
		}
		if verb != VerbConfirm && verb != VerbCancel {
			return Callback{}, errors.New("unknown verb")
		}
		cb.OrderID, cb.Verb = id, verb
	case argLocale:
		for _, code := range i18n.Supported() {
			if rest == code {
				cb.Locale = code
				return cb, nil
			}
		}
		return Callback{}, errors.New("unsupported locale")
	}
	return cb, nil
}

// Token renders a callback back into its wire form.
func (c Callback) Token() string {
	switch c.Action {
	case ActionAddToBasket, ActionIncrease, ActionDecrease, ActionRemove, ActionCategory, ActionProduct:
		return string(c.Action) + "_" + strconv.FormatInt(c.ID, 10)
	case ActionOrderStatus:
		return string(c.Action) + "_" + c.OrderID + "_" + c.Verb
	case ActionChangeLanguage:
		return string(c.Action) + "_" + c.Locale
	}
	return string(c.Action)
}
