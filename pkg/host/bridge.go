// Package host connects the CRM core to the platform embedding it: the
// identity of the end user and the native alert and confirm dialogs.
package host

import (
	"context"
	"strings"

	"github.com/Sternrassler/minicrm-client/pkg/logging"
	"github.com/Sternrassler/minicrm-client/pkg/model"
	"github.com/Sternrassler/minicrm-client/pkg/state"
	"github.com/rs/zerolog"
)

// Bridge is implemented by the embedding platform.
type Bridge interface {
	// User returns the authenticated user, if the platform knows one.
	User() (model.User, bool)

	// Alert shows a message to the user.
	Alert(msg string)

	// Confirm asks the user a yes/no question.
	Confirm(msg string) bool
}

// PlaceholderUser is the identity used when no platform user is available.
var PlaceholderUser = model.User{ID: 0, FirstName: "Utilisateur"}

// Fallback is the Bridge used outside of a host platform. Alerts are
// logged and mirrored into the session status; confirmations return
// ConfirmDefault.
type Fallback struct {
	// State receives alerts as status messages (optional)
	State *state.AppState

	// ConfirmDefault is the answer to every confirmation
	ConfirmDefault bool

	logger zerolog.Logger
}

// NewFallback creates a fallback bridge.
func NewFallback(st *state.AppState, logger *zerolog.Logger) *Fallback {
	return &Fallback{
		State:  st,
		logger: logging.Component(logger, "host"),
	}
}

// User returns PlaceholderUser.
func (f *Fallback) User() (model.User, bool) {
	return PlaceholderUser, true
}

// Alert logs msg and sets it as session status. Messages mentioning an
// error are logged at error level and shown as errors.
func (f *Fallback) Alert(msg string) {
	kind := state.StatusInfo
	ev := f.logger.Info()
	if strings.Contains(msg, "Erreur") {
		kind = state.StatusError
		ev = f.logger.Error()
	}
	ev.Str("message", msg).Msg("Alert")

	if f.State != nil {
		f.State.SetStatus(context.Background(), kind, msg)
	}
}

// Confirm logs msg and returns ConfirmDefault.
func (f *Fallback) Confirm(msg string) bool {
	f.logger.Info().Str("message", msg).Bool("answer", f.ConfirmDefault).Msg("Confirm")
	return f.ConfirmDefault
}

// Resolve returns the platform user, or PlaceholderUser when the bridge
// is nil or has no user.
func Resolve(b Bridge) model.User {
	if b != nil {
		if u, ok := b.User(); ok {
			return u
		}
	}
	return PlaceholderUser
}

// Attach resolves the user of b and stores it in the session.
func Attach(ctx context.Context, b Bridge, st *state.AppState) model.User {
	u := Resolve(b)
	st.SetUser(ctx, u)
	return u
}
