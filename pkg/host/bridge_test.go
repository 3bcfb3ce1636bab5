package host

import (
	"context"
	"testing"

	"github.com/Sternrassler/minicrm-client/pkg/model"
	"github.com/Sternrassler/minicrm-client/pkg/state"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type stubBridge struct {
	user    model.User
	hasUser bool
	alerts  []string
}

func (b *stubBridge) User() (model.User, bool) { return b.user, b.hasUser }
func (b *stubBridge) Alert(msg string) { b.alerts = append(b.alerts, msg) }
func (b *stubBridge) Confirm(string) bool { return true }

func TestResolve(t *testing.T) {
	marie := model.User{ID: 42, FirstName: "Marie"}

	tests := []struct {
		name   string
		bridge Bridge
		want   model.User
	}{
		{"nil bridge", nil, PlaceholderUser},
		{"no user", &stubBridge{}, PlaceholderUser},
		{"platform user", &stubBridge{user: marie, hasUser: true}, marie},
		{"fallback", NewFallback(nil, nil), PlaceholderUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.bridge); got != tt.want {
				t.Errorf("Resolve() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAttach(t *testing.T) {
	st := state.New(state.Options{})
	defer st.Close()

	u := Attach(context.Background(), &stubBridge{user: model.User{ID: 7, FirstName: "Luc"}, hasUser: true}, st)

	got, ok := st.User()
	assert.True(t, ok)
	assert.Equal(t, u, got)
	assert.Equal(t, int64(7), got.ID)
}

func TestFallback_Alert(t *testing.T) {
	st := state.New(state.Options{})
	defer st.Close()
	logger := zerolog.Nop()
	f := NewFallback(st, &logger)

	f.Alert("Qualification enregistrée")
	assert.Equal(t, state.Status{Kind: state.StatusInfo, Message: "Qualification enregistrée"}, st.Status())

	f.Alert("Erreur réseau")
	assert.Equal(t, state.StatusError, st.Status().Kind)
}

func TestFallback_Confirm(t *testing.T) {
	f := NewFallback(nil, nil)
	assert.False(t, f.Confirm("Supprimer ?"))

	f.ConfirmDefault = true
	assert.True(t, f.Confirm("Supprimer ?"))
}

var _ Bridge = (*Fallback)(nil)
