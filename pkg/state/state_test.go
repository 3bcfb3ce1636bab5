package state

import (
	"context"
	"fmt"
	"testing"

	"github.com/Sternrassler/minicrm-client/pkg/config"
	"github.com/Sternrassler/minicrm-client/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionState(t *testing.T) {
	assert.Equal(t, NavState("action_facture"), ActionState(config.ActionInvoice))
	assert.Equal(t, NavState("action_stats"), ActionState(config.ActionStats))
}

func TestAppState_SetState(t *testing.T) {
	ctx := context.Background()
	s := New(Options{})
	defer s.Close()

	var got []StateChange
	s.Subscribe(EventStateChange, func(_ context.Context, ev events.Event) error {
		got = append(got, ev.Payload.(StateChange))
		return nil
	})

	s.SetState(ctx, StateSearch)

	assert.Equal(t, StateSearch, s.CurrentState())
	assert.Equal(t, []NavState{StateMainMenu}, s.History())
	require.Len(t, got, 1)
	assert.Equal(t, StateChange{Old: StateMainMenu, New: StateSearch, CanGoBack: true}, got[0])
}

func TestAppState_HistoryBound(t *testing.T) {
	ctx := context.Background()
	s := New(Options{})
	defer s.Close()

	for i := 1; i <= 15; i++ {
		s.SetState(ctx, NavState(fmt.Sprintf("s%d", i)))
	}

	history := s.History()
	require.Len(t, history, MaxHistory)

	// main_menu, s1..s4 dropped; s5..s14 kept (s15 is current)
	want := make([]NavState, 0, MaxHistory)
	for i := 5; i <= 14; i++ {
		want = append(want, NavState(fmt.Sprintf("s%d", i)))
	}
	assert.Equal(t, want, history)
	assert.Equal(t, NavState("s15"), s.CurrentState())
}

func TestAppState_GoBack(t *testing.T) {
	ctx := context.Background()
	s := New(Options{})
	defer s.Close()

	var got []StateChange
	s.Subscribe(EventStateChange, func(_ context.Context, ev events.Event) error {
		got = append(got, ev.Payload.(StateChange))
		return nil
	})

	s.SetState(ctx, StateSearch)
	s.SetState(ctx, ActionState(config.ActionInvoice))

	prev, ok := s.GoBack(ctx)
	require.True(t, ok)
	assert.Equal(t, StateSearch, prev)
	assert.Equal(t, StateSearch, s.CurrentState())

	require.Len(t, got, 3)
	assert.Equal(t, StateChange{
		Old:       ActionState(config.ActionInvoice),
		New:       StateSearch,
		CanGoBack: true,
		IsBack:    true,
	}, got[2])

	prev, ok = s.GoBack(ctx)
	require.True(t, ok)
	assert.Equal(t, StateMainMenu, prev)
	assert.False(t, s.CanGoBack())
}

func TestAppState_GoBackEmpty(t *testing.T) {
	s := New(Options{})
	defer s.Close()

	notified := false
	s.Subscribe(EventStateChange, func(context.Context, events.Event) error {
		notified = true
		return nil
	})

	var (
		prev NavState
		ok   bool
	)
	require.NotPanics(t, func() {
		prev, ok = s.GoBack(context.Background())
	})

	assert.False(t, ok)
	assert.Equal(t, NavState(""), prev)
	assert.Equal(t, StateMainMenu, s.CurrentState())
	assert.False(t, notified)
}

func TestAppState_ClearHistory(t *testing.T) {
	ctx := context.Background()
	s := New(Options{})
	defer s.Close()

	s.SetState(ctx, StateSearch)
	s.ClearHistory()

	assert.Empty(t, s.History())
	assert.Equal(t, StateSearch, s.CurrentState())
}

func TestAppState_HandlerCanReadState(t *testing.T) {
	ctx := context.Background()
	s := New(Options{})
	defer s.Close()

	var seen NavState
	s.Subscribe(EventStateChange, func(context.Context, events.Event) error {
		seen = s.CurrentState()
		return nil
	})

	s.SetState(ctx, StateSearch)

	assert.Equal(t, StateSearch, seen)
}

func TestAppState_Reset(t *testing.T) {
	ctx := context.Background()
	s := New(Options{})
	defer s.Close()

	s.SetState(ctx, StateSearch)
	s.SelectEnterprise(ctx, testEnterprise())
	require.NoError(t, s.SetCurrentAction(ctx, config.ActionInvoice))
	require.NoError(t, s.SetCacheItem(ctx, "k", "v", 0))

	s.Reset(ctx)

	assert.Equal(t, StateMainMenu, s.CurrentState())
	assert.Empty(t, s.History())
	assert.Nil(t, s.SelectedEnterprise())
	assert.Equal(t, config.Action(""), s.CurrentAction())

	var v string
	assert.True(t, s.GetCacheItem(ctx, "k", &v), "Reset keeps the cache")
}

func TestAppState_Close(t *testing.T) {
	ctx := context.Background()
	s := New(Options{})

	s.Subscribe(EventStateChange, func(context.Context, events.Event) error { return nil })
	require.NoError(t, s.SetCacheItem(ctx, "k", 1, 0))
	require.True(t, s.SetTimeout("search", func() {}, timeoutFar))

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	snap := s.Snapshot(ctx)
	assert.Zero(t, snap.ObserversCount)
	assert.Zero(t, snap.ActiveTimeoutsCount)
	assert.Zero(t, snap.CacheStats.Total)
	assert.False(t, s.SetTimeout("search", func() {}, timeoutFar))
}

func TestAppState_Snapshot(t *testing.T) {
	ctx := context.Background()
	s := New(Options{})
	defer s.Close()

	s.SetState(ctx, StateSearch)
	s.SelectEnterprise(ctx, testEnterprise())
	s.SetSearchResults(ctx, nil, "acme")
	s.SetLoading(ctx, "Recherche")
	s.Subscribe(EventStatusChanged, func(context.Context, events.Event) error { return nil })
	require.NoError(t, s.SetCacheItem(ctx, "k", 1, 0))

	snap := s.Snapshot(ctx)

	assert.Equal(t, StateSearch, snap.CurrentState)
	assert.Equal(t, 1, snap.HistoryDepth)
	assert.True(t, snap.CanGoBack)
	assert.True(t, snap.HasSelectedEnterprise)
	assert.Equal(t, Status{Kind: StatusLoading, Message: "Recherche"}, snap.Status)
	assert.Equal(t, 1, snap.CacheStats.Active)
	assert.Equal(t, 1, snap.ObserversCount)
}
