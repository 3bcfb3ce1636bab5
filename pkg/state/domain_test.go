package state

import (
	"context"
	"errors"
	"testing"

	"github.com/Sternrassler/minicrm-client/pkg/config"
	"github.com/Sternrassler/minicrm-client/pkg/events"
	"github.com/Sternrassler/minicrm-client/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnterprise() *model.Enterprise {
	return &model.Enterprise{ID: "1", Name: "Acme Corp", Commune: "Lyon"}
}

func TestAppState_SelectEnterprise(t *testing.T) {
	ctx := context.Background()
	s := New(Options{})
	defer s.Close()

	var changes []EnterpriseChange
	s.Subscribe(EventEnterpriseSelected, func(_ context.Context, ev events.Event) error {
		changes = append(changes, ev.Payload.(EnterpriseChange))
		return nil
	})

	first := testEnterprise()
	second := &model.Enterprise{ID: "2", Name: "Globex"}

	s.SelectEnterprise(ctx, first)
	s.SelectEnterprise(ctx, second)
	s.ClearSelectedEnterprise(ctx)

	require.Len(t, changes, 3)
	assert.Nil(t, changes[0].Old)
	assert.Same(t, first, changes[0].New)
	assert.Same(t, first, changes[1].Old)
	assert.Same(t, second, changes[1].New)
	assert.Same(t, second, changes[2].Old)
	assert.Nil(t, changes[2].New)
	assert.Nil(t, s.SelectedEnterprise())
}

func TestAppState_SelectEnterpriseOverwrites(t *testing.T) {
	ctx := context.Background()
	s := New(Options{})
	defer s.Close()

	s.SelectEnterprise(ctx, &model.Enterprise{ID: "1", Name: "Acme", Email: "a@acme.fr"})
	s.SelectEnterprise(ctx, &model.Enterprise{ID: "2", Name: "Globex"})

	got := s.SelectedEnterprise()
	require.NotNil(t, got)
	assert.Equal(t, "Globex", got.Name)
	assert.Empty(t, got.Email, "selection replaces, never merges")
}

func TestAppState_SetCurrentAction(t *testing.T) {
	ctx := context.Background()
	s := New(Options{Registry: config.MustNew(config.DefaultSettings())})
	defer s.Close()

	var changes []ActionChange
	s.Subscribe(EventActionChanged, func(_ context.Context, ev events.Event) error {
		changes = append(changes, ev.Payload.(ActionChange))
		return nil
	})

	require.NoError(t, s.SetCurrentAction(ctx, config.ActionInvoice))
	err := s.SetCurrentAction(ctx, "unknown")
	assert.True(t, errors.Is(err, ErrInvalidAction), "got %v", err)
	s.ClearCurrentAction(ctx)

	require.Len(t, changes, 2)
	assert.Equal(t, ActionChange{Old: "", New: config.ActionInvoice}, changes[0])
	assert.Equal(t, ActionChange{Old: config.ActionInvoice, New: ""}, changes[1])
	assert.Equal(t, config.Action(""), s.CurrentAction())
}

func TestAppState_Status(t *testing.T) {
	ctx := context.Background()
	s := New(Options{})
	defer s.Close()

	var got []Status
	s.Subscribe(EventStatusChanged, func(_ context.Context, ev events.Event) error {
		got = append(got, ev.Payload.(Status))
		return nil
	})

	s.SetLoading(ctx, "Recherche")
	s.SetSuccess(ctx, "1 entreprise(s) trouvée(s)")
	s.SetError(ctx, "Erreur")

	assert.Equal(t, []Status{
		{Kind: StatusLoading, Message: "Recherche"},
		{Kind: StatusSuccess, Message: "1 entreprise(s) trouvée(s)"},
		{Kind: StatusError, Message: "Erreur"},
	}, got)
	assert.Equal(t, StatusError, s.Status().Kind)
}

func TestAppState_SearchResults(t *testing.T) {
	ctx := context.Background()
	s := New(Options{})
	defer s.Close()

	var payload SearchResults
	s.Subscribe(EventSearchResultsChanged, func(_ context.Context, ev events.Event) error {
		payload = ev.Payload.(SearchResults)
		return nil
	})

	s.SetSearchResults(ctx, []model.Enterprise{*testEnterprise()}, "acme")

	assert.Equal(t, 1, payload.Count)
	assert.Equal(t, "acme", payload.Query)

	results, query := s.SearchResults()
	assert.Len(t, results, 1)
	assert.Equal(t, "acme", query)

	s.ClearSearchResults(ctx)
	results, query = s.SearchResults()
	assert.Empty(t, results)
	assert.Empty(t, query)
	assert.Zero(t, payload.Count)
}

func TestAppState_Publications(t *testing.T) {
	ctx := context.Background()
	s := New(Options{})
	defer s.Close()

	var seen []string
	for _, ev := range []string{EventPublicationAdded, EventPublicationRemoved, EventPublicationUpdated, EventPublicationsCleared} {
		s.Subscribe(ev, func(_ context.Context, e events.Event) error {
			seen = append(seen, e.Name)
			return nil
		})
	}

	jan := model.Publication{Month: "Janvier", Format: "6X4", Price: 350, Type: model.PublicationPaid}
	feb := model.Publication{Month: "Février", Format: "6X8", Price: 500, Type: model.PublicationPaid}

	s.AddPublication(ctx, jan)
	s.AddPublication(ctx, feb)
	assert.Len(t, s.Publications(), 2)

	feb.Type = model.PublicationFree
	assert.True(t, s.UpdatePublication(ctx, 1, feb))
	assert.False(t, s.UpdatePublication(ctx, 5, feb))

	removed, ok := s.RemovePublication(ctx, 0)
	assert.True(t, ok)
	assert.Equal(t, jan, removed)
	_, ok = s.RemovePublication(ctx, -1)
	assert.False(t, ok)

	assert.Equal(t, []model.Publication{feb}, s.Publications())

	assert.Equal(t, 1, s.NextPublicationNumber())
	assert.Equal(t, 2, s.NextPublicationNumber())
	s.ClearPublications(ctx)
	assert.Empty(t, s.Publications())
	assert.Equal(t, 1, s.NextPublicationNumber())

	assert.Equal(t, []string{
		EventPublicationAdded,
		EventPublicationAdded,
		EventPublicationUpdated,
		EventPublicationRemoved,
		EventPublicationsCleared,
	}, seen)
}

func TestAppState_PublicationsCopy(t *testing.T) {
	ctx := context.Background()
	s := New(Options{})
	defer s.Close()

	pubs := []model.Publication{{Month: "Mars", Format: "6X4"}}
	s.SetPublications(ctx, pubs)
	pubs[0].Month = "Avril"

	got := s.Publications()
	got[0].Format = "12X4"

	assert.Equal(t, []model.Publication{{Month: "Mars", Format: "6X4"}}, s.Publications())
}

func TestAppState_QualificationOfferUser(t *testing.T) {
	ctx := context.Background()
	s := New(Options{})
	defer s.Close()

	_, ok := s.User()
	assert.False(t, ok)

	s.SetUser(ctx, model.User{ID: 42, FirstName: "Marie"})
	u, ok := s.User()
	assert.True(t, ok)
	assert.Equal(t, int64(42), u.ID)

	q := &model.Qualification{EnterpriseID: "1"}
	s.SetQualification(ctx, q)
	assert.Same(t, q, s.Qualification())
	s.ClearQualification(ctx)
	assert.Nil(t, s.Qualification())

	o := &model.Offer{Type: "3plus1"}
	s.SelectOffer(ctx, o)
	assert.Same(t, o, s.SelectedOffer())
}
