package state

import (
	"context"
	"fmt"

	"github.com/Sternrassler/minicrm-client/pkg/config"
	"github.com/Sternrassler/minicrm-client/pkg/model"
)

// SelectEnterprise replaces the selected enterprise. A nil enterprise clears
// the selection.
func (s *AppState) SelectEnterprise(ctx context.Context, e *model.Enterprise) {
	s.mu.Lock()
	old := s.enterprise
	s.enterprise = e
	s.mu.Unlock()

	if e != nil {
		s.logger.Info().Str("enterprise_id", e.ID).Str("enterprise", e.Name).Msg("Enterprise selected")
	}
	s.bus.Notify(ctx, EventEnterpriseSelected, EnterpriseChange{Old: old, New: e})
}

// SelectedEnterprise returns the selected enterprise, or nil.
func (s *AppState) SelectedEnterprise() *model.Enterprise {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enterprise
}

// ClearSelectedEnterprise clears the selection.
func (s *AppState) ClearSelectedEnterprise(ctx context.Context) {
	s.SelectEnterprise(ctx, nil)
}

// SetCurrentAction sets the current action. When the state was built with a
// registry, unknown actions are rejected.
func (s *AppState) SetCurrentAction(ctx context.Context, a config.Action) error {
	if a != "" && s.registry != nil && !s.registry.IsValidAction(a) {
		return fmt.Errorf("%w: %q", ErrInvalidAction, a)
	}

	s.mu.Lock()
	old := s.action
	s.action = a
	s.mu.Unlock()

	s.logger.Debug().Str("action", string(a)).Msg("Current action")
	s.bus.Notify(ctx, EventActionChanged, ActionChange{Old: old, New: a})
	return nil
}

// CurrentAction returns the current action, or "".
func (s *AppState) CurrentAction() config.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.action
}

// ClearCurrentAction clears the current action.
func (s *AppState) ClearCurrentAction(ctx context.Context) {
	_ = s.SetCurrentAction(ctx, "")
}

// SetStatus updates the user-visible status line.
func (s *AppState) SetStatus(ctx context.Context, kind StatusKind, msg string) {
	st := Status{Kind: kind, Message: msg}

	s.mu.Lock()
	s.status = st
	s.mu.Unlock()

	s.logger.Debug().Str("status", string(kind)).Msg(msg)
	s.bus.Notify(ctx, EventStatusChanged, st)
}

// SetLoading sets a loading status.
func (s *AppState) SetLoading(ctx context.Context, msg string) {
	s.SetStatus(ctx, StatusLoading, msg)
}

// SetSuccess sets a success status.
func (s *AppState) SetSuccess(ctx context.Context, msg string) {
	s.SetStatus(ctx, StatusSuccess, msg)
}

// SetError sets an error status.
func (s *AppState) SetError(ctx context.Context, msg string) {
	s.SetStatus(ctx, StatusError, msg)
}

// Status returns the last status.
func (s *AppState) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SetSearchResults stores the results of query.
func (s *AppState) SetSearchResults(ctx context.Context, results []model.Enterprise, query string) {
	s.mu.Lock()
	s.searchResults = results
	s.searchQuery = query
	s.mu.Unlock()

	s.bus.Notify(ctx, EventSearchResultsChanged, SearchResults{
		Results: results,
		Query:   query,
		Count:   len(results),
	})
}

// SearchResults returns the current results and the query they answer.
func (s *AppState) SearchResults() ([]model.Enterprise, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Enterprise(nil), s.searchResults...), s.searchQuery
}

// ClearSearchResults empties the results.
func (s *AppState) ClearSearchResults(ctx context.Context) {
	s.SetSearchResults(ctx, nil, "")
}

// SetPublications replaces the publication list.
func (s *AppState) SetPublications(ctx context.Context, pubs []model.Publication) {
	pubs = append([]model.Publication(nil), pubs...)

	s.mu.Lock()
	s.publications = pubs
	s.mu.Unlock()

	s.bus.Notify(ctx, EventPublicationsChanged, PublicationsChange{Publications: pubs, Count: len(pubs)})
}

// Publications returns a copy of the publication list.
func (s *AppState) Publications() []model.Publication {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Publication(nil), s.publications...)
}

// AddPublication appends p.
func (s *AppState) AddPublication(ctx context.Context, p model.Publication) {
	s.mu.Lock()
	s.publications = append(s.publications, p)
	idx := len(s.publications) - 1
	s.mu.Unlock()

	s.bus.Notify(ctx, EventPublicationAdded, PublicationChange{New: &p, Index: idx})
}

// RemovePublication removes the publication at index.
func (s *AppState) RemovePublication(ctx context.Context, index int) (model.Publication, bool) {
	s.mu.Lock()
	if index < 0 || index >= len(s.publications) {
		s.mu.Unlock()
		return model.Publication{}, false
	}
	removed := s.publications[index]
	s.publications = append(s.publications[:index:index], s.publications[index+1:]...)
	s.mu.Unlock()

	s.bus.Notify(ctx, EventPublicationRemoved, PublicationChange{Old: &removed, Index: index})
	return removed, true
}

// UpdatePublication replaces the publication at index.
func (s *AppState) UpdatePublication(ctx context.Context, index int, p model.Publication) bool {
	s.mu.Lock()
	if index < 0 || index >= len(s.publications) {
		s.mu.Unlock()
		return false
	}
	old := s.publications[index]
	s.publications[index] = p
	s.mu.Unlock()

	s.bus.Notify(ctx, EventPublicationUpdated, PublicationChange{Old: &old, New: &p, Index: index})
	return true
}

// ClearPublications empties the list and resets the counter.
func (s *AppState) ClearPublications(ctx context.Context) {
	s.mu.Lock()
	s.publications = nil
	s.publicationCounter = 0
	s.mu.Unlock()

	s.bus.Notify(ctx, EventPublicationsCleared, nil)
}

// NextPublicationNumber increments and returns the publication counter.
func (s *AppState) NextPublicationNumber() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publicationCounter++
	return s.publicationCounter
}

// SetQualification stores the qualification being edited or just created.
func (s *AppState) SetQualification(ctx context.Context, q *model.Qualification) {
	s.mu.Lock()
	s.qualification = q
	s.mu.Unlock()

	s.bus.Notify(ctx, EventQualificationChanged, q)
}

// Qualification returns the stored qualification, or nil.
func (s *AppState) Qualification() *model.Qualification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.qualification
}

// ClearQualification drops the stored qualification.
func (s *AppState) ClearQualification(ctx context.Context) {
	s.SetQualification(ctx, nil)
}

// SelectOffer stores the chosen commercial offer.
func (s *AppState) SelectOffer(ctx context.Context, o *model.Offer) {
	s.mu.Lock()
	s.offer = o
	s.mu.Unlock()

	s.bus.Notify(ctx, EventOfferSelected, o)
}

// SelectedOffer returns the chosen offer, or nil.
func (s *AppState) SelectedOffer() *model.Offer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offer
}

// SetUser stores the end-user identity.
func (s *AppState) SetUser(ctx context.Context, u model.User) {
	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()

	s.bus.Notify(ctx, EventUserChanged, u)
}

// User returns the end-user identity, if one was set.
func (s *AppState) User() (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return model.User{}, false
	}
	return *s.user, true
}
