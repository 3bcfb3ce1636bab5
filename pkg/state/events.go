package state

import (
	"github.com/Sternrassler/minicrm-client/pkg/config"
	"github.com/Sternrassler/minicrm-client/pkg/model"
)

// Events published by AppState.
const (
	EventStateChange          = "stateChange"
	EventEnterpriseSelected   = "enterpriseSelected"
	EventActionChanged        = "actionChanged"
	EventStatusChanged        = "statusChanged"
	EventSearchResultsChanged = "searchResultsChanged"
	EventPublicationsChanged  = "publicationsChanged"
	EventPublicationAdded     = "publicationAdded"
	EventPublicationRemoved   = "publicationRemoved"
	EventPublicationUpdated   = "publicationUpdated"
	EventPublicationsCleared  = "publicationsCleared"
	EventQualificationChanged = "qualificationChanged"
	EventOfferSelected        = "offerSelected"
	EventUserChanged          = "userChanged"
)

// StateChange is the payload of EventStateChange.
type StateChange struct {
	Old       NavState `json:"old"`
	New       NavState `json:"new"`
	CanGoBack bool     `json:"canGoBack"`
	IsBack    bool     `json:"isBack"`
}

// EnterpriseChange is the payload of EventEnterpriseSelected.
type EnterpriseChange struct {
	Old *model.Enterprise `json:"old"`
	New *model.Enterprise `json:"new"`
}

// ActionChange is the payload of EventActionChanged.
type ActionChange struct {
	Old config.Action `json:"old"`
	New config.Action `json:"new"`
}

// StatusKind classifies a status message.
type StatusKind string

const (
	StatusInfo    StatusKind = "info"
	StatusLoading StatusKind = "loading"
	StatusSuccess StatusKind = "success"
	StatusError   StatusKind = "error"
)

// Status is the payload of EventStatusChanged.
type Status struct {
	Kind    StatusKind `json:"type"`
	Message string     `json:"status"`
}

// SearchResults is the payload of EventSearchResultsChanged.
type SearchResults struct {
	Results []model.Enterprise `json:"results"`
	Query   string             `json:"query"`
	Count   int                `json:"count"`
}

// PublicationsChange is the payload of EventPublicationsChanged.
type PublicationsChange struct {
	Publications []model.Publication `json:"publications"`
	Count        int                 `json:"count"`
}

// PublicationChange is the payload of EventPublicationRemoved and
// EventPublicationUpdated. Old is nil for additions, New for removals.
type PublicationChange struct {
	Old   *model.Publication `json:"old,omitempty"`
	New   *model.Publication `json:"new,omitempty"`
	Index int                `json:"index"`
}
