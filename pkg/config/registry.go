package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Webhook names known to the registry.
const (
	WebhookAgent          = "AGENT_CRM"
	WebhookEnterprise     = "ENTERPRISE_API"
	WebhookGateway        = "GATEWAY_ENTITIES"
	WebhookQualification  = "QUALIFICATION_API"
	WebhookEmail          = "EMAIL_WORKFLOW"
	WebhookEnterpriseForm = "FORM_ENTREPRISE"
)

// UI element names known to the registry.
const (
	ElementMainMenu          = "MAIN_MENU"
	ElementSearchInterface   = "SEARCH_INTERFACE"
	ElementConversationState = "CONVERSATION_STATE"
	ElementSearchInput       = "SEARCH_INPUT"
	ElementSearchResults     = "SEARCH_RESULTS"
	ElementStateTitle        = "STATE_TITLE"
	ElementStateContent      = "STATE_CONTENT"
	ElementStatusText        = "STATUS_TEXT"
	ElementUserName          = "USER_NAME"
	ElementUserAvatar        = "USER_AVATAR"
)

// Action is a user-facing workflow the client can drive.
type Action string

// Known actions.
const (
	ActionInvoice       Action = "facture"
	ActionPurchaseOrder Action = "bon_commande"
	ActionForm          Action = "formulaire"
	ActionStats         Action = "stats"
	ActionNewEnterprise Action = "nouvelle_entreprise"
	ActionQualification Action = "qualification"
	ActionAttribution   Action = "attribution"
	ActionIntelligence  Action = "intelligence"
)

// Publication formats.
const (
	FormatSmall   = "6X4"
	FormatMedium  = "6X8"
	FormatWide    = "12X4"
	FormatSpecial = "SPECIAL"

	// BaselineFormat is used when a format is unknown.
	BaselineFormat = FormatSmall
)

// Payment modes.
const (
	PaymentTransfer = "Virement"
	PaymentCheque   = "Cheque"
	PaymentCard     = "Carte"
	PaymentCash     = "Especes"
)

// Option is a value/label pair for selection lists.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// OfferConditions holds the thresholds of the commercial offers.
type OfferConditions struct {
	MinPublicationsForFree int     `json:"min_publications_for_free"`
	LoyaltyDiscountRate    float64 `json:"loyalty_discount_rate"`
	MixedFormatsSaving     int     `json:"mixed_formats_saving"`
}

// Timeouts groups the request and UI delays.
type Timeouts struct {
	API         time.Duration
	Search      time.Duration
	RetryDelay  time.Duration
	SearchDelay time.Duration
}

// SearchConfig groups the search-as-you-type tuning.
type SearchConfig struct {
	MinLength  int
	MaxResults int
	Delay      time.Duration
	CacheTTL   time.Duration
}

var actionLabels = map[Action]string{
	ActionInvoice:       "Génération Facture",
	ActionPurchaseOrder: "Bon de Commande",
	ActionForm:          "Envoi Formulaire",
	ActionStats:         "Statistiques Express",
	ActionNewEnterprise: "Nouvelle Entreprise",
	ActionQualification: "Qualification Prospect",
	ActionAttribution:   "Attribution Prospecteur",
	ActionIntelligence:  "Intelligence IA",
}

var months = []string{
	"Janvier", "Février", "Mars", "Avril", "Mai", "Juin",
	"Juillet", "Août", "Septembre", "Octobre", "Novembre", "Décembre",
}

// PublicationYear is the calendar the publications are sold for.
const PublicationYear = 2026

// Registry is an immutable lookup table assembled at construction.
// All methods are safe for concurrent use.
type Registry struct {
	settings Settings

	webhooks map[string]string
	elements map[string]string

	formatPrices map[string]int
	formatLabels map[string]string
	formatIDs    map[int64]string
	paymentIDs   map[int64]string
	payments     []Option

	offers OfferConditions
}

// New builds a registry from validated settings.
func New(s Settings) (*Registry, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	base := strings.TrimRight(s.BaseURL, "/")
	join := func(path string) string {
		if path == "" {
			return ""
		}
		return base + "/" + strings.TrimLeft(path, "/")
	}

	webhooks := map[string]string{}
	for name, path := range map[string]string{
		WebhookAgent:          s.AgentPath,
		WebhookEnterprise:     s.SearchPath,
		WebhookGateway:        s.GatewayPath,
		WebhookQualification:  s.QualificationPath,
		WebhookEmail:          s.EmailPath,
		WebhookEnterpriseForm: s.EnterpriseFormPath,
	} {
		if url := join(path); url != "" {
			webhooks[name] = url
		}
	}

	return &Registry{
		settings: s,
		webhooks: webhooks,
		elements: map[string]string{
			ElementMainMenu:          "mainMenu",
			ElementSearchInterface:   "searchInterface",
			ElementConversationState: "conversationState",
			ElementSearchInput:       "searchInput",
			ElementSearchResults:     "searchResults",
			ElementStateTitle:        "stateTitle",
			ElementStateContent:      "stateContent",
			ElementStatusText:        "statusText",
			ElementUserName:          "userName",
			ElementUserAvatar:        "userAvatar",
		},
		formatPrices: map[string]int{
			FormatSmall:   350,
			FormatMedium:  500,
			FormatWide:    500,
			FormatSpecial: 0,
		},
		formatLabels: map[string]string{
			FormatSmall:   "6X4 - 350€",
			FormatMedium:  "6X8 - 500€",
			FormatWide:    "12X4 - 500€",
			FormatSpecial: "Format spécial (prix à définir)",
		},
		formatIDs: map[int64]string{
			2984058: FormatSmall,
			2984059: FormatMedium,
			2984060: FormatWide,
		},
		paymentIDs: map[int64]string{
			2984072: PaymentCheque,
			2984073: PaymentTransfer,
		},
		payments: []Option{
			{Value: PaymentTransfer, Label: "Virement bancaire"},
			{Value: PaymentCheque, Label: "Chèque"},
			{Value: PaymentCard, Label: "Carte bancaire"},
			{Value: PaymentCash, Label: "Espèces"},
		},
		offers: OfferConditions{
			MinPublicationsForFree: 3,
			LoyaltyDiscountRate:    0.1,
			MixedFormatsSaving:     50,
		},
	}, nil
}

// MustNew is New for static wiring; it panics on invalid settings.
func MustNew(s Settings) *Registry {
	r, err := New(s)
	if err != nil {
		panic(err)
	}
	return r
}

// Settings returns a copy of the settings the registry was built from.
func (r *Registry) Settings() Settings {
	return r.settings
}

// WebhookURL resolves a webhook name to its URL.
func (r *Registry) WebhookURL(name string) (string, error) {
	url, ok := r.webhooks[name]
	if !ok {
		return "", &ConfigError{Kind: "webhook", Name: name}
	}
	return url, nil
}

// Webhooks returns a copy of the webhook table.
func (r *Registry) Webhooks() map[string]string {
	out := make(map[string]string, len(r.webhooks))
	for k, v := range r.webhooks {
		out[k] = v
	}
	return out
}

// WebhookNames returns the configured webhook names, sorted.
func (r *Registry) WebhookNames() []string {
	names := make([]string, 0, len(r.webhooks))
	for name := range r.webhooks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ElementID resolves a UI element name to its DOM identifier.
func (r *Registry) ElementID(name string) (string, error) {
	id, ok := r.elements[name]
	if !ok {
		return "", &ConfigError{Kind: "element", Name: name}
	}
	return id, nil
}

// FormatPrice returns the unit price of a format. Unknown formats are
// priced as the baseline format.
func (r *Registry) FormatPrice(format string) int {
	if price, ok := r.formatPrices[format]; ok {
		return price
	}
	return r.formatPrices[BaselineFormat]
}

// FormatLabel returns the display label of a format, or the format itself
// when unknown.
func (r *Registry) FormatLabel(format string) string {
	if label, ok := r.formatLabels[format]; ok {
		return label
	}
	return format
}

// FormatOptions lists the known formats in display order.
func (r *Registry) FormatOptions() []Option {
	order := []string{FormatSmall, FormatMedium, FormatWide, FormatSpecial}
	out := make([]Option, 0, len(order))
	for _, f := range order {
		out = append(out, Option{Value: f, Label: r.formatLabels[f]})
	}
	return out
}

// MapFormatID translates a backend format id. Unknown ids map to the
// baseline format.
func (r *Registry) MapFormatID(id int64) string {
	if f, ok := r.formatIDs[id]; ok {
		return f
	}
	return BaselineFormat
}

// MapPaymentID translates a backend payment id. Unknown ids map to a bank
// transfer.
func (r *Registry) MapPaymentID(id int64) string {
	if p, ok := r.paymentIDs[id]; ok {
		return p
	}
	return PaymentTransfer
}

// PaymentOptions lists the accepted payment modes.
func (r *Registry) PaymentOptions() []Option {
	out := make([]Option, len(r.payments))
	copy(out, r.payments)
	return out
}

// MonthOptions lists the publication months of the sold calendar.
func (r *Registry) MonthOptions() []Option {
	out := make([]Option, 0, len(months))
	for _, m := range months {
		out = append(out, Option{Value: m, Label: fmt.Sprintf("%s %d", m, PublicationYear)})
	}
	return out
}

// ActionLabel returns the display label of an action, or the raw action.
func (r *Registry) ActionLabel(a Action) string {
	if label, ok := actionLabels[a]; ok {
		return label
	}
	return string(a)
}

// IsValidAction reports whether a is a known action.
func (r *Registry) IsValidAction(a Action) bool {
	_, ok := actionLabels[a]
	return ok
}

// IsValidFormat reports whether format has a price entry.
func (r *Registry) IsValidFormat(format string) bool {
	_, ok := r.formatPrices[format]
	return ok
}

// IsValidPaymentMode reports whether mode is an accepted payment mode.
func (r *Registry) IsValidPaymentMode(mode string) bool {
	for _, p := range r.payments {
		if p.Value == mode {
			return true
		}
	}
	return false
}

// OfferConditions returns the commercial offer thresholds.
func (r *Registry) OfferConditions() OfferConditions {
	return r.offers
}

// Timeouts returns the request and UI delays.
func (r *Registry) Timeouts() Timeouts {
	return Timeouts{
		API:         millis(r.settings.TimeoutMillis),
		Search:      millis(r.settings.SearchTimeoutMillis),
		RetryDelay:  millis(r.settings.RetryDelayMillis),
		SearchDelay: millis(r.settings.SearchDelayMillis),
	}
}

// RequestTimeout returns the per-attempt timeout for a webhook. The search
// webhook is slower than the others and gets its own budget.
func (r *Registry) RequestTimeout(webhook string) time.Duration {
	if webhook == WebhookEnterprise {
		return millis(r.settings.SearchTimeoutMillis)
	}
	return millis(r.settings.TimeoutMillis)
}

// MaxRetries returns the default number of retries after the first attempt.
func (r *Registry) MaxRetries() int {
	return r.settings.MaxRetries
}

// SearchConfig returns the search-as-you-type tuning.
func (r *Registry) SearchConfig() SearchConfig {
	return SearchConfig{
		MinLength:  r.settings.SearchMinLength,
		MaxResults: r.settings.MaxSearchResults,
		Delay:      millis(r.settings.SearchDelayMillis),
		CacheTTL:   millis(r.settings.CacheTTLMillis),
	}
}

// DocumentNumber builds a document reference such as FA-2026-0315-123456.
// Invoices use the FA prefix, every other document BC.
func (r *Registry) DocumentNumber(a Action, now time.Time) string {
	prefix := "BC"
	if a == ActionInvoice {
		prefix = "FA"
	}
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	return fmt.Sprintf("%s-%04d-%02d%02d-%s", prefix, now.Year(), int(now.Month()), now.Day(), ms)
}
