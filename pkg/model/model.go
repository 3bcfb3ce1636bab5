// Package model holds the typed CRM records shared by the state store and
// the domain service. JSON tags follow the wire names used by the webhooks.
package model

import (
	"encoding/json"
	"time"
)

// Enterprise is a normalized enterprise record.
type Enterprise struct {
	ID      string `json:"id"`
	Name    string `json:"nom_entreprise"`
	Commune string `json:"commune"`
	Phone   string `json:"telephone"`
	Mobile  string `json:"portable,omitempty"`
	Address string `json:"adresse"`
	Email   string `json:"email,omitempty"`
	Contact string `json:"interlocuteur,omitempty"`
	Status  string `json:"statut"`

	// Previous-season data used to prefill a qualification
	Client2025      bool   `json:"client_2025"`
	Format2025      string `json:"format_encart_2025,omitempty"`
	PaymentMode2024 string `json:"mode_paiement_2024,omitempty"`

	// Original is the record as received from the backend
	Original json.RawMessage `json:"_original,omitempty"`
}

// BestPhone returns the landline, or the mobile number if there is none.
func (e Enterprise) BestPhone() string {
	if e.Phone != "" {
		return e.Phone
	}
	return e.Mobile
}

// PublicationType tells paid and free publications apart.
type PublicationType string

const (
	PublicationPaid PublicationType = "payant"
	PublicationFree PublicationType = "offert"
)

// Publication is one insertion in the yearly calendar.
type Publication struct {
	Month  string          `json:"mois"`
	Format string          `json:"format"`
	Price  float64         `json:"prix"`
	Type   PublicationType `json:"type"`
	Order  int             `json:"ordre"`
}

// Complete reports whether month and format are set.
func (p Publication) Complete() bool {
	return p.Month != "" && p.Format != ""
}

// Pricing sums a publication list.
type Pricing struct {
	Total     float64 `json:"total"`
	Paid      float64 `json:"payant"`
	Free      float64 `json:"offert"`
	PaidCount int     `json:"publications_payantes"`
	FreeCount int     `json:"publications_offertes"`
}

// CalculatePricing splits publications into paid and free amounts.
// Total only counts paid publications.
func CalculatePricing(pubs []Publication) Pricing {
	var p Pricing
	for _, pub := range pubs {
		if pub.Type == PublicationFree {
			p.Free += pub.Price
			p.FreeCount++
			continue
		}
		p.Paid += pub.Price
		p.PaidCount++
	}
	p.Total = p.Paid
	return p
}

// Qualification records a prospect's commercial intent.
type Qualification struct {
	EnterpriseID      string `json:"enterprise_id"`
	EnterpriseName    string `json:"enterprise_name"`
	EnterpriseAddress string `json:"enterprise_adresse"`
	EnterpriseCommune string `json:"enterprise_commune"`
	EnterprisePhone   string `json:"enterprise_telephone"`

	Publications []Publication `json:"publications"`
	PaymentMode  string        `json:"mode_paiement"`
	Contact      string        `json:"interlocuteur"`
	ContactEmail string        `json:"email_contact"`
	ContactPhone string        `json:"telephone_contact"`
	Comments     string        `json:"commentaires"`

	PublicationCount int     `json:"nombre_parutions"`
	TotalPrice       float64 `json:"prix_total"`
	PaidAmount       float64 `json:"montant_payant"`
	FreeAmount       float64 `json:"montant_offert"`
	HasMultiple      bool    `json:"has_multiple_publications"`
	HasFree          bool    `json:"has_free_publications"`

	UserID    int64     `json:"user_id,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// NewQualification builds a qualification for enterprise with the derived
// pricing fields filled in.
func NewQualification(e Enterprise, pubs []Publication, paymentMode string) Qualification {
	pricing := CalculatePricing(pubs)
	return Qualification{
		EnterpriseID:      e.ID,
		EnterpriseName:    e.Name,
		EnterpriseAddress: e.Address,
		EnterpriseCommune: e.Commune,
		EnterprisePhone:   e.Phone,
		Publications:      pubs,
		PaymentMode:       paymentMode,
		Contact:           e.Contact,
		ContactEmail:      e.Email,
		ContactPhone:      e.BestPhone(),
		PublicationCount:  len(pubs),
		TotalPrice:        pricing.Total,
		PaidAmount:        pricing.Paid,
		FreeAmount:        pricing.Free,
		HasMultiple:       len(pubs) > 1,
		HasFree:           pricing.FreeCount > 0,
	}
}

// Offer is a commercial offer suggested for a qualification.
type Offer struct {
	Type        string  `json:"type"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Savings     float64 `json:"savings"`
}

// User is the end-user identity supplied by the host platform.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}
