package crm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/minicrm-client/pkg/client"
	"github.com/Sternrassler/minicrm-client/pkg/config"
	"github.com/Sternrassler/minicrm-client/pkg/model"
)

// ErrNoPublications is returned when a document has nothing to bill.
var ErrNoPublications = errors.New("qualification has no publication")

// Document is the payload of a generated invoice or purchase order.
type Document struct {
	EnterpriseID      string `json:"enterprise_id"`
	EnterpriseName    string `json:"enterprise_name"`
	EnterpriseAddress string `json:"enterprise_adresse"`
	EnterpriseCommune string `json:"enterprise_commune"`
	EnterprisePhone   string `json:"enterprise_telephone"`

	Contact      string `json:"interlocuteur"`
	ContactEmail string `json:"email_contact"`
	ContactPhone string `json:"telephone_contact"`
	PaymentMode  string `json:"mode_paiement"`

	DocumentType   config.Action `json:"document_type"`
	DocumentNumber string        `json:"numero_document"`
	IsMulti        bool          `json:"is_multi_publications"`

	// Multi-publication documents list every insertion
	Publications []model.Publication `json:"publications,omitempty"`

	// Single-publication documents describe the one insertion
	Format    string  `json:"format_encart,omitempty"`
	Month     string  `json:"mois_parution,omitempty"`
	UnitPrice float64 `json:"prix_unitaire,omitempty"`

	DescriptionLine1 string `json:"description_ligne1"`
	DescriptionLine2 string `json:"description_ligne2,omitempty"`

	PaidAmount        float64 `json:"montant_payant"`
	FreeAmount        float64 `json:"montant_offert"`
	HasFree           bool    `json:"has_free_publications"`
	TotalPublications int     `json:"total_publications"`

	UserID    int64     `json:"user_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// GeneratedDocument is the result of a document generation.
type GeneratedDocument struct {
	Document Document
	Response *client.Response
}

// DocumentFromQualification builds the document describing q.
//
// Several publications are summarized as a count of paid insertions plus
// the offered ones. A single publication is described with its format,
// month and unit price.
func DocumentFromQualification(q model.Qualification, action config.Action) (Document, error) {
	if len(q.Publications) == 0 {
		return Document{}, ErrNoPublications
	}

	doc := Document{
		EnterpriseID:      q.EnterpriseID,
		EnterpriseName:    q.EnterpriseName,
		EnterpriseAddress: q.EnterpriseAddress,
		EnterpriseCommune: q.EnterpriseCommune,
		EnterprisePhone:   q.EnterprisePhone,
		Contact:           q.Contact,
		ContactEmail:      q.ContactEmail,
		ContactPhone:      q.ContactPhone,
		PaymentMode:       q.PaymentMode,
		DocumentType:      action,
	}

	if len(q.Publications) > 1 {
		pricing := model.CalculatePricing(q.Publications)

		doc.IsMulti = true
		doc.Publications = q.Publications
		doc.DescriptionLine1 = fmt.Sprintf("%d insertion(s) publicitaire(s) - Calendrier %d", pricing.PaidCount, config.PublicationYear)
		if pricing.FreeCount > 0 {
			doc.DescriptionLine2 = fmt.Sprintf("+ %d parution(s) offerte(s)", pricing.FreeCount)
		}
		doc.PaidAmount = q.TotalPrice
		doc.FreeAmount = q.FreeAmount
		doc.HasFree = pricing.FreeCount > 0
		doc.TotalPublications = len(q.Publications)
		return doc, nil
	}

	p := q.Publications[0]
	doc.Format = p.Format
	doc.Month = p.Month
	doc.UnitPrice = p.Price
	doc.DescriptionLine1 = fmt.Sprintf("Insertion publicitaire %s - %s %d", p.Format, p.Month, config.PublicationYear)
	doc.PaidAmount = p.Price
	doc.TotalPublications = 1
	return doc, nil
}

// GenerateDocument numbers doc, stamps it and sends it to the gateway
// under action.
func (s *Service) GenerateDocument(ctx context.Context, action config.Action, doc Document) (*GeneratedDocument, error) {
	if !s.registry.IsValidAction(action) {
		return nil, s.fail(ctx, "Erreur génération", &config.ConfigError{Kind: "action", Name: string(action)})
	}

	label := s.registry.ActionLabel(action)
	now := s.now()

	doc.DocumentType = action
	doc.DocumentNumber = s.registry.DocumentNumber(action, now)
	doc.UserID = s.userID()
	doc.Timestamp = now.UTC()

	s.state.SetLoading(ctx, fmt.Sprintf("Génération %s...", label))

	resp, err := s.client.Call(ctx, config.WebhookGateway, s.envelope(string(action), doc), client.CallOptions{})
	if err != nil {
		return nil, s.fail(ctx, "Erreur génération", err)
	}

	s.state.SetSuccess(ctx, fmt.Sprintf("%s généré", label))
	s.logger.Info().
		Str("action", string(action)).
		Str("document_number", doc.DocumentNumber).
		Msg("Document generated")

	return &GeneratedDocument{Document: doc, Response: resp}, nil
}

// GenerateFromQualification generates the document describing q.
func (s *Service) GenerateFromQualification(ctx context.Context, q model.Qualification, action config.Action) (*GeneratedDocument, error) {
	doc, err := DocumentFromQualification(q, action)
	if err != nil {
		return nil, s.fail(ctx, "Erreur génération", err)
	}
	return s.GenerateDocument(ctx, action, doc)
}
