package crm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Sternrassler/minicrm-client/pkg/client"
	"github.com/Sternrassler/minicrm-client/pkg/config"
	"github.com/Sternrassler/minicrm-client/pkg/model"
	"github.com/tidwall/gjson"
)

// ErrInvalidQualification is returned for qualifications rejected before
// any call.
var ErrInvalidQualification = errors.New("invalid qualification")

// validateQualification checks the enterprise, publications and payment
// mode against the registry.
func (s *Service) validateQualification(q model.Qualification) error {
	if strings.TrimSpace(q.EnterpriseID) == "" {
		return fmt.Errorf("%w: missing enterprise", ErrInvalidQualification)
	}
	if len(q.Publications) == 0 {
		return fmt.Errorf("%w: no publication", ErrInvalidQualification)
	}
	for i, p := range q.Publications {
		if !p.Complete() {
			return fmt.Errorf("%w: publication %d is incomplete", ErrInvalidQualification, i+1)
		}
		if !s.registry.IsValidFormat(p.Format) {
			return fmt.Errorf("%w: unknown format %q", ErrInvalidQualification, p.Format)
		}
		if p.Type != model.PublicationPaid && p.Type != model.PublicationFree {
			return fmt.Errorf("%w: unknown publication type %q", ErrInvalidQualification, p.Type)
		}
	}
	if q.PaymentMode != "" && !s.registry.IsValidPaymentMode(q.PaymentMode) {
		return fmt.Errorf("%w: unknown payment mode %q", ErrInvalidQualification, q.PaymentMode)
	}
	return nil
}

// CreateQualification validates q, stamps it with the session user and
// the current time, sends it to the gateway and stores the result as the
// session qualification.
func (s *Service) CreateQualification(ctx context.Context, q model.Qualification) (*model.Qualification, error) {
	if err := s.validateQualification(q); err != nil {
		return nil, s.fail(ctx, "Erreur création qualification", err)
	}

	pricing := model.CalculatePricing(q.Publications)
	q.PublicationCount = len(q.Publications)
	q.TotalPrice = pricing.Total
	q.PaidAmount = pricing.Paid
	q.FreeAmount = pricing.Free
	q.HasMultiple = len(q.Publications) > 1
	q.HasFree = pricing.FreeCount > 0
	q.UserID = s.userID()
	q.Timestamp = s.now().UTC()

	s.state.SetLoading(ctx, "Création qualification...")

	resp, err := s.client.Call(ctx, config.WebhookGateway, s.envelope(string(config.ActionQualification), q), client.CallOptions{})
	if err != nil {
		return nil, s.fail(ctx, "Erreur création qualification", err)
	}

	stored := q
	if resp.Get("enterprise_id").Exists() {
		var echoed model.Qualification
		if err := json.Unmarshal(resp.Data, &echoed); err == nil {
			stored = echoed
		} else {
			s.logger.Debug().Err(err).Msg("Qualification echo not decodable, keeping request")
		}
	}

	s.state.SetQualification(ctx, &stored)
	s.state.SetSuccess(ctx, "Qualification créée avec succès")

	s.logger.Info().
		Str("enterprise_id", stored.EnterpriseID).
		Int("publications", stored.PublicationCount).
		Msg("Qualification created")

	return &stored, nil
}

// LookupQualifications returns the qualifications recorded for an
// enterprise. Failures are logged and yield an empty list.
func (s *Service) LookupQualifications(ctx context.Context, enterpriseID string) []model.Qualification {
	key := cacheKey("qualification", map[string]any{"enterpriseId": enterpriseID})

	var cached []model.Qualification
	if s.state.GetCacheItem(ctx, key, &cached) {
		return cached
	}

	resp, err := s.client.Call(ctx, config.WebhookQualification, s.envelope("search", map[string]any{
		"enterprise_id": enterpriseID,
	}), client.CallOptions{})
	if err != nil {
		s.logger.Warn().Err(err).Str("enterprise_id", enterpriseID).Msg("Qualification lookup failed")
		return []model.Qualification{}
	}

	out := []model.Qualification{}
	root := gjson.ParseBytes(resp.Data)
	if root.IsArray() {
		root.ForEach(func(_, raw gjson.Result) bool {
			var q model.Qualification
			if err := json.Unmarshal([]byte(raw.Raw), &q); err != nil {
				s.logger.Debug().Err(err).Str("enterprise_id", enterpriseID).Msg("Skipping undecodable qualification")
				return true
			}
			out = append(out, q)
			return true
		})
	}

	s.store(ctx, key, out, QualificationTTL)
	return out
}
