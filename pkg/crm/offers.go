package crm

import (
	"math"

	"github.com/Sternrassler/minicrm-client/pkg/config"
	"github.com/Sternrassler/minicrm-client/pkg/model"
)

// Offer types.
const (
	OfferFreeFourth   = "3plus1"
	OfferLoyalty      = "fidelite"
	OfferMixedFormats = "mixte"
)

// SpecialOffers lists the commercial offers a publication plan qualifies
// for. enterprise may be nil.
func (s *Service) SpecialOffers(pubs []model.Publication, enterprise *model.Enterprise) []model.Offer {
	cond := s.registry.OfferConditions()
	pricing := model.CalculatePricing(pubs)

	var offers []model.Offer

	if cond.MinPublicationsForFree > 0 && pricing.PaidCount >= cond.MinPublicationsForFree {
		offers = append(offers, model.Offer{
			Type:        OfferFreeFourth,
			Title:       "Offre 3+1 : 4ème parution offerte",
			Description: "Ajoutez une 4ème parution gratuite !",
			Savings:     float64(s.registry.FormatPrice(config.FormatSmall)),
		})
	}

	if enterprise != nil && enterprise.Client2025 {
		offers = append(offers, model.Offer{
			Type:        OfferLoyalty,
			Title:       "Réduction fidélité -10%",
			Description: "Client fidèle : -10% sur le total",
			Savings:     math.Round(pricing.Total * cond.LoyaltyDiscountRate),
		})
	}

	formats := make(map[string]struct{})
	for _, p := range pubs {
		if p.Type != model.PublicationFree {
			formats[p.Format] = struct{}{}
		}
	}
	if len(formats) >= 2 {
		offers = append(offers, model.Offer{
			Type:        OfferMixedFormats,
			Title:       "Offre formats mixtes",
			Description: "Optimisation tarifaire détectée !",
			Savings:     float64(cond.MixedFormatsSaving),
		})
	}

	return offers
}
