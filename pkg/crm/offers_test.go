package crm

import (
	"testing"

	"github.com/Sternrassler/minicrm-client/pkg/config"
	"github.com/Sternrassler/minicrm-client/pkg/model"
)

func paid(format string, price float64) model.Publication {
	return model.Publication{Month: "Mai", Format: format, Price: price, Type: model.PublicationPaid}
}

func TestSpecialOffers(t *testing.T) {
	f := newFixture(t)
	loyal := &model.Enterprise{ID: "1", Client2025: true}
	smallPrice := float64(f.svc.registry.FormatPrice(config.FormatSmall))

	tests := []struct {
		name        string
		pubs        []model.Publication
		enterprise  *model.Enterprise
		wantTypes   []string
		wantSavings []float64
	}{
		{
			name: "nothing",
			pubs: []model.Publication{paid(config.FormatSmall, 350)},
		},
		{
			name:        "three paid",
			pubs:        []model.Publication{paid(config.FormatSmall, 350), paid(config.FormatSmall, 350), paid(config.FormatSmall, 350)},
			wantTypes:   []string{OfferFreeFourth},
			wantSavings: []float64{smallPrice},
		},
		{
			name:        "loyal customer",
			pubs:        []model.Publication{paid(config.FormatSmall, 350)},
			enterprise:  loyal,
			wantTypes:   []string{OfferLoyalty},
			wantSavings: []float64{35},
		},
		{
			name:        "mixed formats",
			pubs:        []model.Publication{paid(config.FormatSmall, 350), paid(config.FormatMedium, 500)},
			wantTypes:   []string{OfferMixedFormats},
			wantSavings: []float64{50},
		},
		{
			name: "free publication format ignored",
			pubs: []model.Publication{
				paid(config.FormatSmall, 350),
				{Month: "Juin", Format: config.FormatWide, Type: model.PublicationFree},
			},
		},
		{
			name: "all offers",
			pubs: []model.Publication{
				paid(config.FormatSmall, 350), paid(config.FormatMedium, 500), paid(config.FormatSmall, 350),
			},
			enterprise:  loyal,
			wantTypes:   []string{OfferFreeFourth, OfferLoyalty, OfferMixedFormats},
			wantSavings: []float64{smallPrice, 120, 50},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.svc.SpecialOffers(tt.pubs, tt.enterprise)

			if len(got) != len(tt.wantTypes) {
				t.Fatalf("SpecialOffers() = %+v, want types %v", got, tt.wantTypes)
			}
			for i, o := range got {
				if o.Type != tt.wantTypes[i] {
					t.Errorf("offer[%d].Type = %q, want %q", i, o.Type, tt.wantTypes[i])
				}
				if o.Savings != tt.wantSavings[i] {
					t.Errorf("offer[%d].Savings = %v, want %v", i, o.Savings, tt.wantSavings[i])
				}
			}
		})
	}
}
