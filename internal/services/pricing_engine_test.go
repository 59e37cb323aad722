package services

import (
	"testing"

	"github.com/soigrad/soi/internal/catalog"
	domain "github.com/soigrad/soi/internal/domain"
)

func TestPricingEngineQuoteTotal(t *testing.T) {
	engine, err := NewPricingEngine(catalog.Default())
	if err != nil {
		t.Fatalf("NewPricingEngine error: %v", err)
	}

	classic := domain.PackageClassic
	royal := domain.PackageRoyal

	cases := []struct {
		name      string
		packageID *domain.PackageID
		typ       domain.CustomizationType
		addons    []domain.AddonID
		want      int64
	}{
		{"classic print no addons", &classic, domain.CustomizationPrint, nil, 35000},
		{"classic print cap front", &classic, domain.CustomizationPrint, []domain.AddonID{domain.AddonCapFront}, 40000},
		{"royal embroidery two addons", &royal, domain.CustomizationEmbroidery, []domain.AddonID{domain.AddonCapFront, domain.AddonSleeve}, 69000},
		{"no package", nil, domain.CustomizationPrint, nil, 0},
		{"no package with addon", nil, domain.CustomizationPrint, []domain.AddonID{domain.AddonSleeve}, 5000},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := engine.QuoteTotal(tc.packageID, tc.typ, tc.addons); got != tc.want {
				t.Fatalf("QuoteTotal = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestPricingEngineMissingTableEntry(t *testing.T) {
	cat := catalog.Default()
	cat.Packages = append(cat.Packages, domain.Package{ID: domain.PackageID("بدون أسعار")})
	engine, err := NewPricingEngine(cat)
	if err != nil {
		t.Fatalf("NewPricingEngine error: %v", err)
	}

	unknown := domain.PackageID("بدون أسعار")
	if got := engine.QuoteTotal(&unknown, domain.CustomizationEmbroidery, nil); got != 0 {
		t.Fatalf("missing price entry must quote 0, got %d", got)
	}
}

func TestPricingEngineRequiresCatalog(t *testing.T) {
	if _, err := NewPricingEngine(nil); err == nil {
		t.Fatalf("expected error for nil catalog")
	}
}
