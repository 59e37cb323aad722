package services

import (
	"errors"

	"github.com/soigrad/soi/internal/catalog"
	domain "github.com/soigrad/soi/internal/domain"
)

// PricingEngine computes order totals from the catalog's price table. Totals
// are whole Iraqi dinars; there are no fractional subunits anywhere in the
// catalog.
type PricingEngine struct {
	catalog *catalog.Catalog
}

// NewPricingEngine constructs a pricing engine over the given catalog.
func NewPricingEngine(cat *catalog.Catalog) (*PricingEngine, error) {
	if cat == nil {
		return nil, errors.New("pricing engine: catalog is required")
	}
	return &PricingEngine{catalog: cat}, nil
}

// QuoteTotal returns basePrice(package, type) plus the addon unit price per
// selected addon. A missing package or price table entry contributes 0
// rather than an error, so the quote is always defined.
func (e *PricingEngine) QuoteTotal(packageID *domain.PackageID, typ domain.CustomizationType, addons []domain.AddonID) int64 {
	var base int64
	if packageID != nil {
		base = e.catalog.BasePrice(*packageID, typ)
	}
	return base + e.catalog.AddonUnitPrice*int64(len(addons))
}
