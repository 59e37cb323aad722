package services

import (
	"strings"

	"github.com/soigrad/soi/internal/catalog"
	domain "github.com/soigrad/soi/internal/domain"
)

const (
	// tasselFieldSuffix marks the base field occupying the tassel position.
	tasselFieldSuffix = "_tassel"
	// capFrontTasselLabel replaces the tassel label when the cap-front addon
	// occupies the front of the cap.
	capFrontTasselLabel = "ظهر القبعة"
)

// desiredFields computes the field sequence implied by the current package
// and addon selection: the package's base templates (tassel relabeled when
// the cap-front addon is selected) followed by one injected field per addon
// in selection order.
func desiredFields(cat *catalog.Catalog, order domain.Order) []domain.CustomizationField {
	if order.PackageID == nil {
		return nil
	}
	pkg, ok := cat.Package(*order.PackageID)
	if !ok {
		return nil
	}
	fields := make([]domain.CustomizationField, 0, len(pkg.BaseFields)+len(order.Addons))
	capFront := order.HasAddon(domain.AddonCapFront)
	for _, tmpl := range pkg.BaseFields {
		label := tmpl.Label
		if capFront && strings.HasSuffix(tmpl.ID, tasselFieldSuffix) {
			label = capFrontTasselLabel
		}
		fields = append(fields, domain.CustomizationField{ID: tmpl.ID, Label: label})
	}
	for _, id := range order.Addons {
		addon, ok := cat.Addon(id)
		if !ok {
			continue
		}
		fields = append(fields, domain.CustomizationField{ID: addon.FieldID, Label: string(addon.ID)})
	}
	return fields
}

// syncFields recomputes order.Fields from the package and addon selection,
// carrying over image and description for every field whose id survives.
// When the recomputed sequence matches the stored one by (id, label) pairs
// the stored slice is kept untouched; the guard prevents churn because the
// sync runs after every mutation. It returns whether the sequence changed
// and the fields dropped by the recomputation.
func syncFields(cat *catalog.Catalog, order *domain.Order) (bool, []domain.CustomizationField) {
	desired := desiredFields(cat, *order)
	if len(desired) == 0 {
		if len(order.Fields) == 0 {
			return false, nil
		}
		dropped := order.Fields
		order.Fields = nil
		return true, dropped
	}

	existing := make(map[string]domain.CustomizationField, len(order.Fields))
	for _, f := range order.Fields {
		existing[f.ID] = f
	}
	for i := range desired {
		if prev, ok := existing[desired[i].ID]; ok {
			desired[i].Image = prev.Image
			desired[i].Description = prev.Description
		}
	}

	if fieldSequenceEqual(order.Fields, desired) {
		return false, nil
	}

	retained := make(map[string]struct{}, len(desired))
	for _, f := range desired {
		retained[f.ID] = struct{}{}
	}
	var dropped []domain.CustomizationField
	for _, f := range order.Fields {
		if _, ok := retained[f.ID]; !ok {
			dropped = append(dropped, f)
		}
	}

	order.Fields = desired
	return true, dropped
}

// fieldSequenceEqual compares two sequences by (id, label) pairs in order.
func fieldSequenceEqual(a, b []domain.CustomizationField) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Label != b[i].Label {
			return false
		}
	}
	return true
}
