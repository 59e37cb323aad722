package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	domain "github.com/soigrad/soi/internal/domain"
)

var (
	// ErrInvalidCatalog indicates the catalog data failed validation.
	ErrInvalidCatalog = errors.New("catalog: invalid catalog")
)

// Catalog is the read-only product configuration supplied at startup:
// packages with their price tables, the addon list and unit price, the color
// palettes, and the messaging destination.
type Catalog struct {
	Packages            []domain.Package
	Addons              []domain.Addon
	AddonUnitPrice      int64
	FabricColors        []domain.ColorOption
	CustomizationColors []domain.ColorOption
	WhatsAppNumber      string
}

// Default returns the built-in SOI catalog.
func Default() *Catalog {
	return &Catalog{
		Packages: []domain.Package{
			{
				ID:          domain.PackageClassic,
				Pieces:      "3 قطع",
				Material:    "قماش باربي",
				Description: "تصميم مميز ويحمل اسم البكج.",
				ImageRef:    "https://storage.googleapis.com/source.agpar.in/app/986b5e02-40f7-418c-8f47-810a90407158.jpg",
				BaseFields: []domain.FieldTemplate{
					{ID: "classic_right_sash", Label: "الجهة اليمنى للوشاح"},
					{ID: "classic_left_sash", Label: "الجهة اليسرى للوشاح"},
					{ID: "classic_tassel", Label: "ظهر القبعة او المسطرة"},
				},
				Prices: map[domain.CustomizationType]int64{
					domain.CustomizationPrint:      35000,
					domain.CustomizationEmbroidery: 49000,
				},
			},
			{
				ID:          domain.PackageRoyal,
				Pieces:      "3 قطع",
				Material:    "قماش باربي",
				Description: "تصميم مميز ويحمل اسم البكج.",
				ImageRef:    "https://storage.googleapis.com/source.agpar.in/app/e5c2b1a3-1f1d-4a8e-9b0a-7c9d0f3d6b4c.jpg",
				BaseFields: []domain.FieldTemplate{
					{ID: "royal_right", Label: "الجهة اليمنى"},
					{ID: "royal_left", Label: "الجهة اليسرى"},
					{ID: "royal_sash_back", Label: "ظهر الوشاح"},
					{ID: "royal_tassel", Label: "ظهر القبعة او المسطرة"},
				},
				Prices: map[domain.CustomizationType]int64{
					domain.CustomizationPrint:      45000,
					domain.CustomizationEmbroidery: 59000,
				},
			},
			{
				ID:          domain.PackageAmerican,
				Pieces:      "3 قطع",
				Material:    "قماش باربي",
				Description: "تصميم مميز ويحمل اسم البكج.",
				ImageRef:    "https://storage.googleapis.com/source.agpar.in/app/149e038f-432d-4340-9a3b-2852230a1099.jpg",
				BaseFields: []domain.FieldTemplate{
					{ID: "american_sash", Label: "الجهة الأمامية للوشاح"},
					{ID: "american_tassel", Label: "ظهر القبعة او المسطرة"},
				},
				Prices: map[domain.CustomizationType]int64{
					domain.CustomizationPrint:      64000,
					domain.CustomizationEmbroidery: 69000,
				},
			},
		},
		Addons: []domain.Addon{
			{ID: domain.AddonCapFront, FieldID: "addon_cap_front"},
			{ID: domain.AddonSleeve, FieldID: "addon_sleeve"},
		},
		AddonUnitPrice: 5000,
		FabricColors: []domain.ColorOption{
			{Name: "أسود", Hex: "#000000"},
			{Name: "كحلي", Hex: "#000080"},
			{Name: "أبيض", Hex: "#FFFFFF"},
			{Name: "ماروني", Hex: "#800000"},
			{Name: "رصاصي", Hex: "#808080"},
		},
		CustomizationColors: []domain.ColorOption{
			{Name: "ذهبي", Hex: "#FFD700"},
			{Name: "فضي", Hex: "#C0C0C0"},
			{Name: "أبيض", Hex: "#FFFFFF"},
			{Name: "أسود", Hex: "#000000"},
			{Name: "أحمر", Hex: "#FF0000"},
		},
		WhatsAppNumber: "9647738536861",
	}
}

// Load reads a catalog override from a JSON file. An empty path returns the
// built-in catalog.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: unable to read %s: %w", path, err)
	}
	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("catalog: failed parsing %s: %w", path, err)
	}
	cat := file.toCatalog()
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

// Validate checks the structural invariants lookups rely on: unique package
// and addon identifiers, unique field ids, and a destination number.
func (c *Catalog) Validate() error {
	var problems []string
	if strings.TrimSpace(c.WhatsAppNumber) == "" {
		problems = append(problems, "whatsapp number missing")
	}
	if len(c.Packages) == 0 {
		problems = append(problems, "no packages defined")
	}
	seenPkg := make(map[domain.PackageID]struct{}, len(c.Packages))
	for _, pkg := range c.Packages {
		if _, dup := seenPkg[pkg.ID]; dup {
			problems = append(problems, fmt.Sprintf("duplicate package %q", pkg.ID))
		}
		seenPkg[pkg.ID] = struct{}{}
		seenField := make(map[string]struct{}, len(pkg.BaseFields))
		for _, tmpl := range pkg.BaseFields {
			if strings.TrimSpace(tmpl.ID) == "" {
				problems = append(problems, fmt.Sprintf("package %q has a field without an id", pkg.ID))
				continue
			}
			if _, dup := seenField[tmpl.ID]; dup {
				problems = append(problems, fmt.Sprintf("package %q duplicates field %q", pkg.ID, tmpl.ID))
			}
			seenField[tmpl.ID] = struct{}{}
		}
	}
	seenAddon := make(map[domain.AddonID]struct{}, len(c.Addons))
	for _, addon := range c.Addons {
		if strings.TrimSpace(addon.FieldID) == "" {
			problems = append(problems, fmt.Sprintf("addon %q has no field id", addon.ID))
		}
		if _, dup := seenAddon[addon.ID]; dup {
			problems = append(problems, fmt.Sprintf("duplicate addon %q", addon.ID))
		}
		seenAddon[addon.ID] = struct{}{}
	}
	if c.AddonUnitPrice < 0 {
		problems = append(problems, "addon unit price is negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidCatalog, strings.Join(problems, "; "))
	}
	return nil
}

// Package looks up a package by id.
func (c *Catalog) Package(id domain.PackageID) (domain.Package, bool) {
	for _, pkg := range c.Packages {
		if pkg.ID == id {
			return pkg, true
		}
	}
	return domain.Package{}, false
}

// Addon looks up an addon by id.
func (c *Catalog) Addon(id domain.AddonID) (domain.Addon, bool) {
	for _, addon := range c.Addons {
		if addon.ID == id {
			return addon, true
		}
	}
	return domain.Addon{}, false
}

// BasePrice returns the package price for the given customization type. A
// missing package or a missing table entry evaluates to 0 rather than an
// error.
func (c *Catalog) BasePrice(id domain.PackageID, typ domain.CustomizationType) int64 {
	pkg, ok := c.Package(id)
	if !ok {
		return 0
	}
	return pkg.Prices[typ]
}

type catalogFile struct {
	Packages []struct {
		ID          string `json:"id"`
		Pieces      string `json:"pieces"`
		Material    string `json:"material"`
		Description string `json:"description"`
		Image       string `json:"image"`
		Fields      []struct {
			ID    string `json:"id"`
			Label string `json:"label"`
		} `json:"fields"`
		Prices map[string]int64 `json:"prices"`
	} `json:"packages"`
	Addons []struct {
		ID      string `json:"id"`
		FieldID string `json:"fieldId"`
	} `json:"addons"`
	AddonUnitPrice      int64             `json:"addonUnitPrice"`
	FabricColors        []colorOptionFile `json:"fabricColors"`
	CustomizationColors []colorOptionFile `json:"customizationColors"`
	WhatsAppNumber      string            `json:"whatsappNumber"`
}

type colorOptionFile struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

func (f catalogFile) toCatalog() *Catalog {
	cat := &Catalog{
		AddonUnitPrice: f.AddonUnitPrice,
		WhatsAppNumber: strings.TrimSpace(f.WhatsAppNumber),
	}
	for _, pkg := range f.Packages {
		converted := domain.Package{
			ID:          domain.PackageID(pkg.ID),
			Pieces:      pkg.Pieces,
			Material:    pkg.Material,
			Description: pkg.Description,
			ImageRef:    pkg.Image,
			Prices:      make(map[domain.CustomizationType]int64, len(pkg.Prices)),
		}
		for _, tmpl := range pkg.Fields {
			converted.BaseFields = append(converted.BaseFields, domain.FieldTemplate{ID: tmpl.ID, Label: tmpl.Label})
		}
		for typ, price := range pkg.Prices {
			converted.Prices[domain.CustomizationType(typ)] = price
		}
		cat.Packages = append(cat.Packages, converted)
	}
	for _, addon := range f.Addons {
		cat.Addons = append(cat.Addons, domain.Addon{ID: domain.AddonID(addon.ID), FieldID: addon.FieldID})
	}
	for _, color := range f.FabricColors {
		cat.FabricColors = append(cat.FabricColors, domain.ColorOption{Name: color.Name, Hex: color.Hex})
	}
	for _, color := range f.CustomizationColors {
		cat.CustomizationColors = append(cat.CustomizationColors, domain.ColorOption{Name: color.Name, Hex: color.Hex})
	}
	return cat
}
