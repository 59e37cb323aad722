package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	domain "github.com/soigrad/soi/internal/domain"
)

func TestDefaultIsValid(t *testing.T) {
	cat := Default()
	if err := cat.Validate(); err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if len(cat.Packages) != 3 || len(cat.Addons) != 2 {
		t.Fatalf("unexpected catalog size: %d packages, %d addons", len(cat.Packages), len(cat.Addons))
	}
	if cat.AddonUnitPrice != 5000 {
		t.Fatalf("expected addon unit price 5000, got %d", cat.AddonUnitPrice)
	}
	if cat.WhatsAppNumber != "9647738536861" {
		t.Fatalf("unexpected destination %q", cat.WhatsAppNumber)
	}
}

func TestDefaultPriceTable(t *testing.T) {
	cat := Default()
	cases := []struct {
		pkg  domain.PackageID
		typ  domain.CustomizationType
		want int64
	}{
		{domain.PackageClassic, domain.CustomizationPrint, 35000},
		{domain.PackageClassic, domain.CustomizationEmbroidery, 49000},
		{domain.PackageRoyal, domain.CustomizationPrint, 45000},
		{domain.PackageRoyal, domain.CustomizationEmbroidery, 59000},
		{domain.PackageAmerican, domain.CustomizationPrint, 64000},
		{domain.PackageAmerican, domain.CustomizationEmbroidery, 69000},
	}
	for _, tc := range cases {
		if got := cat.BasePrice(tc.pkg, tc.typ); got != tc.want {
			t.Errorf("BasePrice(%s, %s) = %d, want %d", tc.pkg, tc.typ, got, tc.want)
		}
	}
	if got := cat.BasePrice(domain.PackageID("غير موجود"), domain.CustomizationPrint); got != 0 {
		t.Errorf("missing package must price to 0, got %d", got)
	}
}

func TestPackageAndAddonLookup(t *testing.T) {
	cat := Default()

	pkg, ok := cat.Package(domain.PackageRoyal)
	if !ok || len(pkg.BaseFields) != 4 {
		t.Fatalf("unexpected royal package %+v (ok=%v)", pkg, ok)
	}
	if _, ok := cat.Package(domain.PackageID("غير موجود")); ok {
		t.Fatalf("lookup of a missing package must fail")
	}

	addon, ok := cat.Addon(domain.AddonSleeve)
	if !ok || addon.FieldID != "addon_sleeve" {
		t.Fatalf("unexpected sleeve addon %+v (ok=%v)", addon, ok)
	}
	if _, ok := cat.Addon(domain.AddonID("غير موجود")); ok {
		t.Fatalf("lookup of a missing addon must fail")
	}
}

func TestLoadEmptyPathReturnsDefault(t *testing.T) {
	cat, err := Load("  ")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(cat.Packages) != 3 {
		t.Fatalf("expected the built-in catalog, got %d packages", len(cat.Packages))
	}
}

func TestLoadOverrideFile(t *testing.T) {
	payload := `{
		"packages": [
			{
				"id": "بكج الاختبار",
				"pieces": "2 قطع",
				"material": "قطن",
				"fields": [{"id": "test_front", "label": "الأمام"}],
				"prices": {"طباعة": 10000, "تطريز": 15000}
			}
		],
		"addons": [{"id": "الردن", "fieldId": "addon_sleeve"}],
		"addonUnitPrice": 2500,
		"fabricColors": [{"name": "أسود", "hex": "#000000"}],
		"customizationColors": [{"name": "ذهبي", "hex": "#FFD700"}],
		"whatsappNumber": "9647700000000"
	}`
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	cat, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got := cat.BasePrice(domain.PackageID("بكج الاختبار"), domain.CustomizationEmbroidery); got != 15000 {
		t.Fatalf("expected override price 15000, got %d", got)
	}
	if cat.AddonUnitPrice != 2500 || cat.WhatsAppNumber != "9647700000000" {
		t.Fatalf("override values not applied: %+v", cat)
	}
	pkg, ok := cat.Package(domain.PackageID("بكج الاختبار"))
	if !ok || len(pkg.BaseFields) != 1 || pkg.BaseFields[0].ID != "test_front" {
		t.Fatalf("unexpected package %+v (ok=%v)", pkg, ok)
	}
}

func TestLoadRejectsInvalidOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte(`{"packages": [], "whatsappNumber": ""}`), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if _, err := Load(path); !errors.Is(err, ErrInvalidCatalog) {
		t.Fatalf("expected ErrInvalidCatalog, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil || !strings.Contains(err.Error(), "unable to read") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestValidateReportsProblems(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Catalog)
		problem string
	}{
		{
			name:    "duplicate package",
			mutate:  func(c *Catalog) { c.Packages = append(c.Packages, c.Packages[0]) },
			problem: "duplicate package",
		},
		{
			name: "duplicate field",
			mutate: func(c *Catalog) {
				c.Packages[0].BaseFields = append(c.Packages[0].BaseFields, c.Packages[0].BaseFields[0])
			},
			problem: "duplicates field",
		},
		{
			name:    "duplicate addon",
			mutate:  func(c *Catalog) { c.Addons = append(c.Addons, c.Addons[0]) },
			problem: "duplicate addon",
		},
		{
			name:    "addon without field id",
			mutate:  func(c *Catalog) { c.Addons[0].FieldID = " " },
			problem: "has no field id",
		},
		{
			name:    "negative addon price",
			mutate:  func(c *Catalog) { c.AddonUnitPrice = -1 },
			problem: "negative",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cat := Default()
			tc.mutate(cat)
			err := cat.Validate()
			if !errors.Is(err, ErrInvalidCatalog) {
				t.Fatalf("expected ErrInvalidCatalog, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.problem) {
				t.Fatalf("expected problem %q in %v", tc.problem, err)
			}
		})
	}
}
