package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/soigrad/soi/internal/catalog"
	"github.com/soigrad/soi/internal/platform/httpx"
)

// PriceFormatter renders an amount for display in the storefront locale.
type PriceFormatter interface {
	FormatPrice(amount int64) string
}

// CatalogHandlers exposes the read-only product configuration to the
// storefront.
type CatalogHandlers struct {
	catalog *catalog.Catalog
	prices  PriceFormatter
}

// NewCatalogHandlers constructs handlers serving the loaded catalog.
func NewCatalogHandlers(cat *catalog.Catalog, prices PriceFormatter) *CatalogHandlers {
	return &CatalogHandlers{catalog: cat, prices: prices}
}

// Routes wires the catalog endpoints onto the provided router.
func (h *CatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/packages", h.listPackages)
	r.Get("/addons", h.listAddons)
	r.Get("/colors", h.listColors)
}

func (h *CatalogHandlers) listPackages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog is unavailable", http.StatusServiceUnavailable))
		return
	}

	payload := packagesResponse{Packages: make([]packagePayload, 0, len(h.catalog.Packages))}
	for _, pkg := range h.catalog.Packages {
		entry := packagePayload{
			ID:          string(pkg.ID),
			Pieces:      pkg.Pieces,
			Material:    pkg.Material,
			Description: pkg.Description,
			Image:       pkg.ImageRef,
			Fields:      make([]fieldTemplatePayload, 0, len(pkg.BaseFields)),
			Prices:      make(map[string]pricePayload, len(pkg.Prices)),
		}
		for _, tmpl := range pkg.BaseFields {
			entry.Fields = append(entry.Fields, fieldTemplatePayload{ID: tmpl.ID, Label: tmpl.Label})
		}
		for typ, amount := range pkg.Prices {
			entry.Prices[string(typ)] = h.pricePayload(amount)
		}
		payload.Packages = append(payload.Packages, entry)
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *CatalogHandlers) listAddons(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog is unavailable", http.StatusServiceUnavailable))
		return
	}

	payload := addonsResponse{
		Addons:    make([]addonPayload, 0, len(h.catalog.Addons)),
		UnitPrice: h.pricePayload(h.catalog.AddonUnitPrice),
	}
	for _, addon := range h.catalog.Addons {
		payload.Addons = append(payload.Addons, addonPayload{ID: string(addon.ID), FieldID: addon.FieldID})
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *CatalogHandlers) listColors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog is unavailable", http.StatusServiceUnavailable))
		return
	}

	payload := colorsResponse{
		Fabric:        make([]colorPayload, 0, len(h.catalog.FabricColors)),
		Customization: make([]colorPayload, 0, len(h.catalog.CustomizationColors)),
	}
	for _, color := range h.catalog.FabricColors {
		payload.Fabric = append(payload.Fabric, colorPayload{Name: color.Name, Hex: color.Hex})
	}
	for _, color := range h.catalog.CustomizationColors {
		payload.Customization = append(payload.Customization, colorPayload{Name: color.Name, Hex: color.Hex})
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (h *CatalogHandlers) pricePayload(amount int64) pricePayload {
	payload := pricePayload{Amount: amount}
	if h.prices != nil {
		payload.Text = h.prices.FormatPrice(amount)
	}
	return payload
}

type packagesResponse struct {
	Packages []packagePayload `json:"packages"`
}

type packagePayload struct {
	ID          string                  `json:"id"`
	Pieces      string                  `json:"pieces"`
	Material    string                  `json:"material"`
	Description string                  `json:"description,omitempty"`
	Image       string                  `json:"image,omitempty"`
	Fields      []fieldTemplatePayload  `json:"fields"`
	Prices      map[string]pricePayload `json:"prices"`
}

type fieldTemplatePayload struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type pricePayload struct {
	Amount int64  `json:"amount"`
	Text   string `json:"text,omitempty"`
}

type addonsResponse struct {
	Addons    []addonPayload `json:"addons"`
	UnitPrice pricePayload   `json:"unitPrice"`
}

type addonPayload struct {
	ID      string `json:"id"`
	FieldID string `json:"fieldId"`
}

type colorsResponse struct {
	Fabric        []colorPayload `json:"fabricColors"`
	Customization []colorPayload `json:"customizationColors"`
}

type colorPayload struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}
