package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/soigrad/soi/internal/domain"
	"github.com/soigrad/soi/internal/platform/httpx"
	"github.com/soigrad/soi/internal/services"
)

const maxSessionBodySize = 16 * 1024

// contactFieldOrder fixes the application order for multi-field customer
// updates.
var contactFieldOrder = []domain.ContactField{
	domain.ContactFieldName,
	domain.ContactFieldPhone,
	domain.ContactFieldAddress,
}

// SessionHandlers exposes the order wizard over HTTP. Every mutation returns
// the full session snapshot so the storefront can re-render without extra
// round trips.
type SessionHandlers struct {
	orders  services.OrderService
	assets  services.AssetStore
	prices  PriceFormatter
	limiter rateLimiter
}

// SessionOption customises the session handlers before construction.
type SessionOption func(*SessionHandlers)

// NewSessionHandlers constructs handlers wired to the order service.
func NewSessionHandlers(orders services.OrderService, assets services.AssetStore, prices PriceFormatter, opts ...SessionOption) *SessionHandlers {
	h := &SessionHandlers{orders: orders, assets: assets, prices: prices}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// WithSessionRateLimit throttles session creation and submission per client
// address.
func WithSessionRateLimit(limit int, window time.Duration) SessionOption {
	return func(h *SessionHandlers) {
		h.limiter = newWindowRateLimiter(limit, window, nil)
	}
}

// Routes wires the /sessions endpoints onto the provided router.
func (h *SessionHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.createSession)
	r.Route("/{sessionID}", func(sr chi.Router) {
		sr.Get("/", h.getSession)
		sr.Put("/package", h.selectPackage)
		sr.Put("/customization-type", h.setCustomizationType)
		sr.Put("/colors/{slot}", h.setColor)
		sr.Post("/addons/toggle", h.toggleAddon)
		sr.Put("/fields/{fieldID}/image", h.setFieldImage)
		sr.Delete("/fields/{fieldID}/image", h.clearFieldImage)
		sr.Put("/fields/{fieldID}/description", h.setFieldDescription)
		sr.Put("/customer", h.setCustomerInfo)
		sr.Put("/step", h.goToStep)
		sr.Post("/submit", h.submit)
	})
}

func (h *SessionHandlers) createSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service is unavailable", http.StatusServiceUnavailable))
		return
	}
	if h.limiter != nil && !h.limiter.Allow(clientKey(r)) {
		httpx.WriteError(ctx, w, httpx.NewError("rate_limited", "too many sessions; slow down", http.StatusTooManyRequests))
		return
	}
	session, err := h.orders.CreateSession(ctx)
	if err != nil {
		h.writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, h.sessionResponse(session))
}

func (h *SessionHandlers) getSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service is unavailable", http.StatusServiceUnavailable))
		return
	}
	session, err := h.orders.GetSession(ctx, chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, h.sessionResponse(session))
}

func (h *SessionHandlers) selectPackage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		PackageID string `json:"packageId"`
	}
	if err := decodeJSONBody(r, maxSessionBodySize, &req); err != nil {
		h.writeBodyError(ctx, w, err)
		return
	}
	if strings.TrimSpace(req.PackageID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "packageId is required", http.StatusBadRequest))
		return
	}
	session, err := h.orders.SelectPackage(ctx, chi.URLParam(r, "sessionID"), domain.PackageID(req.PackageID))
	if err != nil {
		h.writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, h.sessionResponse(session))
}

func (h *SessionHandlers) setCustomizationType(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		Type string `json:"type"`
	}
	if err := decodeJSONBody(r, maxSessionBodySize, &req); err != nil {
		h.writeBodyError(ctx, w, err)
		return
	}
	session, err := h.orders.SetCustomizationType(ctx, chi.URLParam(r, "sessionID"), domain.CustomizationType(req.Type))
	if err != nil {
		h.writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, h.sessionResponse(session))
}

func (h *SessionHandlers) setColor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		Value string `json:"value"`
	}
	if err := decodeJSONBody(r, maxSessionBodySize, &req); err != nil {
		h.writeBodyError(ctx, w, err)
		return
	}
	slot := domain.ColorSlot(chi.URLParam(r, "slot"))
	session, err := h.orders.SetColor(ctx, chi.URLParam(r, "sessionID"), slot, req.Value)
	if err != nil {
		h.writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, h.sessionResponse(session))
}

func (h *SessionHandlers) toggleAddon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		AddonID string `json:"addonId"`
	}
	if err := decodeJSONBody(r, maxSessionBodySize, &req); err != nil {
		h.writeBodyError(ctx, w, err)
		return
	}
	if strings.TrimSpace(req.AddonID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "addonId is required", http.StatusBadRequest))
		return
	}
	session, err := h.orders.ToggleAddon(ctx, chi.URLParam(r, "sessionID"), domain.AddonID(req.AddonID))
	if err != nil {
		h.writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, h.sessionResponse(session))
}

func (h *SessionHandlers) setFieldImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.assets == nil {
		httpx.WriteError(ctx, w, httpx.NewError("asset_service_unavailable", "asset service is unavailable", http.StatusServiceUnavailable))
		return
	}
	var req struct {
		Name        string `json:"name"`
		ContentType string `json:"contentType"`
		Size        int64  `json:"size"`
	}
	if err := decodeJSONBody(r, maxSessionBodySize, &req); err != nil {
		h.writeBodyError(ctx, w, err)
		return
	}

	asset, err := h.assets.Register(ctx, req.Name, req.ContentType, req.Size)
	if err != nil {
		h.writeAssetError(ctx, w, err)
		return
	}
	session, err := h.orders.SetFieldImage(ctx, chi.URLParam(r, "sessionID"), chi.URLParam(r, "fieldID"), &asset)
	if err != nil {
		h.assets.Release(ctx, asset.Handle)
		h.writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, h.sessionResponse(session))
}

func (h *SessionHandlers) clearFieldImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, err := h.orders.SetFieldImage(ctx, chi.URLParam(r, "sessionID"), chi.URLParam(r, "fieldID"), nil)
	if err != nil {
		h.writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, h.sessionResponse(session))
}

func (h *SessionHandlers) setFieldDescription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		Description string `json:"description"`
	}
	if err := decodeJSONBody(r, maxSessionBodySize, &req); err != nil {
		h.writeBodyError(ctx, w, err)
		return
	}
	session, err := h.orders.SetFieldDescription(ctx, chi.URLParam(r, "sessionID"), chi.URLParam(r, "fieldID"), req.Description)
	if err != nil {
		h.writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, h.sessionResponse(session))
}

func (h *SessionHandlers) setCustomerInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, err := readLimitedBody(r, maxSessionBodySize)
	if err != nil {
		h.writeBodyError(ctx, w, err)
		return
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}
	if len(raw) == 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "no contact fields provided", http.StatusBadRequest))
		return
	}

	// Decode and validate the whole payload before applying anything, so a
	// bad key never leaves the session partially updated.
	values := make(map[domain.ContactField]string, len(raw))
	for key, value := range raw {
		field := domain.ContactField(key)
		if !field.Valid() {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", key+" is not a contact field", http.StatusBadRequest))
			return
		}
		var text string
		if err := json.Unmarshal(value, &text); err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", key+" must be a string", http.StatusBadRequest))
			return
		}
		values[field] = text
	}

	sessionID := chi.URLParam(r, "sessionID")
	var session services.WizardSession
	for _, field := range contactFieldOrder {
		text, ok := values[field]
		if !ok {
			continue
		}
		session, err = h.orders.SetCustomerInfo(ctx, sessionID, field, text)
		if err != nil {
			h.writeOrderError(ctx, w, err)
			return
		}
	}
	writeJSONResponse(w, http.StatusOK, h.sessionResponse(session))
}

func (h *SessionHandlers) goToStep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req struct {
		Step int `json:"step"`
	}
	if err := decodeJSONBody(r, maxSessionBodySize, &req); err != nil {
		h.writeBodyError(ctx, w, err)
		return
	}
	session, err := h.orders.GoToStep(ctx, chi.URLParam(r, "sessionID"), domain.WizardStep(req.Step))
	if err != nil {
		h.writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, h.sessionResponse(session))
}

func (h *SessionHandlers) submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.limiter != nil && !h.limiter.Allow(clientKey(r)) {
		httpx.WriteError(ctx, w, httpx.NewError("rate_limited", "too many submissions; slow down", http.StatusTooManyRequests))
		return
	}
	result, err := h.orders.Submit(ctx, chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, submitResponse{
		Destination: result.Destination,
		Message:     result.Message,
		DeepLink:    result.DeepLink,
	})
}

func (h *SessionHandlers) writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	}
}

func (h *SessionHandlers) writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("session_not_found", "session not found", http.StatusNotFound))
	case errors.Is(err, services.ErrUnknownPackage),
		errors.Is(err, services.ErrUnknownAddon),
		errors.Is(err, services.ErrUnknownColorSlot),
		errors.Is(err, services.ErrUnknownContactField),
		errors.Is(err, services.ErrUnknownCustomizationType),
		errors.Is(err, services.ErrInvalidStep):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrStepBlocked):
		httpx.WriteError(ctx, w, httpx.NewError("step_blocked", err.Error(), http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrContactInfoInvalid):
		httpx.WriteError(ctx, w, httpx.NewError("contact_info_invalid", err.Error(), http.StatusUnprocessableEntity))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("order_error", "failed to process order", http.StatusInternalServerError))
	}
}

func (h *SessionHandlers) writeAssetError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrAssetTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", err.Error(), http.StatusRequestEntityTooLarge))
	case errors.Is(err, services.ErrAssetUnsupportedType):
		httpx.WriteError(ctx, w, httpx.NewError("unsupported_media_type", err.Error(), http.StatusUnsupportedMediaType))
	case errors.Is(err, services.ErrAssetInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("asset_error", "failed to register image", http.StatusInternalServerError))
	}
}

func (h *SessionHandlers) sessionResponse(session services.WizardSession) sessionResponse {
	return sessionResponse{Session: h.buildSessionPayload(session)}
}

func (h *SessionHandlers) buildSessionPayload(session services.WizardSession) sessionPayload {
	payload := sessionPayload{
		ID:    session.ID,
		Step:  int(session.Step),
		Steps: buildStepStates(session.Order),
		Order: h.buildOrderPayload(session.Order),
	}
	return payload
}

func (h *SessionHandlers) buildOrderPayload(order services.Order) orderPayload {
	payload := orderPayload{
		CustomizationType:  string(order.CustomizationType),
		Addons:             make([]string, 0, len(order.Addons)),
		Fields:             make([]fieldPayload, 0, len(order.Fields)),
		RobeColor:          order.RobeColor,
		CapColor:           order.CapColor,
		SashColor:          order.SashColor,
		CustomizationColor: order.CustomizationColor,
		CustomerName:       order.CustomerName,
		Phone:              order.Phone,
		Address:            order.Address,
		TotalPrice:         order.TotalPrice,
	}
	if order.PackageID != nil {
		id := string(*order.PackageID)
		payload.PackageID = &id
	}
	for _, addon := range order.Addons {
		payload.Addons = append(payload.Addons, string(addon))
	}
	for _, field := range order.Fields {
		entry := fieldPayload{ID: field.ID, Label: field.Label, Description: field.Description}
		if field.Image != nil {
			entry.Image = &imagePayload{Handle: field.Image.Handle, Name: field.Image.Name}
		}
		payload.Fields = append(payload.Fields, entry)
	}
	if h.prices != nil {
		payload.TotalPriceText = h.prices.FormatPrice(order.TotalPrice)
	}
	return payload
}

func buildStepStates(order services.Order) []stepStatePayload {
	states := services.StepStates(order)
	payload := make([]stepStatePayload, 0, len(states))
	for _, state := range states {
		entry := stepStatePayload{Step: int(state.Step), Valid: state.Valid}
		if !state.Valid {
			entry.Guidance = state.Guidance
		}
		payload = append(payload, entry)
	}
	return payload
}

type sessionResponse struct {
	Session sessionPayload `json:"session"`
}

type sessionPayload struct {
	ID    string             `json:"id"`
	Step  int                `json:"step"`
	Steps []stepStatePayload `json:"steps"`
	Order orderPayload       `json:"order"`
}

type stepStatePayload struct {
	Step     int    `json:"step"`
	Valid    bool   `json:"valid"`
	Guidance string `json:"guidance,omitempty"`
}

type orderPayload struct {
	PackageID          *string        `json:"packageId"`
	CustomizationType  string         `json:"customizationType"`
	Addons             []string       `json:"addons"`
	Fields             []fieldPayload `json:"fields"`
	RobeColor          string         `json:"robeColor"`
	CapColor           string         `json:"capColor"`
	SashColor          string         `json:"sashColor"`
	CustomizationColor string         `json:"customizationColor"`
	CustomerName       string         `json:"customerName"`
	Phone              string         `json:"phone"`
	Address            string         `json:"address"`
	TotalPrice         int64          `json:"totalPrice"`
	TotalPriceText     string         `json:"totalPriceText,omitempty"`
}

type fieldPayload struct {
	ID          string        `json:"id"`
	Label       string        `json:"label"`
	Image       *imagePayload `json:"image,omitempty"`
	Description string        `json:"description,omitempty"`
}

type imagePayload struct {
	Handle string `json:"handle"`
	Name   string `json:"name"`
}

type submitResponse struct {
	Destination string `json:"destination"`
	Message     string `json:"message"`
	DeepLink    string `json:"deepLink"`
}
