package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/soigrad/soi/internal/domain"
	"github.com/soigrad/soi/internal/services"
)

type stubOrderService struct {
	session services.WizardSession
	result  services.DispatchResult
	err     error

	lastPackage   domain.PackageID
	lastAddon     domain.AddonID
	lastSlot      domain.ColorSlot
	lastValue     string
	lastFieldID   string
	lastAsset     *services.ImageAsset
	lastStep      domain.WizardStep
	contactValues map[domain.ContactField]string
}

func (s *stubOrderService) CreateSession(context.Context) (services.WizardSession, error) {
	return s.session, s.err
}

func (s *stubOrderService) GetSession(context.Context, string) (services.WizardSession, error) {
	return s.session, s.err
}

func (s *stubOrderService) SelectPackage(_ context.Context, _ string, id domain.PackageID) (services.WizardSession, error) {
	s.lastPackage = id
	return s.session, s.err
}

func (s *stubOrderService) SetCustomizationType(_ context.Context, _ string, typ domain.CustomizationType) (services.WizardSession, error) {
	return s.session, s.err
}

func (s *stubOrderService) SetColor(_ context.Context, _ string, slot domain.ColorSlot, value string) (services.WizardSession, error) {
	s.lastSlot = slot
	s.lastValue = value
	return s.session, s.err
}

func (s *stubOrderService) ToggleAddon(_ context.Context, _ string, id domain.AddonID) (services.WizardSession, error) {
	s.lastAddon = id
	return s.session, s.err
}

func (s *stubOrderService) SetFieldImage(_ context.Context, _ string, fieldID string, asset *services.ImageAsset) (services.WizardSession, error) {
	s.lastFieldID = fieldID
	s.lastAsset = asset
	return s.session, s.err
}

func (s *stubOrderService) SetFieldDescription(_ context.Context, _ string, fieldID, _ string) (services.WizardSession, error) {
	s.lastFieldID = fieldID
	return s.session, s.err
}

func (s *stubOrderService) SetCustomerInfo(_ context.Context, _ string, field domain.ContactField, value string) (services.WizardSession, error) {
	if s.contactValues == nil {
		s.contactValues = make(map[domain.ContactField]string)
	}
	s.contactValues[field] = value
	return s.session, s.err
}

func (s *stubOrderService) GoToStep(_ context.Context, _ string, step domain.WizardStep) (services.WizardSession, error) {
	s.lastStep = step
	return s.session, s.err
}

func (s *stubOrderService) Submit(context.Context, string) (services.DispatchResult, error) {
	return s.result, s.err
}

func (s *stubOrderService) PurgeExpired(context.Context) (int, error) {
	return 0, s.err
}

type stubAssetStore struct {
	asset    services.ImageAsset
	err      error
	released []string
}

func (s *stubAssetStore) Register(context.Context, string, string, int64) (services.ImageAsset, error) {
	return s.asset, s.err
}

func (s *stubAssetStore) Release(_ context.Context, handle string) {
	s.released = append(s.released, handle)
}

func testWizardSession() services.WizardSession {
	pkg := domain.PackageClassic
	order := domain.NewOrder()
	order.PackageID = &pkg
	order.Fields = []domain.CustomizationField{{ID: "classic_tassel", Label: "ظهر القبعة او المسطرة"}}
	order.TotalPrice = 35000
	return services.WizardSession{ID: "session-1", Step: domain.StepColors, Order: order}
}

func newSessionRouter(orders services.OrderService, assets services.AssetStore, opts ...SessionOption) chi.Router {
	h := NewSessionHandlers(orders, assets, stubPriceFormatter{}, opts...)
	r := chi.NewRouter()
	h.Routes(r)
	return r
}

func TestSessionHandlersCreateSession(t *testing.T) {
	stub := &stubOrderService{session: testWizardSession()}
	router := newSessionRouter(stub, &stubAssetStore{})

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}

	var body sessionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.Session.ID != "session-1" || body.Session.Step != 2 {
		t.Fatalf("unexpected session payload %+v", body.Session)
	}
	if len(body.Session.Steps) != 4 {
		t.Fatalf("expected 4 step states, got %d", len(body.Session.Steps))
	}
	if body.Session.Order.PackageID == nil || *body.Session.Order.PackageID != string(domain.PackageClassic) {
		t.Fatalf("unexpected package %+v", body.Session.Order.PackageID)
	}
	if body.Session.Order.TotalPrice != 35000 || body.Session.Order.TotalPriceText != "35000 IQD" {
		t.Fatalf("unexpected totals: %d %q", body.Session.Order.TotalPrice, body.Session.Order.TotalPriceText)
	}
}

func TestSessionHandlersGetSessionNotFound(t *testing.T) {
	stub := &stubOrderService{err: services.ErrSessionNotFound}
	router := newSessionRouter(stub, &stubAssetStore{})

	req := httptest.NewRequest(http.MethodGet, "/missing/", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body["error"] != "session_not_found" {
		t.Fatalf("expected session_not_found, got %v", body["error"])
	}
}

func TestSessionHandlersSelectPackage(t *testing.T) {
	stub := &stubOrderService{session: testWizardSession()}
	router := newSessionRouter(stub, &stubAssetStore{})

	req := httptest.NewRequest(http.MethodPut, "/session-1/package", strings.NewReader(`{"packageId":"البكج الملكي"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if stub.lastPackage != domain.PackageRoyal {
		t.Fatalf("expected royal package, got %q", stub.lastPackage)
	}
}

func TestSessionHandlersSelectPackageRejectsBadBody(t *testing.T) {
	stub := &stubOrderService{session: testWizardSession()}
	router := newSessionRouter(stub, &stubAssetStore{})

	cases := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"invalid json", "{"},
		{"missing package", `{"packageId":" "}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/session-1/package", strings.NewReader(tc.body))
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", rr.Code)
			}
		})
	}
}

func TestSessionHandlersSetColor(t *testing.T) {
	stub := &stubOrderService{session: testWizardSession()}
	router := newSessionRouter(stub, &stubAssetStore{})

	req := httptest.NewRequest(http.MethodPut, "/session-1/colors/robe", strings.NewReader(`{"value":"كحلي"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if stub.lastSlot != domain.ColorSlotRobe || stub.lastValue != "كحلي" {
		t.Fatalf("unexpected color call: slot=%q value=%q", stub.lastSlot, stub.lastValue)
	}
}

func TestSessionHandlersToggleAddon(t *testing.T) {
	stub := &stubOrderService{session: testWizardSession()}
	router := newSessionRouter(stub, &stubAssetStore{})

	req := httptest.NewRequest(http.MethodPost, "/session-1/addons/toggle", strings.NewReader(`{"addonId":"الردن"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if stub.lastAddon != domain.AddonSleeve {
		t.Fatalf("expected sleeve addon, got %q", stub.lastAddon)
	}
}

func TestSessionHandlersUnknownAddonMapsToBadRequest(t *testing.T) {
	stub := &stubOrderService{err: services.ErrUnknownAddon}
	router := newSessionRouter(stub, &stubAssetStore{})

	req := httptest.NewRequest(http.MethodPost, "/session-1/addons/toggle", strings.NewReader(`{"addonId":"غير موجود"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestSessionHandlersSetFieldImage(t *testing.T) {
	stub := &stubOrderService{session: testWizardSession()}
	assets := &stubAssetStore{asset: services.ImageAsset{Handle: "preview-1", Name: "logo.png"}}
	router := newSessionRouter(stub, assets)

	req := httptest.NewRequest(http.MethodPut, "/session-1/fields/classic_tassel/image", strings.NewReader(`{"name":"logo.png","contentType":"image/png","size":1024}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if stub.lastFieldID != "classic_tassel" {
		t.Fatalf("unexpected field id %q", stub.lastFieldID)
	}
	if stub.lastAsset == nil || stub.lastAsset.Handle != "preview-1" {
		t.Fatalf("unexpected asset %+v", stub.lastAsset)
	}
	if len(assets.released) != 0 {
		t.Fatalf("nothing should be released on success, got %v", assets.released)
	}
}

func TestSessionHandlersSetFieldImageReleasesOnOrderError(t *testing.T) {
	stub := &stubOrderService{err: services.ErrSessionNotFound}
	assets := &stubAssetStore{asset: services.ImageAsset{Handle: "preview-1", Name: "logo.png"}}
	router := newSessionRouter(stub, assets)

	req := httptest.NewRequest(http.MethodPut, "/session-1/fields/classic_tassel/image", strings.NewReader(`{"name":"logo.png","contentType":"image/png","size":1024}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
	if len(assets.released) != 1 || assets.released[0] != "preview-1" {
		t.Fatalf("expected the registered preview to be released, got %v", assets.released)
	}
}

func TestSessionHandlersSetFieldImageUnsupportedType(t *testing.T) {
	stub := &stubOrderService{session: testWizardSession()}
	assets := &stubAssetStore{err: services.ErrAssetUnsupportedType}
	router := newSessionRouter(stub, assets)

	req := httptest.NewRequest(http.MethodPut, "/session-1/fields/classic_tassel/image", strings.NewReader(`{"name":"doc.pdf","contentType":"application/pdf","size":1024}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected status 415, got %d", rr.Code)
	}
}

func TestSessionHandlersClearFieldImage(t *testing.T) {
	stub := &stubOrderService{session: testWizardSession(), lastAsset: &services.ImageAsset{Handle: "x"}}
	router := newSessionRouter(stub, &stubAssetStore{})

	req := httptest.NewRequest(http.MethodDelete, "/session-1/fields/classic_tassel/image", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if stub.lastAsset != nil {
		t.Fatalf("expected nil asset on clear, got %+v", stub.lastAsset)
	}
}

func TestSessionHandlersSetCustomerInfo(t *testing.T) {
	stub := &stubOrderService{session: testWizardSession()}
	router := newSessionRouter(stub, &stubAssetStore{})

	req := httptest.NewRequest(http.MethodPut, "/session-1/customer", strings.NewReader(`{"customerName":"زيد","phone":"07712345678"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if stub.contactValues[domain.ContactFieldName] != "زيد" {
		t.Fatalf("expected customer name forwarded, got %v", stub.contactValues)
	}
	if stub.contactValues[domain.ContactFieldPhone] != "07712345678" {
		t.Fatalf("expected phone forwarded, got %v", stub.contactValues)
	}
}

func TestSessionHandlersSetCustomerInfoRejectsUnknownKeyBeforeApplying(t *testing.T) {
	stub := &stubOrderService{session: testWizardSession()}
	router := newSessionRouter(stub, &stubAssetStore{})

	req := httptest.NewRequest(http.MethodPut, "/session-1/customer", strings.NewReader(`{"customerName":"زيد","nickname":"abu zaid"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if len(stub.contactValues) != 0 {
		t.Fatalf("no field may be applied when any key is unknown, got %v", stub.contactValues)
	}
}

func TestSessionHandlersGoToStepBlocked(t *testing.T) {
	stub := &stubOrderService{err: services.ErrStepBlocked}
	router := newSessionRouter(stub, &stubAssetStore{})

	req := httptest.NewRequest(http.MethodPut, "/session-1/step", strings.NewReader(`{"step":3}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body["error"] != "step_blocked" {
		t.Fatalf("expected step_blocked, got %v", body["error"])
	}
}

func TestSessionHandlersSubmit(t *testing.T) {
	stub := &stubOrderService{
		result: services.DispatchResult{
			Destination: "9647738536861",
			Message:     "order summary",
			DeepLink:    "https://wa.me/9647738536861?text=order%20summary",
		},
	}
	router := newSessionRouter(stub, &stubAssetStore{})

	req := httptest.NewRequest(http.MethodPost, "/session-1/submit", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var body submitResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.DeepLink != "https://wa.me/9647738536861?text=order%20summary" {
		t.Fatalf("unexpected deep link %q", body.DeepLink)
	}
}

func TestSessionHandlersSubmitInvalidContact(t *testing.T) {
	stub := &stubOrderService{err: services.ErrContactInfoInvalid}
	router := newSessionRouter(stub, &stubAssetStore{})

	req := httptest.NewRequest(http.MethodPost, "/session-1/submit", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rr.Code)
	}
}

func TestSessionHandlersRateLimit(t *testing.T) {
	stub := &stubOrderService{session: testWizardSession()}
	router := newSessionRouter(stub, &stubAssetStore{}, WithSessionRateLimit(1, time.Minute))

	first := httptest.NewRequest(http.MethodPost, "/", nil)
	first.RemoteAddr = "203.0.113.9:1234"
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, first)
	if rr.Code != http.StatusCreated {
		t.Fatalf("first request must pass, got %d", rr.Code)
	}

	second := httptest.NewRequest(http.MethodPost, "/", nil)
	second.RemoteAddr = "203.0.113.9:1235"
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, second)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second request must be limited, got %d", rr.Code)
	}

	other := httptest.NewRequest(http.MethodPost, "/", nil)
	other.RemoteAddr = "203.0.113.10:1234"
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, other)
	if rr.Code != http.StatusCreated {
		t.Fatalf("different client must pass, got %d", rr.Code)
	}
}
