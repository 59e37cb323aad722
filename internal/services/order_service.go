package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/soigrad/soi/internal/catalog"
	domain "github.com/soigrad/soi/internal/domain"
	"github.com/soigrad/soi/internal/repositories"
)

var (
	// ErrSessionNotFound indicates the wizard session is unknown or already
	// discarded.
	ErrSessionNotFound = errors.New("order: session not found")
	// ErrUnknownPackage indicates a package id missing from the catalog.
	ErrUnknownPackage = errors.New("order: unknown package")
	// ErrUnknownAddon indicates an addon id missing from the catalog.
	ErrUnknownAddon = errors.New("order: unknown addon")
	// ErrUnknownColorSlot indicates an unrecognised color slot name.
	ErrUnknownColorSlot = errors.New("order: unknown color slot")
	// ErrUnknownContactField indicates an unrecognised contact attribute.
	ErrUnknownContactField = errors.New("order: unknown contact field")
	// ErrUnknownCustomizationType indicates a type outside print/embroidery.
	ErrUnknownCustomizationType = errors.New("order: unknown customization type")
	// ErrInvalidStep indicates a step number outside the wizard's range.
	ErrInvalidStep = errors.New("order: invalid step")
	// ErrStepBlocked indicates forward navigation was refused by a step's
	// gating predicate.
	ErrStepBlocked = errors.New("order: step blocked")
	// ErrContactInfoInvalid blocks submission until the contact step
	// validates.
	ErrContactInfoInvalid = errors.New("order: contact info invalid")
)

// SubmitBlockedGuidance is the blocking notification shown when submission is
// rejected, naming the 11-digit phone requirement.
const SubmitBlockedGuidance = "يرجى التأكد من ملء جميع الحقول بشكل صحيح. يجب أن يتكون رقم الهاتف من 11 رقمًا."

const defaultSessionTTL = 6 * time.Hour

// OrderServiceDeps wires dependencies for the order service.
type OrderServiceDeps struct {
	Sessions   repositories.SessionRepository
	Catalog    *catalog.Catalog
	Pricing    *PricingEngine
	Formatter  *MessageFormatter
	Dispatch   *DispatchService
	Assets     AssetStore
	SessionTTL time.Duration
	Clock      func() time.Time
	Logger     func(ctx context.Context, event string, fields map[string]any)
	NewID      func() string
}

type orderService struct {
	sessions   repositories.SessionRepository
	catalog    *catalog.Catalog
	pricing    *PricingEngine
	formatter  *MessageFormatter
	dispatch   *DispatchService
	assets     AssetStore
	sessionTTL time.Duration
	clock      func() time.Time
	logger     func(context.Context, string, map[string]any)
	newID      func() string
}

// NewOrderService constructs the reducer owning wizard sessions. Each
// mutation recomputes the derived field set and cached total synchronously,
// so no snapshot ever exposes a stale derived value.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Sessions == nil {
		return nil, errors.New("order service: session repository is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("order service: catalog is required")
	}
	if deps.Pricing == nil {
		return nil, errors.New("order service: pricing engine is required")
	}
	if deps.Formatter == nil {
		return nil, errors.New("order service: message formatter is required")
	}
	if deps.Dispatch == nil {
		return nil, errors.New("order service: dispatch service is required")
	}
	ttl := deps.SessionTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	newID := deps.NewID
	if newID == nil {
		newID = func() string { return ulid.Make().String() }
	}
	return &orderService{
		sessions:   deps.Sessions,
		catalog:    deps.Catalog,
		pricing:    deps.Pricing,
		formatter:  deps.Formatter,
		dispatch:   deps.Dispatch,
		assets:     deps.Assets,
		sessionTTL: ttl,
		clock:      clock,
		logger:     logger,
		newID:      newID,
	}, nil
}

func (s *orderService) CreateSession(ctx context.Context) (WizardSession, error) {
	now := s.clock().UTC()
	session := domain.WizardSession{
		ID:        s.newID(),
		Step:      domain.StepPackage,
		Order:     domain.NewOrder(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Insert(ctx, session); err != nil {
		return WizardSession{}, fmt.Errorf("order: creating session: %w", err)
	}
	s.logger(ctx, "order.session.created", map[string]any{"sessionId": session.ID})
	return session, nil
}

func (s *orderService) GetSession(ctx context.Context, sessionID string) (WizardSession, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return WizardSession{}, mapSessionError(err)
	}
	return session, nil
}

func (s *orderService) SelectPackage(ctx context.Context, sessionID string, packageID PackageID) (WizardSession, error) {
	if _, ok := s.catalog.Package(packageID); !ok {
		return WizardSession{}, fmt.Errorf("%w: %s", ErrUnknownPackage, packageID)
	}
	return s.mutate(ctx, sessionID, func(session *domain.WizardSession) error {
		for _, field := range session.Order.Fields {
			s.releaseImage(ctx, field.Image)
		}
		id := packageID
		session.Order.PackageID = &id
		session.Order.Fields = nil
		// Picking a package moves the wizard straight to color selection.
		session.Step = domain.StepColors
		return nil
	})
}

func (s *orderService) SetCustomizationType(ctx context.Context, sessionID string, typ CustomizationType) (WizardSession, error) {
	if typ != domain.CustomizationPrint && typ != domain.CustomizationEmbroidery {
		return WizardSession{}, fmt.Errorf("%w: %s", ErrUnknownCustomizationType, typ)
	}
	return s.mutate(ctx, sessionID, func(session *domain.WizardSession) error {
		session.Order.CustomizationType = typ
		return nil
	})
}

func (s *orderService) SetColor(ctx context.Context, sessionID string, slot ColorSlot, value string) (WizardSession, error) {
	return s.mutate(ctx, sessionID, func(session *domain.WizardSession) error {
		switch slot {
		case domain.ColorSlotRobe:
			session.Order.RobeColor = value
		case domain.ColorSlotCap:
			session.Order.CapColor = value
		case domain.ColorSlotSash:
			session.Order.SashColor = value
		case domain.ColorSlotCustomization:
			session.Order.CustomizationColor = value
		default:
			return fmt.Errorf("%w: %s", ErrUnknownColorSlot, slot)
		}
		return nil
	})
}

func (s *orderService) ToggleAddon(ctx context.Context, sessionID string, addonID AddonID) (WizardSession, error) {
	if _, ok := s.catalog.Addon(addonID); !ok {
		return WizardSession{}, fmt.Errorf("%w: %s", ErrUnknownAddon, addonID)
	}
	return s.mutate(ctx, sessionID, func(session *domain.WizardSession) error {
		addons := session.Order.Addons
		for i, existing := range addons {
			if existing == addonID {
				session.Order.Addons = append(addons[:i:i], addons[i+1:]...)
				return nil
			}
		}
		session.Order.Addons = append(addons, addonID)
		return nil
	})
}

func (s *orderService) SetFieldImage(ctx context.Context, sessionID, fieldID string, asset *ImageAsset) (WizardSession, error) {
	return s.mutate(ctx, sessionID, func(session *domain.WizardSession) error {
		for i := range session.Order.Fields {
			field := &session.Order.Fields[i]
			if field.ID != fieldID {
				continue
			}
			if field.Image != nil && (asset == nil || field.Image.Handle != asset.Handle) {
				s.releaseImage(ctx, field.Image)
			}
			field.Image = cloneAsset(asset)
			return nil
		}
		// Unknown field ids are a no-op, but the orphaned preview must not
		// outlive the request.
		s.releaseImage(ctx, asset)
		return nil
	})
}

func (s *orderService) SetFieldDescription(ctx context.Context, sessionID, fieldID, description string) (WizardSession, error) {
	return s.mutate(ctx, sessionID, func(session *domain.WizardSession) error {
		for i := range session.Order.Fields {
			if session.Order.Fields[i].ID == fieldID {
				session.Order.Fields[i].Description = description
				return nil
			}
		}
		return nil
	})
}

func (s *orderService) SetCustomerInfo(ctx context.Context, sessionID string, field ContactField, value string) (WizardSession, error) {
	return s.mutate(ctx, sessionID, func(session *domain.WizardSession) error {
		switch field {
		case domain.ContactFieldName:
			session.Order.CustomerName = value
		case domain.ContactFieldPhone:
			session.Order.Phone = value
		case domain.ContactFieldAddress:
			session.Order.Address = value
		default:
			return fmt.Errorf("%w: %s", ErrUnknownContactField, field)
		}
		return nil
	})
}

func (s *orderService) GoToStep(ctx context.Context, sessionID string, target WizardStep) (WizardSession, error) {
	if !target.Valid() {
		return WizardSession{}, fmt.Errorf("%w: %d", ErrInvalidStep, target)
	}
	return s.mutate(ctx, sessionID, func(session *domain.WizardSession) error {
		// Backward navigation is always permitted; only forward movement is
		// gated, one step predicate at a time.
		for step := session.Step; step < target; step++ {
			if !ValidateStep(session.Order, step) {
				return fmt.Errorf("%w: %s", ErrStepBlocked, StepGuidance(step))
			}
		}
		session.Step = target
		return nil
	})
}

func (s *orderService) Submit(ctx context.Context, sessionID string) (DispatchResult, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return DispatchResult{}, mapSessionError(err)
	}
	if !ValidateStep(session.Order, domain.StepContact) {
		return DispatchResult{}, fmt.Errorf("%w: %s", ErrContactInfoInvalid, SubmitBlockedGuidance)
	}

	result, err := s.dispatch.Dispatch(ctx, s.formatter.Format(session.Order))
	if err != nil {
		return DispatchResult{}, fmt.Errorf("order: dispatching summary: %w", err)
	}

	s.discard(ctx, session)
	s.logger(ctx, "order.submitted", map[string]any{
		"sessionId": session.ID,
		"package":   packageLine(session.Order.PackageID),
		"total":     session.Order.TotalPrice,
	})
	return result, nil
}

func (s *orderService) PurgeExpired(ctx context.Context) (int, error) {
	cutoff := s.clock().UTC().Add(-s.sessionTTL)
	expired, err := s.sessions.DeleteExpired(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("order: purging sessions: %w", err)
	}
	for _, session := range expired {
		for _, field := range session.Order.Fields {
			s.releaseImage(ctx, field.Image)
		}
	}
	if len(expired) > 0 {
		s.logger(ctx, "order.sessions.purged", map[string]any{"count": len(expired)})
	}
	return len(expired), nil
}

// mutate applies one discrete mutation and recomputes derived state before
// the session is stored: the field set always matches the package and addon
// selection, and the cached total always equals the pricing quote.
func (s *orderService) mutate(ctx context.Context, sessionID string, fn func(*domain.WizardSession) error) (WizardSession, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return WizardSession{}, mapSessionError(err)
	}
	if err := fn(&session); err != nil {
		return WizardSession{}, err
	}
	s.recompute(ctx, &session.Order)
	session.UpdatedAt = s.clock().UTC()
	if err := s.sessions.Update(ctx, session); err != nil {
		return WizardSession{}, mapSessionError(err)
	}
	return session, nil
}

// recompute refreshes the derived field set and the cached total. Dropped
// fields have their preview resources released immediately.
func (s *orderService) recompute(ctx context.Context, order *domain.Order) {
	changed, dropped := syncFields(s.catalog, order)
	if changed {
		for _, field := range dropped {
			s.releaseImage(ctx, field.Image)
		}
	}
	order.TotalPrice = s.pricing.QuoteTotal(order.PackageID, order.CustomizationType, order.Addons)
}

func (s *orderService) discard(ctx context.Context, session domain.WizardSession) {
	for _, field := range session.Order.Fields {
		s.releaseImage(ctx, field.Image)
	}
	if err := s.sessions.Delete(ctx, session.ID); err != nil && !errors.Is(err, repositories.ErrSessionNotFound) {
		s.logger(ctx, "order.session.discard_failed", map[string]any{"sessionId": session.ID, "error": err.Error()})
	}
}

func (s *orderService) releaseImage(ctx context.Context, asset *domain.ImageAsset) {
	if asset == nil || s.assets == nil {
		return
	}
	s.assets.Release(ctx, asset.Handle)
}

func cloneAsset(asset *domain.ImageAsset) *domain.ImageAsset {
	if asset == nil {
		return nil
	}
	copied := *asset
	return &copied
}

func mapSessionError(err error) error {
	if errors.Is(err, repositories.ErrSessionNotFound) {
		return ErrSessionNotFound
	}
	return err
}
