package services

import (
	"context"

	domain "github.com/soigrad/soi/internal/domain"
)

// Type aliases expose domain models to the services package without reversing
// dependency direction.
type (
	Order              = domain.Order
	CustomizationField = domain.CustomizationField
	ImageAsset         = domain.ImageAsset
	WizardSession      = domain.WizardSession
	WizardStep         = domain.WizardStep
	PackageID          = domain.PackageID
	AddonID            = domain.AddonID
	ColorSlot          = domain.ColorSlot
	CustomizationType  = domain.CustomizationType
	ContactField       = domain.ContactField
)

// OrderService owns wizard sessions and applies the discrete order mutations.
// Every mutation recomputes derived state (fields, total price) before the
// snapshot is returned, so callers always observe a consistent order.
type OrderService interface {
	CreateSession(ctx context.Context) (WizardSession, error)
	GetSession(ctx context.Context, sessionID string) (WizardSession, error)
	SelectPackage(ctx context.Context, sessionID string, packageID PackageID) (WizardSession, error)
	SetCustomizationType(ctx context.Context, sessionID string, typ CustomizationType) (WizardSession, error)
	SetColor(ctx context.Context, sessionID string, slot ColorSlot, value string) (WizardSession, error)
	ToggleAddon(ctx context.Context, sessionID string, addonID AddonID) (WizardSession, error)
	SetFieldImage(ctx context.Context, sessionID, fieldID string, asset *ImageAsset) (WizardSession, error)
	SetFieldDescription(ctx context.Context, sessionID, fieldID, description string) (WizardSession, error)
	SetCustomerInfo(ctx context.Context, sessionID string, field ContactField, value string) (WizardSession, error)
	GoToStep(ctx context.Context, sessionID string, target WizardStep) (WizardSession, error)
	Submit(ctx context.Context, sessionID string) (DispatchResult, error)
	PurgeExpired(ctx context.Context) (int, error)
}

// AssetStore registers opaque image references and manages the preview
// resources derived from them.
type AssetStore interface {
	Register(ctx context.Context, name, contentType string, size int64) (ImageAsset, error)
	Release(ctx context.Context, handle string)
}

// DispatchSink delivers a formatted order message to a destination. The core
// only guarantees a correctly encoded payload; delivery is fire-and-forget.
type DispatchSink interface {
	Dispatch(ctx context.Context, destination, deepLink string) error
}
