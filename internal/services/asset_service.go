package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/soigrad/soi/internal/domain"
)

const maxImageAssetSize = int64(25 * 1024 * 1024) // 25 MiB

var (
	// ErrAssetInvalidInput indicates the caller provided an invalid argument.
	ErrAssetInvalidInput = errors.New("asset: invalid input")
	// ErrAssetUnsupportedType indicates a content type outside the image
	// policy.
	ErrAssetUnsupportedType = errors.New("asset: unsupported content type")
	// ErrAssetTooLarge indicates the declared size exceeds the policy limit.
	ErrAssetTooLarge = errors.New("asset: too large")
)

var allowedImageContentTypes = map[string]struct{}{
	"image/png":     {},
	"image/jpeg":    {},
	"image/jpg":     {},
	"image/webp":    {},
	"image/svg+xml": {},
}

// AssetService issues opaque references for uploaded design images and owns
// the preview resources derived from them. The core never reads file
// contents; it stores the handle and display name. A preview lives until the
// referencing field's image changes, the field is removed, or the session is
// discarded — callers must Release on each of those transitions so previews
// cannot accumulate over a long session.
type AssetService struct {
	newHandle func() string
	clock     func() time.Time
	logger    func(ctx context.Context, event string, fields map[string]any)

	mu       sync.Mutex
	previews map[string]previewResource
}

type previewResource struct {
	name        string
	contentType string
	size        int64
	createdAt   time.Time
}

// AssetServiceDeps wires dependencies for the asset service.
type AssetServiceDeps struct {
	NewHandle func() string
	Clock     func() time.Time
	Logger    func(ctx context.Context, event string, fields map[string]any)
}

// NewAssetService constructs an asset service with in-memory preview
// tracking.
func NewAssetService(deps AssetServiceDeps) *AssetService {
	newHandle := deps.NewHandle
	if newHandle == nil {
		newHandle = func() string { return ulid.Make().String() }
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &AssetService{
		newHandle: newHandle,
		clock:     clock,
		logger:    logger,
		previews:  make(map[string]previewResource),
	}
}

// Register validates the declared metadata, acquires a preview resource, and
// returns the opaque reference stored on the order field.
func (s *AssetService) Register(ctx context.Context, name, contentType string, size int64) (domain.ImageAsset, error) {
	trimmedName := strings.TrimSpace(name)
	if trimmedName == "" {
		return domain.ImageAsset{}, fmt.Errorf("%w: name is required", ErrAssetInvalidInput)
	}
	normalizedType := strings.ToLower(strings.TrimSpace(contentType))
	if _, ok := allowedImageContentTypes[normalizedType]; !ok {
		return domain.ImageAsset{}, fmt.Errorf("%w: %s", ErrAssetUnsupportedType, normalizedType)
	}
	if size < 0 {
		return domain.ImageAsset{}, fmt.Errorf("%w: negative size", ErrAssetInvalidInput)
	}
	if size > maxImageAssetSize {
		return domain.ImageAsset{}, fmt.Errorf("%w: %d bytes", ErrAssetTooLarge, size)
	}

	handle := s.newHandle()
	s.mu.Lock()
	s.previews[handle] = previewResource{
		name:        trimmedName,
		contentType: normalizedType,
		size:        size,
		createdAt:   s.clock(),
	}
	s.mu.Unlock()

	s.logger(ctx, "asset.preview.acquired", map[string]any{"handle": handle, "contentType": normalizedType, "size": size})
	return domain.ImageAsset{Handle: handle, Name: trimmedName}, nil
}

// Release frees the preview resource backing the handle. Releasing an
// unknown or already-released handle is a no-op.
func (s *AssetService) Release(ctx context.Context, handle string) {
	trimmed := strings.TrimSpace(handle)
	if trimmed == "" {
		return
	}
	s.mu.Lock()
	_, ok := s.previews[trimmed]
	if ok {
		delete(s.previews, trimmed)
	}
	s.mu.Unlock()
	if ok {
		s.logger(ctx, "asset.preview.released", map[string]any{"handle": trimmed})
	}
}

// ActivePreviews reports how many preview resources are currently held.
func (s *AssetService) ActivePreviews() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.previews)
}
