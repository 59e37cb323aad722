package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestAssetServiceRegisterAndRelease(t *testing.T) {
	ctx := context.Background()
	var seq int
	svc := NewAssetService(AssetServiceDeps{
		NewHandle: func() string {
			seq++
			return fmt.Sprintf("handle-%d", seq)
		},
	})

	asset, err := svc.Register(ctx, "  logo.png  ", "image/png", 1024)
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if asset.Handle != "handle-1" || asset.Name != "logo.png" {
		t.Fatalf("unexpected asset %+v", asset)
	}
	if svc.ActivePreviews() != 1 {
		t.Fatalf("expected 1 active preview, got %d", svc.ActivePreviews())
	}

	svc.Release(ctx, asset.Handle)
	if svc.ActivePreviews() != 0 {
		t.Fatalf("expected preview released, got %d", svc.ActivePreviews())
	}

	// Double release is a no-op.
	svc.Release(ctx, asset.Handle)
	svc.Release(ctx, "")
}

func TestAssetServicePolicy(t *testing.T) {
	ctx := context.Background()
	svc := NewAssetService(AssetServiceDeps{})

	if _, err := svc.Register(ctx, "", "image/png", 10); !errors.Is(err, ErrAssetInvalidInput) {
		t.Fatalf("expected ErrAssetInvalidInput for empty name, got %v", err)
	}
	if _, err := svc.Register(ctx, "a.pdf", "application/pdf", 10); !errors.Is(err, ErrAssetUnsupportedType) {
		t.Fatalf("expected ErrAssetUnsupportedType, got %v", err)
	}
	if _, err := svc.Register(ctx, "a.png", "image/png", maxImageAssetSize+1); !errors.Is(err, ErrAssetTooLarge) {
		t.Fatalf("expected ErrAssetTooLarge, got %v", err)
	}
	if _, err := svc.Register(ctx, "a.png", "image/png", -1); !errors.Is(err, ErrAssetInvalidInput) {
		t.Fatalf("expected ErrAssetInvalidInput for negative size, got %v", err)
	}
	if _, err := svc.Register(ctx, "a.JPG", "IMAGE/JPEG", 10); err != nil {
		t.Fatalf("content type matching must be case-insensitive: %v", err)
	}
}
