package services

import (
	"context"
	"sync"

	"github.com/gookit/validate"

	"dbd/internal/access"
	"dbd/internal/ledger"
	"dbd/internal/models"
	"dbd/internal/providers"
)

// ImageSettingsPatch is a partial update; nil fields keep their value.
type ImageSettingsPatch struct {
	MaxUploadSize    *int  `json:"max_upload_size"`
	MaxProcessedSize *int  `json:"max_processed_size"`
	MaxWidth         *int  `json:"max_width"`
	JpegQuality      *int  `json:"jpeg_quality"`
	AllowSvg         *bool `json:"allow_svg"`
}

type SettingsServiceInterface interface {
	Get() (*models.ImageSettings, error)
	Patch(ctx context.Context, tenant, caller string, patch *ImageSettingsPatch) (*models.ImageSettings, error)
}

type SettingsService struct {
	store    ledger.StoreInterface
	resolver access.ResolverInterface
	logger   providers.Logger

	mu      sync.RWMutex
	current *models.ImageSettings
}

func NewSettingsService(store ledger.StoreInterface, resolver access.ResolverInterface, logger providers.Logger) SettingsServiceInterface {
	return &SettingsService{store: store, resolver: resolver, logger: logger}
}

func (ss *SettingsService) Get() (*models.ImageSettings, error) {
	ss.mu.RLock()
	if ss.current != nil {
		settings := *ss.current
		ss.mu.RUnlock()
		return &settings, nil
	}
	ss.mu.RUnlock()

	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.current == nil {
		settings, err := ss.store.ReadSettings()
		if err != nil {
			return nil, err
		}
		ss.current = settings
	}
	settings := *ss.current
	return &settings, nil
}

func (ss *SettingsService) Patch(ctx context.Context, tenant, caller string, patch *ImageSettingsPatch) (*models.ImageSettings, error) {
	level, reason := ss.resolver.Resolve(ctx, tenant, caller, true)
	if level < access.Admin {
		if reason == "" {
			reason = "settings changes require admin access"
		}
		return nil, models.PermissionError(reason)
	}

	current, err := ss.Get()
	if err != nil {
		return nil, err
	}

	next := *current
	if patch.MaxUploadSize != nil {
		next.MaxUploadSize = *patch.MaxUploadSize
	}
	if patch.MaxProcessedSize != nil {
		next.MaxProcessedSize = *patch.MaxProcessedSize
	}
	if patch.MaxWidth != nil {
		next.MaxWidth = *patch.MaxWidth
	}
	if patch.JpegQuality != nil {
		next.JpegQuality = *patch.JpegQuality
	}
	if patch.AllowSvg != nil {
		next.AllowSvg = *patch.AllowSvg
	}

	v := validate.Struct(&next)
	if !v.Validate() {
		return nil, models.ValidationError("%s", v.Errors.One())
	}
	if next.MaxProcessedSize > next.MaxUploadSize {
		return nil, models.ValidationError("max_processed_size cannot exceed max_upload_size")
	}

	if err := ss.store.WriteSettings(&next); err != nil {
		return nil, err
	}

	ss.mu.Lock()
	ss.current = &next
	ss.mu.Unlock()

	ss.logger.Infof(providers.TypeApp, "image settings updated by %s", caller)
	settings := next
	return &settings, nil
}
