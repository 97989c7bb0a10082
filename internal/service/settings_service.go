package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stockmeta/api/internal/gateway"
	"github.com/stockmeta/api/internal/model"
	"github.com/stockmeta/api/internal/scheduler"
)

// SettingsService persists each user's generation configuration: provider
// credentials, active model, failover switches, and customization.
type SettingsService struct {
	kv KV
	gw gateway.Gateway
}

// NewSettingsService creates a settings service.
func NewSettingsService(kv KV, gw gateway.Gateway) *SettingsService {
	return &SettingsService{kv: kv, gw: gw}
}

// Get loads a user's settings, falling back to defaults when unset.
func (s *SettingsService) Get(ctx context.Context, userID string) (model.AppSettings, error) {
	data, err := s.kv.Get(ctx, settingsKey(userID))
	if err != nil {
		return model.AppSettings{}, err
	}
	if data == nil {
		return model.DefaultSettings(), nil
	}

	var settings model.AppSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return model.AppSettings{}, fmt.Errorf("failed to decode settings: %w", err)
	}
	normalize(&settings)
	return settings, nil
}

// Save validates and persists a user's settings.
func (s *SettingsService) Save(ctx context.Context, userID string, settings model.AppSettings) error {
	if !settings.ActiveProvider.Valid() {
		return fmt.Errorf("unknown provider: %s", settings.ActiveProvider)
	}
	if mc, ok := model.ModelByID(settings.ActiveModelID); !ok || mc.Provider != settings.ActiveProvider {
		return fmt.Errorf("model %s is not available for provider %s", settings.ActiveModelID, settings.ActiveProvider)
	}
	normalize(&settings)

	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return s.kv.Set(ctx, settingsKey(userID), data)
}

// SchedulerSettings builds the immutable run snapshot the scheduler reads.
func (s *SettingsService) SchedulerSettings(ctx context.Context, userID string) (scheduler.Settings, error) {
	settings, err := s.Get(ctx, userID)
	if err != nil {
		return scheduler.Settings{}, err
	}
	p := settings.ActiveProvider
	return scheduler.Settings{
		Provider:         p,
		ModelID:          settings.ActiveModelID,
		Keys:             settings.Keys[p],
		AutoKeySwitch:    settings.AutoKeySwitch[p],
		SelectedKeyIndex: settings.SelectedKeyIndex,
		AutoModelSwitch:  settings.AutoModelSwitch[p],
		Customization:    settings.Customization,
	}, nil
}

// VerifyKey checks a credential against its provider.
func (s *SettingsService) VerifyKey(ctx context.Context, provider model.Provider, key string) bool {
	return s.gw.VerifyKey(ctx, provider, key)
}

// Masked returns a copy with every credential masked for API responses.
func Masked(settings model.AppSettings) model.AppSettings {
	out := settings
	out.Keys = make(map[model.Provider][]string, len(settings.Keys))
	for p, keys := range settings.Keys {
		masked := make([]string, len(keys))
		for i, k := range keys {
			masked[i] = MaskKey(k)
		}
		out.Keys[p] = masked
	}
	return out
}

// MaskKey hides all but the tail of a credential.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return "sk-..." + key[len(key)-4:]
}

// normalize fills nil maps and repairs an active model that does not belong
// to the active provider.
func normalize(settings *model.AppSettings) {
	defaults := model.DefaultSettings()
	if settings.Keys == nil {
		settings.Keys = defaults.Keys
	}
	if settings.AutoKeySwitch == nil {
		settings.AutoKeySwitch = defaults.AutoKeySwitch
	}
	if settings.AutoModelSwitch == nil {
		settings.AutoModelSwitch = defaults.AutoModelSwitch
	}
	for _, p := range model.Providers {
		if settings.Keys[p] == nil {
			settings.Keys[p] = []string{}
		}
	}
	if !settings.ActiveProvider.Valid() {
		settings.ActiveProvider = defaults.ActiveProvider
	}
	if mc, ok := model.ModelByID(settings.ActiveModelID); !ok || mc.Provider != settings.ActiveProvider {
		settings.ActiveModelID = model.DefaultModels[settings.ActiveProvider]
	}
	if settings.Customization.TitleLength == 0 {
		settings.Customization = model.DefaultCustomization()
	}
}

func settingsKey(userID string) string {
	return "settings:" + userID
}
