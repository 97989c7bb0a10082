package service

import (
	"context"
	"testing"

	"github.com/stockmeta/api/internal/model"
)

func TestSettingsGet_Defaults(t *testing.T) {
	svc := NewSettingsService(NewMemoryKV(), nil)

	settings, err := svc.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if settings.ActiveProvider != model.ProviderGemini {
		t.Errorf("expected gemini default provider, got %s", settings.ActiveProvider)
	}
	if settings.ActiveModelID != model.DefaultModels[model.ProviderGemini] {
		t.Errorf("unexpected default model %s", settings.ActiveModelID)
	}
	if settings.Customization.TitleLength == 0 {
		t.Error("expected customization defaults populated")
	}
}

func TestSettingsSaveGet_RoundTrip(t *testing.T) {
	svc := NewSettingsService(NewMemoryKV(), nil)
	ctx := context.Background()

	settings := model.DefaultSettings()
	settings.ActiveProvider = model.ProviderGroq
	settings.ActiveModelID = model.DefaultModels[model.ProviderGroq]
	settings.Keys[model.ProviderGroq] = []string{"gsk_1234567890abcd"}
	settings.AutoKeySwitch[model.ProviderGroq] = true

	if err := svc.Save(ctx, "u1", settings); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := svc.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if loaded.ActiveProvider != model.ProviderGroq {
		t.Errorf("expected groq, got %s", loaded.ActiveProvider)
	}
	if len(loaded.Keys[model.ProviderGroq]) != 1 {
		t.Errorf("expected stored key surviving, got %v", loaded.Keys[model.ProviderGroq])
	}

	// Settings are isolated per user.
	other, _ := svc.Get(ctx, "u2")
	if len(other.Keys[model.ProviderGroq]) != 0 {
		t.Error("another user should see defaults")
	}
}

func TestSettingsSave_RejectsMismatchedModel(t *testing.T) {
	svc := NewSettingsService(NewMemoryKV(), nil)

	settings := model.DefaultSettings()
	settings.ActiveProvider = model.ProviderGroq
	settings.ActiveModelID = model.DefaultModels[model.ProviderGemini]

	if err := svc.Save(context.Background(), "u1", settings); err == nil {
		t.Error("expected rejection of a model from another provider")
	}

	settings.ActiveProvider = model.Provider("bogus")
	if err := svc.Save(context.Background(), "u1", settings); err == nil {
		t.Error("expected rejection of an unknown provider")
	}
}

func TestSchedulerSettings_Snapshot(t *testing.T) {
	svc := NewSettingsService(NewMemoryKV(), nil)
	ctx := context.Background()

	settings := model.DefaultSettings()
	settings.Keys[model.ProviderGemini] = []string{"AIza-key-one", "AIza-key-two"}
	settings.AutoKeySwitch[model.ProviderGemini] = true
	settings.AutoModelSwitch[model.ProviderGemini] = true
	if err := svc.Save(ctx, "u1", settings); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	snap, err := svc.SchedulerSettings(ctx, "u1")
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if snap.Provider != model.ProviderGemini || len(snap.Keys) != 2 {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if !snap.AutoKeySwitch || !snap.AutoModelSwitch {
		t.Error("expected failover switches carried into the snapshot")
	}
}

func TestMaskKey(t *testing.T) {
	cases := map[string]string{
		"short":                "****",
		"12345678":             "****",
		"gsk_1234567890abcdef": "sk-...cdef",
	}
	for in, want := range cases {
		if got := MaskKey(in); got != want {
			t.Errorf("MaskKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMasked_DoesNotMutateOriginal(t *testing.T) {
	settings := model.DefaultSettings()
	settings.Keys[model.ProviderGroq] = []string{"gsk_1234567890abcd"}

	masked := Masked(settings)
	if masked.Keys[model.ProviderGroq][0] == settings.Keys[model.ProviderGroq][0] {
		t.Error("expected masked copy to differ from stored key")
	}
	if settings.Keys[model.ProviderGroq][0] != "gsk_1234567890abcd" {
		t.Error("masking must not mutate the stored settings")
	}
}
