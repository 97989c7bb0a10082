package model

// Provider identifies an external AI vendor.
type Provider string

const (
	ProviderGroq   Provider = "groq"
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

// Providers lists every supported provider.
var Providers = []Provider{ProviderGroq, ProviderGemini, ProviderOpenAI}

// Valid reports whether p names a supported provider.
func (p Provider) Valid() bool {
	for _, known := range Providers {
		if p == known {
			return true
		}
	}
	return false
}

// ModelConfig describes one AI model and its request-per-minute ceiling,
// which drives the scheduler's inter-attempt delay.
type ModelConfig struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Provider    Provider `json:"provider"`
	RPM         int      `json:"rpm"`
	Description string   `json:"description,omitempty"`
}

// AvailableModels is the model catalog, in fallback order per provider.
var AvailableModels = []ModelConfig{
	{
		ID:       "meta-llama/llama-4-scout-17b-16e-instruct",
		Name:     "Llama 4 Scout (17B)",
		Provider: ProviderGroq,
		RPM:      30,
	},
	{
		ID:       "meta-llama/llama-4-maverick-17b-128e-instruct",
		Name:     "Llama 4 Maverick (17B)",
		Provider: ProviderGroq,
		RPM:      30,
	},
	{
		ID:          "gemini-2.5-flash-lite",
		Name:        "Gemini 2.5 Flash Lite",
		Provider:    ProviderGemini,
		RPM:         10,
		Description: "10 RPM / 20 RPD",
	},
	{
		ID:          "gemini-2.5-flash",
		Name:        "Gemini 2.5 Flash",
		Provider:    ProviderGemini,
		RPM:         5,
		Description: "5 RPM / 20 RPD",
	},
	{
		ID:          "gpt-4o-mini",
		Name:        "GPT-4o Mini",
		Provider:    ProviderOpenAI,
		RPM:         3,
		Description: "Fast & Cost Effective",
	},
	{
		ID:          "gpt-4o",
		Name:        "GPT-4o",
		Provider:    ProviderOpenAI,
		RPM:         3,
		Description: "High Intelligence",
	},
}

// DefaultModels maps each provider to its default model id.
var DefaultModels = map[Provider]string{
	ProviderGroq:   AvailableModels[0].ID,
	ProviderGemini: "gemini-2.5-flash-lite",
	ProviderOpenAI: "gpt-4o-mini",
}

// ModelByID looks up a catalog entry. Returns false if the id is unknown.
func ModelByID(id string) (ModelConfig, bool) {
	for _, m := range AvailableModels {
		if m.ID == id {
			return m, true
		}
	}
	return ModelConfig{}, false
}

// ModelsForProvider returns the catalog entries for one provider in
// catalog order.
func ModelsForProvider(p Provider) []ModelConfig {
	var out []ModelConfig
	for _, m := range AvailableModels {
		if m.Provider == p {
			out = append(out, m)
		}
	}
	return out
}

// Categories is the stock category list metadata is classified into,
// in "ID: Name" form.
var Categories = []string{
	"1: Animals",
	"2: Buildings and Architecture",
	"3: Business",
	"4: Drinks",
	"5: The Environment",
	"6: States of Mind",
	"7: Food",
	"8: Graphic Resources",
	"9: Hobbies and Leisure",
	"10: Industry",
	"11: Landscape",
	"12: Lifestyle",
	"13: People",
	"14: Plants and Flowers",
	"15: Culture and Religion",
	"16: Science",
	"17: Social Issues",
	"18: Sports",
	"19: Technology",
	"20: Transport",
	"21: Travel",
}
