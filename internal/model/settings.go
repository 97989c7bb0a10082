package model

// KeywordFormat controls the shape of generated keywords.
type KeywordFormat string

const (
	KeywordAuto   KeywordFormat = "auto"
	KeywordSingle KeywordFormat = "single"
	KeywordDouble KeywordFormat = "double"
)

// GenerationSource selects what the provider analyzes: the asset's visual
// payload or just its file name.
type GenerationSource string

const (
	SourceImage    GenerationSource = "image"
	SourceFilename GenerationSource = "filename"
)

// CustomizationConfig is the per-run snapshot of generation parameters.
// It is read by the scheduler and gateway and never mutated by them.
type CustomizationConfig struct {
	TitleLength       int              `json:"titleLength" validate:"omitempty,min=10,max=200"`
	DescriptionLength int              `json:"descriptionLength" validate:"omitempty,min=20,max=500"`
	KeywordCount      int              `json:"keywordCount" validate:"omitempty,min=1,max=50"`
	KeywordFormat     KeywordFormat    `json:"keywordFormat" validate:"omitempty,oneof=auto single double"`
	GenerationSource  GenerationSource `json:"generationSource" validate:"omitempty,oneof=image filename"`

	// Comma separated lists, kept as strings the way the editor edits them.
	IncludeKeywords         string `json:"includeKeywords"`
	ExcludeKeywords         string `json:"excludeKeywords"`
	ExcludeTitleWords       string `json:"excludeTitleWords"`
	ExcludeDescriptionWords string `json:"excludeDescriptionWords"`

	TitlePrefix       string `json:"titlePrefix"`
	TitleSuffix       string `json:"titleSuffix"`
	DescriptionPrefix string `json:"descriptionPrefix"`
	DescriptionSuffix string `json:"descriptionSuffix"`
}

// DefaultCustomization returns the defaults applied to fresh settings.
func DefaultCustomization() CustomizationConfig {
	return CustomizationConfig{
		TitleLength:       60,
		DescriptionLength: 160,
		KeywordCount:      10,
		KeywordFormat:     KeywordAuto,
		GenerationSource:  SourceImage,
	}
}

// AppSettings is a user's generation configuration: credentials per provider,
// the active provider/model, the failover switches, and customization.
type AppSettings struct {
	Keys             map[Provider][]string `json:"keys"`
	ActiveProvider   Provider              `json:"activeProvider"`
	ActiveModelID    string                `json:"activeModelId"`
	SelectedKeyIndex int                   `json:"selectedKeyIndex"`
	AutoKeySwitch    map[Provider]bool     `json:"autoKeySwitch"`
	AutoModelSwitch  map[Provider]bool     `json:"autoModelSwitch"`
	Customization    CustomizationConfig   `json:"customization"`
}

// DefaultSettings returns the settings a user starts with.
func DefaultSettings() AppSettings {
	keys := make(map[Provider][]string, len(Providers))
	autoKey := make(map[Provider]bool, len(Providers))
	autoModel := make(map[Provider]bool, len(Providers))
	for _, p := range Providers {
		keys[p] = []string{}
		autoKey[p] = true
		autoModel[p] = true
	}
	return AppSettings{
		Keys:            keys,
		ActiveProvider:  ProviderGemini,
		ActiveModelID:   DefaultModels[ProviderGemini],
		AutoKeySwitch:   autoKey,
		AutoModelSwitch: autoModel,
		Customization:   DefaultCustomization(),
	}
}
