package gateway

import (
	"fmt"
	"strings"

	"github.com/stockmeta/api/internal/model"
)

// buildPrompts assembles the system and user prompts from the customization
// snapshot. The system prompt carries the length budgets, keyword rules,
// word exclusions and the category list; the user prompt names the analysis
// target (image, video frame, or bare filename).
func buildPrompts(cfg model.CustomizationConfig, kind model.MediaKind, fileName string) (system, user string) {
	filenameMode := cfg.GenerationSource == model.SourceFilename

	var keywordRule string
	switch cfg.KeywordFormat {
	case model.KeywordSingle:
		keywordRule = "Ensure every keyword is strictly a SINGLE word (no spaces)."
	case model.KeywordDouble:
		keywordRule = "Ensure every keyword is strictly a TWO-word phrase."
	default:
		keywordRule = "Keywords can be single words or short phrases as appropriate."
	}

	var titleExclusion, descExclusion string
	if words := strings.TrimSpace(cfg.ExcludeTitleWords); words != "" {
		titleExclusion = fmt.Sprintf("Do NOT use the following words in the title: %s.", words)
	}
	if words := strings.TrimSpace(cfg.ExcludeDescriptionWords); words != "" {
		descExclusion = fmt.Sprintf("Do NOT use the following words in the description: %s.", words)
	}

	target := "the image"
	if filenameMode {
		target = "the provided filename"
	} else if kind == model.MediaVideo {
		target = "the video preview frame"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert SEO metadata generator for stock media. Analyze %s.\n\n", target)
	fmt.Fprintf(&b, "1. Title: a compelling, richly descriptive natural sentence. Use at least 90%% of the %d character budget but never exceed it. ", cfg.TitleLength)
	b.WriteString("Never use colons, prefixes like \"Title:\", or generic words such as image, video, photo, picture, graphic, illustration. ")
	b.WriteString("Describe the scene directly, never the fact that it is depicted. ")
	if titleExclusion != "" {
		b.WriteString(titleExclusion)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "2. Description: a detailed description. Target length: %d characters. %s\n", cfg.DescriptionLength, descExclusion)
	fmt.Fprintf(&b, "3. Keywords: list exactly %d keywords. %s\n", cfg.KeywordCount, keywordRule)
	b.WriteString("4. Category: select the best fit from the list below and return it in the EXACT format \"ID: Category Name\" (e.g. \"17: Social Issues\").\n\n")
	b.WriteString("CATEGORY LIST:\n")
	b.WriteString(strings.Join(model.Categories, "\n"))
	b.WriteString("\n\nOutput strictly valid JSON in this format:\n")
	b.WriteString(`{ "title": "...", "description": "...", "keywords": ["...", "..."], "category": "..." }`)

	switch {
	case filenameMode:
		user = fmt.Sprintf("Generate metadata for the file named: %q. Infer the subject and context from the filename.", fileName)
	case kind == model.MediaVideo:
		user = "Generate metadata based on this video preview frame. This is a VIDEO file. Describe the likely action, scene, or subject of the video based on this visual frame."
	default:
		user = "Generate metadata based on this image."
	}

	return b.String(), user
}
