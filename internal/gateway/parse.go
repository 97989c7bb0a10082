package gateway

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/stockmeta/api/internal/model"
)

// metadataSchema validates the document a provider returns before it is
// accepted as item metadata. Models occasionally emit the right JSON with
// wrong types (keywords as a string, numeric category); rejecting here feeds
// the failover loop instead of corrupting the item.
const metadataSchema = `{
  "type": "object",
  "required": ["title", "description", "keywords"],
  "properties": {
    "title": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "keywords": {"type": "array", "items": {"type": "string"}},
    "category": {"type": "string"}
  }
}`

var compiledSchema = jsonschema.MustCompileString("metadata.json", metadataSchema)

// parseMetadata extracts the metadata document from a model response,
// tolerating markdown code fences around the JSON.
func parseMetadata(raw string) (model.Metadata, error) {
	text := strings.TrimSpace(raw)
	if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[idx+3:]
		text = strings.TrimPrefix(text, "json")
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
		text = strings.TrimSpace(text)
	}
	if start := strings.Index(text, "{"); start > 0 {
		text = text[start:]
	}

	var doc any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return model.Metadata{}, fmt.Errorf("failed to parse metadata JSON: %w", err)
	}
	if err := compiledSchema.Validate(doc); err != nil {
		return model.Metadata{}, fmt.Errorf("metadata JSON failed schema validation: %w", err)
	}

	var md model.Metadata
	if err := json.Unmarshal([]byte(text), &md); err != nil {
		return model.Metadata{}, fmt.Errorf("failed to decode metadata: %w", err)
	}
	return md, nil
}

// postProcess applies the keyword include/exclude rules from the
// customization snapshot to generated metadata.
func postProcess(md model.Metadata, cfg model.CustomizationConfig) model.Metadata {
	exclusions := splitList(cfg.ExcludeKeywords)
	if len(exclusions) > 0 {
		excluded := make(map[string]struct{}, len(exclusions))
		for _, e := range exclusions {
			excluded[strings.ToLower(e)] = struct{}{}
		}
		kept := md.Keywords[:0:0]
		for _, k := range md.Keywords {
			if _, drop := excluded[strings.ToLower(k)]; !drop {
				kept = append(kept, k)
			}
		}
		md.Keywords = kept
	}

	// Missing include keywords are prepended so they survive any
	// downstream keyword-count trimming.
	inclusions := splitList(cfg.IncludeKeywords)
	for i := len(inclusions) - 1; i >= 0; i-- {
		inc := inclusions[i]
		present := false
		for _, k := range md.Keywords {
			if strings.EqualFold(k, inc) {
				present = true
				break
			}
		}
		if !present {
			md.Keywords = append([]string{inc}, md.Keywords...)
		}
	}

	md.Keywords = model.DedupeKeywords(md.Keywords)
	return md
}

func splitList(csv string) []string {
	var out []string
	for _, part := range strings.Split(csv, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
