package model

import "strings"

// Metadata is the SEO metadata generated for one asset.
type Metadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	Category    string   `json:"category"`
}

// Clone returns a deep copy so history entries never share keyword slices
// with the live value.
func (m Metadata) Clone() Metadata {
	out := m
	if m.Keywords != nil {
		out.Keywords = make([]string, len(m.Keywords))
		copy(out.Keywords, m.Keywords)
	}
	return out
}

// Equal reports whether two metadata values are identical, including
// keyword order.
func (m Metadata) Equal(other Metadata) bool {
	if m.Title != other.Title || m.Description != other.Description || m.Category != other.Category {
		return false
	}
	if len(m.Keywords) != len(other.Keywords) {
		return false
	}
	for i := range m.Keywords {
		if m.Keywords[i] != other.Keywords[i] {
			return false
		}
	}
	return true
}

// DedupeKeywords removes duplicate keywords case-insensitively, keeping the
// first occurrence and its original casing.
func DedupeKeywords(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		key := strings.ToLower(strings.TrimSpace(k))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, strings.TrimSpace(k))
	}
	return out
}
