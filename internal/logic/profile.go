package logic

import (
	"fmt"
	"strings"
)

// NormalizeTags trims each tag, drops empties and removes case-insensitive
// duplicates, keeping the first spelling and the original order.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, tag)
	}
	return result
}

// BuildAvatarPrompt describes the profile avatar to draw for the given interests
func BuildAvatarPrompt(tags []string) string {
	return fmt.Sprintf(
		"A minimal, cool, artistic circular profile avatar illustration representing: %s. Vector flat art style, vibrant colors.",
		strings.Join(tags, ", "),
	)
}
