package events

import "strings"

// ParseTags splits a comma-separated tag string into trimmed tags, dropping
// empties and preserving input order.
func ParseTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
