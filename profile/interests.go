package profile

import "fmt"

// Interest categories accepted from clients. Keys outside this list are
// rejected rather than stored as free-form schema.
var allowedCategories = map[string]bool{
	"music":      true,
	"sports":     true,
	"arts":       true,
	"technology": true,
	"food":       true,
	"business":   true,
	"comedy":     true,
	"dance":      true,
	"travel":     true,
	"other":      true,
}

const maxTagsPerCategory = 50

// ValidateInterests checks an interests mapping; returns a user-facing
// message for the first violation, or "".
func ValidateInterests(interests map[string][]string) string {
	for category, tags := range interests {
		if !allowedCategories[category] {
			return fmt.Sprintf("Unknown interest category '%s'", category)
		}
		if len(tags) > maxTagsPerCategory {
			return fmt.Sprintf("Too many interests for category '%s' (maximum %d)", category, maxTagsPerCategory)
		}
		for _, tag := range tags {
			if tag == "" {
				return fmt.Sprintf("Interests for category '%s' must not contain empty entries", category)
			}
		}
	}
	return ""
}
