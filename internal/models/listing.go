package models

import (
	"regexp"
	"strings"
)

// ListingDraft holds every field required to complete a posting.
// Image entries are raw references (names or paths); they are resolved
// to existing local files before the upload phase and unresolvable ones
// are dropped with a warning rather than failing the run.
type ListingDraft struct {
	Email       string   `json:"email"`
	Category    string   `json:"category"`
	Title       string   `json:"title"`
	Condition   string   `json:"condition"`
	Price       int      `json:"price"` // whole currency units, non-negative
	Address     string   `json:"address"`
	Description string   `json:"description"`
	Images      []string `json:"images,omitempty"`
}

var (
	cityStateZipRe = regexp.MustCompile(`,\s*([A-Za-z .'-]+),\s*[A-Z]{2}\s*(\d{5})`)
	trailingZipRe  = regexp.MustCompile(`(\d{5})(?:-\d{4})?$`)
)

// ParseCityPostal derives a city and postal code from a free-form US
// street address. Best effort: missing pieces come back empty.
func ParseCityPostal(address string) (city, postal string) {
	if m := cityStateZipRe.FindStringSubmatch(address); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	}
	if m := trailingZipRe.FindStringSubmatch(address); m != nil {
		postal = m[1]
	}
	var parts []string
	for _, p := range strings.Split(address, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	switch {
	case len(parts) >= 2:
		city = parts[len(parts)-2]
	case len(parts) == 1:
		city = parts[0]
	}
	return city, postal
}
