package location

import (
	"regexp"
	"strings"
)

// ParsedLocation is a freeform address broken into its coarse components.
type ParsedLocation struct {
	Locality string `json:"locality,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	Raw      string `json:"raw"`
}

var (
	segmentSplit   = regexp.MustCompile(`[,\-/]`)
	numericOnly    = regexp.MustCompile(`^\d+$`)
	buildingPrefix = regexp.MustCompile(`(?i)^(plot|house|flat|apt|apartment)`)
)

// Parse parses s with the default locale.
func Parse(s string) ParsedLocation {
	return defaultLocale.Parse(s)
}

// Parse splits s on commas, hyphens and slashes and classifies segments right
// to left, since city and state conventionally trail an address.
func (l *Locale) Parse(s string) ParsedLocation {
	raw := strings.TrimSpace(s)
	result := ParsedLocation{Raw: raw}
	if raw == "" {
		return result
	}

	var parts []string
	for _, p := range segmentSplit.Split(raw, -1) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return result
	}

	for i := len(parts) - 1; i >= 0; i-- {
		part := parts[i]
		isState := l.IsState(part)

		if isState && result.State == "" {
			result.State = part
			continue
		}
		if l.IsCity(part) && result.City == "" {
			result.City = part
			continue
		}
		if result.City != "" && result.Locality == "" && !isState && isLocalityCandidate(part) {
			result.Locality = part
		}
	}

	if result.City == "" && len(parts) == 1 {
		result.City = parts[0]
	}

	if result.City == "" && len(parts) >= 2 {
		for i := len(parts) - 1; i >= 0; i-- {
			if !l.IsState(parts[i]) {
				result.City = parts[i]
				break
			}
		}
	}

	if result.Locality == "" && result.City != "" && len(parts) >= 2 {
		if idx := indexOf(parts, result.City); idx > 0 && isLocalityCandidate(parts[idx-1]) {
			result.Locality = parts[idx-1]
		}
	}

	return result
}

// isLocalityCandidate rejects house numbers and building descriptors.
func isLocalityCandidate(segment string) bool {
	return !numericOnly.MatchString(segment) && !buildingPrefix.MatchString(segment)
}

func indexOf(parts []string, v string) int {
	for i, p := range parts {
		if p == v {
			return i
		}
	}
	return -1
}
