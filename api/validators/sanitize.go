package validators

import (
	"net/http"
	"strings"
)

const maxSearchLen = 100

func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && len(trimmed) > maxLen {
		return trimmed[:maxLen]
	}
	return trimmed
}

// ParseSearch returns the trimmed free-text filter, capped in length.
func ParseSearch(r *http.Request, key string) *string {
	q := SanitizeString(r.URL.Query().Get(key), maxSearchLen)
	if q == "" {
		return nil
	}
	return &q
}
