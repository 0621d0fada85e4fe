package util

import (
	"strings"

	"net/http"
)

// ExtractUsefulHeaders picks the response headers worth attaching to a provider error.
func ExtractUsefulHeaders(r *http.Response) map[string]interface{} {
	var result = make(map[string]interface{})
	if r == nil {
		return result
	}
	for k := range r.Header {
		kl := strings.ToLower(k)
		if strings.HasPrefix(kl, "x-") ||
			strings.Contains(kl, "request-id") ||
			strings.Contains(kl, "rate-limit") ||
			strings.Contains(kl, "ratelimit") ||
			kl == "content-type" ||
			kl == "server" ||
			kl == "date" ||
			kl == "retry-after" {
			result[kl] = r.Header.Get(k)
		}
	}

	return result
}
