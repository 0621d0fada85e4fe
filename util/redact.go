package util

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
)

var secretQueryParams = []string{"apiKey", "api_key", "key", "token"}

// RedactEndpoint keeps scheme, host and path of a provider URL and replaces
// credentials carried in the query string with a short hash.
func RedactEndpoint(endpoint string) string {
	hasher := sha256.New()
	hasher.Write([]byte(endpoint))
	hash := hex.EncodeToString(hasher.Sum(nil))[:12]

	parsedURL, err := url.Parse(endpoint)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return hash
	}

	q := parsedURL.Query()
	for _, k := range secretQueryParams {
		if q.Has(k) {
			q.Set(k, "redacted")
		}
	}
	parsedURL.User = nil
	parsedURL.RawQuery = q.Encode()

	return parsedURL.String() + "#hash=" + hash
}
