package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// Tracking parameters stripped during URL normalization. Keys are matched
// exactly; "utm_" and "ga_" are matched as prefixes.
var trackingParams = map[string]bool{
	"fbclid":      true,
	"gclid":       true,
	"dclid":       true,
	"msclkid":     true,
	"yclid":       true,
	"igshid":      true,
	"mc_cid":      true,
	"mc_eid":      true,
	"ref":         true,
	"ref_src":     true,
	"source":      true,
	"cmpid":       true,
	"spm":         true,
	"_ga":         true,
	"_gl":         true,
	"s_cid":       true,
	"share_id":    true,
	"app_id":      true,
	"campaign_id": true,
}

var trackingPrefixes = []string{"utm_", "ga_"}

func isTrackingParam(key string) bool {
	if trackingParams[key] {
		return true
	}
	for _, prefix := range trackingPrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// NormalizeURL canonicalizes a URL for exact-duplicate detection: lowercases
// and trims the input, forces https, strips the fragment, a leading "www.",
// a single trailing slash, and known tracking parameters, then re-serializes
// the remaining query parameters in a deterministic order.
// Unparseable input degrades to the trimmed lowercase raw string; this
// function never fails.
func NormalizeURL(raw string) string {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	if cleaned == "" {
		return ""
	}

	candidate := cleaned
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}

	u, err := url.Parse(candidate)
	if err != nil || u.Host == "" {
		return cleaned
	}

	if u.Scheme == "" || u.Scheme == "http" {
		u.Scheme = "https"
	}

	u.Fragment = ""
	u.Host = strings.TrimPrefix(u.Host, "www.")

	if len(u.Path) > 1 {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	u.RawQuery = normalizeQuery(u.Query())

	return u.String()
}

// normalizeQuery drops tracking parameters and re-encodes the remainder
// sorted by key, then by value, so equivalent URLs serialize identically.
func normalizeQuery(values url.Values) string {
	type pair struct {
		key   string
		value string
	}

	var pairs []pair
	for key, vals := range values {
		if isTrackingParam(key) {
			continue
		}
		for _, v := range vals {
			pairs = append(pairs, pair{key: key, value: v})
		}
	}

	if len(pairs) == 0 {
		return ""
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].key != pairs[j].key {
			return pairs[i].key < pairs[j].key
		}
		return pairs[i].value < pairs[j].value
	})

	var sb strings.Builder
	for i, p := range pairs {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(p.key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(p.value))
	}

	return sb.String()
}

// HashURL returns the hex-encoded SHA-256 of the normalized URL.
func HashURL(raw string) string {
	hash := sha256.Sum256([]byte(NormalizeURL(raw)))
	return hex.EncodeToString(hash[:])
}

// HashText returns the hex-encoded SHA-256 of the text as-is, used for
// exact content hashing of snapshot payloads.
func HashText(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}
