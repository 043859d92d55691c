package evidence

import "github.com/sawpanic/matchdecide/internal/envelope"

// cacheKeyInput is the canonicalized composite a cache key is derived from.
type cacheKeyInput struct {
	MatchID     string  `json:"match_id"`
	Domain      string  `json:"domain"`
	WindowHours float64 `json:"window_hours"`
}

// CacheKey derives the raw-evidence cache key for (match_id, domain,
// window_hours), per spec.md §4.3. It is truncated to 32 hex characters —
// half of sha256 — which is ample collision resistance for a cache key.
func CacheKey(matchID, domain string, windowHours float64) (string, error) {
	sum, err := envelope.Checksum(cacheKeyInput{MatchID: matchID, Domain: domain, WindowHours: windowHours})
	if err != nil {
		return "", err
	}
	return sum[:32], nil
}
