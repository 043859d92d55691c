package activation

import (
	"fmt"
	"sort"
)

// EligibleMatches implements spec.md §4.7's rollout percentage: the eligible
// set is the lexicographically sorted match ids, truncated to round(n*pct/100).
func EligibleMatches(matchIDs []string, rolloutPct float64) []string {
	sorted := append([]string(nil), matchIDs...)
	sort.Strings(sorted)

	n := len(sorted)
	count := int(roundHalfAwayFromZero(float64(n) * rolloutPct / 100))
	if count > n {
		count = n
	}
	if count < 0 {
		count = 0
	}
	return sorted[:count]
}

func roundHalfAwayFromZero(v float64) float64 {
	if v >= 0 {
		return float64(int64(v + 0.5))
	}
	return float64(int64(v - 0.5))
}

// DailyCapStatus is the result of checking today's activation budget.
type DailyCapStatus struct {
	Used      int
	Cap       int
	Remaining int
	Exhausted bool
}

// CheckDailyCap implements spec.md §4.7's daily-cap check: remaining =
// max(0, cap - used). usedToday is the caller-supplied count of today's
// activation_runs + burn_in_ops_runs entries with activated=true, since
// counting those rows is a repository concern outside this package.
func CheckDailyCap(cap, usedToday int) DailyCapStatus {
	remaining := cap - usedToday
	if remaining < 0 {
		remaining = 0
	}
	return DailyCapStatus{Used: usedToday, Cap: cap, Remaining: remaining, Exhausted: remaining == 0}
}

// ValidBurnInBatchSize enforces the burn-in gate's per-batch match-count cap
// (spec.md §4.7: "match-count per batch capped at 1-3, inclusive").
func ValidBurnInBatchSize(n int, cfg BurnInConfig) bool {
	max := cfg.MaxMatchesPerBatch
	if max <= 0 {
		max = DefaultBurnIn().MaxMatchesPerBatch
	}
	return n >= 1 && n <= max
}

// BatchDenialReason is the message spec.md §4.7 requires when a whole batch
// is denied for exhausting the daily cap: it must contain both "daily" and "cap".
func BatchDenialReason(status DailyCapStatus) string {
	return fmt.Sprintf("daily activation cap exhausted (used=%d, cap=%d)", status.Used, status.Cap)
}
