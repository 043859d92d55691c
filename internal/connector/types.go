// Package connector defines the ingestion source contract (spec.md §6) and
// two implementations: recorded (directory of JSON fixtures) and live
// (capability-flag-gated, wrapped by the netio circuit/ratelimit/budget
// middleware stack).
package connector

import (
	"context"
	"time"
)

// MatchIdentity is one match as enumerated by a connector's match list.
type MatchIdentity struct {
	MatchID     string     `json:"match_id"`
	KickoffUTC  *time.Time `json:"kickoff_utc,omitempty"`
	Competition string     `json:"competition,omitempty"`
}

// Odds1X2 is the three-way pre-match price, each leg strictly positive.
type Odds1X2 struct {
	Home float64 `json:"home"`
	Draw float64 `json:"draw"`
	Away float64 `json:"away"`
}

// IngestedMatchData is a connector's raw per-match payload (spec.md §6).
type IngestedMatchData struct {
	MatchID     string    `json:"match_id"`
	HomeTeam    string    `json:"home_team"`
	AwayTeam    string    `json:"away_team"`
	Competition string    `json:"competition"`
	KickoffUTC  time.Time `json:"kickoff_utc"`
	Odds1X2     Odds1X2   `json:"odds_1x2"`
	Status      string    `json:"status"`
}

// Connector is the ingestion source contract every connector implements.
// FetchMatchData returns (nil, nil) on a not-found match, never an error.
type Connector interface {
	Name() string
	Category() Category
	FetchMatches(ctx context.Context) ([]MatchIdentity, error)
	FetchMatchData(ctx context.Context, matchID string) (*IngestedMatchData, error)
}

// Category distinguishes connectors that require LIVE_IO_ALLOWED from those
// that don't (spec.md §4.5 step 1).
type Category string

const (
	CategoryRecorded Category = "recorded"
	CategoryLive     Category = "live"
)
