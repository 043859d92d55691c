package resolver

import "time"

// Alias is one (team_id, alias) pairing as stored by the alias catalog.
type Alias struct {
	TeamID    string
	Alias     string
	AliasNorm string
	Language  string
	Quality   float64
}

// Match is a scheduled fixture as known to the match catalog.
type Match struct {
	MatchID       string
	HomeTeamID    string
	AwayTeamID    string
	KickoffUTC    time.Time
	CompetitionID string
}

// AliasStore resolves a normalized team-name alias to candidate teams.
type AliasStore interface {
	Lookup(aliasNorm string) []Alias
}

// MatchStore resolves a (home, away) team pair to candidate fixtures.
type MatchStore interface {
	FindByTeams(homeTeamID, awayTeamID string) []Match
}

// Status is the resolver's three-way outcome.
type Status string

const (
	StatusResolved  Status = "RESOLVED"
	StatusAmbiguous Status = "AMBIGUOUS"
	StatusNotFound  Status = "NOT_FOUND"
)

// Candidate is one ambiguous match surfaced to the caller.
type Candidate struct {
	MatchID       string    `json:"match_id"`
	KickoffUTC    time.Time `json:"kickoff_utc"`
	CompetitionID string    `json:"competition_id"`
}

// Result is the resolver's output: MatchID is populated for RESOLVED,
// Candidates for AMBIGUOUS, and neither for NOT_FOUND.
type Result struct {
	Status     Status      `json:"status"`
	MatchID    string      `json:"match_id,omitempty"`
	Candidates []Candidate `json:"candidates,omitempty"`
}

// MaxCandidates bounds how many ambiguous candidates are returned.
const MaxCandidates = 10
