package connector

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing/fstest"
	"time"

	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureFS() fstest.MapFS {
	return fstest.MapFS{
		"fixtures/b_match.json": &fstest.MapFile{Data: []byte(`{
			"match_id": "b1", "home_team": "B Home", "away_team": "B Away",
			"competition": "league", "kickoff_utc": "2026-08-01T18:00:00Z",
			"odds_1x2": {"home": 2.1, "draw": 3.2, "away": 3.5}, "status": "scheduled"
		}`)},
		"fixtures/a_match.json": &fstest.MapFile{Data: []byte(`{
			"match_id": "a1", "home_team": "A Home", "away_team": "A Away",
			"competition": "league", "kickoff_utc": "2026-08-01T12:00:00Z",
			"odds_1x2": {"home": 1.8, "draw": 3.4, "away": 4.2}, "status": "scheduled"
		}`)},
	}
}

func TestRecorded_FetchMatchesSortedByPath(t *testing.T) {
	c := NewRecorded("recorded", fixtureFS(), "fixtures")
	matches, err := c.FetchMatches(context.Background())
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "a1", matches[0].MatchID)
	assert.Equal(t, "b1", matches[1].MatchID)
}

func TestRecorded_FetchMatchDataReturnsMatch(t *testing.T) {
	c := NewRecorded("recorded", fixtureFS(), "fixtures")
	data, err := c.FetchMatchData(context.Background(), "a1")
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, "A Home", data.HomeTeam)
}

func TestRecorded_FetchMatchDataReturnsNilOnMissing(t *testing.T) {
	c := NewRecorded("recorded", fixtureFS(), "fixtures")
	data, err := c.FetchMatchData(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, data)
}

type stubDoer struct {
	resp *http.Response
	err  error
}

func (s stubDoer) Do(*http.Request) (*http.Response, error) {
	return s.resp, s.err
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func TestLive_FetchMatchDataReturnsNilOn404(t *testing.T) {
	c := NewLive(LiveConfig{
		Name:          "live",
		BaseURL:       "https://example.invalid",
		Client:        stubDoer{resp: jsonResponse(http.StatusNotFound, "")},
		LiveIOAllowed: func() bool { return true },
	})
	data, err := c.FetchMatchData(context.Background(), "x1")
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestLive_FetchMatchDataReturnsData(t *testing.T) {
	body := `{"match_id":"x1","home_team":"X","away_team":"Y","competition":"c",
		"kickoff_utc":"2026-08-01T12:00:00Z","odds_1x2":{"home":1.5,"draw":4,"away":5},"status":"scheduled"}`
	c := NewLive(LiveConfig{
		Name:          "live",
		BaseURL:       "https://example.invalid",
		Client:        stubDoer{resp: jsonResponse(http.StatusOK, body)},
		LiveIOAllowed: func() bool { return true },
	})
	data, err := c.FetchMatchData(context.Background(), "x1")
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, "X", data.HomeTeam)
}

func TestLive_DeniesWhenLiveIONotAllowed(t *testing.T) {
	c := NewLive(LiveConfig{
		Name:          "live",
		LiveIOAllowed: func() bool { return false },
	})
	_, err := c.FetchMatchData(context.Background(), "x1")
	assert.ErrorIs(t, err, ErrLiveIODisabled)
}

func TestLive_SurfacesUpstream5xxAsError(t *testing.T) {
	c := NewLive(LiveConfig{
		Name:          "live",
		BaseURL:       "https://example.invalid",
		Client:        stubDoer{resp: jsonResponse(http.StatusInternalServerError, "")},
		LiveIOAllowed: func() bool { return true },
	})
	_, err := c.FetchMatchData(context.Background(), "x1")
	assert.Error(t, err)
}

func TestLive_NilLiveIOAllowedDefaultsToAllowed(t *testing.T) {
	body := `{"match_id":"x1","home_team":"X","away_team":"Y","competition":"c",
		"kickoff_utc":"2026-08-01T12:00:00Z","odds_1x2":{"home":1.5,"draw":4,"away":5},"status":"scheduled"}`
	c := NewLive(LiveConfig{
		Name:    "live",
		BaseURL: "https://example.invalid",
		Client:  stubDoer{resp: jsonResponse(http.StatusOK, body)},
	})
	_, err := c.FetchMatchData(context.Background(), "x1")
	require.NoError(t, err)
}

func TestMatchIdentity_KickoffUTCRoundTrips(t *testing.T) {
	kickoff := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	m := MatchIdentity{MatchID: "a1", KickoffUTC: &kickoff}
	assert.Equal(t, kickoff, *m.KickoffUTC)
}
