package connector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sawpanic/matchdecide/internal/netio/budget"
	"github.com/sawpanic/matchdecide/internal/netio/circuit"
	"github.com/sawpanic/matchdecide/internal/netio/ratelimit"
)

// LiveIOAllowed gates whether any Live connector may perform real network
// I/O (spec.md §4.5 step 1, §6's LIVE_IO_ALLOWED).
type LiveIOAllowed func() bool

// ErrLiveIODisabled is returned when a Live connector is called while
// LIVE_IO_ALLOWED is false, so a caller never accidentally reaches the
// network in shadow mode.
var ErrLiveIODisabled = fmt.Errorf("live I/O is not allowed")

// HTTPDoer is the minimal *http.Client surface Live depends on, so tests can
// substitute a stub without spinning up a real HTTP server.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Live is a network-backed connector, wrapped with the same rate limiter,
// circuit breaker, and budget tracker middleware the teacher's provider
// wrapper applies (internal/net/client/wrap.go), adapted to this module's
// netio package split.
type Live struct {
	name          string
	baseURL       string
	client        HTTPDoer
	limiter       *ratelimit.Limiter
	host          string
	breaker       *circuit.Breaker
	budget        *budget.Tracker
	liveIOAllowed LiveIOAllowed
}

// LiveConfig configures a Live connector's middleware stack.
type LiveConfig struct {
	Name          string
	BaseURL       string
	Host          string
	Client        HTTPDoer
	Limiter       *ratelimit.Limiter
	Breaker       *circuit.Breaker
	Budget        *budget.Tracker
	LiveIOAllowed LiveIOAllowed
}

// NewLive constructs a Live connector from cfg.
func NewLive(cfg LiveConfig) *Live {
	return &Live{
		name:          cfg.Name,
		baseURL:       cfg.BaseURL,
		client:        cfg.Client,
		limiter:       cfg.Limiter,
		host:          cfg.Host,
		breaker:       cfg.Breaker,
		budget:        cfg.Budget,
		liveIOAllowed: cfg.LiveIOAllowed,
	}
}

func (l *Live) Name() string { return l.name }

func (l *Live) Category() Category { return CategoryLive }

func (l *Live) checkAllowed() error {
	if l.liveIOAllowed != nil && !l.liveIOAllowed() {
		return ErrLiveIODisabled
	}
	return nil
}

func (l *Live) FetchMatches(ctx context.Context) ([]MatchIdentity, error) {
	if err := l.checkAllowed(); err != nil {
		return nil, err
	}

	var out []MatchIdentity
	err := l.call(ctx, l.baseURL+"/matches", &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (l *Live) FetchMatchData(ctx context.Context, matchID string) (*IngestedMatchData, error) {
	if err := l.checkAllowed(); err != nil {
		return nil, err
	}

	var data IngestedMatchData
	err := l.call(ctx, l.baseURL+"/matches/"+matchID, &data)
	if err != nil {
		if err == errNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &data, nil
}

var errNotFound = fmt.Errorf("match not found")

// call applies the budget → rate-limit → circuit-breaker middleware order
// (budget checked first so an exhausted day fails fast without consuming a
// rate-limit token), matching internal/net/client/wrap.go's ordering.
func (l *Live) call(ctx context.Context, url string, out interface{}) error {
	if l.budget != nil {
		if err := l.budget.Consume(); err != nil {
			return fmt.Errorf("%s: %w", l.name, err)
		}
	}
	if l.limiter != nil {
		if err := l.limiter.Wait(ctx, l.host); err != nil {
			return fmt.Errorf("%s: rate limit wait: %w", l.name, err)
		}
	}

	fetch := func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		resp, err := l.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return errNotFound
		}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("upstream status %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(out)
	}

	if l.breaker != nil {
		return l.breaker.Call(ctx, fetch)
	}
	return fetch(ctx)
}
