package activation

// Deny reason codes, spec.md §4.7.
const (
	ReasonKillSwitch          = "ACTIVATION_KILL_SWITCH"
	ReasonNotEnabled          = "ACTIVATION_DISABLED"
	ReasonInvalidMode         = "ACTIVATION_MODE_INVALID"
	ReasonLiveWritesDenied    = "LIVE_WRITES_NOT_ALLOWED"
	ReasonLiveIODenied        = "LIVE_IO_NOT_ALLOWED"
	ReasonNotReady            = "READINESS_CHECK_FAILED"
	ReasonConnectorNotAllowed = "CONNECTOR_NOT_WHITELISTED"
	ReasonMarketNotAllowed    = "MARKET_NOT_WHITELISTED"
	ReasonBelowConfidence     = "CONFIDENCE_BELOW_THRESHOLD"
	ReasonUnresolvedAlert     = "UNRESOLVED_CRITICAL_ALERT"
	ReasonBurnInConnector     = "BURN_IN_CONNECTOR_MISMATCH"
	ReasonBurnInMarket        = "BURN_IN_MARKET_MISMATCH"
	ReasonBurnInConfidence    = "BURN_IN_CONFIDENCE_BELOW_THRESHOLD"
	ReasonBurnInAlertPresent  = "BURN_IN_ALERT_PRESENT"
)

// Evaluate runs the strict ten-step gate for one decision (spec.md §4.7).
// The first failing step terminates evaluation; readiness and alert-scan are
// injected so this package stays decoupled from any concrete DB/cache/store.
func Evaluate(cfg Config, decision Decision, readiness Readiness, alerts AlertScanner) Verdict {
	if cfg.KillSwitch {
		return deny(ReasonKillSwitch)
	}
	if !cfg.ActivationEnabled {
		return deny(ReasonNotEnabled)
	}
	if !validModes[cfg.Mode] {
		return deny(ReasonInvalidMode)
	}
	if !cfg.LiveWritesAllowed {
		return deny(ReasonLiveWritesDenied)
	}

	if cfg.Mode == ModeBurnIn {
		if !cfg.LiveIOAllowed {
			return deny(ReasonLiveIODenied)
		}
		if v := evaluateBurnIn(cfg, decision, alerts); !v.Allowed {
			return v
		}
	}

	if readiness != nil {
		if ok, reason := readiness.Ready(); !ok {
			if reason == "" {
				reason = ReasonNotReady
			}
			return deny(reason)
		}
	}

	if len(cfg.Connectors) > 0 && !contains(cfg.Connectors, decision.ConnectorName) {
		return deny(ReasonConnectorNotAllowed)
	}

	markets := cfg.Markets
	if len(markets) == 0 {
		markets = DefaultMarkets
	}
	if !contains(markets, decision.Market) {
		return deny(ReasonMarketNotAllowed)
	}

	if decision.Confidence < decision.PolicyMinConf || decision.Confidence < cfg.Tier.MinConfidence {
		return deny(ReasonBelowConfidence)
	}

	if alerts != nil {
		if has, reason := alerts.HasUnresolvedCriticalAlert(AlertLookback); has {
			if reason == "" {
				reason = ReasonUnresolvedAlert
			}
			return deny(reason)
		}
	}

	return allow()
}

// evaluateBurnIn applies spec.md §4.7's burn-in tightening on top of step 5.
func evaluateBurnIn(cfg Config, decision Decision, alerts AlertScanner) Verdict {
	b := cfg.BurnIn
	if b.RequiredConnector != "" && decision.ConnectorName != b.RequiredConnector {
		return deny(ReasonBurnInConnector)
	}
	if b.RequiredMarket != "" && decision.Market != b.RequiredMarket {
		return deny(ReasonBurnInMarket)
	}
	if decision.Confidence < b.MinConfidence {
		return deny(ReasonBurnInConfidence)
	}
	if alerts != nil {
		if has, _ := alerts.HasUnresolvedCriticalAlert(AlertLookback); has {
			return deny(ReasonBurnInAlertPresent)
		}
	}
	return allow()
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
