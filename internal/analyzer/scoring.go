package analyzer

import "math"

// score1X2 implements spec.md §4.4 step 4's 1X2 formula: net-goals scoring
// with home advantage and an H2H share nudge, converted to pseudo-probabilities
// via a softmax base 2.
func score1X2(f Features, t Thresholds) (probs map[string]float64, separation float64, reasons []string) {
	homeNet := f.Stats.Home.GoalsScoredPerMatch - f.Stats.Away.GoalsConcededPerMatch
	awayNet := f.Stats.Away.GoalsScoredPerMatch - f.Stats.Home.GoalsConcededPerMatch

	homeNet += t.HomeAdvantage
	awayNet -= t.HomeAdvantage

	if f.HasH2H && f.H2H.MatchesCount >= 1 {
		shift := (f.H2H.Share() - 0.5) * t.H2HWeight
		homeNet += shift
		awayNet -= shift
		reasons = append(reasons, ReasonH2HUsed)
	}

	drawNet := 0.0

	exps := map[string]float64{
		"HOME": math.Pow(2, homeNet),
		"DRAW": math.Pow(2, drawNet),
		"AWAY": math.Pow(2, awayNet),
	}
	total := exps["HOME"] + exps["DRAW"] + exps["AWAY"]
	probs = map[string]float64{
		"HOME": exps["HOME"] / total,
		"DRAW": exps["DRAW"] / total,
		"AWAY": exps["AWAY"] / total,
	}

	top, second, topOutcome := topTwo(probs)
	separation = top - second

	switch topOutcome {
	case "HOME":
		reasons = append(reasons, ReasonHomeFavored)
	case "AWAY":
		reasons = append(reasons, ReasonAwayFavored)
	case "DRAW":
		reasons = append(reasons, ReasonDrawFavored)
	}

	return probs, separation, reasons
}

// scoreOU25 implements spec.md §4.4 step 4's Over/Under 2.5 formula.
func scoreOU25(f Features, _ Thresholds) (probs map[string]float64, separation float64, reasons []string) {
	xgProxy := (f.Stats.Home.GoalsScoredPerMatch+f.Stats.Away.GoalsConcededPerMatch)/2 +
		(f.Stats.Away.GoalsScoredPerMatch+f.Stats.Home.GoalsConcededPerMatch)/2

	pOver := 0.5 + 0.5*math.Tanh((xgProxy-2.5)*0.5)
	pUnder := 1 - pOver

	reasons = append(reasons, ReasonXGProxy)
	if xgProxy > 2.5 {
		reasons = append(reasons, ReasonExpectedGoalsAbove, ReasonOverFavored)
	} else {
		reasons = append(reasons, ReasonExpectedGoalsBelow, ReasonUnderFavored)
	}

	return map[string]float64{"OVER": pOver, "UNDER": pUnder}, math.Abs(pOver - pUnder), reasons
}

// scoreBTTS implements spec.md §4.4 step 4's Both Teams To Score formula.
func scoreBTTS(f Features, _ Thresholds) (probs map[string]float64, separation float64, reasons []string) {
	pHomeScores := clamp(f.Stats.Home.GoalsScoredPerMatch/3, 0, 1)
	pAwayScores := clamp(f.Stats.Away.GoalsScoredPerMatch/3, 0, 1)

	pYes := pHomeScores * pAwayScores
	pNo := 1 - pYes

	if pYes >= pNo {
		reasons = append(reasons, ReasonBothTeamsLikelyToScore)
	} else {
		reasons = append(reasons, ReasonBothTeamsUnlikelyToScore)
	}

	return map[string]float64{"YES": pYes, "NO": pNo}, math.Abs(pYes - pNo), reasons
}

// confidence maps a market's separation to spec.md §4.4 step 4's confidence formula.
func confidence(separation float64) float64 {
	return clamp(0.5+separation*2, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// topTwo returns the two highest probabilities and the outcome name owning
// the highest, breaking ties deterministically by outcome name.
func topTwo(probs map[string]float64) (top, second float64, topOutcome string) {
	type pair struct {
		name string
		p    float64
	}
	pairs := make([]pair, 0, len(probs))
	for name, p := range probs {
		pairs = append(pairs, pair{name, p})
	}
	for i := 0; i < len(pairs); i++ {
		for j := i + 1; j < len(pairs); j++ {
			if pairs[j].p > pairs[i].p || (pairs[j].p == pairs[i].p && pairs[j].name < pairs[i].name) {
				pairs[i], pairs[j] = pairs[j], pairs[i]
			}
		}
	}
	if len(pairs) == 0 {
		return 0, 0, ""
	}
	top = pairs[0].p
	topOutcome = pairs[0].name
	if len(pairs) > 1 {
		second = pairs[1].p
	}
	return top, second, topOutcome
}

func minSeparationFor(market Market, t Thresholds) float64 {
	switch market {
	case Market1X2:
		return t.MinSeparation1X2
	case MarketOU25:
		return t.MinSeparationOU25
	case MarketBTTS:
		return t.MinSeparationBTTS
	default:
		return 1
	}
}

func scoreMarket(market Market, f Features, t Thresholds) (probs map[string]float64, separation float64, reasons []string) {
	switch market {
	case Market1X2:
		return score1X2(f, t)
	case MarketOU25:
		return scoreOU25(f, t)
	case MarketBTTS:
		return scoreBTTS(f, t)
	default:
		return nil, 0, nil
	}
}
