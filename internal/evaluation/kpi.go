package evaluation

import "time"

// Period is a KPI aggregation window.
type Period string

const (
	PeriodDay   Period = "DAY"
	PeriodWeek  Period = "WEEK"
	PeriodMonth Period = "MONTH"
)

// Window returns the UTC [from, to) bounds for a period ending at asOf.
func Window(period Period, asOf time.Time) (time.Time, time.Time) {
	asOf = asOf.UTC()
	switch period {
	case PeriodWeek:
		return asOf.AddDate(0, 0, -7), asOf
	case PeriodMonth:
		return asOf.AddDate(0, -1, 0), asOf
	default:
		return asOf.AddDate(0, 0, -1), asOf
	}
}

// KPI is the hit/miss aggregate for a period, spec.md §4.8's "KPI aggregation".
type KPI struct {
	Period            Period
	TotalPredictions  int
	Hits              int
	Misses            int
	HitRate           float64
	MissRate          float64
}

// Aggregate implements spec.md §4.8's KPI rule: total_predictions = hits +
// misses (NEUTRAL/N/A excluded), and miss_rate := 1 - hit_rate whenever the
// denominator is non-zero, enforcing hit_rate + miss_rate == 1 by construction.
func Aggregate(period Period, outcomes []MarketOutcome) KPI {
	kpi := KPI{Period: period}
	for _, o := range outcomes {
		switch o {
		case OutcomeSuccess:
			kpi.Hits++
		case OutcomeFailure:
			kpi.Misses++
		}
	}
	kpi.TotalPredictions = kpi.Hits + kpi.Misses
	if kpi.TotalPredictions > 0 {
		kpi.HitRate = float64(kpi.Hits) / float64(kpi.TotalPredictions)
		kpi.MissRate = 1 - kpi.HitRate
	}
	return kpi
}
