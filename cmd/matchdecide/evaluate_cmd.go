package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sawpanic/matchdecide/internal/evaluation"
	"github.com/sawpanic/matchdecide/internal/repository"
)

var evaluatePeriod string
var evaluateAsOf string

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Aggregate hit/miss KPIs over a period window (spec.md §4.8)",
	RunE:  runEvaluate,
}

func init() {
	evaluateCmd.Flags().StringVar(&evaluatePeriod, "period", "day", "aggregation window: day|week|month")
	evaluateCmd.Flags().StringVar(&evaluateAsOf, "as-of", "", "RFC3339 timestamp the window ends at; defaults to now")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	period, err := parsePeriod(evaluatePeriod)
	if err != nil {
		return err
	}

	asOf := time.Now().UTC()
	if evaluateAsOf != "" {
		asOf, err = time.Parse(time.RFC3339, evaluateAsOf)
		if err != nil {
			return fmt.Errorf("parse --as-of: %w", err)
		}
	}

	fc, err := loadFileConfig()
	if err != nil {
		return err
	}
	repo, closeRepo, err := buildRepository(fc)
	if err != nil {
		return err
	}
	defer closeRepo()

	from, to := evaluation.Window(period, asOf)
	records, err := repo.Outcomes.ListOutcomes(ctx, repository.TimeRange{From: from, To: to})
	if err != nil {
		return fmt.Errorf("list outcomes: %w", err)
	}

	outcomes := make([]evaluation.MarketOutcome, len(records))
	for i, r := range records {
		if r.Hit {
			outcomes[i] = evaluation.OutcomeSuccess
		} else {
			outcomes[i] = evaluation.OutcomeFailure
		}
	}

	kpi := evaluation.Aggregate(period, outcomes)
	return printJSON(kpi)
}

func parsePeriod(s string) (evaluation.Period, error) {
	switch s {
	case "day", "":
		return evaluation.PeriodDay, nil
	case "week":
		return evaluation.PeriodWeek, nil
	case "month":
		return evaluation.PeriodMonth, nil
	default:
		return "", fmt.Errorf("unknown period %q, want day|week|month", s)
	}
}
