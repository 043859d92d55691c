package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var activationCmd = &cobra.Command{
	Use:   "activation",
	Short: "Activation gate status and configuration",
}

var activationStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the resolved activation config, ops switches, and daily activation count",
	RunE:  runActivationStatus,
}

func init() {
	activationCmd.AddCommand(activationStatusCmd)
}

// activationStatus is the JSON shape 'activation status' prints: the
// resolved env/tier-projected activation.Config alongside the live ops
// switch snapshot and today's activation count, so an operator sees every
// input the gate actually consults in one place.
type activationStatus struct {
	Config                interface{} `json:"config"`
	Switches              interface{} `json:"switches"`
	ActivatedToday        int         `json:"activated_today"`
	HasAnyPriorActivation bool        `json:"has_any_prior_activation"`
}

func runActivationStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	fc, err := loadFileConfig()
	if err != nil {
		return err
	}
	env := loadEnv()
	tiers, err := loadTiersConfig()
	if err != nil {
		return err
	}
	switches := buildSwitchManager(fc)
	repo, closeRepo, err := buildRepository(fc)
	if err != nil {
		return err
	}
	defer closeRepo()

	status := activationStatus{
		Config:   env.ActivationConfig(tiers),
		Switches: switches.Status(),
	}
	if repo != nil && repo.ActivationRuns != nil {
		status.ActivatedToday, err = repo.ActivationRuns.CountActivatedToday(ctx, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("count activated today: %w", err)
		}
		status.HasAnyPriorActivation, err = repo.ActivationRuns.HasAnyPriorRun(ctx)
		if err != nil {
			return fmt.Errorf("check prior activation run: %w", err)
		}
	}

	return printJSON(status)
}
