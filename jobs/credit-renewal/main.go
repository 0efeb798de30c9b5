package main

import (
	"log/slog"
	"time"

	"github.com/ronanlefevre01/opticom-sub000/pkg/crm/credits"
)

func main() {
	slog.Info("Starting credit renewal job")
	start := time.Now()

	renewed := 0
	for _, instanceID := range conf.InstanceIDs {
		slog.Debug("Checking credit renewal for instance", slog.String("instanceID", instanceID))

		ledger, err := crmDBService.GetSubscription(instanceID)
		if err != nil {
			slog.Error("Failed to load credit ledger", slog.String("error", err.Error()), slog.String("instanceID", instanceID))
			continue
		}
		if ledger == nil {
			slog.Debug("No credit ledger for instance yet", slog.String("instanceID", instanceID))
			continue
		}

		updated, changed := credits.CheckAndRenew(*ledger, conf.CRMConfigs.CreditConfig.MonthlyAllotment, time.Now())
		if !changed {
			continue
		}

		if err := crmDBService.SaveSubscription(instanceID, updated); err != nil {
			slog.Error("Failed to persist renewed credit ledger", slog.String("error", err.Error()), slog.String("instanceID", instanceID))
			continue
		}

		renewed++
		slog.Info("Monthly credits renewed", slog.String("instanceID", instanceID), slog.Int("creditsRestants", updated.CreditsRestants), slog.String("nextRenewal", updated.Renouvellement.Format(time.RFC3339)))
	}

	slog.Info("Credit renewal job completed", slog.Int("renewedInstances", renewed), slog.String("duration", time.Since(start).String()))
}
