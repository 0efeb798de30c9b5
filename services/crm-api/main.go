package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ronanlefevre01/opticom-sub000/pkg/apihelpers"
	"github.com/ronanlefevre01/opticom-sub000/pkg/crm/credits"
	"github.com/ronanlefevre01/opticom-sub000/pkg/smsgateway"
	"github.com/ronanlefevre01/opticom-sub000/services/crm-api/apihandlers"
)

func main() {
	// Credit renewal runs at process start; there is no background scheduler.
	runCreditRenewalAtBoot()

	gatewayClient := smsgateway.NewClient(smsgateway.ClientConfig{
		RootURL: conf.CRMConfigs.SMSGatewayConfig.URL,
		APIKey:  conf.CRMConfigs.SMSGatewayConfig.APIKey,
		Timeout: conf.CRMConfigs.SMSGatewayConfig.RequestTimeout,
	})

	// Start webserver
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     conf.GinConfig.AllowOrigins,
		AllowMethods:     []string{"POST", "GET", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Content-Length"},
		ExposeHeaders:    []string{"Authorization", "Content-Type", "Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Add handlers
	router.GET("/", apihandlers.HealthCheckHandle)
	v1Root := router.Group("/v1")

	v1APIHandlers := apihandlers.NewHTTPHandler(
		crmDBService,
		gatewayClient,
		conf.LicenceJWTConfig.SignKey,
		conf.LicenceJWTConfig.ExpiresIn,
		conf.AllowedInstanceIDs,
		conf.ApiKeys,
		conf.CRMConfigs.CreditConfig.MonthlyAllotment,
		gatewayKeyOverrides,
	)
	v1APIHandlers.AddLicenceAPI(v1Root)
	v1APIHandlers.AddClientsAPI(v1Root)
	v1APIHandlers.AddMessageTemplatesAPI(v1Root)
	v1APIHandlers.AddCampaignsAPI(v1Root)
	v1APIHandlers.AddCreditsAPI(v1Root)

	if conf.GinConfig.DebugMode {
		apihelpers.WriteRoutesToFile(router, "crm-api-routes.txt")
	}

	// Start the server
	slog.Info("Starting CRM API on port " + conf.GinConfig.Port)
	if !conf.GinConfig.MTLS.Use {
		err := router.Run(":" + conf.GinConfig.Port)
		if err != nil {
			slog.Error("Exited CRM API", slog.String("error", err.Error()))
			return
		}
	} else {
		// Create tls config for mutual TLS
		tlsConfig, err := apihelpers.LoadTLSConfig(conf.GinConfig.MTLS.CertificatePaths)
		if err != nil {
			slog.Error("Error loading TLS config.", slog.String("error", err.Error()))
			return
		}

		server := &http.Server{
			Addr:      ":" + conf.GinConfig.Port,
			Handler:   router,
			TLSConfig: tlsConfig,
		}

		err = server.ListenAndServeTLS(conf.GinConfig.MTLS.CertificatePaths.ServerCertPath, conf.GinConfig.MTLS.CertificatePaths.ServerKeyPath)
		if err != nil {
			slog.Error("Exited CRM API", slog.String("error", err.Error()))
			return
		}
	}
}

func runCreditRenewalAtBoot() {
	for _, instanceID := range conf.AllowedInstanceIDs {
		ledger, err := crmDBService.GetSubscription(instanceID)
		if err != nil {
			slog.Error("Failed to load credit ledger", slog.String("instanceID", instanceID), slog.String("error", err.Error()))
			continue
		}
		if ledger == nil {
			continue
		}

		updated, changed := credits.CheckAndRenew(*ledger, conf.CRMConfigs.CreditConfig.MonthlyAllotment, time.Now())
		if !changed {
			continue
		}
		if err := crmDBService.SaveSubscription(instanceID, updated); err != nil {
			slog.Error("Failed to persist renewed credit ledger", slog.String("instanceID", instanceID), slog.String("error", err.Error()))
			continue
		}
		slog.Info("Monthly credits renewed", slog.String("instanceID", instanceID), slog.Int("creditsRestants", updated.CreditsRestants))
	}
}
