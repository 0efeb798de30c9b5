package apihandlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	mw "github.com/ronanlefevre01/opticom-sub000/pkg/apihelpers/middlewares"
	"github.com/ronanlefevre01/opticom-sub000/pkg/crm/credits"
	"github.com/ronanlefevre01/opticom-sub000/pkg/crm/types"
)

func (h *HttpEndpoints) AddCreditsAPI(rg *gin.RouterGroup) {
	creditsGroup := rg.Group("/credits")

	authedGroup := creditsGroup.Group("")
	authedGroup.Use(mw.GetAndValidateLicenceToken(h.tokenSignKey, h.allowedInstanceIDs))
	{
		authedGroup.GET("", h.getCredits)
	}

	// Called by the payment provider's webhook relay, not by the app.
	creditsGroup.POST("/purchase-confirm", mw.HasValidAPIKey(h.apiKeys), mw.RequirePayload(), h.confirmCreditPurchase)
}

func (h *HttpEndpoints) getCredits(c *gin.Context) {
	claims := getLicenceClaims(c)

	ledger, err := h.crmDBService.GetSubscription(claims.InstanceID)
	if err != nil {
		slog.Error("failed to fetch subscription", slog.String("instanceID", claims.InstanceID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch subscription"})
		return
	}
	if ledger == nil {
		// First contact for this instance: seed the ledger with the current
		// month's allotment and a renewal date one month out.
		now := time.Now()
		seeded := types.CreditLedger{
			CreditsRestants: h.monthlyAllotment,
			Renouvellement:  now.AddDate(0, 1, 0),
			Historique: []types.UsageEntry{{
				Period: credits.CurrentPeriod(now),
				Label:  credits.PeriodLabel(now),
			}},
		}
		if err := h.crmDBService.SaveSubscription(claims.InstanceID, seeded); err != nil {
			slog.Error("failed to seed subscription", slog.String("instanceID", claims.InstanceID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to seed subscription"})
			return
		}
		ledger = &seeded
	}

	resp := gin.H{"subscription": ledger}

	// Best effort: the local ledger is a mirror, the gateway balance is
	// authoritative when reachable.
	balance, known, err := h.gateway.GetRemainingCredits(claims.LicenceID)
	if err != nil {
		slog.Warn("failed to fetch gateway balance", slog.String("instanceID", claims.InstanceID), slog.String("error", err.Error()))
	} else if known {
		resp["gatewayBalance"] = balance
	}

	c.JSON(http.StatusOK, resp)
}

type ConfirmCreditPurchaseReq struct {
	InstanceID string `json:"instanceId"`
	Amount     int    `json:"amount"`
}

func (h *HttpEndpoints) confirmCreditPurchase(c *gin.Context) {
	var req ConfirmCreditPurchaseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
		return
	}
	if !h.isInstanceAllowed(req.InstanceID) {
		slog.Error("instance not allowed", slog.String("instanceID", req.InstanceID))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid instance id"})
		return
	}

	ledger, err := h.crmDBService.GetSubscription(req.InstanceID)
	if err != nil {
		slog.Error("failed to fetch subscription", slog.String("instanceID", req.InstanceID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch subscription"})
		return
	}
	if ledger == nil {
		ledger = &types.CreditLedger{}
	}

	updated := credits.Add(*ledger, req.Amount, time.Now())
	if err := h.crmDBService.SaveSubscription(req.InstanceID, updated); err != nil {
		slog.Error("failed to save subscription", slog.String("instanceID", req.InstanceID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save subscription"})
		return
	}

	slog.Info("credit purchase confirmed", slog.String("instanceID", req.InstanceID), slog.Int("amount", req.Amount), slog.Int("creditsRestants", updated.CreditsRestants))
	c.JSON(http.StatusOK, gin.H{"subscription": updated})
}
