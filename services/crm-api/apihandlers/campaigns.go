package apihandlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	mw "github.com/ronanlefevre01/opticom-sub000/pkg/apihelpers/middlewares"
	"github.com/ronanlefevre01/opticom-sub000/pkg/crm/dispatch"
	"github.com/ronanlefevre01/opticom-sub000/pkg/crm/types"
)

func (h *HttpEndpoints) AddCampaignsAPI(rg *gin.RouterGroup) {
	campaignsGroup := rg.Group("/campaigns")
	campaignsGroup.Use(mw.GetAndValidateLicenceToken(h.tokenSignKey, h.allowedInstanceIDs))
	{
		campaignsGroup.POST("/dispatch", mw.RequirePayload(), h.dispatchCampaign)
		campaignsGroup.GET("/:campaignID/messages", h.getCampaignMessages)
	}
}

type DispatchCampaignReq struct {
	RecipientPhones []string `json:"recipientPhones"`
	TemplateContent string   `json:"templateContent"`
	// TemplateCategory selects a stored template when no explicit content
	// is given.
	TemplateCategory string `json:"templateCategory"`
	MessageType      string `json:"messageType"`
	Purpose          string `json:"purpose"`
}

func (h *HttpEndpoints) dispatchCampaign(c *gin.Context) {
	claims := getLicenceClaims(c)

	var req DispatchCampaignReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if len(req.RecipientPhones) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no recipients in payload"})
		return
	}
	if req.Purpose != types.PURPOSE_SERVICE_SMS && req.Purpose != types.PURPOSE_MARKETING_SMS {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid purpose"})
		return
	}

	templateContent := req.TemplateContent
	if templateContent == "" && req.TemplateCategory != "" {
		templateDef, err := h.crmDBService.GetMessageTemplateByCategory(claims.InstanceID, req.TemplateCategory)
		if err != nil {
			slog.Error("failed to fetch template for campaign", slog.String("instanceID", claims.InstanceID), slog.String("category", req.TemplateCategory), slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown template category"})
			return
		}
		templateContent = templateDef.Content
	}

	messageType := req.MessageType
	if messageType == "" {
		messageType = req.TemplateCategory
	}

	dispatcher := dispatch.Dispatcher{
		Store:   h.crmDBService,
		Gateway: h.gateway,
	}

	// The batch runs to completion regardless of the caller's connection:
	// once sends start there is no taking them back.
	summary, err := dispatcher.Dispatch(context.Background(), dispatch.Batch{
		InstanceID:      claims.InstanceID,
		RecipientPhones: req.RecipientPhones,
		TemplateContent: templateContent,
		MessageType:     messageType,
		Purpose:         req.Purpose,
		CleOverride:     h.gatewayKeyOverrides[claims.InstanceID],
	})
	if err != nil {
		var insufficientErr *dispatch.InsufficientCreditsError
		if errors.As(err, &insufficientErr) {
			c.JSON(http.StatusConflict, gin.H{
				"error":     "insufficient credits",
				"available": insufficientErr.Available,
				"required":  insufficientErr.Required,
			})
			return
		}
		if errors.Is(err, dispatch.ErrNoLicence) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no licence configured"})
			return
		}
		slog.Error("campaign dispatch failed", slog.String("instanceID", claims.InstanceID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "campaign dispatch failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

func (h *HttpEndpoints) getCampaignMessages(c *gin.Context) {
	claims := getLicenceClaims(c)

	messages, err := h.crmDBService.GetSentMessagesForCampaign(claims.InstanceID, c.Param("campaignID"))
	if err != nil {
		slog.Error("failed to fetch campaign messages", slog.String("instanceID", claims.InstanceID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch campaign messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
