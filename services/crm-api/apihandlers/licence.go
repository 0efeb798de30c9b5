package apihandlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	mw "github.com/ronanlefevre01/opticom-sub000/pkg/apihelpers/middlewares"
	jwthandling "github.com/ronanlefevre01/opticom-sub000/pkg/jwt-handling"
)

func (h *HttpEndpoints) AddLicenceAPI(rg *gin.RouterGroup) {
	licenceGroup := rg.Group("/licence")
	{
		licenceGroup.POST("/login", mw.RequirePayload(), h.licenceLogin)
	}

	authedGroup := licenceGroup.Group("")
	authedGroup.Use(mw.GetAndValidateLicenceToken(h.tokenSignKey, h.allowedInstanceIDs))
	{
		authedGroup.GET("", h.getLicence)
		authedGroup.POST("/accept-terms", mw.RequirePayload(), h.acceptTerms)
	}
}

type LicenceLoginReq struct {
	InstanceID string `json:"instanceId"`
	LicenceID  string `json:"licenceId"`
	Cle        string `json:"cle"`
}

func (h *HttpEndpoints) licenceLogin(c *gin.Context) {
	var req LicenceLoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.InstanceID == "" || req.LicenceID == "" || req.Cle == "" {
		slog.Error("missing required fields")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
		return
	}

	if !h.isInstanceAllowed(req.InstanceID) {
		slog.Error("instance not allowed", slog.String("instanceID", req.InstanceID))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid instance id"})
		return
	}

	licence, err := h.crmDBService.GetLicence(req.InstanceID)
	if err != nil {
		slog.Error("failed to fetch licence", slog.String("instanceID", req.InstanceID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch licence"})
		return
	}
	if licence == nil || licence.ID != req.LicenceID || licence.Cle != req.Cle {
		slog.Warn("licence login attempt with wrong credentials", slog.String("instanceID", req.InstanceID), slog.String("licenceID", req.LicenceID))
		randomWait(2, 5)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid licence credentials"})
		return
	}

	token, err := jwthandling.GenerateNewLicenceToken(h.tokenExpiresIn, licence.ID, req.InstanceID, h.tokenSignKey)
	if err != nil {
		slog.Error("failed to generate licence token", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"expiresIn": h.tokenExpiresIn.Seconds(),
	})
}

func (h *HttpEndpoints) getLicence(c *gin.Context) {
	claims := getLicenceClaims(c)

	licence, err := h.crmDBService.GetLicence(claims.InstanceID)
	if err != nil {
		slog.Error("failed to fetch licence", slog.String("instanceID", claims.InstanceID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch licence"})
		return
	}
	if licence == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "licence not found"})
		return
	}

	// The gateway key never leaves the backend.
	licence.Cle = ""
	c.JSON(http.StatusOK, gin.H{"licence": licence})
}

type AcceptTermsReq struct {
	Version string `json:"version"`
}

func (h *HttpEndpoints) acceptTerms(c *gin.Context) {
	claims := getLicenceClaims(c)

	var req AcceptTermsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Version == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "version is required"})
		return
	}

	licence, err := h.crmDBService.AcceptTerms(claims.InstanceID, req.Version, time.Now())
	if err != nil {
		slog.Error("failed to record terms acceptance", slog.String("instanceID", claims.InstanceID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record terms acceptance"})
		return
	}

	slog.Info("terms accepted", slog.String("instanceID", claims.InstanceID), slog.String("version", req.Version))
	licence.Cle = ""
	c.JSON(http.StatusOK, gin.H{"licence": licence})
}
