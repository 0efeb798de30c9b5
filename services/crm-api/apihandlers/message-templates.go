package apihandlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	mw "github.com/ronanlefevre01/opticom-sub000/pkg/apihelpers/middlewares"

	"github.com/ronanlefevre01/opticom-sub000/pkg/crm/types"
)

func (h *HttpEndpoints) AddMessageTemplatesAPI(rg *gin.RouterGroup) {
	templatesGroup := rg.Group("/message-templates")
	templatesGroup.Use(mw.GetAndValidateLicenceToken(h.tokenSignKey, h.allowedInstanceIDs))
	{
		templatesGroup.GET("", h.getMessageTemplates)
		templatesGroup.POST("", mw.RequirePayload(), h.saveMessageTemplate)
		templatesGroup.DELETE("/:category", h.deleteMessageTemplate)
	}
}

func (h *HttpEndpoints) getMessageTemplates(c *gin.Context) {
	claims := getLicenceClaims(c)

	templates, err := h.crmDBService.GetMessageTemplates(claims.InstanceID)
	if err != nil {
		slog.Error("failed to fetch message templates", slog.String("instanceID", claims.InstanceID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch message templates"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

func (h *HttpEndpoints) saveMessageTemplate(c *gin.Context) {
	claims := getLicenceClaims(c)

	var templateDef types.MessageTemplate
	if err := c.ShouldBindJSON(&templateDef); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if templateDef.Category == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category is required"})
		return
	}

	saved, err := h.crmDBService.SaveMessageTemplate(claims.InstanceID, templateDef)
	if err != nil {
		slog.Error("failed to save message template", slog.String("instanceID", claims.InstanceID), slog.String("category", templateDef.Category), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save message template"})
		return
	}

	// saved is the server copy read back after the update, so the response
	// reflects what future reads will return.
	c.JSON(http.StatusOK, gin.H{"template": saved})
}

func (h *HttpEndpoints) deleteMessageTemplate(c *gin.Context) {
	claims := getLicenceClaims(c)

	category := c.Param("category")
	if err := h.crmDBService.DeleteMessageTemplate(claims.InstanceID, category); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "template not found"})
			return
		}
		slog.Error("failed to delete message template", slog.String("instanceID", claims.InstanceID), slog.String("category", category), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete message template"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "template deleted"})
}
