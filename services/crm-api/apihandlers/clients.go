package apihandlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ronanlefevre01/opticom-sub000/pkg/apihelpers"
	mw "github.com/ronanlefevre01/opticom-sub000/pkg/apihelpers/middlewares"
	"github.com/ronanlefevre01/opticom-sub000/pkg/crm/consent"
	crmDB "github.com/ronanlefevre01/opticom-sub000/pkg/db/crm"

	"github.com/ronanlefevre01/opticom-sub000/pkg/crm/types"
)

func (h *HttpEndpoints) AddClientsAPI(rg *gin.RouterGroup) {
	clientsGroup := rg.Group("/clients")
	clientsGroup.Use(mw.GetAndValidateLicenceToken(h.tokenSignKey, h.allowedInstanceIDs))
	{
		clientsGroup.GET("", h.getClients)
		clientsGroup.POST("", mw.RequirePayload(), h.saveClient)
		clientsGroup.POST("/import", mw.RequirePayload(), h.importClients)
		clientsGroup.GET("/:phone", h.getClientByPhone)
		clientsGroup.DELETE("/:phone", h.deleteClient)
		clientsGroup.POST("/:phone/consent", mw.RequirePayload(), h.updateConsent)
	}
}

func (h *HttpEndpoints) getClients(c *gin.Context) {
	claims := getLicenceClaims(c)

	query, err := apihelpers.ParsePaginatedQueryFromCtx(c)
	if err != nil {
		slog.Error("failed to parse pagination query", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	clients, err := h.crmDBService.GetClientsPaginated(claims.InstanceID, query.Page, query.Limit)
	if err != nil {
		slog.Error("failed to fetch clients", slog.String("instanceID", claims.InstanceID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch clients"})
		return
	}

	total, err := h.crmDBService.CountClients(claims.InstanceID)
	if err != nil {
		slog.Error("failed to count clients", slog.String("instanceID", claims.InstanceID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count clients"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"clients": clients,
		"total":   total,
		"page":    query.Page,
		"limit":   query.Limit,
	})
}

func (h *HttpEndpoints) saveClient(c *gin.Context) {
	claims := getLicenceClaims(c)

	var client types.Client
	if err := c.ShouldBindJSON(&client); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved, err := h.crmDBService.SaveClient(claims.InstanceID, client)
	if err != nil {
		if errors.Is(err, crmDB.ErrInvalidPhoneNumber) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid phone number"})
			return
		}
		slog.Error("failed to save client", slog.String("instanceID", claims.InstanceID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save client"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"client": saved})
}

type ImportClientsReq struct {
	Clients []types.Client `json:"clients"`
}

// importClients upserts a whole roster in one call, e.g. after a file
// import on the client side. Entries with unusable phone numbers are
// reported back instead of failing the batch.
func (h *HttpEndpoints) importClients(c *gin.Context) {
	claims := getLicenceClaims(c)

	var req ImportClientsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Clients) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no clients in payload"})
		return
	}

	imported := 0
	rejected := []string{}
	for _, client := range req.Clients {
		if _, err := h.crmDBService.SaveClient(claims.InstanceID, client); err != nil {
			if errors.Is(err, crmDB.ErrInvalidPhoneNumber) {
				rejected = append(rejected, client.Telephone)
				continue
			}
			slog.Error("failed to import client", slog.String("instanceID", claims.InstanceID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to import clients"})
			return
		}
		imported++
	}

	slog.Info("clients imported", slog.String("instanceID", claims.InstanceID), slog.Int("imported", imported), slog.Int("rejected", len(rejected)))
	c.JSON(http.StatusOK, gin.H{
		"imported": imported,
		"rejected": rejected,
	})
}

func (h *HttpEndpoints) getClientByPhone(c *gin.Context) {
	claims := getLicenceClaims(c)

	client, err := h.crmDBService.GetClientByPhone(claims.InstanceID, c.Param("phone"))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "client not found"})
			return
		}
		if errors.Is(err, crmDB.ErrInvalidPhoneNumber) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid phone number"})
			return
		}
		slog.Error("failed to fetch client", slog.String("instanceID", claims.InstanceID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch client"})
		return
	}

	recentCount, err := h.crmDBService.CountSentMessagesForPhone(claims.InstanceID, client.Telephone, "", time.Now().AddDate(0, 0, -30))
	if err != nil {
		slog.Error("failed to count recent messages", slog.String("instanceID", claims.InstanceID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count recent messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"client":             client,
		"messagesLast30Days": recentCount,
	})
}

type UpdateConsentReq struct {
	Purpose string `json:"purpose"`
	Granted bool   `json:"granted"`
	Source  string `json:"source"`
}

func (h *HttpEndpoints) updateConsent(c *gin.Context) {
	claims := getLicenceClaims(c)

	var req UpdateConsentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Purpose != types.PURPOSE_SERVICE_SMS && req.Purpose != types.PURPOSE_MARKETING_SMS {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid purpose"})
		return
	}

	client, err := h.crmDBService.GetClientByPhone(claims.InstanceID, c.Param("phone"))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "client not found"})
			return
		}
		if errors.Is(err, crmDB.ErrInvalidPhoneNumber) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid phone number"})
			return
		}
		slog.Error("failed to fetch client", slog.String("instanceID", claims.InstanceID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch client"})
		return
	}

	now := time.Now()
	if req.Granted {
		consent.RecordOptIn(&client, req.Purpose, req.Source, now)
	} else {
		consent.RecordOptOut(&client, req.Purpose, now)
	}

	saved, err := h.crmDBService.SaveClient(claims.InstanceID, client)
	if err != nil {
		slog.Error("failed to save consent change", slog.String("instanceID", claims.InstanceID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save consent change"})
		return
	}

	slog.Info("consent updated", slog.String("instanceID", claims.InstanceID), slog.String("purpose", req.Purpose), slog.Bool("granted", req.Granted))
	c.JSON(http.StatusOK, gin.H{"client": saved})
}

func (h *HttpEndpoints) deleteClient(c *gin.Context) {
	claims := getLicenceClaims(c)

	if err := h.crmDBService.DeleteClient(claims.InstanceID, c.Param("phone")); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "client not found"})
			return
		}
		if errors.Is(err, crmDB.ErrInvalidPhoneNumber) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid phone number"})
			return
		}
		slog.Error("failed to delete client", slog.String("instanceID", claims.InstanceID), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete client"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "client deleted"})
}
