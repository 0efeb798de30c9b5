package apihandlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	jwthandling "github.com/ronanlefevre01/opticom-sub000/pkg/jwt-handling"
	"github.com/ronanlefevre01/opticom-sub000/pkg/smsgateway"

	crmDB "github.com/ronanlefevre01/opticom-sub000/pkg/db/crm"
)

func HealthCheckHandle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type HttpEndpoints struct {
	crmDBService        *crmDB.CRMDBService
	gateway             *smsgateway.Client
	tokenSignKey        string
	tokenExpiresIn      time.Duration
	allowedInstanceIDs  []string
	apiKeys             []string
	monthlyAllotment    int
	gatewayKeyOverrides map[string]string
}

func NewHTTPHandler(
	crmDBService *crmDB.CRMDBService,
	gateway *smsgateway.Client,
	tokenSignKey string,
	tokenExpiresIn time.Duration,
	allowedInstanceIDs []string,
	apiKeys []string,
	monthlyAllotment int,
	gatewayKeyOverrides map[string]string,
) *HttpEndpoints {
	return &HttpEndpoints{
		crmDBService:        crmDBService,
		gateway:             gateway,
		tokenSignKey:        tokenSignKey,
		tokenExpiresIn:      tokenExpiresIn,
		allowedInstanceIDs:  allowedInstanceIDs,
		apiKeys:             apiKeys,
		monthlyAllotment:    monthlyAllotment,
		gatewayKeyOverrides: gatewayKeyOverrides,
	}
}

func getLicenceClaims(c *gin.Context) *jwthandling.LicenceClaims {
	return c.MustGet("validatedToken").(*jwthandling.LicenceClaims)
}
