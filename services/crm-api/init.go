package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/ronanlefevre01/opticom-sub000/pkg/apihelpers"
	"github.com/ronanlefevre01/opticom-sub000/pkg/crm/types"
	"github.com/ronanlefevre01/opticom-sub000/pkg/db"
	"github.com/ronanlefevre01/opticom-sub000/pkg/utils"

	crmDB "github.com/ronanlefevre01/opticom-sub000/pkg/db/crm"
)

// Environment variables
const (
	ENV_CONFIG_FILE_PATH = "CONFIG_FILE_PATH"

	// Variables to override "secrets" in the config file
	ENV_CRM_DB_USERNAME          = "CRM_DB_USERNAME"
	ENV_CRM_DB_PASSWORD          = "CRM_DB_PASSWORD"
	ENV_SMS_GATEWAY_API_KEY      = "SMS_GATEWAY_API_KEY"
	ENV_LICENCE_JWT_SIGN_KEY     = "LICENCE_JWT_SIGN_KEY"
	ENV_LICENCE_JWT_EXPIRES_IN   = "LICENCE_JWT_EXPIRES_IN"
	ENV_PURCHASE_WEBHOOK_API_KEY = "PURCHASE_WEBHOOK_API_KEY"
)

type CRMApiConfig struct {
	// Logging configs
	Logging utils.LoggerConfig `json:"logging" yaml:"logging"`

	// Gin configs
	GinConfig struct {
		DebugMode    bool     `json:"debug_mode" yaml:"debug_mode"`
		AllowOrigins []string `json:"allow_origins" yaml:"allow_origins"`
		Port         string   `json:"port" yaml:"port"`

		// Mutual TLS configs
		MTLS struct {
			Use              bool                        `json:"use" yaml:"use"`
			CertificatePaths apihelpers.CertificatePaths `json:"certificate_paths" yaml:"certificate_paths"`
		} `json:"mtls" yaml:"mtls"`
	} `json:"gin_config" yaml:"gin_config"`

	AllowedInstanceIDs []string `json:"allowed_instance_ids" yaml:"allowed_instance_ids"`

	// API keys accepted on the purchase confirmation webhook
	ApiKeys []string `json:"api_keys" yaml:"api_keys"`

	LicenceJWTConfig struct {
		SignKey   string        `json:"sign_key" yaml:"sign_key"`
		ExpiresIn time.Duration `json:"expires_in" yaml:"expires_in"`
	} `json:"licence_jwt_config" yaml:"licence_jwt_config"`

	// DB configs
	DBConfigs struct {
		CRMDB db.DBConfigYaml `json:"crm_db" yaml:"crm_db"`
	} `json:"db_configs" yaml:"db_configs"`

	CRMConfigs types.CRMConfigs `json:"crm_configs" yaml:"crm_configs"`
}

var (
	conf CRMApiConfig

	crmDBService *crmDB.CRMDBService

	// per-instance gateway key rotations, from the environment
	gatewayKeyOverrides map[string]string
)

func init() {
	// Load .env when present, before any env read
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded environment from .env file")
	}

	// Read config from file
	yamlFile, err := os.ReadFile(os.Getenv(ENV_CONFIG_FILE_PATH))
	if err != nil {
		panic(err)
	}

	err = yaml.UnmarshalStrict(yamlFile, &conf)
	if err != nil {
		panic(err)
	}

	// Init logger:
	utils.InitLogger(conf.Logging)

	// Override secrets from environment variables
	secretsOverride()

	if !conf.GinConfig.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// init db
	initDBs()
}

func secretsOverride() {
	if dbUsername := os.Getenv(ENV_CRM_DB_USERNAME); dbUsername != "" {
		conf.DBConfigs.CRMDB.Username = dbUsername
	}

	if dbPassword := os.Getenv(ENV_CRM_DB_PASSWORD); dbPassword != "" {
		conf.DBConfigs.CRMDB.Password = dbPassword
	}

	if apiKey := os.Getenv(ENV_SMS_GATEWAY_API_KEY); apiKey != "" {
		conf.CRMConfigs.SMSGatewayConfig.APIKey = apiKey
	}

	if signKey := os.Getenv(ENV_LICENCE_JWT_SIGN_KEY); signKey != "" {
		conf.LicenceJWTConfig.SignKey = signKey
	}

	if expInVal := os.Getenv(ENV_LICENCE_JWT_EXPIRES_IN); expInVal != "" {
		expiresIn, err := utils.ParseDurationString(expInVal)
		if err != nil {
			slog.Error("error during secretsOverride", slog.String("error", err.Error()), ENV_LICENCE_JWT_EXPIRES_IN, expInVal)
			panic(err)
		}
		conf.LicenceJWTConfig.ExpiresIn = expiresIn
	}

	if webhookKey := os.Getenv(ENV_PURCHASE_WEBHOOK_API_KEY); webhookKey != "" {
		conf.ApiKeys = append(conf.ApiKeys, webhookKey)
	}

	gatewayKeyOverrides = map[string]string{}
	for _, instanceID := range conf.AllowedInstanceIDs {
		if key := os.Getenv(utils.GenerateGatewayKeyEnvVarName(instanceID)); key != "" {
			gatewayKeyOverrides[instanceID] = key
		}
	}
}

func initDBs() {
	var err error
	crmDBService, err = crmDB.NewCRMDBService(db.DBConfigFromYamlObj(conf.DBConfigs.CRMDB, conf.AllowedInstanceIDs))
	if err != nil {
		slog.Error("Error connecting to CRM DB", slog.String("error", err.Error()))
		panic(err)
	}
}
