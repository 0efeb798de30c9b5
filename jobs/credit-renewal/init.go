package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/ronanlefevre01/opticom-sub000/pkg/crm/types"
	"github.com/ronanlefevre01/opticom-sub000/pkg/db"
	"github.com/ronanlefevre01/opticom-sub000/pkg/utils"

	crmDB "github.com/ronanlefevre01/opticom-sub000/pkg/db/crm"
)

// Environment variables
const (
	ENV_CONFIG_FILE_PATH = "CONFIG_FILE_PATH"

	// Variables to override "secrets" in the config file
	ENV_CRM_DB_USERNAME = "CRM_DB_USERNAME"
	ENV_CRM_DB_PASSWORD = "CRM_DB_PASSWORD"
)

type config struct {
	// Logging configs
	Logging utils.LoggerConfig `json:"logging" yaml:"logging"`

	// DB configs
	DBConfigs struct {
		CRMDB db.DBConfigYaml `json:"crm_db" yaml:"crm_db"`
	} `json:"db_configs" yaml:"db_configs"`

	InstanceIDs []string `json:"instance_ids" yaml:"instance_ids"`

	CRMConfigs types.CRMConfigs `json:"crm_configs" yaml:"crm_configs"`
}

var conf config

var (
	crmDBService *crmDB.CRMDBService
)

func init() {
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
}

func initDBs() {
	var err error
	crmDBService, err = crmDB.NewCRMDBService(db.DBConfigFromYamlObj(conf.DBConfigs.CRMDB, conf.InstanceIDs))
	if err != nil {
		slog.Error("Error connecting to CRM DB", slog.String("error", err.Error()))
		panic(err)
	}
}
