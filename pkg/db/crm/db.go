package crm

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ronanlefevre01/opticom-sub000/pkg/db"
)

// collection names
const (
	COLLECTION_NAME_CLIENTS           = "clients"
	COLLECTION_NAME_MESSAGE_TEMPLATES = "message-templates"
	COLLECTION_NAME_SUBSCRIPTION      = "subscription"
	COLLECTION_NAME_LICENCE           = "licence"
	COLLECTION_NAME_SENT_MESSAGES     = "sent-messages"
)

type CRMDBService struct {
	DBClient     *mongo.Client
	timeout      int
	DBNamePrefix string
	InstanceIDs  []string
}

func NewCRMDBService(configs db.DBConfig) (*CRMDBService, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(configs.Timeout)*time.Second)
	defer cancel()

	dbClient, err := mongo.Connect(ctx,
		options.Client().ApplyURI(configs.URI),
		options.Client().SetMaxConnIdleTime(time.Duration(configs.IdleConnTimeout)*time.Second),
		options.Client().SetMaxPoolSize(configs.MaxPoolSize),
	)
	if err != nil {
		return nil, err
	}

	ctx, conCancel := context.WithTimeout(context.Background(), time.Duration(configs.Timeout)*time.Second)
	err = dbClient.Ping(ctx, nil)
	defer conCancel()
	if err != nil {
		return nil, err
	}

	crmDBSc := &CRMDBService{
		DBClient:     dbClient,
		timeout:      configs.Timeout,
		DBNamePrefix: configs.DBNamePrefix,
		InstanceIDs:  configs.InstanceIDs,
	}

	if configs.RunIndexCreation {
		if err := crmDBSc.ensureIndexes(); err != nil {
			slog.Error("Error ensuring indexes for CRM DB: ", slog.String("error", err.Error()))
		}
	}

	return crmDBSc, nil
}

func (dbService *CRMDBService) getDBName(instanceID string) string {
	return dbService.DBNamePrefix + instanceID + "_crmDB"
}

func (dbService *CRMDBService) collectionClients(instanceID string) *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName(instanceID)).Collection(COLLECTION_NAME_CLIENTS)
}

func (dbService *CRMDBService) collectionMessageTemplates(instanceID string) *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName(instanceID)).Collection(COLLECTION_NAME_MESSAGE_TEMPLATES)
}

func (dbService *CRMDBService) collectionSubscription(instanceID string) *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName(instanceID)).Collection(COLLECTION_NAME_SUBSCRIPTION)
}

func (dbService *CRMDBService) collectionLicence(instanceID string) *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName(instanceID)).Collection(COLLECTION_NAME_LICENCE)
}

func (dbService *CRMDBService) collectionSentMessages(instanceID string) *mongo.Collection {
	return dbService.DBClient.Database(dbService.getDBName(instanceID)).Collection(COLLECTION_NAME_SENT_MESSAGES)
}

func (dbService *CRMDBService) getContext() (ctx context.Context, cancel context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(dbService.timeout)*time.Second)
}

func (dbService *CRMDBService) ensureIndexes() error {
	slog.Debug("Ensuring indexes for CRM DB")
	for _, instanceID := range dbService.InstanceIDs {
		ctx, cancel := dbService.getContext()
		defer cancel()

		// Clients: the phone number is the de-duplication key
		_, err := dbService.collectionClients(instanceID).Indexes().CreateOne(
			ctx,
			mongo.IndexModel{
				Keys:    bson.D{{Key: "telephone", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		)
		if err != nil {
			slog.Error("Error creating index for clients: ", slog.String("instanceID", instanceID), slog.String("error", err.Error()))
		}

		// Message templates: one per category
		_, err = dbService.collectionMessageTemplates(instanceID).Indexes().CreateOne(
			ctx,
			mongo.IndexModel{
				Keys:    bson.D{{Key: "category", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		)
		if err != nil {
			slog.Error("Error creating index for message templates: ", slog.String("instanceID", instanceID), slog.String("error", err.Error()))
		}

		// Sent messages
		_, err = dbService.collectionSentMessages(instanceID).Indexes().CreateMany(
			ctx, []mongo.IndexModel{
				{
					Keys: bson.D{
						{Key: "phoneNumber", Value: 1},
						{Key: "sentAt", Value: 1},
						{Key: "messageType", Value: 1},
					},
				},
				{
					Keys: bson.D{{Key: "campaignId", Value: 1}},
				},
			},
		)
		if err != nil {
			slog.Error("Error creating index for sent messages: ", slog.String("instanceID", instanceID), slog.String("error", err.Error()))
		}
	}

	return nil
}
