package crm

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ronanlefevre01/opticom-sub000/pkg/crm/types"
	"github.com/ronanlefevre01/opticom-sub000/pkg/utils"
)

var ErrInvalidPhoneNumber = errors.New("invalid phone number")

// GetClients reads the full roster of an instance.
func (dbService *CRMDBService) GetClients(instanceID string) ([]types.Client, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	cursor, err := dbService.collectionClients(instanceID).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}

	var clients []types.Client
	if err = cursor.All(ctx, &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

// GetClientsPaginated reads one page of the roster, sorted by name.
func (dbService *CRMDBService) GetClientsPaginated(instanceID string, page int64, limit int64) ([]types.Client, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "nom", Value: 1}, {Key: "prenom", Value: 1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := dbService.collectionClients(instanceID).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}

	var clients []types.Client
	if err = cursor.All(ctx, &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

func (dbService *CRMDBService) GetClientByPhone(instanceID string, phone string) (types.Client, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	normalized, ok := utils.NormalizePhoneNumber(phone)
	if !ok {
		return types.Client{}, ErrInvalidPhoneNumber
	}

	var client types.Client
	err := dbService.collectionClients(instanceID).FindOne(ctx, bson.M{"telephone": normalized}).Decode(&client)
	return client, err
}

// SaveClient upserts a client, keyed by its normalized phone number: saving a
// client with an already known phone replaces the previous record. Consent
// timestamps are normalized against the previous record so collectedAt is
// only ever set when consent is granted at write time.
func (dbService *CRMDBService) SaveClient(instanceID string, client types.Client) (types.Client, error) {
	normalized, ok := utils.NormalizePhoneNumber(client.Telephone)
	if !ok {
		return client, ErrInvalidPhoneNumber
	}
	client.Telephone = normalized
	if client.CreatedAt.IsZero() {
		client.CreatedAt = time.Now()
	}

	now := time.Now()
	previous, err := dbService.GetClientByPhone(instanceID, normalized)
	if err == nil {
		client.ID = previous.ID
		if client.CreatedAt.After(previous.CreatedAt) {
			client.CreatedAt = previous.CreatedAt
		}
		normalizeConsentOnWrite(&previous.Consent.ServiceSMS, &client.Consent.ServiceSMS, now)
		normalizeConsentOnWrite(&previous.Consent.MarketingSMS, &client.Consent.MarketingSMS, now)
	} else {
		normalizeConsentOnWrite(nil, &client.Consent.ServiceSMS, now)
		normalizeConsentOnWrite(nil, &client.Consent.MarketingSMS, now)
	}

	ctx, cancel := dbService.getContext()
	defer cancel()

	opts := options.Replace().SetUpsert(true)
	_, err = dbService.collectionClients(instanceID).ReplaceOne(ctx, bson.M{"telephone": normalized}, client, opts)
	return client, err
}

// SaveClients writes a batch of clients in one go (upsert per phone key).
// Used by the dispatcher for its single end-of-batch roster write.
func (dbService *CRMDBService) SaveClients(instanceID string, clients []types.Client) error {
	if len(clients) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(clients))
	for _, client := range clients {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"telephone": client.Telephone}).
			SetReplacement(client).
			SetUpsert(true))
	}

	ctx, cancel := dbService.getContext()
	defer cancel()

	_, err := dbService.collectionClients(instanceID).BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	return err
}

func (dbService *CRMDBService) DeleteClient(instanceID string, phone string) error {
	normalized, ok := utils.NormalizePhoneNumber(phone)
	if !ok {
		return ErrInvalidPhoneNumber
	}

	ctx, cancel := dbService.getContext()
	defer cancel()

	res, err := dbService.collectionClients(instanceID).DeleteOne(ctx, bson.M{"telephone": normalized})
	if err != nil {
		return err
	}
	if res.DeletedCount < 1 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (dbService *CRMDBService) CountClients(instanceID string) (int64, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	return dbService.collectionClients(instanceID).CountDocuments(ctx, bson.M{})
}

// normalizeConsentOnWrite enforces the consent invariants: collectedAt is
// stamped only when the value is true at write time (kept from the previous
// record when it was already true), and never backfilled; withdrawing an
// active consent stamps unsubscribedAt.
func normalizeConsentOnWrite(previous *types.ConsentRecord, next *types.ConsentRecord, now time.Time) {
	if next.Value {
		if next.CollectedAt == nil {
			if previous != nil && previous.Value && previous.CollectedAt != nil {
				next.CollectedAt = previous.CollectedAt
			} else {
				next.CollectedAt = &now
			}
		}
		next.UnsubscribedAt = nil
		return
	}

	// value false: never stamp a collection time
	if next.CollectedAt == nil && previous != nil {
		next.CollectedAt = previous.CollectedAt
	}
	if previous != nil && previous.Value && next.UnsubscribedAt == nil {
		next.UnsubscribedAt = &now
	}
}
