package crm

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ronanlefevre01/opticom-sub000/pkg/crm/types"
)

// The subscription collection holds a single ledger document per instance.
const subscriptionDocID = "current"

type subscriptionDoc struct {
	ID     string             `bson:"_id"`
	Ledger types.CreditLedger `bson:"ledger"`
}

// GetSubscription returns the instance's credit ledger mirror, or nil when no
// subscription exists yet. Callers treat a nil ledger as "every credit
// operation is a no-op".
func (dbService *CRMDBService) GetSubscription(instanceID string) (*types.CreditLedger, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	var doc subscriptionDoc
	err := dbService.collectionSubscription(instanceID).FindOne(ctx, bson.M{"_id": subscriptionDocID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &doc.Ledger, nil
}

func (dbService *CRMDBService) SaveSubscription(instanceID string, ledger types.CreditLedger) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	doc := subscriptionDoc{ID: subscriptionDocID, Ledger: ledger}
	opts := options.Replace().SetUpsert(true)
	_, err := dbService.collectionSubscription(instanceID).ReplaceOne(ctx, bson.M{"_id": subscriptionDocID}, doc, opts)
	return err
}
