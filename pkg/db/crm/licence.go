package crm

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ronanlefevre01/opticom-sub000/pkg/crm/types"
)

const licenceDocID = "current"

type licenceDoc struct {
	ID      string        `bson:"_id"`
	Licence types.Licence `bson:"licence"`
}

// GetLicence returns the instance's licence, or nil when none is configured.
func (dbService *CRMDBService) GetLicence(instanceID string) (*types.Licence, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	var doc licenceDoc
	err := dbService.collectionLicence(instanceID).FindOne(ctx, bson.M{"_id": licenceDocID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &doc.Licence, nil
}

func (dbService *CRMDBService) SaveLicence(instanceID string, licence types.Licence) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	doc := licenceDoc{ID: licenceDocID, Licence: licence}
	opts := options.Replace().SetUpsert(true)
	_, err := dbService.collectionLicence(instanceID).ReplaceOne(ctx, bson.M{"_id": licenceDocID}, doc, opts)
	return err
}

// AcceptTerms records the CGV acceptance for the instance's licence.
func (dbService *CRMDBService) AcceptTerms(instanceID string, version string, acceptedAt time.Time) (*types.Licence, error) {
	licence, err := dbService.GetLicence(instanceID)
	if err != nil {
		return nil, err
	}
	if licence == nil {
		return nil, errors.New("no licence configured for instance")
	}

	licence.CGVAcceptedAt = &acceptedAt
	licence.CGVVersion = version
	if err := dbService.SaveLicence(instanceID, *licence); err != nil {
		return nil, err
	}
	return licence, nil
}
