package crm

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ronanlefevre01/opticom-sub000/pkg/crm/types"
)

func (dbService *CRMDBService) AddSentMessage(instanceID string, msg types.SentMessage) (types.SentMessage, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	res, err := dbService.collectionSentMessages(instanceID).InsertOne(ctx, msg)
	if err != nil {
		return msg, err
	}
	msg.ID = res.InsertedID.(primitive.ObjectID)
	return msg, nil
}

func (dbService *CRMDBService) CountSentMessagesForPhone(instanceID string, phone string, messageType string, sentAfter time.Time) (int64, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{
		"phoneNumber": phone,
		"sentAt":      bson.M{"$gt": sentAfter},
	}
	if messageType != "" {
		filter["messageType"] = messageType
	}

	return dbService.collectionSentMessages(instanceID).CountDocuments(ctx, filter)
}

func (dbService *CRMDBService) GetSentMessagesForCampaign(instanceID string, campaignID string) ([]types.SentMessage, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	cursor, err := dbService.collectionSentMessages(instanceID).Find(ctx, bson.M{"campaignId": campaignID})
	if err != nil {
		return nil, err
	}

	var messages []types.SentMessage
	if err = cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}
