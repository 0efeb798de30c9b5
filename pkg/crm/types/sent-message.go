package types

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SentMessage is one confirmed delivery attempt, kept in the per-instance
// sent-messages log.
type SentMessage struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CampaignID  string             `bson:"campaignId,omitempty" json:"campaignId,omitempty"`
	PhoneNumber string             `bson:"phoneNumber" json:"phoneNumber"`
	MessageType string             `bson:"messageType" json:"messageType"`
	Purpose     string             `bson:"purpose" json:"purpose"`
	SentAt      time.Time          `bson:"sentAt" json:"sentAt"`
}
