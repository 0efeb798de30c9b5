package types

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message purposes, deciding which consent record gates a send.
const (
	PURPOSE_SERVICE_SMS   = "service"
	PURPOSE_MARKETING_SMS = "marketing"
)

// Lens renewal intervals selectable per client.
const (
	LENS_RENEWAL_30_DAYS = "30j"
	LENS_RENEWAL_60_DAYS = "60j"
	LENS_RENEWAL_90_DAYS = "90j"
	LENS_RENEWAL_6_MONTH = "6mois"
	LENS_RENEWAL_1_YEAR  = "1an"
)

// ConsentRecord stores the proof of a client's opt-in for one message
// category. CollectedAt is only set when the value flips to true at write
// time; it is never backfilled.
type ConsentRecord struct {
	Value          bool       `bson:"value" json:"value"`
	CollectedAt    *time.Time `bson:"collectedAt,omitempty" json:"collectedAt,omitempty"`
	Source         string     `bson:"source,omitempty" json:"source,omitempty"`
	Proof          string     `bson:"proof,omitempty" json:"proof,omitempty"`
	UnsubscribedAt *time.Time `bson:"unsubscribedAt,omitempty" json:"unsubscribedAt"`
}

type ClientConsent struct {
	ServiceSMS   ConsentRecord `bson:"serviceSms" json:"service_sms"`
	MarketingSMS ConsentRecord `bson:"marketingSms" json:"marketing_sms"`
}

type MessageLogEntry struct {
	Type string    `bson:"type" json:"type"`
	Date time.Time `bson:"date" json:"date"`
}

// Client is one entry of the shop's roster. Telephone is the de-duplication
// key: saves replace the record with the same normalized phone number.
type Client struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	Nom           string `bson:"nom" json:"nom"`
	Prenom        string `bson:"prenom" json:"prenom"`
	Telephone     string `bson:"telephone" json:"telephone"` // 10 digit national format
	Email         string `bson:"email,omitempty" json:"email,omitempty"`
	DateNaissance string `bson:"dateNaissance,omitempty" json:"dateNaissance,omitempty"`

	Lunettes  bool     `bson:"lunettes" json:"lunettes"`
	Lentilles []string `bson:"lentilles,omitempty" json:"lentilles,omitempty"`

	Consent ClientConsent `bson:"consent" json:"consent"`

	MessagesEnvoyes []MessageLogEntry `bson:"messagesEnvoyes,omitempty" json:"messagesEnvoyes,omitempty"`
	PremierMessage  *time.Time        `bson:"premierMessage,omitempty" json:"premierMessage,omitempty"`
	CreatedAt       time.Time         `bson:"createdAt" json:"createdAt"`
}

func (c *Client) ConsentFor(purpose string) *ConsentRecord {
	switch purpose {
	case PURPOSE_SERVICE_SMS:
		return &c.Consent.ServiceSMS
	case PURPOSE_MARKETING_SMS:
		return &c.Consent.MarketingSMS
	}
	return nil
}

// LogSentMessage appends a history entry and sets the first-message marker
// when absent.
func (c *Client) LogSentMessage(messageType string, at time.Time) {
	c.MessagesEnvoyes = append(c.MessagesEnvoyes, MessageLogEntry{
		Type: messageType,
		Date: at,
	})
	if c.PremierMessage == nil {
		c.PremierMessage = &at
	}
}
