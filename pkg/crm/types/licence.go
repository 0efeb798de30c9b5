package types

import "time"

// Licence is the shop's subscription identity: it authorizes sends at the
// gateway and carries the sender label and signature appended to outgoing
// messages.
type Licence struct {
	ID                string     `bson:"licenceId" json:"licenceId"`
	Cle               string     `bson:"cle,omitempty" json:"cle,omitempty"`
	Signature         string     `bson:"signature,omitempty" json:"signature,omitempty"`
	LibelleExpediteur string     `bson:"libelleExpediteur,omitempty" json:"libelleExpediteur,omitempty"`
	CGVAcceptedAt     *time.Time `bson:"cgvAcceptedAt,omitempty" json:"cgvAcceptedAt,omitempty"`
	CGVVersion        string     `bson:"cgvVersion,omitempty" json:"cgvVersion,omitempty"`
}

func (l *Licence) HasAcceptedTerms() bool {
	return l.CGVAcceptedAt != nil
}
