package types

import "time"

// UsageEntry tracks credit usage for one calendar month. Period is a
// structured "YYYY-MM" key; Label is the display form (French month name).
type UsageEntry struct {
	Period  string `bson:"period" json:"period"`
	Label   string `bson:"label" json:"label"`
	Envoyes int    `bson:"envoyes" json:"envoyes"`
	Achetes int    `bson:"achetes" json:"achetes"`
}

// CreditLedger is the local mirror of the shop's SMS credit balance. The
// gateway's ledger stays authoritative; this copy is reconciled from it after
// each dispatch.
type CreditLedger struct {
	CreditsRestants int          `bson:"creditsRestants" json:"creditsRestants"`
	Renouvellement  time.Time    `bson:"renouvellement" json:"renouvellement"`
	Historique      []UsageEntry `bson:"historique,omitempty" json:"historique,omitempty"`
}
