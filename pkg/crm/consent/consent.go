package consent

import (
	"strings"
	"time"

	"github.com/ronanlefevre01/opticom-sub000/pkg/crm/types"
)

// IsEligible reports whether a client may receive a message for the given
// purpose. A client without a phone number is never eligible, whatever the
// stored consent says. The predicate is evaluated per batch and must not be
// cached across batches: consent can change between sessions.
func IsEligible(client types.Client, purpose string) bool {
	if strings.TrimSpace(client.Telephone) == "" {
		return false
	}
	record := client.ConsentFor(purpose)
	if record == nil {
		return false
	}
	return record.Value
}

// RecordOptIn marks the consent for the given purpose as granted, collected
// now from the given source. An existing collection timestamp is kept.
func RecordOptIn(client *types.Client, purpose string, source string, now time.Time) {
	record := client.ConsentFor(purpose)
	if record == nil {
		return
	}
	record.Value = true
	record.Source = source
	record.UnsubscribedAt = nil
	if record.CollectedAt == nil {
		record.CollectedAt = &now
	}
}

// RecordOptOut withdraws the consent for the given purpose.
func RecordOptOut(client *types.Client, purpose string, now time.Time) {
	record := client.ConsentFor(purpose)
	if record == nil {
		return
	}
	if record.Value {
		record.UnsubscribedAt = &now
	}
	record.Value = false
}
