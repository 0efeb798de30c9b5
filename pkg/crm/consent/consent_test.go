package consent

import (
	"testing"
	"time"

	"github.com/ronanlefevre01/opticom-sub000/pkg/crm/types"
)

func clientWithConsent(phone string, service bool, marketing bool) types.Client {
	return types.Client{
		Telephone: phone,
		Consent: types.ClientConsent{
			ServiceSMS:   types.ConsentRecord{Value: service},
			MarketingSMS: types.ConsentRecord{Value: marketing},
		},
	}
}

func TestIsEligible(t *testing.T) {
	tests := []struct {
		name     string
		client   types.Client
		purpose  string
		expected bool
	}{
		{"service consent granted", clientWithConsent("0601020304", true, false), types.PURPOSE_SERVICE_SMS, true},
		{"service consent missing", clientWithConsent("0601020304", false, true), types.PURPOSE_SERVICE_SMS, false},
		{"marketing consent granted", clientWithConsent("0601020304", false, true), types.PURPOSE_MARKETING_SMS, true},
		{"marketing consent missing", clientWithConsent("0601020304", true, false), types.PURPOSE_MARKETING_SMS, false},
		{"no phone never eligible", clientWithConsent("", true, true), types.PURPOSE_SERVICE_SMS, false},
		{"blank phone never eligible", clientWithConsent("   ", true, true), types.PURPOSE_MARKETING_SMS, false},
		{"unknown purpose", clientWithConsent("0601020304", true, true), "newsletter", false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := IsEligible(test.client, test.purpose); got != test.expected {
				t.Errorf("expected %v, got %v", test.expected, got)
			}
		})
	}
}

func TestRecordOptInAndOut(t *testing.T) {
	now := time.Now()
	client := clientWithConsent("0601020304", false, false)

	RecordOptIn(&client, types.PURPOSE_MARKETING_SMS, "formulaire magasin", now)
	record := client.Consent.MarketingSMS
	if !record.Value {
		t.Error("expected marketing consent to be granted")
	}
	if record.CollectedAt == nil || !record.CollectedAt.Equal(now) {
		t.Errorf("expected collectedAt to be set to %v, got %v", now, record.CollectedAt)
	}
	if record.Source != "formulaire magasin" {
		t.Errorf("unexpected source: %q", record.Source)
	}

	// collection timestamp must survive a repeated opt-in
	later := now.Add(24 * time.Hour)
	RecordOptIn(&client, types.PURPOSE_MARKETING_SMS, "relance", later)
	if !client.Consent.MarketingSMS.CollectedAt.Equal(now) {
		t.Error("collectedAt must not be overwritten on repeated opt-in")
	}

	RecordOptOut(&client, types.PURPOSE_MARKETING_SMS, later)
	record = client.Consent.MarketingSMS
	if record.Value {
		t.Error("expected marketing consent to be withdrawn")
	}
	if record.UnsubscribedAt == nil || !record.UnsubscribedAt.Equal(later) {
		t.Errorf("expected unsubscribedAt to be %v, got %v", later, record.UnsubscribedAt)
	}
}
