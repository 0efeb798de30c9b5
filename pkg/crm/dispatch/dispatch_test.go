package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ronanlefevre01/opticom-sub000/pkg/crm/types"
	"github.com/ronanlefevre01/opticom-sub000/pkg/smsgateway"
)

type fakeStore struct {
	clients      []types.Client
	savedClients [][]types.Client
	licence      *types.Licence
	ledger       *types.CreditLedger
	savedLedgers []types.CreditLedger
	sentLog      []types.SentMessage
}

func (s *fakeStore) GetClients(instanceID string) ([]types.Client, error) {
	out := make([]types.Client, len(s.clients))
	copy(out, s.clients)
	return out, nil
}

func (s *fakeStore) SaveClients(instanceID string, clients []types.Client) error {
	s.clients = clients
	s.savedClients = append(s.savedClients, clients)
	return nil
}

func (s *fakeStore) GetLicence(instanceID string) (*types.Licence, error) {
	return s.licence, nil
}

func (s *fakeStore) GetSubscription(instanceID string) (*types.CreditLedger, error) {
	return s.ledger, nil
}

func (s *fakeStore) SaveSubscription(instanceID string, ledger types.CreditLedger) error {
	s.ledger = &ledger
	s.savedLedgers = append(s.savedLedgers, ledger)
	return nil
}

func (s *fakeStore) AddSentMessage(instanceID string, msg types.SentMessage) (types.SentMessage, error) {
	s.sentLog = append(s.sentLog, msg)
	return msg, nil
}

type fakeGateway struct {
	credits      int
	creditsKnown bool
	creditsErr   error
	sendCalls    []smsgateway.SendRequest
	failFor      map[string]error
}

func (g *fakeGateway) SendSMS(req smsgateway.SendRequest) error {
	g.sendCalls = append(g.sendCalls, req)
	if err, ok := g.failFor[req.PhoneNumber]; ok {
		return err
	}
	return nil
}

func (g *fakeGateway) GetRemainingCredits(licenceID string) (int, bool, error) {
	if g.creditsErr != nil {
		return 0, false, g.creditsErr
	}
	return g.credits, g.creditsKnown, nil
}

func serviceClient(phone string, consentGiven bool) types.Client {
	return types.Client{
		Prenom:    "Client",
		Nom:       phone,
		Telephone: phone,
		Consent: types.ClientConsent{
			ServiceSMS: types.ConsentRecord{Value: consentGiven},
		},
	}
}

func newTestDispatcher(store *fakeStore, gateway *fakeGateway) *Dispatcher {
	return &Dispatcher{
		Store:       store,
		Gateway:     gateway,
		PacingDelay: time.Millisecond,
	}
}

func testLicence() *types.Licence {
	return &types.Licence{ID: "lic-1", Signature: "Vision Plus", LibelleExpediteur: "VISIONPLUS"}
}

func TestDispatchConsentFiltering(t *testing.T) {
	store := &fakeStore{
		licence: testLicence(),
		clients: []types.Client{
			serviceClient("0601020301", true),
			serviceClient("0601020302", false),
			serviceClient("0601020303", true),
			serviceClient("0601020304", false),
			serviceClient("0601020305", true),
		},
	}
	gateway := &fakeGateway{credits: 100, creditsKnown: true}

	summary, err := newTestDispatcher(store, gateway).Dispatch(context.Background(), Batch{
		InstanceID:      "shop1",
		RecipientPhones: []string{"0601020301", "0601020302", "0601020303", "0601020304", "0601020305"},
		TemplateContent: "Bonjour {prenom}, vos lunettes sont prêtes.",
		MessageType:     types.TEMPLATE_CATEGORY_LUNETTES,
		Purpose:         types.PURPOSE_SERVICE_SMS,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.SkippedConsent != 2 {
		t.Errorf("expected skippedConsent=2, got %d", summary.SkippedConsent)
	}
	if summary.Sent != 3 {
		t.Errorf("expected sent=3, got %d", summary.Sent)
	}
	if len(gateway.sendCalls) > 3 {
		t.Errorf("expected at most 3 send calls, got %d", len(gateway.sendCalls))
	}
}

func TestDispatchPartialFailure(t *testing.T) {
	store := &fakeStore{
		licence: testLicence(),
		ledger:  &types.CreditLedger{CreditsRestants: 50},
		clients: []types.Client{
			serviceClient("0601020301", true),
			serviceClient("0601020302", true),
			serviceClient("0601020303", true),
		},
	}
	gateway := &fakeGateway{
		credits:      50,
		creditsKnown: true,
		failFor:      map[string]error{"0601020302": errors.New("gateway unavailable")},
	}

	summary, err := newTestDispatcher(store, gateway).Dispatch(context.Background(), Batch{
		InstanceID:      "shop1",
		RecipientPhones: []string{"0601020301", "0601020302", "0601020303"},
		TemplateContent: "Bonjour {prenom} !",
		MessageType:     types.TEMPLATE_CATEGORY_SAV,
		Purpose:         types.PURPOSE_SERVICE_SMS,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Sent != 2 || summary.Failed != 1 {
		t.Errorf("expected sent=2 failed=1, got sent=%d failed=%d", summary.Sent, summary.Failed)
	}

	var historyEntries int
	for _, client := range store.clients {
		historyEntries += len(client.MessagesEnvoyes)
		if len(client.MessagesEnvoyes) > 0 && client.PremierMessage == nil {
			t.Errorf("premierMessage not set for %s", client.Telephone)
		}
	}
	if historyEntries != 2 {
		t.Errorf("expected exactly 2 history entries, got %d", historyEntries)
	}
	if len(store.sentLog) != 2 {
		t.Errorf("expected 2 sent-message log entries, got %d", len(store.sentLog))
	}

	// debit keyed off confirmed successes, not the batch size
	if store.ledger.CreditsRestants != 48 {
		t.Errorf("expected 48 credits remaining, got %d", store.ledger.CreditsRestants)
	}
}

func TestDispatchInsufficientCreditsAbort(t *testing.T) {
	var clients []types.Client
	var phones []string
	for _, suffix := range []string{"01", "02", "03", "04", "05", "06", "07", "08", "09", "10"} {
		phone := "06010203" + suffix
		clients = append(clients, serviceClient(phone, true))
		phones = append(phones, phone)
	}
	store := &fakeStore{
		licence: testLicence(),
		ledger:  &types.CreditLedger{CreditsRestants: 5},
		clients: clients,
	}
	gateway := &fakeGateway{credits: 5, creditsKnown: true}

	_, err := newTestDispatcher(store, gateway).Dispatch(context.Background(), Batch{
		InstanceID:      "shop1",
		RecipientPhones: phones,
		TemplateContent: "Bonjour {prenom} !",
		MessageType:     types.TEMPLATE_CATEGORY_LUNETTES,
		Purpose:         types.PURPOSE_SERVICE_SMS,
	})

	var insufficientErr *InsufficientCreditsError
	if !errors.As(err, &insufficientErr) {
		t.Fatalf("expected InsufficientCreditsError, got %v", err)
	}
	if insufficientErr.Available != 5 || insufficientErr.Required != 10 {
		t.Errorf("unexpected counts in error: %+v", insufficientErr)
	}
	if len(gateway.sendCalls) != 0 {
		t.Errorf("expected zero send calls, got %d", len(gateway.sendCalls))
	}
	if store.ledger.CreditsRestants != 5 || len(store.savedLedgers) != 0 {
		t.Error("expected ledger untouched on pre-check abort")
	}
}

func TestDispatchUnknownBalanceProceeds(t *testing.T) {
	store := &fakeStore{
		licence: testLicence(),
		clients: []types.Client{serviceClient("0601020304", true)},
	}
	gateway := &fakeGateway{creditsErr: errors.New("balance endpoint down")}

	summary, err := newTestDispatcher(store, gateway).Dispatch(context.Background(), Batch{
		InstanceID:      "shop1",
		RecipientPhones: []string{"0601020304"},
		TemplateContent: "Bonjour {prenom} !",
		MessageType:     types.TEMPLATE_CATEGORY_LUNETTES,
		Purpose:         types.PURPOSE_SERVICE_SMS,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Sent != 1 {
		t.Errorf("expected the batch to proceed on unknown balance, got %+v", summary)
	}
	if summary.RemainingCredits != nil {
		t.Error("remaining credits should stay unknown")
	}
}

func TestDispatchMarketingAppendsOptOutNotice(t *testing.T) {
	client := serviceClient("0601020304", false)
	client.Consent.MarketingSMS = types.ConsentRecord{Value: true}
	store := &fakeStore{
		licence: testLicence(),
		clients: []types.Client{client},
	}
	gateway := &fakeGateway{credits: 10, creditsKnown: true}

	summary, err := newTestDispatcher(store, gateway).Dispatch(context.Background(), Batch{
		InstanceID:      "shop1",
		RecipientPhones: []string{"0601020304"},
		TemplateContent: "Promo solaires -30% !",
		MessageType:     "campagne-solaires",
		Purpose:         types.PURPOSE_MARKETING_SMS,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Sent != 1 {
		t.Fatalf("expected one send, got %+v", summary)
	}

	sent := gateway.sendCalls[0]
	if want := "Promo solaires -30% ! Vision Plus STOP au 36111"; sent.Message != want {
		t.Errorf("expected message %q, got %q", want, sent.Message)
	}
	if sent.Emetteur != "VISIONPLUS" || sent.LicenceID != "lic-1" {
		t.Errorf("sender identity not resolved from licence: %+v", sent)
	}
}

func TestDispatchWithoutLicence(t *testing.T) {
	store := &fakeStore{clients: []types.Client{serviceClient("0601020304", true)}}
	gateway := &fakeGateway{}

	_, err := newTestDispatcher(store, gateway).Dispatch(context.Background(), Batch{
		InstanceID:      "shop1",
		RecipientPhones: []string{"0601020304"},
		TemplateContent: "Bonjour !",
		MessageType:     types.TEMPLATE_CATEGORY_LUNETTES,
		Purpose:         types.PURPOSE_SERVICE_SMS,
	})
	if !errors.Is(err, ErrNoLicence) {
		t.Errorf("expected ErrNoLicence, got %v", err)
	}
	if len(gateway.sendCalls) != 0 {
		t.Error("expected no network calls without a licence")
	}
}

func TestDispatchEmptyRenderedMessageCountsAsFailed(t *testing.T) {
	client := serviceClient("0601020304", true)
	client.Prenom = ""
	client.Nom = ""
	store := &fakeStore{
		licence: testLicence(),
		clients: []types.Client{client},
	}
	gateway := &fakeGateway{credits: 10, creditsKnown: true}

	summary, err := newTestDispatcher(store, gateway).Dispatch(context.Background(), Batch{
		InstanceID:      "shop1",
		RecipientPhones: []string{"0601020304"},
		TemplateContent: "{prenom} {nom}",
		MessageType:     types.TEMPLATE_CATEGORY_LUNETTES,
		Purpose:         types.PURPOSE_SERVICE_SMS,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Failed != 1 || summary.Sent != 0 {
		t.Errorf("expected failed=1 sent=0, got %+v", summary)
	}
	if len(gateway.sendCalls) != 0 {
		t.Error("expected no send call for an empty rendered message")
	}
}

func TestDispatchCancelledMidBatchStillRunsBookkeeping(t *testing.T) {
	store := &fakeStore{
		licence: testLicence(),
		ledger:  &types.CreditLedger{CreditsRestants: 10},
		clients: []types.Client{
			serviceClient("0601020301", true),
			serviceClient("0601020302", true),
			serviceClient("0601020303", true),
		},
	}
	gateway := &fakeGateway{credits: 10, creditsKnown: true}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcher := newTestDispatcher(store, gateway)
	dispatcher.OnProgress = func(p Progress) {
		if p.Phase == PhaseSending && p.Current == 1 {
			cancel()
		}
	}

	summary, err := dispatcher.Dispatch(ctx, Batch{
		InstanceID:      "shop1",
		RecipientPhones: []string{"0601020301", "0601020302", "0601020303"},
		TemplateContent: "Bonjour {prenom} !",
		MessageType:     types.TEMPLATE_CATEGORY_LUNETTES,
		Purpose:         types.PURPOSE_SERVICE_SMS,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Sent != 1 {
		t.Errorf("expected sent=1 after cancellation, got %d", summary.Sent)
	}
	if len(gateway.sendCalls) != 1 {
		t.Errorf("expected no further send calls after cancellation, got %d", len(gateway.sendCalls))
	}

	// the interrupted batch still persists what was confirmed
	if len(store.savedClients) != 1 {
		t.Fatalf("expected a single roster write after cancellation, got %d", len(store.savedClients))
	}
	var historyEntries int
	for _, client := range store.clients {
		historyEntries += len(client.MessagesEnvoyes)
	}
	if historyEntries != 1 {
		t.Errorf("expected exactly 1 history entry, got %d", historyEntries)
	}

	// debit covers the confirmed sends only, never the skipped remainder
	if store.ledger.CreditsRestants != 9 {
		t.Errorf("expected 9 credits remaining, got %d", store.ledger.CreditsRestants)
	}
	if len(store.savedLedgers) != 1 {
		t.Errorf("expected one ledger write, got %d", len(store.savedLedgers))
	}
}

func TestDispatchProgressReported(t *testing.T) {
	store := &fakeStore{
		licence: testLicence(),
		clients: []types.Client{
			serviceClient("0601020301", true),
			serviceClient("0601020302", false),
		},
	}
	gateway := &fakeGateway{credits: 10, creditsKnown: true}

	var phases []Phase
	var perRecipient int
	dispatcher := newTestDispatcher(store, gateway)
	dispatcher.OnProgress = func(p Progress) {
		phases = append(phases, p.Phase)
		if p.Phase == PhaseSending {
			perRecipient++
		}
	}

	_, err := dispatcher.Dispatch(context.Background(), Batch{
		InstanceID:      "shop1",
		RecipientPhones: []string{"0601020301", "0601020302"},
		TemplateContent: "Bonjour {prenom} !",
		MessageType:     types.TEMPLATE_CATEGORY_LUNETTES,
		Purpose:         types.PURPOSE_SERVICE_SMS,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if perRecipient != 2 {
		t.Errorf("expected a progress update per recipient, got %d", perRecipient)
	}
	if phases[0] != PhaseCheckingCredits {
		t.Errorf("expected first phase checkingCredits, got %v", phases[0])
	}
	if phases[len(phases)-1] != PhaseDone {
		t.Errorf("expected final phase done, got %v", phases[len(phases)-1])
	}

	// the roster is written back exactly once
	if len(store.savedClients) != 1 {
		t.Errorf("expected a single batched roster write, got %d", len(store.savedClients))
	}
}
