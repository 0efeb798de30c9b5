package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ronanlefevre01/opticom-sub000/pkg/crm/consent"
	"github.com/ronanlefevre01/opticom-sub000/pkg/crm/credits"
	"github.com/ronanlefevre01/opticom-sub000/pkg/crm/templates"
	"github.com/ronanlefevre01/opticom-sub000/pkg/crm/types"
	"github.com/ronanlefevre01/opticom-sub000/pkg/smsgateway"
	"github.com/ronanlefevre01/opticom-sub000/pkg/utils"
)

// DefaultPacingDelay is the courtesy pause between two gateway calls. Not a
// correctness requirement, only rate-limiting politeness towards the backend.
const DefaultPacingDelay = 120 * time.Millisecond

var ErrNoLicence = errors.New("no licence configured for instance")

type InsufficientCreditsError struct {
	Available int
	Required  int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: %d available, %d required", e.Available, e.Required)
}

// Store is the slice of the CRM storage the dispatcher needs. The roster is
// read once per batch, mutated in memory and written back once: a concurrent
// edit during an in-flight batch is overwritten last-write-wins, which is
// acceptable because a shop runs a single dispatch at a time.
type Store interface {
	GetClients(instanceID string) ([]types.Client, error)
	SaveClients(instanceID string, clients []types.Client) error
	GetLicence(instanceID string) (*types.Licence, error)
	GetSubscription(instanceID string) (*types.CreditLedger, error)
	SaveSubscription(instanceID string, ledger types.CreditLedger) error
	AddSentMessage(instanceID string, msg types.SentMessage) (types.SentMessage, error)
}

type Gateway interface {
	SendSMS(req smsgateway.SendRequest) error
	GetRemainingCredits(licenceID string) (int, bool, error)
}

// Batch is one user-initiated group send over a selected recipient set.
type Batch struct {
	InstanceID      string
	RecipientPhones []string
	TemplateContent string
	MessageType     string
	Purpose         string

	// CleOverride replaces the licence's stored gateway key for this batch,
	// e.g. when the key was rotated through the environment.
	CleOverride string
}

type Summary struct {
	CampaignID       string `json:"campaignId"`
	Total            int    `json:"total"`
	Sent             int    `json:"sent"`
	Failed           int    `json:"failed"`
	SkippedConsent   int    `json:"skippedConsent"`
	RemainingCredits *int   `json:"remainingCredits,omitempty"`
}

type Phase string

const (
	PhaseCheckingCredits Phase = "checkingCredits"
	PhaseSending         Phase = "sending"
	PhaseDone            Phase = "done"
	PhaseAborted         Phase = "aborted"
)

type Progress struct {
	Phase   Phase
	Current int
	Total   int
}

type ProgressFunc func(Progress)

type Dispatcher struct {
	Store   Store
	Gateway Gateway

	// PacingDelay overrides DefaultPacingDelay when positive.
	PacingDelay time.Duration

	// OnProgress, when set, is invoked after every phase change and after
	// every recipient, whatever the outcome.
	OnProgress ProgressFunc
}

// Dispatch sends a rendered, consent-filtered message to each recipient of
// the batch, strictly one at a time. A single recipient's failure never
// aborts the batch; only a credit shortfall detected before the first send
// does. Credits are debited after the loop from the count of
// gateway-confirmed sends, so a crash mid-batch leaves the local mirror
// over-reporting until the next balance fetch reconciles it.
func (d *Dispatcher) Dispatch(ctx context.Context, batch Batch) (Summary, error) {
	summary := Summary{
		CampaignID: uuid.NewString(),
		Total:      len(batch.RecipientPhones),
	}

	storedLicence, err := d.Store.GetLicence(batch.InstanceID)
	if err != nil {
		return summary, err
	}
	if storedLicence == nil || storedLicence.ID == "" {
		return summary, ErrNoLicence
	}
	licence := *storedLicence

	d.progress(Progress{Phase: PhaseCheckingCredits, Total: summary.Total})

	available, known, err := d.Gateway.GetRemainingCredits(licence.ID)
	if err != nil {
		slog.Warn("could not fetch credit balance before dispatch", slog.String("error", err.Error()))
		known = false
	}
	if known && available < summary.Total {
		d.progress(Progress{Phase: PhaseAborted, Total: summary.Total})
		return summary, &InsufficientCreditsError{Available: available, Required: summary.Total}
	}

	roster, err := d.Store.GetClients(batch.InstanceID)
	if err != nil {
		return summary, err
	}
	indexByPhone := make(map[string]int, len(roster))
	for i, client := range roster {
		indexByPhone[client.Telephone] = i
	}

	// sender identity resolved once per batch, not per recipient
	signature := licence.Signature
	emetteur := licence.LibelleExpediteur
	if batch.CleOverride != "" {
		licence.Cle = batch.CleOverride
	}

	pacing := d.PacingDelay
	if pacing <= 0 {
		pacing = DefaultPacingDelay
	}

	counters := initBatchCounters()

recipients:
	for i, phone := range batch.RecipientPhones {
		select {
		case <-ctx.Done():
			slog.Warn("dispatch interrupted, running final bookkeeping", slog.String("campaignID", summary.CampaignID))
			break recipients
		default:
		}

		switch d.processRecipient(batch, licence, summary.CampaignID, roster, indexByPhone, phone, signature, emetteur) {
		case outcomeSent:
			summary.Sent++
			counters.IncreaseCounter(true)
		case outcomeFailed:
			summary.Failed++
			counters.IncreaseCounter(false)
		case outcomeSkippedConsent:
			summary.SkippedConsent++
		}

		d.progress(Progress{Phase: PhaseSending, Current: i + 1, Total: summary.Total})

		if i < len(batch.RecipientPhones)-1 {
			d.pause(ctx, pacing)
		}
	}

	// single batched roster write, not one write per recipient
	if err := d.Store.SaveClients(batch.InstanceID, roster); err != nil {
		slog.Error("failed to persist client roster after dispatch", slog.String("error", err.Error()))
	}

	if summary.Sent > 0 {
		d.consumeCredits(batch.InstanceID, summary.Sent)
	}

	// best-effort balance refresh for display
	if remaining, ok, err := d.Gateway.GetRemainingCredits(licence.ID); err == nil && ok {
		summary.RemainingCredits = &remaining
	}

	counters.Stop()
	slog.Info("campaign dispatch finished",
		slog.String("campaignID", summary.CampaignID),
		slog.Int("sent", summary.Sent),
		slog.Int("failed", summary.Failed),
		slog.Int("skippedConsent", summary.SkippedConsent),
		slog.Int64("duration", counters.Duration))

	d.progress(Progress{Phase: PhaseDone, Current: summary.Total, Total: summary.Total})
	return summary, nil
}

type recipientOutcome int

const (
	outcomeSent recipientOutcome = iota
	outcomeFailed
	outcomeSkippedConsent
)

func (d *Dispatcher) processRecipient(
	batch Batch,
	licence types.Licence,
	campaignID string,
	roster []types.Client,
	indexByPhone map[string]int,
	phone string,
	signature string,
	emetteur string,
) recipientOutcome {
	normalized, validPhone := utils.NormalizePhoneNumber(phone)
	idx, found := indexByPhone[normalized]
	if !validPhone || !found {
		slog.Error("recipient not found in roster", slog.String("phone", phone))
		return outcomeFailed
	}
	client := &roster[idx]

	if !consent.IsEligible(*client, batch.Purpose) {
		return outcomeSkippedConsent
	}

	message := templates.Render(batch.TemplateContent, client.Prenom, client.Nom)
	if strings.TrimSpace(message) == "" {
		slog.Error("rendered message is empty", slog.String("phone", client.Telephone), slog.String("messageType", batch.MessageType))
		return outcomeFailed
	}
	message = templates.AppendSignature(message, signature)
	if batch.Purpose == types.PURPOSE_MARKETING_SMS {
		message = templates.EnsureOptOutNotice(message)
	}

	err := d.Gateway.SendSMS(smsgateway.SendRequest{
		PhoneNumber: client.Telephone,
		Message:     message,
		LicenceID:   licence.ID,
		Emetteur:    emetteur,
		Cle:         licence.Cle,
	})
	if err != nil {
		slog.Error("failed to send sms", slog.String("phone", client.Telephone), slog.String("messageType", batch.MessageType), slog.String("error", err.Error()))
		return outcomeFailed
	}

	now := time.Now()
	client.LogSentMessage(batch.MessageType, now)

	if _, err := d.Store.AddSentMessage(batch.InstanceID, types.SentMessage{
		CampaignID:  campaignID,
		PhoneNumber: client.Telephone,
		MessageType: batch.MessageType,
		Purpose:     batch.Purpose,
		SentAt:      now,
	}); err != nil {
		slog.Error("failed to log sent message", slog.String("error", err.Error()))
	}

	return outcomeSent
}

func (d *Dispatcher) consumeCredits(instanceID string, sent int) {
	ledger, err := d.Store.GetSubscription(instanceID)
	if err != nil {
		slog.Error("failed to load credit ledger after dispatch", slog.String("error", err.Error()))
		return
	}
	if ledger == nil {
		// no subscription: ledger operations are silent no-ops
		return
	}

	updated, ok := credits.Consume(*ledger, sent, time.Now())
	if !ok {
		slog.Warn("local credit mirror below confirmed sends, leaving it for reconciliation",
			slog.Int("sent", sent), slog.Int("creditsRestants", ledger.CreditsRestants))
		return
	}
	if err := d.Store.SaveSubscription(instanceID, updated); err != nil {
		slog.Error("failed to persist credit ledger after dispatch", slog.String("error", err.Error()))
	}
}

func (d *Dispatcher) progress(p Progress) {
	if d.OnProgress != nil {
		d.OnProgress(p)
	}
}

func (d *Dispatcher) pause(ctx context.Context, delay time.Duration) {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
