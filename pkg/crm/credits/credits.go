package credits

import (
	"fmt"
	"time"

	"github.com/ronanlefevre01/opticom-sub000/pkg/crm/types"
)

// The ledger functions are pure: they take a CreditLedger value and return
// the updated value, leaving persistence to the caller. The host application
// owns the single current ledger per shop instance.

var frenchMonths = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

// CurrentPeriod returns the structured month key for a point in time, e.g.
// "2026-08". History entries are matched by this key, never by the display
// label: same-named months of different years must not collide.
func CurrentPeriod(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// PeriodLabel returns the display form of a month, e.g. "août 2026".
func PeriodLabel(t time.Time) string {
	return fmt.Sprintf("%s %d", frenchMonths[int(t.Month())-1], t.Year())
}

// CheckAndRenew applies all due monthly renewals: while the renewal date has
// passed, the monthly allotment is added, the renewal date advances by one
// calendar month, and a zeroed entry for the current period is ensured.
// Calls before the renewal date are no-ops, so running it on every process
// start is safe. The updated ledger and whether anything changed are
// returned.
func CheckAndRenew(ledger types.CreditLedger, monthlyAllotment int, now time.Time) (types.CreditLedger, bool) {
	if ledger.Renouvellement.IsZero() || now.Before(ledger.Renouvellement) {
		return ledger, false
	}

	for !now.Before(ledger.Renouvellement) {
		ledger.CreditsRestants += monthlyAllotment
		ledger.Renouvellement = ledger.Renouvellement.AddDate(0, 1, 0)
	}
	ledger, _ = withCurrentEntry(ledger, now)
	return ledger, true
}

// Consume debits n credits and counts them in the current month's envoyes.
// The debit is all-or-nothing: when fewer than n credits remain the ledger is
// returned unchanged and the call reports failure. The balance never goes
// below zero.
func Consume(ledger types.CreditLedger, n int, now time.Time) (types.CreditLedger, bool) {
	if n <= 0 {
		return ledger, true
	}
	if ledger.CreditsRestants < n {
		return ledger, false
	}

	ledger.CreditsRestants -= n
	updated, idx := withCurrentEntry(ledger, now)
	updated.Historique[idx].Envoyes += n
	return updated, true
}

// Add credits the balance unconditionally and counts the amount in the
// current month's achetes (used after a purchase confirmation).
func Add(ledger types.CreditLedger, n int, now time.Time) types.CreditLedger {
	if n <= 0 {
		return ledger
	}
	ledger.CreditsRestants += n
	updated, idx := withCurrentEntry(ledger, now)
	updated.Historique[idx].Achetes += n
	return updated
}

// withCurrentEntry returns a ledger whose history contains an entry for the
// current period, prepending a zeroed one when missing, plus the entry's
// index. The history slice is copied so callers never share backing arrays
// with the input value.
func withCurrentEntry(ledger types.CreditLedger, now time.Time) (types.CreditLedger, int) {
	period := CurrentPeriod(now)

	history := make([]types.UsageEntry, len(ledger.Historique))
	copy(history, ledger.Historique)
	ledger.Historique = history

	for i, entry := range ledger.Historique {
		if entry.Period == period {
			return ledger, i
		}
	}

	ledger.Historique = append([]types.UsageEntry{{
		Period: period,
		Label:  PeriodLabel(now),
	}}, ledger.Historique...)
	return ledger, 0
}
