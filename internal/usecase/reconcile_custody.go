package usecase

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/trebuchet-org/pledge/internal/domain/models"
)

// CustodyReport compares what the ledger owes with what it holds
type CustodyReport struct {
	Custody *models.Custody
	// Escrowed sums the amounts of non-terminal challenges
	Escrowed *big.Int
	// Expected is Escrowed plus retained forfeits
	Expected *big.Int
	// Journal is the custody rebuilt from ledger entries
	Journal *models.Custody
	// VaultBalance is nil when the token collaborator cannot report it
	VaultBalance  *big.Int
	Challenges    int
	Entries       int
	Discrepancies []string
}

// Balanced reports whether no discrepancy was found
func (r *CustodyReport) Balanced() bool {
	return len(r.Discrepancies) == 0
}

// ReconcileCustody audits custody totals against challenges and the journal
type ReconcileCustody struct {
	ledger   *Ledger
	transfer TokenTransfer
}

// NewReconcileCustody creates a new reconcile use case
func NewReconcileCustody(ledger *Ledger, transfer TokenTransfer) *ReconcileCustody {
	return &ReconcileCustody{
		ledger:   ledger,
		transfer: transfer,
	}
}

// Run executes the reconciliation
func (uc *ReconcileCustody) Run(ctx context.Context) (*CustodyReport, error) {
	challenges, entries, custody, err := uc.ledger.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	report := &CustodyReport{
		Custody:    custody,
		Escrowed:   escrowedAmount(challenges),
		Journal:    models.NewCustody(),
		Challenges: len(challenges),
		Entries:    len(entries),
	}
	for _, e := range entries {
		report.Journal.Apply(e)
	}
	report.Expected = new(big.Int).Add(report.Escrowed, custody.Retained)

	if held := custody.Held(); held.Cmp(report.Expected) != 0 {
		report.addf("held %s does not match escrowed %s plus retained %s", held, report.Escrowed, custody.Retained)
	}
	if report.Journal.Received.Cmp(custody.Received) != 0 ||
		report.Journal.Disbursed.Cmp(custody.Disbursed) != 0 ||
		report.Journal.Retained.Cmp(custody.Retained) != 0 {
		report.addf("journal totals (received %s, disbursed %s, retained %s) differ from custody (received %s, disbursed %s, retained %s)",
			report.Journal.Received, report.Journal.Disbursed, report.Journal.Retained,
			custody.Received, custody.Disbursed, custody.Retained)
	}
	report.checkResolutions(challenges, entries)

	if reporter, ok := uc.transfer.(CustodyReporter); ok {
		balance, err := reporter.CustodyBalance(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read vault balance: %w", err)
		}
		report.VaultBalance = balance
		if balance.Cmp(custody.Held()) != 0 {
			report.addf("vault holds %s but ledger custody is %s", balance, custody.Held())
		}
	}

	return report, nil
}

// checkResolutions verifies each challenge was funded once and paid out at
// most once, and only if terminal
func (r *CustodyReport) checkResolutions(challenges []*models.Challenge, entries []models.LedgerEntry) {
	byChallenge := lo.GroupBy(entries, func(e models.LedgerEntry) common.Hash { return e.ChallengeID })

	for _, c := range challenges {
		own := byChallenge[c.ID]
		deposits := lo.CountBy(own, func(e models.LedgerEntry) bool { return e.Kind == models.EntryDeposit })
		resolutions := lo.CountBy(own, func(e models.LedgerEntry) bool {
			return e.Kind == models.EntryPayout || e.Kind == models.EntryForfeit
		})

		if deposits != 1 {
			r.addf("challenge %s has %d deposits", c.ID.Hex(), deposits)
		}
		switch {
		case c.State.IsTerminal() && resolutions != 1:
			r.addf("challenge %s is %s with %d disbursements", c.ID.Hex(), c.State, resolutions)
		case !c.State.IsTerminal() && resolutions != 0:
			r.addf("challenge %s is %s but was disbursed", c.ID.Hex(), c.State)
		}
	}
}

func (r *CustodyReport) addf(format string, args ...interface{}) {
	r.Discrepancies = append(r.Discrepancies, fmt.Sprintf(format, args...))
}

// escrowedAmount sums the deposits still held for non-terminal challenges
func escrowedAmount(challenges []*models.Challenge) *big.Int {
	return lo.Reduce(challenges, func(sum *big.Int, c *models.Challenge, _ int) *big.Int {
		if c.State.IsTerminal() {
			return sum
		}
		return sum.Add(sum, c.Amount)
	}, new(big.Int))
}
