package accounting

import (
	"fmt"
	"time"

	"github.com/finbooks/ledger_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// MinEntryLines is the smallest number of lines a valid entry may carry.
const MinEntryLines = 2

// BalanceResult holds the column totals for a candidate entry.
type BalanceResult struct {
	DebitTotal  decimal.Decimal
	CreditTotal decimal.Decimal
	Difference  decimal.Decimal // DebitTotal - CreditTotal, signed
	Balanced    bool
}

// ValidateBalance computes exact decimal sums for the debit and credit columns.
// Balanced iff the sums are equal and the debit total is positive; an all-zero
// entry is not valid. Pure, no side effects; callers turn an unbalanced result
// into a validation error carrying the signed difference.
func ValidateBalance(lines []domain.JournalLine) BalanceResult {
	debits := decimal.Zero
	credits := decimal.Zero
	for _, l := range lines {
		debits = debits.Add(l.Debit)
		credits = credits.Add(l.Credit)
	}
	return BalanceResult{
		DebitTotal:  debits,
		CreditTotal: credits,
		Difference:  debits.Sub(credits),
		Balanced:    debits.Equal(credits) && debits.IsPositive(),
	}
}

// ValidateLines checks the per-line invariants: at least MinEntryLines lines,
// non-negative amounts at cent precision, and a nonzero amount on exactly one
// of debit/credit per line.
func ValidateLines(lines []domain.JournalLine) error {
	if len(lines) < MinEntryLines {
		return fmt.Errorf("entry must have at least %d lines, got %d", MinEntryLines, len(lines))
	}
	for i, l := range lines {
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return fmt.Errorf("line %d: amounts must not be negative", i+1)
		}
		if l.Debit.IsPositive() == l.Credit.IsPositive() {
			return fmt.Errorf("line %d: exactly one of debit or credit must be nonzero", i+1)
		}
		if l.Amount().Exponent() < -2 {
			return fmt.Errorf("line %d: amount %s is more precise than cents", i+1, l.Amount())
		}
	}
	return nil
}

// SignedDelta converts a line's debit/credit pair into a balance movement for
// an account with the given normal side.
// DEBIT-normal accounts grow by debit-credit, CREDIT-normal by credit-debit.
func SignedDelta(debit, credit decimal.Decimal, normal domain.NormalBalance) decimal.Decimal {
	if normal == domain.NormalDebit {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}

// FiscalPeriod derives the fiscal year and period from an entry date.
// Calendar fiscal year, monthly periods.
func FiscalPeriod(date time.Time) (year int, period int) {
	return date.Year(), int(date.Month())
}
