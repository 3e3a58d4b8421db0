package interest

import "github.com/shopspring/decimal"

// ScheduleEntry is one period of a reducing-balance repayment plan.
type ScheduleEntry struct {
	Period      int             `json:"period"`
	Principal   decimal.Decimal `json:"principal"`
	Interest    decimal.Decimal `json:"interest"`
	Payment     decimal.Decimal `json:"payment"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

// reducingSchedule splits the principal into equal monthly installments and
// charges interest on the balance outstanding at the start of each period.
// The final installment absorbs any rounding remainder so the principal
// column sums exactly to the input.
func reducingSchedule(principal, rate decimal.Decimal, months int) []ScheduleEntry {
	monthly := rate.Div(hundred)
	installment := principal.Div(decimal.NewFromInt(int64(months))).Round(2)

	entries := make([]ScheduleEntry, 0, months)
	outstanding := principal
	for period := 1; period <= months; period++ {
		principalDue := installment
		if period == months {
			principalDue = outstanding
		}
		interestDue := outstanding.Mul(monthly).Round(2)
		outstanding = outstanding.Sub(principalDue)
		entries = append(entries, ScheduleEntry{
			Period:      period,
			Principal:   principalDue,
			Interest:    interestDue,
			Payment:     principalDue.Add(interestDue),
			Outstanding: outstanding,
		})
	}
	return entries
}

func scheduleInterestTotal(entries []ScheduleEntry) decimal.Decimal {
	total := decimal.Zero
	for _, entry := range entries {
		total = total.Add(entry.Interest)
	}
	return total
}
