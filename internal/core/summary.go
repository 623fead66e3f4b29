package core

// Totals are the derived figures shown above the list.
type Totals struct {
	Chi     Money `json:"total_chi"` // paid expenses only
	Thu     Money `json:"total_thu"` // all income, paid status ignored
	Balance Money `json:"balance"`
}

// Summarize recomputes Totals from the full list.
func Summarize(items []Expense) Totals {
	var t Totals
	for _, e := range items {
		switch e.Type {
		case KindExpense:
			if e.IsPaid {
				t.Chi = t.Chi.Add(e.Amount)
			}
		case KindIncome:
			t.Thu = t.Thu.Add(e.Amount)
		}
	}
	t.Balance = t.Thu.Sub(t.Chi)
	return t
}
