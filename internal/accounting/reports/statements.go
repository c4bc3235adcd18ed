package reports

import (
	"sort"
	"strings"
	"time"
)

// Account type codes used by the chart of accounts.
const (
	TypeAsset     = "ASSET"
	TypeLiability = "LIABILITY"
	TypeEquity    = "EQUITY"
	TypeRevenue   = "REVENUE"
	TypeExpense   = "EXPENSE"
)

// AccountBalance is an account with its opening balance and movement for a span.
type AccountBalance struct {
	Code    string
	Name    string
	Type    string
	Opening float64
	Debit   float64
	Credit  float64
}

// Closing computes the closing balance for the account.
func (a AccountBalance) Closing() float64 {
	return a.Opening + a.Debit - a.Credit
}

// IsBalanceSheet reports whether the account carries a balance across periods.
func (a AccountBalance) IsBalanceSheet() bool {
	switch strings.ToUpper(a.Type) {
	case TypeAsset, TypeLiability, TypeEquity:
		return true
	}
	return false
}

// JournalLine is one posted entry as listed in the journal.
type JournalLine struct {
	Date          time.Time
	VoucherCode   string
	AccountNumber string
	AccountName   string
	Description   string
	Debit         float64
	Credit        float64
}

// BreakdownGroup collects balance sheet accounts of one type.
type BreakdownGroup struct {
	Type     string
	Accounts []AccountBalance
	Opening  float64
	Debit    float64
	Credit   float64
	Closing  float64
}

// BalanceBreakdown itemises every balance sheet account for the period.
type BalanceBreakdown struct {
	Groups       []BreakdownGroup
	TotalOpening float64
	TotalDebit   float64
	TotalCredit  float64
	TotalClosing float64
}

// BuildBalanceBreakdown groups balance sheet accounts by type, skipping
// result accounts and accounts without any balance or movement.
func BuildBalanceBreakdown(accounts []AccountBalance) BalanceBreakdown {
	groups := make(map[string]*BreakdownGroup)
	for _, acc := range accounts {
		if !acc.IsBalanceSheet() {
			continue
		}
		if acc.Opening == 0 && acc.Debit == 0 && acc.Credit == 0 {
			continue
		}
		key := strings.ToUpper(acc.Type)
		grp, ok := groups[key]
		if !ok {
			grp = &BreakdownGroup{Type: key}
			groups[key] = grp
		}
		grp.Accounts = append(grp.Accounts, acc)
		grp.Opening += acc.Opening
		grp.Debit += acc.Debit
		grp.Credit += acc.Credit
		grp.Closing += acc.Closing()
	}

	result := BalanceBreakdown{}
	for _, key := range []string{TypeAsset, TypeLiability, TypeEquity} {
		grp, ok := groups[key]
		if !ok {
			continue
		}
		sort.Slice(grp.Accounts, func(i, j int) bool { return grp.Accounts[i].Code < grp.Accounts[j].Code })
		result.Groups = append(result.Groups, *grp)
		result.TotalOpening += grp.Opening
		result.TotalDebit += grp.Debit
		result.TotalCredit += grp.Credit
		result.TotalClosing += grp.Closing
	}
	return result
}

// StatementRow is a single account line of a financial statement.
type StatementRow struct {
	Code   string
	Name   string
	Amount float64
}

// StatementSection groups statement rows under a heading.
type StatementSection struct {
	Label string
	Rows  []StatementRow
	Total float64
}

// IncomeStatement contains revenue, expense and the period result.
type IncomeStatement struct {
	Revenue StatementSection
	Expense StatementSection
	Result  float64
}

// BuildIncomeStatement aggregates result accounts into revenue and expense sections.
func BuildIncomeStatement(accounts []AccountBalance) IncomeStatement {
	revenue := StatementSection{Label: "Revenue"}
	expense := StatementSection{Label: "Expenses"}

	for _, acc := range accounts {
		amount := acc.Debit - acc.Credit
		switch strings.ToUpper(acc.Type) {
		case TypeRevenue, "INCOME":
			row := StatementRow{Code: acc.Code, Name: acc.Name, Amount: -amount}
			revenue.Rows = append(revenue.Rows, row)
			revenue.Total += row.Amount
		case TypeExpense, "COGS":
			row := StatementRow{Code: acc.Code, Name: acc.Name, Amount: amount}
			expense.Rows = append(expense.Rows, row)
			expense.Total += row.Amount
		}
	}

	sortRows(revenue.Rows)
	sortRows(expense.Rows)

	return IncomeStatement{Revenue: revenue, Expense: expense, Result: revenue.Total - expense.Total}
}

// BalanceSheet is the position of the books on a single date.
type BalanceSheet struct {
	AsOf                      time.Time
	Assets                    StatementSection
	Liabilities               StatementSection
	Equity                    StatementSection
	TotalLiabilitiesAndEquity float64
}

// BuildBalanceSheet aggregates closing balances into assets, liabilities and
// equity. Credit balances on the right-hand side are shown as positive amounts
// and the unclosed result of result accounts is carried into equity.
func BuildBalanceSheet(asOf time.Time, accounts []AccountBalance) BalanceSheet {
	assets := StatementSection{Label: "Assets"}
	liabilities := StatementSection{Label: "Liabilities"}
	equity := StatementSection{Label: "Equity"}
	var result float64

	for _, acc := range accounts {
		closing := acc.Closing()
		switch strings.ToUpper(acc.Type) {
		case TypeAsset:
			assets.Rows = append(assets.Rows, StatementRow{Code: acc.Code, Name: acc.Name, Amount: closing})
			assets.Total += closing
		case TypeLiability:
			liabilities.Rows = append(liabilities.Rows, StatementRow{Code: acc.Code, Name: acc.Name, Amount: -closing})
			liabilities.Total -= closing
		case TypeEquity:
			equity.Rows = append(equity.Rows, StatementRow{Code: acc.Code, Name: acc.Name, Amount: -closing})
			equity.Total -= closing
		default:
			result -= closing
		}
	}
	if result != 0 {
		equity.Rows = append(equity.Rows, StatementRow{Name: "Result for the period", Amount: result})
		equity.Total += result
	}

	sortRows(assets.Rows)
	sortRows(liabilities.Rows)

	return BalanceSheet{
		AsOf:                      asOf,
		Assets:                    assets,
		Liabilities:               liabilities,
		Equity:                    equity,
		TotalLiabilitiesAndEquity: liabilities.Total + equity.Total,
	}
}

// LedgerAccount is one account section of the general ledger.
type LedgerAccount struct {
	Number string
	Name   string
	Lines  []JournalLine
	Debit  float64
	Credit float64
}

// Balance returns debit minus credit for the account.
func (a LedgerAccount) Balance() float64 {
	return a.Debit - a.Credit
}

// BuildGeneralLedger groups journal lines by account number, keeping line order.
func BuildGeneralLedger(lines []JournalLine) []LedgerAccount {
	index := make(map[string]int)
	var accounts []LedgerAccount
	for _, line := range lines {
		pos, ok := index[line.AccountNumber]
		if !ok {
			pos = len(accounts)
			index[line.AccountNumber] = pos
			accounts = append(accounts, LedgerAccount{Number: line.AccountNumber, Name: line.AccountName})
		}
		acc := &accounts[pos]
		acc.Lines = append(acc.Lines, line)
		acc.Debit += line.Debit
		acc.Credit += line.Credit
	}
	sort.SliceStable(accounts, func(i, j int) bool { return accounts[i].Number < accounts[j].Number })
	return accounts
}

func sortRows(rows []StatementRow) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].Code < rows[j].Code })
}
