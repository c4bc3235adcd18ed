package ledger

// AccountChart resolves account ids to chart records.
type AccountChart interface {
	Account(id int64) (Account, bool)
}

// CostCenters resolves cost-center ids to display names.
type CostCenters interface {
	CostCenterName(id int64) string
}

// Chart is an in-memory account chart.
type Chart struct {
	accounts map[int64]Account
}

// NewChart indexes the accounts by id.
func NewChart(accounts []Account) *Chart {
	idx := make(map[int64]Account, len(accounts))
	for _, acc := range accounts {
		idx[acc.ID] = acc
	}
	return &Chart{accounts: idx}
}

// Account looks up an account by id.
func (c *Chart) Account(id int64) (Account, bool) {
	if c == nil {
		return Account{}, false
	}
	acc, ok := c.accounts[id]
	return acc, ok
}

// Len returns the number of accounts in the chart.
func (c *Chart) Len() int {
	if c == nil {
		return 0
	}
	return len(c.accounts)
}

// CostCenterIndex maps cost-center ids to names.
type CostCenterIndex map[int64]string

// CostCenterName returns the name for id or "" when unknown.
func (c CostCenterIndex) CostCenterName(id int64) string {
	return c[id]
}
