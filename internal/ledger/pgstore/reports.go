package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/odyssey-erp/ledger-archive/internal/accounting/reports"
)

// JournalLines lists every entry of vouchers dated within [start, end].
func (s *Store) JournalLines(ctx context.Context, start, end time.Time) ([]reports.JournalLine, error) {
	const query = `SELECT e.date, v.series, v.sequence, a.number, a.name, COALESCE(e.description,''), e.debit, e.credit
FROM voucher_entries e
JOIN vouchers v ON v.id = e.voucher_id
JOIN accounts a ON a.id = e.account_id
WHERE v.date BETWEEN $1 AND $2
ORDER BY v.date, v.series, v.sequence, e.position`
	rows, err := s.db.Query(ctx, query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []reports.JournalLine
	for rows.Next() {
		var (
			line     reports.JournalLine
			series   string
			sequence int
		)
		if err := rows.Scan(&line.Date, &series, &sequence, &line.AccountNumber, &line.AccountName, &line.Description, &line.Debit, &line.Credit); err != nil {
			return nil, err
		}
		line.VoucherCode = fmt.Sprintf("%s%d", series, sequence)
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// AccountBalances aggregates opening balances before start and movement within
// [start, end] for every account. Result accounts never carry an opening balance.
func (s *Store) AccountBalances(ctx context.Context, start, end time.Time) ([]reports.AccountBalance, error) {
	const query = `SELECT a.number, a.name, COALESCE(a.type,''),
    COALESCE(SUM(CASE WHEN v.date < $1 AND a.type IN ('ASSET','LIABILITY','EQUITY') THEN e.debit - e.credit END), 0),
    COALESCE(SUM(CASE WHEN v.date >= $1 THEN e.debit END), 0),
    COALESCE(SUM(CASE WHEN v.date >= $1 THEN e.credit END), 0)
FROM accounts a
LEFT JOIN voucher_entries e ON e.account_id = a.id
LEFT JOIN vouchers v ON v.id = e.voucher_id AND v.date <= $2
GROUP BY a.number, a.name, a.type
ORDER BY a.number`
	rows, err := s.db.Query(ctx, query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var balances []reports.AccountBalance
	for rows.Next() {
		var b reports.AccountBalance
		if err := rows.Scan(&b.Code, &b.Name, &b.Type, &b.Opening, &b.Debit, &b.Credit); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}
