package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/ledger-archive/internal/ledger"
	"github.com/odyssey-erp/ledger-archive/internal/platform/db"
)

// ErrPeriodNotFound indicates the requested accounting period does not exist.
var ErrPeriodNotFound = errors.New("pgstore: period not found")

// LoadBooks snapshots the account chart, cost centers and ledger settings.
func (s *Store) LoadBooks(ctx context.Context) (ledger.Books, error) {
	accounts, err := s.Accounts(ctx)
	if err != nil {
		return ledger.Books{}, fmt.Errorf("pgstore: load accounts: %w", err)
	}
	centers, err := s.CostCenters(ctx)
	if err != nil {
		return ledger.Books{}, fmt.Errorf("pgstore: load cost centers: %w", err)
	}
	settings, err := s.Settings(ctx)
	if err != nil {
		return ledger.Books{}, fmt.Errorf("pgstore: load settings: %w", err)
	}
	return ledger.Books{Chart: ledger.NewChart(accounts), CostCenters: centers, Settings: settings}, nil
}

// Accounts lists the chart of accounts.
func (s *Store) Accounts(ctx context.Context) ([]ledger.Account, error) {
	rows, err := s.db.Query(ctx, `SELECT id, number, name, COALESCE(type,'') FROM accounts ORDER BY number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []ledger.Account
	for rows.Next() {
		var a ledger.Account
		if err := rows.Scan(&a.ID, &a.Number, &a.Name, &a.Type); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// CostCenters lists the cost centers by id.
func (s *Store) CostCenters(ctx context.Context) (ledger.CostCenterIndex, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name FROM cost_centers`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	index := ledger.CostCenterIndex{}
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		index[id] = name
	}
	return index, rows.Err()
}

// Settings loads the ledger configuration row.
func (s *Store) Settings(ctx context.Context) (ledger.Settings, error) {
	const query = `SELECT name, logo, training, closed_through FROM ledger_settings LIMIT 1`
	var (
		settings      ledger.Settings
		closedThrough *time.Time
	)
	err := s.db.QueryRow(ctx, query).Scan(&settings.Name, &settings.Logo, &settings.Training, &closedThrough)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.Settings{}, errors.New("pgstore: ledger settings missing")
		}
		return ledger.Settings{}, err
	}
	if closedThrough != nil {
		settings.ClosedThrough = *closedThrough
	}
	return settings, nil
}

// FindPeriod loads an accounting period by its code, which doubles as the archive tag.
func (s *Store) FindPeriod(ctx context.Context, code string) (ledger.Period, error) {
	const query = `SELECT code, start_date, end_date FROM accounting_periods WHERE code = $1`
	var p ledger.Period
	if err := s.db.QueryRow(ctx, query, code).Scan(&p.Tag, &p.Start, &p.End); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.Period{}, fmt.Errorf("%w: %s", ErrPeriodNotFound, code)
		}
		return ledger.Period{}, err
	}
	return p, nil
}

// SnapshotBooks loads the books inside one read-only snapshot so the chart,
// cost centers and settings are mutually consistent.
type SnapshotBooks struct {
	DB db.TxStarter
}

// LoadBooks implements archive.BooksSource.
func (s SnapshotBooks) LoadBooks(ctx context.Context) (ledger.Books, error) {
	var books ledger.Books
	err := db.WithSnapshot(ctx, s.DB, func(tx pgx.Tx) error {
		var err error
		books, err = New(tx, nil).LoadBooks(ctx)
		return err
	})
	return books, err
}
