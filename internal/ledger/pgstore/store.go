package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/ledger-archive/internal/ledger"
)

// Database is the subset of pgxpool.Pool used by the store.
type Database interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ContentSource fetches attachment content kept outside the database.
type ContentSource interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// Store answers ledger queries from PostgreSQL.
type Store struct {
	db      Database
	content ContentSource
}

// New constructs a Store. content may be nil when all attachment bytes live in the database.
func New(db Database, content ContentSource) *Store {
	return &Store{db: db, content: content}
}

// Request routes a ledger query to the matching SQL.
func (s *Store) Request(ctx context.Context, req ledger.Request) (ledger.Payload, error) {
	if s == nil || s.db == nil {
		return ledger.Payload{}, errors.New("pgstore: store not initialised")
	}
	switch {
	case req.Path == ledger.PathVouchers:
		return s.listVouchers(ctx, req.Attributes)
	case req.Path == ledger.PathFinalization:
		return s.finalizationDocument(ctx, req.Attributes)
	case strings.HasPrefix(req.Path, ledger.PathVouchers+"/"):
		id, err := pathID(req.Path, ledger.PathVouchers+"/")
		if err != nil {
			return ledger.Payload{}, err
		}
		return s.voucher(ctx, id)
	case strings.HasPrefix(req.Path, "/attachments/"):
		id, err := pathID(req.Path, "/attachments/")
		if err != nil {
			return ledger.Payload{}, err
		}
		return s.attachment(ctx, id)
	default:
		return ledger.Payload{}, fmt.Errorf("%w: %s", ledger.ErrUnknownPath, req.Path)
	}
}

func (s *Store) listVouchers(ctx context.Context, attrs map[string]string) (ledger.Payload, error) {
	start, end, err := spanFromAttributes(attrs)
	if err != nil {
		return ledger.Payload{}, err
	}
	order := "date, series, sequence"
	if attrs["order"] == "voucher" {
		order = "series, sequence"
	}
	query := `SELECT id, series, sequence, date FROM vouchers
WHERE date BETWEEN $1 AND $2
ORDER BY ` + order
	rows, err := s.db.Query(ctx, query, start, end)
	if err != nil {
		return ledger.Payload{}, err
	}
	defer rows.Close()
	var list []ledger.Record
	for rows.Next() {
		var (
			id       int64
			series   string
			sequence int
			date     time.Time
		)
		if err := rows.Scan(&id, &series, &sequence, &date); err != nil {
			return ledger.Payload{}, err
		}
		list = append(list, ledger.Record{
			ledger.FieldID:       id,
			ledger.FieldSeries:   series,
			ledger.FieldSequence: sequence,
			ledger.FieldDate:     date,
		})
	}
	if err := rows.Err(); err != nil {
		return ledger.Payload{}, err
	}
	return ledger.ListPayload(list), nil
}

func (s *Store) voucher(ctx context.Context, id int64) (ledger.Payload, error) {
	const header = `SELECT id, series, sequence, date, COALESCE(title,''), COALESCE(note,'')
FROM vouchers WHERE id = $1`
	var (
		series, title, note string
		sequence            int
		date                time.Time
	)
	if err := s.db.QueryRow(ctx, header, id).Scan(&id, &series, &sequence, &date, &title, &note); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.Payload{}, fmt.Errorf("%w: voucher %d", ledger.ErrNotFound, id)
		}
		return ledger.Payload{}, err
	}
	entries, err := s.voucherEntries(ctx, id)
	if err != nil {
		return ledger.Payload{}, err
	}
	attachments, err := s.voucherAttachments(ctx, id)
	if err != nil {
		return ledger.Payload{}, err
	}
	return ledger.RecordPayload(ledger.Record{
		ledger.FieldID:          id,
		ledger.FieldSeries:      series,
		ledger.FieldSequence:    sequence,
		ledger.FieldDate:        date,
		ledger.FieldTitle:       title,
		ledger.FieldNote:        note,
		ledger.FieldEntries:     entries,
		ledger.FieldAttachments: attachments,
	}), nil
}

func (s *Store) voucherEntries(ctx context.Context, voucherID int64) ([]ledger.Record, error) {
	const query = `SELECT date, account_id, COALESCE(cost_center_id, 0), COALESCE(description,''), debit, credit
FROM voucher_entries WHERE voucher_id = $1
ORDER BY position`
	rows, err := s.db.Query(ctx, query, voucherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []ledger.Record
	for rows.Next() {
		var (
			date                  time.Time
			accountID, costCenter int64
			description           string
			debit, credit         float64
		)
		if err := rows.Scan(&date, &accountID, &costCenter, &description, &debit, &credit); err != nil {
			return nil, err
		}
		entries = append(entries, ledger.Record{
			ledger.FieldDate:        date,
			ledger.FieldAccount:     accountID,
			ledger.FieldCostCenter:  costCenter,
			ledger.FieldDescription: description,
			ledger.FieldDebit:       debit,
			ledger.FieldCredit:      credit,
		})
	}
	return entries, rows.Err()
}

func (s *Store) voucherAttachments(ctx context.Context, voucherID int64) ([]ledger.Record, error) {
	const query = `SELECT id, name FROM attachments WHERE voucher_id = $1 ORDER BY position, id`
	rows, err := s.db.Query(ctx, query, voucherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var attachments []ledger.Record
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		attachments = append(attachments, ledger.Record{ledger.FieldID: id, ledger.FieldName: name})
	}
	return attachments, rows.Err()
}

func (s *Store) attachment(ctx context.Context, id int64) (ledger.Payload, error) {
	const query = `SELECT COALESCE(storage_key,''), data FROM attachments WHERE id = $1`
	var (
		key  string
		data []byte
	)
	if err := s.db.QueryRow(ctx, query, id).Scan(&key, &data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.Payload{}, fmt.Errorf("%w: attachment %d", ledger.ErrNotFound, id)
		}
		return ledger.Payload{}, err
	}
	if key != "" {
		if s.content == nil {
			return ledger.Payload{}, fmt.Errorf("pgstore: attachment %d stored externally but no content source configured", id)
		}
		content, err := s.content.Fetch(ctx, key)
		if err != nil {
			return ledger.Payload{}, fmt.Errorf("pgstore: fetch attachment %d: %w", id, err)
		}
		data = content
	}
	return ledger.BytesPayload(data), nil
}

// finalizationDocument returns the signed financial statements of the period,
// or an empty bytes payload when none was stored.
func (s *Store) finalizationDocument(ctx context.Context, attrs map[string]string) (ledger.Payload, error) {
	start, end, err := spanFromAttributes(attrs)
	if err != nil {
		return ledger.Payload{}, err
	}
	const query = `SELECT data FROM period_documents
WHERE kind = 'finalization' AND period_start = $1 AND period_end = $2`
	var data []byte
	if err := s.db.QueryRow(ctx, query, start, end).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.BytesPayload(nil), nil
		}
		return ledger.Payload{}, err
	}
	return ledger.BytesPayload(data), nil
}

func pathID(path, prefix string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(path, prefix), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s", ledger.ErrUnknownPath, path)
	}
	return id, nil
}

func spanFromAttributes(attrs map[string]string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", attrs["start"])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("pgstore: start attribute: %w", err)
	}
	end, err := time.Parse("2006-01-02", attrs["end"])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("pgstore: end attribute: %w", err)
	}
	return start, end, nil
}
