package pgstore

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/ledger-archive/internal/ledger"
	_ "github.com/odyssey-erp/ledger-archive/testing"
)

type mockContent struct {
	mock.Mock
}

func (m *mockContent) Fetch(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func newMockStore(t *testing.T, content ContentSource) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return New(pool, content), pool
}

func TestRequestListsVouchersInVoucherOrder(t *testing.T) {
	store, pool := newMockStore(t, nil)
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)

	pool.ExpectQuery(`SELECT id, series, sequence, date FROM vouchers`).
		WithArgs(start, end).
		WillReturnRows(pgxmock.NewRows([]string{"id", "series", "sequence", "date"}).
			AddRow(int64(11), "A", 1, start).
			AddRow(int64(12), "A", 2, end))

	payload, err := store.Request(context.Background(), ledger.Request{
		Path:       ledger.PathVouchers,
		Attributes: map[string]string{"order": "voucher", "start": "2023-01-01", "end": "2023-12-31"},
	})
	require.NoError(t, err)
	list, err := ledger.DecodeVoucherList(payload)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, int64(12), list[1].ID)
	require.NoError(t, pool.ExpectationsWereMet())
}

func TestRequestLoadsVoucherDetail(t *testing.T) {
	store, pool := newMockStore(t, nil)
	date := time.Date(2023, 2, 14, 0, 0, 0, 0, time.UTC)

	pool.ExpectQuery(`FROM vouchers WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "series", "sequence", "date", "title", "note"}).
			AddRow(int64(7), "A", 1, date, "Office rent", "paid late"))
	pool.ExpectQuery(`FROM voucher_entries WHERE voucher_id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"date", "account_id", "cost_center_id", "description", "debit", "credit"}).
			AddRow(date, int64(1), int64(0), "Bank", 0.0, 500.0).
			AddRow(date, int64(2), int64(3), "Rent", 500.0, 0.0))
	pool.ExpectQuery(`FROM attachments WHERE voucher_id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name"}).AddRow(int64(40), "scan.pdf"))

	payload, err := store.Request(context.Background(), ledger.Request{Path: ledger.VoucherPath(7)})
	require.NoError(t, err)
	v, err := ledger.DecodeVoucher(payload)
	require.NoError(t, err)
	require.Equal(t, "Office rent", v.Title)
	require.Len(t, v.Entries, 2)
	require.Equal(t, int64(3), v.Entries[1].CostCenterID)
	require.Equal(t, []ledger.AttachmentRef{{ID: 40, Name: "scan.pdf"}}, v.Attachments)
	require.NoError(t, pool.ExpectationsWereMet())
}

func TestRequestAttachmentFromExternalContent(t *testing.T) {
	content := &mockContent{}
	content.On("Fetch", mock.Anything, "vouchers/40.pdf").Return([]byte("%PDF-1.4"), nil).Once()
	store, pool := newMockStore(t, content)

	pool.ExpectQuery(`SELECT COALESCE\(storage_key,''\), data FROM attachments`).
		WithArgs(int64(40)).
		WillReturnRows(pgxmock.NewRows([]string{"storage_key", "data"}).AddRow("vouchers/40.pdf", []byte(nil)))

	payload, err := store.Request(context.Background(), ledger.Request{Path: ledger.AttachmentPath(40)})
	require.NoError(t, err)
	data, err := ledger.DecodeBytes(payload)
	require.NoError(t, err)
	require.Equal(t, []byte("%PDF-1.4"), data)
	content.AssertExpectations(t)
	require.NoError(t, pool.ExpectationsWereMet())
}

func TestRequestAttachmentFromDatabase(t *testing.T) {
	store, pool := newMockStore(t, nil)
	pool.ExpectQuery(`FROM attachments WHERE id = \$1`).
		WithArgs(int64(41)).
		WillReturnRows(pgxmock.NewRows([]string{"storage_key", "data"}).AddRow("", []byte("jpeg")))

	payload, err := store.Request(context.Background(), ledger.Request{Path: ledger.AttachmentPath(41)})
	require.NoError(t, err)
	require.Equal(t, ledger.PayloadBytes, payload.Kind)
	require.Equal(t, []byte("jpeg"), payload.Bytes)
}

func TestRequestRejectsUnknownPath(t *testing.T) {
	store, _ := newMockStore(t, nil)
	_, err := store.Request(context.Background(), ledger.Request{Path: "/budgets"})
	require.ErrorIs(t, err, ledger.ErrUnknownPath)

	_, err = store.Request(context.Background(), ledger.Request{Path: "/vouchers/abc"})
	require.ErrorIs(t, err, ledger.ErrUnknownPath)
}

func TestFindPeriod(t *testing.T) {
	store, pool := newMockStore(t, nil)
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	pool.ExpectQuery(`FROM accounting_periods WHERE code = \$1`).
		WithArgs("2023").
		WillReturnRows(pgxmock.NewRows([]string{"code", "start_date", "end_date"}).AddRow("2023", start, end))

	period, err := store.FindPeriod(context.Background(), "2023")
	require.NoError(t, err)
	require.Equal(t, ledger.Period{Start: start, End: end, Tag: "2023"}, period)
}
