package ledger

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	_ "github.com/odyssey-erp/ledger-archive/testing"
)

func TestDecodeVoucherListKeepsOrder(t *testing.T) {
	payload := ListPayload([]Record{
		{FieldID: int64(11), FieldSeries: "A", FieldSequence: 1, FieldDate: time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC)},
		{FieldID: int64(12), FieldSeries: "A", FieldSequence: 2, FieldDate: "2023-01-06"},
	})

	list, err := DecodeVoucherList(payload)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, int64(11), list[0].ID)
	require.Equal(t, 2, list[1].Sequence)
	require.Equal(t, 6, list[1].Date.Day())
}

func TestDecodeVoucherListRejectsWrongKind(t *testing.T) {
	_, err := DecodeVoucherList(BytesPayload([]byte("x")))
	require.ErrorIs(t, err, ErrPayloadKind)
}

func TestDecodeVoucherAfterJSONRoundTrip(t *testing.T) {
	original := RecordPayload(Record{
		FieldID:       int64(7),
		FieldSeries:   "B",
		FieldSequence: 3,
		FieldDate:     time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC),
		FieldTitle:    "Office chairs",
		FieldNote:     "line one\nline two",
		FieldEntries: []Record{
			{FieldAccount: int64(1910), FieldDebit: 0.0, FieldCredit: 120.5, FieldDescription: "Bank"},
			{FieldAccount: int64(7680), FieldCostCenter: int64(2), FieldDebit: 120.5, FieldCredit: 0.0},
		},
		FieldAttachments: []Record{{FieldID: int64(99), FieldName: "receipt.pdf"}},
	})
	raw, err := json.Marshal(original)
	require.NoError(t, err)
	var decoded Payload
	require.NoError(t, json.Unmarshal(raw, &decoded))

	v, err := DecodeVoucher(decoded)
	require.NoError(t, err)
	require.Equal(t, int64(7), v.ID)
	require.Equal(t, "B", v.Series)
	require.Len(t, v.Entries, 2)
	require.Equal(t, int64(2), v.Entries[1].CostCenterID)
	require.Equal(t, 120.5, v.Entries[0].Credit)
	require.Equal(t, v.Date, v.Entries[0].Date)
	require.Equal(t, []AttachmentRef{{ID: 99, Name: "receipt.pdf"}}, v.Attachments)
	require.Equal(t, "B3/2023", v.Code("2023"))
}

func TestPeriodClosedBy(t *testing.T) {
	p := Period{Start: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), Tag: "2023"}
	require.NoError(t, p.Validate())
	require.Equal(t, "01.01.2023 - 31.12.2023", p.Label())
	require.True(t, p.ClosedBy(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)))
	require.False(t, p.ClosedBy(time.Date(2023, 6, 30, 0, 0, 0, 0, time.UTC)))
	require.False(t, p.ClosedBy(time.Time{}))
}

func TestMoneyFormat(t *testing.T) {
	money := NewMoney("en")
	require.Equal(t, "", money.Format(0.00000001))
	require.Equal(t, "12.30 €", money.Format(12.3))
	require.Equal(t, "-4.00 €", money.Format(-4))
}

func TestRequestKeySortsAttributes(t *testing.T) {
	req := Request{Path: PathVouchers, Attributes: map[string]string{"start": "2023-01-01", "order": "voucher"}}
	require.Equal(t, "/vouchers?order=voucher&start=2023-01-01", req.Key())
	require.Equal(t, "/vouchers/5", VoucherPath(5))
	require.Equal(t, "/attachments/9", AttachmentPath(9))
}
