package ledger

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Record field names shared by requesters and decoders.
const (
	FieldID          = "id"
	FieldSeries      = "series"
	FieldSequence    = "sequence"
	FieldDate        = "date"
	FieldTitle       = "title"
	FieldNote        = "note"
	FieldEntries     = "entries"
	FieldAttachments = "attachments"
	FieldAccount     = "account"
	FieldCostCenter  = "cost_center"
	FieldDescription = "description"
	FieldDebit       = "debit"
	FieldCredit      = "credit"
	FieldName        = "name"
)

// DecodeVoucherList converts a voucher list response into queued vouchers,
// keeping response order.
func DecodeVoucherList(p Payload) ([]QueuedVoucher, error) {
	if p.Kind != PayloadList {
		return nil, fmt.Errorf("%w: voucher list is %s", ErrPayloadKind, p.Kind)
	}
	out := make([]QueuedVoucher, 0, len(p.List))
	for idx, rec := range p.List {
		id, err := rec.Int(FieldID)
		if err != nil {
			return nil, fmt.Errorf("ledger: voucher list row %d: %w", idx, err)
		}
		seq, err := rec.Int(FieldSequence)
		if err != nil {
			return nil, fmt.Errorf("ledger: voucher list row %d: %w", idx, err)
		}
		date, err := rec.Date(FieldDate)
		if err != nil {
			return nil, fmt.Errorf("ledger: voucher list row %d: %w", idx, err)
		}
		out = append(out, QueuedVoucher{
			Series:   rec.String(FieldSeries),
			Sequence: int(seq),
			ID:       id,
			Date:     date,
		})
	}
	return out, nil
}

// DecodeVoucher converts a voucher detail response.
func DecodeVoucher(p Payload) (Voucher, error) {
	if p.Kind != PayloadRecord {
		return Voucher{}, fmt.Errorf("%w: voucher is %s", ErrPayloadKind, p.Kind)
	}
	rec := p.Record
	id, err := rec.Int(FieldID)
	if err != nil {
		return Voucher{}, fmt.Errorf("ledger: voucher: %w", err)
	}
	seq, err := rec.Int(FieldSequence)
	if err != nil {
		return Voucher{}, fmt.Errorf("ledger: voucher %d: %w", id, err)
	}
	date, err := rec.Date(FieldDate)
	if err != nil {
		return Voucher{}, fmt.Errorf("ledger: voucher %d: %w", id, err)
	}
	v := Voucher{
		ID:       id,
		Date:     date,
		Title:    rec.String(FieldTitle),
		Series:   rec.String(FieldSeries),
		Sequence: int(seq),
		Note:     rec.String(FieldNote),
	}
	for idx, row := range rec.Records(FieldEntries) {
		entry, err := decodeEntry(row, date)
		if err != nil {
			return Voucher{}, fmt.Errorf("ledger: voucher %d entry %d: %w", id, idx, err)
		}
		v.Entries = append(v.Entries, entry)
	}
	for idx, row := range rec.Records(FieldAttachments) {
		attID, err := row.Int(FieldID)
		if err != nil {
			return Voucher{}, fmt.Errorf("ledger: voucher %d attachment %d: %w", id, idx, err)
		}
		v.Attachments = append(v.Attachments, AttachmentRef{ID: attID, Name: row.String(FieldName)})
	}
	return v, nil
}

// DecodeBytes extracts the raw content of a bytes payload.
func DecodeBytes(p Payload) ([]byte, error) {
	if p.Kind != PayloadBytes {
		return nil, fmt.Errorf("%w: attachment is %s", ErrPayloadKind, p.Kind)
	}
	return p.Bytes, nil
}

func decodeEntry(rec Record, fallback time.Time) (Entry, error) {
	account, err := rec.Int(FieldAccount)
	if err != nil {
		return Entry{}, err
	}
	date := fallback
	if _, ok := rec[FieldDate]; ok {
		if date, err = rec.Date(FieldDate); err != nil {
			return Entry{}, err
		}
	}
	costCenter, _ := rec.Int(FieldCostCenter)
	return Entry{
		Date:         date,
		AccountID:    account,
		CostCenterID: costCenter,
		Description:  rec.String(FieldDescription),
		Debit:        rec.Float(FieldDebit),
		Credit:       rec.Float(FieldCredit),
	}, nil
}

// Int reads an integer field. Values that went through a JSON round trip
// arrive as float64 or json.Number and are accepted too.
func (r Record) Int(key string) (int64, error) {
	raw, ok := r[key]
	if !ok || raw == nil {
		return 0, fmt.Errorf("field %q missing", key)
	}
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("field %q is not an integer", key)
		}
		return int64(v), nil
	case json.Number:
		return v.Int64()
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	default:
		return 0, fmt.Errorf("field %q has type %T", key, raw)
	}
}

// Float reads a numeric field, returning zero when absent.
func (r Record) Float(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f
	default:
		return 0
	}
}

// String reads a text field, returning "" when absent.
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Date reads a date field given as time.Time or an ISO formatted string.
func (r Record) Date(key string) (time.Time, error) {
	switch v := r[key].(type) {
	case time.Time:
		return v, nil
	case string:
		if t, err := time.Parse("2006-01-02", v); err == nil {
			return t, nil
		}
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("field %q: %w", key, err)
		}
		return t, nil
	case nil:
		return time.Time{}, fmt.Errorf("field %q missing", key)
	default:
		return time.Time{}, fmt.Errorf("field %q has type %T", key, v)
	}
}

// Records reads a nested list of records.
func (r Record) Records(key string) []Record {
	switch v := r[key].(type) {
	case []Record:
		return v
	case []map[string]any:
		out := make([]Record, 0, len(v))
		for _, m := range v {
			out = append(out, Record(m))
		}
		return out
	case []any:
		out := make([]Record, 0, len(v))
		for _, item := range v {
			switch m := item.(type) {
			case Record:
				out = append(out, m)
			case map[string]any:
				out = append(out, Record(m))
			}
		}
		return out
	default:
		return nil
	}
}
