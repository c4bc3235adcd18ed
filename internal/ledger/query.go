package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Request paths understood by ledger requesters.
const (
	PathVouchers     = "/vouchers"
	PathFinalization = "/documents/finalization"
)

// VoucherPath addresses the detail of one voucher.
func VoucherPath(id int64) string {
	return fmt.Sprintf("%s/%d", PathVouchers, id)
}

// AttachmentPath addresses the raw bytes of one attachment.
func AttachmentPath(id int64) string {
	return fmt.Sprintf("/attachments/%d", id)
}

// PayloadKind tags the shape of a query response.
type PayloadKind int

const (
	PayloadList PayloadKind = iota + 1
	PayloadRecord
	PayloadBytes
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadList:
		return "list"
	case PayloadRecord:
		return "record"
	case PayloadBytes:
		return "bytes"
	default:
		return "unknown"
	}
}

// Record is a single structurally typed response row.
type Record map[string]any

// Payload is the tagged response of a ledger query. Exactly one of List,
// Record or Bytes is meaningful, selected by Kind.
type Payload struct {
	Kind   PayloadKind `json:"kind"`
	List   []Record    `json:"list,omitempty"`
	Record Record      `json:"record,omitempty"`
	Bytes  []byte      `json:"bytes,omitempty"`
}

// ListPayload wraps records into a list payload.
func ListPayload(records []Record) Payload {
	return Payload{Kind: PayloadList, List: records}
}

// RecordPayload wraps a single record.
func RecordPayload(rec Record) Payload {
	return Payload{Kind: PayloadRecord, Record: rec}
}

// BytesPayload wraps raw bytes.
func BytesPayload(b []byte) Payload {
	return Payload{Kind: PayloadBytes, Bytes: b}
}

// Request describes a single ledger query.
type Request struct {
	Path       string
	Attributes map[string]string
}

// Key returns a stable representation of the request, attributes sorted.
func (r Request) Key() string {
	if len(r.Attributes) == 0 {
		return r.Path
	}
	keys := make([]string, 0, len(r.Attributes))
	for k := range r.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+r.Attributes[k])
	}
	return r.Path + "?" + strings.Join(parts, "&")
}

// Requester answers ledger queries with exactly one payload or an error.
type Requester interface {
	Request(ctx context.Context, req Request) (Payload, error)
}

var (
	// ErrUnknownPath indicates the requester has no route for the path.
	ErrUnknownPath = errors.New("ledger: unknown request path")
	// ErrNotFound indicates the addressed record does not exist.
	ErrNotFound = errors.New("ledger: record not found")
	// ErrPayloadKind indicates a response had an unexpected shape.
	ErrPayloadKind = errors.New("ledger: unexpected payload kind")
)
