package archive

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRemoteQuery indicates the ledger store rejected or lost a request.
	ErrRemoteQuery = errors.New("archive: remote query failed")
	// ErrReport indicates a report engine failed to produce its document.
	ErrReport = errors.New("archive: report generation failed")
	// ErrFilesystem indicates the archive directory could not be written.
	ErrFilesystem = errors.New("archive: filesystem failure")
	// ErrDuplicateVoucher indicates two vouchers of the period map to the same page.
	ErrDuplicateVoucher = errors.New("archive: duplicate voucher page")
	// ErrTimeout indicates the export exceeded its time budget.
	ErrTimeout = errors.New("archive: export timed out")
	// ErrIncomplete is matched by every failed export.
	ErrIncomplete = errors.New("archive: export incomplete")
)

// IncompleteError reports an aborted export. The previous archive of the
// period is left untouched and Staging keeps the partial output.
type IncompleteError struct {
	Tag     string
	Staging string
	Cause   error
}

func (e *IncompleteError) Error() string {
	if e.Staging == "" {
		return fmt.Sprintf("archive %s incomplete: %v", e.Tag, e.Cause)
	}
	return fmt.Sprintf("archive %s incomplete (partial output in %s): %v", e.Tag, e.Staging, e.Cause)
}

// Unwrap exposes both ErrIncomplete and the underlying cause.
func (e *IncompleteError) Unwrap() []error {
	return []error{ErrIncomplete, e.Cause}
}

// Warning is a data integrity gap absorbed during the export.
type Warning struct {
	VoucherID int64
	AccountID int64
	Message   string
}

func (w Warning) String() string {
	if w.VoucherID == 0 {
		return w.Message
	}
	return fmt.Sprintf("voucher %d: %s", w.VoucherID, w.Message)
}

// Result summarises a completed export.
type Result struct {
	RunID       string
	Tag         string
	Dir         string
	Vouchers    int
	Attachments int
	Reports     int
	Logo        bool
	Warnings    []Warning
	Duration    time.Duration
}

func fsError(op, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrFilesystem, op, path, err)
}
