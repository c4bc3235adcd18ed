package ledger

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the display format used for dates across archive pages.
const DateLayout = "02.01.2006"

// Period is the accounting period being archived.
type Period struct {
	Start time.Time
	End   time.Time
	// Tag is the long period tag used in directory and file names.
	Tag string
}

// Validate ensures the period can be archived.
func (p Period) Validate() error {
	if p.Tag == "" {
		return errors.New("ledger: period tag required")
	}
	if p.Start.IsZero() || p.End.IsZero() {
		return errors.New("ledger: period dates required")
	}
	if p.End.Before(p.Start) {
		return fmt.Errorf("ledger: period %s ends before it starts", p.Tag)
	}
	return nil
}

// Label renders the human readable period range.
func (p Period) Label() string {
	return p.Start.Format(DateLayout) + " - " + p.End.Format(DateLayout)
}

// ClosedBy reports whether the books were closed through the period end.
func (p Period) ClosedBy(closedThrough time.Time) bool {
	if closedThrough.IsZero() {
		return false
	}
	return !dateOnly(p.End).After(dateOnly(closedThrough))
}

// QueuedVoucher is a voucher list entry waiting to be archived.
type QueuedVoucher struct {
	Series   string
	Sequence int
	ID       int64
	Date     time.Time
}

// Voucher is a single bookkeeping document with its entries and attachments.
type Voucher struct {
	ID          int64
	Date        time.Time
	Title       string
	Series      string
	Sequence    int
	Note        string
	Entries     []Entry
	Attachments []AttachmentRef
}

// Code composes the display identifier of the voucher, e.g. "A12/2023".
func (v Voucher) Code(periodTag string) string {
	if periodTag == "" {
		return fmt.Sprintf("%s%d", v.Series, v.Sequence)
	}
	return fmt.Sprintf("%s%d/%s", v.Series, v.Sequence, periodTag)
}

// Entry is one debit or credit line of a voucher.
type Entry struct {
	Date         time.Time
	AccountID    int64
	CostCenterID int64
	Description  string
	Debit        float64
	Credit       float64
}

// AttachmentRef references an attachment stored with a voucher.
type AttachmentRef struct {
	ID   int64
	Name string
}

// Account is a chart of accounts node.
type Account struct {
	ID     int64
	Number string
	Name   string
	Type   string
}

// Label returns "number name".
func (a Account) Label() string {
	if a.Name == "" {
		return a.Number
	}
	return a.Number + " " + a.Name
}

// Settings exposes the ledger configuration needed by the archive.
type Settings struct {
	Name          string
	Logo          []byte
	Training      bool
	ClosedThrough time.Time
	ArchiveRoot   string
}

// HasLogo reports whether the ledger carries a logo image.
func (s Settings) HasLogo() bool {
	return len(s.Logo) > 0
}

// Books is a snapshot of the lookups used while archiving one period.
type Books struct {
	Chart       AccountChart
	CostCenters CostCenters
	Settings    Settings
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
