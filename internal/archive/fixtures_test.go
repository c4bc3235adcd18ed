package archive

import (
	"context"
	"sync"
	"time"

	"github.com/odyssey-erp/ledger-archive/internal/accounting/reports"
	"github.com/odyssey-erp/ledger-archive/internal/ledger"
)

var (
	periodStart = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	periodEnd   = time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)
	period2023  = ledger.Period{Start: periodStart, End: periodEnd, Tag: "2023"}
)

// fakeLedger answers requests from canned payloads.
type fakeLedger struct {
	mu       sync.Mutex
	payloads map[string]ledger.Payload
	failures map[string]error
	delays   map[string]time.Duration
	calls    map[string]int
	block    bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		payloads: make(map[string]ledger.Payload),
		failures: make(map[string]error),
		delays:   make(map[string]time.Duration),
		calls:    make(map[string]int),
	}
}

func (f *fakeLedger) Request(ctx context.Context, req ledger.Request) (ledger.Payload, error) {
	f.mu.Lock()
	f.calls[req.Path]++
	payload, ok := f.payloads[req.Path]
	err := f.failures[req.Path]
	delay := f.delays[req.Path]
	block := f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return ledger.Payload{}, ctx.Err()
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ledger.Payload{}, ctx.Err()
		}
	}
	if err != nil {
		return ledger.Payload{}, err
	}
	if !ok {
		return ledger.Payload{}, ledger.ErrNotFound
	}
	return payload, nil
}

func (f *fakeLedger) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

func (f *fakeLedger) listVouchers(vouchers ...ledger.Record) {
	list := make([]ledger.Record, 0, len(vouchers))
	for _, v := range vouchers {
		list = append(list, ledger.Record{
			ledger.FieldID:       v[ledger.FieldID],
			ledger.FieldSeries:   v[ledger.FieldSeries],
			ledger.FieldSequence: v[ledger.FieldSequence],
			ledger.FieldDate:     v[ledger.FieldDate],
		})
		f.payloads[ledger.VoucherPath(v[ledger.FieldID].(int64))] = ledger.RecordPayload(v)
	}
	f.payloads[ledger.PathVouchers] = ledger.ListPayload(list)
}

func voucherRecord(id int64, series string, seq int, attachments ...ledger.Record) ledger.Record {
	return ledger.Record{
		ledger.FieldID:       id,
		ledger.FieldSeries:   series,
		ledger.FieldSequence: seq,
		ledger.FieldDate:     time.Date(2023, 3, seq, 0, 0, 0, 0, time.UTC),
		ledger.FieldTitle:    "Office rent",
		ledger.FieldEntries: []ledger.Record{
			{ledger.FieldAccount: int64(2), ledger.FieldDescription: "Rent", ledger.FieldDebit: 12.3},
			{ledger.FieldAccount: int64(1), ledger.FieldDescription: "Bank", ledger.FieldCredit: 12.3},
		},
		ledger.FieldAttachments: attachments,
	}
}

func attachmentRecord(id int64, name string) ledger.Record {
	return ledger.Record{ledger.FieldID: id, ledger.FieldName: name}
}

// fakeReport returns a minimal report document.
type fakeReport struct {
	kind  reports.Kind
	delay time.Duration
	err   error
}

func (f fakeReport) Kind() reports.Kind {
	return f.kind
}

func (f fakeReport) Build(ctx context.Context, _ reports.Request) (string, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return "<!DOCTYPE html>\n<html>\n<head><title>" + string(f.kind) + "</title></head>\n<body class=\"report\">\n<h1>" + string(f.kind) + "</h1>\n</body>\n</html>\n", nil
}

func allReports() []ReportBuilder {
	return []ReportBuilder{
		fakeReport{kind: reports.KindJournal},
		fakeReport{kind: reports.KindGeneralLedger},
		fakeReport{kind: reports.KindBalanceBreakdown},
		fakeReport{kind: reports.KindBalanceSheet},
		fakeReport{kind: reports.KindIncomeStatement},
	}
}

func testBooks() ledger.Books {
	return ledger.Books{
		Chart: ledger.NewChart([]ledger.Account{
			{ID: 1, Number: "1910", Name: "Bank", Type: "ASSET"},
			{ID: 2, Number: "4000", Name: "Rent", Type: "EXPENSE"},
		}),
		CostCenters: ledger.CostCenterIndex{5: "Helsinki office"},
		Settings:    ledger.Settings{Name: "Example Oy"},
	}
}

func newTestOrchestrator(root string, requester ledger.Requester, books ledger.Books, builders []ReportBuilder) *Orchestrator {
	o, err := NewOrchestrator(Config{
		Requester:  requester,
		Reports:    builders,
		Books:      StaticBooks(books),
		Root:       root,
		Version:    "1.2.3",
		Locale:     "en",
		Timeout:    5 * time.Second,
		Retries:    1,
		RetryDelay: time.Millisecond,
		Now:        func() time.Time { return time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		panic(err)
	}
	return o
}
