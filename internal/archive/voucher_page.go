package archive

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"github.com/odyssey-erp/ledger-archive/internal/ledger"
)

// VoucherPageRenderer renders one voucher into a standalone HTML page.
type VoucherPageRenderer struct {
	tpl         *template.Template
	chart       ledger.AccountChart
	costCenters ledger.CostCenters
	money       ledger.Money
	tag         string
	archived    string
	logger      *slog.Logger
}

// NewVoucherPageRenderer wires the lookups used while rendering vouchers of
// the period tagged tag. archivedAt is printed on every page.
func NewVoucherPageRenderer(tpl *template.Template, books ledger.Books, money ledger.Money, tag string, archivedAt time.Time, logger *slog.Logger) *VoucherPageRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	costCenters := books.CostCenters
	if costCenters == nil {
		costCenters = ledger.CostCenterIndex(nil)
	}
	return &VoucherPageRenderer{
		tpl:         tpl,
		chart:       books.Chart,
		costCenters: costCenters,
		money:       money,
		tag:         tag,
		archived:    archivedAt.Format(ledger.DateLayout),
		logger:      logger,
	}
}

type attachmentView struct {
	Name string
	File string
}

type entryView struct {
	Date          string
	AccountNumber string
	AccountLabel  string
	CostCenter    string
	Description   string
	Debit         string
	Credit        string
}

type voucherView struct {
	Nav         Nav
	Code        string
	Title       string
	Date        string
	Attachments []attachmentView
	Entries     []entryView
	Note        template.HTML
	Archived    string
}

// VoucherPage is a rendered voucher with the gaps found while rendering it.
type VoucherPage struct {
	HTML     []byte
	Warnings []Warning
}

// Render produces the page of v. files holds the archive file name of each
// attachment reference, in order. Entries on accounts missing from the chart
// are left out and reported as warnings.
func (r *VoucherPageRenderer) Render(v ledger.Voucher, files []string, nav Nav) (VoucherPage, error) {
	if len(files) != len(v.Attachments) {
		return VoucherPage{}, fmt.Errorf("archive: voucher %d has %d attachments but %d file names", v.ID, len(v.Attachments), len(files))
	}
	view := voucherView{
		Nav:      nav,
		Code:     v.Code(r.tag),
		Title:    v.Title,
		Date:     v.Date.Format(ledger.DateLayout),
		Note:     noteHTML(v.Note),
		Archived: r.archived,
	}
	for i, ref := range v.Attachments {
		view.Attachments = append(view.Attachments, attachmentView{Name: ref.Name, File: files[i]})
	}

	var warnings []Warning
	for _, e := range v.Entries {
		var (
			acc ledger.Account
			ok  bool
		)
		if r.chart != nil {
			acc, ok = r.chart.Account(e.AccountID)
		}
		if !ok {
			r.logger.Warn("voucher entry on unknown account skipped",
				slog.Int64("voucher_id", v.ID), slog.Int64("account_id", e.AccountID))
			warnings = append(warnings, Warning{
				VoucherID: v.ID,
				AccountID: e.AccountID,
				Message:   fmt.Sprintf("entry on unknown account %d skipped", e.AccountID),
			})
			continue
		}
		row := entryView{
			Date:          e.Date.Format(ledger.DateLayout),
			AccountNumber: acc.Number,
			AccountLabel:  acc.Label(),
			Description:   e.Description,
			Debit:         r.money.Format(e.Debit),
			Credit:        r.money.Format(e.Credit),
		}
		if e.CostCenterID != 0 {
			row.CostCenter = r.costCenters.CostCenterName(e.CostCenterID)
		}
		view.Entries = append(view.Entries, row)
	}

	buf := &bytes.Buffer{}
	if err := r.tpl.ExecuteTemplate(buf, "voucher", view); err != nil {
		return VoucherPage{}, fmt.Errorf("archive: render voucher %d: %w", v.ID, err)
	}
	return VoucherPage{HTML: buf.Bytes(), Warnings: warnings}, nil
}

// noteHTML escapes the note and keeps its line breaks.
func noteHTML(note string) template.HTML {
	if strings.TrimSpace(note) == "" {
		return ""
	}
	escaped := template.HTMLEscapeString(note)
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>"))
}
