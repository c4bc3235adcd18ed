package archive

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/odyssey-erp/ledger-archive/internal/accounting/reports"
	"github.com/odyssey-erp/ledger-archive/internal/ledger"
)

const finalizationFile = "finalization.pdf"

type indexView struct {
	Nav              Nav
	LedgerName       string
	Logo             bool
	PeriodLabel      string
	Closed           bool
	InProgress       bool
	Journal          string
	GeneralLedger    string
	BalanceBreakdown string
	BalanceSheet     string
	IncomeStatement  string
	Created          string
	Version          string
}

// renderIndex produces the archive front page.
func renderIndex(tpl *template.Template, nav Nav, settings ledger.Settings, logo bool, period ledger.Period, created time.Time, version string) ([]byte, error) {
	closed := period.ClosedBy(settings.ClosedThrough)
	view := indexView{
		Nav:              nav,
		LedgerName:       settings.Name,
		Logo:             logo,
		PeriodLabel:      period.Label(),
		Closed:           closed,
		InProgress:       !closed,
		Journal:          reports.KindJournal.FileName(),
		GeneralLedger:    reports.KindGeneralLedger.FileName(),
		BalanceBreakdown: reports.KindBalanceBreakdown.FileName(),
		BalanceSheet:     reports.KindBalanceSheet.FileName(),
		IncomeStatement:  reports.KindIncomeStatement.FileName(),
		Created:          created.Format(ledger.DateLayout),
		Version:          version,
	}
	buf := &bytes.Buffer{}
	if err := tpl.ExecuteTemplate(buf, "index", view); err != nil {
		return nil, fmt.Errorf("archive: render index: %w", err)
	}
	return buf.Bytes(), nil
}
