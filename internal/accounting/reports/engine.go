package reports

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/odyssey-erp/ledger-archive/internal/ledger"
	"github.com/odyssey-erp/ledger-archive/web"
)

// Kind identifies one of the archived reports.
type Kind string

const (
	KindJournal          Kind = "journal"
	KindGeneralLedger    Kind = "ledger"
	KindBalanceBreakdown Kind = "balance-breakdown"
	KindBalanceSheet     Kind = "balance-sheet"
	KindIncomeStatement  Kind = "income-statement"
)

// FileName is the archive file the report is written to.
func (k Kind) FileName() string {
	return string(k) + ".html"
}

// Request carries the span a report covers. Balance sheets use AsOf only.
type Request struct {
	Start time.Time
	End   time.Time
	AsOf  time.Time
}

// Source loads the accounting data reports are built from.
type Source interface {
	JournalLines(ctx context.Context, start, end time.Time) ([]JournalLine, error)
	AccountBalances(ctx context.Context, start, end time.Time) ([]AccountBalance, error)
}

// Engine renders one report kind into a complete HTML document.
type Engine struct {
	kind   Kind
	source Source
	tpl    *template.Template
	ledger string
}

// Engines holds one engine per archived report.
type Engines struct {
	Journal          *Engine
	GeneralLedger    *Engine
	BalanceBreakdown *Engine
	BalanceSheet     *Engine
	IncomeStatement  *Engine
}

// NewEngines parses the report templates and wires every report kind to source.
func NewEngines(source Source, ledgerName, locale string) (*Engines, error) {
	if source == nil {
		return nil, fmt.Errorf("reports: source required")
	}
	money := ledger.NewMoney(locale)
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(ledger.DateLayout)
		},
		"money":  money.Format,
		"amount": money.Amount,
	}
	tpl, err := template.New("reports").Funcs(funcMap).ParseFS(web.Templates, web.ReportPages)
	if err != nil {
		return nil, err
	}
	mk := func(kind Kind) *Engine {
		return &Engine{kind: kind, source: source, tpl: tpl, ledger: ledgerName}
	}
	return &Engines{
		Journal:          mk(KindJournal),
		GeneralLedger:    mk(KindGeneralLedger),
		BalanceBreakdown: mk(KindBalanceBreakdown),
		BalanceSheet:     mk(KindBalanceSheet),
		IncomeStatement:  mk(KindIncomeStatement),
	}, nil
}

type document struct {
	Title  string
	Ledger string
	Span   string
	Body   any
}

// Kind returns the report kind rendered by the engine.
func (e *Engine) Kind() Kind {
	return e.kind
}

// Build loads the report data for req and renders the HTML document.
func (e *Engine) Build(ctx context.Context, req Request) (string, error) {
	if e == nil || e.tpl == nil || e.source == nil {
		return "", fmt.Errorf("reports: engine not initialised")
	}
	doc := document{Ledger: e.ledger, Span: spanLabel(req.Start, req.End)}
	var name string
	switch e.kind {
	case KindJournal:
		lines, err := e.source.JournalLines(ctx, req.Start, req.End)
		if err != nil {
			return "", err
		}
		doc.Title, name, doc.Body = "Journal", "journal", lines
	case KindGeneralLedger:
		lines, err := e.source.JournalLines(ctx, req.Start, req.End)
		if err != nil {
			return "", err
		}
		doc.Title, name, doc.Body = "General ledger", "general_ledger", BuildGeneralLedger(lines)
	case KindBalanceBreakdown:
		balances, err := e.source.AccountBalances(ctx, req.Start, req.End)
		if err != nil {
			return "", err
		}
		doc.Title, name, doc.Body = "Balance breakdown", "balance_breakdown", BuildBalanceBreakdown(balances)
	case KindBalanceSheet:
		balances, err := e.source.AccountBalances(ctx, time.Time{}, req.AsOf)
		if err != nil {
			return "", err
		}
		doc.Span = req.AsOf.Format(ledger.DateLayout)
		doc.Title, name, doc.Body = "Balance sheet", "balance_sheet", BuildBalanceSheet(req.AsOf, balances)
	case KindIncomeStatement:
		balances, err := e.source.AccountBalances(ctx, req.Start, req.End)
		if err != nil {
			return "", err
		}
		doc.Title, name, doc.Body = "Income statement", "income_statement", BuildIncomeStatement(balances)
	default:
		return "", fmt.Errorf("reports: unknown kind %q", e.kind)
	}
	buf := &bytes.Buffer{}
	if err := e.tpl.ExecuteTemplate(buf, name, doc); err != nil {
		return "", fmt.Errorf("reports: render %s: %w", e.kind, err)
	}
	return buf.String(), nil
}

func spanLabel(start, end time.Time) string {
	if start.IsZero() {
		return end.Format(ledger.DateLayout)
	}
	return start.Format(ledger.DateLayout) + " - " + end.Format(ledger.DateLayout)
}
