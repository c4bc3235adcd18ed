package archive

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/ledger-archive/internal/ledger"
)

func renderVoucher(t *testing.T, v ledger.Voucher, files []string) VoucherPage {
	t.Helper()
	tpl, err := parsePages()
	require.NoError(t, err)
	r := NewVoucherPageRenderer(tpl, testBooks(), ledger.NewMoney("en"), "2023", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), nil)
	page, err := r.Render(v, files, Nav{Prefix: "../", LedgerName: "Example Oy"})
	require.NoError(t, err)
	return page
}

func TestVoucherPageMoneyCells(t *testing.T) {
	v := ledger.Voucher{
		ID: 7, Series: "A", Sequence: 1, Date: periodStart, Title: "Rounding",
		Entries: []ledger.Entry{
			{Date: periodStart, AccountID: 2, Debit: 12.3},
			{Date: periodStart, AccountID: 1, Debit: 0.00000001, Credit: 12.3},
		},
	}
	html := string(renderVoucher(t, v, nil).HTML)
	require.Contains(t, html, `<td class="amount">12.30 €</td><td class="amount"></td>`)
	require.Contains(t, html, `<td class="amount"></td><td class="amount">12.30 €</td>`)
	require.NotContains(t, html, "0.00 €")
}

func TestVoucherPageHeaderAndLinks(t *testing.T) {
	v := ledger.Voucher{
		ID: 7, Series: "A", Sequence: 1, Date: time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC), Title: "Office rent",
		Entries: []ledger.Entry{
			{Date: periodStart, AccountID: 2, CostCenterID: 5, Description: "Rent", Debit: 500},
			{Date: periodStart, AccountID: 1, Description: "Bank", Credit: 500},
		},
		Attachments: []ledger.AttachmentRef{{ID: 40, Name: "scan.pdf"}, {ID: 41, Name: "invoice.png"}},
	}
	html := string(renderVoucher(t, v, []string{"2023-A-00000001-01.pdf", "2023-A-00000001-02.png"}).HTML)

	require.Contains(t, html, "A1/2023")
	require.Contains(t, html, "01.03.2023")
	require.Contains(t, html, `<iframe id="viewer" name="viewer" src="../attachments/2023-A-00000001-01.pdf">`)
	require.Contains(t, html, `data-src="../attachments/2023-A-00000001-02.png"`)
	require.Contains(t, html, ">Open</a>")
	require.Contains(t, html, `href="../ledger.html#4000"`)
	require.Contains(t, html, "Helsinki office")
	require.Equal(t, 1, strings.Count(html, "Helsinki office"))
	require.Contains(t, html, "Archived 01.02.2024")
	require.Contains(t, html, `<script src="../viewer.js"></script>`)
	require.Contains(t, html, `href="../arkisto.css"`)
}

func TestVoucherPageWithoutAttachmentsHasNoViewer(t *testing.T) {
	v := ledger.Voucher{ID: 8, Series: "A", Sequence: 2, Date: periodStart}
	html := string(renderVoucher(t, v, nil).HTML)
	require.NotContains(t, html, "<iframe")
}

func TestVoucherPageEscapesNote(t *testing.T) {
	v := ledger.Voucher{ID: 9, Series: "B", Sequence: 3, Date: periodStart, Note: "<script>alert(1)</script>\nsecond line", Title: `Tom & "Jerry"`}
	html := string(renderVoucher(t, v, nil).HTML)
	require.Contains(t, html, "&lt;script&gt;alert(1)&lt;/script&gt;<br>second line")
	require.NotContains(t, html, "<script>alert(1)")
	require.Contains(t, html, "Tom &amp; &#34;Jerry&#34;")
}

func TestVoucherPageSkipsUnknownAccounts(t *testing.T) {
	v := ledger.Voucher{
		ID: 10, Series: "A", Sequence: 4, Date: periodStart,
		Entries: []ledger.Entry{
			{Date: periodStart, AccountID: 2, Debit: 5},
			{Date: periodStart, AccountID: 99, Credit: 5},
		},
	}
	page := renderVoucher(t, v, nil)
	require.Len(t, page.Warnings, 1)
	require.Equal(t, int64(99), page.Warnings[0].AccountID)
	require.Equal(t, int64(10), page.Warnings[0].VoucherID)
	require.Equal(t, 1, strings.Count(string(page.HTML), `href="../ledger.html#`))
}

func TestVoucherPageRejectsMismatchedFiles(t *testing.T) {
	tpl, err := parsePages()
	require.NoError(t, err)
	r := NewVoucherPageRenderer(tpl, testBooks(), ledger.NewMoney("en"), "2023", periodEnd, nil)
	_, err = r.Render(ledger.Voucher{Attachments: []ledger.AttachmentRef{{ID: 1, Name: "a.pdf"}}}, nil, Nav{})
	require.Error(t, err)
}
