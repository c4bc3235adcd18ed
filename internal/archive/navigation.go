package archive

import (
	"bytes"
	"html/template"

	"github.com/odyssey-erp/ledger-archive/internal/ledger"
)

// Nav is the view of the navigation bar shared by every archive page.
type Nav struct {
	Prefix      string
	LedgerName  string
	Logo        bool
	Training    bool
	PeriodLabel string
	Next        string
	Previous    string
}

// NavigationBuilder builds navigation bars for the pages of one export.
type NavigationBuilder struct {
	tpl      *template.Template
	settings ledger.Settings
	logo     bool
	period   ledger.Period
	vouchers []ledger.QueuedVoucher
}

// NewNavigationBuilder prepares navigation for period. logo tells whether a
// logo image was written to the archive root.
func NewNavigationBuilder(tpl *template.Template, settings ledger.Settings, logo bool, period ledger.Period) *NavigationBuilder {
	return &NavigationBuilder{tpl: tpl, settings: settings, logo: logo, period: period}
}

// SetVouchers records the ordered voucher sequence used for prev/next links.
func (b *NavigationBuilder) SetVouchers(vouchers []ledger.QueuedVoucher) {
	b.vouchers = vouchers
}

func (b *NavigationBuilder) base(prefix string) Nav {
	return Nav{
		Prefix:      prefix,
		LedgerName:  b.settings.Name,
		Logo:        b.logo,
		Training:    b.settings.Training,
		PeriodLabel: b.period.Label(),
	}
}

// ForIndex returns the bar of pages in the archive root. Prev and next
// cells stay empty placeholders.
func (b *NavigationBuilder) ForIndex() Nav {
	return b.base("")
}

// ForVoucher returns the bar of the i'th (0-based) voucher page.
func (b *NavigationBuilder) ForVoucher(i int) Nav {
	nav := b.base("../")
	if i+1 < len(b.vouchers) {
		next := b.vouchers[i+1]
		nav.Next = VoucherFileName(b.period.Tag, next.Series, next.Sequence)
	}
	if i > 0 && i-1 < len(b.vouchers) {
		prev := b.vouchers[i-1]
		nav.Previous = VoucherFileName(b.period.Tag, prev.Series, prev.Sequence)
	}
	return nav
}

// Render executes the navigation template for nav.
func (b *NavigationBuilder) Render(nav Nav) (string, error) {
	buf := &bytes.Buffer{}
	if err := b.tpl.ExecuteTemplate(buf, "nav", nav); err != nil {
		return "", err
	}
	return buf.String(), nil
}
