package archive

import (
	"fmt"
	"strings"

	"github.com/odyssey-erp/ledger-archive/internal/ledger"
)

// VoucherFileName derives the page name of a voucher, e.g. "2023-A-00000001.html".
func VoucherFileName(tag, series string, sequence int) string {
	return fmt.Sprintf("%s-%s-%08d.html", tag, sanitize(series), sequence)
}

// AttachmentFileName derives the stored name of the index'th (1-based)
// attachment of a voucher, keeping the extension of the original name.
func AttachmentFileName(tag, series string, sequence, index int, original string) string {
	return fmt.Sprintf("%s-%s-%08d-%02d.%s", tag, sanitize(series), sequence, index, Extension(original))
}

// Extension returns everything after the first '.' of name, or name itself
// when it has no dot.
func Extension(name string) string {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return sanitize(name)
}

// separatorReplacer escapes path separators. '_' starts every escape, so
// distinct inputs always give distinct names ("A/B" -> "A_sB", "A_B" -> "A__B").
var separatorReplacer = strings.NewReplacer("_", "__", "/", "_s", "\\", "_b")

func sanitize(s string) string {
	return separatorReplacer.Replace(s)
}

// NameMap assigns attachment file names. An id keeps the name it got when
// first seen, so attachments shared by vouchers are stored once.
type NameMap struct {
	tag   string
	names map[int64]string
}

// NewNameMap creates an empty map for the period tag.
func NewNameMap(tag string) *NameMap {
	return &NameMap{tag: tag, names: make(map[int64]string)}
}

// Assign names the attachments of voucher v. It returns the file name of
// every reference in order and the ids seen for the first time.
func (m *NameMap) Assign(v ledger.QueuedVoucher, refs []ledger.AttachmentRef) (files []string, fresh []int64) {
	files = make([]string, 0, len(refs))
	for i, ref := range refs {
		name, ok := m.names[ref.ID]
		if !ok {
			name = AttachmentFileName(m.tag, v.Series, v.Sequence, i+1, ref.Name)
			m.names[ref.ID] = name
			fresh = append(fresh, ref.ID)
		}
		files = append(files, name)
	}
	return files, fresh
}

// Name returns the assigned file name for id.
func (m *NameMap) Name(id int64) (string, bool) {
	name, ok := m.names[id]
	return name, ok
}

// Len returns the number of distinct attachments named so far.
func (m *NameMap) Len() int {
	return len(m.names)
}
