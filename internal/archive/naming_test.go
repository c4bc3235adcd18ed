package archive

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/ledger-archive/internal/ledger"
	_ "github.com/odyssey-erp/ledger-archive/testing"
)

func TestVoucherFileName(t *testing.T) {
	require.Equal(t, "2023-A-00000001.html", VoucherFileName("2023", "A", 1))
	require.Equal(t, "2023-MYY-00012345.html", VoucherFileName("2023", "MYY", 12345))
}

func TestAttachmentFileName(t *testing.T) {
	require.Equal(t, "2023-A-00000001-01.pdf", AttachmentFileName("2023", "A", 1, 1, "scan.pdf"))
	require.Equal(t, "2023-A-00000007-12.tar.gz", AttachmentFileName("2023", "A", 7, 12, "backup.tar.gz"))
	require.Equal(t, "2023-A-00000001-02.README", AttachmentFileName("2023", "A", 1, 2, "README"))
}

func TestExtensionDropsSeparators(t *testing.T) {
	require.Equal(t, "pdf", Extension("scan.pdf"))
	require.Equal(t, "x_sy", Extension("a.x/y"))
	require.Equal(t, "x_by", Extension("a.x\\y"))
}

func TestFileNamesStayDistinctForSeparatorSeries(t *testing.T) {
	series := []string{"A/B", "A_B", "A\\B", "A_sB", "A__B"}
	seen := make(map[string]string)
	for _, s := range series {
		name := VoucherFileName("2023", s, 1)
		if prev, dup := seen[name]; dup {
			t.Fatalf("series %q and %q both map to %s", prev, s, name)
		}
		seen[name] = s
	}
	require.Equal(t, "2023-A_sB-00000001.html", VoucherFileName("2023", "A/B", 1))
	require.Equal(t, "2023-A__B-00000001-01.pdf", AttachmentFileName("2023", "A_B", 1, 1, "scan.pdf"))
}

func TestNameMapKeepsFirstName(t *testing.T) {
	m := NewNameMap("2023")
	first := ledger.QueuedVoucher{Series: "A", Sequence: 1}
	second := ledger.QueuedVoucher{Series: "A", Sequence: 2}

	files, fresh := m.Assign(first, []ledger.AttachmentRef{{ID: 40, Name: "scan.pdf"}, {ID: 41, Name: "receipt.jpg"}})
	require.Equal(t, []string{"2023-A-00000001-01.pdf", "2023-A-00000001-02.jpg"}, files)
	require.Equal(t, []int64{40, 41}, fresh)

	files, fresh = m.Assign(second, []ledger.AttachmentRef{{ID: 41, Name: "receipt.jpg"}, {ID: 42, Name: "memo.txt"}})
	require.Equal(t, []string{"2023-A-00000001-02.jpg", "2023-A-00000002-02.txt"}, files)
	require.Equal(t, []int64{42}, fresh)
	require.Equal(t, 3, m.Len())

	name, ok := m.Name(42)
	require.True(t, ok)
	require.Equal(t, "2023-A-00000002-02.txt", name)
}
