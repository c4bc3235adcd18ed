package archive

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/ledger-archive/internal/ledger"
	"github.com/odyssey-erp/ledger-archive/internal/platform/cache"
)

func TestExportRereadsBooksChangedBetweenRuns(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	fake := newFakeLedger()
	fake.listVouchers(voucherRecord(11, "A", 1))
	cached := cache.NewRequester(fake, client, time.Hour)

	root := t.TempDir()
	o := newTestOrchestrator(root, cached, testBooks(), allReports())
	res, err := o.Export(context.Background(), period2023)
	require.NoError(t, err)
	require.Equal(t, 1, res.Vouchers)

	corrected := voucherRecord(11, "A", 1)
	corrected[ledger.FieldTitle] = "Office rent, corrected"
	fake.listVouchers(corrected, voucherRecord(12, "A", 2))

	res, err = o.Export(context.Background(), period2023)
	require.NoError(t, err)
	require.Equal(t, 2, res.Vouchers)
	require.Equal(t, 2, fake.count(ledger.PathVouchers))

	page := readFile(t, filepath.Join(res.Dir, "vouchers", "2023-A-00000001.html"))
	require.Contains(t, page, "Office rent, corrected")
	require.FileExists(t, filepath.Join(res.Dir, "vouchers", "2023-A-00000002.html"))
}
