package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	_ "github.com/odyssey-erp/ledger-archive/testing"
)

func TestTrackerRecordsStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	require.NoError(t, m.Track("archive_export").End(nil))
	err := errors.New("boom")
	require.ErrorIs(t, m.Track("archive_export").End(err), err)

	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("archive_export", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("archive_export", "failure")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("archive_export")))
}

func TestArchivedAndWarnings(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.AddArchived("voucher", 3)
	m.AddArchived("voucher", 0)
	m.AddArchived("attachment", 1)
	m.AddWarnings(2)

	require.Equal(t, 3.0, testutil.ToFloat64(m.archived.WithLabelValues("voucher")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.archived.WithLabelValues("attachment")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.warnings))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.AddArchived("voucher", 1)
	m.AddWarnings(1)
	require.NoError(t, m.Track("noop").End(nil))
}
