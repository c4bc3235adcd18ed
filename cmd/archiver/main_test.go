package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	_ "github.com/odyssey-erp/ledger-archive/testing"
)

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions([]string{"-period", "2023"})
	require.NoError(t, err)
	require.Equal(t, "2023", opts.period)

	opts, err = parseOptions([]string{"-start", "2023-01-01", "-end", "2023-12-31", "-tag", "2023", "-enqueue"})
	require.NoError(t, err)
	require.True(t, opts.enqueue)
	require.Equal(t, "2023", opts.payload().PeriodTag)
	require.Equal(t, "2023-12-31", opts.payload().PeriodEnd)
}

func TestParseOptionsRejectsMixedSelectors(t *testing.T) {
	_, err := parseOptions([]string{"-period", "2023", "-tag", "2023"})
	require.Error(t, err)

	_, err = parseOptions([]string{"-start", "2023-01-01"})
	require.Error(t, err)

	_, err = parseOptions(nil)
	require.Error(t, err)
}
