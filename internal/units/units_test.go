package units

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/easysteem/internal/domain"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
		wantErr  bool
	}{
		{name: "with suffix", raw: "123.456 XYZ", expected: "123.456"},
		{name: "steem", raw: "12.345 STEEM", expected: "12.345"},
		{name: "vests", raw: "1000.000000 VESTS", expected: "1000"},
		{name: "bare number", raw: "42", expected: "42"},
		{name: "negative", raw: "-1.5 SBD", expected: "-1.5"},
		{name: "surrounding spaces", raw: "  7.000 SBD ", expected: "7"},
		{name: "empty", raw: "", wantErr: true},
		{name: "suffix only", raw: "STEEM", wantErr: true},
		{name: "garbage", raw: "abc.def STEEM", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrMalformedAmount)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.expected).Equal(got), "got %s", got)
		})
	}
}

func TestParseAmountOrZero(t *testing.T) {
	got, err := ParseAmountOrZero("")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = ParseAmountOrZero("x y")
	require.ErrorIs(t, err, domain.ErrMalformedAmount)
}

func TestVestingToNative(t *testing.T) {
	totalShares := decimal.NewFromInt(400_000_000_000)
	totalFund := decimal.NewFromInt(200_000_000)

	got, err := VestingToNative(decimal.NewFromInt(1_000_000), totalShares, totalFund)
	require.NoError(t, err)
	assert.Equal(t, "500", got.String())

	t.Run("linear in vesting shares", func(t *testing.T) {
		base := decimal.RequireFromString("123456.789012")
		one, err := VestingToNative(base, totalShares, totalFund)
		require.NoError(t, err)
		for _, k := range []int64{2, 3, 10, 1000} {
			scaled, err := VestingToNative(base.Mul(decimal.NewFromInt(k)), totalShares, totalFund)
			require.NoError(t, err)
			assert.True(t, scaled.Round(8).Equal(one.Mul(decimal.NewFromInt(k)).Round(8)),
				"k=%d: %s vs %s", k, scaled, one.Mul(decimal.NewFromInt(k)))
		}
	})

	t.Run("zero total vesting shares", func(t *testing.T) {
		_, err := VestingToNative(decimal.NewFromInt(1), decimal.Zero, totalFund)
		require.ErrorIs(t, err, domain.ErrZeroTotalVestingShares)
	})
}

func TestBytesToHuman(t *testing.T) {
	tests := []struct {
		bytes    int64
		decimals int
		expected string
	}{
		{0, 2, "n/a"},
		{0, 0, "n/a"},
		{512, 2, "512 B"},
		{1024, 2, "1.00 KB"},
		{1536, 1, "1.5 KB"},
		{1048576, 0, "1 MB"},
		{5 * 1024 * 1024 * 1024, 2, "5.00 GB"},
		{3 << 40, 2, "3.00 TB"},
		{2048 << 40, 0, "2048 TB"},
		{-2048, 2, "-2.00 KB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, BytesToHuman(tt.bytes, tt.decimals), "bytes=%d", tt.bytes)
	}
}

func TestParseChainTime(t *testing.T) {
	want := time.Date(2018, 3, 12, 3, 43, 45, 0, time.UTC)

	got, err := ParseChainTime("2018-03-12T03:43:45")
	require.NoError(t, err)
	assert.True(t, want.Equal(got))

	got, err = ParseChainTime("2018-03-12T03:43:45Z")
	require.NoError(t, err)
	assert.True(t, want.Equal(got))

	_, err = ParseChainTime("yesterday")
	require.ErrorIs(t, err, domain.ErrMalformedTime)
}
