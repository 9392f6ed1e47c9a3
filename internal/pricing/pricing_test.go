package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "insight-workers/internal/common/errors"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSplit_PayoutAndFeeAreExactDecimals(t *testing.T) {
	s, err := Split(d("2.5"), d("0.83"))
	require.NoError(t, err)

	assert.True(t, d("2.075").Equal(s.CreatorPayout), "payout %s", s.CreatorPayout)
	assert.True(t, d("0.425").Equal(s.PlatformFee), "fee %s", s.PlatformFee)
}

func TestSplit_SumIsExact(t *testing.T) {
	prices := []string{"0.01", "0.1", "1", "2.5", "33.333333", "50", "150", "999999.99"}
	shares := []string{"0.01", "0.3", "0.8", "0.83", "0.999", "1"}

	for _, p := range prices {
		for _, sh := range shares {
			s, err := Split(d(p), d(sh))
			require.NoError(t, err)
			assert.True(t, d(p).Equal(s.CreatorPayout.Add(s.PlatformFee)), "price=%s share=%s", p, sh)
			assert.False(t, s.PlatformFee.IsNegative())
		}
	}
}

func TestSplit_FullShare(t *testing.T) {
	s, err := Split(d("10"), d("1"))
	require.NoError(t, err)
	assert.True(t, s.PlatformFee.IsZero())
}

func TestSplit_InvalidInputs(t *testing.T) {
	tests := []struct {
		name  string
		price string
		share string
	}{
		{"zero price", "0", "0.83"},
		{"negative price", "-1", "0.83"},
		{"zero share", "10", "0"},
		{"share above one", "10", "1.01"},
		{"negative share", "10", "-0.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split(d(tt.price), d(tt.share))
			assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidSplit))
		})
	}
}

func TestEstimateEarnings(t *testing.T) {
	earned, err := EstimateEarnings(d("2.5"), DefaultCreatorShare, 10)
	require.NoError(t, err)
	assert.True(t, d("20.75").Equal(earned))

	_, err = EstimateEarnings(d("2.5"), DefaultCreatorShare, -1)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidSplit))
}

func TestParseAmount(t *testing.T) {
	a, err := ParseAmount(" 0.1 ")
	require.NoError(t, err)
	assert.Equal(t, "0.1", a.String())

	_, err = ParseAmount("ten")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidSplit))
}

func TestShareOrDefault(t *testing.T) {
	assert.True(t, DefaultListingShare.Equal(ShareOrDefault(decimal.Zero, DefaultListingShare)))
	assert.True(t, d("0.7").Equal(ShareOrDefault(d("0.7"), DefaultListingShare)))
}
