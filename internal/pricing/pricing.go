package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	apperrors "insight-workers/internal/common/errors"
	"insight-workers/internal/models"
)

var (
	// DefaultCreatorShare is the share shown when a creator prices a new ruleset.
	DefaultCreatorShare = decimal.RequireFromString("0.83")
	// DefaultListingShare is the share shown on marketplace listings.
	DefaultListingShare = decimal.RequireFromString("0.80")

	one = decimal.NewFromInt(1)
)

// Split divides one execution's price between creator and platform.
// CreatorPayout + PlatformFee == price exactly.
func Split(price, share decimal.Decimal) (models.RevenueSplit, error) {
	if !price.IsPositive() {
		return models.RevenueSplit{}, apperrors.NewInvalidSplitError("price must be > 0, got " + price.String())
	}
	if !share.IsPositive() || share.GreaterThan(one) {
		return models.RevenueSplit{}, apperrors.NewInvalidSplitError("share must be in (0,1], got " + share.String())
	}
	payout := price.Mul(share)
	return models.RevenueSplit{
		Price:         price,
		Share:         share,
		CreatorPayout: payout,
		PlatformFee:   price.Sub(payout),
	}, nil
}

// EstimateEarnings is the creator payout over n executions.
func EstimateEarnings(price, share decimal.Decimal, n int64) (decimal.Decimal, error) {
	if n < 0 {
		return decimal.Zero, apperrors.NewInvalidSplitError("execution count must be >= 0")
	}
	s, err := Split(price, share)
	if err != nil {
		return decimal.Zero, err
	}
	return s.CreatorPayout.Mul(decimal.NewFromInt(n)), nil
}

// ParseAmount parses a decimal amount such as "2.5" exactly.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, apperrors.NewInvalidSplitError("invalid amount " + s)
	}
	return d, nil
}

// ShareOrDefault returns share, or def when share is unset.
func ShareOrDefault(share, def decimal.Decimal) decimal.Decimal {
	if share.IsZero() {
		return def
	}
	return share
}
