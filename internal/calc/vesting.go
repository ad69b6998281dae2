package calc

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/easysteem/internal/domain"
	"github.com/vadiminshakov/easysteem/internal/units"
)

// NetVestingShares returns own + received - delegated vesting shares.
// The result is negative when more is delegated than held, which is a valid
// chain state.
func NetVestingShares(account domain.Account) (decimal.Decimal, error) {
	own, err := units.ParseAmount(account.VestingShares)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "vesting_shares")
	}
	received, err := units.ParseAmountOrZero(account.ReceivedVestingShares)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "received_vesting_shares")
	}
	delegated, err := units.ParseAmountOrZero(account.DelegatedVestingShares)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "delegated_vesting_shares")
	}

	return own.Add(received).Sub(delegated), nil
}

// DelegatedNative returns the native-currency value of the vesting shares
// received minus the ones delegated away.
func DelegatedNative(account domain.Account, props domain.ChainProperties) (decimal.Decimal, error) {
	received, err := units.ParseAmountOrZero(account.ReceivedVestingShares)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "received_vesting_shares")
	}
	delegated, err := units.ParseAmountOrZero(account.DelegatedVestingShares)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "delegated_vesting_shares")
	}

	receivedNative, err := units.VestingToNative(received, props.TotalVestingShares, props.TotalVestingFund)
	if err != nil {
		return decimal.Zero, err
	}
	delegatedNative, err := units.VestingToNative(delegated, props.TotalVestingShares, props.TotalVestingFund)
	if err != nil {
		return decimal.Zero, err
	}

	return receivedNative.Sub(delegatedNative), nil
}
