package calc

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/easysteem/internal/domain"
	"github.com/vadiminshakov/easysteem/internal/units"
)

// AccountValue estimates the USD value of an account:
// native_rate * (balance + steem_power) + sbd_balance * stable_rate.
func AccountValue(account domain.Account, props domain.ChainProperties) (decimal.Decimal, error) {
	if err := props.Validate(); err != nil {
		return decimal.Zero, err
	}

	vests, err := units.ParseAmount(account.VestingShares)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "vesting_shares")
	}
	balance, err := units.ParseAmount(account.Balance)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "balance")
	}
	sbdBalance, err := units.ParseAmount(account.SBDBalance)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "sbd_balance")
	}

	steemPower, err := units.VestingToNative(vests, props.TotalVestingShares, props.TotalVestingFund)
	if err != nil {
		return decimal.Zero, err
	}

	native := props.NativeRate.Mul(balance.Add(steemPower))
	stable := sbdBalance.Mul(props.StableRate)
	return native.Add(stable), nil
}
