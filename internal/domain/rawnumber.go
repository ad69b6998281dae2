package domain

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// RawNumber holds a numeric chain field that nodes emit either as a JSON
// number or as a quoted string (large int64 and uint128 values).
type RawNumber string

// UnmarshalJSON accepts both `123` and `"123"`.
func (n *RawNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = RawNumber(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return errors.Wrapf(err, "decode number %s", data)
	}
	*n = RawNumber(num.String())
	return nil
}

// Decimal parses the number as a decimal.
func (n RawNumber) Decimal() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(string(n))
	if err != nil {
		return decimal.Zero, errors.Wrapf(ErrMalformedAmount, "%q", string(n))
	}
	return d, nil
}

// Int64 parses the number as a signed integer.
func (n RawNumber) Int64() (int64, error) {
	v, err := strconv.ParseInt(string(n), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrMalformedAmount, "%q", string(n))
	}
	return v, nil
}
