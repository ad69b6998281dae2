// Package ordering ranks votes and comments for display.
//
// The functions never touch their input: they return a new slice of copies
// with the derived display fields attached, sorted stably so equal keys keep
// their input order.
package ordering

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	reputationDecimals = 2
	payoutDecimals     = 3
)

type direction int

const (
	descending direction = iota
	ascending
)

type ranked[T any] struct {
	item T
	key  decimal.Decimal
}

// rank copies items, lets key attach derived fields to each copy and
// compute its sort key, then sorts the copies stably by key.
func rank[T any](items []T, dir direction, key func(item *T) (decimal.Decimal, error)) ([]T, error) {
	entries := make([]ranked[T], len(items))
	for i := range items {
		entries[i].item = items[i]
		k, err := key(&entries[i].item)
		if err != nil {
			return nil, errors.Wrapf(err, "item %d", i)
		}
		entries[i].key = k
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if dir == ascending {
			return entries[i].key.LessThan(entries[j].key)
		}
		return entries[i].key.GreaterThan(entries[j].key)
	})

	out := make([]T, len(entries))
	for i := range entries {
		out[i] = entries[i].item
	}
	return out, nil
}
