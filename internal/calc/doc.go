// Package calc derives human-meaningful account and content metrics (voting
// power, vote value, bandwidth, reputation, account value, payouts) from raw
// chain fields and a chain properties snapshot.
//
// Every function is pure: the current time and the chain properties are
// passed in by the caller.
package calc
