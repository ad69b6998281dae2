package domain

// Account is the raw account object returned by get_accounts. Only the
// fields read by the calculations are decoded.
type Account struct {
	Name                   string    `json:"name"`
	VestingShares          string    `json:"vesting_shares"`
	ReceivedVestingShares  string    `json:"received_vesting_shares"`
	DelegatedVestingShares string    `json:"delegated_vesting_shares"`
	VotingPower            int64     `json:"voting_power"`
	LastVoteTime           string    `json:"last_vote_time"`
	AverageBandwidth       RawNumber `json:"average_bandwidth"`
	LastBandwidthUpdate    string    `json:"last_bandwidth_update"`
	Balance                string    `json:"balance"`
	SBDBalance             string    `json:"sbd_balance"`
	Reputation             RawNumber `json:"reputation"`
	JSONMetadata           string    `json:"json_metadata,omitempty"`
}

// FollowCount is the result of get_follow_count.
type FollowCount struct {
	Account        string `json:"account"`
	FollowerCount  int    `json:"follower_count"`
	FollowingCount int    `json:"following_count"`
}

// Follow is a single entry of get_followers / get_following.
type Follow struct {
	Follower  string   `json:"follower"`
	Following string   `json:"following"`
	What      []string `json:"what"`
}

// Profile is the signed-in user as reported by the signing service.
type Profile struct {
	User         string         `json:"user"`
	Name         string         `json:"name"`
	Scope        []string       `json:"scope"`
	Account      Account        `json:"account"`
	UserMetadata map[string]any `json:"user_metadata"`
}
