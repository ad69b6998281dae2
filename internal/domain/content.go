package domain

// Vote is an entry of a post's active votes. VotePayout and VoteReputation
// are derived display fields attached by the ordering.
type Vote struct {
	Voter      string    `json:"voter"`
	Weight     RawNumber `json:"weight"`
	Rshares    RawNumber `json:"rshares"`
	Percent    int64     `json:"percent"`
	Reputation RawNumber `json:"reputation"`
	Time       string    `json:"time"`

	VotePayout     string `json:"votePayout,omitempty"`
	VoteReputation string `json:"voteReputation,omitempty"`
}

// Comment is a post or a reply as returned by get_content and
// get_content_replies. CommentPayout and CommentReputation are derived
// display fields attached by the ordering.
type Comment struct {
	Author             string    `json:"author"`
	Permlink           string    `json:"permlink"`
	Category           string    `json:"category"`
	ParentAuthor       string    `json:"parent_author"`
	ParentPermlink     string    `json:"parent_permlink"`
	Title              string    `json:"title"`
	Body               string    `json:"body"`
	JSONMetadata       string    `json:"json_metadata"`
	Created            string    `json:"created"`
	CashoutTime        string    `json:"cashout_time"`
	AuthorReputation   RawNumber `json:"author_reputation"`
	PendingPayoutValue string    `json:"pending_payout_value"`
	TotalPayoutValue   string    `json:"total_payout_value"`
	CuratorPayoutValue string    `json:"curator_payout_value"`
	MaxAcceptedPayout  string    `json:"max_accepted_payout"`
	Promoted           string    `json:"promoted"`
	ActiveVotes        []Vote    `json:"active_votes"`

	CommentPayout     string `json:"commentPayout,omitempty"`
	CommentReputation string `json:"commentReputation,omitempty"`
}

// IsReply reports whether the content is a comment rather than a top-level post.
func (c Comment) IsReply() bool {
	return c.ParentAuthor != ""
}

// Exists reports whether the node returned actual content. The node answers
// unknown permlinks with an empty object rather than an error.
func (c Comment) Exists() bool {
	return c.Body != ""
}
