// Package operations builds the chain operations broadcast through the
// signing service.
package operations

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/easysteem/internal/domain"
)

const (
	maxAcceptedPayout      = "1000000.000 SBD"
	declinedPayout         = "0.000 SBD"
	fullStableShare        = 10000
	followPluginID         = "follow"
	defaultMetadataFormat  = "markdown"
	maxBeneficiaryWeightBP = 10000
)

var (
	hundred   = decimal.NewFromInt(100)
	maxWeight = decimal.NewFromInt(100)

	// ErrInvalidBeneficiaries is returned when beneficiary weights are
	// negative or add up to more than 100%.
	ErrInvalidBeneficiaries = errors.New("beneficiary weights must be positive and sum to at most 100%")
)

// VoteOp is the payload of a vote operation. Weight is in basis points.
type VoteOp struct {
	Voter    string `json:"voter"`
	Author   string `json:"author"`
	Permlink string `json:"permlink"`
	Weight   int64  `json:"weight"`
}

// CommentOp is the payload of a comment operation, used for posts and replies.
type CommentOp struct {
	ParentAuthor   string `json:"parent_author"`
	ParentPermlink string `json:"parent_permlink"`
	Author         string `json:"author"`
	Permlink       string `json:"permlink"`
	Title          string `json:"title"`
	Body           string `json:"body"`
	JSONMetadata   string `json:"json_metadata"`
}

// CommentOptionsOp is the payload of a comment_options operation.
type CommentOptionsOp struct {
	Author               string `json:"author"`
	Permlink             string `json:"permlink"`
	MaxAcceptedPayout    string `json:"max_accepted_payout"`
	PercentSteemDollars  int    `json:"percent_steem_dollars"`
	AllowVotes           bool   `json:"allow_votes"`
	AllowCurationRewards bool   `json:"allow_curation_rewards"`
	Extensions           []any  `json:"extensions"`
}

// BeneficiaryRoute is a beneficiary on the wire, weight in basis points.
type BeneficiaryRoute struct {
	Account string `json:"account"`
	Weight  int64  `json:"weight"`
}

type beneficiariesExtension struct {
	Beneficiaries []BeneficiaryRoute `json:"beneficiaries"`
}

// DeleteCommentOp is the payload of a delete_comment operation.
type DeleteCommentOp struct {
	Author   string `json:"author"`
	Permlink string `json:"permlink"`
}

// CustomJSONOp is the payload of a custom_json operation.
type CustomJSONOp struct {
	RequiredAuths        []string `json:"required_auths"`
	RequiredPostingAuths []string `json:"required_posting_auths"`
	ID                   string   `json:"id"`
	JSON                 string   `json:"json"`
}

// Vote builds a vote of weightPercent (-100..100, negative to down-vote).
func Vote(voter, author, permlink string, weightPercent decimal.Decimal) (domain.Operation, error) {
	if weightPercent.Abs().GreaterThan(maxWeight) {
		return domain.Operation{}, errors.Wrapf(domain.ErrInvalidVoteWeight, "got %s", weightPercent)
	}
	return domain.Operation{
		Name: "vote",
		Payload: VoteOp{
			Voter:    voter,
			Author:   author,
			Permlink: permlink,
			Weight:   weightPercent.Mul(hundred).Round(0).IntPart(),
		},
	}, nil
}

// Post describes a post or reply to publish or update.
type Post struct {
	ParentAuthor   string
	ParentPermlink string
	Author         string
	Permlink       string
	Title          string
	Body           string
	Tags           []string
	// App is written to the metadata as "name/version".
	App string
	// RewardOption is left empty when updating existing content.
	RewardOption  domain.RewardOption
	Beneficiaries []domain.Beneficiary
	// Metadata overrides the generated tags, app and format keys.
	Metadata map[string]any
}

// Publish builds the comment operation for p, followed by a comment_options
// operation when p declines the payout, asks for full Steem Power or routes
// rewards to beneficiaries.
func Publish(p Post) ([]domain.Operation, error) {
	if p.RewardOption != "" && !p.RewardOption.IsValid() {
		return nil, errors.Errorf("unknown reward option %q", string(p.RewardOption))
	}

	metadata, err := buildMetadata(p)
	if err != nil {
		return nil, err
	}

	ops := []domain.Operation{{
		Name: "comment",
		Payload: CommentOp{
			ParentAuthor:   p.ParentAuthor,
			ParentPermlink: p.ParentPermlink,
			Author:         p.Author,
			Permlink:       p.Permlink,
			Title:          p.Title,
			Body:           p.Body,
			JSONMetadata:   metadata,
		},
	}}

	options := CommentOptionsOp{
		Author:               p.Author,
		Permlink:             p.Permlink,
		MaxAcceptedPayout:    maxAcceptedPayout,
		PercentSteemDollars:  fullStableShare,
		AllowVotes:           true,
		AllowCurationRewards: true,
		Extensions:           []any{},
	}
	switch p.RewardOption {
	case domain.RewardNone:
		options.MaxAcceptedPayout = declinedPayout
	case domain.RewardCentPercentSP:
		options.PercentSteemDollars = 0
	}

	if len(p.Beneficiaries) > 0 {
		routes, err := beneficiaryRoutes(p.Beneficiaries)
		if err != nil {
			return nil, err
		}
		options.Extensions = []any{[]any{0, beneficiariesExtension{Beneficiaries: routes}}}
	}

	if p.RewardOption == domain.RewardNone || p.RewardOption == domain.RewardCentPercentSP || len(p.Beneficiaries) > 0 {
		ops = append(ops, domain.Operation{Name: "comment_options", Payload: options})
	}
	return ops, nil
}

func buildMetadata(p Post) (string, error) {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	metadata := map[string]any{
		"tags":   tags,
		"app":    p.App,
		"format": defaultMetadataFormat,
	}
	for k, v := range p.Metadata {
		metadata[k] = v
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return "", errors.Wrap(err, "encode json_metadata")
	}
	return string(raw), nil
}

// beneficiaryRoutes converts percentages to basis points, sorted by account
// name ignoring case as the chain requires.
func beneficiaryRoutes(beneficiaries []domain.Beneficiary) ([]BeneficiaryRoute, error) {
	routes := make([]BeneficiaryRoute, 0, len(beneficiaries))
	var total int64
	for _, b := range beneficiaries {
		weight := decimal.NewFromFloat(b.Weight).Mul(hundred).Round(0).IntPart()
		if weight <= 0 {
			return nil, errors.Wrapf(ErrInvalidBeneficiaries, "%s: %v%%", b.Account, b.Weight)
		}
		total += weight
		routes = append(routes, BeneficiaryRoute{Account: b.Account, Weight: weight})
	}
	if total > maxBeneficiaryWeightBP {
		return nil, errors.Wrapf(ErrInvalidBeneficiaries, "total %d bp", total)
	}

	sort.SliceStable(routes, func(i, j int) bool {
		return strings.ToUpper(routes[i].Account) < strings.ToUpper(routes[j].Account)
	})
	return routes, nil
}

// DeleteComment builds a delete_comment operation.
func DeleteComment(author, permlink string) domain.Operation {
	return domain.Operation{
		Name:    "delete_comment",
		Payload: DeleteCommentOp{Author: author, Permlink: permlink},
	}
}

// Follow makes follower follow following's blog.
func Follow(follower, following string) (domain.Operation, error) {
	return followOp(follower, following, []string{"blog"})
}

// Unfollow clears any follow or ignore of following by follower.
func Unfollow(follower, following string) (domain.Operation, error) {
	return followOp(follower, following, []string{})
}

// Ignore mutes following for follower.
func Ignore(follower, following string) (domain.Operation, error) {
	return followOp(follower, following, []string{"ignore"})
}

func followOp(follower, following string, what []string) (domain.Operation, error) {
	return customJSON(follower, []any{"follow", map[string]any{
		"follower":  follower,
		"following": following,
		"what":      what,
	}})
}

// Reblog shares author/permlink on account's blog.
func Reblog(account, author, permlink string) (domain.Operation, error) {
	return customJSON(account, []any{"reblog", map[string]any{
		"account":  account,
		"author":   author,
		"permlink": permlink,
	}})
}

func customJSON(account string, body any) (domain.Operation, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return domain.Operation{}, errors.Wrap(err, "encode custom_json")
	}
	return domain.Operation{
		Name: "custom_json",
		Payload: CustomJSONOp{
			RequiredAuths:        []string{},
			RequiredPostingAuths: []string{account},
			ID:                   followPluginID,
			JSON:                 string(raw),
		},
	}, nil
}
