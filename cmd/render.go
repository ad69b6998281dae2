package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/vadiminshakov/easysteem/internal/domain"
	"github.com/vadiminshakov/easysteem/internal/units"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(22)
	valueStyle = lipgloss.NewStyle().Bold(true)
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type field struct {
	label string
	value string
}

func renderFields(title string, fields []field) string {
	lines := []string{titleStyle.Render(title)}
	for _, f := range fields {
		lines = append(lines, labelStyle.Render(f.label)+valueStyle.Render(f.value))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func renderProps(p domain.ChainProperties, now time.Time) string {
	return renderFields("Chain properties", []field{
		{"reward balance", p.RewardBalance.String()},
		{"recent claims", p.RecentClaims.String()},
		{"total vesting fund", p.TotalVestingFund.String()},
		{"total vesting shares", p.TotalVestingShares.String()},
		{"max virtual bandwidth", p.MaxVirtualBandwidth.String()},
		{"native rate (USD)", p.NativeRate.String()},
		{"stable rate (USD)", p.StableRate.String()},
		{"fetched", fmt.Sprintf("%s (%s ago)", p.FetchedAt.UTC().Format(time.RFC3339), p.Age(now).Round(time.Second))},
	})
}

func renderReport(r domain.AccountReport, decimals int) string {
	bandwidth := "n/a"
	if r.Bandwidth.BytesAllocated != "" {
		bandwidth = fmt.Sprintf("%s%% used, %s of %s left",
			r.Bandwidth.PercentUsed, r.Bandwidth.BytesRemaining, r.Bandwidth.BytesAllocated)
	}
	return renderFields("@"+r.Account, []field{
		{"reputation", r.Reputation},
		{"voting power", units.Fixed(r.VotingPower, decimals) + "%"},
		{"vote value (100%)", "$" + units.Fixed(r.VoteValue, 3)},
		{"net vesting shares", units.Fixed(r.NetVestingShares, 6)},
		{"delegated SP", units.Fixed(r.DelegatedNative, 3)},
		{"account value", "$" + units.Fixed(r.AccountValue, decimals)},
		{"bandwidth", bandwidth},
	})
}

func renderVotes(votes []domain.Vote) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("VOTER", "PERCENT", "PAYOUT", "REPUTATION", "TIME")
	for _, v := range votes {
		t.Row(v.Voter, fmt.Sprintf("%.2f%%", float64(v.Percent)/100), v.VotePayout, v.VoteReputation, v.Time)
	}
	return t.String()
}

func renderComments(comments []domain.Comment) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("AUTHOR", "PERMLINK", "CREATED", "PAYOUT", "REPUTATION")
	for _, c := range comments {
		t.Row(c.Author, c.Permlink, c.Created, c.CommentPayout, c.CommentReputation)
	}
	return t.String()
}

func renderError(err error) string {
	return errStyle.Render("error: " + err.Error())
}
