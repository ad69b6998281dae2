package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawNumber(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected RawNumber
	}{
		{name: "number", input: `123`, expected: "123"},
		{name: "quoted", input: `"264241152000000000000"`, expected: "264241152000000000000"},
		{name: "negative", input: `-5`, expected: "-5"},
		{name: "null", input: `null`, expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n RawNumber
			require.NoError(t, json.Unmarshal([]byte(tt.input), &n))
			assert.Equal(t, tt.expected, n)
		})
	}

	t.Run("not a number", func(t *testing.T) {
		var n RawNumber
		require.Error(t, json.Unmarshal([]byte(`true`), &n))
	})

	t.Run("conversions", func(t *testing.T) {
		d, err := RawNumber("264241152000000000000").Decimal()
		require.NoError(t, err)
		assert.Equal(t, "264241152000000000000", d.String())

		v, err := RawNumber("-42").Int64()
		require.NoError(t, err)
		assert.Equal(t, int64(-42), v)

		_, err = RawNumber("1e").Decimal()
		require.ErrorIs(t, err, ErrMalformedAmount)
		_, err = RawNumber("264241152000000000000").Int64()
		require.ErrorIs(t, err, ErrMalformedAmount)
	})
}

func TestOperationJSON(t *testing.T) {
	op := Operation{Name: "delete_comment", Payload: map[string]string{"author": "bob", "permlink": "post"}}

	raw, err := json.Marshal(op)
	require.NoError(t, err)
	assert.JSONEq(t, `["delete_comment",{"author":"bob","permlink":"post"}]`, string(raw))

	var decoded Operation
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "delete_comment", decoded.Name)
	assert.JSONEq(t, `{"author":"bob","permlink":"post"}`, string(decoded.Payload.(json.RawMessage)))

	require.Error(t, json.Unmarshal([]byte(`["vote"]`), &decoded))
}

func TestParseOrderOption(t *testing.T) {
	o, err := ParseOrderOption(" payout ")
	require.NoError(t, err)
	assert.Equal(t, OrderPayout, o)

	_, err = ParseOrderOption("loudest")
	require.ErrorIs(t, err, ErrUnsupportedOrder)

	assert.True(t, RewardNone.IsValid())
	assert.False(t, RewardOption("75").IsValid())
}

func TestChainPropertiesValidate(t *testing.T) {
	valid := ChainProperties{
		TotalVestingShares: decimal.NewFromInt(1),
		RecentClaims:       decimal.NewFromInt(1),
		NativeRate:         decimal.NewFromInt(1),
		FetchedAt:          time.Now(),
	}
	require.NoError(t, valid.Validate())

	require.ErrorIs(t, ChainProperties{}.Validate(), ErrPropertiesUnavailable)

	p := valid
	p.TotalVestingShares = decimal.Zero
	require.ErrorIs(t, p.Validate(), ErrZeroTotalVestingShares)

	p = valid
	p.RecentClaims = decimal.Zero
	require.ErrorIs(t, p.Validate(), ErrZeroRecentClaims)

	p = valid
	p.StableRate = decimal.NewFromInt(-1)
	require.ErrorIs(t, p.Validate(), ErrPropertiesUnavailable)

	assert.Equal(t, time.Minute, valid.Age(valid.FetchedAt.Add(time.Minute)))
}

func TestComment(t *testing.T) {
	assert.False(t, Comment{}.Exists())
	assert.True(t, Comment{Body: "hi"}.Exists())
	assert.True(t, Comment{ParentAuthor: "bob"}.IsReply())
	assert.False(t, Comment{ParentPermlink: "steem"}.IsReply())
}
