package domain

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Operation is a chain operation in its wire form: `[name, payload]`.
type Operation struct {
	Name    string
	Payload any
}

// MarshalJSON encodes the operation as a two-element array.
func (o Operation) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{o.Name, o.Payload})
}

// UnmarshalJSON decodes a two-element array, keeping the payload raw.
func (o *Operation) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return errors.Errorf("operation must have 2 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &o.Name); err != nil {
		return errors.Wrap(err, "decode operation name")
	}
	o.Payload = raw[1]
	return nil
}

// BroadcastResult is the transaction confirmation returned by the signing service.
type BroadcastResult struct {
	ID          string          `json:"id"`
	BlockNum    int64           `json:"block_num"`
	TrxNum      int64           `json:"trx_num"`
	Expired     bool            `json:"expired"`
	Transaction json.RawMessage `json:"transaction,omitempty"`
}

// Beneficiary routes a share of a post's author reward to another account.
// Weight is a percentage (50.5 means 50.5%).
type Beneficiary struct {
	Account string  `json:"account"`
	Weight  float64 `json:"weight"`
}

// LoginResult is what the signing service hands back on its redirect URL.
type LoginResult struct {
	Account     string `json:"account"`
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}
