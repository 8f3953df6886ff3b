package models

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// ComakerType names the comaker variant of a loan.
type ComakerType string

const (
	ComakerNone       ComakerType = "none"
	ComakerMember     ComakerType = "member"
	ComakerDeposit    ComakerType = "deposit"
	ComakerCollateral ComakerType = "others"
)

// Comaker is the guarantor arrangement of a loan. Exactly one variant applies
// per loan; the interface is sealed so only the variants below satisfy it.
type Comaker interface {
	Type() ComakerType
	sealed()
}

// NoComaker is a loan without guarantors.
type NoComaker struct{}

// MemberComaker is guaranteed by other members.
type MemberComaker struct {
	MemberProfileIDs []string `json:"member_profile_ids"`
}

// Pledge is a deposit balance held as security.
type Pledge struct {
	AccountID string          `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// DepositComaker is guaranteed by pledged deposit balances.
type DepositComaker struct {
	Pledges []Pledge `json:"pledges"`
}

// CollateralItem is an asset offered as collateral.
type CollateralItem struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Value       decimal.Decimal `json:"value"`
}

// CollateralComaker is guaranteed by collateral assets.
type CollateralComaker struct {
	Items []CollateralItem `json:"items"`
}

func (NoComaker) Type() ComakerType         { return ComakerNone }
func (MemberComaker) Type() ComakerType     { return ComakerMember }
func (DepositComaker) Type() ComakerType    { return ComakerDeposit }
func (CollateralComaker) Type() ComakerType { return ComakerCollateral }

func (NoComaker) sealed()         {}
func (MemberComaker) sealed()     {}
func (DepositComaker) sealed()    {}
func (CollateralComaker) sealed() {}

// comakerEnvelope is the tagged wire form of a Comaker. Only the field that
// belongs to Type may be populated.
type comakerEnvelope struct {
	Type             ComakerType      `json:"type"`
	MemberProfileIDs []string         `json:"member_profile_ids,omitempty"`
	Pledges          []Pledge         `json:"pledges,omitempty"`
	Items            []CollateralItem `json:"items,omitempty"`
}

// EncodeComaker serialises a comaker with its type tag. A nil comaker encodes
// as NoComaker.
func EncodeComaker(c Comaker) ([]byte, error) {
	env := comakerEnvelope{Type: ComakerNone}
	switch v := c.(type) {
	case nil, NoComaker:
	case MemberComaker:
		env.Type, env.MemberProfileIDs = ComakerMember, v.MemberProfileIDs
	case DepositComaker:
		env.Type, env.Pledges = ComakerDeposit, v.Pledges
	case CollateralComaker:
		env.Type, env.Items = ComakerCollateral, v.Items
	}
	return json.Marshal(env)
}

// DecodeComaker parses the output of EncodeComaker. Data for a variant other
// than the tagged one is rejected.
func DecodeComaker(data []byte) (Comaker, error) {
	var env comakerEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode comaker: %w", err)
	}
	members, pledges, items := len(env.MemberProfileIDs) > 0, len(env.Pledges) > 0, len(env.Items) > 0

	var c Comaker
	var foreign bool
	switch env.Type {
	case ComakerNone, "":
		c, foreign = NoComaker{}, members || pledges || items
	case ComakerMember:
		c, foreign = MemberComaker{MemberProfileIDs: env.MemberProfileIDs}, pledges || items
	case ComakerDeposit:
		c, foreign = DepositComaker{Pledges: env.Pledges}, members || items
	case ComakerCollateral:
		c, foreign = CollateralComaker{Items: env.Items}, members || pledges
	default:
		return nil, fmt.Errorf("unknown comaker type %q", env.Type)
	}
	if foreign {
		return nil, fmt.Errorf("comaker type %s carries data of another type", c.Type())
	}
	return c, nil
}
