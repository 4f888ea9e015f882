package server

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
	ledgerdomain "github.com/smallbiznis/flightsurety/internal/ledger/domain"
	walletdomain "github.com/smallbiznis/flightsurety/internal/wallet/domain"
)

// valueRequest carries the value attached to a call, either in gwei or as a
// decimal ether string.
type valueRequest struct {
	Value      *int64 `json:"value"`
	ValueEther string `json:"value_ether"`
}

func (v valueRequest) gwei() (int64, error) {
	ether := strings.TrimSpace(v.ValueEther)
	switch {
	case v.Value != nil && ether != "":
		return 0, newValidationError("value", "invalid_value", "set either value or value_ether")
	case v.Value != nil:
		if *v.Value < 0 {
			return 0, newValidationError("value", "invalid_value", "value must not be negative")
		}
		return *v.Value, nil
	case ether != "":
		gwei, err := walletdomain.ParseEther(ether)
		if err != nil {
			return 0, newValidationError("value_ether", "invalid_value_ether", "value_ether is not a valid ether amount")
		}
		if gwei < 0 {
			return 0, newValidationError("value_ether", "invalid_value_ether", "value_ether must not be negative")
		}
		return gwei, nil
	default:
		return 0, nil
	}
}

type amountResponse struct {
	Amount      int64  `json:"amount"`
	AmountEther string `json:"amount_ether"`
}

func newAmountResponse(gwei int64) amountResponse {
	return amountResponse{Amount: gwei, AmountEther: walletdomain.FormatEther(gwei)}
}

func parseAddress(field, raw string) (common.Address, error) {
	raw = strings.TrimSpace(raw)
	if !common.IsHexAddress(raw) {
		return common.Address{}, newValidationError(field, "invalid_"+field, field+" is not a hex address")
	}
	return common.HexToAddress(raw), nil
}

func parseFlightKey(raw string) (common.Hash, error) {
	decoded, err := hexutil.Decode(strings.TrimSpace(raw))
	if err != nil || len(decoded) != common.HashLength {
		return common.Hash{}, newValidationError("key", "invalid_key", "key must be a 0x-prefixed 32-byte hex string")
	}
	return common.BytesToHash(decoded), nil
}

// call builds the invocation context of an authenticated request.
func call(c *gin.Context, value int64) ledgerdomain.Call {
	caller, _ := callerFromGin(c)
	return ledgerdomain.Call{From: caller, Value: value}
}
