package domain

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// GweiPerEther is the number of base units in one ether.
const GweiPerEther int64 = 1_000_000_000

var maxGwei = decimal.NewFromInt(math.MaxInt64)

// FormatEther renders a gwei amount as a decimal ether string, e.g. 1500000000 -> "1.5".
func FormatEther(gwei int64) string {
	return decimal.New(gwei, -9).String()
}

// ParseEther converts a decimal ether string to gwei. Fractions below one gwei are rejected.
func ParseEther(value string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	gwei := d.Shift(9)
	if !gwei.IsInteger() {
		return 0, fmt.Errorf("%w: more than 9 decimal places", ErrInvalidAmount)
	}
	if gwei.Abs().GreaterThan(maxGwei) {
		return 0, ErrBalanceOverflow
	}
	return gwei.IntPart(), nil
}

// ValidateBalanced checks that debits equal credits.
func ValidateBalanced(lines []TransferLine) error {
	var debit, credit int64
	for _, line := range lines {
		switch line.Direction {
		case DirectionDebit:
			debit += line.Amount
		case DirectionCredit:
			credit += line.Amount
		default:
			return ErrUnbalancedTransfer
		}
	}
	if debit != credit || debit == 0 {
		return ErrUnbalancedTransfer
	}
	return nil
}
